// Package manifest loads pipeline declarations from manifest files and keeps
// them in a per-build registry.
//
// A manifest is a YAML or TOML file describing pipeline fragments: steps,
// environment variables, and a minimum tool version. Its name is the file
// base name without the extension and must be unique within one registry;
// file contents are digested so reloading an identical file stays a no-op
// while a changed file under the same name is reported as a conflict.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/pipewright/pipewright/src/pipeline"
	"github.com/pipewright/pipewright/src/version"
)

// Manifest is one loaded manifest file.
type Manifest struct {
	Name   string // registry key: file base name without extension
	Path   string // where the manifest was loaded from
	Digest string // hex SHA-256 of the raw file contents

	body *body
}

// Load reads and decodes a manifest file. The format follows the file
// extension: .yml and .yaml decode as YAML, .toml as TOML. Step entries are
// checked while loading, so a malformed manifest fails here rather than
// midway through a build. A `requires` constraint inside the file is
// enforced against the running tool version before the manifest is accepted.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	if name == "" {
		return nil, fmt.Errorf("manifest %s: empty name", path)
	}

	var b *body
	switch strings.ToLower(ext) {
	case ".yml", ".yaml":
		b, err = decodeYAML(data)
	case ".toml":
		b, err = decodeTOML(data)
	default:
		return nil, fmt.Errorf("manifest %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	if err := b.check(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	if err := checkRequires(b.Requires); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}

	sum := sha256.Sum256(data)
	return &Manifest{
		Name:   name,
		Path:   path,
		Digest: hex.EncodeToString(sum[:]),
		body:   b,
	}, nil
}

// Apply replays the manifest's declarations against the builder: environment
// variables first, then steps in file order.
func (m *Manifest) Apply(b *pipeline.Builder) error {
	if m.body == nil {
		return nil
	}
	b.Env(m.body.Env)
	for i, entry := range m.body.Steps {
		if err := applyStep(b, i, entry); err != nil {
			return err
		}
	}
	return nil
}

// checkRequires enforces a manifest's minimum tool version. Development
// builds carry a version that is not semver and bypass the gate.
func checkRequires(constraint string) error {
	if constraint == "" {
		return nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid requires constraint %q: %w", constraint, err)
	}
	v, err := semver.NewVersion(version.Semver())
	if err != nil {
		return nil
	}
	if !c.Check(v) {
		return fmt.Errorf("requires pipewright %s, running %s", constraint, version.Version)
	}
	return nil
}
