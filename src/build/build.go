// Package build assembles one pipeline per invocation: manifests and
// extensions contribute declarations in a fixed order, the result is
// validated, and Upload hands the rendered document to the agent.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pipewright/pipewright/src/agent"
	"github.com/pipewright/pipewright/src/extension"
	"github.com/pipewright/pipewright/src/manifest"
	"github.com/pipewright/pipewright/src/pipeline"
	"github.com/pipewright/pipewright/src/secrets"
	"github.com/pipewright/pipewright/src/upload"
)

// Pipeline owns one build: the manifest registry, the extension set, the
// validated definition, and the artifacts scheduled to ship with it.
type Pipeline struct {
	root       string
	registry   *manifest.Registry
	extensions *extension.Set
	def        *pipeline.Definition
	artifacts  []upload.Artifact
}

// New creates a pipeline build rooted at root. A nil registry or extension
// set is replaced with an empty one.
func New(root string, reg *manifest.Registry, exts *extension.Set) *Pipeline {
	if reg == nil {
		reg = manifest.NewRegistry()
	}
	if exts == nil {
		exts = extension.NewSet()
	}
	return &Pipeline{root: root, registry: reg, extensions: exts}
}

// Build evaluates every declaration source into a validated definition:
// each registered manifest in load order, then each extension in
// registration order, then fn. Single pass, declaration order preserved.
// Build runs at most once per Pipeline.
func (p *Pipeline) Build(fn func(b *pipeline.Builder) error) error {
	if p.def != nil {
		return errors.New("pipeline already built")
	}

	b := pipeline.NewBuilder()
	for _, m := range p.registry.List() {
		if err := m.Apply(b); err != nil {
			return fmt.Errorf("manifest %s: %w", m.Name, err)
		}
	}
	for _, ext := range p.extensions.All() {
		if err := ext.Apply(p.root, b); err != nil {
			return fmt.Errorf("extension %s: %w", ext.Name(), err)
		}
	}
	if fn != nil {
		if err := fn(b); err != nil {
			return fmt.Errorf("pipeline callback: %w", err)
		}
	}

	def := b.Definition()
	if err := def.Validate(); err != nil {
		return err
	}
	p.def = def
	return nil
}

// Definition returns the validated definition, nil until Build succeeds.
func (p *Pipeline) Definition() *pipeline.Definition {
	return p.def
}

// AddArtifact schedules a caller-owned file for upload alongside the
// document. The file is read at upload time and never deleted.
func (p *Pipeline) AddArtifact(path string) {
	p.artifacts = append(p.artifacts, upload.FileArtifact(path))
}

// AddArtifactBytes schedules generated content for upload under name. The
// bytes are written to a transient file at upload time and removed after.
func (p *Pipeline) AddArtifactBytes(name string, data []byte) {
	p.artifacts = append(p.artifacts, upload.BytesArtifact(name, data))
}

// Artifacts returns the scheduled artifacts in registration order.
func (p *Pipeline) Artifacts() []upload.Artifact {
	out := make([]upload.Artifact, len(p.artifacts))
	copy(out, p.artifacts)
	return out
}

// UploadOptions configures one upload pass.
type UploadOptions struct {
	Agent    agent.Agent      // destination, required
	Scanner  *secrets.Scanner // pre-upload leak scan, nil skips it
	WarnOnly bool             // report findings on Stderr instead of failing
	Verbose  bool             // note each agent call on Stderr
	Stderr   io.Writer        // defaults to os.Stderr
}

// Upload renders the built definition and hands it to the agent: artifacts
// in registration order, the document last, then the pipeline submission.
// With a scanner set, the document and every artifact are scanned first and
// findings abort the pass before anything is transmitted.
func (p *Pipeline) Upload(ctx context.Context, opts UploadOptions) error {
	if p.def == nil {
		return errors.New("pipeline not built")
	}
	if opts.Agent == nil {
		return errors.New("no agent configured")
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	doc, err := p.def.ToYAML()
	if err != nil {
		return err
	}

	if opts.Scanner != nil {
		if err := p.scanForLeaks(ctx, opts.Scanner, doc, opts.WarnOnly, stderr); err != nil {
			return err
		}
	}

	u := &upload.Uploader{Agent: opts.Agent, Verbose: opts.Verbose, Stderr: stderr}
	return u.Upload(ctx, doc, p.artifacts)
}

// scanForLeaks checks the rendered document and every registered artifact.
// Findings fail the pass unless warnOnly is set, in which case they are
// printed and the upload proceeds.
func (p *Pipeline) scanForLeaks(ctx context.Context, sc *secrets.Scanner, doc []byte, warnOnly bool, stderr io.Writer) error {
	targets := make([]secrets.Target, 0, len(p.artifacts)+1)
	targets = append(targets, secrets.Target{Name: "pipeline document", Data: doc})
	for _, a := range p.artifacts {
		targets = append(targets, secrets.Target{Name: a.Name, Path: a.Path, Data: a.Data})
	}

	findings, err := sc.ScanAll(ctx, targets)
	if err != nil {
		return fmt.Errorf("scanning for secrets: %w", err)
	}
	if len(findings) == 0 {
		return nil
	}
	if !warnOnly {
		return &secrets.LeakError{Findings: findings}
	}
	for _, f := range findings {
		fmt.Fprintf(stderr, "warning: potential secret at %s\n", f)
	}
	return nil
}
