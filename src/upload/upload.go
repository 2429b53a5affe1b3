// Package upload hands a finished pipeline to the Buildkite agent: the
// registered artifacts first, then the document itself.
package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pipewright/pipewright/src/agent"
)

// Artifact is one file scheduled to upload alongside the pipeline document.
// Either Path points at a caller-owned file, or Data carries generated
// content that is written to a transient file at upload time.
type Artifact struct {
	Name string // display name; file base name for generated content
	Path string // caller-owned file, left in place after upload
	Data []byte // generated content, written transiently
}

// FileArtifact references a caller-owned file on disk.
func FileArtifact(path string) Artifact {
	return Artifact{Name: filepath.Base(path), Path: path}
}

// BytesArtifact carries generated content uploaded under name.
func BytesArtifact(name string, data []byte) Artifact {
	return Artifact{Name: name, Data: data}
}

// UploadError reports a failed agent invocation during an upload pass.
type UploadError struct {
	Op   string // "artifact upload" or "pipeline upload"
	Path string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%s of %s: %v", e.Op, e.Path, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Uploader drives one upload pass against an agent.
type Uploader struct {
	Agent   agent.Agent
	Verbose bool
	Stderr  io.Writer // defaults to os.Stderr
}

func (u *Uploader) stderr() io.Writer {
	if u.Stderr != nil {
		return u.Stderr
	}
	return os.Stderr
}

// Upload writes the rendered document to a transient file, uploads every
// artifact in registration order with the document appended last, then
// submits the document as the pipeline for the current build. The first
// agent failure aborts the pass and surfaces as an UploadError. Transient
// files are removed on every path out, success or failure; caller-owned
// artifact files are left in place.
func (u *Uploader) Upload(ctx context.Context, doc []byte, artifacts []Artifact) error {
	dir, err := os.MkdirTemp("", "pipewright-upload-")
	if err != nil {
		return fmt.Errorf("creating transient dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil && u.Verbose {
			fmt.Fprintf(u.stderr(), "note: removing transient dir: %v\n", rmErr)
		}
	}()

	docPath := filepath.Join(dir, "pipeline.yml")
	if err := os.WriteFile(docPath, doc, 0o644); err != nil {
		return fmt.Errorf("writing pipeline document: %w", err)
	}

	paths := make([]string, 0, len(artifacts)+1)
	for i, a := range artifacts {
		path := a.Path
		if path == "" {
			path, err = writeTransient(dir, i, a)
			if err != nil {
				return err
			}
		}
		paths = append(paths, path)
	}
	paths = append(paths, docPath)

	for _, path := range paths {
		if u.Verbose {
			fmt.Fprintf(u.stderr(), "uploading artifact %s\n", path)
		}
		if err := u.Agent.UploadArtifact(ctx, path); err != nil {
			return &UploadError{Op: "artifact upload", Path: path, Err: err}
		}
	}

	if u.Verbose {
		fmt.Fprintf(u.stderr(), "uploading pipeline %s\n", docPath)
	}
	if err := u.Agent.UploadPipeline(ctx, docPath); err != nil {
		return &UploadError{Op: "pipeline upload", Path: docPath, Err: err}
	}
	return nil
}

// writeTransient places one generated artifact under the transient dir.
// Artifacts get numbered subdirectories so equal names cannot collide with
// each other or with the pipeline document.
func writeTransient(dir string, i int, a Artifact) (string, error) {
	name := a.Name
	if name == "" {
		name = "artifact"
	}
	name = filepath.Clean(name)
	if filepath.IsAbs(name) || name == ".." || strings.HasPrefix(name, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid artifact name %q", a.Name)
	}

	path := filepath.Join(dir, "artifacts", strconv.Itoa(i), name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating transient artifact dir: %w", err)
	}
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return "", fmt.Errorf("writing transient artifact %s: %w", name, err)
	}
	return path, nil
}
