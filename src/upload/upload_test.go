package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// recordingAgent captures operations in order, the path handed over for
// each, and a snapshot of the file bytes visible at upload time. It can be
// told to fail on one artifact base name or on the pipeline submission.
type recordingAgent struct {
	ops      []string // "artifact <base>" / "pipeline <base>"
	paths    []string // full path per recorded op
	contents [][]byte // file bytes per recorded op, read during the call
	failBase string
	failPipe bool
	boom     error
}

func newRecordingAgent() *recordingAgent {
	return &recordingAgent{boom: errors.New("agent exploded")}
}

// record snapshots one operation. Contents are read inside the call so the
// tests can prove the file still existed, with the right bytes, at the
// moment the agent saw it.
func (f *recordingAgent) record(op, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s during %s: %w", filepath.Base(path), op, err)
	}
	f.ops = append(f.ops, op+" "+filepath.Base(path))
	f.paths = append(f.paths, path)
	f.contents = append(f.contents, data)
	return nil
}

func (f *recordingAgent) UploadArtifact(ctx context.Context, path string) error {
	if filepath.Base(path) == f.failBase {
		return f.boom
	}
	return f.record("artifact", path)
}

func (f *recordingAgent) UploadPipeline(ctx context.Context, path string) error {
	if f.failPipe {
		return f.boom
	}
	return f.record("pipeline", path)
}

func mustBeGone(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected transient file %s to be removed, stat err: %v", path, err)
	}
}

func TestUpload_OrderContentsAndCleanup(t *testing.T) {
	callerFile := filepath.Join(t.TempDir(), "report.txt")
	if err := os.WriteFile(callerFile, []byte("report"), 0o644); err != nil {
		t.Fatalf("write caller file: %v", err)
	}

	doc := []byte("---\nsteps: []\n")
	fake := newRecordingAgent()
	u := &Uploader{Agent: fake}

	artifacts := []Artifact{
		FileArtifact(callerFile),
		BytesArtifact("coverage.xml", []byte("<coverage/>")),
	}
	if err := u.Upload(context.Background(), doc, artifacts); err != nil {
		t.Fatalf("upload: %v", err)
	}

	wantOps := []string{
		"artifact report.txt",
		"artifact coverage.xml",
		"artifact pipeline.yml",
		"pipeline pipeline.yml",
	}
	if !reflect.DeepEqual(fake.ops, wantOps) {
		t.Fatalf("expected ops %v, got %v", wantOps, fake.ops)
	}
	wantContents := [][]byte{[]byte("report"), []byte("<coverage/>"), doc, doc}
	if !reflect.DeepEqual(fake.contents, wantContents) {
		t.Fatalf("expected contents %q, got %q", wantContents, fake.contents)
	}
	// The document artifact and the pipeline submission point at one file.
	if fake.paths[2] != fake.paths[3] {
		t.Fatalf("expected document uploaded from a single path, got %q and %q", fake.paths[2], fake.paths[3])
	}

	// Transient files are gone, the caller's file stays.
	mustBeGone(t, fake.paths[1]) // generated coverage.xml
	mustBeGone(t, fake.paths[2]) // pipeline document
	if _, err := os.Stat(callerFile); err != nil {
		t.Fatalf("caller-owned artifact must remain in place: %v", err)
	}
}

func TestUpload_EmptyPipelineUploadsDocumentOnly(t *testing.T) {
	fake := newRecordingAgent()
	var notes bytes.Buffer
	u := &Uploader{Agent: fake, Verbose: true, Stderr: &notes}

	doc := []byte("---\nsteps: []\n")
	if err := u.Upload(context.Background(), doc, nil); err != nil {
		t.Fatalf("upload: %v", err)
	}

	wantOps := []string{"artifact pipeline.yml", "pipeline pipeline.yml"}
	if !reflect.DeepEqual(fake.ops, wantOps) {
		t.Fatalf("expected ops %v, got %v", wantOps, fake.ops)
	}
	if fake.paths[0] != fake.paths[1] {
		t.Fatalf("expected both uploads from one path, got %q and %q", fake.paths[0], fake.paths[1])
	}
	for i, got := range fake.contents {
		if !bytes.Equal(got, doc) {
			t.Fatalf("op %d: expected document bytes, got %q", i, got)
		}
	}
	mustBeGone(t, fake.paths[0])
	if !strings.Contains(notes.String(), "uploading pipeline") {
		t.Fatalf("expected verbose note, got %q", notes.String())
	}
}

func TestUpload_AbortsOnFirstArtifactFailure(t *testing.T) {
	fake := newRecordingAgent()
	fake.failBase = "coverage.xml"
	u := &Uploader{Agent: fake}

	artifacts := []Artifact{
		BytesArtifact("first.txt", []byte("1")),
		BytesArtifact("coverage.xml", []byte("2")),
		BytesArtifact("after.txt", []byte("3")),
	}
	err := u.Upload(context.Background(), []byte("---\nsteps: []\n"), artifacts)

	var uerr *UploadError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected *UploadError, got %v", err)
	}
	if uerr.Op != "artifact upload" {
		t.Fatalf("expected artifact upload op, got %q", uerr.Op)
	}
	if filepath.Base(uerr.Path) != "coverage.xml" {
		t.Fatalf("expected failing path coverage.xml, got %q", uerr.Path)
	}
	if !errors.Is(err, fake.boom) {
		t.Fatalf("expected cause to unwrap, got %v", err)
	}

	wantOps := []string{"artifact first.txt"}
	if !reflect.DeepEqual(fake.ops, wantOps) {
		t.Fatalf("expected remaining ops skipped, got %v", fake.ops)
	}
	mustBeGone(t, fake.paths[0]) // cleanup still ran
}

func TestUpload_PipelineFailureWrapped(t *testing.T) {
	fake := newRecordingAgent()
	fake.failPipe = true
	u := &Uploader{Agent: fake}

	err := u.Upload(context.Background(), []byte("---\nsteps: []\n"), nil)
	var uerr *UploadError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected *UploadError, got %v", err)
	}
	if uerr.Op != "pipeline upload" {
		t.Fatalf("expected pipeline upload op, got %q", uerr.Op)
	}
	mustBeGone(t, fake.paths[0]) // document removed despite the failure
}

func TestUpload_RejectsEscapingArtifactName(t *testing.T) {
	fake := newRecordingAgent()
	u := &Uploader{Agent: fake}

	err := u.Upload(context.Background(), []byte("---\nsteps: []\n"), []Artifact{
		BytesArtifact("../evil.txt", []byte("x")),
	})
	if err == nil || !strings.Contains(err.Error(), "invalid artifact name") {
		t.Fatalf("expected invalid artifact name error, got %v", err)
	}
	if len(fake.ops) != 0 {
		t.Fatalf("expected no agent operations, got %v", fake.ops)
	}
}
