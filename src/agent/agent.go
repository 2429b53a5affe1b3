// Package agent wraps the Buildkite agent binary that finished pipelines
// are handed to.
//
// Everything pipewright pushes outward goes through the Agent interface, so
// commands can run dry or record in tests without a real agent on PATH.
package agent

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// DefaultBinary is the agent executable resolved from PATH when no explicit
// binary is configured.
const DefaultBinary = "buildkite-agent"

// Agent is the write surface toward Buildkite: storing build artifacts and
// submitting pipeline documents.
type Agent interface {
	UploadArtifact(ctx context.Context, path string) error
	UploadPipeline(ctx context.Context, path string) error
}

// ExecAgent shells out to the buildkite-agent binary.
type ExecAgent struct {
	Binary  string // agent executable, DefaultBinary when empty
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
}

// NewExecAgent creates an ExecAgent with default output writers.
func NewExecAgent(binary string, verbose bool) *ExecAgent {
	if binary == "" {
		binary = DefaultBinary
	}
	return &ExecAgent{
		Binary:  binary,
		Verbose: verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// UploadArtifact stores the file at path with the current build's artifacts.
func (a *ExecAgent) UploadArtifact(ctx context.Context, path string) error {
	return a.run(ctx, "artifact", "upload", path)
}

// UploadPipeline submits the pipeline document at path to the current build.
func (a *ExecAgent) UploadPipeline(ctx context.Context, path string) error {
	return a.run(ctx, "pipeline", "upload", path)
}

func (a *ExecAgent) run(ctx context.Context, args ...string) error {
	binary := a.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	if a.Verbose {
		fmt.Fprintf(a.Stderr, "exec: %s %s\n", binary, strings.Join(args, " "))
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = a.Stdout
	cmd.Stderr = a.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s failed: %w", binary, strings.Join(args[:2], " "), err)
	}
	return nil
}

// DryRunAgent prints the operations a real agent would perform without
// executing any of them.
type DryRunAgent struct {
	W io.Writer
}

func (a *DryRunAgent) UploadArtifact(ctx context.Context, path string) error {
	fmt.Fprintf(a.W, "dry-run: artifact upload %s\n", path)
	return nil
}

func (a *DryRunAgent) UploadPipeline(ctx context.Context, path string) error {
	fmt.Fprintf(a.W, "dry-run: pipeline upload %s\n", path)
	return nil
}
