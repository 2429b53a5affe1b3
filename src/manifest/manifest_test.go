package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pipewright/pipewright/src/pipeline"
	"github.com/pipewright/pipewright/src/version"
)

func writeManifestIn(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func writeManifest(t *testing.T, name, content string) string {
	t.Helper()
	return writeManifestIn(t, t.TempDir(), name, content)
}

func applyToDefinition(t *testing.T, m *Manifest) *pipeline.Definition {
	t.Helper()

	b := pipeline.NewBuilder()
	if err := m.Apply(b); err != nil {
		t.Fatalf("apply %s: %v", m.Name, err)
	}
	return b.Definition()
}

func TestLoad_YAMLManifest(t *testing.T) {
	path := writeManifest(t, "ci.yml", `
env:
  RACK_ENV: test
steps:
  - command:
      - bundle install
      - bundle exec rspec
    label: specs
  - wait: ~
    continue_on_failure: true
  - trigger: deploy
`)
	m, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Name != "ci" {
		t.Fatalf("expected name %q, got %q", "ci", m.Name)
	}
	if m.Path != path {
		t.Fatalf("expected path %q, got %q", path, m.Path)
	}
	if len(m.Digest) != 64 {
		t.Fatalf("expected hex sha256 digest, got %q", m.Digest)
	}

	def := applyToDefinition(t, m)
	if len(def.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(def.Steps))
	}
	cmd, ok := def.Steps[0].(*pipeline.CommandStep)
	if !ok {
		t.Fatalf("expected command step first, got %T", def.Steps[0])
	}
	if want := []string{"bundle install", "bundle exec rspec"}; !reflect.DeepEqual(cmd.Commands, want) {
		t.Fatalf("expected commands %v, got %v", want, cmd.Commands)
	}
	if cmd.Label != "specs" {
		t.Fatalf("expected label %q, got %q", "specs", cmd.Label)
	}
	wait, ok := def.Steps[1].(*pipeline.WaitStep)
	if !ok || !wait.ContinueOnFailure {
		t.Fatalf("expected wait step with continue_on_failure, got %#v", def.Steps[1])
	}
	trig, ok := def.Steps[2].(*pipeline.TriggerStep)
	if !ok || trig.Pipeline != "deploy" {
		t.Fatalf("expected trigger step for deploy, got %#v", def.Steps[2])
	}
	if def.Env["RACK_ENV"] != "test" {
		t.Fatalf("expected env RACK_ENV=test, got %v", def.Env)
	}
}

func TestLoad_TOMLManifest(t *testing.T) {
	path := writeManifest(t, "release.toml", `
[env]
DEPLOY_ENV = "production"

[[steps]]
command = "make release"
label = "release"

[[steps]]
wait = true
continue_on_failure = true

[[steps]]
block = "Ship it?"
`)
	m, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Name != "release" {
		t.Fatalf("expected name %q, got %q", "release", m.Name)
	}

	def := applyToDefinition(t, m)
	if len(def.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(def.Steps))
	}
	cmd, ok := def.Steps[0].(*pipeline.CommandStep)
	if !ok {
		t.Fatalf("expected command step first, got %T", def.Steps[0])
	}
	if want := []string{"make release"}; !reflect.DeepEqual(cmd.Commands, want) {
		t.Fatalf("expected scalar command to coerce to %v, got %v", want, cmd.Commands)
	}
	wait, ok := def.Steps[1].(*pipeline.WaitStep)
	if !ok || !wait.ContinueOnFailure {
		t.Fatalf("expected wait step with continue_on_failure, got %#v", def.Steps[1])
	}
	block, ok := def.Steps[2].(*pipeline.BlockStep)
	if !ok || block.Prompt != "Ship it?" {
		t.Fatalf("expected block step, got %#v", def.Steps[2])
	}
	if def.Env["DEPLOY_ENV"] != "production" {
		t.Fatalf("expected env DEPLOY_ENV=production, got %v", def.Env)
	}
}

func TestLoad_NameStripsOnlyFinalExtension(t *testing.T) {
	path := writeManifest(t, "deploy.pipeline.yml", "steps: []\n")
	m, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Name != "deploy.pipeline" {
		t.Fatalf("expected name %q, got %q", "deploy.pipeline", m.Name)
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	path := writeManifest(t, "notes.txt", "steps: []\n")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
}

func TestLoad_EmptyFileDeclaresNothing(t *testing.T) {
	path := writeManifest(t, "empty.yml", "")
	m, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := applyToDefinition(t, m)
	if len(def.Steps) != 0 || def.Env != nil {
		t.Fatalf("expected empty declaration, got %#v", def)
	}
}

func TestLoad_RequiresGate(t *testing.T) {
	orig := version.Version
	version.Version = "1.2.3"
	defer func() { version.Version = orig }()

	blocked := writeManifest(t, "future.yml", "requires: \">= 9.0.0\"\nsteps: []\n")
	if _, err := Load(blocked); err == nil || !strings.Contains(err.Error(), "requires") {
		t.Fatalf("expected requires gate to reject, got %v", err)
	}

	allowed := writeManifest(t, "current.yml", "requires: \">= 1.0.0\"\nsteps: []\n")
	if _, err := Load(allowed); err != nil {
		t.Fatalf("expected requires gate to pass, got %v", err)
	}

	malformed := writeManifest(t, "typo.yml", "requires: \"not-a-constraint!!\"\nsteps: []\n")
	if _, err := Load(malformed); err == nil || !strings.Contains(err.Error(), "invalid requires constraint") {
		t.Fatalf("expected constraint parse error, got %v", err)
	}
}

func TestLoad_RequiresBypassedOnDevBuilds(t *testing.T) {
	orig := version.Version
	version.Version = "dev"
	defer func() { version.Version = orig }()

	path := writeManifest(t, "future.yml", "requires: \">= 9.0.0\"\nsteps: []\n")
	if _, err := Load(path); err != nil {
		t.Fatalf("expected dev build to bypass requires, got %v", err)
	}
}

func TestLoad_RootMustBeMapping(t *testing.T) {
	path := writeManifest(t, "broken.yml", "- just\n- a list\n")
	_, err := Load(path)
	var perr *pipeline.PipelineValidationError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *pipeline.PipelineValidationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "pipeline definition") {
		t.Fatalf("expected message to name the pipeline definition, got %q", err.Error())
	}
}

func TestLoad_MalformedStepEntries(t *testing.T) {
	// Unrecognized kind.
	{
		path := writeManifest(t, "bad.yml", "steps:\n  - dance: hard\n")
		_, err := Load(path)
		var serr *pipeline.StepValidationError
		if !errors.As(err, &serr) {
			t.Fatalf("expected *pipeline.StepValidationError, got %v", err)
		}
		if serr.Index != 0 || !strings.Contains(err.Error(), "steps[0]") {
			t.Fatalf("expected failing index 0, got %v", err)
		}
	}

	// Two kinds in one entry.
	{
		path := writeManifest(t, "bad.yml", "steps:\n  - command: make\n    trigger: deploy\n")
		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), "multiple step kinds") {
			t.Fatalf("expected multiple-kind error, got %v", err)
		}
	}

	// Entry is not a mapping at all.
	{
		path := writeManifest(t, "bad.yml", "steps:\n  - wait: ~\n  - 42\n")
		_, err := Load(path)
		var serr *pipeline.StepValidationError
		if !errors.As(err, &serr) {
			t.Fatalf("expected *pipeline.StepValidationError, got %v", err)
		}
		if serr.Index != 1 {
			t.Fatalf("expected failing index 1, got %d", serr.Index)
		}
	}

	// Payload of the wrong type.
	{
		path := writeManifest(t, "bad.yml", "steps:\n  - trigger: [a, b]\n")
		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), "invalid trigger value") {
			t.Fatalf("expected invalid trigger value error, got %v", err)
		}
	}

	// Key the kind does not accept.
	{
		path := writeManifest(t, "bad.yml", "steps:\n  - command: make\n    retry: 2\n")
		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), `unknown key "retry"`) {
			t.Fatalf("expected unknown key error, got %v", err)
		}
	}
}
