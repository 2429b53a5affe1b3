package pipeline

import (
	"reflect"
	"testing"
)

func TestBuilder_AppendsStepsInCallOrder(t *testing.T) {
	b := NewBuilder()
	b.Command(func(s *CommandStep) {
		s.Commands = []string{"make build"}
	})
	b.Wait(nil)
	b.Trigger("deploy")
	b.Block("Release?")
	b.Input("Version")
	b.Skip("missing credentials")

	def := b.Definition()
	wantKinds := []Kind{KindCommand, KindWait, KindTrigger, KindBlock, KindInput, KindSkip}
	if len(def.Steps) != len(wantKinds) {
		t.Fatalf("expected %d steps, got %d", len(wantKinds), len(def.Steps))
	}
	for i, s := range def.Steps {
		if s.Kind() != wantKinds[i] {
			t.Fatalf("steps[%d]: expected kind %q, got %q", i, wantKinds[i], s.Kind())
		}
	}
}

func TestBuilder_CommandCallbackFillsStep(t *testing.T) {
	b := NewBuilder()
	b.Command(func(s *CommandStep) {
		s.Commands = append(s.Commands, "bundle install", "bundle exec rspec")
		s.Label = "specs"
	})

	def := b.Definition()
	s, ok := def.Steps[0].(*CommandStep)
	if !ok {
		t.Fatalf("expected *CommandStep, got %T", def.Steps[0])
	}
	want := []string{"bundle install", "bundle exec rspec"}
	if !reflect.DeepEqual(s.Commands, want) {
		t.Fatalf("expected commands %v, got %v", want, s.Commands)
	}
	if s.Label != "specs" {
		t.Fatalf("expected label %q, got %q", "specs", s.Label)
	}
}

func TestBuilder_NilCallbackStillAppends(t *testing.T) {
	b := NewBuilder()
	b.Command(nil)
	b.Wait(nil)

	def := b.Definition()
	if len(def.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(def.Steps))
	}
	if _, ok := def.Steps[0].(*CommandStep); !ok {
		t.Fatalf("expected *CommandStep, got %T", def.Steps[0])
	}
}

func TestBuilder_WaitCallbackSetsContinueOnFailure(t *testing.T) {
	b := NewBuilder()
	b.Wait(func(s *WaitStep) {
		s.ContinueOnFailure = true
	})

	s := b.Definition().Steps[0].(*WaitStep)
	if !s.ContinueOnFailure {
		t.Fatalf("expected ContinueOnFailure to be set")
	}
}

func TestBuilder_EnvMergesAndLaterCallsWin(t *testing.T) {
	b := NewBuilder()
	b.Env(map[string]string{"RACK_ENV": "development", "CI": "true"})
	b.Env(map[string]string{"RACK_ENV": "test"})

	env := b.Definition().Env
	if env["RACK_ENV"] != "test" {
		t.Fatalf("expected later Env call to win, got RACK_ENV=%q", env["RACK_ENV"])
	}
	if env["CI"] != "true" {
		t.Fatalf("expected earlier keys preserved, got CI=%q", env["CI"])
	}
	if len(env) != 2 {
		t.Fatalf("expected 2 env entries, got %d", len(env))
	}
}

func TestBuilder_EmptyEnvDeclaresNothing(t *testing.T) {
	b := NewBuilder()
	b.Env(map[string]string{})

	if env := b.Definition().Env; env != nil {
		t.Fatalf("expected no env block without declared variables, got %v", env)
	}
}

func TestBuilder_AppendAcceptsPrebuiltStep(t *testing.T) {
	b := NewBuilder()
	b.Append(&TriggerStep{Pipeline: "downstream"})

	s, ok := b.Definition().Steps[0].(*TriggerStep)
	if !ok || s.Pipeline != "downstream" {
		t.Fatalf("expected appended trigger step, got %#v", b.Definition().Steps[0])
	}
}
