package pipeline

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Wire layouts. Struct field order here is the key order in the emitted
// document; yaml.v3 preserves it, so these types pin the canonical layout of
// each step kind.

type commandWire struct {
	Command []string `yaml:"command"`
	Label   string   `yaml:"label,omitempty"`
}

type triggerWire struct {
	Trigger string `yaml:"trigger"`
}

type waitWire struct {
	Wait              any  `yaml:"wait"` // always nil, renders `wait: null`
	ContinueOnFailure bool `yaml:"continue_on_failure,omitempty"`
}

type blockWire struct {
	Block string `yaml:"block"`
}

type inputWire struct {
	Input string `yaml:"input"`
}

type skipWire struct {
	Skip    string `yaml:"skip"`
	Command any    `yaml:"command"` // always nil, a skipped step carries no command
}

type documentWire struct {
	Steps []any             `yaml:"steps"`
	Env   map[string]string `yaml:"env,omitempty"`
}

// ToYAML emits the canonical YAML document for the definition: a leading
// document marker, two-space indent, steps in declaration order, and within
// each step the fixed key order of its kind. Environment keys are emitted
// sorted, so identical definitions render byte-identical documents.
func (d *Definition) ToYAML() ([]byte, error) {
	doc, err := d.wire()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding pipeline document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding pipeline document: %w", err)
	}
	return buf.Bytes(), nil
}

// ToMap returns the document as generic Go values, shaped exactly as parsing
// the rendered YAML shapes it: map[string]any mappings, []any sequences, nil
// for explicit nulls, and optional keys absent rather than zero valued.
func (d *Definition) ToMap() (map[string]any, error) {
	if d == nil {
		return nil, &PipelineValidationError{Got: "nil"}
	}
	steps := make([]any, 0, len(d.Steps))
	for i, s := range d.Steps {
		m, err := stepMap(i, s)
		if err != nil {
			return nil, err
		}
		steps = append(steps, m)
	}
	doc := map[string]any{"steps": steps}
	if len(d.Env) > 0 {
		env := make(map[string]any, len(d.Env))
		for k, v := range d.Env {
			env[k] = v
		}
		doc["env"] = env
	}
	return doc, nil
}

func (d *Definition) wire() (*documentWire, error) {
	if d == nil {
		return nil, &PipelineValidationError{Got: "nil"}
	}
	doc := &documentWire{Steps: make([]any, 0, len(d.Steps)), Env: d.Env}
	for i, s := range d.Steps {
		w, err := stepWire(i, s)
		if err != nil {
			return nil, err
		}
		doc.Steps = append(doc.Steps, w)
	}
	return doc, nil
}

func stepWire(i int, s Step) (any, error) {
	switch v := s.(type) {
	case *CommandStep:
		if v == nil {
			break
		}
		cmds := v.Commands
		if cmds == nil {
			cmds = []string{} // a bare command step renders `command: []`, never null
		}
		return commandWire{Command: cmds, Label: v.Label}, nil
	case *TriggerStep:
		if v == nil {
			break
		}
		return triggerWire{Trigger: v.Pipeline}, nil
	case *WaitStep:
		if v == nil {
			break
		}
		return waitWire{ContinueOnFailure: v.ContinueOnFailure}, nil
	case *BlockStep:
		if v == nil {
			break
		}
		return blockWire{Block: v.Prompt}, nil
	case *InputStep:
		if v == nil {
			break
		}
		return inputWire{Input: v.Prompt}, nil
	case *SkipStep:
		if v == nil {
			break
		}
		return skipWire{Skip: v.Reason}, nil
	}
	return nil, &StepValidationError{Index: i, Got: describeStep(s)}
}

func stepMap(i int, s Step) (map[string]any, error) {
	switch v := s.(type) {
	case *CommandStep:
		if v == nil {
			break
		}
		cmds := make([]any, 0, len(v.Commands))
		for _, c := range v.Commands {
			cmds = append(cmds, c)
		}
		m := map[string]any{"command": cmds}
		if v.Label != "" {
			m["label"] = v.Label
		}
		return m, nil
	case *TriggerStep:
		if v == nil {
			break
		}
		return map[string]any{"trigger": v.Pipeline}, nil
	case *WaitStep:
		if v == nil {
			break
		}
		m := map[string]any{"wait": nil}
		if v.ContinueOnFailure {
			m["continue_on_failure"] = true
		}
		return m, nil
	case *BlockStep:
		if v == nil {
			break
		}
		return map[string]any{"block": v.Prompt}, nil
	case *InputStep:
		if v == nil {
			break
		}
		return map[string]any{"input": v.Prompt}, nil
	case *SkipStep:
		if v == nil {
			break
		}
		return map[string]any{"skip": v.Reason, "command": nil}, nil
	}
	return nil, &StepValidationError{Index: i, Got: describeStep(s)}
}
