package manifest

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/pipewright/pipewright/src/pipeline"
)

// body is the decoded content of a manifest file, normalized across formats.
// Step entries stay generic mappings; applyStep interprets them against a
// builder so manifests and programmatic declarations share one path.
type body struct {
	Requires string            // semver constraint on the running tool
	Env      map[string]string // pipeline-level environment variables
	Steps    []map[string]any  // one mapping per step, file order
}

type yamlBody struct {
	Requires string            `yaml:"requires"`
	Env      map[string]string `yaml:"env"`
	Steps    []yaml.Node       `yaml:"steps"`
}

type tomlBody struct {
	Requires string            `toml:"requires"`
	Env      map[string]string `toml:"env"`
	Steps    []map[string]any  `toml:"steps"`
}

func decodeYAML(data []byte) (*body, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &pipeline.PipelineValidationError{Got: fmt.Sprintf("unparsable YAML (%v)", err)}
	}
	if len(root.Content) == 0 {
		// An empty file declares nothing.
		return &body{}, nil
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, &pipeline.PipelineValidationError{Got: yamlKindName(doc)}
	}
	var yb yamlBody
	if err := doc.Decode(&yb); err != nil {
		return nil, &pipeline.PipelineValidationError{Got: fmt.Sprintf("malformed document (%v)", err)}
	}

	steps := make([]map[string]any, 0, len(yb.Steps))
	for i := range yb.Steps {
		node := &yb.Steps[i]
		var entry map[string]any
		if err := node.Decode(&entry); err != nil {
			return nil, &pipeline.StepValidationError{Index: i, Got: yamlKindName(node)}
		}
		steps = append(steps, entry)
	}
	return &body{Requires: yb.Requires, Env: yb.Env, Steps: steps}, nil
}

func decodeTOML(data []byte) (*body, error) {
	var tb tomlBody
	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&tb); err != nil {
		return nil, &pipeline.PipelineValidationError{Got: fmt.Sprintf("malformed TOML (%v)", err)}
	}
	return &body{Requires: tb.Requires, Env: tb.Env, Steps: tb.Steps}, nil
}

// check interprets every step entry against a scratch builder so malformed
// manifests fail at load time with the entry's position.
func (b *body) check() error {
	scratch := pipeline.NewBuilder()
	for i, entry := range b.Steps {
		if err := applyStep(scratch, i, entry); err != nil {
			return err
		}
	}
	return nil
}

// stepKinds is the recognition order for an entry's leading kind key.
var stepKinds = []string{"command", "trigger", "wait", "block", "input", "skip"}

// stepExtras lists the additional keys each kind accepts.
var stepExtras = map[string]map[string]bool{
	"command": {"label": true},
	"wait":    {"continue_on_failure": true},
	"trigger": {},
	"block":   {},
	"input":   {},
	"skip":    {},
}

// applyStep interprets one decoded steps entry and appends it to the
// builder. The entry must carry exactly one kind key; its value and any
// extra keys are coerced per kind.
func applyStep(b *pipeline.Builder, i int, entry map[string]any) error {
	var present []string
	for _, k := range stepKinds {
		if _, ok := entry[k]; ok {
			present = append(present, k)
		}
	}
	switch len(present) {
	case 1:
	case 0:
		return &pipeline.StepValidationError{Index: i, Got: describeEntry(entry)}
	default:
		return &pipeline.StepValidationError{Index: i, Got: fmt.Sprintf("multiple step kinds (%s)", strings.Join(present, ", "))}
	}
	kind := present[0]

	for key := range entry {
		if key == kind || stepExtras[kind][key] {
			continue
		}
		return &pipeline.StepValidationError{Index: i, Got: fmt.Sprintf("%s step with unknown key %q", kind, key)}
	}

	switch kind {
	case "command":
		cmds, ok := stringListValue(entry["command"])
		if !ok {
			return badValue(i, kind, "command", entry["command"])
		}
		label := ""
		if raw, has := entry["label"]; has {
			label, ok = stringValue(raw)
			if !ok {
				return badValue(i, kind, "label", raw)
			}
		}
		b.Command(func(s *pipeline.CommandStep) {
			s.Commands = cmds
			s.Label = label
		})
	case "trigger":
		target, ok := stringValue(entry["trigger"])
		if !ok {
			return badValue(i, kind, "trigger", entry["trigger"])
		}
		b.Trigger(target)
	case "wait":
		// The wait key's own value is ignored; TOML has no null, so
		// `wait = true` and `wait = ""` both declare the barrier.
		cof := false
		if raw, has := entry["continue_on_failure"]; has {
			var ok bool
			cof, ok = boolValue(raw)
			if !ok {
				return badValue(i, kind, "continue_on_failure", raw)
			}
		}
		b.Wait(func(s *pipeline.WaitStep) { s.ContinueOnFailure = cof })
	case "block":
		prompt, ok := stringValue(entry["block"])
		if !ok {
			return badValue(i, kind, "block", entry["block"])
		}
		b.Block(prompt)
	case "input":
		prompt, ok := stringValue(entry["input"])
		if !ok {
			return badValue(i, kind, "input", entry["input"])
		}
		b.Input(prompt)
	case "skip":
		reason, ok := stringValue(entry["skip"])
		if !ok {
			return badValue(i, kind, "skip", entry["skip"])
		}
		b.Skip(reason)
	}
	return nil
}

func badValue(i int, kind, key string, raw any) error {
	return &pipeline.StepValidationError{
		Index: i,
		Got:   fmt.Sprintf("%s step with invalid %s value (%T)", kind, key, raw),
	}
}

func describeEntry(entry map[string]any) string {
	if len(entry) == 0 {
		return "an empty mapping"
	}
	keys := make([]string, 0, len(entry))
	for k := range entry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("mapping with keys %s", strings.Join(keys, ", "))
}

func stringValue(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func stringListValue(v any) ([]string, bool) {
	switch x := v.(type) {
	case string:
		return []string{x}, true
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func boolValue(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func yamlKindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		return fmt.Sprintf("scalar %q", n.Value)
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.MappingNode:
		return "a mapping"
	case yaml.AliasNode:
		return "an alias"
	case yaml.DocumentNode:
		return "a document"
	}
	return "an unknown node"
}
