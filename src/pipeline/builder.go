package pipeline

// Builder accumulates one pipeline declaration: steps in the order the
// declaration calls are made, plus merged pipeline-level environment
// variables. A Builder serves a single build pass and is not safe for
// concurrent use.
type Builder struct {
	steps []Step
	env   map[string]string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Command appends a command step at the current position. The callback, when
// non-nil, fills in the step's commands and label before the next
// declaration runs.
func (b *Builder) Command(fn func(*CommandStep)) *CommandStep {
	s := &CommandStep{}
	b.steps = append(b.steps, s)
	if fn != nil {
		fn(s)
	}
	return s
}

// Trigger appends a step that triggers the named pipeline.
func (b *Builder) Trigger(pipeline string) *TriggerStep {
	s := &TriggerStep{Pipeline: pipeline}
	b.steps = append(b.steps, s)
	return s
}

// Wait appends a wait barrier. The callback, when non-nil, may set
// ContinueOnFailure.
func (b *Builder) Wait(fn func(*WaitStep)) *WaitStep {
	s := &WaitStep{}
	b.steps = append(b.steps, s)
	if fn != nil {
		fn(s)
	}
	return s
}

// Block appends a manual unblock gate with the given prompt.
func (b *Builder) Block(prompt string) *BlockStep {
	s := &BlockStep{Prompt: prompt}
	b.steps = append(b.steps, s)
	return s
}

// Input appends an input gate with the given prompt.
func (b *Builder) Input(prompt string) *InputStep {
	s := &InputStep{Prompt: prompt}
	b.steps = append(b.steps, s)
	return s
}

// Skip appends a skipped step carrying the given reason.
func (b *Builder) Skip(reason string) *SkipStep {
	s := &SkipStep{Reason: reason}
	b.steps = append(b.steps, s)
	return s
}

// Append adds an already-built step at the current position. Validation of
// the finished definition rejects nil entries.
func (b *Builder) Append(s Step) {
	b.steps = append(b.steps, s)
}

// Env merges vars into the pipeline environment. Later calls overwrite
// earlier values for the same key. The env block is emitted only when at
// least one variable was declared.
func (b *Builder) Env(vars map[string]string) {
	if len(vars) == 0 {
		return
	}
	if b.env == nil {
		b.env = make(map[string]string, len(vars))
	}
	for k, v := range vars {
		b.env[k] = v
	}
}

// Definition returns the declaration accumulated so far. The returned value
// shares the Builder's backing storage; further Builder calls extend it.
func (b *Builder) Definition() *Definition {
	return &Definition{Steps: b.steps, Env: b.env}
}
