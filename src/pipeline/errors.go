package pipeline

import "fmt"

// PipelineValidationError reports a document whose root is not a pipeline
// definition.
type PipelineValidationError struct {
	Got string // what was found instead, empty when unknown
}

func (e *PipelineValidationError) Error() string {
	if e.Got == "" {
		return "expected a pipeline definition"
	}
	return fmt.Sprintf("expected a pipeline definition, got %s", e.Got)
}

// StepValidationError reports a steps entry that is not a recognized step
// definition.
type StepValidationError struct {
	Index int    // position in the steps sequence, -1 when not tied to one
	Got   string // what was found instead, empty when unknown
}

func (e *StepValidationError) Error() string {
	msg := "expected a step definition"
	if e.Got != "" {
		msg = fmt.Sprintf("%s, got %s", msg, e.Got)
	}
	if e.Index >= 0 {
		return fmt.Sprintf("steps[%d]: %s", e.Index, msg)
	}
	return msg
}
