package pipeline

import (
	"fmt"
	"reflect"
)

// Validate checks that the definition is well formed: every steps entry must
// be a non-nil instance of one of the step types in this package. It runs
// once after the full declaration pass, before the document is rendered; an
// empty step sequence is valid.
func (d *Definition) Validate() error {
	if d == nil {
		return &PipelineValidationError{Got: "nil"}
	}
	for i, s := range d.Steps {
		if err := validateStep(i, s); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, s Step) error {
	switch v := s.(type) {
	case *CommandStep:
		if v != nil {
			return nil
		}
	case *TriggerStep:
		if v != nil {
			return nil
		}
	case *WaitStep:
		if v != nil {
			return nil
		}
	case *BlockStep:
		if v != nil {
			return nil
		}
	case *InputStep:
		if v != nil {
			return nil
		}
	case *SkipStep:
		if v != nil {
			return nil
		}
	}
	return &StepValidationError{Index: i, Got: describeStep(s)}
}

func describeStep(s Step) string {
	if s == nil {
		return "nil"
	}
	if v := reflect.ValueOf(s); v.Kind() == reflect.Pointer && v.IsNil() {
		return "nil " + v.Type().String()
	}
	return fmt.Sprintf("%T", s)
}
