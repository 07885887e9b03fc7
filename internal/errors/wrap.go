package errors

import (
	"errors"
	"fmt"
)

// StepError records the handler module and catalog entity a failed
// gateway call belonged to.
type StepError struct {
	Module string // handler module, e.g. "store", "product_wizard"
	Entity string // catalog entity, e.g. "category", "product"
	Action string // what the handler was doing, e.g. "create category"
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s/%s: %s: %v", e.Module, e.Entity, e.Action, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// StepWrapper tags gateway failures of one handler.
type StepWrapper struct {
	module string
	entity string
}

// NewWrapper returns a wrapper for module acting on entity.
func NewWrapper(module, entity string) *StepWrapper {
	return &StepWrapper{module: module, entity: entity}
}

// Wrap returns nil for a nil err.
func (w *StepWrapper) Wrap(err error, action string) error {
	if err == nil {
		return nil
	}
	return &StepError{Module: w.module, Entity: w.entity, Action: action, Err: err}
}

// StepOf returns the outermost StepError in err's chain.
func StepOf(err error) (*StepError, bool) {
	var step *StepError
	if errors.As(err, &step) {
		return step, true
	}
	return nil, false
}

// Tags describes err for error reporting: module and entity when err came
// from a handler step, plus the domain kind when one matches.
func Tags(err error) map[string]string {
	tags := map[string]string{}
	if step, ok := StepOf(err); ok {
		tags["module"] = step.Module
		tags["entity"] = step.Entity
	}
	switch {
	case IsNotFound(err):
		tags["kind"] = "not_found"
	case IsConflict(err):
		tags["kind"] = "conflict"
	case IsDuplicate(err):
		tags["kind"] = "duplicate"
	}
	return tags
}
