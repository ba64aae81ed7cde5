package domain

import (
	"errors"
	"fmt"
)

// Compile-time failures.
var (
	// ErrConfigNotFound is returned when the descriptor archive has no config.json.
	ErrConfigNotFound = errors.New("config.json not found in descriptor")
	// ErrUnknownStepType is returned when a step type is neither built-in nor a declared function.
	ErrUnknownStepType = errors.New("unknown step type")
	// ErrInvalidDataEntry is returned when a data entry is neither a path nor a per-distribution map.
	ErrInvalidDataEntry = errors.New("invalid data entry")
	// ErrUnresolvableReference is returned for step values or placeholders that cannot be resolved.
	ErrUnresolvableReference = errors.New("unresolvable reference")
	// ErrInvalidDescriptor is returned when config.json does not match the descriptor schema.
	ErrInvalidDescriptor = errors.New("invalid descriptor")
)

// Graph validation failures.
var (
	ErrDuplicateTask       = errors.New("duplicate task")
	ErrUnresolvedReference = errors.New("unresolved reference")
	ErrCyclicDependency    = errors.New("cyclic dependency")
	ErrUnknownParameter    = errors.New("unknown parameter")
)

// ErrUnknownKind is returned when a consumer meets a task, input or argument
// variant it does not handle.
var ErrUnknownKind = errors.New("unknown variant")

// GraphError carries the failure class plus the step, key or task it concerns.
type GraphError struct {
	Kind    error
	Subject string
	Msg     string
}

func (e *GraphError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind.Error()
	if e.Subject != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Subject)
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	return msg
}

func (e *GraphError) Unwrap() error { return e.Kind }

// Errorf builds a GraphError of the given kind.
func Errorf(kind error, subject, format string, args ...any) error {
	return &GraphError{Kind: kind, Subject: subject, Msg: fmt.Sprintf(format, args...)}
}
