package schemas

import (
	"errors"
	"fmt"
)

// ErrExecutionTerminated is returned when a finished execution is driven again.
var ErrExecutionTerminated = errors.New("execution already terminated")

// DuplicateActionError is returned when an action name is registered twice.
type DuplicateActionError struct {
	Name string
}

func (e *DuplicateActionError) Error() string {
	return fmt.Sprintf("action %q is already registered", e.Name)
}

// UnknownActionError is returned when the model requests an unregistered action.
type UnknownActionError struct {
	Name string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q", e.Name)
}

// MalformedResponseError is returned when a response part matches no known variant.
type MalformedResponseError struct {
	Index  int
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed model response at part %d: %s", e.Index, e.Reason)
}

// ErrElementNotFound is wrapped by browser operations when no element matches a selector.
var ErrElementNotFound = errors.New("no element matches selector")

// ErrNoDialog is wrapped by dialog operations when no JavaScript dialog is open.
var ErrNoDialog = errors.New("no javascript dialog is open")
