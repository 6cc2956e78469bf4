package binder

import (
	"errors"
	"fmt"
)

// ErrValidation matches every caller input defect reported by Bind:
//
//	errors.Is(err, binder.ErrValidation)
var ErrValidation = errors.New("validation error")

// MissingArgument reports a required argument that was not supplied.
type MissingArgument struct {
	Name string
}

func (e *MissingArgument) Error() string {
	return fmt.Sprintf("argument '%s' of required type was not provided", e.Name)
}

func (e *MissingArgument) Is(target error) bool { return target == ErrValidation }

func (e *MissingArgument) Code() string { return "MISSING_ARGUMENT" }

// TypeMismatch reports a supplied value that cannot be coerced. The message
// names only the Go type of Got, since arguments may carry secrets.
type TypeMismatch struct {
	Name     string
	Expected string
	Got      any
}

func (e *TypeMismatch) Error() string {
	return fmt.Sprintf("argument '%s' cannot be coerced: expected %s, got %T", e.Name, e.Expected, e.Got)
}

func (e *TypeMismatch) Is(target error) bool { return target == ErrValidation }

func (e *TypeMismatch) Code() string { return "TYPE_MISMATCH" }
