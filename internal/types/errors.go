package types

import (
	"errors"
	"fmt"
)

var ErrTypeValidation = errors.New("types: invalid value")

// ValidationError is returned when a value can not be encoded as the given
// wire type. It unwraps to ErrTypeValidation.
type ValidationError struct {
	Type   string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s (got %T %v)", e.Type, e.Reason, e.Value, e.Value)
	}
	return fmt.Sprintf("%s: unsupported value %T %v", e.Type, e.Value, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return ErrTypeValidation
}

func invalid(typ string, v any, reason string) error {
	return &ValidationError{Type: typ, Value: v, Reason: reason}
}
