package data

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument matches every *InvalidArgumentError via errors.Is.
var ErrInvalidArgument = errors.New("invalid argument")

// InvalidArgumentError reports caller input that is outside what an
// operation accepts.
type InvalidArgumentError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s '%v': %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// OneOf returns an *InvalidArgumentError unless value is among options.
func OneOf(field, value string, options ...string) error {
	for _, opt := range options {
		if value == opt {
			return nil
		}
	}
	return &InvalidArgumentError{
		Field:  field,
		Value:  value,
		Reason: fmt.Sprintf("must be one of %v", options),
	}
}
