package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched (errors.Is) by every caller-input failure.
var ErrInvalidInput = errors.New("invalid input")

// ErrNoStops is returned when an optimization is requested for an empty stop list.
var ErrNoStops = fmt.Errorf("%w: no stops provided", ErrInvalidInput)

// InputError describes a single rejected input field.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }
