package service

import (
	"errors"
	"fmt"
)

// Messages with a fixed meaning at the HTTP boundary.
const (
	NotFoundMessage        = "Not found"
	NoErrorProvidedMessage = "No error provided"
)

var (
	// ErrNotFound is the error a service returns for a missing resource. Its
	// message is the one the controller maps to 404.
	ErrNotFound = errors.New(NotFoundMessage) //nolint:staticcheck // message is part of the HTTP contract

	// ErrNoErrorProvided replaces failures that carried no usable error value.
	ErrNoErrorProvided = errors.New(NoErrorProvidedMessage) //nolint:staticcheck // message is part of the HTTP contract
)

// MissingParamError is returned when an action needs a parameter that is absent.
type MissingParamError struct {
	Name string
}

func (e *MissingParamError) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Name)
}

// UnsupportedActionError is returned for actions a service does not implement.
type UnsupportedActionError struct {
	Action string
}

func (e *UnsupportedActionError) Error() string {
	return fmt.Sprintf("unsupported action: %s", e.Action)
}

// normalizeError turns a recovered panic value into an error. Error values are
// kept, strings become the error message, anything else is replaced by
// ErrNoErrorProvided.
func normalizeError(v any) error {
	switch e := v.(type) {
	case error:
		return e
	case string:
		return errors.New(e)
	default:
		return ErrNoErrorProvided
	}
}
