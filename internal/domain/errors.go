package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound     = errors.New("application not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrVersionConflict    = errors.New("applications changed concurrently")
)

// ValidationError reports a rejected field value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func unknownStatus(raw string) *ValidationError {
	return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", raw)}
}
