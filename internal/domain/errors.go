package domain

import (
	"errors"
	"strings"
)

// ErrUnauthorized marks a request that requires an authenticated caller but
// has none.
var ErrUnauthorized = errors.New("unauthorized")

// ErrUploadFailed wraps a photo store failure. It aborts the operation
// before anything is persisted.
var ErrUploadFailed = errors.New("photo upload failed")

// ValidationError reports the wire names of the input fields that were
// missing or invalid.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid or missing fields: " + strings.Join(e.Fields, ", ")
}
