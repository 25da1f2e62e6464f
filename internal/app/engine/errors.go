package engine

import (
	"errors"
	"fmt"
)

// ErrDirtyEdits is returned by Load when uncommitted edits exist and the
// caller did not force the reload. The cache and dirty set are left
// untouched; the caller confirms with the operator and retries with
// force.
var ErrDirtyEdits = errors.New("unsaved edits would be discarded")

// ErrUnknownDocument is returned when an operation names an ID not
// present in the cache.
var ErrUnknownDocument = errors.New("unknown document")

// ValidationError reports a field value that failed validation during a
// save. It aborts the save for that one document only and leaves the
// dirty set and cache unchanged.
type ValidationError struct {
	ID     string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("document %s: field %q: %s", e.ID, e.Field, e.Reason)
}
