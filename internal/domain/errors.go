package domain

import (
	"errors"
	"fmt"
)

// ErrRunInProgress is returned when a second indexing run is attempted while
// one is active.
var ErrRunInProgress = errors.New("indexing run already in progress")

// ValidationError reports a raw record whose mandatory identity fields are
// missing or malformed. It is local to one record: callers skip the record
// and continue.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("section missing identity field %q", e.Field)
}
