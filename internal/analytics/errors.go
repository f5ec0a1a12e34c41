package analytics

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRange is returned when a report's from date is after its to date.
	ErrInvalidRange = errors.New("from date is after to date")

	// ErrInvalidFilter is returned for a selection the filter policy cannot
	// resolve, such as an unknown dimension or a malformed category pair.
	ErrInvalidFilter = errors.New("invalid filter selection")
)

// DataAccessError wraps a storage collaborator failure. Report operations
// never return partial results alongside one.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("data access during %s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

func dataErr(op string, err error) error {
	return &DataAccessError{Op: op, Err: err}
}
