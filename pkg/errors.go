package brain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by stores and sources when a key has no record.
	ErrNotFound = errors.New("record not found")
	// ErrExists is returned when inserting a key that is already populated.
	ErrExists = errors.New("record already exists")
)

// ErrUnknownFilter represents a filter parameter id with no registered filter.
type ErrUnknownFilter struct {
	FilterParamsID int
}

func (e *ErrUnknownFilter) Error() string {
	return fmt.Sprintf("no filter registered for filter params id %d", e.FilterParamsID)
}

// ErrAmbiguousFilter represents a filter parameter id matched by more than
// one filter definition.
type ErrAmbiguousFilter struct {
	FilterParamsID int
	Matches        []FilterKind
}

func (e *ErrAmbiguousFilter) Error() string {
	return fmt.Sprintf("filter params id %d matches %d filters %v", e.FilterParamsID, len(e.Matches), e.Matches)
}

// ErrLengthMismatch represents sequences that should be commensurate but
// are not.
type ErrLengthMismatch struct {
	What     string
	Expected int
	Found    int
}

func (e *ErrLengthMismatch) Error() string {
	return fmt.Sprintf("%s: expected length %d, found %d", e.What, e.Expected, e.Found)
}

// ErrMissingMetadata represents upstream metadata required by a stage that
// is not available for a key.
type ErrMissingMetadata struct {
	What string
	Key  string
	Err  error
}

func (e *ErrMissingMetadata) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("missing %s for %s: %v", e.What, e.Key, e.Err)
	}
	return fmt.Sprintf("missing %s for %s", e.What, e.Key)
}

func (e *ErrMissingMetadata) Unwrap() error {
	return e.Err
}
