package population

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoRecords    = errors.New("population: no records")
	ErrNoConditions = errors.New("population: no conditions selected")
	ErrEmptyTime    = errors.New("population: condition time vectors are empty")
)

// UnknownAttributeError names attributes missing from the data set or from
// a record.
type UnknownAttributeError struct {
	Names []string
}

func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("population: attributes %s not found in data set", strings.Join(e.Names, " "))
}

// ReferenceAttributeError names a reference attribute outside the active
// attribute subset.
type ReferenceAttributeError struct {
	Name string
}

func (e *ReferenceAttributeError) Error() string {
	return fmt.Sprintf("population: reference variable %s not found in data set", e.Name)
}

// UnknownConditionError names condition ids absent from the data set.
type UnknownConditionError struct {
	IDs []int
}

func (e *UnknownConditionError) Error() string {
	return fmt.Sprintf("population: conditions %v not found in data set", e.IDs)
}

// DuplicateConditionError names a condition id listed more than once.
type DuplicateConditionError struct {
	ID int
}

func (e *DuplicateConditionError) Error() string {
	return fmt.Sprintf("population: condition %d listed more than once", e.ID)
}

// DuplicateRecordError names a (member, condition) pair with two records.
type DuplicateRecordError struct {
	Member      int
	ConditionID int
}

func (e *DuplicateRecordError) Error() string {
	return fmt.Sprintf("population: member %d has more than one record for condition %d", e.Member, e.ConditionID)
}

// LengthError represents an attribute whose length does not match the time
// vector of its condition.
type LengthError struct {
	Attribute   string
	Member      int
	ConditionID int
	Expected    int
	Found       int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("population: attribute %s of member %d, condition %d: expected %d samples, found %d",
		e.Attribute, e.Member, e.ConditionID, e.Expected, e.Found)
}
