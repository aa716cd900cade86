package model

import "fmt"

// ErrMissingField indicates a record with an absent or non-finite attribute.
type ErrMissingField struct {
	ID    ID
	Field string
}

func (e *ErrMissingField) Error() string {
	return fmt.Sprintf("record %d: missing field %q", e.ID, e.Field)
}

// ErrDuplicateID indicates two records sharing one identifier.
type ErrDuplicateID struct {
	ID ID
}

func (e *ErrDuplicateID) Error() string {
	return fmt.Sprintf("duplicate record id %d", e.ID)
}
