package store

import (
	"errors"
	"fmt"
)

// ErrNoTable is wrapped by stores when a model is requested for an unknown table.
var ErrNoTable = errors.New("table not found")

// NotFoundError is returned when a row addressed by id does not exist.
type NotFoundError struct {
	Table string
	ID    any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Record with id %v not found", e.ID)
}

// ColumnError is returned when a query references a column the table does not have.
type ColumnError struct {
	Table  string
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("column %q does not exist", e.Column)
}

// RelationError is returned when a query goes through an undeclared relation.
type RelationError struct {
	Table    string
	Relation string
}

func (e *RelationError) Error() string {
	return fmt.Sprintf("relation %q is not defined on table %q", e.Relation, e.Table)
}

// IsNotFound reports whether err is, or wraps, a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
