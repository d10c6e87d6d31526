// Package store defines the record-store boundary used by generated services.
//
// A store exposes named tables as Models. Each Model answers the five direct
// queries (Where, First, Insert, PatchByID, DeleteByID) and can scope the same
// queries through a named has-many relation for a given parent id:
//
//	people := db.Model("persons")
//	kids := people.Related("children").For(1)
//	rows, err := kids.Where(ctx, nil)
//
// Implementations live in the memory and sqlstore subpackages.
package store

import (
	"context"
	"fmt"
)

// IDField is the primary key column every table carries.
const IDField = "id"

// Record is a single row keyed by column name.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Query is the set of operations available on a table or on a relation-scoped view of it.
type Query interface {
	// Where returns every row whose columns equal the given fields. Nil or empty
	// fields match every row. No match yields an empty, non-nil slice.
	Where(ctx context.Context, fields Record) ([]Record, error)

	// First returns the first row matching fields, or nil when nothing matches.
	First(ctx context.Context, fields Record) (Record, error)

	// Insert stores fields as a new row and returns it including the generated id.
	Insert(ctx context.Context, fields Record) (Record, error)

	// PatchByID updates the given columns of the row identified by id and returns
	// the updated row. A missing row yields a *NotFoundError.
	PatchByID(ctx context.Context, id any, fields Record) (Record, error)

	// DeleteByID removes the row identified by id and reports how many rows were removed.
	// Deleting a missing id is not an error; it reports zero.
	DeleteByID(ctx context.Context, id any) (int64, error)
}

// Model is a table-level query handle.
type Model interface {
	Query

	// Name returns the table name.
	Name() string

	// Related returns the named has-many relation of this table.
	Related(name string) Relation
}

// Relation scopes queries to the related rows of one parent.
type Relation interface {
	// For returns a Query over the related rows of parentID. Rows inserted
	// through it are attached to the parent.
	For(parentID any) Query
}

// RelationConfig declares a has-many relation: rows of Table whose ForeignKey
// column equals the parent's id.
type RelationConfig struct {
	Name       string `json:"name" yaml:"name" validate:"required"`
	Table      string `json:"table" yaml:"table" validate:"required"`
	ForeignKey string `json:"foreignKey" yaml:"foreignKey" validate:"required"`
}

// Opener is implemented by stores that can hand out models by table name.
type Opener interface {
	Model(table string) (Model, error)
}

// Key renders a column value the way stores compare them, so that the string
// "1" taken from a URL matches the integer 1 stored in a row.
func Key(v any) string {
	return fmt.Sprintf("%v", v)
}
