package service

import (
	"context"
	"errors"

	"github.com/getmockd/crudgen/pkg/action"
	"github.com/getmockd/crudgen/pkg/store"
)

// Strategy selects how a service turns an action into store queries.
// It is one of Direct, Relation or Custom and is fixed when the service is built.
type Strategy interface {
	// Kind returns "direct", "relation" or "custom".
	Kind() string

	run(ctx context.Context, m store.Model, kind action.Kind, params Params) (any, error)
}

// CustomFunc performs an action with caller-supplied logic.
type CustomFunc func(ctx context.Context, kind action.Kind, m store.Model, params Params) (any, error)

// Select applies the fixed precedence custom > relation > direct. A relation is
// only selected when both its name and primary key are set.
func Select(custom CustomFunc, relation *Relation) Strategy {
	if custom != nil {
		return Custom{Func: custom}
	}
	if relation != nil && relation.Name != "" && relation.PrimaryKey != "" {
		return *relation
	}
	return Direct{}
}

// Direct queries the model's own table.
type Direct struct{}

// Kind implements Strategy.
func (Direct) Kind() string { return "direct" }

func (Direct) run(ctx context.Context, m store.Model, kind action.Kind, params Params) (any, error) {
	switch kind {
	case action.List:
		return m.Where(ctx, store.Record(params))
	case action.FetchOne:
		return first(ctx, m, store.Record(params))
	case action.Create:
		return m.Insert(ctx, store.Record(params.Without(store.IDField)))
	case action.Update:
		id, err := requireID(params)
		if err != nil {
			return nil, err
		}
		return m.PatchByID(ctx, id, store.Record(params.Without(store.IDField)))
	case action.Delete:
		id, err := requireID(params)
		if err != nil {
			return nil, err
		}
		return deleteByID(ctx, m, m.Name(), id)
	default:
		return nil, &UnsupportedActionError{Action: kind.String()}
	}
}

// Relation queries the rows related to a parent record through a named
// has-many relation. The parent id is read from the PrimaryKey parameter.
type Relation struct {
	// Name of the relation on the model (e.g. "children").
	Name string
	// PrimaryKey is the parameter holding the parent id (e.g. "person_id").
	PrimaryKey string
}

// Kind implements Strategy.
func (Relation) Kind() string { return "relation" }

func (r Relation) run(ctx context.Context, m store.Model, kind action.Kind, params Params) (any, error) {
	parentID, ok := params.Lookup(r.PrimaryKey)
	if !ok {
		return nil, &MissingParamError{Name: r.PrimaryKey}
	}
	q := m.Related(r.Name).For(parentID)
	clean := store.Record(params.Without(r.PrimaryKey, store.IDField))

	switch kind {
	case action.List:
		return q.Where(ctx, nil)
	case action.FetchOne:
		id, err := requireID(params)
		if err != nil {
			return nil, err
		}
		return first(ctx, q, store.Record{store.IDField: id})
	case action.Create:
		return q.Insert(ctx, clean)
	case action.Update:
		id, err := requireID(params)
		if err != nil {
			return nil, err
		}
		return q.PatchByID(ctx, id, clean)
	case action.Delete:
		id, err := requireID(params)
		if err != nil {
			return nil, err
		}
		return deleteByID(ctx, q, r.Name, id)
	default:
		return nil, &UnsupportedActionError{Action: kind.String()}
	}
}

// Custom hands the whole action to Func.
type Custom struct {
	Func CustomFunc
}

// Kind implements Strategy.
func (Custom) Kind() string { return "custom" }

func (c Custom) run(ctx context.Context, m store.Model, kind action.Kind, params Params) (any, error) {
	if c.Func == nil {
		return nil, errors.New("custom strategy has no function")
	}
	return c.Func(ctx, kind, m, params)
}

func requireID(params Params) (any, error) {
	id, ok := params.Lookup(store.IDField)
	if !ok {
		return nil, &MissingParamError{Name: store.IDField}
	}
	return id, nil
}

// first returns an untyped nil when nothing matches so that callers see no data.
func first(ctx context.Context, q store.Query, fields store.Record) (any, error) {
	rec, err := q.First(ctx, fields)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec, nil
}

// deleteByID removes a row and reports a zero-row delete as a missing record.
// On success the data is the id as it was passed in.
func deleteByID(ctx context.Context, q store.Query, table string, id any) (any, error) {
	n, err := q.DeleteByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, &store.NotFoundError{Table: table, ID: id}
	}
	return id, nil
}
