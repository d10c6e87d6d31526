package memory

import (
	"context"

	"github.com/getmockd/crudgen/pkg/store"
)

// query runs the store.Query operations on a table, optionally restricted to a scope.
type query struct {
	table *table
	scope store.Record
	err   error
}

func (q *query) Where(_ context.Context, fields store.Record) ([]store.Record, error) {
	if q.err != nil {
		return nil, q.err
	}
	return q.table.where(fields, q.scope)
}

func (q *query) First(_ context.Context, fields store.Record) (store.Record, error) {
	if q.err != nil {
		return nil, q.err
	}
	rows, err := q.table.where(fields, q.scope)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (q *query) Insert(_ context.Context, fields store.Record) (store.Record, error) {
	if q.err != nil {
		return nil, q.err
	}
	return q.table.insert(fields, q.scope)
}

func (q *query) PatchByID(_ context.Context, id any, fields store.Record) (store.Record, error) {
	if q.err != nil {
		return nil, q.err
	}
	return q.table.patch(id, fields, q.scope)
}

func (q *query) DeleteByID(_ context.Context, id any) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	return q.table.remove(id, q.scope), nil
}

// model is the unscoped query handle of a table.
type model struct {
	query
	db *DB
}

func newModel(db *DB, t *table) *model {
	return &model{query: query{table: t}, db: db}
}

func (m *model) Name() string {
	return m.table.name
}

func (m *model) Related(name string) store.Relation {
	return &relation{db: m.db, parent: m.table, name: name}
}

// relation resolves its target table lazily so relations may reference
// tables created after the parent.
type relation struct {
	db     *DB
	parent *table
	name   string
}

func (r *relation) For(parentID any) store.Query {
	cfg, ok := r.parent.relations[r.name]
	if !ok {
		return &query{err: &store.RelationError{Table: r.parent.name, Relation: r.name}}
	}
	target, err := r.db.table(cfg.Table)
	if err != nil {
		return &query{err: err}
	}
	return &query{
		table: target,
		scope: store.Record{cfg.ForeignKey: normalizeID(parentID)},
	}
}

var (
	_ store.Model    = (*model)(nil)
	_ store.Relation = (*relation)(nil)
)
