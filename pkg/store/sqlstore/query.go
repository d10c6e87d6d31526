package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/getmockd/crudgen/pkg/store"
)

// query runs statements against one table, optionally restricted to a scope
// (the foreign key of a relation).
type query struct {
	db    *DB
	table *table
	scope store.Record
	err   error
}

// conditions renders the WHERE clause for scope and fields. Keys are sorted
// so that identical queries produce identical SQL.
func (q *query) conditions(a *args, filters ...store.Record) string {
	var parts []string
	for _, f := range filters {
		keys := make([]string, 0, len(f))
		for k := range f {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			col := q.db.dialect.quote(k)
			v := f[k]
			if v == nil {
				parts = append(parts, col+" IS NULL")
				continue
			}
			parts = append(parts, col+" = "+a.add(toDB(q.table.types[k], v)))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(parts, " AND ")
}

func (q *query) selectSQL(a *args, fields store.Record) string {
	cols := make([]string, len(q.table.columns))
	for i, c := range q.table.columns {
		cols[i] = q.db.dialect.quote(c)
	}
	return fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		strings.Join(cols, ", "),
		q.db.dialect.quote(q.table.name),
		q.conditions(a, q.scope, fields),
		q.db.dialect.quote(store.IDField),
	)
}

func (q *query) Where(ctx context.Context, fields store.Record) ([]store.Record, error) {
	if q.err != nil {
		return nil, q.err
	}
	if err := q.table.checkColumns(fields); err != nil {
		return nil, err
	}

	a := &args{d: q.db.dialect}
	stmt := q.selectSQL(a, fields)
	q.db.log.Debug("executing select SQL", "query", stmt)

	rows, err := q.db.db.QueryContext(ctx, stmt, a.values...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]store.Record, 0)
	for rows.Next() {
		rec, err := q.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (q *query) scan(rows *sql.Rows) (store.Record, error) {
	values := make([]any, len(q.table.columns))
	ptrs := make([]any, len(values))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	rec := make(store.Record, len(values))
	for i, c := range q.table.columns {
		rec[c] = fromDB(q.table.types[c], values[i])
	}
	return rec, nil
}

func (q *query) First(ctx context.Context, fields store.Record) (store.Record, error) {
	rows, err := q.Where(ctx, fields)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (q *query) Insert(ctx context.Context, fields store.Record) (store.Record, error) {
	if q.err != nil {
		return nil, q.err
	}
	if err := q.table.checkColumns(fields); err != nil {
		return nil, err
	}
	if err := q.table.checkColumns(q.scope); err != nil {
		return nil, err
	}

	values := make(store.Record, len(fields)+len(q.scope))
	for k, v := range fields {
		if k != store.IDField {
			values[k] = v
		}
	}
	for k, v := range q.scope {
		values[k] = v
	}

	d := q.db.dialect
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	a := &args{d: d}
	stmt := "INSERT INTO " + d.quote(q.table.name)
	if len(keys) == 0 {
		stmt += " " + d.emptyInsert
	} else {
		cols := make([]string, len(keys))
		marks := make([]string, len(keys))
		for i, k := range keys {
			cols[i] = d.quote(k)
			marks[i] = a.add(toDB(q.table.types[k], values[k]))
		}
		stmt += fmt.Sprintf(" (%s) VALUES (%s)", strings.Join(cols, ", "), strings.Join(marks, ", "))
	}

	var id int64
	if d.returning {
		stmt += " RETURNING " + d.quote(store.IDField)
		q.db.log.Debug("executing insert SQL", "query", stmt)
		if err := q.db.db.QueryRowContext(ctx, stmt, a.values...).Scan(&id); err != nil {
			return nil, err
		}
	} else {
		q.db.log.Debug("executing insert SQL", "query", stmt)
		res, err := q.db.db.ExecContext(ctx, stmt, a.values...)
		if err != nil {
			return nil, err
		}
		if id, err = res.LastInsertId(); err != nil {
			return nil, err
		}
	}

	rec, err := q.First(ctx, store.Record{store.IDField: id})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &store.NotFoundError{Table: q.table.name, ID: id}
	}
	return rec, nil
}

func (q *query) PatchByID(ctx context.Context, id any, fields store.Record) (store.Record, error) {
	if q.err != nil {
		return nil, q.err
	}
	if err := q.table.checkColumns(fields); err != nil {
		return nil, err
	}

	// The scope is written over the payload so a row never leaves its parent.
	values := make(store.Record, len(fields)+len(q.scope))
	for k, v := range fields {
		if k != store.IDField {
			values[k] = v
		}
	}
	for k, v := range q.scope {
		values[k] = v
	}

	d := q.db.dialect
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if len(keys) > 0 {
		a := &args{d: d}
		sets := make([]string, len(keys))
		for i, k := range keys {
			sets[i] = d.quote(k) + " = " + a.add(toDB(q.table.types[k], values[k]))
		}
		stmt := fmt.Sprintf("UPDATE %s SET %s%s",
			d.quote(q.table.name),
			strings.Join(sets, ", "),
			q.conditions(a, q.scope, store.Record{store.IDField: id}),
		)
		q.db.log.Debug("executing update SQL", "query", stmt)
		if _, err := q.db.db.ExecContext(ctx, stmt, a.values...); err != nil {
			return nil, err
		}
	}

	// Affected-row counts differ between drivers for unchanged rows, so the
	// row is read back to decide whether it exists.
	rec, err := q.First(ctx, store.Record{store.IDField: id})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &store.NotFoundError{Table: q.table.name, ID: id}
	}
	return rec, nil
}

func (q *query) DeleteByID(ctx context.Context, id any) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	a := &args{d: q.db.dialect}
	stmt := "DELETE FROM " + q.db.dialect.quote(q.table.name) +
		q.conditions(a, q.scope, store.Record{store.IDField: id})
	q.db.log.Debug("executing delete SQL", "query", stmt)

	res, err := q.db.db.ExecContext(ctx, stmt, a.values...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type model struct {
	query
}

func (m *model) Name() string {
	return m.table.name
}

func (m *model) Related(name string) store.Relation {
	return &relation{db: m.db, parent: m.table, name: name}
}

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
	if _, ok := target.types[cfg.ForeignKey]; !ok {
		return &query{err: &store.ColumnError{Table: target.name, Column: cfg.ForeignKey}}
	}
	return &query{
		db:    r.db,
		table: target,
		scope: store.Record{cfg.ForeignKey: toDB(target.types[cfg.ForeignKey], parentID)},
	}
}

var (
	_ store.Model    = (*model)(nil)
	_ store.Relation = (*relation)(nil)
)
