package memory

import (
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/getmockd/crudgen/pkg/store"
)

// table holds the rows of one table in insertion order.
type table struct {
	mu        sync.RWMutex
	name      string
	columns   map[string]struct{} // nil when schemaless
	relations map[string]store.RelationConfig
	seed      []store.Record
	rows      []store.Record
	nextID    int64
}

func newTable(cfg TableConfig) *table {
	t := &table{
		name:      cfg.Name,
		relations: make(map[string]store.RelationConfig, len(cfg.Relations)),
		seed:      cfg.Seed,
	}
	if len(cfg.Columns) > 0 {
		t.columns = make(map[string]struct{}, len(cfg.Columns)+1)
		t.columns[store.IDField] = struct{}{}
		for _, c := range cfg.Columns {
			t.columns[c] = struct{}{}
		}
	}
	for _, rel := range cfg.Relations {
		t.relations[rel.Name] = rel
	}
	return t
}

func (t *table) reset() error {
	t.mu.Lock()
	t.rows = nil
	t.nextID = 0
	t.mu.Unlock()

	for _, row := range t.seed {
		if _, err := t.insert(row, nil); err != nil {
			return err
		}
	}
	return nil
}

// checkColumns rejects fields that are not columns of a schemaful table.
func (t *table) checkColumns(fields store.Record) error {
	if t.columns == nil {
		return nil
	}
	for k := range fields {
		if _, ok := t.columns[k]; !ok {
			return &store.ColumnError{Table: t.name, Column: k}
		}
	}
	return nil
}

// matches reports whether row holds every value of each filter.
func matches(row store.Record, filters ...store.Record) bool {
	for _, f := range filters {
		for k, want := range f {
			got, ok := row[k]
			if !ok || got == nil {
				if want != nil {
					return false
				}
				continue
			}
			if store.Key(got) != store.Key(want) {
				return false
			}
		}
	}
	return true
}

func (t *table) where(fields, scope store.Record) ([]store.Record, error) {
	if err := t.checkColumns(fields); err != nil {
		return nil, err
	}
	if err := t.checkColumns(scope); err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]store.Record, 0)
	for _, row := range t.rows {
		if matches(row, scope, fields) {
			out = append(out, row.Clone())
		}
	}
	return out, nil
}

func (t *table) insert(fields, scope store.Record) (store.Record, error) {
	if err := t.checkColumns(fields); err != nil {
		return nil, err
	}
	if err := t.checkColumns(scope); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	row := make(store.Record, len(fields)+len(scope)+1)
	for k, v := range fields {
		if k == store.IDField {
			continue
		}
		row[k] = keyValue(k, v)
	}
	for k, v := range scope {
		row[k] = v
	}
	t.nextID++
	row[store.IDField] = t.nextID

	t.rows = append(t.rows, row)
	return row.Clone(), nil
}

// indexOf returns the position of the row with the given id inside scope, or -1.
// Callers hold t.mu.
func (t *table) indexOf(id any, scope store.Record) int {
	key := store.Key(normalizeID(id))
	for i, row := range t.rows {
		if store.Key(row[store.IDField]) == key && matches(row, scope) {
			return i
		}
	}
	return -1
}

func (t *table) patch(id any, fields, scope store.Record) (store.Record, error) {
	if err := t.checkColumns(fields); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexOf(id, scope)
	if i < 0 {
		return nil, &store.NotFoundError{Table: t.name, ID: id}
	}

	row := t.rows[i].Clone()
	for k, v := range fields {
		if k == store.IDField {
			continue
		}
		row[k] = keyValue(k, v)
	}
	for k, v := range scope {
		row[k] = v
	}
	t.rows[i] = row
	return row.Clone(), nil
}

func (t *table) remove(id any, scope store.Record) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexOf(id, scope)
	if i < 0 {
		return 0
	}
	t.rows = append(t.rows[:i], t.rows[i+1:]...)
	return 1
}

// isKeyColumn reports whether a column holds a row id, by naming convention:
// "person_id" or "parentId".
func isKeyColumn(name string) bool {
	return strings.HasSuffix(name, "_id") || (len(name) > 2 && strings.HasSuffix(name, "Id"))
}

// keyValue stores ids in key columns as integers, so a parent id taken from a
// path parameter has the same type as one loaded from seed rows.
func keyValue(column string, v any) any {
	if isKeyColumn(column) {
		return normalizeID(v)
	}
	return v
}

// normalizeID turns numeric strings and integral floats into int64 so that
// ids and foreign keys taken from URLs or JSON bodies are stored as integers.
func normalizeID(v any) any {
	switch id := v.(type) {
	case string:
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			return n
		}
	case float64:
		if id == math.Trunc(id) {
			return int64(id)
		}
	case int:
		return int64(id)
	}
	return v
}
