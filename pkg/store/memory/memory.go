// Package memory provides a thread-safe in-memory record store.
//
// Tables hold rows as maps and hand out auto-incremented integer ids starting at 1.
// Column values are compared by their rendered form (store.Key), so a path
// parameter "1" matches a stored 1. Tables declared with columns reject queries
// that reference unknown columns; tables declared without columns accept any field.
//
// Usage:
//
//	db := memory.New()
//	_ = db.CreateTable(memory.TableConfig{
//	    Name:    "persons",
//	    Columns: []string{"firstName", "parentId"},
//	    Relations: []store.RelationConfig{
//	        {Name: "children", Table: "persons", ForeignKey: "parentId"},
//	    },
//	})
//	people, _ := db.Model("persons")
//	alice, _ := people.Insert(ctx, store.Record{"firstName": "Alice"})
//	kids, _ := people.Related("children").For(alice["id"]).Where(ctx, nil)
package memory

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/getmockd/crudgen/pkg/store"
)

// TableConfig declares a table.
type TableConfig struct {
	// Name is the unique table name.
	Name string
	// Columns lists the allowed columns besides "id". Empty means schemaless.
	Columns []string
	// Relations declares has-many relations from this table.
	Relations []store.RelationConfig
	// Seed rows are inserted when the table is created and on Reset.
	Seed []store.Record
}

// DB is a set of in-memory tables.
type DB struct {
	mu     sync.RWMutex
	tables map[string]*table
}

// New creates an empty DB.
func New() *DB {
	return &DB{tables: make(map[string]*table)}
}

// CreateTable registers a new table and loads its seed rows.
func (db *DB) CreateTable(cfg TableConfig) error {
	if cfg.Name == "" {
		return errors.New("table name cannot be empty")
	}

	t := newTable(cfg)
	if err := t.reset(); err != nil {
		return fmt.Errorf("failed to load seed data for %q: %w", cfg.Name, err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.tables[cfg.Name]; exists {
		return fmt.Errorf("table %q already exists", cfg.Name)
	}
	db.tables[cfg.Name] = t
	return nil
}

// Model returns the query handle of a table.
func (db *DB) Model(name string) (store.Model, error) {
	t, err := db.table(name)
	if err != nil {
		return nil, err
	}
	return newModel(db, t), nil
}

// Seed inserts rows into an existing table.
func (db *DB) Seed(name string, rows []store.Record) error {
	t, err := db.table(name)
	if err != nil {
		return err
	}
	for i, row := range rows {
		if _, err := t.insert(row, nil); err != nil {
			return fmt.Errorf("seed row %d of %q: %w", i, name, err)
		}
	}
	return nil
}

// Reset restores every table to its seed rows and restarts id generation.
func (db *DB) Reset() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for name, t := range db.tables {
		if err := t.reset(); err != nil {
			return fmt.Errorf("failed to reset %q: %w", name, err)
		}
	}
	return nil
}

// Tables returns the table names in sorted order.
func (db *DB) Tables() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()

	names := make([]string, 0, len(db.tables))
	for name := range db.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of rows in a table.
func (db *DB) Count(name string) (int, error) {
	t, err := db.table(name)
	if err != nil {
		return 0, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows), nil
}

func (db *DB) table(name string) (*table, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	t, ok := db.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", store.ErrNoTable, name)
	}
	return t, nil
}

var _ store.Opener = (*DB)(nil)
