// Package sqlstore implements the record store on database/sql.
//
// Tables are declared with CreateTable, which creates them when missing and
// registers their columns. Only registered tables can be queried, and only
// through registered column names; every identifier is validated and quoted,
// every value is a bind parameter.
//
// Supported drivers are sqlite (modernc.org/sqlite), postgres (pgx) and mysql.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/getmockd/crudgen/pkg/logging"
	"github.com/getmockd/crudgen/pkg/store"
)

// Config configures the connection pool.
type Config struct {
	// Driver is one of sqlite, postgres or mysql.
	Driver string
	// DSN is passed to the driver unchanged.
	DSN string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// PingTimeout bounds the connectivity check on open. Defaults to 5s.
	PingTimeout time.Duration
}

// DB is a SQL record store.
type DB struct {
	db      *sql.DB
	dialect dialect
	log     *slog.Logger

	mu     sync.RWMutex
	tables map[string]*table
}

// Open connects to the database and checks the connection.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	d, err := lookupDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(d.driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to an in-memory sqlite database sees its own database.
	if d.name == DriverSQLite && strings.Contains(cfg.DSN, ":memory:") {
		cfg.MaxOpenConns = 1
	}
	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	} else if cfg.MaxOpenConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{
		db:      conn,
		dialect: d,
		log:     logging.Nop(),
		tables:  make(map[string]*table),
	}, nil
}

// SetLogger sets the logger used for statement tracing at debug level.
func (db *DB) SetLogger(log *slog.Logger) {
	if log != nil {
		db.log = log
	}
}

// Driver returns the dialect name.
func (db *DB) Driver() string {
	return db.dialect.name
}

// Close closes the underlying pool.
func (db *DB) Close() error {
	if db == nil || db.db == nil {
		return nil
	}
	return db.db.Close()
}

// CreateTable creates the table when it does not exist and registers it.
func (db *DB) CreateTable(ctx context.Context, schema TableSchema) error {
	if err := schema.Validate(); err != nil {
		return err
	}
	t := newTable(schema)

	db.mu.Lock()
	defer db.mu.Unlock()
	if _, exists := db.tables[t.name]; exists {
		return fmt.Errorf("table %q already registered", t.name)
	}

	stmt := t.createSQL(db.dialect)
	db.log.Debug("executing create table SQL", "query", stmt)
	if _, err := db.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("creating table %s: %w", t.name, err)
	}
	db.tables[t.name] = t
	return nil
}

// Seed inserts rows into a registered table.
func (db *DB) Seed(ctx context.Context, name string, rows []store.Record) error {
	m, err := db.Model(name)
	if err != nil {
		return err
	}
	for i, row := range rows {
		if _, err := m.Insert(ctx, row); err != nil {
			return fmt.Errorf("seeding %s row %d: %w", name, i, err)
		}
	}
	return nil
}

// Model returns the model of a registered table.
func (db *DB) Model(name string) (store.Model, error) {
	t, err := db.table(name)
	if err != nil {
		return nil, err
	}
	return &model{query: query{db: db, table: t}}, nil
}

// Tables returns the registered table names, sorted.
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

func (db *DB) table(name string) (*table, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	t, ok := db.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNoTable, name)
	}
	return t, nil
}

var _ store.Opener = (*DB)(nil)
