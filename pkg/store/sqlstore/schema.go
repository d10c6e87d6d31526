package sqlstore

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/getmockd/crudgen/pkg/store"
)

// ColumnType is the portable type of a column.
type ColumnType string

// Column types.
const (
	TypeText    ColumnType = "text"
	TypeInteger ColumnType = "integer"
	TypeReal    ColumnType = "real"
	TypeBoolean ColumnType = "boolean"
)

// Column declares one non-id column.
type Column struct {
	Name string     `json:"name" yaml:"name" validate:"required"`
	Type ColumnType `json:"type,omitempty" yaml:"type,omitempty" validate:"omitempty,oneof=text integer real boolean"`
}

// TableSchema declares a table. Every table gets an auto-increment "id" column.
type TableSchema struct {
	Name      string                 `json:"name" yaml:"name" validate:"required"`
	Columns   []Column               `json:"columns,omitempty" yaml:"columns,omitempty" validate:"dive"`
	Relations []store.RelationConfig `json:"relations,omitempty" yaml:"relations,omitempty" validate:"dive"`
	Seed      []store.Record         `json:"seed,omitempty" yaml:"seed,omitempty"`
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrInvalidIdentifier is returned for table or column names that cannot be used safely in SQL.
var ErrInvalidIdentifier = errors.New("invalid identifier")

func validateIdent(name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return nil
}

// Validate checks names and types.
func (s TableSchema) Validate() error {
	if err := validateIdent(s.Name); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	seen := map[string]bool{store.IDField: true}
	for _, c := range s.Columns {
		if err := validateIdent(c.Name); err != nil {
			return fmt.Errorf("table %s: column: %w", s.Name, err)
		}
		if seen[c.Name] {
			return fmt.Errorf("table %s: duplicate column %q", s.Name, c.Name)
		}
		seen[c.Name] = true
		switch c.Type {
		case "", TypeText, TypeInteger, TypeReal, TypeBoolean:
		default:
			return fmt.Errorf("table %s: column %s: unknown type %q", s.Name, c.Name, c.Type)
		}
	}
	for _, r := range s.Relations {
		if r.Name == "" {
			return fmt.Errorf("table %s: relation without name", s.Name)
		}
		if err := validateIdent(r.Table); err != nil {
			return fmt.Errorf("table %s: relation %s: %w", s.Name, r.Name, err)
		}
		if err := validateIdent(r.ForeignKey); err != nil {
			return fmt.Errorf("table %s: relation %s: %w", s.Name, r.Name, err)
		}
	}
	return nil
}

// table is the registered shape of a table.
type table struct {
	name      string
	columns   []string // id first, then declared order
	types     map[string]ColumnType
	relations map[string]store.RelationConfig
}

func newTable(s TableSchema) *table {
	t := &table{
		name:      s.Name,
		columns:   []string{store.IDField},
		types:     map[string]ColumnType{store.IDField: TypeInteger},
		relations: make(map[string]store.RelationConfig, len(s.Relations)),
	}
	for _, c := range s.Columns {
		typ := c.Type
		if typ == "" {
			typ = TypeText
		}
		t.columns = append(t.columns, c.Name)
		t.types[c.Name] = typ
	}
	for _, r := range s.Relations {
		t.relations[r.Name] = r
	}
	return t
}

func (t *table) checkColumns(fields store.Record) error {
	for k := range fields {
		if _, ok := t.types[k]; !ok {
			return &store.ColumnError{Table: t.name, Column: k}
		}
	}
	return nil
}

// createSQL renders the CREATE TABLE statement.
func (t *table) createSQL(d dialect) string {
	defs := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		if c == store.IDField {
			defs = append(defs, d.quote(c)+" "+d.primaryKey)
			continue
		}
		defs = append(defs, d.quote(c)+" "+d.types[t.types[c]])
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", d.quote(t.name), strings.Join(defs, ", "))
}

// toDB converts a request value to the column type so that strings taken from
// URLs and float64 numbers from JSON bind correctly on every driver. Values
// that do not convert are passed through and left to the database.
func toDB(typ ColumnType, v any) any {
	switch typ {
	case TypeInteger:
		switch x := v.(type) {
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
				return n
			}
		case float64:
			if x == math.Trunc(x) {
				return int64(x)
			}
		case int:
			return int64(x)
		case int32:
			return int64(x)
		}
	case TypeReal:
		switch x := v.(type) {
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
				return f
			}
		case int:
			return float64(x)
		case int64:
			return float64(x)
		}
	case TypeBoolean:
		if s, ok := v.(string); ok {
			if b, err := strconv.ParseBool(s); err == nil {
				return b
			}
		}
	case TypeText:
		switch x := v.(type) {
		case nil, string:
			return v
		default:
			return store.Key(x)
		}
	}
	return v
}

// fromDB normalises a scanned value: bytes become strings, integers become
// int64 and booleans stored as integers become bool.
func fromDB(typ ColumnType, v any) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	switch typ {
	case TypeInteger:
		switch x := v.(type) {
		case int32:
			return int64(x)
		case string:
			if n, err := strconv.ParseInt(x, 10, 64); err == nil {
				return n
			}
		}
	case TypeReal:
		switch x := v.(type) {
		case float32:
			return float64(x)
		case int64:
			return float64(x)
		case string:
			if f, err := strconv.ParseFloat(x, 64); err == nil {
				return f
			}
		}
	case TypeBoolean:
		switch x := v.(type) {
		case int64:
			return x != 0
		case string:
			if b, err := strconv.ParseBool(x); err == nil {
				return b
			}
		}
	}
	return v
}
