package sqlstore

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql" // registers "mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "modernc.org/sqlite"             // registers "sqlite"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// dialect holds the SQL differences between the supported databases.
type dialect struct {
	name string
	// driver is the database/sql driver name.
	driver string
	// identQuote wraps identifiers.
	identQuote string
	// numbered placeholders ($1, $2) instead of "?".
	numbered bool
	// returning inserts report the id with "RETURNING id" instead of LastInsertId.
	returning bool
	// emptyInsert is the suffix for inserting a row without columns.
	emptyInsert string
	// primaryKey is the DDL of the id column.
	primaryKey string
	types      map[ColumnType]string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		name:        DriverSQLite,
		driver:      "sqlite",
		identQuote:  `"`,
		emptyInsert: "DEFAULT VALUES",
		primaryKey:  "INTEGER PRIMARY KEY AUTOINCREMENT",
		types: map[ColumnType]string{
			TypeText:    "TEXT",
			TypeInteger: "INTEGER",
			TypeReal:    "REAL",
			TypeBoolean: "INTEGER",
		},
	},
	DriverPostgres: {
		name:        DriverPostgres,
		driver:      "pgx",
		identQuote:  `"`,
		numbered:    true,
		returning:   true,
		emptyInsert: "DEFAULT VALUES",
		primaryKey:  "BIGSERIAL PRIMARY KEY",
		types: map[ColumnType]string{
			TypeText:    "TEXT",
			TypeInteger: "BIGINT",
			TypeReal:    "DOUBLE PRECISION",
			TypeBoolean: "BOOLEAN",
		},
	},
	DriverMySQL: {
		name:        DriverMySQL,
		driver:      "mysql",
		identQuote:  "`",
		emptyInsert: "() VALUES ()",
		primaryKey:  "BIGINT AUTO_INCREMENT PRIMARY KEY",
		types: map[ColumnType]string{
			TypeText:    "TEXT",
			TypeInteger: "BIGINT",
			TypeReal:    "DOUBLE",
			TypeBoolean: "BOOLEAN",
		},
	},
}

// Drivers returns the supported driver names, sorted.
func Drivers() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupDialect(driver string) (dialect, error) {
	d, ok := dialects[strings.ToLower(driver)]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported driver %q (supported: %s)", driver, strings.Join(Drivers(), ", "))
	}
	return d, nil
}

// quote returns the quoted identifier. Callers validate names first.
func (d dialect) quote(name string) string {
	return d.identQuote + name + d.identQuote
}

// placeholder returns the n-th (1-based) bind parameter.
func (d dialect) placeholder(n int) string {
	if d.numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// args accumulates bind values and renders their placeholders.
type args struct {
	d      dialect
	values []any
}

func (a *args) add(v any) string {
	a.values = append(a.values, v)
	return a.d.placeholder(len(a.values))
}
