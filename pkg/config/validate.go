package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/getmockd/crudgen/pkg/logging"
	"github.com/getmockd/crudgen/pkg/route"
	"github.com/getmockd/crudgen/pkg/store"
	"github.com/getmockd/crudgen/pkg/store/sqlstore"
)

var validate = validator.New()

// ValidationError is a single configuration problem.
type ValidationError struct {
	Field   string // e.g. "resources[1].relation.name"
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// ValidationErrors collects every problem found in a configuration.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

func (v *ValidationErrors) add(field, format string, args ...any) {
	*v = append(*v, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate checks struct tags first, then the references between tables,
// relations and resources.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			errs.add(fieldPath(fe), "%s", formatValidationError(fe))
		}
	}

	if !logging.ValidLevel(c.Logging.Level) {
		errs.add("logging.level", "unknown level %q", c.Logging.Level)
	}
	if c.Store.Driver != DriverMemory && c.Store.Driver != DriverSQLite && c.Store.DSN == "" {
		errs.add("store.dsn", "required for driver %s", c.Store.Driver)
	}

	c.checkTables(&errs)
	c.checkResources(&errs)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (c *Config) checkTables(errs *ValidationErrors) {
	seen := make(map[string]bool, len(c.Store.Tables))
	for i, t := range c.Store.Tables {
		field := fmt.Sprintf("store.tables[%d]", i)
		if err := t.Validate(); err != nil {
			errs.add(field, "%v", err)
			continue
		}
		if seen[t.Name] {
			errs.add(field+".name", "duplicate table %q", t.Name)
		}
		seen[t.Name] = true
	}

	for i, t := range c.Store.Tables {
		for j, rel := range t.Relations {
			field := fmt.Sprintf("store.tables[%d].relations[%d]", i, j)
			target, ok := c.Table(rel.Table)
			if !ok {
				errs.add(field+".table", "unknown table %q", rel.Table)
				continue
			}
			if len(target.Columns) > 0 && !hasColumn(target.Columns, rel.ForeignKey) {
				errs.add(field+".foreignKey", "table %q has no column %q", rel.Table, rel.ForeignKey)
			}
		}
	}
}

func (c *Config) checkResources(errs *ValidationErrors) {
	seen := make(map[string]int, len(c.Resources))
	for i, r := range c.Resources {
		field := fmt.Sprintf("resources[%d]", i)
		if len(r.Chain) == 0 {
			continue
		}

		key := route.Chain(r.Chain).String()
		if prev, dup := seen[key]; dup {
			errs.add(field+".chain", "chain %s is already declared by resources[%d]", key, prev)
		}
		seen[key] = i

		for _, name := range r.Custom.names() {
			if _, _, err := compileAction(name, r.Custom[name]); err != nil {
				errs.add(field+".custom."+name, "%v", err)
			}
		}

		t, ok := c.Table(r.Table)
		if !ok {
			if r.Table != "" {
				errs.add(field+".table", "unknown table %q", r.Table)
			}
			continue
		}
		if r.Relation == nil {
			continue
		}
		if !hasRelation(t.Relations, r.Relation.Name) {
			errs.add(field+".relation.name", "table %q has no relation %q", r.Table, r.Relation.Name)
		}
		if len(r.Chain) < 2 {
			errs.add(field+".relation", "a relation needs a parent resource in the chain")
		} else if want := route.ParamName(r.Chain[len(r.Chain)-2]); r.Relation.PrimaryKey != want {
			errs.add(field+".relation.primaryKey", "must name the parent parameter %q, got %q", want, r.Relation.PrimaryKey)
		}
	}
}

func hasColumn(cols []sqlstore.Column, name string) bool {
	if name == store.IDField {
		return true
	}
	for _, c := range cols {
		if c.Name == name {
			return true
		}
	}
	return false
}

func hasRelation(rels []store.RelationConfig, name string) bool {
	for _, r := range rels {
		if r.Name == name {
			return true
		}
	}
	return false
}

// fieldPath turns "Config.Store.Tables[0].Name" into "store.tables[0].name".
func fieldPath(fe validator.FieldError) string {
	parts := strings.Split(fe.Namespace(), ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = lowerFirst(p)
	}
	return strings.Join(parts, ".")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	if strings.ToUpper(s) == s {
		return strings.ToLower(s)
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "startswith":
		return fmt.Sprintf("must start with %q", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
