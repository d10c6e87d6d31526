package config

import (
	"context"
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/getmockd/crudgen/pkg/action"
	"github.com/getmockd/crudgen/pkg/service"
	"github.com/getmockd/crudgen/pkg/store"
)

// CustomActions scripts the actions of a resource with expr expressions,
// keyed by action name (getAll, create, get, update, delete). An expression
// sees the request parameters as params, the action name as action and the
// table name as table, and can query the table with where, first, insert,
// patch and remove:
//
//	custom:
//	  getAll: 'filter(where({}), #.parentId == nil)'
//	  create: 'insert({firstName: upper(params.firstName)})'
//
// Actions without an expression keep the relation or direct behaviour.
type CustomActions map[string]string

// compile builds the custom function. fallback serves unscripted actions.
func (c CustomActions) compile(fallback service.Strategy) (service.CustomFunc, error) {
	programs := make(map[action.Kind]*vm.Program, len(c))
	for _, name := range c.names() {
		kind, program, err := compileAction(name, c[name])
		if err != nil {
			return nil, err
		}
		programs[kind] = program
	}

	return func(ctx context.Context, kind action.Kind, m store.Model, params service.Params) (any, error) {
		program, ok := programs[kind]
		if !ok {
			return service.Run(ctx, fallback, m, kind, params)
		}
		var callErr error
		out, err := expr.Run(program, exprEnv(ctx, kind, m, params, &callErr))
		if callErr != nil {
			return nil, callErr
		}
		if err != nil {
			return nil, fmt.Errorf("%s expression failed: %w", kind.ServiceName(), err)
		}
		return out, nil
	}, nil
}

func (c CustomActions) names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func compileAction(name, src string) (action.Kind, *vm.Program, error) {
	kind, ok := action.Parse(name)
	if !ok {
		return 0, nil, fmt.Errorf("unknown action %q", name)
	}
	var ignored error
	program, err := expr.Compile(src, expr.Env(exprEnv(context.Background(), kind, nil, service.Params{}, &ignored)))
	if err != nil {
		return 0, nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return kind, program, nil
}

// exprEnv binds the store functions of one action run. The first store error
// is kept in callErr and the failing call returns a zero value, so the
// action fails with the store's own error.
func exprEnv(ctx context.Context, kind action.Kind, m store.Model, params service.Params, callErr *error) map[string]any {
	fail := func(err error) bool {
		if err != nil && *callErr == nil {
			*callErr = err
		}
		return err != nil
	}
	table := ""
	if m != nil {
		table = m.Name()
	}

	return map[string]any{
		"action": kind.ServiceName(),
		"table":  table,
		"params": map[string]any(params),
		"where": func(fields map[string]any) []store.Record {
			rows, err := m.Where(ctx, fields)
			if fail(err) {
				return nil
			}
			return rows
		},
		"first": func(fields map[string]any) store.Record {
			rec, err := m.First(ctx, fields)
			if fail(err) {
				return nil
			}
			return rec
		},
		"insert": func(fields map[string]any) store.Record {
			rec, err := m.Insert(ctx, fields)
			if fail(err) {
				return nil
			}
			return rec
		},
		"patch": func(id any, fields map[string]any) store.Record {
			rec, err := m.PatchByID(ctx, id, fields)
			if fail(err) {
				return nil
			}
			return rec
		},
		"remove": func(id any) int64 {
			n, err := m.DeleteByID(ctx, id)
			if fail(err) {
				return 0
			}
			return n
		},
	}
}
