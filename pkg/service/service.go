// Package service dispatches CRUD actions to a record store.
//
// A Service is built once from a store model and a Strategy:
//
//   - Direct queries the model's table with the action parameters.
//   - Relation scopes every query through a named has-many relation of the
//     parent identified by a path parameter (e.g. /people/:person_id/children).
//   - Custom hands the action to caller-supplied logic.
//
// Every action returns a Result. Errors, including panics raised by stores or
// custom logic, are caught at this boundary and never escape an action.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/getmockd/crudgen/pkg/action"
	"github.com/getmockd/crudgen/pkg/logging"
	"github.com/getmockd/crudgen/pkg/store"
)

// Func is a single bound action.
type Func func(ctx context.Context, params Params) Result

// Service runs the five CRUD actions of one resource.
type Service struct {
	model    store.Model
	strategy Strategy
	resource string
	observer Observer
	log      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithObserver sets the observer notified after every action.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithLogger sets the logger used for recovered panics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithResourceName overrides the name reported to observers (defaults to the table name).
func WithResourceName(name string) Option {
	return func(s *Service) {
		s.resource = name
	}
}

// New creates a Service. A nil strategy means Direct.
func New(model store.Model, strategy Strategy, opts ...Option) *Service {
	if strategy == nil {
		strategy = Direct{}
	}
	s := &Service{
		model:    model,
		strategy: strategy,
		observer: NoopObserver{},
		log:      logging.Nop(),
	}
	if model != nil {
		s.resource = model.Name()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Strategy returns the strategy chosen at construction.
func (s *Service) Strategy() Strategy {
	return s.strategy
}

// Do runs one action. It always returns a Result; panics are recovered and
// converted into failures.
func (s *Service) Do(ctx context.Context, kind action.Kind, params Params) (res Result) {
	start := time.Now()
	defer func() {
		if v := recover(); v != nil {
			s.log.Error("service action panicked", "resource", s.resource, "action", kind.ServiceName(), "panic", v)
			res = Failure(normalizeError(v))
		}
		if res.OK() {
			s.observer.OnSuccess(s.resource, kind, time.Since(start))
		} else {
			s.observer.OnError(s.resource, kind, res.Err())
		}
	}()

	if !kind.Valid() {
		return Failure(&UnsupportedActionError{Action: kind.String()})
	}
	if s.model == nil {
		if _, custom := s.strategy.(Custom); !custom {
			return Failure(errors.New("service has no model"))
		}
	}
	if params == nil {
		params = Params{}
	}

	data, err := s.strategy.run(ctx, s.model, kind, params)
	if err != nil {
		return Failure(err)
	}
	return Success(data)
}

// Run executes one action with strategy, without observers or panic
// recovery. Custom functions use it to hand actions back to a built-in
// strategy.
func Run(ctx context.Context, strategy Strategy, m store.Model, kind action.Kind, params Params) (any, error) {
	if params == nil {
		params = Params{}
	}
	return strategy.run(ctx, m, kind, params)
}

// Func returns the action bound as a function.
func (s *Service) Func(kind action.Kind) Func {
	return func(ctx context.Context, params Params) Result {
		return s.Do(ctx, kind, params)
	}
}

// GetAll lists the records matching params.
func (s *Service) GetAll(ctx context.Context, params Params) Result {
	return s.Do(ctx, action.List, params)
}

// Get fetches at most one record.
func (s *Service) Get(ctx context.Context, params Params) Result {
	return s.Do(ctx, action.FetchOne, params)
}

// Create inserts a record.
func (s *Service) Create(ctx context.Context, params Params) Result {
	return s.Do(ctx, action.Create, params)
}

// Update patches the record identified by params["id"].
func (s *Service) Update(ctx context.Context, params Params) Result {
	return s.Do(ctx, action.Update, params)
}

// Delete removes the record identified by params["id"].
func (s *Service) Delete(ctx context.Context, params Params) Result {
	return s.Do(ctx, action.Delete, params)
}

// Funcs assembles a service from individual action functions, for callers
// that implement actions by hand. Missing actions fail with UnsupportedActionError.
type Funcs map[action.Kind]Func

// Do runs the function registered for kind.
func (f Funcs) Do(ctx context.Context, kind action.Kind, params Params) Result {
	fn, ok := f[kind]
	if !ok || fn == nil {
		return Failure(&UnsupportedActionError{Action: kind.String()})
	}
	return fn(ctx, params)
}
