package service

import (
	"log/slog"
	"time"

	"github.com/getmockd/crudgen/pkg/action"
)

// Observer defines hooks called after every service action.
// Implementations can collect metrics or log operations.
type Observer interface {
	// OnSuccess is called after an action succeeded.
	OnSuccess(resource string, kind action.Kind, duration time.Duration)

	// OnError is called after an action failed. err may be nil.
	OnError(resource string, kind action.Kind, err error)
}

// NoopObserver ignores every event.
type NoopObserver struct{}

func (NoopObserver) OnSuccess(string, action.Kind, time.Duration) {}
func (NoopObserver) OnError(string, action.Kind, error)           {}

// LogObserver writes one debug record per success and one warning per failure.
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) OnSuccess(resource string, kind action.Kind, duration time.Duration) {
	o.Logger.Debug("service action", "resource", resource, "action", kind.ServiceName(), "duration", duration)
}

func (o LogObserver) OnError(resource string, kind action.Kind, err error) {
	o.Logger.Warn("service action failed", "resource", resource, "action", kind.ServiceName(), "error", err)
}

// MultiObserver fans events out to several observers.
type MultiObserver []Observer

func (m MultiObserver) OnSuccess(resource string, kind action.Kind, duration time.Duration) {
	for _, o := range m {
		o.OnSuccess(resource, kind, duration)
	}
}

func (m MultiObserver) OnError(resource string, kind action.Kind, err error) {
	for _, o := range m {
		o.OnError(resource, kind, err)
	}
}
