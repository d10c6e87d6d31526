package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/getmockd/crudgen/pkg/action"
)

// CRUD records service actions per resource. It implements service.Observer.
type CRUD struct {
	Actions  *Counter
	Errors   *Counter
	Duration *Histogram
}

// NewCRUD registers the service action families on r.
func NewCRUD(r *Registry) *CRUD {
	return &CRUD{
		Actions: r.NewCounter("crudgen_actions_total",
			"Service actions that completed successfully.", "resource", "action"),
		Errors: r.NewCounter("crudgen_action_errors_total",
			"Service actions that failed.", "resource", "action"),
		Duration: r.NewHistogram("crudgen_action_duration_seconds",
			"Duration of successful service actions.", DefaultBuckets, "resource", "action"),
	}
}

// The families below are registered with a fixed label set and always
// receive that many values, so Inc and Observe cannot return an error.

// OnSuccess counts the action and records its duration.
func (c *CRUD) OnSuccess(resource string, kind action.Kind, d time.Duration) {
	_ = c.Actions.Inc(resource, kind.ServiceName())
	_ = c.Duration.Observe(d.Seconds(), resource, kind.ServiceName())
}

// OnError counts the failed action.
func (c *CRUD) OnError(resource string, kind action.Kind, _ error) {
	_ = c.Errors.Inc(resource, kind.ServiceName())
}

// Totals returns the successful and failed actions across every resource.
func (c *CRUD) Totals() (succeeded, failed int64) {
	return int64(c.Actions.Total()), int64(c.Errors.Total())
}

// HTTP records requests by route pattern.
type HTTP struct {
	Requests *Counter
	Duration *Histogram
}

// NewHTTP registers the request families on r.
func NewHTTP(r *Registry) *HTTP {
	return &HTTP{
		Requests: r.NewCounter("crudgen_http_requests_total",
			"HTTP requests by method, route and status.", "method", "route", "status"),
		Duration: r.NewHistogram("crudgen_http_request_duration_seconds",
			"HTTP request duration by method and route.", DefaultBuckets, "method", "route"),
	}
}

// Middleware labels requests with the matched chi route pattern, not the raw
// path, so ids do not create new series. Unmatched requests use "unmatched".
func (h *HTTP) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		// label counts match NewHTTP
		_ = h.Requests.Inc(r.Method, pattern, strconv.Itoa(status))
		_ = h.Duration.Observe(time.Since(start).Seconds(), r.Method, pattern)
	})
}
