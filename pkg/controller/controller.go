// Package controller adapts service actions to request handlers.
//
// A handler extracts the action parameters from a Request, runs the service
// action and translates its Result into a response body and status code.
// Handlers never fail: every outcome is rendered as a body.
package controller

import (
	"context"
	"net/http"

	"github.com/getmockd/crudgen/pkg/action"
	"github.com/getmockd/crudgen/pkg/service"
)

// Request is the transport-independent view of an inbound request.
type Request struct {
	// Params holds the path parameters by name.
	Params map[string]string
	// Body holds the decoded request payload. Only create and update read it.
	Body map[string]any

	ctx context.Context
}

// NewRequest creates a Request bound to ctx.
func NewRequest(ctx context.Context, params map[string]string, body map[string]any) *Request {
	return &Request{Params: params, Body: body, ctx: ctx}
}

// Context returns the request context, never nil.
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// Reply carries the response status. Handlers only override it; the default
// status is left to the transport.
type Reply interface {
	Status() int
	SetStatus(code int)
}

// StatusReply is a Reply holding a status code, 200 unless set.
type StatusReply struct {
	code int
}

// Status returns the current status code.
func (r *StatusReply) Status() int {
	if r.code == 0 {
		return http.StatusOK
	}
	return r.code
}

// SetStatus overrides the status code.
func (r *StatusReply) SetStatus(code int) {
	r.code = code
}

// Handler serves one action. It returns the response body and may set the
// reply status as a side effect.
type Handler func(req *Request, reply Reply) any

// Service is what a controller needs from the service layer.
type Service interface {
	Do(ctx context.Context, kind action.Kind, params service.Params) service.Result
}

// Controller holds one handler per action.
type Controller struct {
	Index  Handler
	Create Handler
	Get    Handler
	Update Handler
	Delete Handler
}

// New builds the five handlers of svc.
func New(svc Service) *Controller {
	return &Controller{
		Index:  NewHandler(svc, action.List),
		Create: NewHandler(svc, action.Create),
		Get:    NewHandler(svc, action.FetchOne),
		Update: NewHandler(svc, action.Update),
		Delete: NewHandler(svc, action.Delete),
	}
}

// Handler returns the handler of kind, or nil for an unknown kind.
func (c *Controller) Handler(kind action.Kind) Handler {
	switch kind {
	case action.List:
		return c.Index
	case action.Create:
		return c.Create
	case action.FetchOne:
		return c.Get
	case action.Update:
		return c.Update
	case action.Delete:
		return c.Delete
	default:
		return nil
	}
}

// NewHandler returns the handler of one action of svc.
func NewHandler(svc Service, kind action.Kind) Handler {
	return func(req *Request, reply Reply) any {
		params := service.ParamsFromPath(req.Params)
		if kind.HasBody() {
			params = params.Merge(req.Body)
		}

		res := svc.Do(req.Context(), kind, params)
		if res.OK() {
			if kind == action.Create {
				reply.SetStatus(http.StatusCreated)
			}
			return res.Data()
		}
		return renderError(res.Err(), reply)
	}
}

// renderError maps a failure to its body and status. Only the exact message
// "Not found" yields 404; every other error is a client error.
func renderError(err error, reply Reply) any {
	if err == nil {
		return service.NoErrorProvidedMessage
	}
	msg := err.Error()
	if msg == service.NotFoundMessage {
		reply.SetStatus(http.StatusNotFound)
	} else {
		// TODO: map validation failures to 422 and store outages to 500 once stores classify them.
		reply.SetStatus(http.StatusBadRequest)
	}
	return msg
}
