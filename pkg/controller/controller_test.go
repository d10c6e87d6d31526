package controller

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/crudgen/pkg/action"
	"github.com/getmockd/crudgen/pkg/service"
	"github.com/getmockd/crudgen/pkg/store"
)

// --- Helpers ---

// stubService records the last call and returns a fixed result.
type stubService struct {
	result service.Result
	kind   action.Kind
	params service.Params
	calls  int
}

func (s *stubService) Do(_ context.Context, kind action.Kind, params service.Params) service.Result {
	s.calls++
	s.kind = kind
	s.params = params
	return s.result
}

func serve(h Handler, params map[string]string, body map[string]any) (any, *StatusReply) {
	reply := &StatusReply{}
	out := h(NewRequest(context.Background(), params, body), reply)
	return out, reply
}

// --- Success rendering ---

func TestCreate_Sets201(t *testing.T) {
	for _, data := range []any{map[string]any{"id": 1}, nil, "text", []int{1}} {
		svc := &stubService{result: service.Success(data)}
		body, reply := serve(New(svc).Create, nil, map[string]any{"name": "John"})
		assert.Equal(t, http.StatusCreated, reply.Status())
		assert.Equal(t, data, body)
	}
}

func TestOtherActions_KeepDefaultStatus(t *testing.T) {
	svc := &stubService{result: service.Success("ok")}
	ctrl := New(svc)
	for _, h := range []Handler{ctrl.Index, ctrl.Get, ctrl.Update, ctrl.Delete} {
		reply := &recordingReply{}
		body := h(NewRequest(context.Background(), nil, nil), reply)
		assert.Equal(t, "ok", body)
		assert.Empty(t, reply.set, "status must not be set explicitly")
	}
}

// recordingReply captures every SetStatus call.
type recordingReply struct {
	set []int
}

func (r *recordingReply) Status() int {
	if len(r.set) == 0 {
		return http.StatusOK
	}
	return r.set[len(r.set)-1]
}

func (r *recordingReply) SetStatus(code int) { r.set = append(r.set, code) }

// --- Failure rendering ---

func TestFailure_NotFoundIs404(t *testing.T) {
	svc := &stubService{result: service.Failure(service.ErrNotFound)}
	body, reply := serve(New(svc).Get, map[string]string{"id": "9"}, nil)
	assert.Equal(t, http.StatusNotFound, reply.Status())
	assert.Equal(t, "Not found", body)
}

func TestFailure_OtherMessagesAre400(t *testing.T) {
	for _, msg := range []string{"Record with id 1 not found", "not found", "Not found.", "boom"} {
		svc := &stubService{result: service.Failure(errors.New(msg))}
		body, reply := serve(New(svc).Delete, map[string]string{"id": "1"}, nil)
		assert.Equal(t, http.StatusBadRequest, reply.Status(), msg)
		assert.Equal(t, msg, body)
	}
}

func TestFailure_NoError(t *testing.T) {
	svc := &stubService{result: service.Failure(nil)}
	reply := &recordingReply{}
	body := New(svc).Update(NewRequest(context.Background(), nil, nil), reply)
	assert.Equal(t, "No error provided", body)
	assert.Empty(t, reply.set)
}

// --- Parameter extraction ---

func TestParams_PathOnlyForReads(t *testing.T) {
	ctrl := func(svc *stubService) *Controller { return New(svc) }
	path := map[string]string{"person_id": "1", "id": "2"}
	body := map[string]any{"name": "ignored"}

	tests := []struct {
		name string
		kind action.Kind
	}{
		{"index", action.List},
		{"get", action.FetchOne},
		{"delete", action.Delete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{result: service.Success(nil)}
			serve(ctrl(svc).Handler(tt.kind), path, body)
			require.Equal(t, 1, svc.calls)
			assert.Equal(t, tt.kind, svc.kind)
			assert.Equal(t, service.Params{"person_id": "1", "id": "2"}, svc.params)
		})
	}
}

func TestParams_BodyWinsForWrites(t *testing.T) {
	path := map[string]string{"person_id": "1", "id": "2"}
	body := map[string]any{"id": 5, "name": "John"}

	for _, kind := range []action.Kind{action.Create, action.Update} {
		svc := &stubService{result: service.Success(nil)}
		serve(New(svc).Handler(kind), path, body)
		assert.Equal(t, service.Params{"person_id": "1", "id": 5, "name": "John"}, svc.params, kind.String())
	}
	assert.Equal(t, map[string]any{"id": 5, "name": "John"}, body, "body untouched")
}

func TestRequest_NilContext(t *testing.T) {
	req := &Request{}
	assert.NotNil(t, req.Context())
}

func TestController_HandlerUnknownKind(t *testing.T) {
	assert.Nil(t, New(&stubService{}).Handler(action.Kind(9)))
}

// --- With a real service ---

func TestController_ServicePanicBecomes400(t *testing.T) {
	svc := service.New(nil, service.Custom{Func: func(context.Context, action.Kind, store.Model, service.Params) (any, error) {
		panic("db exploded")
	}})
	body, reply := serve(New(svc).Index, nil, nil)
	assert.Equal(t, http.StatusBadRequest, reply.Status())
	assert.Equal(t, "db exploded", body)
}
