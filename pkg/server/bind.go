package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/getmockd/crudgen/pkg/controller"
	"github.com/getmockd/crudgen/pkg/httputil"
	"github.com/getmockd/crudgen/pkg/route"
)

// MaxBodySize limits decoded request bodies.
const MaxBodySize = 1 << 20

// Attach registers every route on r, translating ":name" parameters to chi's
// "{name}" syntax. Routes are registered in table order.
func Attach(r chi.Router, routes []route.Route) {
	for _, rt := range routes {
		r.MethodFunc(rt.Method, rt.Pattern(), Bind(rt.Handler))
	}
}

// Bind adapts a controller handler to net/http. Path parameters are taken from
// the chi route context; a JSON object body is decoded when present.
func Bind(h controller.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := decodeBody(w, r)
		if err != nil {
			httputil.WriteBadRequest(w, err.Error())
			return
		}

		reply := &controller.StatusReply{}
		out := h(controller.NewRequest(r.Context(), pathParams(r), body), reply)
		httputil.WriteBody(w, reply.Status(), out)
	}
}

func pathParams(r *http.Request) map[string]string {
	params := make(map[string]string)
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return params
	}
	for i, key := range rctx.URLParams.Keys {
		if key == "" || key == "*" || i >= len(rctx.URLParams.Values) {
			continue
		}
		params[key] = rctx.URLParams.Values[i]
	}
	return params
}

// decodeBody returns nil for an empty body.
func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	return body, nil
}
