package route

import (
	"errors"
	"net/http"
	"strings"

	"github.com/getmockd/crudgen/pkg/action"
	"github.com/getmockd/crudgen/pkg/controller"
)

// ErrNilController is returned when routes are requested without a controller.
var ErrNilController = errors.New("controller cannot be nil")

// Route binds an HTTP method and path to a controller handler.
type Route struct {
	Method  string
	URL     string
	Action  action.Kind
	Handler controller.Handler
}

// Resources returns the RESTful route table for a chain. The order is fixed and
// significant for routers that register sequentially and stop at the first match:
//
//	GET    collection -> index
//	POST   collection -> create
//	GET    member     -> get
//	PATCH  member     -> update
//	DELETE member     -> delete
func Resources(chain Chain, ctrl *controller.Controller) ([]Route, error) {
	if ctrl == nil {
		return nil, ErrNilController
	}
	collectionURL, err := Build(chain, Collection)
	if err != nil {
		return nil, err
	}
	memberURL, err := Build(chain, Member)
	if err != nil {
		return nil, err
	}

	return []Route{
		{Method: http.MethodGet, URL: collectionURL, Action: action.List, Handler: ctrl.Index},
		{Method: http.MethodPost, URL: collectionURL, Action: action.Create, Handler: ctrl.Create},
		{Method: http.MethodGet, URL: memberURL, Action: action.FetchOne, Handler: ctrl.Get},
		{Method: http.MethodPatch, URL: memberURL, Action: action.Update, Handler: ctrl.Update},
		{Method: http.MethodDelete, URL: memberURL, Action: action.Delete, Handler: ctrl.Delete},
	}, nil
}

// Pattern returns the route URL with "{name}" parameters instead of ":name",
// the syntax of chi and OpenAPI paths.
func (r Route) Pattern() string {
	return BracePattern(r.URL)
}

// BracePattern rewrites every ":name" segment of url as "{name}".
func BracePattern(url string) string {
	segments := strings.Split(url, "/")
	for i, s := range segments {
		if strings.HasPrefix(s, ":") {
			segments[i] = "{" + s[1:] + "}"
		}
	}
	return strings.Join(segments, "/")
}
