// Package resource assembles the service, controller and route table of one
// resource chain.
package resource

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/getmockd/crudgen/pkg/controller"
	"github.com/getmockd/crudgen/pkg/route"
	"github.com/getmockd/crudgen/pkg/service"
	"github.com/getmockd/crudgen/pkg/store"
)

// Resource is a generated CRUD resource ready to be mounted.
type Resource struct {
	Chain      route.Chain
	Service    *service.Service
	Controller *controller.Controller
	Routes     []route.Route
}

// New builds the resource for chain on top of model. A nil strategy selects
// Direct. The service options are passed through.
func New(model store.Model, chain route.Chain, strategy service.Strategy, opts ...service.Option) (*Resource, error) {
	if len(chain) == 0 {
		return nil, route.ErrEmptyChain
	}
	if model == nil {
		if _, custom := strategy.(service.Custom); !custom {
			return nil, errors.New("model is required unless the strategy is custom")
		}
	}

	svc := service.New(model, strategy, opts...)
	ctrl := controller.New(svc)
	routes, err := route.Resources(chain, ctrl)
	if err != nil {
		return nil, fmt.Errorf("building routes for %s: %w", chain, err)
	}

	return &Resource{
		Chain:      chain,
		Service:    svc,
		Controller: ctrl,
		Routes:     routes,
	}, nil
}

// Name returns the chain joined with "/".
func (r *Resource) Name() string {
	return r.Chain.String()
}

// LogRoutes writes one debug line per route.
func (r *Resource) LogRoutes(log *slog.Logger) {
	for _, rt := range r.Routes {
		log.Debug("route registered",
			"method", rt.Method,
			"url", rt.URL,
			"action", rt.Action.String(),
			"strategy", r.Service.Strategy().Kind(),
		)
	}
}
