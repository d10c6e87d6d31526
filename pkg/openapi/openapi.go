// Package openapi describes generated resources as an OpenAPI 3 document.
package openapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/getmockd/crudgen/pkg/action"
	"github.com/getmockd/crudgen/pkg/resource"
	"github.com/getmockd/crudgen/pkg/route"
)

// Version is the OpenAPI version written to generated documents.
const Version = "3.0.3"

// Info is the document metadata.
type Info struct {
	Title       string
	Version     string
	Description string
}

// Build returns a document with one operation per route of every resource.
// The document is validated before it is returned.
func Build(ctx context.Context, info Info, resources []*resource.Resource) (*openapi3.T, error) {
	if info.Title == "" {
		info.Title = "crudgen"
	}
	if info.Version == "" {
		info.Version = "0.0.0"
	}

	doc := &openapi3.T{
		OpenAPI: Version,
		Info: &openapi3.Info{
			Title:       info.Title,
			Version:     info.Version,
			Description: info.Description,
		},
		Paths: openapi3.NewPaths(),
	}

	for _, res := range resources {
		if res == nil {
			continue
		}
		tag := route.Plural(res.Chain.Target())
		if doc.Tags.Get(tag) == nil {
			doc.Tags = append(doc.Tags, &openapi3.Tag{Name: tag})
		}

		for _, rt := range res.Routes {
			pattern := rt.Pattern()
			item := doc.Paths.Value(pattern)
			if item == nil {
				item = &openapi3.PathItem{}
				doc.Paths.Set(pattern, item)
			}
			op := operation(res.Chain, rt, tag)
			if item.GetOperation(rt.Method) != nil {
				return nil, fmt.Errorf("duplicate operation %s %s", rt.Method, pattern)
			}
			item.SetOperation(rt.Method, op)
		}
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	return doc, nil
}

// OperationID returns "<service action>_<snake chain>", e.g. "getAll_person_possession".
func OperationID(chain route.Chain, kind action.Kind) string {
	parts := make([]string, len(chain))
	for i, c := range chain {
		parts[i] = route.Snake(c)
	}
	return kind.ServiceName() + "_" + strings.Join(parts, "_")
}

func operation(chain route.Chain, rt route.Route, tag string) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.OperationID = OperationID(chain, rt.Action)
	op.Tags = []string{tag}
	op.Summary = summary(chain, rt.Action)

	for _, seg := range strings.Split(rt.URL, "/") {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		p := openapi3.NewPathParameter(seg[1:]).WithSchema(openapi3.NewStringSchema())
		op.AddParameter(p)
	}

	if rt.Action.HasBody() {
		op.RequestBody = &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().
				WithRequired(true).
				WithJSONSchema(recordSchema()),
		}
	}

	success := http.StatusOK
	if rt.Action == action.Create {
		success = http.StatusCreated
	}
	op.Responses = openapi3.NewResponses(
		openapi3.WithStatus(success, &openapi3.ResponseRef{Value: successResponse(rt.Action)}),
		openapi3.WithStatus(http.StatusBadRequest, &openapi3.ResponseRef{Value: errorResponse("Request failed")}),
		openapi3.WithStatus(http.StatusNotFound, &openapi3.ResponseRef{Value: errorResponse("Not found")}),
	)
	return op
}

func summary(chain route.Chain, kind action.Kind) string {
	target := chain.Target()
	switch kind {
	case action.List:
		return "List " + route.Plural(target)
	case action.Create:
		return "Create a " + target
	case action.FetchOne:
		return "Get a " + target
	case action.Update:
		return "Update a " + target
	default:
		return "Delete a " + target
	}
}

func recordSchema() *openapi3.Schema {
	s := openapi3.NewObjectSchema()
	has := true
	s.AdditionalProperties = openapi3.AdditionalProperties{Has: &has}
	return s
}

func successResponse(kind action.Kind) *openapi3.Response {
	switch kind {
	case action.List:
		return openapi3.NewResponse().
			WithDescription("Matching records").
			WithJSONSchema(openapi3.NewArraySchema().WithItems(recordSchema()))
	case action.Delete:
		return openapi3.NewResponse().
			WithDescription("Id of the deleted record").
			WithJSONSchema(openapi3.NewSchema())
	default:
		return openapi3.NewResponse().
			WithDescription("Record").
			WithJSONSchema(recordSchema())
	}
}

func errorResponse(desc string) *openapi3.Response {
	return openapi3.NewResponse().
		WithDescription(desc).
		WithContent(openapi3.NewContentWithSchema(openapi3.NewStringSchema(), []string{"text/plain"}))
}
