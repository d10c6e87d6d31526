package resource

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/crudgen/pkg/action"
	"github.com/getmockd/crudgen/pkg/controller"
	"github.com/getmockd/crudgen/pkg/route"
	"github.com/getmockd/crudgen/pkg/service"
	"github.com/getmockd/crudgen/pkg/store"
	"github.com/getmockd/crudgen/pkg/store/memory"
)

func newPersons(t *testing.T) store.Model {
	t.Helper()
	db := memory.New()
	require.NoError(t, db.CreateTable(memory.TableConfig{
		Name:      "persons",
		Relations: []store.RelationConfig{{Name: "children", Table: "persons", ForeignKey: "parentId"}},
	}))
	m, err := db.Model("persons")
	require.NoError(t, err)
	return m
}

func TestNew_Direct(t *testing.T) {
	res, err := New(newPersons(t), route.ParseChain("person"), nil)
	require.NoError(t, err)
	assert.Equal(t, "person", res.Name())
	assert.Equal(t, "direct", res.Service.Strategy().Kind())
	require.Len(t, res.Routes, 5)
	assert.Equal(t, "/people", res.Routes[0].URL)

	reply := &controller.StatusReply{}
	body := res.Routes[1].Handler(controller.NewRequest(context.Background(), nil, map[string]any{"name": "John"}), reply)
	assert.Equal(t, http.StatusCreated, reply.Status())
	assert.Equal(t, store.Record{"id": int64(1), "name": "John"}, body)
}

func TestNew_RelationRoutesAndDispatch(t *testing.T) {
	model := newPersons(t)
	people, err := New(model, route.Chain{"person"}, nil)
	require.NoError(t, err)
	children, err := New(model, route.Chain{"person", "child"}, service.Relation{Name: "children", PrimaryKey: "person_id"})
	require.NoError(t, err)

	assert.Equal(t, "/people/:person_id/children/:id", children.Routes[2].URL)
	assert.Equal(t, action.FetchOne, children.Routes[2].Action)

	ctx := context.Background()
	people.Controller.Create(controller.NewRequest(ctx, nil, map[string]any{"name": "Parent"}), &controller.StatusReply{})

	reply := &controller.StatusReply{}
	children.Controller.Create(controller.NewRequest(ctx, map[string]string{"person_id": "1"}, map[string]any{"name": "Kid"}), reply)
	assert.Equal(t, http.StatusCreated, reply.Status())

	body := children.Controller.Index(controller.NewRequest(ctx, map[string]string{"person_id": "1"}, nil), &controller.StatusReply{})
	rows, ok := body.([]store.Record)
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, "Kid", rows[0]["name"])
}

func TestNew_Errors(t *testing.T) {
	_, err := New(newPersons(t), nil, nil)
	assert.ErrorIs(t, err, route.ErrEmptyChain)

	_, err = New(nil, route.Chain{"person"}, nil)
	assert.Error(t, err)

	custom := service.Custom{Func: func(context.Context, action.Kind, store.Model, service.Params) (any, error) {
		return "custom", nil
	}}
	res, err := New(nil, route.Chain{"report"}, custom)
	require.NoError(t, err)
	assert.Equal(t, "custom", res.Service.Strategy().Kind())
}
