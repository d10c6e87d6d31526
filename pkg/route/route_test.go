package route

import (
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/crudgen/pkg/action"
	"github.com/getmockd/crudgen/pkg/controller"
)

// --- Helpers ---

func index(*controller.Request, controller.Reply) any  { return "index" }
func create(*controller.Request, controller.Reply) any { return "create" }
func get(*controller.Request, controller.Reply) any    { return "get" }
func update(*controller.Request, controller.Reply) any { return "update" }
func remove(*controller.Request, controller.Reply) any { return "delete" }

func testController() *controller.Controller {
	return &controller.Controller{Index: index, Create: create, Get: get, Update: update, Delete: remove}
}

func funcPtr(h controller.Handler) uintptr {
	return reflect.ValueOf(h).Pointer()
}

// --- Naming ---

func TestPlural(t *testing.T) {
	tests := map[string]string{
		"user":       "users",
		"post":       "posts",
		"person":     "people",
		"child":      "children",
		"possession": "possessions",
		"category":   "categories",
		"employee":   "employees",
	}
	for in, want := range tests {
		assert.Equal(t, want, Plural(in), in)
	}
}

func TestParamName(t *testing.T) {
	tests := map[string]string{
		"person":      "person_id",
		"blogPost":    "blog_post_id",
		"BlogPost":    "blog_post_id",
		"blog-post":   "blog_post_id",
		"blog post":   "blog_post_id",
		" user ":      "user_id",
		"blog_post":   "blog_post_id",
		"userAccount": "user_account_id",
	}
	for in, want := range tests {
		assert.Equal(t, want, ParamName(in), in)
	}
}

// --- Part / Build ---

func TestPart(t *testing.T) {
	assert.Equal(t, "/people", Part("person", Collection, false))
	assert.Equal(t, "/people", Part("person", Collection, true))
	assert.Equal(t, "/people/:person_id", Part("person", Member, false))
	assert.Equal(t, "/people/:id", Part("person", Member, true))
}

func TestBuild(t *testing.T) {
	tests := []struct {
		chain Chain
		kind  Kind
		want  string
	}{
		{Chain{"user"}, Collection, "/users"},
		{Chain{"user"}, Member, "/users/:id"},
		{Chain{"user", "post"}, Collection, "/users/:user_id/posts"},
		{Chain{"user", "post"}, Member, "/users/:user_id/posts/:id"},
		{Chain{"person", "possession"}, Member, "/people/:person_id/possessions/:id"},
		{Chain{"person", "child"}, Collection, "/people/:person_id/children"},
		{Chain{"blogPost", "comment"}, Collection, "/blogPosts/:blog_post_id/comments"},
		{Chain{"user", "post", "comment"}, Member, "/users/:user_id/posts/:post_id/comments/:id"},
	}
	for _, tt := range tests {
		got, err := Build(tt.chain, tt.kind)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%v %s", tt.chain, tt.kind)
	}
}

func TestBuild_MemberEndsWithID(t *testing.T) {
	chains := []Chain{{"a"}, {"user", "post"}, {"person", "child", "toy"}, {"blogPost"}}
	for _, chain := range chains {
		member := MustBuild(chain, Member)
		collection := MustBuild(chain, Collection)
		assert.True(t, strings.HasSuffix(member, "/:id"), member)
		assert.False(t, strings.HasSuffix(collection, "/:id"), collection)
		assert.Equal(t, collection+"/:id", member)
	}
}

func TestBuild_OneParamPerIntermediate(t *testing.T) {
	chain := Chain{"user", "post", "comment"}
	member := MustBuild(chain, Member)
	segments := strings.Split(strings.TrimPrefix(member, "/"), "/")
	require.Len(t, segments, 6)

	var params []string
	for _, s := range segments {
		if strings.HasPrefix(s, ":") {
			params = append(params, strings.TrimPrefix(s, ":"))
		}
	}
	assert.Equal(t, chain.ParamNames(), params)
	assert.Equal(t, []string{"user_id", "post_id", "id"}, params)
}

func TestBuild_EmptyChain(t *testing.T) {
	_, err := Build(nil, Collection)
	assert.ErrorIs(t, err, ErrEmptyChain)
	assert.Panics(t, func() { MustBuild(Chain{}, Member) })
}

func TestChain(t *testing.T) {
	c := Chain{"user", "post"}
	assert.Equal(t, "post", c.Target())
	assert.Equal(t, []string{"user"}, c.Parents())
	assert.Equal(t, "user/post", c.String())
	assert.Equal(t, Chain{"user"}, ParseChain("user"))
	assert.Empty(t, Chain{}.Target())
	assert.Nil(t, Chain{}.ParamNames())
}

// --- Route table ---

func TestResources_NestedChain(t *testing.T) {
	ctrl := testController()
	routes, err := Resources(Chain{"user", "post"}, ctrl)
	require.NoError(t, err)
	require.Len(t, routes, 5)

	want := []struct {
		method  string
		url     string
		kind    action.Kind
		handler controller.Handler
	}{
		{http.MethodGet, "/users/:user_id/posts", action.List, index},
		{http.MethodPost, "/users/:user_id/posts", action.Create, create},
		{http.MethodGet, "/users/:user_id/posts/:id", action.FetchOne, get},
		{http.MethodPatch, "/users/:user_id/posts/:id", action.Update, update},
		{http.MethodDelete, "/users/:user_id/posts/:id", action.Delete, remove},
	}
	for i, w := range want {
		assert.Equal(t, w.method, routes[i].Method, "route %d", i)
		assert.Equal(t, w.url, routes[i].URL, "route %d", i)
		assert.Equal(t, w.kind, routes[i].Action, "route %d", i)
		assert.Equal(t, funcPtr(w.handler), funcPtr(routes[i].Handler), "route %d", i)
	}
}

func TestResources_SingleName(t *testing.T) {
	routes, err := Resources(ParseChain("person"), testController())
	require.NoError(t, err)
	require.Len(t, routes, 5)
	assert.Equal(t, "/people", routes[0].URL)
	assert.Equal(t, "/people/:id", routes[4].URL)
}

func TestResources_DoesNotMutateController(t *testing.T) {
	ctrl := testController()
	before := *ctrl
	_, err := Resources(Chain{"user"}, ctrl)
	require.NoError(t, err)
	assert.Equal(t, funcPtr(before.Index), funcPtr(ctrl.Index))
	assert.Equal(t, funcPtr(before.Delete), funcPtr(ctrl.Delete))
}

func TestResources_Errors(t *testing.T) {
	_, err := Resources(Chain{"user"}, nil)
	assert.ErrorIs(t, err, ErrNilController)

	_, err = Resources(Chain{}, testController())
	assert.ErrorIs(t, err, ErrEmptyChain)
}

func TestBracePattern(t *testing.T) {
	assert.Equal(t, "/users/{user_id}/posts/{id}", BracePattern("/users/:user_id/posts/:id"))
	assert.Equal(t, "/users", BracePattern("/users"))
	assert.Equal(t, "/people/{id}", Route{URL: "/people/:id"}.Pattern())
}
