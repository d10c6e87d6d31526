// Package route turns resource chains into nested RESTful paths and route tables.
//
// A chain such as ["person", "possession"] produces:
//
//	GET    /people/:person_id/possessions
//	POST   /people/:person_id/possessions
//	GET    /people/:person_id/possessions/:id
//	PATCH  /people/:person_id/possessions/:id
//	DELETE /people/:person_id/possessions/:id
//
// Paths use the ":name" positional parameter syntax, one parameter per segment.
package route

import (
	"errors"
	"strings"
)

// ErrEmptyChain is returned when a path is requested for a chain without resources.
var ErrEmptyChain = errors.New("resource chain cannot be empty")

// Kind selects the shape of the final path segment.
type Kind string

const (
	// Collection addresses the set of records (no trailing identifier).
	Collection Kind = "collection"
	// Member addresses a single record (trailing ":id").
	Member Kind = "member"
)

// IDParam is the name of the trailing identifier parameter of member routes.
const IDParam = "id"

// Chain is an ordered list of singular resource names, outermost first.
// The last element is the resource the routes operate on.
type Chain []string

// ParseChain builds a one-element chain from a single resource name.
func ParseChain(name string) Chain {
	return Chain{name}
}

// Target returns the innermost resource of the chain, or "" for an empty chain.
func (c Chain) Target() string {
	if len(c) == 0 {
		return ""
	}
	return c[len(c)-1]
}

// Parents returns every resource except the target.
func (c Chain) Parents() []string {
	if len(c) == 0 {
		return nil
	}
	return c[:len(c)-1]
}

// ParamNames returns the path parameter names of the member route in order,
// e.g. ["person_id", "id"] for ["person", "possession"].
func (c Chain) ParamNames() []string {
	if len(c) == 0 {
		return nil
	}
	names := make([]string, 0, len(c))
	for _, parent := range c.Parents() {
		names = append(names, ParamName(parent))
	}
	return append(names, IDParam)
}

// String returns the chain joined with "/", for logs.
func (c Chain) String() string {
	return strings.Join(c, "/")
}

// Part returns the path part contributed by one resource of a chain.
//
//	Part("person", Collection, _)  -> "/people"
//	Part("person", Member, false)  -> "/people/:person_id"
//	Part("person", Member, true)   -> "/people/:id"
func Part(resource string, kind Kind, last bool) string {
	plural := "/" + Plural(resource)
	if kind == Collection {
		return plural
	}
	if last {
		return plural + "/:" + IDParam
	}
	return plural + "/:" + ParamName(resource)
}

// Build concatenates the parts of a chain. Every resource but the last contributes
// a member part; the last one contributes a part of the requested kind.
func Build(chain Chain, final Kind) (string, error) {
	if len(chain) == 0 {
		return "", ErrEmptyChain
	}

	var b strings.Builder
	for i, resource := range chain {
		if i < len(chain)-1 {
			b.WriteString(Part(resource, Member, false))
			continue
		}
		b.WriteString(Part(resource, final, true))
	}
	return b.String(), nil
}

// MustBuild is like Build but panics on an empty chain.
func MustBuild(chain Chain, final Kind) string {
	p, err := Build(chain, final)
	if err != nil {
		panic(err)
	}
	return p
}
