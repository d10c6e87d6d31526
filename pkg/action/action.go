// Package action defines the closed set of CRUD actions a generated resource exposes.
package action

import "fmt"

// Kind identifies one of the five generated CRUD actions.
type Kind int

const (
	// List returns the collection, filtered by the request parameters.
	List Kind = iota
	// Create inserts a new record.
	Create
	// FetchOne returns at most one record.
	FetchOne
	// Update patches an existing record identified by id.
	Update
	// Delete removes a record identified by id.
	Delete
)

// All returns every action kind in route registration order.
func All() []Kind {
	return []Kind{List, Create, FetchOne, Update, Delete}
}

// String returns the controller name of the action (index, create, get, update, delete).
func (k Kind) String() string {
	switch k {
	case List:
		return "index"
	case Create:
		return "create"
	case FetchOne:
		return "get"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// ServiceName returns the name of the service function bound to the action.
func (k Kind) ServiceName() string {
	if k == List {
		return "getAll"
	}
	return k.String()
}

// HasBody reports whether the action merges the request body into its parameters.
func (k Kind) HasBody() bool {
	return k == Create || k == Update
}

// Valid reports whether k is one of the five known kinds.
func (k Kind) Valid() bool {
	return k >= List && k <= Delete
}

// Parse returns the kind named by its service or controller name.
func Parse(name string) (Kind, bool) {
	for _, k := range All() {
		if name == k.ServiceName() || name == k.String() {
			return k, true
		}
	}
	return 0, false
}
