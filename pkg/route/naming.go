package route

import (
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/jinzhu/inflection"
)

// Snake normalises camelCase, kebab-case and space separated names to snake_case.
func Snake(name string) string {
	return strcase.ToSnake(strings.TrimSpace(name))
}

// Plural returns the English plural of a singular resource name.
// Irregular nouns are handled (person -> people, child -> children).
func Plural(name string) string {
	return inflection.Plural(name)
}

// ParamName returns the path parameter name used for an intermediate resource,
// e.g. "blogPost" -> "blog_post_id".
func ParamName(resource string) string {
	return Snake(resource) + "_id"
}
