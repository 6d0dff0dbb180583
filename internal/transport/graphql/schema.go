// Package graphql serves the dictionary over GraphQL. The schema is parsed
// and queries are validated with gqlparser; execution walks the selection
// sets with the gqlgen runtime and resolves every field against the
// dictionary service.
package graphql

import (
	_ "embed"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

//go:embed schema.graphqls
var schemaSDL string

// Schema returns the parsed dictionary schema.
func Schema() *ast.Schema { return schema }

var schema = gqlparser.MustLoadSchema(&ast.Source{Name: "schema.graphqls", Input: schemaSDL})
