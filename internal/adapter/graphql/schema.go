package graphql

import (
	_ "embed"
	"fmt"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// schemaSDL is the collaborator contract this client is written against.
//
//go:embed schema.graphql
var schemaSDL string

// validateOperations checks every operation document against the embedded
// schema. Called once at client construction.
func validateOperations() error {
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: schemaSDL})
	if err != nil {
		return fmt.Errorf("load collaborator schema: %w", err)
	}
	for _, doc := range operations {
		if _, errs := gqlparser.LoadQuery(schema, doc); len(errs) > 0 {
			return fmt.Errorf("operation does not match collaborator schema: %w", errs)
		}
	}
	return nil
}
