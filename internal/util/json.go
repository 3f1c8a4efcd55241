// Package util holds small helpers shared by the schema definitions.
package util

import (
	"encoding/json"

	"go.arcalot.io/lang"
)

// JSONDefault returns the JSON encoding of value in the form schema property defaults expect. It panics if the value
// cannot be encoded, which only happens for programming errors.
func JSONDefault(value any) *string {
	encoded := string(lang.Must2(json.Marshal(value)))
	return &encoded
}
