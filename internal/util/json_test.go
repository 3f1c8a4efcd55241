package util_test

import (
	"testing"

	"go.arcalot.io/assert"
	"go.flow.arcalot.io/nodegraph/internal/util"
)

func TestJSONDefault(t *testing.T) {
	assert.Equals(t, *util.JSONDefault("forward"), `"forward"`)
	assert.Equals(t, *util.JSONDefault(false), "false")
	assert.Equals(t, *util.JSONDefault(map[string]any{}), "{}")
}
