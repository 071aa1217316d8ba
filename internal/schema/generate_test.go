package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readFileArgs struct {
	Path   string `json:"path" jsonschema:"required,description=File to read"`
	Offset int    `json:"offset,omitempty"`
}

func TestFunctionDeclarationFor(t *testing.T) {
	decl, err := FunctionDeclarationFor[readFileArgs]("read_file", "Read a file")
	require.NoError(t, err)

	assert.Equal(t, "read_file", decl.Name)
	assert.Equal(t, "Read a file", decl.Description)
	assert.Equal(t, "object", decl.Parameters["type"])
	assert.NotContains(t, decl.Parameters, "$schema")

	props, ok := decl.Parameters["properties"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "string", props["path"].(map[string]any)["type"])
	assert.Equal(t, "integer", props["offset"].(map[string]any)["type"])
	assert.Contains(t, decl.Parameters["required"], "path")
}
