package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/tjfontaine/polyglot-agent/internal/domain"
)

// reflector inlines all definitions so tool schemas never contain $ref.
var reflector = &jsonschema.Reflector{
	DoNotReference: true,
}

// FromType builds a parameter schema from a Go type. The type should be a
// struct with json and jsonschema tags:
//
//	type ReadFileArgs struct {
//	    Path string `json:"path" jsonschema:"required,description=File to read"`
//	}
func FromType[T any]() (map[string]any, error) {
	var zero T
	raw, err := json.Marshal(reflector.Reflect(&zero))
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	return Sanitize(out), nil
}

// FunctionDeclarationFor builds a function declaration whose parameters are
// derived from T.
func FunctionDeclarationFor[T any](name, description string) (domain.FunctionDeclaration, error) {
	params, err := FromType[T]()
	if err != nil {
		return domain.FunctionDeclaration{}, fmt.Errorf("function %s: %w", name, err)
	}
	return domain.FunctionDeclaration{
		Name:        name,
		Description: description,
		Parameters:  params,
	}, nil
}
