package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"opsdesk/internal/domain"
)

// SchemaValidatingTool wraps a tool and validates call parameters against
// the tool's declared JSON schema before execution. Invalid parameters
// produce an error result rather than reaching the handler.
type SchemaValidatingTool struct {
	inner  domain.Tool
	schema *jsonschema.Schema
}

// WithSchemaValidation wraps a tool with parameter validation. Tools that
// declare no parameters are returned unwrapped.
func WithSchemaValidation(t domain.Tool) (domain.Tool, error) {
	raw := t.Schema().Parameters
	if len(raw) == 0 || string(raw) == "null" {
		return t, nil
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(string(raw))); err != nil {
		return nil, fmt.Errorf("add schema for %s: %w", t.Name(), err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema for %s: %w", t.Name(), err)
	}

	return &SchemaValidatingTool{inner: t, schema: schema}, nil
}

func (s *SchemaValidatingTool) Name() string              { return s.inner.Name() }
func (s *SchemaValidatingTool) Description() string       { return s.inner.Description() }
func (s *SchemaValidatingTool) Schema() domain.ToolSchema { return s.inner.Schema() }

func (s *SchemaValidatingTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	if len(params) > 0 {
		var v any
		if err := json.Unmarshal(params, &v); err != nil {
			return ErrResult("invalid params: %v", err)
		}
		if err := s.schema.Validate(v); err != nil {
			return ErrResult("invalid params: %v", err)
		}
	}
	return s.inner.Execute(ctx, params)
}
