package tool

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"opsdesk/internal/domain"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockTool struct {
	name   string
	schema json.RawMessage
}

func (m *mockTool) Name() string        { return m.name }
func (m *mockTool) Description() string { return "mock" }
func (m *mockTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{Name: m.name, Parameters: m.schema}
}
func (m *mockTool) Execute(context.Context, json.RawMessage) (*domain.ToolResult, error) {
	return &domain.ToolResult{Content: "ok"}, nil
}

func TestRegistryBasic(t *testing.T) {
	reg := NewRegistry(nil)
	if err := reg.Register(&mockTool{name: "test"}); err != nil {
		t.Fatal(err)
	}

	tool, err := reg.Get("test")
	if err != nil {
		t.Fatal(err)
	}
	if tool.Name() != "test" {
		t.Errorf("Name = %q, want %q", tool.Name(), "test")
	}

	schemas := reg.Schemas()
	if len(schemas) != 1 {
		t.Errorf("Schemas len = %d, want 1", len(schemas))
	}
}

func TestRegistryNotFound(t *testing.T) {
	reg := NewRegistry(nil)
	_, err := reg.Get("nonexistent")
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
	if !errors.Is(err, domain.ErrToolNotFound) {
		t.Errorf("error = %v, want ErrToolNotFound", err)
	}
}

func TestRegistryDuplicate(t *testing.T) {
	reg := NewRegistry(nil)
	if err := reg.Register(&mockTool{name: "dup"}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(&mockTool{name: "dup"}); err == nil {
		t.Fatal("expected error on duplicate registration")
	}
}

func TestRegistryWrapsWithSchemaValidation(t *testing.T) {
	reg := NewRegistry(newTestLogger())
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {"name": {"type": "string"}},
		"required": ["name"]
	}`)
	if err := reg.Register(&mockTool{name: "strict", schema: schema}); err != nil {
		t.Fatal(err)
	}

	tool, err := reg.Get("strict")
	if err != nil {
		t.Fatal(err)
	}

	res, err := tool.Execute(context.Background(), json.RawMessage(`{"wrong": 1}`))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected validation failure for missing required field")
	}
	if !strings.Contains(res.Content, "error") {
		t.Errorf("error content = %q, want {\"error\": ...} body", res.Content)
	}

	res, err = tool.Execute(context.Background(), json.RawMessage(`{"name": "ok"}`))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Errorf("valid params rejected: %s", res.Content)
	}
}

func TestRegistrySkipsValidationForEmptySchema(t *testing.T) {
	reg := NewRegistry(newTestLogger())
	if err := reg.Register(&mockTool{name: "open"}); err != nil {
		t.Fatal(err)
	}

	tool, err := reg.Get("open")
	if err != nil {
		t.Fatal(err)
	}
	if _, wrapped := tool.(*SchemaValidatingTool); wrapped {
		t.Error("tool without parameters should not be wrapped")
	}
}

func TestCatalogRegistersWithoutConflicts(t *testing.T) {
	reg := NewRegistry(newTestLogger())
	b := newMockBackend()
	for _, tl := range Catalog(b, newTestLogger()) {
		if err := reg.Register(tl); err != nil {
			t.Fatalf("register %s: %v", tl.Name(), err)
		}
	}
	if got := len(reg.Schemas()); got != 16 {
		t.Errorf("catalog size = %d, want 16", got)
	}
}
