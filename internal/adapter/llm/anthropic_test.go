package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"opsdesk/internal/domain"
	"opsdesk/internal/infra/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProvider(baseURL string) *AnthropicProvider {
	return NewAnthropicProvider(config.ProviderConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "claude-sonnet-4-20250514",
	}, testLogger())
}

func TestChatSendsHeadersAndMapsToolUse(t *testing.T) {
	var gotReq anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %q, want /v1/messages", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("x-api-key = %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Errorf("anthropic-version = %q", r.Header.Get("anthropic-version"))
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(anthropicResponse{
			ID:         "msg_1",
			Model:      "claude-sonnet-4-20250514",
			StopReason: "tool_use",
			Content: []anthropicContent{
				{Type: "text", Text: "Let me check."},
				{Type: "tool_use", ID: "toolu_1", Name: "get_inventory", Input: json.RawMessage(`{"search":"hoffman"}`)},
			},
			Usage: anthropicUsage{InputTokens: 1000, OutputTokens: 500},
		})
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	resp, err := p.Chat(context.Background(), domain.ChatRequest{
		System: "persona",
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: "any hoffman enclosures in stock?"},
		},
		Tools: []domain.ToolSchema{
			{Name: "get_inventory", Description: "search inventory", Parameters: json.RawMessage(`{"type":"object"}`)},
		},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if gotReq.System != "persona" {
		t.Errorf("system = %q, want persona", gotReq.System)
	}
	if len(gotReq.Tools) != 1 || gotReq.Tools[0].Name != "get_inventory" {
		t.Errorf("tools = %+v", gotReq.Tools)
	}
	if resp.StopReason != domain.StopToolUse {
		t.Errorf("StopReason = %q, want tool_use", resp.StopReason)
	}
	if len(resp.Message.ToolCalls) != 1 || resp.Message.ToolCalls[0].Name != "get_inventory" {
		t.Errorf("ToolCalls = %+v", resp.Message.ToolCalls)
	}
	if resp.Message.Content != "Let me check." {
		t.Errorf("Content = %q", resp.Message.Content)
	}
	if resp.Usage.InputTokens != 1000 || resp.Usage.OutputTokens != 500 {
		t.Errorf("Usage = %+v", resp.Usage)
	}
}

func TestChatGroupsToolResultsIntoOneUserMessage(t *testing.T) {
	var gotReq anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(anthropicResponse{
			ID:         "msg_2",
			Model:      "claude-sonnet-4-20250514",
			StopReason: "end_turn",
			Content:    []anthropicContent{{Type: "text", Text: "Found 2 items."}},
			Usage:      anthropicUsage{InputTokens: 200, OutputTokens: 20},
		})
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	_, err := p.Chat(context.Background(), domain.ChatRequest{
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: "check stock and jobs"},
			{
				Role:    domain.RoleAssistant,
				Content: "Checking.",
				ToolCalls: []domain.ToolCall{
					{ID: "toolu_1", Name: "get_inventory", Arguments: json.RawMessage(`{}`)},
					{ID: "toolu_2", Name: "get_jobs", Arguments: json.RawMessage(`{}`)},
				},
			},
			{
				Role: domain.RoleTool,
				ToolResults: []domain.ToolResult{
					{ToolCallID: "toolu_1", Content: `[{"id":1}]`},
					{ToolCallID: "toolu_2", Content: `{"error":"boom"}`, IsError: true},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if len(gotReq.Messages) != 3 {
		t.Fatalf("len(messages) = %d, want 3", len(gotReq.Messages))
	}

	asst := gotReq.Messages[1]
	if asst.Role != "assistant" || len(asst.Content) != 3 {
		t.Errorf("assistant message = %+v", asst)
	}

	results := gotReq.Messages[2]
	if results.Role != "user" {
		t.Errorf("tool results role = %q, want user", results.Role)
	}
	if len(results.Content) != 2 {
		t.Fatalf("tool_result blocks = %d, want 2", len(results.Content))
	}
	if results.Content[0].Type != "tool_result" || results.Content[0].ToolUseID != "toolu_1" {
		t.Errorf("first block = %+v", results.Content[0])
	}
	if !results.Content[1].IsError {
		t.Error("second block should carry is_error")
	}
}

func TestChatMapsRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"type":"rate_limit_error"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	_, err := p.Chat(context.Background(), domain.ChatRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	})
	if !errors.Is(err, domain.ErrRateLimit) {
		t.Errorf("err = %v, want ErrRateLimit", err)
	}
}

func TestChatUsesConfiguredModelWhenRequestOmitsIt(t *testing.T) {
	var gotReq anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(anthropicResponse{
			StopReason: "end_turn",
			Content:    []anthropicContent{{Type: "text", Text: "ok"}},
		})
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	if _, err := p.Chat(context.Background(), domain.ChatRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if gotReq.Model != "claude-sonnet-4-20250514" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if gotReq.MaxTokens != 4096 {
		t.Errorf("max_tokens = %d, want default 4096", gotReq.MaxTokens)
	}
}
