package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/trace"

	"opsdesk/internal/domain"
	"opsdesk/internal/infra/tracer"
)

// maxToolRounds bounds tool round-trips per user message. The turn
// design allows exactly one: model call, tool execution, resubmission.
// If the resubmission requests tools again the orchestrator falls back
// to the response's text instead of looping.
const maxToolRounds = 1

// roundLimitNotice is returned when the post-tool response requests
// more tool use but carries no text to fall back to.
const roundLimitNotice = "I could not finish that request in a single step. Please break it into smaller requests."

// unknownToolContent answers tool calls whose name is not in the
// registry. The model reads it like any other tool failure.
const unknownToolContent = `{"error": "Unknown tool"}`

const maxTitleLen = 80

// TranscriptStore persists conversations and their messages.
type TranscriptStore interface {
	CreateConversation(ctx context.Context, userID int64, title string) (*domain.Conversation, error)
	AppendMessage(ctx context.Context, conversationID, role, content string) error
	ListMessages(ctx context.Context, conversationID string) ([]domain.ChatMessage, error)
}

// IdentityStore resolves the requesting user for the system prompt.
type IdentityStore interface {
	GetTeamMember(ctx context.Context, id int64) (*domain.TeamMember, error)
}

// OrchestratorDeps holds injected dependencies for the orchestrator.
type OrchestratorDeps struct {
	LLM        domain.LLMProvider
	Tools      domain.ToolExecutor
	Transcript TranscriptStore // optional, nil = no persistence
	Identity   IdentityStore   // optional, nil = no identity suffix
	Ledger     *Ledger
	Logger     *slog.Logger
	Persona    string
	MaxTokens  int
	Timeout    time.Duration // optional, 0 = no per-turn deadline
}

// Orchestrator drives one user message through the model, the tool
// catalog, and back: compose, invoke, execute tools, resubmit, persist.
type Orchestrator struct {
	deps OrchestratorDeps
}

// NewOrchestrator creates an orchestrator with the given dependencies.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

// HandleTurn processes a single user message and returns the assistant
// reply with the turn's total cost. conversationID may be empty; a new
// conversation is created when the user is known. Transcript and ledger
// persistence failures are logged and swallowed; only model-call and
// history-load failures fail the turn.
func (o *Orchestrator) HandleTurn(ctx context.Context, userID int64, conversationID, userMsg string) (*domain.TurnReply, error) {
	if o.deps.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.deps.Timeout)
		defer cancel()
	}

	ctx, span := tracer.StartSpan(ctx, "orchestrator.handle_turn")
	defer span.End()

	history, err := o.loadHistory(ctx, conversationID)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	messages := append(history, domain.Message{
		Role:      domain.RoleUser,
		Content:   userMsg,
		Timestamp: time.Now(),
	})

	schemas := o.deps.Tools.Schemas()
	var totalCost float64

	resp, err := o.deps.LLM.Chat(ctx, domain.ChatRequest{
		System:    o.systemPrompt(ctx, userID),
		Messages:  messages,
		Tools:     schemas,
		MaxTokens: o.deps.MaxTokens,
	})
	if err != nil {
		tracer.RecordError(span, err)
		return nil, domain.NewDomainError("Orchestrator.HandleTurn", err, "model call")
	}
	totalCost += o.deps.Ledger.Record(ctx, userID, resp.Model, resp.Usage)

	final := resp
	for round := 0; round < maxToolRounds && final.StopReason == domain.StopToolUse && len(final.Message.ToolCalls) > 0; round++ {
		results := o.executeToolCalls(ctx, final.Message.ToolCalls)

		messages = append(messages, final.Message, domain.Message{
			Role:        domain.RoleTool,
			ToolResults: results,
			Timestamp:   time.Now(),
		})

		// The resubmission strips the identity suffix so it is not
		// sent to the model twice.
		final, err = o.deps.LLM.Chat(ctx, domain.ChatRequest{
			System:    o.deps.Persona,
			Messages:  messages,
			Tools:     schemas,
			MaxTokens: o.deps.MaxTokens,
		})
		if err != nil {
			tracer.RecordError(span, err)
			return nil, domain.NewDomainError("Orchestrator.HandleTurn", err, "resubmission")
		}
		totalCost += o.deps.Ledger.Record(ctx, userID, final.Model, final.Usage)
	}

	content := final.Message.Content
	if final.StopReason == domain.StopToolUse {
		o.deps.Logger.Warn("tool round limit reached, replying with available text",
			"conversation_id", conversationID,
			"pending_tool_calls", len(final.Message.ToolCalls))
		if content == "" {
			content = roundLimitNotice
		}
	}

	conversationID = o.persistTurn(ctx, userID, conversationID, userMsg, content)

	tracer.SetOK(span)
	return &domain.TurnReply{
		Role:           domain.RoleAssistant,
		Content:        content,
		CostUSD:        totalCost,
		ConversationID: conversationID,
	}, nil
}

// systemPrompt is the fixed persona plus a live identity fact for the
// requesting user, when one can be resolved.
func (o *Orchestrator) systemPrompt(ctx context.Context, userID int64) string {
	if o.deps.Identity == nil || userID <= 0 {
		return o.deps.Persona
	}
	member, err := o.deps.Identity.GetTeamMember(ctx, userID)
	if err != nil {
		o.deps.Logger.Debug("identity lookup failed", "user_id", userID, "error", err)
		return o.deps.Persona
	}
	return fmt.Sprintf("%s You are assisting %s (user id %d).", o.deps.Persona, member.Username, member.ID)
}

// executeToolCalls runs every tool call of one model response. Calls
// run in parallel; results are collected by index so they answer the
// calls in their original order.
func (o *Orchestrator) executeToolCalls(ctx context.Context, calls []domain.ToolCall) []domain.ToolResult {
	results := make([]domain.ToolResult, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(idx int, c domain.ToolCall) {
			defer wg.Done()
			results[idx] = o.executeToolCall(ctx, c)
		}(i, call)
	}
	wg.Wait()
	return results
}

// executeToolCall dispatches a single call. Lookup misses and handler
// failures both come back as error-flagged results; nothing here can
// fail the turn.
func (o *Orchestrator) executeToolCall(ctx context.Context, call domain.ToolCall) domain.ToolResult {
	ctx, span := tracer.StartSpan(ctx, "orchestrator.execute_tool",
		trace.WithAttributes(tracer.StringAttr("tool.name", call.Name)),
	)
	defer span.End()

	tl, err := o.deps.Tools.Get(call.Name)
	if err != nil {
		tracer.RecordError(span, err)
		o.deps.Logger.Warn("unknown tool requested", "tool", call.Name)
		return domain.ToolResult{
			ToolCallID: call.ID,
			Content:    unknownToolContent,
			IsError:    true,
		}
	}

	result, err := tl.Execute(ctx, call.Arguments)
	if err != nil {
		// Tools format their own failures; reaching this branch means
		// the middleware itself broke.
		tracer.RecordError(span, err)
		o.deps.Logger.Error("tool returned a transport error", "tool", call.Name, "error", err)
		return domain.ToolResult{
			ToolCallID: call.ID,
			Content:    fmt.Sprintf(`{"error": %q}`, err.Error()),
			IsError:    true,
		}
	}

	tracer.SetOK(span)
	result.ToolCallID = call.ID
	return *result
}

// loadHistory returns the prior turns of a conversation as model
// messages. An empty id yields an empty history.
func (o *Orchestrator) loadHistory(ctx context.Context, conversationID string) ([]domain.Message, error) {
	if conversationID == "" || o.deps.Transcript == nil {
		return nil, nil
	}
	rows, err := o.deps.Transcript.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, domain.NewDomainError("Orchestrator.HandleTurn", err, "load history")
	}
	history := make([]domain.Message, 0, len(rows))
	for _, row := range rows {
		history = append(history, domain.Message{
			Role:      row.Role,
			Content:   row.Content,
			Timestamp: row.CreatedAt,
		})
	}
	return history, nil
}

// persistTurn appends the user message and the final reply to the
// transcript, creating the conversation first when the caller supplied
// no id and the user is known. Failures are logged and swallowed; the
// reply already in hand is always returned to the caller.
func (o *Orchestrator) persistTurn(ctx context.Context, userID int64, conversationID, userMsg, reply string) string {
	if o.deps.Transcript == nil {
		return conversationID
	}
	if conversationID == "" {
		if userID <= 0 {
			return ""
		}
		conv, err := o.deps.Transcript.CreateConversation(ctx, userID, deriveTitle(userMsg))
		if err != nil {
			o.deps.Logger.Warn("conversation not created", "user_id", userID, "error", err)
			return ""
		}
		conversationID = conv.ID
	}
	if err := o.deps.Transcript.AppendMessage(ctx, conversationID, domain.RoleUser, userMsg); err != nil {
		o.deps.Logger.Warn("user message not persisted", "conversation_id", conversationID, "error", err)
	}
	if err := o.deps.Transcript.AppendMessage(ctx, conversationID, domain.RoleAssistant, reply); err != nil {
		o.deps.Logger.Warn("assistant reply not persisted", "conversation_id", conversationID, "error", err)
	}
	return conversationID
}

// deriveTitle builds a conversation title from the first user message.
// Truncation lands on a rune boundary so the title stays valid UTF-8.
func deriveTitle(userMsg string) string {
	title := userMsg
	if len(title) > maxTitleLen {
		cut := maxTitleLen
		for cut > 0 && !utf8.RuneStart(title[cut]) {
			cut--
		}
		title = title[:cut]
	}
	if title == "" {
		title = "New conversation"
	}
	return title
}
