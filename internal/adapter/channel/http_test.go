package channel

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"opsdesk/internal/domain"
	"opsdesk/internal/infra/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubChat struct {
	reply  *domain.TurnReply
	err    error
	userID int64
	convID string
	msg    string
}

func (s *stubChat) HandleTurn(_ context.Context, userID int64, conversationID, userMsg string) (*domain.TurnReply, error) {
	s.userID = userID
	s.convID = conversationID
	s.msg = userMsg
	if s.err != nil {
		return nil, s.err
	}
	return s.reply, nil
}

type stubStore struct {
	conversations map[string]domain.Conversation
	messages      map[string][]domain.ChatMessage
}

func newStubStore() *stubStore {
	return &stubStore{
		conversations: make(map[string]domain.Conversation),
		messages:      make(map[string][]domain.ChatMessage),
	}
}

func (s *stubStore) CreateConversation(_ context.Context, userID int64, title string) (*domain.Conversation, error) {
	conv := domain.Conversation{ID: "conv-1", OwnerID: userID, Title: title, CreatedAt: time.Now()}
	s.conversations[conv.ID] = conv
	return &conv, nil
}

func (s *stubStore) GetConversation(_ context.Context, id string) (*domain.Conversation, error) {
	conv, ok := s.conversations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &conv, nil
}

func (s *stubStore) ListConversations(_ context.Context, userID int64) ([]domain.Conversation, error) {
	var out []domain.Conversation
	for _, c := range s.conversations {
		if c.OwnerID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubStore) ListMessages(_ context.Context, conversationID string) ([]domain.ChatMessage, error) {
	return s.messages[conversationID], nil
}

func newTestChannel(chat ChatService, store ConversationStore) *HTTPChannel {
	return NewHTTPChannel(config.HTTPConfig{Addr: "127.0.0.1:0"}, chat, store, testLogger())
}

func TestHandleChat(t *testing.T) {
	chat := &stubChat{reply: &domain.TurnReply{
		Role:           domain.RoleAssistant,
		Content:        "Found 2 jobs.",
		CostUSD:        0.0105,
		ConversationID: "conv-1",
	}}
	h := newTestChannel(chat, newStubStore())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat",
		strings.NewReader(`{"content": "show me open jobs"}`))
	req.Header.Set("X-User-ID", "7")
	rec := httptest.NewRecorder()
	h.handleChat(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var reply domain.TurnReply
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatal(err)
	}
	if reply.Content != "Found 2 jobs." || reply.ConversationID != "conv-1" {
		t.Errorf("reply = %+v", reply)
	}
	if chat.userID != 7 {
		t.Errorf("userID = %d, want 7", chat.userID)
	}
	if chat.msg != "show me open jobs" {
		t.Errorf("msg = %q", chat.msg)
	}
}

func TestHandleChatRequiresContent(t *testing.T) {
	h := newTestChannel(&stubChat{}, newStubStore())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.handleChat(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "content is required") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHandleChatTurnFailure(t *testing.T) {
	chat := &stubChat{err: domain.NewDomainError("Orchestrator.HandleTurn", domain.ErrProviderError, "model call")}
	h := newTestChannel(chat, newStubStore())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat",
		strings.NewReader(`{"content": "hi"}`))
	rec := httptest.NewRecorder()
	h.handleChat(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(body.Error, "Error: ") {
		t.Errorf("error = %q, want Error: prefix", body.Error)
	}
}

func TestHandleChatRateLimitStatus(t *testing.T) {
	chat := &stubChat{err: domain.ErrRateLimit}
	h := newTestChannel(chat, newStubStore())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat",
		strings.NewReader(`{"content": "hi"}`))
	rec := httptest.NewRecorder()
	h.handleChat(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}

func TestCreateConversationRequiresIdentity(t *testing.T) {
	h := newTestChannel(&stubChat{}, newStubStore())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations",
		strings.NewReader(`{"title": "Panel retrofit"}`))
	rec := httptest.NewRecorder()
	h.handleCreateConversation(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCreateAndListConversations(t *testing.T) {
	store := newStubStore()
	h := newTestChannel(&stubChat{}, store)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations",
		strings.NewReader(`{"title": "Panel retrofit"}`))
	req.Header.Set("X-User-ID", "7")
	rec := httptest.NewRecorder()
	h.handleCreateConversation(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/conversations", nil)
	req.Header.Set("X-User-ID", "7")
	rec = httptest.NewRecorder()
	h.handleListConversations(rec, req)

	var convs []domain.Conversation
	if err := json.Unmarshal(rec.Body.Bytes(), &convs); err != nil {
		t.Fatal(err)
	}
	if len(convs) != 1 || convs[0].Title != "Panel retrofit" {
		t.Errorf("conversations = %+v", convs)
	}
}

func TestListMessagesOwnershipCheck(t *testing.T) {
	store := newStubStore()
	store.conversations["conv-1"] = domain.Conversation{ID: "conv-1", OwnerID: 7}
	store.messages["conv-1"] = []domain.ChatMessage{
		{ID: 1, ConversationID: "conv-1", Role: domain.RoleUser, Content: "hi"},
	}
	h := newTestChannel(&stubChat{}, store)

	// Owner sees the messages.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/conv-1/messages", nil)
	req.SetPathValue("id", "conv-1")
	req.Header.Set("X-User-ID", "7")
	rec := httptest.NewRecorder()
	h.handleListMessages(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner status = %d", rec.Code)
	}

	// Another user gets the same response as a miss.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/conversations/conv-1/messages", nil)
	req.SetPathValue("id", "conv-1")
	req.Header.Set("X-User-ID", "8")
	rec = httptest.NewRecorder()
	h.handleListMessages(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("non-owner status = %d, want 404", rec.Code)
	}
}

func TestStartAndServe(t *testing.T) {
	chat := &stubChat{reply: &domain.TurnReply{Role: domain.RoleAssistant, Content: "ok"}}
	h := NewHTTPChannel(config.HTTPConfig{
		Addr:           "127.0.0.1:0",
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		RateLimitRPS:   100,
		RateLimitBurst: 20,
	}, chat, newStubStore(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := h.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer h.Stop(context.Background())

	resp, err := http.Get("http://" + h.Addr() + "/api/v1/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, security middleware not applied", got)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		t.Fatal("context cancelled early")
	}
}
