package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"opsdesk/internal/domain"
	"opsdesk/internal/infra/config"
	"opsdesk/internal/infra/middleware"
)

// ChatService handles one user message end to end.
type ChatService interface {
	HandleTurn(ctx context.Context, userID int64, conversationID, userMsg string) (*domain.TurnReply, error)
}

// ConversationStore reads and creates conversation threads.
type ConversationStore interface {
	CreateConversation(ctx context.Context, userID int64, title string) (*domain.Conversation, error)
	GetConversation(ctx context.Context, id string) (*domain.Conversation, error)
	ListConversations(ctx context.Context, userID int64) ([]domain.Conversation, error)
	ListMessages(ctx context.Context, conversationID string) ([]domain.ChatMessage, error)
}

// HTTPChannel exposes the assistant over an HTTP API. The caller's
// identity arrives in the X-User-ID header; authentication itself is a
// front-proxy concern.
type HTTPChannel struct {
	server *http.Server
	logger *slog.Logger
	cfg    config.HTTPConfig

	chat  ChatService
	store ConversationStore

	// Actual bound address (set after Start)
	boundAddr string

	// Lifecycle for the rate limiter cleanup goroutine
	ctx    context.Context
	cancel context.CancelFunc
}

type chatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Content        string `json:"content"`
}

type createConversationRequest struct {
	Title string `json:"title"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPChannel creates the HTTP API channel.
func NewHTTPChannel(cfg config.HTTPConfig, chat ChatService, store ConversationStore, logger *slog.Logger) *HTTPChannel {
	return &HTTPChannel{
		cfg:    cfg,
		chat:   chat,
		store:  store,
		logger: logger,
	}
}

// Start begins the HTTP server. Non-blocking (serves in a goroutine).
func (h *HTTPChannel) Start(ctx context.Context) error {
	h.ctx, h.cancel = context.WithCancel(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chat", h.handleChat)
	mux.HandleFunc("POST /api/v1/conversations", h.handleCreateConversation)
	mux.HandleFunc("GET /api/v1/conversations", h.handleListConversations)
	mux.HandleFunc("GET /api/v1/conversations/{id}/messages", h.handleListMessages)
	mux.HandleFunc("GET /api/v1/health", h.handleHealth)

	secureHandler := middleware.SecurityHeaders(
		middleware.RateLimit(h.ctx, h.cfg.RateLimitRPS, h.cfg.RateLimitBurst)(mux),
	)

	h.server = &http.Server{
		Addr:              h.cfg.Addr,
		Handler:           secureHandler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       h.cfg.ReadTimeout,
		WriteTimeout:      h.cfg.WriteTimeout,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	ln, err := net.Listen("tcp", h.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", h.cfg.Addr, err)
	}
	h.boundAddr = ln.Addr().String()

	go func() {
		h.logger.Info("http api started", "addr", h.boundAddr)
		if err := h.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			h.logger.Error("http server error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (h *HTTPChannel) Stop(ctx context.Context) error {
	if h.cancel != nil {
		h.cancel()
	}
	if h.server == nil {
		return nil
	}
	return h.server.Shutdown(ctx)
}

// Addr returns the bound listen address once Start has succeeded.
func (h *HTTPChannel) Addr() string { return h.boundAddr }

func (h *HTTPChannel) handleChat(w http.ResponseWriter, r *http.Request) {
	// 1MB cap keeps a single chat request from holding the server
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		msg := "invalid JSON: " + err.Error()
		if err.Error() == "http: request body too large" {
			msg = "request body too large (max 1MB)"
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "content is required"})
		return
	}

	userID := userIDFrom(r)
	reply, err := h.chat.HandleTurn(r.Context(), userID, req.ConversationID, req.Content)
	if err != nil {
		h.logger.Error("chat turn failed", "user_id", userID, "error", err)
		writeJSON(w, statusFor(err), errorResponse{Error: "Error: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (h *HTTPChannel) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	if userID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "X-User-ID header is required"})
		return
	}

	var req createConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}
	if req.Title == "" {
		req.Title = "New conversation"
	}

	conv, err := h.store.CreateConversation(r.Context(), userID, req.Title)
	if err != nil {
		h.logger.Error("conversation create failed", "user_id", userID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

func (h *HTTPChannel) handleListConversations(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	if userID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "X-User-ID header is required"})
		return
	}

	convs, err := h.store.ListConversations(r.Context(), userID)
	if err != nil {
		h.logger.Error("conversation list failed", "user_id", userID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	writeJSON(w, http.StatusOK, convs)
}

func (h *HTTPChannel) handleListMessages(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	id := r.PathValue("id")

	conv, err := h.store.GetConversation(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "conversation not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if conv.OwnerID != userID {
		// Same response as a miss so ids cannot be probed.
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "conversation not found"})
		return
	}

	msgs, err := h.store.ListMessages(r.Context(), id)
	if err != nil {
		h.logger.Error("message list failed", "conversation_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if msgs == nil {
		msgs = []domain.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *HTTPChannel) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// userIDFrom reads the caller identity header; 0 means anonymous.
func userIDFrom(r *http.Request) int64 {
	v := r.Header.Get("X-User-ID")
	if v == "" {
		return 0
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// statusFor maps turn-level failures to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrRateLimit):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrAuthInvalid):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
