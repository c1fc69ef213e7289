package domain

import "time"

// Conversation is a persisted, titled message thread owned by one user.
type Conversation struct {
	ID        string    `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`

	// OwnerName is populated by admin-facing listings that join the
	// user directory; empty otherwise.
	OwnerName string `json:"owner_name,omitempty"`
}

// ChatMessage is one persisted transcript row. Append-only: this
// subsystem never mutates or deletes transcript rows.
type ChatMessage struct {
	ID             int64     `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// UsageRecord is one row per model call (a tool-use round trip
// produces two).
type UsageRecord struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Model        string    `json:"model"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	CostUSD      float64   `json:"cost_usd"`
	CreatedAt    time.Time `json:"created_at"`
}

// TurnReply is the caller-facing result of one complete
// user-message-to-assistant-reply cycle.
type TurnReply struct {
	Role           string  `json:"role"`
	Content        string  `json:"content"`
	CostUSD        float64 `json:"cost_usd"`
	ConversationID string  `json:"conversation_id,omitempty"`
}
