package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"opsdesk/internal/domain"
)

// CreateConversation creates a new conversation owned by userID and returns
// it. Conversation ids are ULIDs so they sort by creation time.
func (s *Store) CreateConversation(ctx context.Context, userID int64, title string) (*domain.Conversation, error) {
	conv := &domain.Conversation{
		ID:        ulid.Make().String(),
		OwnerID:   userID,
		Title:     title,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ai_conversations (id, user_id, title, created_at)
		VALUES (?, ?, ?, ?)`,
		conv.ID, conv.OwnerID, conv.Title, formatTime(conv.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("%w: create conversation: %v", domain.ErrStoreFailure, err)
	}
	return conv, nil
}

// GetConversation returns a conversation by id.
func (s *Store) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	var conv domain.Conversation
	var created string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, title, created_at FROM ai_conversations WHERE id = ?", id).
		Scan(&conv.ID, &conv.OwnerID, &conv.Title, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: conversation %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get conversation: %v", domain.ErrStoreFailure, err)
	}
	conv.CreatedAt = parseTime(created)
	return &conv, nil
}

// ListConversations returns the conversations owned by userID, newest first.
func (s *Store) ListConversations(ctx context.Context, userID int64) ([]domain.Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, created_at FROM ai_conversations
		WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list conversations: %v", domain.ErrStoreFailure, err)
	}
	defer rows.Close()

	var convs []domain.Conversation
	for rows.Next() {
		var conv domain.Conversation
		var created string
		if err := rows.Scan(&conv.ID, &conv.OwnerID, &conv.Title, &created); err != nil {
			return nil, fmt.Errorf("%w: scan conversation: %v", domain.ErrStoreFailure, err)
		}
		conv.CreatedAt = parseTime(created)
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

// ListAllConversations returns every conversation with its owner's
// username, newest first. Admin view.
func (s *Store) ListAllConversations(ctx context.Context) ([]domain.Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.user_id, c.title, c.created_at, COALESCE(u.username, '')
		FROM ai_conversations c
		LEFT JOIN users u ON u.id = c.user_id
		ORDER BY c.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: list all conversations: %v", domain.ErrStoreFailure, err)
	}
	defer rows.Close()

	var convs []domain.Conversation
	for rows.Next() {
		var conv domain.Conversation
		var created string
		if err := rows.Scan(&conv.ID, &conv.OwnerID, &conv.Title, &created, &conv.OwnerName); err != nil {
			return nil, fmt.Errorf("%w: scan conversation: %v", domain.ErrStoreFailure, err)
		}
		conv.CreatedAt = parseTime(created)
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

// AppendMessage appends one transcript row to a conversation.
func (s *Store) AppendMessage(ctx context.Context, conversationID, role, content string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ai_messages (conversation_id, role, content, created_at)
		VALUES (?, ?, ?, ?)`,
		conversationID, role, content, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("%w: append message: %v", domain.ErrStoreFailure, err)
	}
	return nil
}

// ListMessages returns a conversation's transcript in insertion order.
func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]domain.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, created_at FROM ai_messages
		WHERE conversation_id = ? ORDER BY id ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: list messages: %v", domain.ErrStoreFailure, err)
	}
	defer rows.Close()

	var msgs []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		var created string
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &created); err != nil {
			return nil, fmt.Errorf("%w: scan message: %v", domain.ErrStoreFailure, err)
		}
		m.CreatedAt = parseTime(created)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
