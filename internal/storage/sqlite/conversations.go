package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/askdocs/askdocs/internal/domain"
)

// EnsureChat creates the chat row if it does not exist yet.
func (s *Store) EnsureChat(ctx context.Context, chatID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chats (id, created_at) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`,
		chatID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("ensuring chat %s: %w", chatID, err)
	}
	return nil
}

// AppendMessage stores a message in a chat and fills in its ID and timestamp.
func (s *Store) AppendMessage(ctx context.Context, m *domain.Message) error {
	m.CreatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (chat_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		m.ChatID, m.Role, m.Content, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading message id: %w", err)
	}
	m.ID = id
	return nil
}

// ListMessages returns all messages of a chat in insertion order.
// An unknown chat yields ErrNotFound.
func (s *Store) ListMessages(ctx context.Context, chatID string) ([]domain.Message, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM chats WHERE id = ?`, chatID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking chat %s: %w", chatID, err)
	}
	if exists == 0 {
		return nil, domain.ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chat_id, role, content, created_at FROM messages WHERE chat_id = ? ORDER BY id`,
		chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("selecting messages: %w", err)
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	return msgs, nil
}

// RecentMessages returns up to limit latest messages of a chat, oldest first.
func (s *Store) RecentMessages(ctx context.Context, chatID string, limit int) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chat_id, role, content, created_at
		 FROM (SELECT * FROM messages WHERE chat_id = ? ORDER BY id DESC LIMIT ?)
		 ORDER BY id`,
		chatID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("selecting recent messages: %w", err)
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	return msgs, nil
}
