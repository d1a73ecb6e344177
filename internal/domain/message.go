package domain

import "time"

// Role tags a conversation message author.
type Role string

const (
	// RoleUser is a message written by the user.
	RoleUser Role = "user"
	// RoleAssistant is a message produced by the service.
	RoleAssistant Role = "assistant"
)

// Message is one persisted conversation entry.
type Message struct {
	ID        int64
	ChatID    string
	Role      Role
	Content   string
	CreatedAt time.Time
}

// ChatMessage is a role-tagged prompt message sent to the language model.
// Distinct from Message: it is ephemeral and carries no identity.
type ChatMessage struct {
	Role    string
	Content string
}
