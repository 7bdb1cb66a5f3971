package models

import "time"

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// ChatMessage is one entry in a session's chat history.
// Content is untrusted text and must be escaped before rendering.
type ChatMessage struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatTurn is a chat message remembered server-side for a session.
type ChatTurn struct {
	ID        string
	SessionID string
	Role      Role
	Content   string
	CreatedAt time.Time
}
