package store

import (
	"context"

	"github.com/joescharf/codereview/internal/models"
)

// Store defines the chat memory the gateway keeps per session.
type Store interface {
	// Chat turns
	AppendChatTurns(ctx context.Context, turns ...*models.ChatTurn) error
	ListChatTurns(ctx context.Context, sessionID string, limit int) ([]*models.ChatTurn, error)
	TrimChatTurns(ctx context.Context, sessionID string, keep int) (int64, error)
	CountSessions(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
