package analyzer

import (
	"context"

	"github.com/joescharf/codereview/internal/models"
)

// CodeInput is the code submitted for review or refactoring.
type CodeInput struct {
	Code     string
	Language string
}

// ChatInput is one chat exchange with the prior conversation for the session.
type ChatInput struct {
	SessionID string
	Message   string
	Code      string
	History   []*models.ChatTurn
}

// Backend produces reports, refactorings and chat replies.
type Backend interface {
	Name() string
	Review(ctx context.Context, in CodeInput) (*models.ReviewReport, error)
	Refactor(ctx context.Context, in CodeInput) (string, error)
	Chat(ctx context.Context, in ChatInput) (string, error)
}
