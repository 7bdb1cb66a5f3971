package session

import "github.com/joescharf/codereview/internal/models"

// State is a point-in-time copy of a session for rendering.
type State struct {
	SessionID      string
	Code           string
	Language       string
	Report         *models.ReviewReport
	RefactoredCode string
	Chat           []models.ChatMessage
	Console        []models.ConsoleEntry

	Reviewing   bool
	Refactoring bool
	Chatting    bool
	LastOutcome map[Op]Outcome
}

// Busy reports whether any operation is in flight.
func (s State) Busy() bool {
	return s.Reviewing || s.Refactoring || s.Chatting
}
