package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joescharf/codereview/internal/analyzer"
	"github.com/joescharf/codereview/internal/models"
	"github.com/joescharf/codereview/internal/report"
	"github.com/joescharf/codereview/internal/store"
)

const (
	// MaxCodeLength bounds the code sent to a review or refactor.
	MaxCodeLength = 8000
	// MaxChatCodeLength bounds the code context attached to a chat message.
	MaxChatCodeLength = 4000
	// ChatMemory is how many turns a session remembers.
	ChatMemory = 10

	defaultSessionID = "default"
	emptyChatReply   = "I couldn't generate a response."
)

var (
	ErrMissingCode    = errors.New("code is required")
	ErrMissingMessage = errors.New("message is required")
)

// Service enforces request preconditions and dispatches to an analysis backend.
type Service struct {
	backend analyzer.Backend
	store   store.Store
	logger  *slog.Logger
}

// NewService creates a review service. The store holds chat memory.
func NewService(b analyzer.Backend, s store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: b, store: s, logger: logger}
}

// Backend returns the name of the analysis backend in use.
func (s *Service) Backend() string {
	return s.backend.Name()
}

// Review analyzes code and returns a normalized report.
func (s *Service) Review(ctx context.Context, code, language string) (*models.ReviewReport, error) {
	in, err := s.codeInput(code, language, MaxCodeLength)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	r, err := s.backend.Review(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("review failed: %w", err)
	}
	if r == nil {
		return nil, errors.New("review failed: backend returned no report")
	}

	for _, w := range report.Normalize(r) {
		s.logger.Warn("report normalized", "backend", s.backend.Name(), "warning", w.Error())
	}
	if r.Context.Language == "" {
		r.Context.Language = in.Language
	}

	s.logger.Info("review complete",
		"backend", s.backend.Name(),
		"language", in.Language,
		"issues", len(r.Issues),
		"health_score", r.HealthScore,
		"duration", time.Since(start),
	)
	return r, nil
}

// Refactor returns improved code. The result is never empty: when the
// backend produces nothing the trimmed input comes back unchanged.
func (s *Service) Refactor(ctx context.Context, code, language string) (string, error) {
	in, err := s.codeInput(code, language, MaxCodeLength)
	if err != nil {
		return "", err
	}

	out, err := s.backend.Refactor(ctx, in)
	if err != nil {
		return "", fmt.Errorf("refactor failed: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		s.logger.Warn("empty refactor result, returning input", "backend", s.backend.Name())
		out = in.Code
	}
	return out, nil
}

// Chat answers a message within a session, remembering the last ChatMemory
// turns of that session.
func (s *Service) Chat(ctx context.Context, sessionID, message, code string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrMissingMessage
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = defaultSessionID
	}

	history, err := s.store.ListChatTurns(ctx, sessionID, ChatMemory)
	if err != nil {
		return "", fmt.Errorf("load chat history: %w", err)
	}

	reply, err := s.backend.Chat(ctx, analyzer.ChatInput{
		SessionID: sessionID,
		Message:   message,
		Code:      truncate(strings.TrimSpace(code), MaxChatCodeLength),
		History:   history,
	})
	if err != nil {
		return "", fmt.Errorf("chat failed: %w", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = emptyChatReply
	}

	if err := s.remember(ctx, sessionID, message, reply); err != nil {
		// the reply is still good; memory is best effort
		s.logger.Error("save chat turns", "session_id", sessionID, "error", err)
	}
	return reply, nil
}

// History returns the remembered turns of a session, oldest first.
func (s *Service) History(ctx context.Context, sessionID string) ([]*models.ChatTurn, error) {
	return s.store.ListChatTurns(ctx, sessionID, ChatMemory)
}

func (s *Service) remember(ctx context.Context, sessionID, message, reply string) error {
	now := time.Now().UTC()
	err := s.store.AppendChatTurns(ctx,
		&models.ChatTurn{SessionID: sessionID, Role: models.RoleUser, Content: message, CreatedAt: now},
		&models.ChatTurn{SessionID: sessionID, Role: models.RoleAgent, Content: reply, CreatedAt: now},
	)
	if err != nil {
		return err
	}
	_, err = s.store.TrimChatTurns(ctx, sessionID, ChatMemory)
	return err
}

func (s *Service) codeInput(code, language string, limit int) (analyzer.CodeInput, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return analyzer.CodeInput{}, ErrMissingCode
	}
	code = truncate(code, limit)

	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		language = analyzer.DetectLanguage(code)
	}
	return analyzer.CodeInput{Code: code, Language: language}, nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
