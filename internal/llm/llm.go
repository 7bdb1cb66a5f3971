package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/joescharf/codereview/internal/analyzer"
	"github.com/joescharf/codereview/internal/models"
	"github.com/joescharf/codereview/internal/redact"
	"github.com/joescharf/codereview/internal/report"
)

const (
	maxTokensReview = 2048
	maxTokensChat   = 1024
	maxFallbackDesc = 500
)

// Client wraps the Anthropic API as an analyzer.Backend.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

var _ analyzer.Backend = (*Client)(nil)

// NewClient creates an LLM client with the given API key and model.
func NewClient(apiKey, model string, opts ...option.RequestOption) *Client {
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

func (c *Client) Name() string { return "anthropic" }

// buildReviewPrompt constructs the system and user prompts for a review.
func buildReviewPrompt(code, language string) (system string, user string) {
	system = `You are a code reviewer. Given code, respond with a short JSON object only (no markdown, no extra text) with this shape:
{
  "health_score": <integer 0-100>,
  "summary": { "critical": 0, "high": 0, "medium": 0, "low": 0, "by_category": { "bugs": 0, "security": 0, "performance": 0, "style": 0 } },
  "context": { "language": "<lang>", "purpose": "<brief purpose or N/A>" },
  "issues": [ { "severity": "critical|high|medium|low|info", "category": "bugs|security|performance|style", "type": "<short label>", "line": <1-based line or null>, "description": "...", "suggestion": "..." } ],
  "refactored_code": "<improved code or null>"
}
Review for bugs, security, performance, and style. Keep the issues list short (1-5 items). Every issue needs a non-empty description and suggestion.`

	user = codePrompt(code, language)
	return
}

// buildRefactorPrompt constructs the system and user prompts for a refactor.
func buildRefactorPrompt(code, language string) (system string, user string) {
	system = `You are a code refactoring assistant. Given code, return a JSON object only (no markdown, no extra text) with this exact shape:
{"refactored_code": "<the improved/refactored code as a single string>"}
Improve the code: fix issues, clarify names, simplify logic, follow best practices. Keep the same behavior. Escape newlines in the string as \n and quotes as \" so the JSON is valid.`

	user = codePrompt(code, language)
	return
}

const chatSystemPrompt = "You are a helpful code review assistant. Answer the user's question concisely. If they shared code context, use it to give relevant advice. Remember the conversation so far."

// buildChatUserPrompt wraps the message with optional code context.
func buildChatUserPrompt(message, code string) string {
	var sb strings.Builder
	sb.WriteString("User: ")
	sb.WriteString(message)
	if code != "" {
		sb.WriteString("\n\nCode context:\n```\n")
		sb.WriteString(redact.Secrets(code))
		sb.WriteString("\n```")
	}
	return sb.String()
}

func codePrompt(code, language string) string {
	var sb strings.Builder
	sb.WriteString("Language: ")
	sb.WriteString(language)
	sb.WriteString("\n\nCode:\n```\n")
	sb.WriteString(redact.Secrets(code))
	sb.WriteString("\n```")
	return sb.String()
}

// Review asks the model for a report. A reply that is not a valid report
// degrades to a single info issue carrying the raw reply.
func (c *Client) Review(ctx context.Context, in analyzer.CodeInput) (*models.ReviewReport, error) {
	systemPrompt, userPrompt := buildReviewPrompt(in.Code, in.Language)

	text, err := c.complete(ctx, systemPrompt, []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
	}, maxTokensReview)
	if err != nil {
		return nil, err
	}

	return parseReview(text, in.Language), nil
}

// Refactor asks the model for improved code.
func (c *Client) Refactor(ctx context.Context, in analyzer.CodeInput) (string, error) {
	systemPrompt, userPrompt := buildRefactorPrompt(in.Code, in.Language)

	text, err := c.complete(ctx, systemPrompt, []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
	}, maxTokensReview)
	if err != nil {
		return "", err
	}

	return parseRefactor(text)
}

// Chat sends the session's remembered turns followed by the new message.
func (c *Client) Chat(ctx context.Context, in analyzer.ChatInput) (string, error) {
	return c.complete(ctx, chatSystemPrompt, chatMessages(in), maxTokensChat)
}

// chatMessages converts history into alternating user/assistant messages.
func chatMessages(in analyzer.ChatInput) []anthropic.MessageParam {
	var msgs []anthropic.MessageParam
	for _, t := range in.History {
		switch t.Role {
		case models.RoleUser:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Content)))
		case models.RoleAgent:
			// the API requires the first message to come from the user
			if len(msgs) == 0 {
				continue
			}
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Content)))
		}
	}
	msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(buildChatUserPrompt(in.Message, in.Code))))
	return msgs
}

func (c *Client) complete(ctx context.Context, system string, msgs []anthropic.MessageParam, maxTokens int64) (string, error) {
	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(0),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: msgs,
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call: %w", err)
	}

	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			return strings.TrimSpace(block.Text), nil
		}
	}
	return "", errors.New("no text content in API response")
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.SplitN(text, "\n", 2)
		if len(lines) > 1 {
			text = lines[1]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	return text
}

func parseReview(text, language string) *models.ReviewReport {
	v, err := report.Validate([]byte(stripFences(text)))
	if err == nil {
		if v.Report.Context.Language == "" {
			v.Report.Context.Language = language
		}
		return v.Report
	}
	return fallbackReport(language, text)
}

// fallbackReport is what a review returns when the model reply is unusable.
func fallbackReport(language, raw string) *models.ReviewReport {
	desc := clip(raw, maxFallbackDesc)
	if strings.TrimSpace(desc) == "" {
		desc = "No review generated."
	}
	issues := []models.Issue{{
		Severity:    models.SeverityInfo,
		Category:    models.CategoryStyle,
		Type:        "Unparsed review",
		Description: desc,
		Suggestion:  "Try again or check the model configuration.",
	}}
	return &models.ReviewReport{
		HealthScore: 0,
		Summary:     report.Summarize(issues),
		Context:     models.ReportContext{Language: language, Purpose: "N/A"},
		Issues:      issues,
	}
}

func parseRefactor(text string) (string, error) {
	var out struct {
		RefactoredCode string `json:"refactored_code"`
	}
	if err := json.Unmarshal([]byte(stripFences(text)), &out); err != nil {
		return "", fmt.Errorf("could not parse refactored code from model: %w", err)
	}
	return out.RefactoredCode, nil
}

// clip shortens s to at most n bytes without splitting a rune.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
