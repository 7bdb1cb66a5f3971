package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/joescharf/codereview/internal/gateway"
	"github.com/joescharf/codereview/internal/models"
	"github.com/joescharf/codereview/internal/report"
)

// ChatFailureMessage is the agent reply recorded when a chat call fails.
const ChatFailureMessage = "Sorry, I couldn't process that. Please try again."

const maxConsoleEntries = 1000

var (
	// ErrStale is returned when a response arrived after Clear or after a
	// newer call of the same kind and was discarded.
	ErrStale = errors.New("response discarded: superseded")
	// ErrBusy is returned by Chat while another chat is in flight.
	ErrBusy = errors.New("a chat message is already being answered")
	// ErrNoReport is returned by Refactor before any review succeeded.
	ErrNoReport = errors.New("run a review first")
	// ErrNoRefactored is returned by ApplyRefactored when there is nothing to apply.
	ErrNoRefactored = errors.New("no refactored code to apply")
)

// Gateway is the request surface the controller drives.
type Gateway interface {
	Review(ctx context.Context, code, language string) (*report.Validation, error)
	Refactor(ctx context.Context, code, language string) (string, error)
	Chat(ctx context.Context, sessionID, message, code string) (string, error)
}

var _ Gateway = (*gateway.Client)(nil)

// Config holds optional controller collaborators.
type Config struct {
	Notifier Notifier
	Language string
}

// Controller owns one session's state.
type Controller struct {
	gw        Gateway
	buf       Buffer
	notifier  Notifier
	sessionID string

	mu         sync.Mutex
	language   string
	report     *models.ReviewReport
	refactored string
	chat       []models.ChatMessage
	console    []models.ConsoleEntry
	ops        map[Op]*opMachine
	gen        map[Op]uint64
}

// New creates a controller reading code from buf and sending requests
// through gw.
func New(gw Gateway, buf Buffer, cfg Config) (*Controller, error) {
	if cfg.Notifier == nil {
		cfg.Notifier = discardNotifier{}
	}
	c := &Controller{
		gw:        gw,
		buf:       buf,
		notifier:  cfg.Notifier,
		sessionID: NewSessionID(),
		language:  cfg.Language,
		ops:       make(map[Op]*opMachine, 3),
		gen:       make(map[Op]uint64, 3),
	}
	for _, op := range []Op{OpReview, OpRefactor, OpChat} {
		m, err := newOpMachine(op)
		if err != nil {
			return nil, err
		}
		c.ops[op] = m
	}
	return c, nil
}

// NewSessionID returns an opaque per-session token.
func NewSessionID() string {
	return "s_" + uuid.NewString()
}

// SessionID returns the token scoping this session's chat.
func (c *Controller) SessionID() string { return c.sessionID }

// SetLanguage sets the language hint sent with review and refactor calls.
// An empty hint lets the server detect the language.
func (c *Controller) SetLanguage(lang string) {
	c.mu.Lock()
	c.language = strings.TrimSpace(lang)
	c.mu.Unlock()
}

// Review sends the current buffer for review. Blank code is rejected with
// gateway.ErrEmptyInput before any state changes. Starting a review discards
// any refactor still in flight.
func (c *Controller) Review(ctx context.Context) error {
	code := c.buf.Text()
	if strings.TrimSpace(code) == "" {
		c.reject("Please enter some code to review.")
		return gateway.ErrEmptyInput
	}

	c.mu.Lock()
	gen := c.begin(OpReview)
	// A refactor of the previous code must not land on the new review.
	c.gen[OpRefactor]++
	c.ops[OpRefactor].cancel()
	c.report = nil
	c.refactored = ""
	lang := c.language
	c.mu.Unlock()

	v, err := c.gw.Review(ctx, code, lang)

	c.mu.Lock()
	if c.gen[OpReview] != gen {
		c.mu.Unlock()
		return ErrStale
	}
	if err != nil {
		c.report = nil
		c.ops[OpReview].finish(false)
		msg := describe(err)
		c.logf(models.ConsoleError, "Review failed: %s", msg)
		c.mu.Unlock()
		c.notify(NoticeError, "Review failed: "+msg)
		return err
	}

	r := v.Report
	c.report = r
	if rc := r.Refactored(); strings.TrimSpace(rc) != "" {
		c.refactored = rc
	}
	for _, w := range v.Warnings {
		c.logf(models.ConsoleWarn, "Report: %s", w.Error())
	}
	c.logf(models.ConsoleLog, "Review complete: %d issues found, health score %d", len(r.Issues), r.HealthScore)
	for _, is := range r.Issues {
		c.logf(models.ConsoleLog, "%s", issueLine(is))
	}
	c.ops[OpReview].finish(true)
	c.mu.Unlock()

	c.notify(NoticeInfo, fmt.Sprintf("Review complete: %d issues found.", len(r.Issues)))
	return nil
}

// Refactor requests refactored code for the current buffer. It requires a
// report and leaves the report untouched.
func (c *Controller) Refactor(ctx context.Context) error {
	c.mu.Lock()
	hasReport := c.report != nil
	c.mu.Unlock()
	if !hasReport {
		c.reject("Run a review before refactoring.")
		return ErrNoReport
	}

	code := c.buf.Text()
	if strings.TrimSpace(code) == "" {
		c.reject("Please enter some code to refactor.")
		return gateway.ErrEmptyInput
	}

	c.mu.Lock()
	gen := c.begin(OpRefactor)
	lang := c.language
	c.mu.Unlock()

	out, err := c.gw.Refactor(ctx, code, lang)

	c.mu.Lock()
	if c.gen[OpRefactor] != gen {
		c.mu.Unlock()
		return ErrStale
	}
	if err != nil {
		c.ops[OpRefactor].finish(false)
		msg := describe(err)
		c.logf(models.ConsoleError, "Refactor failed: %s", msg)
		c.mu.Unlock()
		c.notify(NoticeError, "Refactor failed: "+msg)
		return err
	}
	c.refactored = out
	c.logf(models.ConsoleLog, "Refactored code ready (%d lines)", strings.Count(strings.TrimRight(out, "\n"), "\n")+1)
	c.ops[OpRefactor].finish(true)
	c.mu.Unlock()

	c.notify(NoticeInfo, "Refactored code ready.")
	return nil
}

// Chat sends message with the live buffer as context. The user message is
// recorded before the call; exactly one agent message follows it. Only one
// chat may be in flight.
func (c *Controller) Chat(ctx context.Context, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		c.reject("Please enter a message.")
		return gateway.ErrEmptyInput
	}

	c.mu.Lock()
	if c.ops[OpChat].busy() {
		c.mu.Unlock()
		c.reject("Wait for the current answer before sending another message.")
		return ErrBusy
	}
	c.ops[OpChat].start()
	c.chat = append(c.chat, models.ChatMessage{ID: newID(), Role: models.RoleUser, Content: message})
	c.mu.Unlock()

	reply, err := c.gw.Chat(ctx, c.sessionID, message, c.buf.Text())

	c.mu.Lock()
	if err != nil {
		c.chat = append(c.chat, models.ChatMessage{ID: newID(), Role: models.RoleAgent, Content: ChatFailureMessage})
		c.ops[OpChat].finish(false)
		msg := describe(err)
		c.logf(models.ConsoleError, "Chat failed: %s", msg)
		c.mu.Unlock()
		c.notify(NoticeError, "Chat failed: "+msg)
		return err
	}
	c.chat = append(c.chat, models.ChatMessage{ID: newID(), Role: models.RoleAgent, Content: reply})
	c.ops[OpChat].finish(true)
	c.mu.Unlock()
	return nil
}

// Clear empties the buffer and drops the report and refactored code. In-flight
// reviews and refactors keep running but their responses are discarded. Chat
// history is kept.
func (c *Controller) Clear() {
	c.buf.SetText("")

	c.mu.Lock()
	for _, op := range []Op{OpReview, OpRefactor} {
		c.gen[op]++
		c.ops[op].cancel()
	}
	c.report = nil
	c.refactored = ""
	c.logf(models.ConsoleLog, "Editor cleared")
	c.mu.Unlock()
}

// ApplyRefactored replaces the buffer with the refactored code.
func (c *Controller) ApplyRefactored() error {
	c.mu.Lock()
	code := c.refactored
	if code == "" {
		c.mu.Unlock()
		return ErrNoRefactored
	}
	c.logf(models.ConsoleLog, "Applied refactored code to editor")
	c.mu.Unlock()

	c.buf.SetText(code)
	c.notify(NoticeInfo, "Refactored code applied.")
	return nil
}

// ConsoleClear empties the console log.
func (c *Controller) ConsoleClear() {
	c.mu.Lock()
	c.console = nil
	c.mu.Unlock()
}

// Snapshot returns a copy of the session state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		SessionID:      c.sessionID,
		Code:           c.buf.Text(),
		Language:       c.language,
		Report:         c.report.Clone(),
		RefactoredCode: c.refactored,
		Chat:           append([]models.ChatMessage(nil), c.chat...),
		Console:        append([]models.ConsoleEntry(nil), c.console...),
		Reviewing:      c.ops[OpReview].busy(),
		Refactoring:    c.ops[OpRefactor].busy(),
		Chatting:       c.ops[OpChat].busy(),
		LastOutcome: map[Op]Outcome{
			OpReview:   c.ops[OpReview].last,
			OpRefactor: c.ops[OpRefactor].last,
			OpChat:     c.ops[OpChat].last,
		},
	}
	return s
}

// begin issues a new generation for op and marks it busy. Caller holds c.mu.
func (c *Controller) begin(op Op) uint64 {
	c.gen[op]++
	c.ops[op].start()
	return c.gen[op]
}

// logf appends a console entry. Caller holds c.mu.
func (c *Controller) logf(level models.ConsoleLevel, format string, args ...any) {
	c.console = append(c.console, models.ConsoleEntry{
		ID:    newID(),
		Level: level,
		Text:  fmt.Sprintf(format, args...),
		Time:  time.Now(),
	})
	if n := len(c.console) - maxConsoleEntries; n > 0 {
		c.console = append([]models.ConsoleEntry(nil), c.console[n:]...)
	}
}

func (c *Controller) notify(level NoticeLevel, msg string) {
	c.notifier.Notify(Notice{Level: level, Message: msg})
}

func newID() string {
	return ulid.Make().String()
}

func issueLine(is models.Issue) string {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(string(is.Severity))
	sb.WriteString("] ")
	if is.Line != nil {
		fmt.Fprintf(&sb, "line %d: ", *is.Line)
	}
	sb.WriteString(is.Description)
	return sb.String()
}

// describe turns a gateway or contract error into user-facing text.
func describe(err error) string {
	var (
		connErr   *gateway.ConnectionError
		badReq    *gateway.BadRequestError
		appErr    *gateway.ApplicationError
		schemaErr *report.SchemaError
	)
	switch {
	case errors.As(err, &connErr):
		return "could not reach the review server (" + connErr.Err.Error() + ")"
	case errors.As(err, &badReq):
		return badReq.Message
	case errors.As(err, &appErr):
		return appErr.Message
	case errors.As(err, &schemaErr):
		return "server returned an invalid report: " + strings.Join(schemaErr.Problems, "; ")
	}
	return err.Error()
}

// reject records a failed precondition as a warning. Caller must not hold c.mu.
func (c *Controller) reject(msg string) {
	c.mu.Lock()
	c.logf(models.ConsoleWarn, "%s", msg)
	c.mu.Unlock()
	c.notify(NoticeWarn, msg)
}
