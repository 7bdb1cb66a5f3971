package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/timeout"

	"github.com/joescharf/codereview/internal/models"
	"github.com/joescharf/codereview/internal/report"
)

// DefaultTimeout bounds every call when no timeout is configured.
const DefaultTimeout = 60 * time.Second

const maxResponseBytes = 4 << 20

// Options configures a Client. When BaseURL is empty requests go to Handler
// in process.
type Options struct {
	BaseURL    string
	Handler    http.Handler
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls the review gateway. It never retries.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// New creates a gateway client.
func New(opts Options) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    opts.HTTPClient,
		timeout: opts.Timeout,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}

	if c.baseURL == "" {
		if opts.Handler == nil {
			return nil, errors.New("gateway: base URL or handler required")
		}
		c.baseURL = inProcessBaseURL
		c.http = &http.Client{Transport: handlerTransport{handler: opts.Handler}}
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	return c, nil
}

// BaseURL returns the address requests are sent to.
func (c *Client) BaseURL() string { return c.baseURL }

// Review requests a review and validates the returned report. Non-fatal
// contract problems are returned in the Validation's warnings.
func (c *Client) Review(ctx context.Context, code, language string) (*report.Validation, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrEmptyInput
	}

	env, err := c.call(ctx, "review", http.MethodPost, "/api/review", models.ReviewRequest{Code: code, Language: language})
	if err != nil {
		return nil, err
	}
	if len(env.Report) == 0 || string(env.Report) == "null" {
		return nil, &report.SchemaError{Problems: []string{"report: missing from response"}}
	}
	return report.Validate(env.Report)
}

// Refactor requests refactored code. An empty result is an ApplicationError.
func (c *Client) Refactor(ctx context.Context, code, language string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", ErrEmptyInput
	}

	env, err := c.call(ctx, "refactor", http.MethodPost, "/api/refactor", models.RefactorRequest{Code: code, Language: language})
	if err != nil {
		return "", err
	}
	if env.RefactoredCode == nil || strings.TrimSpace(*env.RefactoredCode) == "" {
		return "", &ApplicationError{Message: "no refactored code returned"}
	}
	return *env.RefactoredCode, nil
}

// Chat sends a message with the current code as context.
func (c *Client) Chat(ctx context.Context, sessionID, message, code string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyInput
	}

	env, err := c.call(ctx, "chat", http.MethodPost, "/api/chat", models.ChatRequest{SessionID: sessionID, Message: message, Code: code})
	if err != nil {
		return "", err
	}
	if env.Response == nil {
		return "", &ApplicationError{Message: "no response returned"}
	}
	return *env.Response, nil
}

// Health checks that the gateway is reachable.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.exec(ctx, "health", func(ctx context.Context) (*models.Envelope, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
		if err != nil {
			return nil, &ConnectionError{Op: "health", Err: err}
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, &ConnectionError{Op: "health", Err: err}
		}
		defer resp.Body.Close()

		var body struct {
			OK bool `json:"ok"`
		}
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
			return nil, &ConnectionError{Op: "health", Err: fmt.Errorf("malformed response: %w", err)}
		}
		if !body.OK {
			return nil, &ApplicationError{Status: resp.StatusCode, Message: "gateway unhealthy"}
		}
		return &models.Envelope{Success: true}, nil
	})
	return err
}

func (c *Client) call(ctx context.Context, op, method, path string, body any) (*models.Envelope, error) {
	return c.exec(ctx, op, func(ctx context.Context) (*models.Envelope, error) {
		return c.send(ctx, op, method, path, body)
	})
}

// exec bounds fn with the client timeout. Anything that is not already a
// classified gateway error becomes a ConnectionError.
func (c *Client) exec(ctx context.Context, op string, fn func(context.Context) (*models.Envelope, error)) (*models.Envelope, error) {
	t := timeout.New[*models.Envelope](timeout.Config{DefaultTimeout: c.timeout})
	env, err := t.Execute(ctx, c.timeout, fn)
	if err == nil {
		return env, nil
	}

	var (
		badReq  *BadRequestError
		appErr  *ApplicationError
		connErr *ConnectionError
	)
	if errors.As(err, &badReq) || errors.As(err, &appErr) || errors.As(err, &connErr) {
		return nil, err
	}
	return nil, &ConnectionError{Op: op, Err: err}
}

func (c *Client) send(ctx context.Context, op, method, path string, body any) (*models.Envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, &ConnectionError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ConnectionError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &ConnectionError{Op: op, Err: err}
	}

	var env models.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &ConnectionError{Op: op, Err: fmt.Errorf("malformed response (HTTP %d): %w", resp.StatusCode, err)}
	}

	msg := env.Error
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return nil, &BadRequestError{Message: msg}
	case resp.StatusCode >= 300 || !env.Success:
		return nil, &ApplicationError{Status: resp.StatusCode, Message: msg}
	}
	return &env, nil
}
