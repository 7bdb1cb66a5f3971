package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/codereview/internal/analyzer"
	"github.com/joescharf/codereview/internal/models"
	"github.com/joescharf/codereview/internal/report"
	"github.com/joescharf/codereview/internal/review"
	"github.com/joescharf/codereview/internal/store"
)

// failingBackend fails every call.
type failingBackend struct{}

func (failingBackend) Name() string { return "failing" }
func (failingBackend) Review(context.Context, analyzer.CodeInput) (*models.ReviewReport, error) {
	return nil, errors.New("model unavailable")
}
func (failingBackend) Refactor(context.Context, analyzer.CodeInput) (string, error) {
	return "", errors.New("model unavailable")
}
func (failingBackend) Chat(context.Context, analyzer.ChatInput) (string, error) {
	return "", errors.New("model unavailable")
}

func setupTestServer(t *testing.T, b analyzer.Backend) http.Handler {
	t.Helper()
	s, err := store.NewSQLiteStore(store.MemoryDSN)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	srv := NewServer(review.NewService(b, s, nil), Config{Version: "test"})
	return srv.Router()
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, models.Envelope) {
	t.Helper()
	var rdr *bytes.Buffer
	if body != "" {
		rdr = bytes.NewBufferString(body)
	} else {
		rdr = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env models.Envelope
	if w.Code != http.StatusNoContent && w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func TestHealth(t *testing.T) {
	h := setupTestServer(t, analyzer.NewStub())

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestRoot(t *testing.T) {
	h := setupTestServer(t, analyzer.NewStub())

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "stub", body["backend"])
	assert.Equal(t, "test", body["version"])
}

func TestReview_Success(t *testing.T) {
	h := setupTestServer(t, analyzer.NewStub())

	body := `{"code":"query = \"SELECT * FROM users WHERE id = \" + id","language":"python"}`
	w, env := doJSON(t, h, "POST", "/api/review", body)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	v, err := report.Validate(env.Report)
	require.NoError(t, err)
	assert.Empty(t, v.Warnings)
	assert.Equal(t, len(v.Report.Issues), v.Report.Summary.Total())
	assert.GreaterOrEqual(t, v.Report.Summary.ByCategory.Security, 1)
}

func TestReview_BadRequests(t *testing.T) {
	h := setupTestServer(t, analyzer.NewStub())

	tests := []struct {
		name string
		body string
	}{
		{"missing code", `{}`},
		{"blank code", `{"code":"   \n"}`},
		{"malformed json", `{"code":`},
		{"empty body", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := doJSON(t, h, "POST", "/api/review", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestReview_BackendFailure(t *testing.T) {
	h := setupTestServer(t, failingBackend{})

	w, env := doJSON(t, h, "POST", "/api/review", `{"code":"x = 1"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "model unavailable")
}

func TestReview_MethodNotAllowed(t *testing.T) {
	h := setupTestServer(t, analyzer.NewStub())

	req := httptest.NewRequest("GET", "/api/review", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRefactor(t *testing.T) {
	h := setupTestServer(t, analyzer.NewStub())

	w, env := doJSON(t, h, "POST", "/api/refactor", `{"code":"password = \"hunter2\"   \n","language":"python"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	require.NotNil(t, env.RefactoredCode)
	assert.NotEmpty(t, *env.RefactoredCode)
	assert.NotContains(t, *env.RefactoredCode, "hunter2")

	w, env = doJSON(t, h, "POST", "/api/refactor", `{"code":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
}

func TestRefactor_BackendFailure(t *testing.T) {
	h := setupTestServer(t, failingBackend{})

	w, env := doJSON(t, h, "POST", "/api/refactor", `{"code":"x = 1"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, env.Success)
}

func TestChat(t *testing.T) {
	h := setupTestServer(t, analyzer.NewStub())

	w, env := doJSON(t, h, "POST", "/api/chat", `{"session_id":"s_1","message":"is this safe?","code":"x = 1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	require.NotNil(t, env.Response)
	assert.Contains(t, *env.Response, "is this safe?")

	// second message sees the first exchange
	_, env = doJSON(t, h, "POST", "/api/chat", `{"session_id":"s_1","message":"and now?"}`)
	require.NotNil(t, env.Response)
	assert.Contains(t, *env.Response, "2 earlier messages")
}

func TestChat_MissingMessage(t *testing.T) {
	h := setupTestServer(t, analyzer.NewStub())

	w, env := doJSON(t, h, "POST", "/api/chat", `{"session_id":"s_1","message":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, review.ErrMissingMessage.Error(), env.Error)
}

func TestChat_BackendFailure(t *testing.T) {
	h := setupTestServer(t, failingBackend{})

	w, env := doJSON(t, h, "POST", "/api/chat", `{"session_id":"s_1","message":"hi"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, env.Success)
}

func TestCORS(t *testing.T) {
	h := setupTestServer(t, analyzer.NewStub())

	tests := []struct {
		origin string
		want   string
	}{
		{"http://localhost:5173", "http://localhost:5173"},
		{"http://127.0.0.1:8080", "http://127.0.0.1:8080"},
		{"https://evil.example.com", "http://localhost:3000"},
		{"", "http://localhost:3000"},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/health", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := setupTestServer(t, analyzer.NewStub())

	req := httptest.NewRequest("OPTIONS", "/api/review", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestRequestSizeLimit(t *testing.T) {
	s, err := store.NewSQLiteStore(store.MemoryDSN)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	h := NewServer(review.NewService(analyzer.NewStub(), s, nil), Config{MaxBodyBytes: 32}).Router()

	w, env := doJSON(t, h, "POST", "/api/review", `{"code":"`+string(bytes.Repeat([]byte("a"), 100))+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
}
