package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/codereview/internal/analyzer"
	"github.com/joescharf/codereview/internal/api"
	"github.com/joescharf/codereview/internal/report"
	"github.com/joescharf/codereview/internal/review"
	"github.com/joescharf/codereview/internal/store"
)

func inProcessClient(t *testing.T) *Client {
	t.Helper()
	s, err := store.NewSQLiteStore(store.MemoryDSN)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })

	h := api.NewServer(review.NewService(analyzer.NewStub(), s, nil), api.Config{}).Router()
	c, err := New(Options{Handler: h})
	require.NoError(t, err)
	return c
}

// cannedServer answers every request with status and body, counting hits.
func cannedServer(t *testing.T, status int, body string) (*Client, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	return c, &hits
}

func TestNew_RequiresTarget(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestEmptyInput_NoRequest(t *testing.T) {
	c, hits := cannedServer(t, http.StatusOK, `{"success":true}`)
	ctx := context.Background()

	_, err := c.Review(ctx, "  \n\t", "")
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = c.Refactor(ctx, "", "")
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = c.Chat(ctx, "s_1", "   ", "x = 1")
	assert.ErrorIs(t, err, ErrEmptyInput)

	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestInProcess_Review(t *testing.T) {
	c := inProcessClient(t)

	v, err := c.Review(context.Background(), `query = "SELECT * FROM users WHERE id = " + id`, "python")
	require.NoError(t, err)
	assert.Empty(t, v.Warnings)
	assert.Equal(t, len(v.Report.Issues), v.Report.Summary.Total())
	assert.GreaterOrEqual(t, v.Report.Summary.ByCategory.Security, 1)
	assert.Equal(t, inProcessBaseURL, c.BaseURL())
}

func TestInProcess_RefactorAndChat(t *testing.T) {
	c := inProcessClient(t)
	ctx := context.Background()

	out, err := c.Refactor(ctx, "x = 1   \n", "python")
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n", out)

	// refactored output is itself valid review input
	_, err = c.Review(ctx, out, "")
	require.NoError(t, err)

	reply, err := c.Chat(ctx, "s_1", "hello", out)
	require.NoError(t, err)
	assert.Contains(t, reply, "hello")

	require.NoError(t, c.Health(ctx))
}

func TestInProcess_EmptySessionID(t *testing.T) {
	c := inProcessClient(t)

	_, err := c.Chat(context.Background(), "", "hi", "")
	assert.NoError(t, err)
}

func TestBadRequest(t *testing.T) {
	c, _ := cannedServer(t, http.StatusBadRequest, `{"success":false,"error":"code is required"}`)

	_, err := c.Review(context.Background(), "x", "")
	var br *BadRequestError
	require.ErrorAs(t, err, &br)
	assert.Equal(t, "code is required", br.Message)
}

func TestApplicationError(t *testing.T) {
	t.Run("500 envelope", func(t *testing.T) {
		c, _ := cannedServer(t, http.StatusInternalServerError, `{"success":false,"error":"model unavailable"}`)
		_, err := c.Refactor(context.Background(), "x", "")
		var ae *ApplicationError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, http.StatusInternalServerError, ae.Status)
		assert.Equal(t, "model unavailable", ae.Message)
	})

	t.Run("200 with success false", func(t *testing.T) {
		c, _ := cannedServer(t, http.StatusOK, `{"success":false,"error":"nope"}`)
		_, err := c.Chat(context.Background(), "s", "hi", "")
		var ae *ApplicationError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, "nope", ae.Message)
	})

	t.Run("empty refactored code", func(t *testing.T) {
		c, _ := cannedServer(t, http.StatusOK, `{"success":true,"refactored_code":""}`)
		_, err := c.Refactor(context.Background(), "x", "")
		var ae *ApplicationError
		assert.ErrorAs(t, err, &ae)
	})

	t.Run("missing chat response", func(t *testing.T) {
		c, _ := cannedServer(t, http.StatusOK, `{"success":true}`)
		_, err := c.Chat(context.Background(), "s", "hi", "")
		var ae *ApplicationError
		assert.ErrorAs(t, err, &ae)
	})
}

func TestConnectionError(t *testing.T) {
	t.Run("malformed json", func(t *testing.T) {
		c, _ := cannedServer(t, http.StatusOK, `<html>oops</html>`)
		_, err := c.Review(context.Background(), "x", "")
		var ce *ConnectionError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "review", ce.Op)
	})

	t.Run("unreachable host", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		c, err := New(Options{BaseURL: url})
		require.NoError(t, err)
		_, err = c.Chat(context.Background(), "s", "hi", "")
		var ce *ConnectionError
		assert.ErrorAs(t, err, &ce)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		t.Cleanup(srv.Close)

		c, err := New(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
		require.NoError(t, err)

		start := time.Now()
		_, err = c.Review(context.Background(), "x", "")
		var ce *ConnectionError
		require.ErrorAs(t, err, &ce)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("cancelled context", func(t *testing.T) {
		c := inProcessClient(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.Review(ctx, "x = 1", "")
		var ce *ConnectionError
		assert.ErrorAs(t, err, &ce)
	})
}

func TestReview_ContractErrors(t *testing.T) {
	t.Run("schema error", func(t *testing.T) {
		c, _ := cannedServer(t, http.StatusOK, `{"success":true,"report":{"health_score":150,"issues":[]}}`)
		_, err := c.Review(context.Background(), "x", "")
		var se *report.SchemaError
		assert.ErrorAs(t, err, &se)
	})

	t.Run("missing report", func(t *testing.T) {
		c, _ := cannedServer(t, http.StatusOK, `{"success":true}`)
		_, err := c.Review(context.Background(), "x", "")
		var se *report.SchemaError
		assert.ErrorAs(t, err, &se)
	})

	t.Run("summary mismatch is a warning", func(t *testing.T) {
		c, _ := cannedServer(t, http.StatusOK, `{"success":true,"report":{
			"health_score": 80,
			"summary": {"critical": 3, "high": 0, "medium": 0, "low": 0, "by_category": {"bugs": 0, "security": 0, "performance": 0, "style": 0}},
			"issues": [{"severity":"low","category":"style","description":"d","suggestion":"s"}]
		}}`)
		v, err := c.Review(context.Background(), "x", "")
		require.NoError(t, err)
		require.Len(t, v.Warnings, 1)
		var sm *report.SummaryMismatchError
		assert.True(t, errors.As(v.Warnings[0], &sm))
		assert.Equal(t, 1, v.Report.Summary.Low)
		assert.Equal(t, 0, v.Report.Summary.Critical)
	})
}

func TestHealth_Unhealthy(t *testing.T) {
	c, _ := cannedServer(t, http.StatusOK, `{"ok":false}`)
	var ae *ApplicationError
	assert.ErrorAs(t, c.Health(context.Background()), &ae)
}
