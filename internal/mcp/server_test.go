package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/codereview/internal/analyzer"
	"github.com/joescharf/codereview/internal/models"
	"github.com/joescharf/codereview/internal/review"
	"github.com/joescharf/codereview/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.NewSQLiteStore(store.MemoryDSN)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	srv := NewServer(review.NewService(analyzer.NewStub(), st, nil), "test")
	require.NotNil(t, srv)
	return srv
}

// callToolReq builds a mcpgo.CallToolRequest with the given name and arguments.
func callToolReq(name string, args map[string]any) mcpgo.CallToolRequest {
	return mcpgo.CallToolRequest{
		Params: mcpgo.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// resultText extracts the concatenated text from a CallToolResult.
func resultText(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	var b strings.Builder
	for _, c := range result.Content {
		tc, ok := c.(mcpgo.TextContent)
		if ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

func TestNewServer(t *testing.T) {
	srv := newTestServer(t)
	require.NotNil(t, srv.MCPServer(), "MCPServer() should return non-nil")
	assert.True(t, strings.HasPrefix(srv.sessionID, "s_"))
}

// ---------------------------------------------------------------------------
// review_code
// ---------------------------------------------------------------------------

func TestReviewCode(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleReviewCode(context.Background(), callToolReq("review_code", map[string]any{
		"code": `query = "SELECT * FROM users WHERE id = " + id`,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var r models.ReviewReport
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &r))
	assert.Equal(t, len(r.Issues), r.Summary.Total())
	assert.GreaterOrEqual(t, r.Summary.ByCategory.Security, 1)
}

func TestReviewCode_MissingCode(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleReviewCode(context.Background(), callToolReq("review_code", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "code")
}

func TestReviewCode_BlankCode(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleReviewCode(context.Background(), callToolReq("review_code", map[string]any{"code": "   "}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, review.ErrMissingCode.Error(), resultText(t, result))
}

// ---------------------------------------------------------------------------
// refactor_code
// ---------------------------------------------------------------------------

func TestRefactorCode(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleRefactorCode(context.Background(), callToolReq("refactor_code", map[string]any{
		"code":     "api_key = \"sk-123456\"\n",
		"language": "python",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, `os.environ.get("API_KEY")`)
	assert.NotContains(t, text, "sk-123456")
}

func TestRefactorCode_MissingCode(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleRefactorCode(context.Background(), callToolReq("refactor_code", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

// ---------------------------------------------------------------------------
// chat
// ---------------------------------------------------------------------------

func TestChat_DefaultSessionRemembers(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	result, err := srv.handleChat(ctx, callToolReq("chat", map[string]any{"message": "first"}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "first")

	result, err = srv.handleChat(ctx, callToolReq("chat", map[string]any{"message": "second"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "2 earlier messages")
}

func TestChat_ExplicitSession(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	_, err := srv.handleChat(ctx, callToolReq("chat", map[string]any{"message": "one"}))
	require.NoError(t, err)

	result, err := srv.handleChat(ctx, callToolReq("chat", map[string]any{
		"message":    "other",
		"session_id": "s_other",
		"code":       "x = 1",
	}))
	require.NoError(t, err)
	text := resultText(t, result)
	assert.NotContains(t, text, "earlier messages")
	assert.Contains(t, text, "code length: 5 chars")
}

func TestChat_MissingMessage(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleChat(context.Background(), callToolReq("chat", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "message")
}

// ---------------------------------------------------------------------------
// Integration: tools/list through HandleMessage
// ---------------------------------------------------------------------------

func TestMCPIntegration_ListTools(t *testing.T) {
	srv := newTestServer(t)
	mcpSrv := srv.MCPServer()

	reqJSON := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`)
	respMsg := mcpSrv.HandleMessage(context.Background(), reqJSON)
	require.NotNil(t, respMsg)

	respBytes, err := json.Marshal(respMsg)
	require.NoError(t, err)

	var rpcResp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(respBytes, &rpcResp))

	toolNames := make(map[string]bool)
	for _, tool := range rpcResp.Result.Tools {
		toolNames[tool.Name] = true
	}
	for _, name := range []string{"review_code", "refactor_code", "chat"} {
		assert.True(t, toolNames[name], "expected tool %q to be registered", name)
	}
}
