package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/codereview/internal/review"
	"github.com/joescharf/codereview/internal/session"
)

// Server exposes the review service as MCP tools.
type Server struct {
	review    *review.Service
	version   string
	sessionID string
}

// NewServer creates the MCP server wrapper. Chat calls without a session_id
// share one session for the life of the process.
func NewServer(svc *review.Service, version string) *Server {
	return &Server{
		review:    svc,
		version:   version,
		sessionID: session.NewSessionID(),
	}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("codereview", s.version, server.WithToolCapabilities(true))

	srv.AddTool(s.reviewCodeTool())
	srv.AddTool(s.refactorCodeTool())
	srv.AddTool(s.chatTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// review_code
func (s *Server) reviewCodeTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("review_code",
		mcp.WithDescription("Review a code snippet for bugs, security, performance and style issues. Returns a JSON report with health_score (0-100), summary counts, context and an ordered issues list."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Source code to review")),
		mcp.WithString("language", mcp.Description("Language hint; detected when omitted")),
	)
	return tool, s.handleReviewCode
}

func (s *Server) handleReviewCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: code"), nil
	}

	r, err := s.review.Review(ctx, code, request.GetString("language", ""))
	if err != nil {
		return toolError(err), nil
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal report: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// refactor_code
func (s *Server) refactorCodeTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("refactor_code",
		mcp.WithDescription("Return an improved version of a code snippet with the same behavior. Returns the refactored code as plain text."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Source code to refactor")),
		mcp.WithString("language", mcp.Description("Language hint; detected when omitted")),
	)
	return tool, s.handleRefactorCode
}

func (s *Server) handleRefactorCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: code"), nil
	}

	out, err := s.review.Refactor(ctx, code, request.GetString("language", ""))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(out), nil
}

// chat
func (s *Server) chatTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("chat",
		mcp.WithDescription("Ask the code review assistant a question. The last 10 messages of a session are remembered."),
		mcp.WithString("message", mcp.Required(), mcp.Description("Question or message")),
		mcp.WithString("code", mcp.Description("Code the question is about")),
		mcp.WithString("session_id", mcp.Description("Conversation to continue; defaults to this server's session")),
	)
	return tool, s.handleChat
}

func (s *Server) handleChat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: message"), nil
	}

	sid := request.GetString("session_id", "")
	if sid == "" {
		sid = s.sessionID
	}

	reply, err := s.review.Chat(ctx, sid, message, request.GetString("code", ""))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(reply), nil
}

func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, review.ErrMissingCode), errors.Is(err, review.ErrMissingMessage):
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultError(fmt.Sprintf("failed: %v", err))
}
