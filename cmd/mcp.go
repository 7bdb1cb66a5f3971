package cmd

import (
	"context"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/joescharf/codereview/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This exposes the review service to MCP clients. Configure a client with:

  {
    "mcpServers": {
      "codereview": { "command": "codereview", "args": ["mcp"] }
    }
  }

Available tools: review_code, refactor_code, chat`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcpRun(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func mcpRun(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, shutdownSignals()...)
	defer stop()

	svc, closeSvc, err := newReviewService(ctx)
	if err != nil {
		return err
	}
	defer closeSvc()

	return mcp.NewServer(svc, buildVersion).ServeStdio(ctx)
}
