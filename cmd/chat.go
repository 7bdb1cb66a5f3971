package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/codereview/internal/models"
	"github.com/joescharf/codereview/internal/session"
)

var (
	chatFile     string
	chatLanguage string
	chatMessage  string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the review agent about your code",
	Long: `Start an interactive chat. Each message is sent with the current contents
of --file, so edits saved between messages are seen by the agent. The agent
remembers the last 10 messages of the session.

Commands:
  /review    review the file and print the report
  /refactor  refactor the file and print the result
  /apply     write the last refactored code back to the file
  /console   show the session console
  /quit      leave the chat`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return chatRun(cmd.Context(), cmd.InOrStdin())
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatFile, "file", "", "Source file used as chat context")
	chatCmd.Flags().StringVarP(&chatLanguage, "language", "l", "", "Language hint (detected when empty)")
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "Send one message and exit")
	rootCmd.AddCommand(chatCmd)
}

func chatRun(ctx context.Context, in io.Reader) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var buf session.Buffer = session.NewBuffer("")
	if chatFile != "" {
		fb, err := newFileBuffer(chatFile)
		if err != nil {
			return fmt.Errorf("read %s: %w", chatFile, err)
		}
		buf = fb
	}

	c, cleanup, err := newController(ctx, buf, languageHint(chatLanguage, chatFile))
	if err != nil {
		return err
	}
	defer cleanup()

	if chatMessage != "" {
		return chatSend(ctx, c, chatMessage)
	}

	ui.Info("Chat session %s. Type /quit to leave.", c.SessionID())
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(ui.Out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(ui.Out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			quit, err := chatCommand(ctx, c, line)
			if err != nil {
				ui.Error("%v", err)
			}
			if quit {
				return nil
			}
			continue
		}
		// Failed chats are already shown as an agent message.
		_ = chatSend(ctx, c, line)
	}
}

// chatSend sends message and prints the agent's reply.
func chatSend(ctx context.Context, c *session.Controller, message string) error {
	err := c.Chat(ctx, message)
	st := c.Snapshot()
	if n := len(st.Chat); n > 0 && st.Chat[n-1].Role == models.RoleAgent {
		ui.ChatMessage(st.Chat[n-1])
	}
	return err
}

func chatCommand(ctx context.Context, c *session.Controller, line string) (bool, error) {
	switch strings.Fields(line)[0] {
	case "/quit", "/exit":
		return true, nil
	case "/review":
		if err := c.Review(ctx); err != nil {
			return false, err
		}
		return false, ui.Report(c.Snapshot().Report)
	case "/refactor":
		if err := c.Refactor(ctx); err != nil {
			return false, err
		}
		fmt.Fprintln(ui.Out, strings.TrimRight(c.Snapshot().RefactoredCode, "\n"))
		return false, nil
	case "/apply":
		if chatFile == "" {
			return false, errors.New("/apply needs --file")
		}
		if err := c.ApplyRefactored(); err != nil {
			return false, err
		}
		ui.Success("Applied refactored code to %s", chatFile)
		return false, nil
	case "/console":
		ui.Console(c.Snapshot().Console)
		return false, nil
	}
	return false, fmt.Errorf("unknown command %s", line)
}
