package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/codereview/internal/output"
	"github.com/joescharf/codereview/internal/session"
)

var (
	reviewLanguage string
	reviewFormat   string
	reviewRefactor bool
	reviewApply    bool
)

var reviewCmd = &cobra.Command{
	Use:   "review [file|-]",
	Short: "Review a source file",
	Long: `Send a source file to the review gateway and print the report.

Reads stdin when the file is "-" or omitted. The gateway is reached at
api_url, or runs in-process when api_url is empty.

Formats:
  text  health score, summary and an issues table (default)
  json  the review report
  html  a standalone page with the code, report and refactored code`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		return reviewRun(cmd.Context(), path, cmd.InOrStdin())
	},
}

func init() {
	reviewCmd.Flags().StringVarP(&reviewLanguage, "language", "l", "", "Language hint (detected when empty)")
	reviewCmd.Flags().StringVarP(&reviewFormat, "format", "f", "text", "Output format: text, json or html")
	reviewCmd.Flags().BoolVar(&reviewRefactor, "refactor", false, "Also request refactored code")
	reviewCmd.Flags().BoolVar(&reviewApply, "apply", false, "Write the refactored code back to the file")
	rootCmd.AddCommand(reviewCmd)
}

func reviewRun(ctx context.Context, path string, stdin io.Reader) error {
	if ctx == nil {
		ctx = context.Background()
	}
	format := strings.ToLower(reviewFormat)
	switch format {
	case "text", "json", "html":
	default:
		return fmt.Errorf("unknown format %q (want text, json or html)", reviewFormat)
	}

	buf, name, err := openBuffer(path, stdin)
	if err != nil {
		return err
	}
	if reviewApply && !isFileBuffer(buf) {
		return fmt.Errorf("--apply needs a file argument")
	}

	c, cleanup, err := newController(ctx, buf, languageHint(reviewLanguage, name))
	if err != nil {
		return err
	}
	defer cleanup()

	if err := c.Review(ctx); err != nil {
		return err
	}
	if reviewRefactor {
		if err := c.Refactor(ctx); err != nil {
			return err
		}
	}

	st := c.Snapshot()
	if err := renderReview(ui.Out, format, name, st); err != nil {
		return err
	}

	if reviewApply {
		if err := c.ApplyRefactored(); err != nil {
			return err
		}
		ui.Success("Applied refactored code to %s", name)
	}
	return nil
}

func renderReview(w io.Writer, format, name string, st session.State) error {
	rep := st.Report
	if st.RefactoredCode != "" {
		code := st.RefactoredCode
		rep.RefactoredCode = &code
	}

	switch format {
	case "json":
		return output.WriteJSON(w, rep)
	case "html":
		return output.WriteHTML(w, output.Page{
			Title:          "Code review: " + name,
			Code:           st.Code,
			Report:         rep,
			RefactoredCode: st.RefactoredCode,
			Chat:           st.Chat,
		})
	}

	if err := ui.Report(rep); err != nil {
		return err
	}
	if ui.Verbose {
		ui.Console(st.Console)
	}
	if reviewRefactor && st.RefactoredCode != "" {
		ui.Heading("Refactored code:")
		fmt.Fprintln(w, strings.TrimRight(st.RefactoredCode, "\n"))
	}
	return nil
}
