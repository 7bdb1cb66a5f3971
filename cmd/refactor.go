package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var (
	refactorLanguage string
	refactorApply    bool
)

var refactorCmd = &cobra.Command{
	Use:   "refactor [file|-]",
	Short: "Print a refactored version of a source file",
	Long: `Review a source file, then request refactored code and print it to
stdout. With --apply the file is rewritten in place.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		return refactorRun(cmd.Context(), path, cmd.InOrStdin())
	},
}

func init() {
	refactorCmd.Flags().StringVarP(&refactorLanguage, "language", "l", "", "Language hint (detected when empty)")
	refactorCmd.Flags().BoolVar(&refactorApply, "apply", false, "Write the refactored code back to the file")
	rootCmd.AddCommand(refactorCmd)
}

func refactorRun(ctx context.Context, path string, stdin io.Reader) error {
	if ctx == nil {
		ctx = context.Background()
	}
	buf, name, err := openBuffer(path, stdin)
	if err != nil {
		return err
	}
	if refactorApply && !isFileBuffer(buf) {
		return fmt.Errorf("--apply needs a file argument")
	}

	c, cleanup, err := newController(ctx, buf, languageHint(refactorLanguage, name))
	if err != nil {
		return err
	}
	defer cleanup()

	if err := c.Review(ctx); err != nil {
		return err
	}
	if err := c.Refactor(ctx); err != nil {
		return err
	}

	if refactorApply {
		if err := c.ApplyRefactored(); err != nil {
			return err
		}
		ui.Success("Applied refactored code to %s", name)
		return nil
	}
	fmt.Fprintln(ui.Out, strings.TrimRight(c.Snapshot().RefactoredCode, "\n"))
	return nil
}
