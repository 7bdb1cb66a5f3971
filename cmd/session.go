package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/joescharf/codereview/internal/analyzer"
	"github.com/joescharf/codereview/internal/session"
)

// uiNotifier shows controller notices. Error notices are skipped because the
// same error is returned to the command.
type uiNotifier struct{}

func (uiNotifier) Notify(n session.Notice) {
	switch n.Level {
	case session.NoticeWarn:
		ui.Warning("%s", n.Message)
	case session.NoticeInfo:
		ui.VerboseLog("%s", n.Message)
	}
}

// openBuffer returns a file-backed buffer for path, or an in-memory buffer
// holding stdin when path is "" or "-".
func openBuffer(path string, stdin io.Reader) (session.Buffer, string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}
		return session.NewBuffer(string(data)), "stdin", nil
	}
	buf, err := newFileBuffer(path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	return buf, path, nil
}

// newController wires a session controller to the configured gateway. The
// returned func releases the gateway.
func newController(ctx context.Context, buf session.Buffer, language string) (*session.Controller, func(), error) {
	gw, cleanup, err := newGatewayClient(ctx)
	if err != nil {
		return nil, nil, err
	}
	c, err := session.New(gw, buf, session.Config{Notifier: uiNotifier{}, Language: language})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return c, cleanup, nil
}

// isFileBuffer reports whether buf writes through to a file.
func isFileBuffer(buf session.Buffer) bool {
	_, ok := buf.(*fileBuffer)
	return ok
}

// languageHint prefers the --language flag, then the file extension.
func languageHint(flag, name string) string {
	if flag != "" {
		return flag
	}
	return analyzer.LanguageForPath(name)
}
