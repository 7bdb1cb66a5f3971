package cmd

import (
	"os"
	"sync"

	"github.com/joescharf/codereview/internal/session"
)

// fileBuffer is a session buffer backed by a file. Text rereads the file so
// edits saved while a command runs are sent with the next request.
type fileBuffer struct {
	path string

	mu   sync.Mutex
	last string
}

var _ session.Buffer = (*fileBuffer)(nil)

func newFileBuffer(path string) (*fileBuffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &fileBuffer{path: path, last: string(data)}, nil
}

func (b *fileBuffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if data, err := os.ReadFile(b.path); err == nil {
		b.last = string(data)
	}
	return b.last
}

func (b *fileBuffer) SetText(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := os.WriteFile(b.path, []byte(text), 0o644); err != nil {
		ui.Error("write %s: %v", b.path, err)
		return
	}
	b.last = text
}
