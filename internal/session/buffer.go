package session

import "sync"

// Buffer is the live editor text. The controller reads it at dispatch time so
// edits made after the last render are never lost.
type Buffer interface {
	Text() string
	SetText(string)
}

// TextBuffer is a goroutine-safe in-memory Buffer.
type TextBuffer struct {
	mu   sync.RWMutex
	text string
}

// NewBuffer returns a buffer holding text.
func NewBuffer(text string) *TextBuffer {
	return &TextBuffer{text: text}
}

func (b *TextBuffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

func (b *TextBuffer) SetText(text string) {
	b.mu.Lock()
	b.text = text
	b.mu.Unlock()
}
