package models

import "time"

// ConsoleLevel classifies a console entry.
type ConsoleLevel string

const (
	ConsoleLog   ConsoleLevel = "log"
	ConsoleWarn  ConsoleLevel = "warn"
	ConsoleError ConsoleLevel = "error"
)

// ConsoleEntry is one timestamped diagnostic line.
type ConsoleEntry struct {
	ID    string       `json:"id"`
	Level ConsoleLevel `json:"type"`
	Text  string       `json:"text"`
	Time  time.Time    `json:"time"`
}
