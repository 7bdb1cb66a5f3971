package models

import "strings"

// Severity ranks how urgent an issue is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"

	// SeverityUnknown is the bucket for values outside the closed set.
	SeverityUnknown Severity = "unknown"
)

// Severities lists the recognized severities by descending urgency.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}

// Valid reports whether s is one of the recognized severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return true
	}
	return false
}

// Rank returns a sort key where lower is more urgent.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	case SeverityInfo:
		return 4
	default:
		return 5
	}
}

// ParseSeverity normalizes s and reports whether it was recognized.
// Unrecognized values map to SeverityUnknown.
func ParseSeverity(s string) (Severity, bool) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if sev.Valid() {
		return sev, true
	}
	return SeverityUnknown, false
}

// Category groups issues by concern.
type Category string

const (
	CategoryBugs        Category = "bugs"
	CategorySecurity    Category = "security"
	CategoryPerformance Category = "performance"
	CategoryStyle       Category = "style"

	CategoryUnknown Category = "unknown"
)

// Categories lists the recognized categories.
var Categories = []Category{CategoryBugs, CategorySecurity, CategoryPerformance, CategoryStyle}

// Valid reports whether c is one of the recognized categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryBugs, CategorySecurity, CategoryPerformance, CategoryStyle:
		return true
	}
	return false
}

// ParseCategory normalizes c and reports whether it was recognized.
// "bug" is accepted as an alias of "bugs".
func ParseCategory(c string) (Category, bool) {
	v := strings.ToLower(strings.TrimSpace(c))
	if v == "bug" {
		v = string(CategoryBugs)
	}
	cat := Category(v)
	if cat.Valid() {
		return cat, true
	}
	return CategoryUnknown, false
}

// Issue is one detected problem in submitted code.
type Issue struct {
	Severity    Severity `json:"severity"`
	Category    Category `json:"category"`
	Type        string   `json:"type,omitempty"`
	Line        *int     `json:"line,omitempty"` // 1-based
	Description string   `json:"description"`
	Suggestion  string   `json:"suggestion"`
	Impact      string   `json:"impact,omitempty"`
	CodeSnippet string   `json:"code_snippet,omitempty"`
}

// LineRef returns a pointer to n for use in Issue.Line.
func LineRef(n int) *int {
	return &n
}
