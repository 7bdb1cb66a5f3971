package report

import (
	"fmt"
	"strings"

	"github.com/joescharf/codereview/internal/models"
)

// SchemaError reports a payload that does not match the report contract.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	if len(e.Problems) == 0 {
		return "report schema: invalid report"
	}
	return "report schema: " + strings.Join(e.Problems, "; ")
}

// UnknownEnumValueError reports a severity or category outside the closed set.
// It is a warning: the issue is kept in the unknown bucket.
type UnknownEnumValueError struct {
	Field string
	Value string
	Index int
}

func (e *UnknownEnumValueError) Error() string {
	return fmt.Sprintf("issue %d: unknown %s %q", e.Index, e.Field, e.Value)
}

// SummaryMismatchError reports a summary that disagrees with the issue list.
// The computed summary is what consumers see.
type SummaryMismatchError struct {
	Reported models.ReportSummary
	Computed models.ReportSummary
}

func (e *SummaryMismatchError) Error() string {
	return fmt.Sprintf("summary mismatch: reported %d issues (%d/%d/%d/%d), found %d (%d/%d/%d/%d)",
		e.Reported.Total(), e.Reported.Critical, e.Reported.High, e.Reported.Medium, e.Reported.Low,
		e.Computed.Total(), e.Computed.Critical, e.Computed.High, e.Computed.Medium, e.Computed.Low)
}
