package output

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/joescharf/codereview/internal/models"
)

// UI writes user-facing CLI output. Info and success lines go to Out;
// warnings and errors go to ErrOut.
type UI struct {
	Verbose bool
	Out     io.Writer
	ErrOut  io.Writer
}

// New creates a UI on stdout and stderr.
func New() *UI {
	return &UI{Out: os.Stdout, ErrOut: os.Stderr}
}

var (
	infoPrefix    = color.New(color.FgHiBlue).Sprint("i")
	successPrefix = color.New(color.FgHiGreen).Sprint("✓")
	warningPrefix = color.New(color.FgHiYellow).Sprint("⚠")
	errorPrefix   = color.New(color.FgHiRed).Sprint("✗")
	verbosePrefix = color.New(color.FgHiBlue).Sprint("  →")

	cyan    = color.New(color.FgHiCyan).SprintFunc()
	green   = color.New(color.FgHiGreen).SprintFunc()
	yellow  = color.New(color.FgHiYellow).SprintFunc()
	red     = color.New(color.FgHiRed).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
	heading = color.New(color.FgHiCyan, color.Bold).SprintFunc()
)

var severityPaint = map[models.Severity]func(...any) string{
	models.SeverityCritical: color.New(color.FgHiMagenta, color.Bold).SprintFunc(),
	models.SeverityHigh:     red,
	models.SeverityMedium:   yellow,
	models.SeverityLow:      cyan,
}

// SeverityColor returns the severity label colored by urgency. Info and
// unknown severities are dimmed.
func SeverityColor(sev models.Severity) string {
	if paint, ok := severityPaint[sev]; ok {
		return paint(string(sev))
	}
	return faint(string(sev))
}

// HealthColor returns score colored green (80+), yellow (50+) or red.
func HealthColor(score int) string {
	s := strconv.Itoa(score)
	switch {
	case score >= 80:
		return green(s)
	case score >= 50:
		return yellow(s)
	}
	return red(s)
}

func line(w io.Writer, prefix, format string, a []any) {
	fmt.Fprintf(w, "%s %s\n", prefix, fmt.Sprintf(format, a...))
}

func (u *UI) Info(format string, a ...any)    { line(u.Out, infoPrefix, format, a) }
func (u *UI) Success(format string, a ...any) { line(u.Out, successPrefix, format, a) }
func (u *UI) Warning(format string, a ...any) { line(u.ErrOut, warningPrefix, format, a) }
func (u *UI) Error(format string, a ...any)   { line(u.ErrOut, errorPrefix, format, a) }

// VerboseLog prints only in verbose mode.
func (u *UI) VerboseLog(format string, a ...any) {
	if u.Verbose {
		line(u.Out, verbosePrefix, format, a)
	}
}

// Heading prints a section title preceded by a blank line.
func (u *UI) Heading(title string) {
	fmt.Fprintf(u.Out, "\n%s\n", heading(title))
}

// Table returns a borderless, left-aligned table writing to Out.
func (u *UI) Table(headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(u.Out,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders:  tw.BorderNone,
			Settings: tw.Settings{Lines: tw.LinesNone, Separators: tw.SeparatorsNone},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}
