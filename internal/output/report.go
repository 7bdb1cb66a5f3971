package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/joescharf/codereview/internal/models"
)

// Report prints a review report as a summary line and an issue table.
func (u *UI) Report(r *models.ReviewReport) error {
	if r == nil {
		u.Warning("No report")
		return nil
	}

	lang := r.Context.Language
	if lang == "" {
		lang = "unknown"
	}
	fmt.Fprintf(u.Out, "Health score: %s/100  Language: %s\n", HealthColor(r.HealthScore), lang)
	fmt.Fprintf(u.Out, "Issues: %d  %s\n\n", len(r.Issues), summaryLine(r.Summary))

	if len(r.Issues) == 0 {
		u.Success("No issues found")
		return nil
	}

	table := u.Table([]string{"#", "SEVERITY", "CATEGORY", "LINE", "TYPE", "DESCRIPTION"})
	for i, is := range r.Issues {
		line := "-"
		if is.Line != nil {
			line = strconv.Itoa(*is.Line)
		}
		_ = table.Append([]string{
			strconv.Itoa(i + 1),
			SeverityColor(is.Severity),
			string(is.Category),
			line,
			is.Type,
			is.Description,
		})
	}
	if err := table.Render(); err != nil {
		return err
	}

	if u.Verbose {
		fmt.Fprintln(u.Out)
		for i, is := range r.Issues {
			fmt.Fprintf(u.Out, "%d. %s\n", i+1, is.Suggestion)
		}
	}
	return nil
}

func summaryLine(s models.ReportSummary) string {
	parts := []string{
		"critical " + strconv.Itoa(s.Critical),
		"high " + strconv.Itoa(s.High),
		"medium " + strconv.Itoa(s.Medium),
		"low " + strconv.Itoa(s.Low),
	}
	if s.Info > 0 {
		parts = append(parts, "info "+strconv.Itoa(s.Info))
	}
	if s.Unknown > 0 {
		parts = append(parts, "unknown "+strconv.Itoa(s.Unknown))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Console prints console entries in emission order.
func (u *UI) Console(entries []models.ConsoleEntry) {
	for _, e := range entries {
		ts := e.Time.Format("15:04:05")
		switch e.Level {
		case models.ConsoleError:
			fmt.Fprintf(u.ErrOut, "%s %s %s\n", faint(ts), errorPrefix, e.Text)
		case models.ConsoleWarn:
			fmt.Fprintf(u.ErrOut, "%s %s %s\n", faint(ts), warningPrefix, e.Text)
		default:
			fmt.Fprintf(u.Out, "%s %s\n", faint(ts), e.Text)
		}
	}
}

// ChatMessage prints one chat message with a role prefix.
func (u *UI) ChatMessage(m models.ChatMessage) {
	switch m.Role {
	case models.RoleUser:
		fmt.Fprintf(u.Out, "%s %s\n", cyan("you>"), m.Content)
	default:
		fmt.Fprintf(u.Out, "%s %s\n", green("agent>"), m.Content)
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
