package report

import "github.com/joescharf/codereview/internal/models"

// Summarize counts issues by severity and category.
func Summarize(issues []models.Issue) models.ReportSummary {
	var s models.ReportSummary
	for _, is := range issues {
		switch is.Severity {
		case models.SeverityCritical:
			s.Critical++
		case models.SeverityHigh:
			s.High++
		case models.SeverityMedium:
			s.Medium++
		case models.SeverityLow:
			s.Low++
		case models.SeverityInfo:
			s.Info++
		default:
			s.Unknown++
		}

		switch is.Category {
		case models.CategoryBugs:
			s.ByCategory.Bugs++
		case models.CategorySecurity:
			s.ByCategory.Security++
		case models.CategoryPerformance:
			s.ByCategory.Performance++
		case models.CategoryStyle:
			s.ByCategory.Style++
		default:
			s.ByCategory.Unknown++
		}
	}
	return s
}

// CheckConsistency returns a *SummaryMismatchError when r.Summary does not match
// its issues.
func CheckConsistency(r *models.ReviewReport) error {
	computed := Summarize(r.Issues)
	if computed != r.Summary {
		return &SummaryMismatchError{Reported: r.Summary, Computed: computed}
	}
	return nil
}

// Normalize brings a backend-produced report in line with the contract before it
// is sent: enums are canonicalized, the score is clamped to [0,100] and the
// summary is recomputed. Degradations are returned as warnings.
func Normalize(r *models.ReviewReport) []error {
	var warnings []error
	for i := range r.Issues {
		is := &r.Issues[i]
		sev, ok := models.ParseSeverity(string(is.Severity))
		if !ok {
			warnings = append(warnings, &UnknownEnumValueError{Field: "severity", Value: string(is.Severity), Index: i})
		}
		is.Severity = sev

		cat, ok := models.ParseCategory(string(is.Category))
		if !ok {
			warnings = append(warnings, &UnknownEnumValueError{Field: "category", Value: string(is.Category), Index: i})
		}
		is.Category = cat
	}
	if r.Issues == nil {
		r.Issues = []models.Issue{}
	}

	switch {
	case r.HealthScore < 0:
		r.HealthScore = 0
	case r.HealthScore > 100:
		r.HealthScore = 100
	}

	if err := CheckConsistency(r); err != nil {
		warnings = append(warnings, err)
		r.Summary = Summarize(r.Issues)
	}
	return warnings
}
