package models

// CategoryCounts holds per-category issue counts.
type CategoryCounts struct {
	Bugs        int `json:"bugs"`
	Security    int `json:"security"`
	Performance int `json:"performance"`
	Style       int `json:"style"`
	Unknown     int `json:"unknown,omitempty"`
}

// ReportSummary is the denormalized count view over a report's issues.
type ReportSummary struct {
	Critical   int            `json:"critical"`
	High       int            `json:"high"`
	Medium     int            `json:"medium"`
	Low        int            `json:"low"`
	Info       int            `json:"info,omitempty"`
	Unknown    int            `json:"unknown,omitempty"`
	ByCategory CategoryCounts `json:"by_category"`
}

// Total returns the number of issues the summary accounts for.
func (s ReportSummary) Total() int {
	return s.Critical + s.High + s.Medium + s.Low + s.Info + s.Unknown
}

// ReportContext describes what was reviewed.
type ReportContext struct {
	Language  string `json:"language,omitempty"`
	Framework string `json:"framework,omitempty"`
	Purpose   string `json:"purpose,omitempty"`
}

// ReviewReport is the result of a review operation.
type ReviewReport struct {
	HealthScore    int           `json:"health_score"`
	Summary        ReportSummary `json:"summary"`
	Context        ReportContext `json:"context"`
	Issues         []Issue       `json:"issues"`
	RefactoredCode *string       `json:"refactored_code"`
}

// Refactored returns the refactored code, or "" when absent.
func (r *ReviewReport) Refactored() string {
	if r == nil || r.RefactoredCode == nil {
		return ""
	}
	return *r.RefactoredCode
}

// Clone returns a deep copy of r.
func (r *ReviewReport) Clone() *ReviewReport {
	if r == nil {
		return nil
	}
	c := *r
	if r.Issues != nil {
		c.Issues = make([]Issue, len(r.Issues))
		for i, is := range r.Issues {
			if is.Line != nil {
				is.Line = LineRef(*is.Line)
			}
			c.Issues[i] = is
		}
	}
	if r.RefactoredCode != nil {
		s := *r.RefactoredCode
		c.RefactoredCode = &s
	}
	return &c
}
