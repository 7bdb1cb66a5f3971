package health

import (
	"github.com/joescharf/codereview/internal/models"
)

// Breakdown is the computed health of a piece of reviewed code.
type Breakdown struct {
	Total       int
	Security    int // 0-40
	Bugs        int // 0-30
	Performance int // 0-20
	Style       int // 0-10
}

// Scorer computes health scores from a report's issues.
type Scorer struct{}

// NewScorer returns a new health Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes a health score (0-100) for a list of issues. Each category owns a
// share of the total and loses points per issue weighted by severity, never
// dropping below zero.
func (s *Scorer) Score(issues []models.Issue) *Breakdown {
	var penalty = map[models.Category]int{}
	for _, is := range issues {
		penalty[is.Category] += severityWeight(is.Severity)
	}

	h := &Breakdown{
		Security:    scoreCategory(penalty[models.CategorySecurity], 40),
		Bugs:        scoreCategory(penalty[models.CategoryBugs], 30),
		Performance: scoreCategory(penalty[models.CategoryPerformance], 20),
		Style:       scoreCategory(penalty[models.CategoryStyle]+penalty[models.CategoryUnknown], 10),
	}
	h.Total = h.Security + h.Bugs + h.Performance + h.Style
	return h
}

// severityWeight converts an issue's severity to penalty points.
func severityWeight(sev models.Severity) int {
	switch sev {
	case models.SeverityCritical:
		return 20
	case models.SeverityHigh:
		return 10
	case models.SeverityMedium:
		return 5
	case models.SeverityLow:
		return 2
	case models.SeverityInfo:
		return 0
	default:
		return 2
	}
}

// scoreCategory subtracts penalty from maxPoints, flooring at zero.
func scoreCategory(penalty, maxPoints int) int {
	if penalty >= maxPoints {
		return 0
	}
	return maxPoints - penalty
}
