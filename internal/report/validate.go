package report

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/joescharf/codereview/internal/models"
)

const reportSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["health_score", "issues"],
  "properties": {
    "health_score": { "type": "integer", "minimum": 0, "maximum": 100 },
    "summary": { "type": ["object", "null"] },
    "context": {
      "type": ["object", "null"],
      "properties": {
        "language": { "type": ["string", "null"] },
        "framework": { "type": ["string", "null"] },
        "purpose": { "type": ["string", "null"] }
      }
    },
    "issues": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["severity", "category", "description", "suggestion"],
        "properties": {
          "severity": { "type": "string" },
          "category": { "type": "string" },
          "type": { "type": ["string", "null"] },
          "issue_type": { "type": ["string", "null"] },
          "vulnerability_type": { "type": ["string", "null"] },
          "line": { "type": ["integer", "null"], "minimum": 1 },
          "description": { "type": "string", "minLength": 1 },
          "suggestion": { "type": "string", "minLength": 1 },
          "impact": { "type": ["string", "null"] },
          "code_snippet": { "type": ["string", "null"] }
        }
      }
    },
    "refactored_code": { "type": ["string", "null"] }
  }
}`

var reportSchemaLoader = gojsonschema.NewStringLoader(reportSchemaJSON)

// Validation is a report that passed the contract, with any degradations
// applied along the way.
type Validation struct {
	Report   *models.ReviewReport
	Warnings []error
}

type wireIssue struct {
	Severity          string `json:"severity"`
	Category          string `json:"category"`
	Type              string `json:"type"`
	IssueType         string `json:"issue_type"`
	VulnerabilityType string `json:"vulnerability_type"`
	Line              *int   `json:"line"`
	Description       string `json:"description"`
	Suggestion        string `json:"suggestion"`
	Impact            string `json:"impact"`
	CodeSnippet       string `json:"code_snippet"`
}

type wireReport struct {
	HealthScore    float64               `json:"health_score"`
	Summary        *models.ReportSummary `json:"summary"`
	Context        *models.ReportContext `json:"context"`
	Issues         []wireIssue           `json:"issues"`
	RefactoredCode *string               `json:"refactored_code"`
}

// Validate checks data against the report contract and decodes it.
// Structural problems return a *SchemaError. Unknown enum values and summary
// mismatches are degraded and returned as warnings.
func Validate(data []byte) (*Validation, error) {
	result, err := gojsonschema.Validate(reportSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &SchemaError{Problems: []string{fmt.Sprintf("unreadable payload: %v", err)}}
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, &SchemaError{Problems: problems}
	}

	var wr wireReport
	if err := json.Unmarshal(data, &wr); err != nil {
		return nil, &SchemaError{Problems: []string{fmt.Sprintf("decode: %v", err)}}
	}

	v := &Validation{Report: &models.ReviewReport{
		HealthScore:    int(math.Round(wr.HealthScore)),
		RefactoredCode: wr.RefactoredCode,
		Issues:         make([]models.Issue, 0, len(wr.Issues)),
	}}
	if wr.Context != nil {
		v.Report.Context = *wr.Context
	}

	var problems []string
	for i, wi := range wr.Issues {
		if strings.TrimSpace(wi.Description) == "" {
			problems = append(problems, fmt.Sprintf("issues.%d.description: must not be blank", i))
		}
		if strings.TrimSpace(wi.Suggestion) == "" {
			problems = append(problems, fmt.Sprintf("issues.%d.suggestion: must not be blank", i))
		}

		sev, ok := models.ParseSeverity(wi.Severity)
		if !ok {
			v.Warnings = append(v.Warnings, &UnknownEnumValueError{Field: "severity", Value: wi.Severity, Index: i})
		}
		cat, ok := models.ParseCategory(wi.Category)
		if !ok {
			v.Warnings = append(v.Warnings, &UnknownEnumValueError{Field: "category", Value: wi.Category, Index: i})
		}

		v.Report.Issues = append(v.Report.Issues, models.Issue{
			Severity:    sev,
			Category:    cat,
			Type:        firstNonEmpty(wi.Type, wi.IssueType, wi.VulnerabilityType),
			Line:        wi.Line,
			Description: wi.Description,
			Suggestion:  wi.Suggestion,
			Impact:      wi.Impact,
			CodeSnippet: wi.CodeSnippet,
		})
	}
	if len(problems) > 0 {
		return nil, &SchemaError{Problems: problems}
	}

	v.Report.Summary = Summarize(v.Report.Issues)
	if wr.Summary != nil && *wr.Summary != v.Report.Summary {
		v.Warnings = append(v.Warnings, &SummaryMismatchError{Reported: *wr.Summary, Computed: v.Report.Summary})
	}

	return v, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
