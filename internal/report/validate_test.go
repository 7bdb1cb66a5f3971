package report

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/codereview/internal/models"
)

const sampleReport = `{
  "health_score": 62,
  "summary": {
    "critical": 2, "high": 1, "medium": 1, "low": 0,
    "by_category": { "bugs": 1, "security": 2, "performance": 1, "style": 0 }
  },
  "context": { "language": "Python", "purpose": "Sample code with intentional issues" },
  "issues": [
    { "severity": "critical", "category": "security", "type": "SQL Injection", "line": 2,
      "description": "Concatenating user input into SQL allows injection.",
      "impact": "Attackers can read or modify database data.",
      "suggestion": "Use parameterized queries.",
      "code_snippet": "query = \"SELECT * FROM users WHERE id = \" + id" },
    { "severity": "critical", "category": "security", "type": "Hardcoded secrets", "line": 12,
      "description": "Secrets should not be stored in source code.",
      "suggestion": "Use environment variables or a secrets manager." },
    { "severity": "high", "category": "performance", "type": "Inefficient nested loop", "line": 6,
      "description": "O(n^2) loop can be replaced with a set or single pass.",
      "suggestion": "Use a set for deduplication." },
    { "severity": "medium", "category": "bugs", "type": "Unsafe division", "line": 15,
      "description": "No check for zero divisor.",
      "suggestion": "Check y != 0." }
  ],
  "refactored_code": "def divide(x, y):\n    if y == 0:\n        raise ValueError\n    return x / y\n"
}`

func TestValidate_WellFormed(t *testing.T) {
	v, err := Validate([]byte(sampleReport))
	require.NoError(t, err)
	assert.Empty(t, v.Warnings)

	r := v.Report
	assert.Equal(t, 62, r.HealthScore)
	assert.Equal(t, "Python", r.Context.Language)
	require.Len(t, r.Issues, 4)
	assert.Equal(t, models.SeverityCritical, r.Issues[0].Severity)
	assert.Equal(t, "SQL Injection", r.Issues[0].Type)
	require.NotNil(t, r.Issues[0].Line)
	assert.Equal(t, 2, *r.Issues[0].Line)
	assert.Equal(t, models.CategoryBugs, r.Issues[3].Category)
	assert.Contains(t, r.Refactored(), "raise ValueError")
}

func TestValidate_PreservesIssueOrder(t *testing.T) {
	payload := `{"health_score": 50, "issues": [
	  {"severity":"low","category":"style","description":"a","suggestion":"x"},
	  {"severity":"critical","category":"bugs","description":"b","suggestion":"x"},
	  {"severity":"medium","category":"bugs","description":"c","suggestion":"x"}]}`
	v, err := Validate([]byte(payload))
	require.NoError(t, err)

	var got []string
	for _, is := range v.Report.Issues {
		got = append(got, is.Description)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestValidate_SchemaFailures(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"missing health score", `{"issues": []}`},
		{"score above range", `{"health_score": 101, "issues": []}`},
		{"score below range", `{"health_score": -1, "issues": []}`},
		{"fractional score", `{"health_score": 62.5, "issues": []}`},
		{"issues not array", `{"health_score": 10, "issues": {"a": 1}}`},
		{"missing issues", `{"health_score": 10}`},
		{"issue missing description", `{"health_score": 10, "issues": [{"severity":"low","category":"style","suggestion":"s"}]}`},
		{"issue empty suggestion", `{"health_score": 10, "issues": [{"severity":"low","category":"style","description":"d","suggestion":""}]}`},
		{"issue blank description", `{"health_score": 10, "issues": [{"severity":"low","category":"style","description":"   ","suggestion":"s"}]}`},
		{"line zero", `{"health_score": 10, "issues": [{"severity":"low","category":"style","description":"d","suggestion":"s","line":0}]}`},
		{"not an object", `[1,2,3]`},
		{"malformed", `{"health_score":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate([]byte(tt.payload))
			require.Error(t, err)
			var se *SchemaError
			assert.True(t, errors.As(err, &se), "expected *SchemaError, got %T: %v", err, err)
		})
	}
}

func TestValidate_UnknownEnumDegrades(t *testing.T) {
	payload := `{"health_score": 80, "issues": [
	  {"severity":"blocker","category":"security","description":"d","suggestion":"s"},
	  {"severity":"low","category":"docs","description":"d","suggestion":"s"}]}`
	v, err := Validate([]byte(payload))
	require.NoError(t, err)

	require.Len(t, v.Report.Issues, 2)
	assert.Equal(t, models.SeverityUnknown, v.Report.Issues[0].Severity)
	assert.Equal(t, models.CategoryUnknown, v.Report.Issues[1].Category)
	assert.Equal(t, 1, v.Report.Summary.Unknown)
	assert.Equal(t, 1, v.Report.Summary.ByCategory.Unknown)

	require.Len(t, v.Warnings, 2)
	var ee *UnknownEnumValueError
	require.True(t, errors.As(v.Warnings[0], &ee))
	assert.Equal(t, "severity", ee.Field)
	assert.Equal(t, "blocker", ee.Value)
	require.True(t, errors.As(v.Warnings[1], &ee))
	assert.Equal(t, "category", ee.Field)
	assert.Equal(t, 1, ee.Index)
}

func TestValidate_CategoryAliasAndTypeAliases(t *testing.T) {
	payload := `{"health_score": 70, "issues": [
	  {"severity":"HIGH","category":"bug","issue_type":"Off by one","description":"d","suggestion":"s"},
	  {"severity":"low","category":"security","vulnerability_type":"XSS","description":"d","suggestion":"s"}]}`
	v, err := Validate([]byte(payload))
	require.NoError(t, err)
	assert.Empty(t, v.Warnings)
	assert.Equal(t, models.SeverityHigh, v.Report.Issues[0].Severity)
	assert.Equal(t, models.CategoryBugs, v.Report.Issues[0].Category)
	assert.Equal(t, "Off by one", v.Report.Issues[0].Type)
	assert.Equal(t, "XSS", v.Report.Issues[1].Type)
}

func TestValidate_SummaryMismatchRecomputed(t *testing.T) {
	payload := `{"health_score": 40,
	  "summary": {"critical": 5, "high": 0, "medium": 0, "low": 0,
	              "by_category": {"bugs": 0, "security": 5, "performance": 0, "style": 0}},
	  "issues": [{"severity":"medium","category":"performance","description":"d","suggestion":"s"}]}`
	v, err := Validate([]byte(payload))
	require.NoError(t, err)

	assert.Equal(t, 0, v.Report.Summary.Critical)
	assert.Equal(t, 1, v.Report.Summary.Medium)
	assert.Equal(t, 1, v.Report.Summary.ByCategory.Performance)

	require.Len(t, v.Warnings, 1)
	var me *SummaryMismatchError
	require.True(t, errors.As(v.Warnings[0], &me))
	assert.Equal(t, 5, me.Reported.Critical)
	assert.Equal(t, 1, me.Computed.Total())
}

func TestValidate_NullOptionalFields(t *testing.T) {
	payload := `{"health_score": 0, "summary": null, "context": null, "issues": [], "refactored_code": null}`
	v, err := Validate([]byte(payload))
	require.NoError(t, err)
	assert.Nil(t, v.Report.RefactoredCode)
	assert.Empty(t, v.Report.Issues)
	assert.Empty(t, v.Warnings)
}

func TestValidate_EncodedReportRoundTrips(t *testing.T) {
	v, err := Validate([]byte(sampleReport))
	require.NoError(t, err)

	data, err := json.Marshal(v.Report)
	require.NoError(t, err)

	again, err := Validate(data)
	require.NoError(t, err)
	assert.Empty(t, again.Warnings)
	assert.Equal(t, v.Report, again.Report)
}
