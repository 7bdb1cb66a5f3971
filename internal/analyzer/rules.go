package analyzer

import (
	"regexp"
	"strings"

	"github.com/joescharf/codereview/internal/models"
)

// maxLineLength is the width past which a line is reported as too long.
const maxLineLength = 120

// rule flags a single source line. Rules that need surrounding context read it
// from scan.
type rule struct {
	id          string
	title       string
	severity    models.Severity
	category    models.Category
	description string
	suggestion  string
	impact      string
	match       func(sc *scan, idx int) bool
}

// scan is the per-review view of the submitted code shared by all rules.
type scan struct {
	code  string
	lines []string
	// loopDepth[i] is the number of enclosing loops open at line i, including
	// a loop header on line i itself.
	loopDepth []int
}

func newScan(code string) *scan {
	sc := &scan{code: code, lines: strings.Split(code, "\n")}
	sc.loopDepth = loopDepths(sc.lines)
	return sc
}

var (
	sqlConcatRe   = regexp.MustCompile(`(?i)["'][^"']*\b(select|insert\s+into|update|delete\s+from)\b[^"']*["']\s*(\+|%|\.format\()`)
	sqlInterpRe   = regexp.MustCompile("(?i)(f[\"'][^\"']*\\b(select|insert|update|delete)\\b[^\"']*\\{|`[^`]*\\b(select|insert|update|delete)\\b[^`]*\\$\\{|Sprintf\\(\\s*\"[^\"]*\\b(select|insert|update|delete)\\b[^\"]*%[sv])")
	secretRe      = regexp.MustCompile(`(?i)\b(password|passwd|pwd|secret|api_?key|apikey|access_?key|auth_?token|token)\b\s*[:=]\s*["'][^"']{3,}["']`)
	evalRe        = regexp.MustCompile(`\b(eval|exec)\s*\(`)
	loopRe        = regexp.MustCompile(`^\s*(for|while)\b`)
	divisionRe    = regexp.MustCompile(`[\w\)\]]\s*/\s*([A-Za-z_]\w*)`)
	bareExceptRe  = regexp.MustCompile(`^\s*except\s*:`)
	emptyCatchRe  = regexp.MustCompile(`catch\s*(\([^)]*\))?\s*\{\s*\}`)
	debugOutputRe = regexp.MustCompile(`\b(console\.log|fmt\.Println|System\.out\.println)\s*\(`)
	todoRe        = regexp.MustCompile(`\b(TODO|FIXME|XXX)\b`)
)

// rules run in this order on every line; issues are reported in line order,
// then rule order.
var rules = []rule{
	{
		id:          "sql-injection",
		title:       "SQL Injection",
		severity:    models.SeverityCritical,
		category:    models.CategorySecurity,
		description: "Concatenating user input into SQL allows injection.",
		impact:      "Attackers can read or modify database data.",
		suggestion:  "Use parameterized queries and pass values as bound arguments.",
		match: func(sc *scan, i int) bool {
			l := sc.lines[i]
			return sqlConcatRe.MatchString(l) || sqlInterpRe.MatchString(l)
		},
	},
	{
		id:          "hardcoded-secret",
		title:       "Hardcoded secrets",
		severity:    models.SeverityCritical,
		category:    models.CategorySecurity,
		description: "Secrets should not be stored in source code.",
		impact:      "Anyone with access to the source can use the credential.",
		suggestion:  "Use environment variables or a secrets manager.",
		match: func(sc *scan, i int) bool {
			return secretRe.MatchString(sc.lines[i])
		},
	},
	{
		id:          "dangerous-eval",
		title:       "Dynamic code execution",
		severity:    models.SeverityHigh,
		category:    models.CategorySecurity,
		description: "eval/exec runs arbitrary code built at runtime.",
		impact:      "Untrusted input reaching this call leads to code execution.",
		suggestion:  "Parse the input explicitly instead of evaluating it.",
		match: func(sc *scan, i int) bool {
			return evalRe.MatchString(stripComment(sc.lines[i]))
		},
	},
	{
		id:          "nested-loop",
		title:       "Inefficient nested loop",
		severity:    models.SeverityHigh,
		category:    models.CategoryPerformance,
		description: "Nested loops make this O(n²); a set, map or single pass usually suffices.",
		suggestion:  "Index the inner collection in a set or map and iterate once.",
		match: func(sc *scan, i int) bool {
			return loopRe.MatchString(sc.lines[i]) && sc.loopDepth[i] == 2
		},
	},
	{
		id:          "unsafe-division",
		title:       "Unsafe division",
		severity:    models.SeverityMedium,
		category:    models.CategoryBugs,
		description: "No check for zero divisor.",
		suggestion:  "Check the divisor before dividing or handle the division error.",
		match: func(sc *scan, i int) bool {
			divisor := divisorOf(sc.lines[i])
			return divisor != "" && !guardsZero(sc.code, divisor)
		},
	},
	{
		id:          "bare-except",
		title:       "Bare except",
		severity:    models.SeverityLow,
		category:    models.CategoryBugs,
		description: "A bare except also catches KeyboardInterrupt and SystemExit.",
		suggestion:  "Catch the specific exceptions you expect.",
		match: func(sc *scan, i int) bool {
			return bareExceptRe.MatchString(sc.lines[i])
		},
	},
	{
		id:          "swallowed-exception",
		title:       "Swallowed exception",
		severity:    models.SeverityMedium,
		category:    models.CategoryBugs,
		description: "An empty catch block hides failures.",
		suggestion:  "Log or handle the error, or let it propagate.",
		match: func(sc *scan, i int) bool {
			return emptyCatchRe.MatchString(sc.lines[i])
		},
	},
	{
		id:          "debug-output",
		title:       "Debug output",
		severity:    models.SeverityLow,
		category:    models.CategoryStyle,
		description: "Debug printing left in code clutters output.",
		suggestion:  "Use a logger with levels, or remove the statement.",
		match: func(sc *scan, i int) bool {
			return debugOutputRe.MatchString(stripComment(sc.lines[i]))
		},
	},
	{
		id:          "long-line",
		title:       "Line too long",
		severity:    models.SeverityLow,
		category:    models.CategoryStyle,
		description: "Line exceeds 120 characters.",
		suggestion:  "Break the expression across several lines.",
		match: func(sc *scan, i int) bool {
			return len([]rune(sc.lines[i])) > maxLineLength
		},
	},
	{
		id:          "todo",
		title:       "Unresolved marker",
		severity:    models.SeverityInfo,
		category:    models.CategoryStyle,
		description: "A TODO/FIXME marker is still present.",
		suggestion:  "Resolve the marker or track it in an issue.",
		match: func(sc *scan, i int) bool {
			return todoRe.MatchString(sc.lines[i])
		},
	},
}

// loopDepths computes, from indentation, how many loops enclose each line.
func loopDepths(lines []string) []int {
	depths := make([]int, len(lines))
	var open []int // indentation of currently open loop headers
	for i, l := range lines {
		if strings.TrimSpace(l) == "" {
			depths[i] = len(open)
			continue
		}
		ind := indentOf(l)
		for len(open) > 0 && open[len(open)-1] >= ind {
			open = open[:len(open)-1]
		}
		if loopRe.MatchString(l) {
			open = append(open, ind)
		}
		depths[i] = len(open)
	}
	return depths
}

func indentOf(l string) int {
	n := 0
	for _, r := range l {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}

// stripComment drops a trailing # or // comment. It ignores quoting, which is
// good enough for the heuristics that use it.
func stripComment(l string) string {
	if i := strings.Index(l, "//"); i >= 0 {
		l = l[:i]
	}
	if i := strings.Index(l, "#"); i >= 0 && !strings.HasPrefix(strings.TrimSpace(l), "#include") {
		l = l[:i]
	}
	return l
}

// divisorOf returns the identifier divided by on l, or "".
func divisorOf(l string) string {
	trimmed := strings.TrimSpace(l)
	if strings.ContainsAny(trimmed, `"'`+"`") || strings.HasPrefix(trimmed, "#") ||
		strings.HasPrefix(trimmed, "import") || strings.HasPrefix(trimmed, "from ") {
		return ""
	}
	code := stripComment(l)
	if strings.Contains(code, "/*") || strings.Contains(code, "*/") {
		return ""
	}
	m := divisionRe.FindStringSubmatch(code)
	if m == nil {
		return ""
	}
	return m[1]
}

// guardsZero reports whether code compares divisor against zero anywhere.
func guardsZero(code, divisor string) bool {
	q := regexp.QuoteMeta(divisor)
	re := regexp.MustCompile(`\b` + q + `\s*(!=|==|!==|===|>|<=)\s*0\b|\b0\s*(!=|==|<|>=)\s*` + q + `\b|\bif\s+not\s+` + q + `\b|ZeroDivisionError`)
	return re.MatchString(code)
}
