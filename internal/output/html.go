package output

import (
	"bytes"
	"html"
	"html/template"
	"io"

	"github.com/yuin/goldmark"

	"github.com/joescharf/codereview/internal/models"
)

// markdown renders agent replies. Raw HTML in the source is omitted and
// dangerous link schemes are dropped.
var markdown = goldmark.New()

// EscapeHTML escapes text for inclusion in HTML. html.UnescapeString recovers
// the input exactly.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}

// MarkdownHTML renders agent markdown to HTML that carries no script.
func MarkdownHTML(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Page is the content of an HTML session report.
type Page struct {
	Title          string
	Code           string
	Report         *models.ReviewReport
	RefactoredCode string
	Chat           []models.ChatMessage
}

type chatBubble struct {
	Role models.Role
	Body template.HTML
}

var pageTmpl = template.Must(template.New("page").Funcs(template.FuncMap{
	"deref": func(p *int) int { return *p },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 960px; margin: 2rem auto; }
pre { background: #f5f5f5; padding: 1rem; overflow-x: auto; }
.sev-critical { color: #8b008b; } .sev-high { color: #c00; } .sev-medium { color: #b8860b; } .sev-low { color: #06c; }
.bubble { border-radius: 8px; padding: .5rem 1rem; margin: .5rem 0; }
.bubble-user { background: #e8f0fe; } .bubble-agent { background: #f1f3f4; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{with .Report}}
<h2>Health score: {{.HealthScore}}/100</h2>
<p>Language: {{.Context.Language}}{{with .Context.Purpose}} &middot; Purpose: {{.}}{{end}}</p>
<p>Critical {{.Summary.Critical}} &middot; High {{.Summary.High}} &middot; Medium {{.Summary.Medium}} &middot; Low {{.Summary.Low}}</p>
<ol class="issues">
{{range .Issues}}<li class="sev-{{.Severity}}"><strong>[{{.Severity}}] {{.Category}}{{with .Type}} &middot; {{.}}{{end}}</strong>{{if .Line}} (line {{deref .Line}}){{end}}
<p>{{.Description}}</p>
<p><em>{{.Suggestion}}</em></p></li>
{{end}}</ol>
{{end}}
{{with .Code}}<h2>Code</h2>
<pre><code>{{.}}</code></pre>{{end}}
{{with .RefactoredCode}}<h2>Refactored code</h2>
<pre><code>{{.}}</code></pre>{{end}}
{{with .Bubbles}}<h2>Chat</h2>
{{range .}}<div class="bubble bubble-{{.Role}}">{{.Body}}</div>
{{end}}{{end}}
</body>
</html>
`))

// WriteHTML renders p as a standalone HTML document. User text and code are
// escaped; agent replies go through MarkdownHTML.
func WriteHTML(w io.Writer, p Page) error {
	if p.Title == "" {
		p.Title = "Code review"
	}

	bubbles := make([]chatBubble, 0, len(p.Chat))
	for _, m := range p.Chat {
		var body template.HTML
		if m.Role == models.RoleAgent {
			md, err := MarkdownHTML(m.Content)
			if err != nil {
				return err
			}
			body = md
		} else {
			body = template.HTML("<p>" + EscapeHTML(m.Content) + "</p>")
		}
		bubbles = append(bubbles, chatBubble{Role: m.Role, Body: body})
	}

	return pageTmpl.Execute(w, struct {
		Page
		Bubbles []chatBubble
	}{p, bubbles})
}
