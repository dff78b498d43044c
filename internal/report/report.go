// Package report renders a full contract review as Markdown or HTML.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/ericksa/contractreview/internal/engine"
	"github.com/ericksa/contractreview/internal/knowledge"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// Review bundles every engine result for one document.
type Review struct {
	Title        string                    `json:"title"`
	GeneratedAt  time.Time                 `json:"generated_at"`
	Language     knowledge.Language        `json:"language"`
	Context      engine.ContextResult      `json:"context"`
	Jurisdiction *JurisdictionNote         `json:"jurisdiction,omitempty"`
	Scan         engine.ScanResult         `json:"scan"`
	Completeness engine.CompletenessResult `json:"completeness"`
}

// JurisdictionNote is the part of a profile worth repeating in a report.
type JurisdictionNote struct {
	Code      string             `json:"code"`
	Name      string             `json:"name"`
	KeyLaws   []knowledge.KeyLaw `json:"key_laws"`
	RiskFocus []string           `json:"risk_focus"`
	Notes     string             `json:"notes,omitempty"`
}

// Rendered is a report body ready to write or upload.
type Rendered struct {
	Format      string
	ContentType string
	Ext         string
	Body        []byte
}

// Build runs every scanner over text.
func Build(e *engine.Engine, title, text string) *Review {
	ctx := e.DetectContext(text)
	lang := ctx.DetectedLanguage
	if strings.TrimSpace(title) == "" {
		title = labels[lang.Display()]["default_title"]
	}

	r := &Review{
		Title:        title,
		GeneratedAt:  time.Now(),
		Language:     lang,
		Context:      ctx,
		Scan:         e.ScanRisks(text),
		Completeness: e.CheckCompleteness(text),
	}
	if j, ok := e.Knowledge().Jurisdiction(ctx.LikelyJurisdiction); ok {
		r.Jurisdiction = &JurisdictionNote{
			Code:      j.Code,
			Name:      j.Name.Get(lang),
			KeyLaws:   j.KeyLaws,
			RiskFocus: j.RiskFocus,
			Notes:     j.Notes,
		}
	}
	return r
}

var labels = map[knowledge.Language]map[string]string{
	knowledge.English: {
		"default_title": "Contract Review",
		"generated":     "Generated",
		"overview":      "Overview",
		"language":      "Language",
		"jurisdiction":  "Likely jurisdiction",
		"type":          "Contract type",
		"words":         "Word count",
		"risks":         "Risks",
		"no_risks":      "No risk patterns matched.",
		"severity":      "Severity",
		"keywords":      "Matched keywords",
		"context":       "Context",
		"advice":        "Recommendation",
		"completeness":  "Completeness",
		"score":         "Score",
		"element":       "Element",
		"present":       "Present",
		"evidence":      "Evidence",
		"missing":       "Missing elements",
		"key_laws":      "Key laws",
		"focus":         "Risk focus",
		"notes":         "Notes",
		"yes":           "yes",
		"no":            "no",
	},
	knowledge.Chinese: {
		"default_title": "合同审查报告",
		"generated":     "生成时间",
		"overview":      "概览",
		"language":      "语言",
		"jurisdiction":  "可能的法域",
		"type":          "合同类型",
		"words":         "词数",
		"risks":         "风险",
		"no_risks":      "未发现风险条款。",
		"severity":      "严重程度",
		"keywords":      "匹配关键词",
		"context":       "上下文",
		"advice":        "建议",
		"completeness":  "完整性",
		"score":         "得分",
		"element":       "要素",
		"present":       "是否具备",
		"evidence":      "依据",
		"missing":       "缺失要素",
		"key_laws":      "主要法律",
		"focus":         "风险关注点",
		"notes":         "备注",
		"yes":           "是",
		"no":            "否",
	},
}

const markdownTemplate = `# {{.Review.Title}}
**{{t "generated"}}:** {{.Review.GeneratedAt.Format "2006-01-02 15:04"}}

## {{t "overview"}}

| | |
|---|---|
| {{t "language"}} | {{.Review.Language}} |
| {{t "jurisdiction"}} | {{.Review.Context.LikelyJurisdiction}} |
| {{t "type"}} | {{.Review.Context.ContractType}} |
| {{t "words"}} | {{.Review.Context.WordCount}} |
| {{t "score"}} | {{.Review.Completeness.Score}} |

## {{t "risks"}} ({{.Review.Scan.Summary.Total}})
{{if eq .Review.Scan.Summary.Total 0}}
{{t "no_risks"}}
{{else}}
| high | medium | low |
|---|---|---|
| {{.Review.Scan.Summary.High}} | {{.Review.Scan.Summary.Medium}} | {{.Review.Scan.Summary.Low}} |
{{range .Review.Scan.Risks}}
### {{.Name}} ({{.Severity}})

{{.Description}}

- **{{t "keywords"}}:** {{join .MatchedKeywords ", "}}
{{- if .Context}}
- **{{t "context"}}:** {{.Context}}
{{- end}}
- **{{t "advice"}}:** {{.Recommendation}}
{{end}}
{{end}}
## {{t "completeness"}}: {{.Review.Completeness.Score}}

| {{t "element"}} | {{t "present"}} | {{t "evidence"}} |
|---|---|---|
{{range .Review.Completeness.Checklist -}}
| {{cell .Element}} | {{if .Found}}{{t "yes"}}{{else}}{{t "no"}}{{end}} | {{cell .Evidence}} |
{{end}}
{{- if .Review.Completeness.MissingElements}}
**{{t "missing"}}:** {{join .Review.Completeness.MissingElements ", "}}
{{end}}
{{- with .Review.Jurisdiction}}
## {{.Name}} ({{.Code}})

### {{t "key_laws"}}
{{range .KeyLaws}}
- **{{.Name}}**: {{.Description}}
{{- end}}

### {{t "focus"}}
{{range .RiskFocus}}
- {{.}}
{{- end}}
{{if .Notes}}
### {{t "notes"}}

{{.Notes}}
{{end}}
{{- end}}
`

// Markdown renders r with headings in the review's display language.
func Markdown(r *Review) ([]byte, error) {
	lang := r.Language.Display()
	funcs := texttemplate.FuncMap{
		"t":    func(key string) string { return labels[lang][key] },
		"join": strings.Join,
		"cell": func(s string) string {
			s = strings.ReplaceAll(s, "|", `\|`)
			return strings.Join(strings.Fields(s), " ")
		},
	}
	tmpl, err := texttemplate.New("report").Funcs(funcs).Parse(markdownTemplate)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Review *Review }{r}); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.Bytes(), nil
}

var markdownEngine = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(htmlrenderer.WithXHTML()),
)

var htmlPage = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<article>
{{.Body}}
</article>
</body>
</html>
`))

// HTML renders the Markdown report through goldmark into a standalone page.
func HTML(r *Review) ([]byte, error) {
	md, err := Markdown(r)
	if err != nil {
		return nil, err
	}
	var body bytes.Buffer
	if err := markdownEngine.Convert(md, &body); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	var page bytes.Buffer
	err = htmlPage.Execute(&page, struct {
		Lang  string
		Title string
		Body  template.HTML
	}{
		Lang:  string(r.Language.Display()),
		Title: r.Title,
		Body:  template.HTML(body.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return page.Bytes(), nil
}

// Render produces r in format. An empty format means Markdown.
func Render(r *Review, format string) (*Rendered, error) {
	switch strings.ToLower(format) {
	case "", FormatMarkdown, "md":
		body, err := Markdown(r)
		if err != nil {
			return nil, err
		}
		return &Rendered{Format: FormatMarkdown, ContentType: "text/markdown; charset=utf-8", Ext: "md", Body: body}, nil
	case FormatHTML:
		body, err := HTML(r)
		if err != nil {
			return nil, err
		}
		return &Rendered{Format: FormatHTML, ContentType: "text/html; charset=utf-8", Ext: "html", Body: body}, nil
	default:
		return nil, &FormatError{Format: format}
	}
}

// FormatError reports an unsupported output format.
type FormatError struct {
	Format string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unsupported report format: %q (want markdown or html)", e.Format)
}
