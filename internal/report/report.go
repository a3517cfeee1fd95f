// Package report renders pipeline runs as text, JSON, Markdown or HTML.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"github.com/jonathan/resume-genie/internal/db"
	"github.com/jonathan/resume-genie/internal/llm"
	"github.com/jonathan/resume-genie/internal/pipeline"
	"github.com/jonathan/resume-genie/internal/schemas"
)

// Format is an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatJSON, FormatMarkdown, FormatHTML}

// ParseFormat accepts a format name or a common alias ("md", "txt").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown format %q (valid: text, json, markdown, html)", s)
	}
}

// Section is one artifact in a report.
type Section struct {
	Step       string `json:"step"`
	Title      string `json:"title"`
	Text       string `json:"text"`
	DurationMs int64  `json:"duration_ms"`
	// Data is the decoded artifact when the text matches its step's schema.
	Data any `json:"data,omitempty"`
}

// Report is a run prepared for rendering, independent of whether it came
// from a live pipeline result or the run store.
type Report struct {
	RunID      uuid.UUID     `json:"run_id"`
	Status     string        `json:"status"`
	FailedStep string        `json:"failed_step,omitempty"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"-"`
	DurationMs int64         `json:"duration_ms"`
	Sections   []Section     `json:"artifacts"`
}

// Options controls what is rendered.
type Options struct {
	// All includes every artifact instead of only the final one.
	All bool
}

// FromResult builds a report from a pipeline result.
func FromResult(r *pipeline.Result) *Report {
	run, artifacts := db.Records(r)
	rep := FromRecords(&run, artifacts)
	rep.Duration = r.Duration()
	rep.DurationMs = rep.Duration.Milliseconds()
	return rep
}

// FromRecords builds a report from stored records.
func FromRecords(run *db.Run, artifacts []db.Artifact) *Report {
	rep := &Report{
		RunID:      run.ID,
		Status:     run.Status,
		FailedStep: run.FailedStep,
		Error:      run.Error,
		StartedAt:  run.StartedAt,
		Sections:   make([]Section, 0, len(artifacts)),
	}
	if run.CompletedAt != nil {
		rep.Duration = run.CompletedAt.Sub(run.StartedAt)
		rep.DurationMs = rep.Duration.Milliseconds()
	}
	for _, a := range artifacts {
		rep.Sections = append(rep.Sections, Section{
			Step:       a.Step,
			Title:      title(a.Role),
			Text:       a.Text,
			DurationMs: a.DurationMs,
			Data:       decode(a.Step, a.Text),
		})
	}
	return rep
}

// Final returns the interview guide section, if the run produced one.
func (r *Report) Final() (Section, bool) {
	last := pipeline.Steps[len(pipeline.Steps)-1].String()
	for _, s := range r.Sections {
		if s.Step == last {
			return s, true
		}
	}
	return Section{}, false
}

// selected returns the sections to render.
func (r *Report) selected(opts Options) []Section {
	if opts.All {
		return r.Sections
	}
	if final, ok := r.Final(); ok {
		return []Section{final}
	}
	return nil
}

// Render writes the report in the given format.
func Render(w io.Writer, rep *Report, format Format, opts Options) error {
	switch format {
	case FormatText, "":
		return renderText(w, rep, opts)
	case FormatJSON:
		return renderJSON(w, rep, opts)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(rep, opts))
		return err
	case FormatHTML:
		return renderHTML(w, rep, opts)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func renderText(w io.Writer, rep *Report, opts Options) error {
	sections := rep.selected(opts)
	var sb strings.Builder
	if !opts.All {
		if len(sections) == 1 {
			sb.WriteString(strings.TrimRight(sections[0].Text, "\n"))
			sb.WriteString("\n")
		}
	} else {
		for i, s := range sections {
			if i > 0 {
				sb.WriteString("\n")
			}
			fmt.Fprintf(&sb, "=== %s (%s) ===\n", s.Title, s.Step)
			sb.WriteString(strings.TrimRight(s.Text, "\n"))
			sb.WriteString("\n")
		}
	}
	if rep.Error != "" {
		fmt.Fprintf(&sb, "\nRun failed at %s: %s\n", rep.FailedStep, rep.Error)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func renderJSON(w io.Writer, rep *Report, opts Options) error {
	out := *rep
	out.Sections = rep.selected(opts)
	if out.Sections == nil {
		out.Sections = []Section{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// Markdown renders the report as a Markdown document. JSON artifacts are
// fenced so they survive conversion to HTML; schema-conforming ones lose any
// surrounding chatter.
func Markdown(rep *Report, opts Options) string {
	var sb strings.Builder
	sb.WriteString("# Resume Genie Report\n\n")
	fmt.Fprintf(&sb, "- **Run:** `%s`\n", rep.RunID)
	fmt.Fprintf(&sb, "- **Status:** %s\n", rep.Status)
	if rep.FailedStep != "" {
		fmt.Fprintf(&sb, "- **Failed step:** %s\n", rep.FailedStep)
	}
	if !rep.StartedAt.IsZero() {
		fmt.Fprintf(&sb, "- **Started:** %s\n", rep.StartedAt.UTC().Format(time.RFC3339))
	}
	if rep.Duration > 0 {
		fmt.Fprintf(&sb, "- **Duration:** %s\n", rep.Duration.Round(time.Millisecond))
	}
	if rep.Error != "" {
		fmt.Fprintf(&sb, "\n> **Error:** %s\n", rep.Error)
	}

	for _, s := range rep.selected(opts) {
		fmt.Fprintf(&sb, "\n## %s\n\n", s.Title)
		text := strings.TrimSpace(s.Text)
		if s.Data != nil {
			text = llm.CleanJSONBlock(text)
		}
		if looksLikeJSON(text) {
			sb.WriteString("```json\n")
			sb.WriteString(prettyJSON(text))
			sb.WriteString("\n```\n")
		} else {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

var htmlPage = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Resume Genie Report {{.RunID}}</title>
<style>body{font-family:sans-serif;max-width:48rem;margin:2rem auto;line-height:1.5}pre{background:#f5f5f5;padding:1rem;overflow-x:auto}</style>
</head>
<body>
{{.Body}}
</body></html>
`))

func renderHTML(w io.Writer, rep *Report, opts Options) error {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(rep, opts)), &body); err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	return htmlPage.Execute(w, struct {
		RunID string
		Body  template.HTML
	}{
		RunID: rep.RunID.String(),
		// goldmark escapes raw HTML in the source by default.
		Body: template.HTML(body.String()),
	})
}

// decode returns the structured form of a step's output, or nil when the step
// is unknown or the text does not satisfy the step's schema.
func decode(step, text string) any {
	kind, err := pipeline.ParseStepKind(step)
	if err != nil {
		return nil
	}
	v, err := schemas.Decode(kind.SchemaKind(), text)
	if err != nil {
		return nil
	}
	return v
}

func looksLikeJSON(s string) bool {
	return (strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) ||
		(strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"))
}

func prettyJSON(s string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(s), "", "  "); err != nil {
		return s
	}
	return buf.String()
}

// title turns a role like "job analysis" into "Job Analysis".
func title(role string) string {
	words := strings.Fields(role)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
