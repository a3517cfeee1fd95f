// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonathan/resume-genie/internal/llm"
	"github.com/jonathan/resume-genie/internal/pipeline"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// maxLinesToShow caps how much of a free-text document is boxed
	maxLinesToShow = 20
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(title, inner), inner))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		line = strings.ReplaceAll(line, "\t", "    ")
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, inner), inner))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to width runes, marking the cut with "...".
func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-3]) + "..."
}

func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// PrintDocument boxes a document. JSON documents are summarized key by key;
// anything else is shown up to maxLinesToShow lines.
func (p *Printer) PrintDocument(title string, doc pipeline.Document) {
	if doc.IsZero() {
		return
	}
	if title == "" {
		title = strings.ToUpper(string(doc.Role()))
	}
	p.printBox(title, Summarize(doc.Text()))
}

// PrintStepResult boxes one completed step with its timing.
func (p *Printer) PrintStepResult(r pipeline.StepResult) {
	title := fmt.Sprintf("STEP %d/%d: %s (%s)",
		r.Step.Index(), len(pipeline.Steps),
		strings.ToUpper(string(r.Document.Role())),
		r.Duration.Round(time.Millisecond))
	p.PrintDocument(title, r.Document)
}

// PrintProgress writes a one-line progress update.
//
//nolint:errcheck // writing to stderr; errors are not recoverable
func (p *Printer) PrintProgress(ev pipeline.ProgressEvent) {
	switch ev.Status {
	case pipeline.EventStepStarted:
		fmt.Fprintf(p.out, "→ [%d/%d] %s...\n", ev.Index, ev.Total, ev.Step)
	case pipeline.EventStepCompleted:
		fmt.Fprintf(p.out, "✓ [%d/%d] %s\n", ev.Index, ev.Total, ev.Message)
	case pipeline.EventStepFailed, pipeline.EventRunFailed:
		fmt.Fprintf(p.out, "✗ %s\n", ev.Message)
	default:
		fmt.Fprintf(p.out, "• %s\n", ev.Message)
	}
}

// PrintRunSummary boxes the status, timing and artifact sizes of a run.
func (p *Printer) PrintRunSummary(r *pipeline.Result) {
	if r == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Run:      %s\n", r.RunID)
	fmt.Fprintf(&sb, "Status:   %s\n", r.Status)
	if r.FailedStep != 0 {
		fmt.Fprintf(&sb, "Failed:   %s\n", r.FailedStep)
	}
	fmt.Fprintf(&sb, "Duration: %s\n", r.Duration().Round(time.Millisecond))

	if r.State != nil && len(r.State.History) > 0 {
		sb.WriteString("\nArtifacts:\n")
		for _, h := range r.State.History {
			fmt.Fprintf(&sb, "  • %-20s %6d chars  %s\n",
				h.Document.Role(), utf8.RuneCountInString(h.Document.Text()), h.Duration.Round(time.Millisecond))
		}
	}
	if r.Err != nil {
		fmt.Fprintf(&sb, "\nError: %v\n", r.Err)
	}

	p.printBox("RUN SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// Summarize renders text for a box. A JSON object becomes one line per key,
// lists are cut to maxItemsToShow items and plain text to maxLinesToShow
// lines.
func Summarize(text string) string {
	var obj map[string]any
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(text)), &obj); err == nil && len(obj) > 0 {
		return summarizeObject(obj)
	}

	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) <= maxLinesToShow {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[:maxLinesToShow], "\n") +
		fmt.Sprintf("\n... and %d more lines", len(lines)-maxLinesToShow)
}

func summarizeObject(obj map[string]any) string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteString("\n")
		}
		switch v := obj[k].(type) {
		case []any:
			fmt.Fprintf(&sb, "%s (%d):", k, len(v))
			count := min(len(v), maxItemsToShow)
			for _, item := range v[:count] {
				fmt.Fprintf(&sb, "\n  • %s", scalar(item))
			}
			if len(v) > maxItemsToShow {
				fmt.Fprintf(&sb, "\n  ... and %d more", len(v)-maxItemsToShow)
			}
		default:
			fmt.Fprintf(&sb, "%s: %s", k, scalar(v))
		}
	}
	return sb.String()
}

// scalar prints a JSON value on one line.
func scalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return "null"
	case map[string]any, []any:
		b, _ := json.Marshal(x)
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}
