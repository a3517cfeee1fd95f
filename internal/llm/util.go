package llm

import (
	"encoding/json"
	"strings"
)

// CleanJSONBlock pulls the JSON payload out of a model response. Markdown
// fences are stripped; otherwise the longest balanced {...} or [...] span that
// is valid JSON wins (the earliest on a tie), so bracketed notes in a preamble
// such as "[JSON]" or "[1]" are skipped. Text with no such span is returned
// trimmed.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if body, ok := unfence(text); ok {
		return body
	}

	best := ""
	for i := 0; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		span := balancedSpan(text[i:])
		if span == "" || !json.Valid([]byte(span)) {
			continue
		}
		if len(span) > len(best) {
			best = span
		}
		// Spans nested inside a valid one are shorter.
		i += len(span) - 1
	}
	if best == "" {
		return text
	}
	return best
}

// unfence returns the body of a response that starts with a ``` fence.
// A short info string such as "json" on the opening line is dropped.
func unfence(text string) (string, bool) {
	rest, ok := strings.CutPrefix(text, "```")
	if !ok {
		return "", false
	}
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		info := rest[:nl]
		if len(info) < 20 && !strings.ContainsAny(info, " {[") {
			rest = rest[nl+1:]
		}
	}
	if end := strings.LastIndex(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest), true
}

// balancedSpan returns the prefix of s from its opening bracket to the
// matching close, ignoring brackets inside JSON strings. It returns "" when
// s does not start with a bracket or never closes.
func balancedSpan(s string) string {
	if s == "" {
		return ""
	}
	var open, closing byte
	switch s[0] {
	case '{':
		open, closing = '{', '}'
	case '[':
		open, closing = '[', ']'
	default:
		return ""
	}

	depth := 0
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}
