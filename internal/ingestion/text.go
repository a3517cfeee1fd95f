package ingestion

import (
	"regexp"
	"strings"
)

var (
	innerSpace  = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
	blankLines  = regexp.MustCompile(`\n{3,}`)
	bulletGlyph = regexp.MustCompile(`^[•·▪‣◦]\s*`)
)

// CleanText normalizes line endings and whitespace while keeping the
// document's structure: headings, bullets and up to one blank line between
// blocks.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.ReplaceAll(content, "\x00", "")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine collapses runs of spaces inside a line. Leading indentation is
// kept so nested bullets stay nested. Bullet glyphs from PDFs become "- ".
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "#") {
		return innerSpace.ReplaceAllString(trimmed, " ")
	}

	indent := line[:len(line)-len(trimmed)]
	indent = strings.ReplaceAll(indent, "\t", "    ")

	if bulletGlyph.MatchString(trimmed) {
		trimmed = bulletGlyph.ReplaceAllString(trimmed, "- ")
	}

	return indent + innerSpace.ReplaceAllString(trimmed, " ")
}
