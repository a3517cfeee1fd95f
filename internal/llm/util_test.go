package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	analysisJSON = `{"core_skills": ["Go", "testing"], "key_responsibilities": ["Own the payments API"]}`
	guideJSON    = `{"interview_questions": [{"question": "Why Go?", "suggested_answer": "Small language, fast builds."}], "key_talking_points": ["on-call ownership"]}`
)

func TestCleanJSONBlock_Fences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"json fence", "```json\n" + analysisJSON + "\n```", analysisJSON},
		{"bare fence", "```\n" + guideJSON + "\n```", guideJSON},
		{"other info string", "```javascript\n" + analysisJSON + "\n```", analysisJSON},
		{"fence without closing", "```json\n" + analysisJSON, analysisJSON},
		{"surrounding whitespace", "\n\n  " + guideJSON + "  \n", guideJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSONBlock(tt.input))
		})
	}
}

func TestCleanJSONBlock_Chatter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "preamble",
			input: "Here is the requirements analysis:\n" + analysisJSON,
			want:  analysisJSON,
		},
		{
			name:  "trailing advice",
			input: guideJSON + "\n\nGood luck with the interview!",
			want:  guideJSON,
		},
		{
			name:  "preamble before a fenced block",
			input: "Sure. The refined resume follows.\n```json\n" + `{"summary": "Backend engineer"}` + "\n```",
			want:  `{"summary": "Backend engineer"}`,
		},
		{
			name:  "bracketed word in preamble",
			input: "Here is the analysis [JSON]:\n" + analysisJSON,
			want:  analysisJSON,
		},
		{
			name:  "numbered references in preamble",
			input: "Based on [1] and [2], here is the guide:\n" + guideJSON + "\nSee [3].",
			want:  guideJSON,
		},
		{
			name:  "array of objects kept whole",
			input: `Entries: [{"title": "SWE"}, {"title": "SRE"}]`,
			want:  `[{"title": "SWE"}, {"title": "SRE"}]`,
		},
		{
			name:  "unbalanced brace in preamble",
			input: "Skills {see below:\n" + analysisJSON,
			want:  analysisJSON,
		},
		{
			name:  "top-level array",
			input: "Questions:\n" + `["Why Go?", "Tell me about an outage"]`,
			want:  `["Why Go?", "Tell me about an outage"]`,
		},
		{
			name:  "braces and escaped quotes inside strings",
			input: `Result: {"summary": "Writes {templated} \"fast\" code"} done`,
			want:  `{"summary": "Writes {templated} \"fast\" code"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSONBlock(tt.input))
		})
	}
}

func TestCleanJSONBlock_NoJSON(t *testing.T) {
	assert.Equal(t, "Practice your STAR stories.", CleanJSONBlock("  Practice your STAR stories.\n"))
	assert.Equal(t, "Use [brackets] but {no json", CleanJSONBlock("Use [brackets] but {no json"))
	assert.Equal(t, "", CleanJSONBlock(""))
}

func TestBalancedSpan(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"object", `{"core_skills": ["Go"]} rest`, `{"core_skills": ["Go"]}`},
		{"array of objects", `[{"question": "a"}, {"question": "b"}]!`, `[{"question": "a"}, {"question": "b"}]`},
		{"closing bracket in string", `{"note": "ends with ]"}`, `{"note": "ends with ]"}`},
		{"never closes", `{"core_skills": ["Go"]`, ""},
		{"not a bracket", "core_skills", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, balancedSpan(tt.input))
		})
	}
}
