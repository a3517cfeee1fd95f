package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-genie/internal/report"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestBatch_RunsEveryInputAndReportsFailures(t *testing.T) {
	useGenerator(t, stubGenerator("FAIL"))
	dir := t.TempDir()
	writeFile(t, dir, "good.txt", "Backend engineer")
	writeFile(t, dir, "bad.txt", "FAIL this posting")
	writeFile(t, dir, "resume.md", "Jane Doe, Go engineer")
	inputs := writeFile(t, dir, "inputs.yaml", `
- id: good
  job_posting: good.txt
  resume: resume.md
- id: bad
  job_posting: bad.txt
  resume: resume.md
`)
	outDir := filepath.Join(t.TempDir(), "reports")

	stdout, _, err := execute(t, "batch", inputs, "--output-dir", outDir, "--concurrency", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 runs failed")

	assert.Contains(t, stdout, "good")
	assert.Contains(t, stdout, "completed")
	assert.Contains(t, stdout, "step analyzeRequirements failed")

	good, err := os.ReadFile(filepath.Join(outDir, "good.md"))
	require.NoError(t, err)
	assert.Contains(t, string(good), "# Resume Genie Report")
	assert.FileExists(t, filepath.Join(outDir, "bad.md"))
}

func TestBatch_AllSucceed(t *testing.T) {
	useGenerator(t, stubGenerator(""))
	dir := t.TempDir()
	writeFile(t, dir, "job.txt", "SRE")
	writeFile(t, dir, "resume.md", "Jane Doe")
	inputs := writeFile(t, dir, "inputs.json", `[
		{"job_posting": "job.txt", "resume": "resume.md"},
		{"job_posting": "job.txt", "resume": "resume.md"}
	]`)

	stdout, _, err := execute(t, "batch", inputs)
	require.NoError(t, err)
	assert.Contains(t, stdout, "run-1")
	assert.Contains(t, stdout, "run-2")
}

func TestBatch_MissingSourceFails(t *testing.T) {
	useGenerator(t, stubGenerator(""))
	dir := t.TempDir()
	writeFile(t, dir, "resume.md", "Jane Doe")
	inputs := writeFile(t, dir, "inputs.yaml", "- id: one\n  job_posting: missing.txt\n  resume: resume.md\n")

	_, _, err := execute(t, "batch", inputs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `input "one"`)
}

func TestReadBatchInputs(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"empty list", "[]", "lists no runs"},
		{"missing resume", "- id: a\n  job_posting: j.txt\n", "needs both job_posting and resume"},
		{"duplicate ids", "- {id: a, job_posting: j, resume: r}\n- {id: a, job_posting: j, resume: r}\n", "duplicate input id"},
		{"not a list", "job_posting: j.txt", "failed to parse inputs file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "inputs.yaml", tt.content)
			_, err := readBatchInputs(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	path := writeFile(t, dir, "ok.yaml", "- {job_posting: j, resume: r}\n- {id: named, job_posting: j, resume: r}\n")
	inputs, err := readBatchInputs(path)
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, "run-1", inputs[0].ID)
	assert.Equal(t, "named", inputs[1].ID)
}

func TestRelativeTo(t *testing.T) {
	assert.Equal(t, filepath.Join("jobs", "a.txt"), relativeTo("jobs", "a.txt"))
	assert.Equal(t, "/abs/a.txt", relativeTo("jobs", "/abs/a.txt"))
	assert.Equal(t, "https://example.com/job", relativeTo("jobs", "https://example.com/job"))
	assert.Equal(t, "s3://bucket/resume.pdf", relativeTo("jobs", "s3://bucket/resume.pdf"))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".md", extension(report.FormatMarkdown))
	assert.Equal(t, ".json", extension(report.FormatJSON))
	assert.Equal(t, ".html", extension(report.FormatHTML))
	assert.Equal(t, ".txt", extension(report.FormatText))
}
