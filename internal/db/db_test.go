package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-genie/internal/llm"
	"github.com/jonathan/resume-genie/internal/pipeline"
)

// runPipeline produces a real result from a stub generator. failAt > 0 makes
// that call fail.
func runPipeline(t *testing.T, failAt int) *pipeline.Result {
	t.Helper()
	call := 0
	gen := llm.GeneratorFunc(func(_ context.Context, _ string) (string, error) {
		call++
		if call == failAt {
			return "", errors.New("model unavailable")
		}
		return fmt.Sprintf("output %d", call), nil
	})

	result, err := pipeline.New(gen).Run(context.Background(), "Backend Engineer posting", "Jane Doe resume")
	if failAt == 0 {
		require.NoError(t, err)
	} else {
		require.Error(t, err)
	}
	require.NotNil(t, result)
	return result
}

func TestRecords_Completed(t *testing.T) {
	result := runPipeline(t, 0)

	run, artifacts := Records(result)
	assert.Equal(t, result.RunID, run.ID)
	assert.Equal(t, "completed", run.Status)
	assert.Empty(t, run.FailedStep)
	assert.Empty(t, run.Error)
	assert.Equal(t, "Backend Engineer posting", run.JobPosting)
	assert.Equal(t, "Jane Doe resume", run.Resume)
	require.NotNil(t, run.CompletedAt)
	assert.Equal(t, 4, run.Artifacts)

	require.Len(t, artifacts, 4)
	for i, a := range artifacts {
		assert.Equal(t, i+1, a.Position)
		assert.Equal(t, pipeline.Steps[i].String(), a.Step)
		assert.Equal(t, string(pipeline.Steps[i].OutputRole()), a.Role)
		assert.Equal(t, fmt.Sprintf("output %d", i+1), a.Text)
		assert.NotEmpty(t, a.Prompt)
		assert.Equal(t, result.RunID, a.RunID)
	}
}

func TestRecords_Failed(t *testing.T) {
	result := runPipeline(t, 2)

	run, artifacts := Records(result)
	assert.Equal(t, "failed", run.Status)
	assert.Equal(t, "enhanceProfile", run.FailedStep)
	assert.Contains(t, run.Error, "model unavailable")
	assert.Equal(t, 1, run.Artifacts)
	require.Len(t, artifacts, 1)
	assert.Equal(t, "analyzeRequirements", artifacts[0].Step)
}

func TestRunFilter_Normalize(t *testing.T) {
	f, err := RunFilter{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, DefaultListLimit, f.Limit)

	f, err = RunFilter{Status: "failed", Limit: 5, Offset: -3}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, 5, f.Limit)
	assert.Equal(t, 0, f.Offset)

	_, err = RunFilter{Status: "exploded"}.Normalize()
	assert.Error(t, err)
}

func TestNormalizeStep(t *testing.T) {
	for _, in := range []string{"polishResume", "polish_resume", "polish-resume", "refined resume"} {
		got, err := NormalizeStep(in)
		require.NoError(t, err, in)
		assert.Equal(t, "polishResume", got)
	}

	_, err := NormalizeStep("summarize")
	assert.Error(t, err)
}

func TestSchemaStatements(t *testing.T) {
	stmts := SchemaStatements(schemaSQL)
	require.Len(t, stmts, 4)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS runs")
	assert.Contains(t, stmts[3], "CREATE TABLE IF NOT EXISTS run_artifacts")

	assert.Empty(t, SchemaStatements(" ;\n; "))
}
