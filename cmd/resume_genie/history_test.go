package main

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-genie/internal/db"
	"github.com/jonathan/resume-genie/internal/report"
)

func TestHistory_RunIsStoredListedShownAndDeleted(t *testing.T) {
	useGenerator(t, stubGenerator(""))
	job, resume := writeInputs(t, "Backend engineer, Go and PostgreSQL")
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	stdout, _, err := execute(t, "run", "-j", job, "-r", resume, "--sqlite", dbPath, "--format", "json")
	require.NoError(t, err)
	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &rep))
	runID := rep.RunID.String()

	stdout, _, err = execute(t, "history", "list", "--sqlite", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, runID)
	assert.Contains(t, stdout, "completed")

	stdout, _, err = execute(t, "history", "list", "--sqlite", dbPath, "--status", "failed")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No runs found.")

	stdout, _, err = execute(t, "history", "show", runID, "--sqlite", dbPath, "--all")
	require.NoError(t, err)
	assert.Contains(t, stdout, "(analyzeRequirements)")
	assert.Contains(t, stdout, "on-call ownership")

	stdout, _, err = execute(t, "history", "delete", runID, "--sqlite", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Deleted run "+runID)

	_, _, err = execute(t, "history", "show", runID, "--sqlite", dbPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestHistory_FailedRunIsStored(t *testing.T) {
	useGenerator(t, stubGenerator("interview coach"))
	job, resume := writeInputs(t, "Backend engineer")
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	_, _, err := execute(t, "run", "-j", job, "-r", resume, "--sqlite", dbPath)
	require.Error(t, err)

	stdout, _, err := execute(t, "history", "list", "--sqlite", dbPath, "--status", "failed")
	require.NoError(t, err)
	assert.Contains(t, stdout, "prepareInterview")
}

func TestHistory_RequiresStore(t *testing.T) {
	_, _, err := execute(t, "history", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run history requires")
}

func TestHistory_InvalidArguments(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	_, _, err := execute(t, "history", "show", "not-a-uuid", "--sqlite", dbPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid run id")

	_, _, err = execute(t, "history", "list", "--sqlite", dbPath, "--status", "exploded")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown run status")

	_, _, err = execute(t, "history", "delete", "--sqlite", dbPath)
	assert.Error(t, err)
}
