package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-genie/internal/config"
	"github.com/jonathan/resume-genie/internal/report"
)

func TestRun_PrintsInterviewGuide(t *testing.T) {
	useGenerator(t, stubGenerator(""))
	job, resume := writeInputs(t, "Senior Go engineer. Own our payments platform.")

	stdout, _, err := execute(t, "run", "--job", job, "--resume", resume)
	require.NoError(t, err)

	assert.Contains(t, stdout, "on-call ownership")
	assert.NotContains(t, stdout, "Backend engineer", "only the final artifact is printed by default")
}

func TestRun_AllArtifactsAsJSONFile(t *testing.T) {
	useGenerator(t, stubGenerator(""))
	job, resume := writeInputs(t, "Site reliability engineer")
	out := filepath.Join(t.TempDir(), "report.json")

	stdout, _, err := execute(t, "run", "-j", job, "-r", resume, "--all", "--format", "json", "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Report written to "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var rep report.Report
	require.NoError(t, json.Unmarshal(data, &rep))

	assert.Equal(t, "completed", rep.Status)
	require.Len(t, rep.Sections, 4)
	steps := []string{rep.Sections[0].Step, rep.Sections[1].Step, rep.Sections[2].Step, rep.Sections[3].Step}
	assert.Equal(t, []string{"analyzeRequirements", "enhanceProfile", "polishResume", "prepareInterview"}, steps)
	assert.JSONEq(t, testGuide, rep.Sections[3].Text)
}

func TestRun_FailedStepKeepsEarlierOutputs(t *testing.T) {
	useGenerator(t, stubGenerator("resume strategist"))
	job, resume := writeInputs(t, "Platform engineer")

	stdout, _, err := execute(t, "run", "-j", job, "-r", resume)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step polishResume failed")
	assert.Contains(t, err.Error(), "model unavailable")

	assert.Contains(t, stdout, "(analyzeRequirements)")
	assert.Contains(t, stdout, "(enhanceProfile)")
	assert.NotContains(t, stdout, "(polishResume)")
	assert.Contains(t, stdout, "Run failed at polishResume")
}

func TestRun_MissingInputs(t *testing.T) {
	useGenerator(t, stubGenerator(""))

	_, _, err := execute(t, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--job and --resume must be provided")
}

func TestRun_MissingInputFile(t *testing.T) {
	useGenerator(t, stubGenerator(""))
	_, resume := writeInputs(t, "job")

	_, _, err := execute(t, "run", "-j", filepath.Join(t.TempDir(), "nope.txt"), "-r", resume)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job_posting file not found")
}

func TestRun_BlankInputRejected(t *testing.T) {
	useGenerator(t, stubGenerator(""))
	job, resume := writeInputs(t, "   \n\n  ")

	_, _, err := execute(t, "run", "-j", job, "-r", resume)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load job posting")
}

func TestRun_UnknownFormat(t *testing.T) {
	useGenerator(t, stubGenerator(""))
	job, resume := writeInputs(t, "job")

	_, _, err := execute(t, "run", "-j", job, "-r", resume, "--format", "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestRun_VerbosePrintsProgressToStderr(t *testing.T) {
	useGenerator(t, stubGenerator(""))
	job, resume := writeInputs(t, "Data engineer")

	stdout, stderr, err := execute(t, "run", "-j", job, "-r", resume, "-v")
	require.NoError(t, err)
	assert.Contains(t, stderr, "prepareInterview")
	assert.Contains(t, stdout, "on-call ownership")
}

func TestResolve_FlagsOverrideConfigFile(t *testing.T) {
	calls := useGenerator(t, stubGenerator(""))
	job, resume := writeInputs(t, "Staff engineer")

	cfgPath := filepath.Join(t.TempDir(), "genie.yaml")
	content := "provider: openai\ntier: advanced\nstep_timeout_seconds: 30\nresume: " + resume + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))

	_, _, err := execute(t, "run", "--config", cfgPath, "-j", job, "--tier", "lite")
	require.NoError(t, err)

	cfg := calls.last(t)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "lite", cfg.Tier, "explicit flag wins over the file")
	assert.Equal(t, 30, cfg.StepTimeoutSeconds)
	assert.Equal(t, resume, cfg.Resume)
	assert.Equal(t, job, cfg.JobPosting)
	assert.Equal(t, config.Defaults().Concurrency, cfg.Concurrency)
}

func TestResolve_EnvironmentFillsInputs(t *testing.T) {
	calls := useGenerator(t, stubGenerator(""))
	job, resume := writeInputs(t, "Security engineer")

	clearEnv(t)
	t.Setenv("JOB_POSTING_PATH", job)
	t.Setenv("RESUME_PATH", resume)
	_, _, err := runCLI(t, "", "run")
	require.NoError(t, err)

	cfg := calls.last(t)
	assert.Equal(t, job, cfg.JobPosting)
	assert.Equal(t, resume, cfg.Resume)
}

func TestResolve_InvalidFlagValue(t *testing.T) {
	useGenerator(t, stubGenerator(""))
	job, resume := writeInputs(t, "job")

	_, _, err := execute(t, "run", "-j", job, "-r", resume, "--provider", "skynet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'provider' failed 'oneof'")
}

func TestResolve_PromptsFileMustExist(t *testing.T) {
	useGenerator(t, stubGenerator(""))
	job, resume := writeInputs(t, "job")

	_, _, err := execute(t, "run", "-j", job, "-r", resume, "--prompts", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompts file not found")
}

func TestNewGenerator_RequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, _, err := newGenerator(t.Context(), config.Config{Provider: "openai", Tier: "standard"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	_, _, err = newGenerator(t.Context(), config.Config{Provider: "skynet"})
	assert.Error(t, err)
}
