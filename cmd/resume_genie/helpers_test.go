package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-genie/internal/config"
	"github.com/jonathan/resume-genie/internal/llm"
)

const testGuide = `{"interview_questions":[{"question":"Why Go?","suggested_answer":"Shipped three services in it."}],"key_talking_points":["on-call ownership"]}`

// stubGenerator answers every step and fails any prompt containing failOn.
// It keeps no state, so concurrent runs are safe.
func stubGenerator(failOn string) llm.Generator {
	return llm.GeneratorFunc(func(_ context.Context, prompt string) (string, error) {
		if failOn != "" && strings.Contains(prompt, failOn) {
			return "", errors.New("model unavailable")
		}
		switch {
		case strings.Contains(prompt, "interview coach"):
			return testGuide, nil
		case strings.Contains(prompt, "resume strategist"):
			return `{"summary":"Backend engineer","skills":["Go"]}`, nil
		case strings.Contains(prompt, "profiler"):
			return `{"highlight_relevant_skills":["Go"]}`, nil
		default:
			return `{"core_skills":["Go"]}`, nil
		}
	})
}

// generatorCalls records the config each pipeline was built with.
type generatorCalls struct {
	mu   sync.Mutex
	cfgs []config.Config
}

func (c *generatorCalls) last(t *testing.T) config.Config {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.cfgs, "no generator was built")
	return c.cfgs[len(c.cfgs)-1]
}

// useGenerator swaps the model backend for gen until the test ends.
func useGenerator(t *testing.T, gen llm.Generator) *generatorCalls {
	t.Helper()
	calls := &generatorCalls{}
	orig := newGenerator
	newGenerator = func(_ context.Context, cfg config.Config) (llm.Generator, func() error, error) {
		calls.mu.Lock()
		calls.cfgs = append(calls.cfgs, cfg)
		calls.mu.Unlock()
		return gen, func() error { return nil }, nil
	}
	t.Cleanup(func() { newGenerator = orig })
	return calls
}

// clearEnv blanks the environment variables the config layer reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"JOB_POSTING_PATH", "RESUME_PATH", "DATABASE_URL", "RABBITMQ_URL",
		"S3_ENDPOINT", "AWS_REGION", "LOG_LEVEL",
	} {
		t.Setenv(name, "")
	}
}

// runCLI runs the CLI with args and stdin and returns stdout and stderr.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// execute is runCLI with a clean environment and no input.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	clearEnv(t)
	return runCLI(t, "", args...)
}

// writeInputs creates a job posting and resume in a temp dir.
func writeInputs(t *testing.T, job string) (jobPath, resumePath string) {
	t.Helper()
	dir := t.TempDir()
	jobPath = filepath.Join(dir, "job.txt")
	resumePath = filepath.Join(dir, "resume.md")
	require.NoError(t, os.WriteFile(jobPath, []byte(job), 0644))
	require.NoError(t, os.WriteFile(resumePath, []byte("# Jane Doe\n\nBackend engineer, 6 years of Go."), 0644))
	return jobPath, resumePath
}
