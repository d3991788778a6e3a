package devtest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recap-org/tgen/internal/manifest"
	"github.com/recap-org/tgen/internal/runner"
	"github.com/recap-org/tgen/internal/runner/runnertest"
)

func setup(t *testing.T, ids ...string) (out, logs string) {
	t.Helper()
	root := t.TempDir()
	out = filepath.Join(root, "out")
	logs = filepath.Join(root, "logs")
	for _, id := range ids {
		require.NoError(t, os.MkdirAll(filepath.Join(out, id), 0755))
	}
	return out, logs
}

func TestTestTemplates(t *testing.T) {
	out, logs := setup(t, "r-small", "py-small")

	fake := runnertest.New()
	fake.Handle("devcontainer", func(call runnertest.Call) (runner.Result, error) {
		line := call.Line()
		if strings.Contains(line, "py-small") && strings.Contains(line, "make run") {
			return runner.Result{Stdout: "FAIL\n", ExitCode: 1}, nil
		}
		return runner.Result{Stdout: "ok\n"}, nil
	})

	var progress strings.Builder
	tester := New(fake, Options{OutDir: out, LogDir: logs, Out: &progress})
	specs := []manifest.TemplateSpec{
		{ID: "r-small", Setup: "make setup", Run: "make run"},
		{ID: "py-small", Setup: "make setup", Run: "make run"},
	}

	summary, err := tester.Test(context.Background(), specs)
	require.ErrorIs(t, err, ErrFailed)
	assert.Equal(t, []string{"r-small"}, summary.Passed)
	assert.Equal(t, []string{"py-small"}, summary.Failed)

	rDir := filepath.Join(out, "r-small")
	lines := fake.Lines()
	require.Len(t, lines, 6)
	assert.Equal(t, "devcontainer up --workspace-folder "+rDir, lines[0])
	assert.Equal(t, `devcontainer exec --workspace-folder `+rDir+` bash -c "make setup"`, lines[1])
	assert.Equal(t, `devcontainer exec --workspace-folder `+rDir+` bash -c "make run"`, lines[2])

	data, err := os.ReadFile(filepath.Join(logs, "test-r-small.log"))
	require.NoError(t, err)
	log := string(data)
	assert.True(t, strings.HasPrefix(log, "Test log for template: r-small\n"))
	assert.Equal(t, 3, strings.Count(log, "Command: devcontainer"))
	assert.Equal(t, 3, strings.Count(log, "Exit code: 0"))
	assert.Contains(t, log, "ok\n")

	data, err = os.ReadFile(filepath.Join(logs, "test-py-small.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "FAIL\n")
	assert.Contains(t, string(data), "Exit code: 1")

	assert.Contains(t, progress.String(), "  - py-small")
}

func TestTestStopsTemplateAtFirstFailingStep(t *testing.T) {
	out, logs := setup(t, "a")
	fake := runnertest.New()
	fake.Handle("devcontainer", func(call runnertest.Call) (runner.Result, error) {
		return runner.Result{ExitCode: 1}, nil
	})

	_, err := New(fake, Options{OutDir: out, LogDir: logs}).Test(context.Background(), []manifest.TemplateSpec{{ID: "a", Setup: "s", Run: "r"}})
	require.Error(t, err)
	assert.Len(t, fake.Calls(), 1, "setup and run must not run after up fails")
}

func TestTestMissingOutput(t *testing.T) {
	out, logs := setup(t)
	fake := runnertest.New()

	summary, err := New(fake, Options{OutDir: out, LogDir: logs}).Test(context.Background(), []manifest.TemplateSpec{{ID: "ghost"}})
	require.ErrorIs(t, err, ErrFailed)
	assert.Equal(t, []string{"ghost"}, summary.Failed)
	assert.Empty(t, fake.Calls())
}
