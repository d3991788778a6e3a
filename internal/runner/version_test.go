package runner_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recap-org/tgen/internal/runner"
	"github.com/recap-org/tgen/internal/runner/runnertest"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		output string
		want   string
	}{
		{"git version 2.43.0\n", "2.43.0"},
		{"git version 2.39.3 (Apple Git-146)", "2.39.3"},
		{"Docker version 24.0.7, build afdd53b", "24.0.7"},
		{"0.62.0\n", "0.62.0"},
		{"v1.2", "1.2.0"},
	}
	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			v, err := runner.ParseVersion(tt.output)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())
		})
	}

	_, err := runner.ParseVersion("no digits here")
	assert.Error(t, err)
}

func TestToolVersion(t *testing.T) {
	fake := runnertest.New()
	fake.On("git", []string{"--version"}, runner.Result{Stdout: "git version 2.43.0\n"})
	fake.On("docker", []string{"--version"}, runner.Result{ExitCode: 1, Stderr: "daemon down"})

	v, err := runner.ToolVersion(context.Background(), fake, "git")
	require.NoError(t, err)
	assert.Equal(t, "2.43.0", v.String())

	_, err = runner.ToolVersion(context.Background(), fake, "docker")
	var exitErr *runner.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.ExitCode)
}

func TestSatisfies(t *testing.T) {
	v, err := runner.ParseVersion("2.43.0")
	require.NoError(t, err)

	ok, err := runner.Satisfies(v, ">= 2.28")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = runner.Satisfies(v, ">= 3")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = runner.Satisfies(v, "banana")
	assert.Error(t, err)
}
