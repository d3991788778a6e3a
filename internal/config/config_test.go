package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recap-org/tgen/internal/materialize"
)

func TestLoadDefaults(t *testing.T) {
	root := t.TempDir()
	v := New()
	v.Set("root", root)

	cfg, err := Load(v, "")
	require.NoError(t, err)

	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, filepath.Join(root, "templates.yaml"), cfg.Manifest)
	assert.Equal(t, filepath.Join(root, "src"), cfg.Src)
	assert.Equal(t, filepath.Join(root, "out"), cfg.Out)
	assert.Equal(t, filepath.Join(root, "logs"), cfg.Logs)
	assert.Equal(t, 1, cfg.Jobs)
	assert.False(t, cfg.FailFast)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "git@github.com:recap-org/template-{id}.git", cfg.Deploy.RepoURL)
	assert.Equal(t, "main", cfg.Deploy.Branch)
	assert.Equal(t, "ghcr.io/recap-org/{language}:{release}", cfg.Post.Image)
	assert.Empty(t, cfg.File)

	layout := cfg.Layout()
	assert.Equal(t, filepath.Join(root, "src", "files"), layout.FilesDir)
	assert.Equal(t, filepath.Join(root, "src", "blocks"), cfg.BlocksDir())
	assert.Equal(t, filepath.Join(root, "src", "atoms"), layout.AtomsDir)
	assert.Equal(t, filepath.Join(root, "out"), layout.OutDir)
}

func TestLoadProjectFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "tgen.yaml"), []byte(`
out: build/out
jobs: 4
deploy:
  branch: release
render:
  delimiters:
    rmd:
      left: "<%"
      right: "%>"
`), 0644))

	v := New()
	v.Set("root", root)
	cfg, err := Load(v, "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "tgen.yaml"), cfg.File)
	assert.Equal(t, filepath.Join(root, "build", "out"), cfg.Out)
	assert.Equal(t, 4, cfg.Jobs)
	assert.Equal(t, "release", cfg.Deploy.Branch)

	profiles := cfg.Profiles()
	assert.Equal(t, "<%", profiles.For(".rmd").Left)
	assert.Equal(t, materialize.TeXProfile, profiles.For(".tex"))
	assert.Equal(t, materialize.DefaultProfile, profiles.For(".md"))
}

func TestLoadEnvAndFlags(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "tgen.yaml"), []byte("jobs: 4\nout: file-out\n"), 0644))
	t.Setenv("TGEN_OUT", "env-out")
	t.Setenv("TGEN_LOG_LEVEL", "debug")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("root", ".", "")
	fs.Int("jobs", 1, "")
	fs.Bool("fail-fast", false, "")
	require.NoError(t, fs.Parse([]string{"--root", root, "--jobs", "8", "--fail-fast"}))

	v := New()
	require.NoError(t, BindFlags(v, fs))
	cfg, err := Load(v, "")
	require.NoError(t, err)

	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, 8, cfg.Jobs)
	assert.True(t, cfg.FailFast)
	assert.Equal(t, filepath.Join(root, "env-out"), cfg.Out)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadAbsolutePathsKept(t *testing.T) {
	root := t.TempDir()
	elsewhere := t.TempDir()

	v := New()
	v.Set("root", root)
	v.Set("out", elsewhere)
	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, elsewhere, cfg.Out)
}

func TestLoadExplicitFileMustExist(t *testing.T) {
	v := New()
	v.Set("root", t.TempDir())
	_, err := Load(v, filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
}

func TestLoadValidation(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "tgen.yaml"), []byte(`
jobs: 0
deploy:
  repo_url: git@github.com:org/fixed.git
render:
  delimiters:
    rmd:
      left: "<%"
`), 0644))

	v := New()
	v.Set("root", root)
	_, err := Load(v, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jobs must be at least 1")
	assert.Contains(t, err.Error(), "{id}")
	assert.Contains(t, err.Error(), "render.delimiters.rmd")
}
