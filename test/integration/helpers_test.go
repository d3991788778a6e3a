//go:build integration

package integration_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/recap-org/tgen/internal/config"
)

// testEnv holds an isolated project tree.
type testEnv struct {
	Root string // project root holding templates.yaml, src/ and out/
}

// setupTestEnv creates a project with global files, two blocks and atoms of
// every shape.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{Root: t.TempDir()}

	writeFile(t, env.path("templates.yaml"), `release: "2026-q1"
templates:
  - id: r-small
    size: small
    language: r
    setup: make setup
    run: make run
    blocks: [r]
  - id: r-paper
    size: large
    language: r
    setup: make setup
    run: make paper
    blocks: [r, latex]
    post: make post
`)

	// Global files.
	writeFile(t, env.path("src/files/README.md.tmpl"), "# {{ .id }}\n\n{{ .atoms.readme.md }}")
	writeFile(t, env.path("src/files/dot_gitignore"), "*.log\n")
	writeFile(t, env.path("src/files/.devcontainer/devcontainer.json.tmpl"), "{{ toJSON .atoms.devcontainer.json }}\n")
	writeFile(t, env.path("src/files/Makefile"), "run:\n\t@echo base\n")

	// Blocks.
	writeFile(t, env.path("src/blocks/r/Makefile.tmpl"), "setup:\n\t{{ .setup }}\nrun:\n\tRscript analysis.R\n")
	writeFile(t, env.path("src/blocks/r/analysis.R.tmpl"), "# {{ .id }} ({{ .size }})\n")
	writeFile(t, env.path("src/blocks/latex/paper/main.tex.tmpl"), "\\documentclass{article}\n\\title{((* .id *))}\n\\newcommand{\\r}{{{1}}}\n")
	writeFile(t, env.path("src/blocks/latex/shared.symlink"), "../shared/lib\n")

	// Atoms: text, structured (HCL) and composite.
	writeFile(t, env.path("src/atoms/license.txt"), "MIT\n")
	writeFile(t, env.path("src/atoms/ports.hcl"), "rstudio = 8787\n")
	writeFile(t, env.path("src/atoms/readme/footer.md"), "Licensed under {{ .atoms.license }}.\n")
	writeFile(t, env.path("src/atoms/devcontainer/devcontainer.json"), `{"name": "recap", "forwardPorts": [8787]}`)
	writeFile(t, env.path("src/atoms/devcontainer/notes.md"), "notes\n")

	return env
}

func (e *testEnv) path(rel string) string {
	return filepath.Join(e.Root, filepath.FromSlash(rel))
}

// loadConfig resolves the configuration for the project root.
func (e *testEnv) loadConfig(t *testing.T, overrides map[string]any) *config.Config {
	t.Helper()
	v := config.New()
	v.Set("root", e.Root)
	for k, val := range overrides {
		v.Set(k, val)
	}
	cfg, err := config.Load(v, "")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return cfg
}

// requireGit skips the test when git is not available and isolates git from
// the user's configuration.
func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not on PATH")
	}
	t.Setenv("GIT_CONFIG_GLOBAL", os.DevNull)
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	t.Setenv("GIT_AUTHOR_NAME", "tgen")
	t.Setenv("GIT_AUTHOR_EMAIL", "tgen@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "tgen")
	t.Setenv("GIT_COMMITTER_EMAIL", "tgen@example.com")
}

// git runs git in dir and returns its trimmed stdout.
func git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

// bareRepo creates a bare repository with one commit on main and returns
// its path.
func bareRepo(t *testing.T, dir, name string) string {
	t.Helper()
	bare := filepath.Join(dir, name+".git")
	git(t, dir, "init", "--bare", "--initial-branch=main", bare)

	work := filepath.Join(t.TempDir(), name)
	git(t, dir, "clone", bare, work)
	writeFile(t, filepath.Join(work, "OLD.md"), "from a previous deploy\n")
	git(t, work, "add", "-A")
	git(t, work, "commit", "-m", "initial")
	git(t, work, "push", "origin", "HEAD:main")
	return bare
}

// writeFile creates a file at the given path with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Lstat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}

// assertSymlink fails unless path is a symlink pointing at target.
func assertSymlink(t *testing.T, path, target string) {
	t.Helper()
	got, err := os.Readlink(path)
	if err != nil {
		t.Errorf("expected symlink at %s: %v", path, err)
		return
	}
	if got != target {
		t.Errorf("symlink %s points at %q, want %q", path, got, target)
	}
}
