package scaffold

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recap-org/tgen/internal/atom"
	"github.com/recap-org/tgen/internal/manifest"
	"github.com/recap-org/tgen/internal/materialize"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func readGenerated(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(data)
}

// project lays out a small source tree with two blocks and two atoms.
func project(t *testing.T) Layout {
	t.Helper()
	root := t.TempDir()
	layout := NewLayout(filepath.Join(root, "src"), filepath.Join(root, "out"))

	writeTree(t, layout.FilesDir, map[string]string{
		"README.md.tmpl": "# {{ .id }}\n\n{{ .atoms.footer }}",
		"dot_gitignore":  "*.log\n",
		"Makefile":       "run:\n\t@echo base\n",
	})
	writeTree(t, layout.BlockDir("r"), map[string]string{
		"Makefile.tmpl":   "run:\n\t{{ .run }}\n",
		"analysis.R.tmpl": "# {{ .language }} / {{ .size }}\n",
	})
	writeTree(t, layout.BlockDir("latex"), map[string]string{
		"paper/main.tex.tmpl": "\\title{((* .id *))}\n",
		"lib.symlink":         "../shared/lib\n",
	})
	writeTree(t, layout.AtomsDir, map[string]string{
		"footer.md":         "Generated by tgen.\n",
		"devcontainer.yaml": "image: ghcr.io/recap-org/r\n",
	})
	return layout
}

func specs(ids ...string) *manifest.Manifest {
	m := &manifest.Manifest{Release: "2026-q1"}
	for _, id := range ids {
		m.Templates = append(m.Templates, manifest.TemplateSpec{
			ID:       id,
			Size:     "small",
			Language: "r",
			Setup:    "make setup",
			Run:      "make run",
			Blocks:   []string{"r", "latex"},
		})
	}
	return m
}

func TestNewDataMap(t *testing.T) {
	spec := manifest.TemplateSpec{
		ID: "r-small", Size: "small", Language: "r", Setup: "s", Run: "r",
		Blocks: []string{"r"}, Post: "make post",
	}
	d := NewData(spec, atom.Set{})
	got := d.Map()

	keys := make([]string, 0, len(got))
	for k := range got {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{"atoms", "id", "language", "run", "setup", "size"}, keys)
	assert.Equal(t, "r-small", got["id"])
	assert.Equal(t, map[string]any{}, got["atoms"])

	// Each call returns a fresh map.
	got["id"] = "changed"
	assert.Equal(t, "r-small", d.Map()["id"])
}

func TestGenerate(t *testing.T) {
	layout := project(t)

	var started []string
	g := NewGenerator(layout, OnStart(func(id string) { started = append(started, id) }))
	report, err := g.Generate(context.Background(), specs("r-small", "r-large"))
	require.NoError(t, err)

	assert.Equal(t, []string{"r-small", "r-large"}, started)
	assert.Equal(t, []string{"r-small", "r-large"}, report.Generated())
	assert.Empty(t, report.Failed())

	res := report.Templates[0]
	assert.Equal(t, filepath.Join(layout.OutDir, "r-small"), res.OutputDir)
	assert.Equal(t, []string{
		".gitignore",
		"Makefile",
		"README.md",
		"analysis.R",
		"lib",
		"paper/main.tex",
	}, res.Files)
	assert.Equal(t, []string{"Makefile"}, res.Overridden)

	dir := res.OutputDir
	assert.Equal(t, "# r-small\n\nGenerated by tgen.\n", readGenerated(t, dir, "README.md"))
	assert.Equal(t, "run:\n\tmake run\n", readGenerated(t, dir, "Makefile"))
	assert.Equal(t, "# r / small\n", readGenerated(t, dir, "analysis.R"))
	assert.Equal(t, "\\title{r-small}\n", readGenerated(t, dir, "paper/main.tex"))
	assert.Equal(t, "*.log\n", readGenerated(t, dir, ".gitignore"))

	target, err := os.Readlink(filepath.Join(dir, "lib"))
	require.NoError(t, err)
	assert.Equal(t, "../shared/lib", target)
}

func TestGenerateRemovesStaleFiles(t *testing.T) {
	layout := project(t)
	stale := filepath.Join(layout.OutputDir("r-small"), "old", "stale.txt")
	writeTree(t, layout.OutDir, map[string]string{"r-small/old/stale.txt": "stale"})

	_, err := NewGenerator(layout).Generate(context.Background(), specs("r-small"))
	require.NoError(t, err)

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateIsIdempotent(t *testing.T) {
	layout := project(t)
	g := NewGenerator(layout)

	first, err := g.Generate(context.Background(), specs("r-small"))
	require.NoError(t, err)
	second, err := g.Generate(context.Background(), specs("r-small"))
	require.NoError(t, err)

	assert.Equal(t, first.Templates[0].Files, second.Templates[0].Files)
	assert.Equal(t, "# r-small\n\nGenerated by tgen.\n", readGenerated(t, layout.OutputDir("r-small"), "README.md"))
}

func TestGenerateSelectsIDs(t *testing.T) {
	layout := project(t)

	report, err := NewGenerator(layout).Generate(context.Background(), specs("a", "b", "c"), "c", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, report.Generated())

	_, err = os.Stat(layout.OutputDir("b"))
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateUnknownIDTouchesNothing(t *testing.T) {
	layout := project(t)

	_, err := NewGenerator(layout).Generate(context.Background(), specs("a"), "a", "nope")
	var verr *manifest.ValidationError
	require.True(t, errors.As(err, &verr), "got %T: %v", err, err)
	assert.Contains(t, err.Error(), "nope")

	_, err = os.Stat(layout.OutDir)
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateAtomErrorTouchesNothing(t *testing.T) {
	layout := project(t)
	writeTree(t, layout.AtomsDir, map[string]string{"footer.txt": "collides with footer.md"})

	_, err := NewGenerator(layout).Generate(context.Background(), specs("a"))
	require.ErrorIs(t, err, atom.ErrNameCollision)

	_, err = os.Stat(layout.OutDir)
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateUnknownBlockKeepsPreviousOutput(t *testing.T) {
	layout := project(t)
	writeTree(t, layout.OutDir, map[string]string{"a/keep.txt": "previous run"})

	m := specs("a")
	m.Templates[0].Blocks = []string{"r", "python"}

	report, err := NewGenerator(layout).Generate(context.Background(), m)
	require.Error(t, err)

	var berr *UnknownBlockError
	require.True(t, errors.As(err, &berr), "got %T: %v", err, err)
	assert.Equal(t, "a", berr.TemplateID)
	assert.Equal(t, "python", berr.Block)
	assert.Equal(t, []string{"a"}, report.Failed())
	assert.Equal(t, "previous run", readGenerated(t, layout.OutputDir("a"), "keep.txt"))
}

func TestGenerateRejectsPathLikeIDs(t *testing.T) {
	layout := project(t)

	m := specs("demo", "./demo", "../src/blocks/latex")
	report, err := NewGenerator(layout).Generate(context.Background(), m)
	require.ErrorIs(t, err, ErrInvalidID)

	assert.Equal(t, []string{"demo"}, report.Generated())
	assert.Equal(t, []string{"./demo", "../src/blocks/latex"}, report.Failed())
	assert.Equal(t, "# r / small\n", readGenerated(t, layout.OutputDir("demo"), "analysis.R"))
	assert.FileExists(t, filepath.Join(layout.BlockDir("latex"), "lib.symlink"))
}

func TestGenerateContinuesAfterTemplateFailure(t *testing.T) {
	layout := project(t)
	writeTree(t, layout.BlockDir("broken"), map[string]string{
		"README.md.tmpl": "{{ .atoms.missing_atom }}\n",
	})

	m := specs("bad", "good")
	m.Templates[0].Blocks = []string{"broken"}

	report, err := NewGenerator(layout).Generate(context.Background(), m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template bad")

	var uerr *materialize.UndefinedVariableError
	require.True(t, errors.As(err, &uerr), "got %T: %v", err, err)
	assert.Equal(t, "atoms.missing_atom", uerr.Name)

	assert.Equal(t, []string{"good"}, report.Generated())
	assert.Equal(t, []string{"bad"}, report.Failed())
}

func TestGenerateFailFast(t *testing.T) {
	layout := project(t)
	writeTree(t, layout.BlockDir("broken"), map[string]string{
		"README.md.tmpl": "{{ .nope }}\n",
	})

	m := specs("bad", "next")
	m.Templates[0].Blocks = []string{"broken"}

	report, err := NewGenerator(layout, WithFailFast(true)).Generate(context.Background(), m)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"bad", "next"}, report.Failed())

	_, err = os.Stat(layout.OutputDir("next"))
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateConcurrent(t *testing.T) {
	layout := project(t)
	ids := []string{"t1", "t2", "t3", "t4", "t5", "t6"}

	var mu sync.Mutex
	seen := map[string]bool{}
	g := NewGenerator(layout, WithJobs(3), OnStart(func(id string) {
		mu.Lock()
		defer mu.Unlock()
		seen[id] = true
	}))

	report, err := g.Generate(context.Background(), specs(ids...))
	require.NoError(t, err)
	assert.Equal(t, ids, report.Generated())
	assert.Len(t, seen, len(ids))

	for _, id := range ids {
		assert.Equal(t, "# "+id+"\n\nGenerated by tgen.\n", readGenerated(t, layout.OutputDir(id), "README.md"))
	}
}

func TestGenerateWithoutFilesRoot(t *testing.T) {
	layout := project(t)
	require.NoError(t, os.RemoveAll(layout.FilesDir))

	report, err := NewGenerator(layout).Generate(context.Background(), specs("a"))
	require.NoError(t, err)
	assert.NotContains(t, report.Templates[0].Files, "README.md")
	assert.Contains(t, report.Templates[0].Files, "analysis.R")
}

func TestGenerateInMemory(t *testing.T) {
	fsys := memfs.New()
	layout := NewLayout("/project/src", "/project/out")
	files := map[string]string{
		"/project/src/files/README.md.tmpl": "# {{ .id }}\n{{ .atoms.footer }}",
		"/project/src/blocks/r/run.sh.tmpl": "{{ .run }} --port {{ .atoms.ports.rstudio }}\n",
		"/project/src/atoms/footer.md":      "In memory.\n",
		"/project/src/atoms/ports.yaml":     "rstudio: 8787\n",
	}
	for path, content := range files {
		require.NoError(t, util.WriteFile(fsys, path, []byte(content), 0644))
	}

	m := specs("mem")
	m.Templates[0].Blocks = []string{"r"}

	report, err := NewGenerator(layout, WithFilesystem(fsys)).Generate(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, []string{"mem"}, report.Generated())

	readme, err := util.ReadFile(fsys, "/project/out/mem/README.md")
	require.NoError(t, err)
	assert.Equal(t, "# mem\nIn memory.\n", string(readme))

	run, err := util.ReadFile(fsys, "/project/out/mem/run.sh")
	require.NoError(t, err)
	assert.Equal(t, "make run --port 8787\n", string(run))
}
