package scaffold

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"golang.org/x/sync/errgroup"

	"github.com/recap-org/tgen/internal/atom"
	"github.com/recap-org/tgen/internal/logging"
	"github.com/recap-org/tgen/internal/manifest"
	"github.com/recap-org/tgen/internal/materialize"
	"github.com/recap-org/tgen/internal/platform"
)

// TemplateResult is the outcome for one template.
type TemplateResult struct {
	ID        string
	OutputDir string
	// Files and Overridden are relative to OutputDir, see materialize.Result.
	Files      []string
	Overridden []string
	Err        error
}

// OK reports whether the template was generated.
func (r TemplateResult) OK() bool { return r.Err == nil }

// Report holds one result per selected template in manifest order.
type Report struct {
	Templates []TemplateResult
}

// Generated returns the ids that were generated successfully.
func (r *Report) Generated() []string {
	var ids []string
	for _, t := range r.Templates {
		if t.OK() {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// Failed returns the ids that failed or were skipped.
func (r *Report) Failed() []string {
	var ids []string
	for _, t := range r.Templates {
		if !t.OK() {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// Generator renders templates from a Layout.
type Generator struct {
	layout   Layout
	fs       billy.Filesystem
	profiles materialize.Profiles
	jobs     int
	failFast bool

	mu      sync.Mutex
	onStart func(id string)
}

// Option configures a Generator.
type Option func(*Generator)

// WithFilesystem sets the filesystem for source, atom and output access.
// Paths in the layout must be valid for it.
func WithFilesystem(fsys billy.Filesystem) Option {
	return func(g *Generator) { g.fs = fsys }
}

// WithProfiles sets the delimiter profiles used for rendered files.
func WithProfiles(p materialize.Profiles) Option {
	return func(g *Generator) { g.profiles = p }
}

// WithJobs sets how many templates are generated concurrently.
func WithJobs(n int) Option {
	return func(g *Generator) { g.jobs = n }
}

// WithFailFast stops scheduling templates after the first failure.
func WithFailFast(on bool) Option {
	return func(g *Generator) { g.failFast = on }
}

// OnStart registers a callback run before each template is generated. Calls
// are serialized.
func OnStart(fn func(id string)) Option {
	return func(g *Generator) { g.onStart = fn }
}

// NewGenerator returns a Generator for layout. By default it works on the OS
// filesystem, one template at a time, with materialize.DefaultProfiles.
func NewGenerator(layout Layout, opts ...Option) *Generator {
	g := &Generator{
		layout:   layout,
		fs:       osfs.New("/"),
		profiles: materialize.DefaultProfiles(),
		jobs:     1,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.jobs < 1 {
		g.jobs = 1
	}
	return g
}

// Generate renders the templates named by ids, or every template when ids
// is empty. Unknown ids and atom load failures are returned before any
// output is touched. Per-template failures are recorded in the report and
// joined into the returned error.
func (g *Generator) Generate(ctx context.Context, m *manifest.Manifest, ids ...string) (*Report, error) {
	specs, err := m.Select(ids...)
	if err != nil {
		return nil, err
	}

	atoms, err := atom.LoadFS(g.fs, g.layout.AtomsDir)
	if err != nil {
		return nil, err
	}
	native := atoms.Native()

	logger := logging.FromContext(ctx)
	logger.Debug("loaded atoms", "dir", g.layout.AtomsDir, "count", atoms.Len())

	mat := materialize.New(g.fs, materialize.WithProfiles(g.profiles))
	report := &Report{Templates: make([]TemplateResult, len(specs))}

	var grp *errgroup.Group
	gctx := ctx
	if g.failFast {
		grp, gctx = errgroup.WithContext(ctx)
	} else {
		grp = new(errgroup.Group)
	}
	grp.SetLimit(g.jobs)

	for i, spec := range specs {
		grp.Go(func() error {
			res := g.generate(gctx, mat, spec, native)
			report.Templates[i] = res
			if res.Err != nil {
				logger.Error("template failed", "id", spec.ID, "error", res.Err)
				if g.failFast {
					return res.Err
				}
			}
			return nil
		})
	}
	_ = grp.Wait()

	var errs []error
	for _, t := range report.Templates {
		if t.Err != nil {
			errs = append(errs, fmt.Errorf("template %s: %w", t.ID, t.Err))
		}
	}
	return report, errors.Join(errs...)
}

func (g *Generator) generate(ctx context.Context, mat *materialize.Materializer, spec manifest.TemplateSpec, atoms map[string]any) TemplateResult {
	res := TemplateResult{ID: spec.ID, OutputDir: g.layout.OutputDir(spec.ID)}
	if err := ctx.Err(); err != nil {
		res.Err = fmt.Errorf("skipped: %w", err)
		return res
	}

	if !validID(spec.ID) {
		res.Err = fmt.Errorf("%w: %q", ErrInvalidID, spec.ID)
		return res
	}

	// Layers are resolved first so a missing block leaves the previous
	// output in place.
	layers, err := g.layers(spec)
	if err != nil {
		res.Err = err
		return res
	}

	if g.onStart != nil {
		g.mu.Lock()
		g.onStart(spec.ID)
		g.mu.Unlock()
	}

	if err := platform.ResetDir(g.fs, res.OutputDir); err != nil {
		res.Err = &materialize.FilesystemError{Op: "reset", Path: res.OutputDir, Err: err}
		return res
	}

	logger := logging.FromContext(ctx).With("template", spec.ID)
	out, err := mat.Materialize(logging.WithLogger(ctx, logger), layers, res.OutputDir, newData(spec, atoms).Map())
	if err != nil {
		res.Err = err
		return res
	}

	res.Files = out.Files
	res.Overridden = out.Overridden
	logger.Info("generated template", "dir", res.OutputDir, "files", len(out.Files), "overridden", len(out.Overridden))
	return res
}

// validID reports whether id names exactly one directory below the output
// root, so ResetDir can never reach outside it.
func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

// layers returns the global files root, when present, followed by each
// block directory in declared order.
func (g *Generator) layers(spec manifest.TemplateSpec) ([]string, error) {
	var layers []string

	info, err := g.fs.Stat(g.layout.FilesDir)
	switch {
	case err == nil && info.IsDir():
		layers = append(layers, g.layout.FilesDir)
	case err != nil && !os.IsNotExist(err):
		return nil, &materialize.FilesystemError{Op: "stat", Path: g.layout.FilesDir, Err: err}
	}

	for _, block := range spec.Blocks {
		dir := g.layout.BlockDir(block)
		info, err := g.fs.Stat(dir)
		if err != nil || !info.IsDir() {
			return nil, &UnknownBlockError{TemplateID: spec.ID, Block: block, Path: dir}
		}
		layers = append(layers, dir)
	}
	return layers, nil
}
