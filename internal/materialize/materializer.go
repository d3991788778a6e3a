package materialize

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/recap-org/tgen/internal/logging"
	"github.com/recap-org/tgen/internal/platform"
)

// Result lists what a Materialize call produced. Paths are relative to the
// destination and slash-separated.
type Result struct {
	Files []string
	// Overridden holds paths written by more than one layer; the last layer
	// wins.
	Overridden []string
}

// Materializer writes layered source trees into a destination directory.
type Materializer struct {
	fs       billy.Filesystem
	profiles Profiles
	funcs    template.FuncMap
}

// Option configures a Materializer.
type Option func(*Materializer)

// WithProfiles replaces the delimiter profiles.
func WithProfiles(p Profiles) Option {
	return func(m *Materializer) { m.profiles = p }
}

// WithFuncs adds template functions on top of FuncMap.
func WithFuncs(funcs template.FuncMap) Option {
	return func(m *Materializer) {
		for name, fn := range funcs {
			m.funcs[name] = fn
		}
	}
}

// New returns a Materializer working on fsys with DefaultProfiles.
func New(fsys billy.Filesystem, opts ...Option) *Materializer {
	m := &Materializer{
		fs:       fsys,
		profiles: DefaultProfiles(),
		funcs:    FuncMap(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Profiles returns the delimiter profiles in use.
func (m *Materializer) Profiles() Profiles { return m.profiles }

// Materialize folds layers, in order, into dst. Every file below a layer is
// classified by name and copied, rendered against data, or recreated as a
// symlink at the same relative path. Directories produce nothing on their
// own. dst is created if needed but is not cleared first.
func (m *Materializer) Materialize(ctx context.Context, layers []string, dst string, data map[string]any) (*Result, error) {
	if err := m.fs.MkdirAll(dst, 0755); err != nil {
		return nil, &FilesystemError{Op: "mkdir", Path: dst, Err: err}
	}

	w := &walker{
		m:          m,
		ctx:        ctx,
		dst:        dst,
		data:       data,
		written:    make(map[string]int),
		overridden: make(map[string]bool),
	}
	for i, layer := range layers {
		w.layer = i
		logging.FromContext(ctx).Debug("materializing layer", "layer", layer, "dst", dst)
		if err := w.walk(layer, ""); err != nil {
			return nil, err
		}
	}

	res := &Result{}
	for rel := range w.written {
		res.Files = append(res.Files, rel)
	}
	sort.Strings(res.Files)
	for rel := range w.overridden {
		res.Overridden = append(res.Overridden, rel)
	}
	sort.Strings(res.Overridden)
	return res, nil
}

type walker struct {
	m    *Materializer
	ctx  context.Context
	dst  string
	data map[string]any

	layer      int
	written    map[string]int
	overridden map[string]bool
}

// walk visits root/rel in name order.
func (w *walker) walk(root, rel string) error {
	fsys := w.m.fs
	dir := fsys.Join(root, filepath.FromSlash(rel))

	entries, err := platform.ReadDirSorted(fsys, dir)
	if err != nil {
		return &FilesystemError{Op: "read", Path: dir, Err: err}
	}

	for _, entry := range entries {
		if err := w.ctx.Err(); err != nil {
			return err
		}

		src := fsys.Join(dir, entry.Name())
		info := entry
		if entry.Mode()&os.ModeSymlink != 0 {
			// Links inside a layer are followed.
			if info, err = fsys.Stat(src); err != nil {
				return &FilesystemError{Op: "stat", Path: src, Err: err}
			}
		}

		if info.IsDir() {
			if err := w.walk(root, path.Join(rel, entry.Name())); err != nil {
				return err
			}
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		if err := w.file(src, rel, entry.Name(), info.Mode()); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) file(src, rel, name string, mode os.FileMode) error {
	action := Classify(name, w.m.profiles)
	key := path.Join(rel, action.Name)
	out := w.m.fs.Join(w.dst, filepath.FromSlash(key))

	if prev, ok := w.written[key]; ok && prev != w.layer {
		w.overridden[key] = true
	}
	w.written[key] = w.layer

	logging.FromContext(w.ctx).Debug("materializing file", "src", src, "path", key, "kind", action.Kind.String())

	switch action.Kind {
	case KindSymlink:
		return w.symlink(src, out)
	case KindRender:
		return w.render(src, out, action.Profile, mode)
	default:
		if err := platform.CopyFile(w.m.fs, src, out); err != nil {
			return &FilesystemError{Op: "copy", Path: src, Err: err}
		}
		return nil
	}
}

func (w *walker) symlink(src, out string) error {
	content, err := util.ReadFile(w.m.fs, src)
	if err != nil {
		return &FilesystemError{Op: "read", Path: src, Err: err}
	}
	target := strings.TrimSpace(string(content))
	if target == "" {
		return &FilesystemError{Op: "symlink", Path: src, Err: errors.New("empty link target")}
	}
	if err := w.m.fs.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return &FilesystemError{Op: "mkdir", Path: filepath.Dir(out), Err: err}
	}
	if err := platform.ReplaceSymlink(w.m.fs, target, out); err != nil {
		return &FilesystemError{Op: "symlink", Path: out, Err: err}
	}
	return nil
}

func (w *walker) render(src, out string, profile Profile, mode os.FileMode) error {
	text, err := util.ReadFile(w.m.fs, src)
	if err != nil {
		return &FilesystemError{Op: "read", Path: src, Err: err}
	}
	rendered, err := Render(src, string(text), profile, w.data, w.m.funcs)
	if err != nil {
		return err
	}
	if err := platform.WriteFile(w.m.fs, out, strings.NewReader(rendered), mode); err != nil {
		return &FilesystemError{Op: "write", Path: out, Err: err}
	}
	return nil
}
