package atom

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// Load reads every atom directly under root on the OS filesystem. See
// LoadFS.
func Load(root string) (Set, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Set{}, fmt.Errorf("resolving atom root %s: %w", root, err)
	}
	return LoadFS(osfs.New("/"), abs)
}

// LoadFS reads every atom directly under root in fsys. A missing root is not
// an error: it yields an empty Set. Structural problems (name collisions,
// composite children without a suffix, duplicate composite keys, unparsable
// structured files) are reported as *LoadError.
func LoadFS(fsys billy.Filesystem, root string) (Set, error) {
	entries, err := fsys.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Set{entries: map[string]entry{}}, nil
		}
		return Set{}, fmt.Errorf("reading atom root %s: %w", root, err)
	}
	return loadEntries(fsys, root, entries)
}

// loadEntries builds a Set from the given children of root. Entries are
// sorted first so the result and any reported collision do not depend on
// the order the caller listed them in.
func loadEntries(fsys billy.Filesystem, root string, entries []os.FileInfo) (Set, error) {
	sorted := append([]os.FileInfo(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name() < sorted[j].Name() })

	set := Set{entries: make(map[string]entry, len(sorted))}
	owners := make(map[string]string, len(sorted))

	for _, fi := range sorted {
		path := fsys.Join(root, fi.Name())

		isDir, err := resolveDir(fsys, path, fi)
		if err != nil {
			return Set{}, err
		}

		name := fi.Name()
		if !isDir {
			name, _ = splitName(fi.Name())
		}

		if prev, dup := owners[name]; dup {
			return Set{}, &LoadError{
				Name: name,
				Path: path,
				Err:  fmt.Errorf("%w with %s", ErrNameCollision, prev),
			}
		}
		owners[name] = path

		var e entry
		if isDir {
			e, err = loadComposite(fsys, name, path)
		} else {
			e, err = loadFile(fsys, name, path)
		}
		if err != nil {
			return Set{}, err
		}
		set.entries[name] = e
	}

	return set, nil
}

// resolveDir reports whether an entry is a directory, following symlinks.
func resolveDir(fsys billy.Filesystem, path string, fi os.FileInfo) (bool, error) {
	if fi.Mode()&fs.ModeSymlink == 0 {
		return fi.IsDir(), nil
	}
	info, err := fsys.Stat(path)
	if err != nil {
		return false, fmt.Errorf("resolving atom %s: %w", path, err)
	}
	return info.IsDir(), nil
}

func loadFile(fsys billy.Filesystem, name, path string) (entry, error) {
	data, err := util.ReadFile(fsys, path)
	if err != nil {
		return entry{}, fmt.Errorf("reading atom %s: %w", path, err)
	}

	_, suffix := splitName(filepath.Base(path))
	v, err := decode(data, path, suffix)
	if err != nil {
		return entry{}, &LoadError{Name: name, Path: path, Err: fmt.Errorf("%w: %v", ErrDecode, err)}
	}

	shape := ShapeText
	if _, ok := v.(Structured); ok {
		shape = ShapeStructured
	}
	return entry{value: v, shape: shape, path: path}, nil
}

// loadComposite loads a directory atom. Each immediate file becomes one key
// named after its suffix without the leading dot; sub-directories are
// ignored.
func loadComposite(fsys billy.Filesystem, name, dir string) (entry, error) {
	children, err := fsys.ReadDir(dir)
	if err != nil {
		return entry{}, fmt.Errorf("reading atom directory %s: %w", dir, err)
	}

	data := make(map[string]any, len(children))
	owners := make(map[string]string, len(children))

	for _, child := range children {
		path := fsys.Join(dir, child.Name())

		isDir, err := resolveDir(fsys, path, child)
		if err != nil {
			return entry{}, err
		}
		if isDir {
			continue
		}

		_, suffix := splitName(child.Name())
		if suffix == "" {
			return entry{}, &LoadError{Name: name, Path: path, Err: ErrMissingExtension}
		}

		key := suffix[1:]
		if prev, dup := owners[key]; dup {
			return entry{}, &LoadError{
				Name: name,
				Path: path,
				Err:  fmt.Errorf("%w %q (also defined by %s)", ErrDuplicateKey, key, filepath.Base(prev)),
			}
		}
		owners[key] = path

		raw, err := util.ReadFile(fsys, path)
		if err != nil {
			return entry{}, fmt.Errorf("reading atom %s: %w", path, err)
		}
		v, err := decode(raw, path, suffix)
		if err != nil {
			return entry{}, &LoadError{Name: name, Path: path, Err: fmt.Errorf("%w: %v", ErrDecode, err)}
		}
		data[key] = v.Native()
	}

	return entry{value: Structured{Data: data}, shape: ShapeComposite, path: dir}, nil
}
