package platform

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// ResetDir removes dir and everything below it, then recreates it empty.
func ResetDir(fsys billy.Filesystem, dir string) error {
	if err := util.RemoveAll(fsys, dir); err != nil {
		return fmt.Errorf("removing %s: %w", dir, err)
	}
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}

// ClearDir removes every child of dir except the names in keep.
func ClearDir(fsys billy.Filesystem, dir string, keep ...string) error {
	kept := make(map[string]bool, len(keep))
	for _, name := range keep {
		kept[name] = true
	}

	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	for _, entry := range entries {
		if kept[entry.Name()] {
			continue
		}
		path := fsys.Join(dir, entry.Name())
		if err := util.RemoveAll(fsys, path); err != nil {
			return fmt.Errorf("removing %s: %w", path, err)
		}
	}
	return nil
}

// ReadDirSorted lists dir sorted by name.
func ReadDirSorted(fsys billy.Filesystem, dir string) ([]os.FileInfo, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

// CopyTree recursively copies the children of src into dst. Symlinks are
// recreated as links, regular files keep their permission bits and
// modification time, and names for which skip returns true are not copied.
func CopyTree(fsys billy.Filesystem, src, dst string, skip func(name string) bool) error {
	if err := fsys.MkdirAll(dst, 0755); err != nil {
		return err
	}

	entries, err := ReadDirSorted(fsys, src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if skip != nil && skip(entry.Name()) {
			continue
		}

		srcPath := fsys.Join(src, entry.Name())
		dstPath := fsys.Join(dst, entry.Name())

		switch {
		case entry.Mode()&os.ModeSymlink != 0:
			target, err := fsys.Readlink(srcPath)
			if err != nil {
				return err
			}
			if err := ReplaceSymlink(fsys, target, dstPath); err != nil {
				return err
			}
		case entry.IsDir():
			if err := CopyTree(fsys, srcPath, dstPath, skip); err != nil {
				return err
			}
		case entry.Mode().IsRegular():
			if err := CopyFile(fsys, srcPath, dstPath); err != nil {
				return err
			}
		}
		// Other special files are skipped.
	}

	return nil
}

// CopyFile copies a single regular file, preserving permissions and
// modification time. An existing symlink at dst is replaced rather than
// written through.
func CopyFile(fsys billy.Filesystem, src, dst string) error {
	info, err := fsys.Stat(src)
	if err != nil {
		return err
	}

	in, err := fsys.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := WriteFile(fsys, dst, in, info.Mode()); err != nil {
		return err
	}
	return Chtimes(fsys, dst, info.ModTime())
}

// WriteFile writes r to path with the given permission bits, creating parent
// directories and replacing any symlink already at path.
func WriteFile(fsys billy.Filesystem, path string, r io.Reader, mode os.FileMode) error {
	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if _, err := RemoveIfSymlink(fsys, path); err != nil {
		return err
	}

	out, err := fsys.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return Chmod(fsys, path, mode)
}
