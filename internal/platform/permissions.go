package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/helper/chroot"
	"github.com/go-git/go-billy/v5/osfs"
)

// Chmod sets permission bits when the filesystem supports it. On Windows
// this is a no-op because Windows does not support Unix-style permission
// bits.
func Chmod(fsys billy.Filesystem, path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	ch, ok := fsys.(billy.Chmod)
	if !ok {
		return nil
	}
	return ch.Chmod(path, mode.Perm())
}

// Chtimes sets the modification time. Filesystems implementing billy.Change
// are asked directly; OS-backed ones that only implement part of it are
// changed through the os package. Anything else is left untouched.
func Chtimes(fsys billy.Filesystem, path string, mtime time.Time) error {
	if ch, ok := fsys.(billy.Change); ok {
		return ch.Chtimes(path, mtime, mtime)
	}
	if real, ok := OSPath(fsys, path); ok {
		return os.Chtimes(real, mtime, mtime)
	}
	return nil
}

// OSPath returns the operating system path behind path when fsys is an osfs
// filesystem.
func OSPath(fsys billy.Filesystem, path string) (string, bool) {
	switch f := fsys.(type) {
	case *osfs.BoundOS:
		root := f.Root()
		if filepath.IsAbs(path) && (path == root || strings.HasPrefix(path, root+string(filepath.Separator))) {
			return filepath.Clean(path), true
		}
		return filepath.Join(root, path), true
	case *chroot.ChrootHelper:
		if isOS(f.Underlying()) {
			return filepath.Join(f.Root(), path), true
		}
	}
	return "", false
}

type underlier interface {
	Underlying() billy.Basic
}

// isOS unwraps b until it reaches the osfs implementation or runs out of
// layers.
func isOS(b billy.Basic) bool {
	for b != nil {
		switch u := b.(type) {
		case *osfs.ChrootOS, *osfs.BoundOS:
			return true
		case underlier:
			next := u.Underlying()
			if next == b {
				return false
			}
			b = next
		default:
			return false
		}
	}
	return false
}
