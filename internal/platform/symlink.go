package platform

import (
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
)

// ReplaceSymlink creates a symbolic link at link pointing to target. A file
// or link already at link is removed first so repeated runs converge; an
// existing directory is an error.
func ReplaceSymlink(fsys billy.Filesystem, target, link string) error {
	info, err := fsys.Lstat(link)
	switch {
	case err == nil && info.IsDir():
		return fmt.Errorf("cannot replace directory %s with a symlink", link)
	case err == nil:
		if err := fsys.Remove(link); err != nil {
			return fmt.Errorf("removing %s: %w", link, err)
		}
	case !os.IsNotExist(err):
		return err
	}

	return fsys.Symlink(target, link)
}

// RemoveIfSymlink removes path when it is a symbolic link and reports whether
// it did. Missing paths and other file types are left alone.
func RemoveIfSymlink(fsys billy.Filesystem, path string) (bool, error) {
	info, err := fsys.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return false, nil
	}
	if err := fsys.Remove(path); err != nil {
		return false, fmt.Errorf("removing symlink %s: %w", path, err)
	}
	return true, nil
}

// IsSymlink reports whether path is a symbolic link.
func IsSymlink(fsys billy.Filesystem, path string) bool {
	info, err := fsys.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}
