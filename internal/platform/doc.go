// Package platform provides the filesystem operations shared by the
// materializer and the deploy step: symlink replacement, permission and
// timestamp preservation where the filesystem supports it, directory resets
// and tree copies. Every function works on a billy.Filesystem so the same
// code runs against the OS filesystem and in-memory filesystems in tests.
package platform
