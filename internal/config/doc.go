// Package config resolves project settings from, in increasing priority,
// built-in defaults, an optional tgen.yaml in the project root, TGEN_*
// environment variables, and command-line flags. Paths in the result are
// absolute.
package config
