package atom

import (
	"errors"
	"fmt"
)

// Sentinel causes carried by LoadError.
var (
	ErrNameCollision    = errors.New("name collision")
	ErrMissingExtension = errors.New("missing extension")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrDecode           = errors.New("cannot decode")
)

// LoadError reports a malformed atom. Name is the atom name, Path the file or
// directory at fault.
type LoadError struct {
	Name string
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading atom %q (%s): %v", e.Name, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
