package scaffold

import (
	"errors"
	"fmt"
)

// UnknownBlockError reports a block name with no directory under the blocks
// root.
type UnknownBlockError struct {
	TemplateID string
	Block      string
	Path       string
}

func (e *UnknownBlockError) Error() string {
	return fmt.Sprintf("unknown block %q for template %s (no directory at %s)", e.Block, e.TemplateID, e.Path)
}

// ErrInvalidID reports a template id that does not name a single directory
// below the output root.
var ErrInvalidID = errors.New("template id must be a single path segment")
