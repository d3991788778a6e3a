package scaffold

import "path/filepath"

// Layout locates the source and output trees.
type Layout struct {
	// FilesDir holds files shared by every template. It may be absent.
	FilesDir string
	// BlocksDir holds one directory per block.
	BlocksDir string
	// AtomsDir holds atoms. It may be absent.
	AtomsDir string
	// OutDir receives one directory per template id.
	OutDir string
}

// NewLayout returns the conventional layout below src and out.
func NewLayout(src, out string) Layout {
	return Layout{
		FilesDir:  filepath.Join(src, "files"),
		BlocksDir: filepath.Join(src, "blocks"),
		AtomsDir:  filepath.Join(src, "atoms"),
		OutDir:    out,
	}
}

// BlockDir returns the source directory of a block.
func (l Layout) BlockDir(name string) string {
	return filepath.Join(l.BlocksDir, name)
}

// OutputDir returns the output directory of a template.
func (l Layout) OutputDir(id string) string {
	return filepath.Join(l.OutDir, id)
}
