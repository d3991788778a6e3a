package scaffold

import (
	"github.com/recap-org/tgen/internal/atom"
	"github.com/recap-org/tgen/internal/manifest"
)

// Data holds the values visible to rendered files.
type Data struct {
	ID       string
	Size     string
	Language string
	Setup    string
	Run      string
	Atoms    map[string]any
}

// NewData builds the render context for spec. Blocks and post commands are
// deliberately left out.
func NewData(spec manifest.TemplateSpec, atoms atom.Set) *Data {
	return newData(spec, atoms.Native())
}

func newData(spec manifest.TemplateSpec, atoms map[string]any) *Data {
	return &Data{
		ID:       spec.ID,
		Size:     spec.Size,
		Language: spec.Language,
		Setup:    spec.Setup,
		Run:      spec.Run,
		Atoms:    atoms,
	}
}

// Map returns the context as a fresh map keyed id, size, language, setup,
// run and atoms.
func (d *Data) Map() map[string]any {
	atoms := d.Atoms
	if atoms == nil {
		atoms = map[string]any{}
	}
	return map[string]any{
		"id":       d.ID,
		"size":     d.Size,
		"language": d.Language,
		"setup":    d.Setup,
		"run":      d.Run,
		"atoms":    atoms,
	}
}
