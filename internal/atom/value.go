package atom

import "sort"

// Value is a loaded atom value. It is either Text or Structured.
type Value interface {
	// Native returns the plain Go value handed to templates.
	Native() any
	isValue()
}

// Text is the raw content of a file atom without a structured suffix.
type Text string

// Native returns the text as a string.
func (t Text) Native() any { return string(t) }

func (Text) isValue() {}

// Structured is a parsed JSON-like value: map[string]any, []any or a scalar.
type Structured struct {
	Data any
}

// Native returns the parsed data.
func (s Structured) Native() any { return s.Data }

func (Structured) isValue() {}

// Shape describes how an atom was sourced.
type Shape int

const (
	ShapeText Shape = iota
	ShapeStructured
	ShapeComposite
)

func (s Shape) String() string {
	switch s {
	case ShapeText:
		return "text"
	case ShapeStructured:
		return "structured"
	case ShapeComposite:
		return "composite"
	default:
		return "unknown"
	}
}

type entry struct {
	value Value
	shape Shape
	path  string
}

// Set is the immutable atom namespace produced by Load.
type Set struct {
	entries map[string]entry
}

// Len returns the number of atoms.
func (s Set) Len() int { return len(s.entries) }

// Names returns the atom names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the atom with the given name.
func (s Set) Get(name string) (Value, bool) {
	e, ok := s.entries[name]
	return e.value, ok
}

// Shape returns how the named atom was sourced.
func (s Set) Shape(name string) (Shape, bool) {
	e, ok := s.entries[name]
	return e.shape, ok
}

// Path returns the file or directory the named atom was loaded from.
func (s Set) Path(name string) (string, bool) {
	e, ok := s.entries[name]
	return e.path, ok
}

// Native returns a fresh map of atom names to plain Go values, the form
// templates see under "atoms". The nested values are shared and must be
// treated as read-only.
func (s Set) Native() map[string]any {
	out := make(map[string]any, len(s.entries))
	for name, e := range s.entries {
		out[name] = e.value.Native()
	}
	return out
}
