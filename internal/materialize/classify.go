package materialize

import "strings"

// Naming contracts for source files.
const (
	// DotfilePrefix marks a file whose output name starts with a dot:
	// dot_gitignore becomes .gitignore. Other names, including ones starting
	// with an underscore such as _quarto.yml, keep their name.
	DotfilePrefix = "dot_"
	// SymlinkSuffix marks a file whose trimmed content is a link target.
	SymlinkSuffix = ".symlink"
	// RenderSuffix marks a file rendered as a template.
	RenderSuffix = ".tmpl"
)

// Kind is how a source file is materialized.
type Kind int

const (
	KindCopy Kind = iota
	KindRender
	KindSymlink
)

func (k Kind) String() string {
	switch k {
	case KindCopy:
		return "copy"
	case KindRender:
		return "render"
	case KindSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// Action is the classification of a single source filename.
type Action struct {
	Kind Kind
	// Name is the output filename.
	Name string
	// Renamed is set when the dotfile prefix was rewritten.
	Renamed bool
	// Profile is the delimiter profile; only meaningful for KindRender.
	Profile Profile
}

// Classify decides how the file called name is materialized. The rules are
// applied in a fixed order: dotfile rename, then symlink, then render, and
// otherwise a plain copy. Only the base name is inspected.
func Classify(name string, profiles Profiles) Action {
	a := Action{Kind: KindCopy, Name: name}

	if rest, ok := trimPrefix(a.Name, DotfilePrefix); ok {
		a.Name = "." + rest
		a.Renamed = true
	}

	if base, ok := trimSuffix(a.Name, SymlinkSuffix); ok {
		a.Kind = KindSymlink
		a.Name = base
		return a
	}

	if base, ok := trimSuffix(a.Name, RenderSuffix); ok {
		a.Kind = KindRender
		a.Name = base
		a.Profile = profiles.For(Ext(base))
		return a
	}

	return a
}

// Ext returns the lower-cased extension of name including the dot. Leading
// dots do not start an extension, so ".bashrc" and "Makefile" have none.
func Ext(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i:])
}

// trimPrefix strips prefix only when something is left afterwards.
func trimPrefix(s, prefix string) (string, bool) {
	if len(s) <= len(prefix) || !strings.HasPrefix(s, prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

// trimSuffix strips suffix only when something is left afterwards.
func trimSuffix(s, suffix string) (string, bool) {
	if len(s) <= len(suffix) || !strings.HasSuffix(s, suffix) {
		return s, false
	}
	return s[:len(s)-len(suffix)], true
}
