package materialize

import (
	"sort"
	"strings"
)

// Profile is a pair of action delimiters. With text/template the same pair
// delimits statements, expressions and comments (Left/* ... */Right).
type Profile struct {
	Name  string
	Left  string
	Right string
}

var (
	// DefaultProfile is used for every extension without an override.
	DefaultProfile = Profile{Name: "default", Left: "{{", Right: "}}"}
	// TeXProfile avoids the braces that LaTeX sources are full of.
	TeXProfile = Profile{Name: "tex", Left: "((*", Right: "*))"}
)

// Profiles maps effective file extensions to delimiter profiles. The zero
// value resolves every extension to DefaultProfile. A Profiles value is never
// modified after construction.
type Profiles struct {
	fallback Profile
	byExt    map[string]Profile
}

// NewProfiles builds a mapping from a fallback profile and per-extension
// overrides. Extensions are normalized to a lower-case ".ext" form and the
// overrides map is copied.
func NewProfiles(fallback Profile, overrides map[string]Profile) Profiles {
	p := Profiles{fallback: fallback, byExt: make(map[string]Profile, len(overrides))}
	for ext, profile := range overrides {
		p.byExt[normalizeExt(ext)] = profile
	}
	return p
}

// DefaultProfiles returns the built-in mapping: TeXProfile for .tex, .sty
// and .cls and DefaultProfile for everything else.
func DefaultProfiles() Profiles {
	return NewProfiles(DefaultProfile, map[string]Profile{
		".tex": TeXProfile,
		".sty": TeXProfile,
		".cls": TeXProfile,
	})
}

// With returns a copy of p with overrides added on top.
func (p Profiles) With(overrides map[string]Profile) Profiles {
	merged := make(map[string]Profile, len(p.byExt)+len(overrides))
	for ext, profile := range p.byExt {
		merged[ext] = profile
	}
	for ext, profile := range overrides {
		merged[normalizeExt(ext)] = profile
	}
	return NewProfiles(p.Fallback(), merged)
}

// Fallback returns the profile used for extensions without an override.
func (p Profiles) Fallback() Profile {
	if p.fallback.Left == "" || p.fallback.Right == "" {
		return DefaultProfile
	}
	return p.fallback
}

// For returns the profile for an effective extension such as ".tex".
func (p Profiles) For(ext string) Profile {
	if profile, ok := p.byExt[normalizeExt(ext)]; ok {
		return profile
	}
	return p.Fallback()
}

// Extensions lists the extensions that have an override, sorted.
func (p Profiles) Extensions() []string {
	exts := make([]string, 0, len(p.byExt))
	for ext := range p.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
