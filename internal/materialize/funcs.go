package materialize

import (
	"strings"
	"text/template"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
	"go.yaml.in/yaml/v3"

	"github.com/recap-org/tgen/internal/atom"
)

// FuncMap returns the functions available to every rendered file.
//
//	query   JSONPath over structured data: query "$.features[*]" .atoms.devcontainer
//	toYAML  YAML encoding without the trailing newline
//	toJSON  JSON with sorted keys and two-space indentation
//	indent  prefixes every non-empty line with n spaces
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"query":  atom.Query,
		"toYAML": toYAML,
		"toJSON": toJSON,
		"indent": indent,
	}
}

func toYAML(v any) (string, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}

func toJSON(v any) string {
	return oj.JSON(v, &ojg.Options{Indent: 2, Sort: true, HTMLUnsafe: true})
}

func indent(n int, s string) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = pad + line
		}
	}
	return strings.Join(lines, "\n")
}
