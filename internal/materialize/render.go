package materialize

import (
	"errors"
	"regexp"
	"strings"
	"text/template"
)

// Messages text/template produces for references that missingkey=error or
// field lookup cannot resolve.
var undefinedMarkers = []string{
	"map has no entry for key",
	"can't evaluate field",
	"nil pointer evaluating",
}

var execTarget = regexp.MustCompile(`at <\.?([^>]*)>`)

// Render executes text as a template named name using the delimiters of p.
// Missing map keys are errors rather than empty strings. When text ends in a
// newline the output does too.
func Render(name, text string, p Profile, data map[string]any, funcs template.FuncMap) (string, error) {
	tmpl, err := template.New(name).
		Delims(p.Left, p.Right).
		Option("missingkey=error").
		Funcs(funcs).
		Parse(text)
	if err != nil {
		return "", &RenderError{Path: name, Err: err}
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", execError(name, err)
	}

	out := buf.String()
	if strings.HasSuffix(text, "\n") && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out, nil
}

func execError(name string, err error) error {
	var ee template.ExecError
	if !errors.As(err, &ee) {
		return &RenderError{Path: name, Err: err}
	}

	msg := ee.Error()
	for _, marker := range undefinedMarkers {
		if strings.Contains(msg, marker) {
			uerr := &UndefinedVariableError{Path: name, Err: err}
			if m := execTarget.FindStringSubmatch(msg); m != nil {
				uerr.Name = m[1]
			}
			return uerr
		}
	}
	return &RenderError{Path: name, Err: err}
}
