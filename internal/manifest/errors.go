package manifest

import (
	"fmt"
	"strings"
)

// Issue is a single manifest problem.
type Issue struct {
	Path       string // Instance location, e.g. "/templates/1/blocks"
	TemplateID string // Offending template id, when known
	Field      string // Offending field name, when known
	Message    string
}

func (i Issue) String() string {
	var where []string
	if i.TemplateID != "" {
		where = append(where, fmt.Sprintf("template %q", i.TemplateID))
	}
	if i.Field != "" {
		where = append(where, i.Field)
	} else if i.Path != "" {
		where = append(where, i.Path)
	}
	if len(where) == 0 {
		return i.Message
	}
	return strings.Join(where, " ") + ": " + i.Message
}

// ValidationError reports every problem found in a manifest.
type ValidationError struct {
	Source string
	Issues []Issue
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.String()
	}
	prefix := "invalid manifest"
	if e.Source != "" {
		prefix += " " + e.Source
	}
	return prefix + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) add(issue Issue) {
	e.Issues = append(e.Issues, issue)
}
