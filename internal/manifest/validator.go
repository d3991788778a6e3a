package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/manifest.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

// getSchema compiles the embedded JSON schema once and returns it.
func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource("manifest.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("manifest.schema.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compiling schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// validateStructure checks raw manifest YAML against the embedded schema.
// Schema violations are returned as issues; the error return is for YAML
// syntax errors or schema compilation failures.
func validateStructure(data []byte) ([]Issue, error) {
	schema, err := getSchema()
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	// Round-trip through JSON so numbers and maps have the shapes the
	// validator expects.
	jsonData, err := json.Marshal(normalizeYAML(raw))
	if err != nil {
		return nil, fmt.Errorf("converting to JSON: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("preparing JSON for validation: %w", err)
	}

	err = schema.Validate(inst)
	if err == nil {
		return nil, nil
	}

	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return nil, fmt.Errorf("unexpected validation error type: %w", err)
	}
	return extractIssues(validationErr, raw), nil
}

// validateSemantics checks the rules the schema cannot express: distinct
// blocks per template, block directories present under blocksRoot, and
// manifest-wide unique template ids.
func validateSemantics(m *Manifest, blocksRoot string) []Issue {
	var issues []Issue

	// Ids name output directories, so ids that differ only by case would
	// share one on case-insensitive filesystems.
	seenIDs := make(map[string]int, len(m.Templates))
	for i, t := range m.Templates {
		idPath := fmt.Sprintf("/templates/%d/id", i)
		key := strings.ToLower(t.ID)
		switch first, dup := seenIDs[key]; {
		case !isSegment(t.ID):
			issues = append(issues, Issue{
				Path:       idPath,
				TemplateID: t.ID,
				Field:      "id",
				Message:    "template id must be a single path segment",
			})
		case dup && m.Templates[first].ID == t.ID:
			issues = append(issues, Issue{
				Path:       idPath,
				TemplateID: t.ID,
				Field:      "id",
				Message:    fmt.Sprintf("duplicate template id (first defined at templates[%d])", first),
			})
		case dup:
			issues = append(issues, Issue{
				Path:       idPath,
				TemplateID: t.ID,
				Field:      "id",
				Message:    fmt.Sprintf("template id differs from %q at templates[%d] only by case", m.Templates[first].ID, first),
			})
		default:
			seenIDs[key] = i
		}

		seenBlocks := make(map[string]bool, len(t.Blocks))
		for j, block := range t.Blocks {
			path := fmt.Sprintf("/templates/%d/blocks/%d", i, j)
			if seenBlocks[block] {
				issues = append(issues, Issue{
					Path:       path,
					TemplateID: t.ID,
					Field:      "blocks",
					Message:    fmt.Sprintf("duplicate block %q", block),
				})
				continue
			}
			seenBlocks[block] = true

			if !blockExists(blocksRoot, block) {
				issues = append(issues, Issue{
					Path:       path,
					TemplateID: t.ID,
					Field:      "blocks",
					Message:    fmt.Sprintf("block %q does not exist at %s", block, filepath.Join(blocksRoot, block)),
				})
			}
		}
	}

	return issues
}

// isSegment reports whether name is usable as one directory name below a
// root: not empty, not "." or "..", and free of separators.
func isSegment(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

// blockExists reports whether name is a directory directly under root.
func blockExists(root, name string) bool {
	if !isSegment(name) {
		return false
	}
	info, err := os.Stat(filepath.Join(root, name))
	return err == nil && info.IsDir()
}

// extractIssues walks the ValidationError tree and returns leaf-level issues,
// annotated with the template id when the instance location points into the
// templates array.
func extractIssues(ve *jsonschema.ValidationError, raw interface{}) []Issue {
	var issues []Issue
	collectValidationIssues(ve, &issues)

	if len(issues) == 0 {
		return []Issue{{Message: ve.Error()}}
	}

	issues = deduplicateIssues(issues)
	for i := range issues {
		issues[i].TemplateID = templateIDAt(raw, issues[i].Path)
	}
	return issues
}

// collectValidationIssues recursively walks the error tree to find leaf errors
// with specific property information.
func collectValidationIssues(ve *jsonschema.ValidationError, issues *[]Issue) {
	if len(ve.Causes) == 0 {
		path := ""
		if len(ve.InstanceLocation) > 0 {
			path = "/" + strings.Join(ve.InstanceLocation, "/")
		}

		keyword := ""
		if ve.ErrorKind != nil {
			kwPath := ve.ErrorKind.KeywordPath()
			if len(kwPath) > 0 {
				keyword = kwPath[len(kwPath)-1]
			}
		}

		// Generic container errors carry no information of their own.
		if keyword == "allOf" || keyword == "$ref" || keyword == "" {
			return
		}

		msg := ve.ErrorKind.LocalizedString(printer)
		*issues = append(*issues, Issue{
			Path:    path,
			Field:   fieldOf(ve.InstanceLocation),
			Message: msg,
		})
		return
	}

	for _, cause := range ve.Causes {
		collectValidationIssues(cause, issues)
	}
}

// fieldOf returns the last non-index segment of an instance location.
func fieldOf(location []string) string {
	for i := len(location) - 1; i >= 0; i-- {
		if !isIndex(location[i]) {
			return location[i]
		}
	}
	return ""
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// templateIDAt returns the id of the template addressed by a path such as
// "/templates/2/blocks", if the raw document has one.
func templateIDAt(raw interface{}, path string) string {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) < 2 || parts[0] != "templates" || !isIndex(parts[1]) {
		return ""
	}

	doc, ok := raw.(map[string]interface{})
	if !ok {
		return ""
	}
	templates, ok := doc["templates"].([]interface{})
	if !ok {
		return ""
	}

	var idx int
	fmt.Sscanf(parts[1], "%d", &idx)
	if idx >= len(templates) {
		return ""
	}
	t, ok := templates[idx].(map[string]interface{})
	if !ok {
		return ""
	}
	id, _ := t["id"].(string)
	return id
}

// deduplicateIssues removes duplicate issues (same path + message).
func deduplicateIssues(issues []Issue) []Issue {
	seen := make(map[string]bool)
	var result []Issue
	for _, issue := range issues {
		key := issue.Path + "|" + issue.Message
		if !seen[key] {
			seen[key] = true
			result = append(result, issue)
		}
	}
	return result
}

// normalizeYAML recursively converts YAML-decoded values to JSON-compatible
// types. Non-string mapping keys are stringified.
func normalizeYAML(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, v := range val {
			m[k] = normalizeYAML(v)
		}
		return m
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, v := range val {
			m[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return m
	case []interface{}:
		a := make([]interface{}, len(val))
		for i, v := range val {
			a[i] = normalizeYAML(v)
		}
		return a
	default:
		return val
	}
}
