package manifest

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// Load reads the manifest at path and validates it against blocksRoot.
func Load(path, blocksRoot string) (*Manifest, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	m, err := Parse(data, blocksRoot)
	if err != nil {
		if verr, ok := err.(*ValidationError); ok {
			verr.Source = path
			return nil, verr
		}
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes and validates raw manifest YAML. Block names are resolved as
// directories directly under blocksRoot. On any schema or semantic problem it
// returns a *ValidationError listing every issue, and no manifest.
func Parse(data []byte, blocksRoot string) (*Manifest, error) {
	issues, err := validateStructure(data)
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}

	if issues := validateSemantics(&m, blocksRoot); len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}

	return &m, nil
}

// readFile reads the contents of a file at the given path.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}
