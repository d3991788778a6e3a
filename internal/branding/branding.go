// Package branding provides compile-time identity values for the CLI.
//
// The values live in branding.yaml next to this file and are baked into the
// binary with //go:embed.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName      string `yaml:"cli_name"`
	DisplayName  string `yaml:"display_name"`
	Description  string `yaml:"description"`
	EnvPrefix    string `yaml:"env_prefix"`
	ConfigName   string `yaml:"config_name"`
	GoModule     string `yaml:"go_module"`
	Organization string `yaml:"organization"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing or empty.
		defaults = brand{
			CLIName:      "tgen",
			DisplayName:  "tgen",
			Description:  "Compose blocks and atoms into project templates",
			EnvPrefix:    "TGEN",
			ConfigName:   "tgen",
			GoModule:     "github.com/recap-org/tgen",
			Organization: "recap-org",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "tgen").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// EnvPrefix returns the environment variable prefix (e.g., "TGEN").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// ConfigName returns the project config file name without extension.
func ConfigName() string { load(); return defaults.ConfigName }

// GoModule returns the Go module path. Not consumed at runtime.
func GoModule() string { load(); return defaults.GoModule }

// Organization returns the owner used in default repository and image names.
func Organization() string { load(); return defaults.Organization }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("out") → "TGEN_OUT".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
