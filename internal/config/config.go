package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/recap-org/tgen/internal/branding"
	"github.com/recap-org/tgen/internal/materialize"
	"github.com/recap-org/tgen/internal/scaffold"
)

const fileType = "yaml"

// Config is the resolved project configuration.
type Config struct {
	Root     string `mapstructure:"root" yaml:"root"`
	Manifest string `mapstructure:"manifest" yaml:"manifest"`
	Src      string `mapstructure:"src" yaml:"src"`
	Out      string `mapstructure:"out" yaml:"out"`
	Logs     string `mapstructure:"logs" yaml:"logs"`
	Jobs     int    `mapstructure:"jobs" yaml:"jobs"`
	FailFast bool   `mapstructure:"fail_fast" yaml:"fail_fast"`

	Log    LogConfig    `mapstructure:"log" yaml:"log"`
	Deploy DeployConfig `mapstructure:"deploy" yaml:"deploy"`
	Post   PostConfig   `mapstructure:"post" yaml:"post"`
	Render RenderConfig `mapstructure:"render" yaml:"render"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-" yaml:"-"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DeployConfig configures the deploy command.
type DeployConfig struct {
	RepoURL string `mapstructure:"repo_url" yaml:"repo_url"`
	Branch  string `mapstructure:"branch" yaml:"branch"`
}

// PostConfig configures post hooks.
type PostConfig struct {
	Image string `mapstructure:"image" yaml:"image"`
}

// RenderConfig adds delimiter overrides keyed by extension without the
// leading dot, e.g. "rmd".
type RenderConfig struct {
	Delimiters map[string]Delimiters `mapstructure:"delimiters" yaml:"delimiters,omitempty"`
}

// Delimiters is a left/right action delimiter pair.
type Delimiters struct {
	Left  string `mapstructure:"left" yaml:"left"`
	Right string `mapstructure:"right" yaml:"right"`
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	org := branding.Organization()

	v.SetDefault("root", ".")
	v.SetDefault("manifest", "templates.yaml")
	v.SetDefault("src", "src")
	v.SetDefault("out", "out")
	v.SetDefault("logs", "logs")
	v.SetDefault("jobs", 1)
	v.SetDefault("fail_fast", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("deploy.repo_url", "git@github.com:"+org+"/template-{id}.git")
	v.SetDefault("deploy.branch", "main")
	v.SetDefault("post.image", "ghcr.io/"+org+"/{language}:{release}")

	v.SetEnvPrefix(branding.EnvPrefix())
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds each flag in fs whose name maps to a config key. Flag
// names use dashes where keys use underscores or dots: --fail-fast is
// fail_fast and --log-level is log.level.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		err = v.BindPFlag(key, f)
	})
	return err
}

var flagKeys = map[string]string{
	"root":       "root",
	"manifest":   "manifest",
	"src":        "src",
	"out":        "out",
	"logs":       "logs",
	"jobs":       "jobs",
	"fail-fast":  "fail_fast",
	"log-level":  "log.level",
	"log-format": "log.format",
	"repo-url":   "deploy.repo_url",
	"branch":     "deploy.branch",
	"image":      "post.image",
}

// Load reads the config file and returns the resolved configuration. An
// explicit file must exist; otherwise <root>/tgen.yaml is read when present.
func Load(v *viper.Viper, file string) (*Config, error) {
	root, err := filepath.Abs(v.GetString("root"))
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}

	if file == "" {
		candidate := filepath.Join(root, branding.ConfigName()+"."+fileType)
		if _, err := os.Stat(candidate); err == nil {
			file = candidate
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType(fileType)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", file, err)
		}
		// The file may move the root; flags and env still win over it.
		if root, err = filepath.Abs(v.GetString("root")); err != nil {
			return nil, fmt.Errorf("resolving root: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.Root = root
	cfg.Manifest = resolve(root, cfg.Manifest)
	cfg.Src = resolve(root, cfg.Src)
	cfg.Out = resolve(root, cfg.Out)
	cfg.Logs = resolve(root, cfg.Logs)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}

func (c *Config) validate() error {
	var errs []error
	if c.Jobs < 1 {
		errs = append(errs, fmt.Errorf("jobs must be at least 1, got %d", c.Jobs))
	}
	if !strings.Contains(c.Deploy.RepoURL, "{id}") {
		errs = append(errs, fmt.Errorf("deploy.repo_url must contain {id}: %q", c.Deploy.RepoURL))
	}
	for _, ext := range sortedKeys(c.Render.Delimiters) {
		d := c.Render.Delimiters[ext]
		if d.Left == "" || d.Right == "" {
			errs = append(errs, fmt.Errorf("render.delimiters.%s: left and right are required", ext))
		}
	}
	return errors.Join(errs...)
}

// Layout returns the source and output layout.
func (c *Config) Layout() scaffold.Layout {
	return scaffold.NewLayout(c.Src, c.Out)
}

// BlocksDir returns the directory block names are resolved against.
func (c *Config) BlocksDir() string {
	return c.Layout().BlocksDir
}

// Profiles returns the built-in delimiter profiles with the configured
// overrides applied.
func (c *Config) Profiles() materialize.Profiles {
	overrides := make(map[string]materialize.Profile, len(c.Render.Delimiters))
	for ext, d := range c.Render.Delimiters {
		overrides[ext] = materialize.Profile{Name: ext, Left: d.Left, Right: d.Right}
	}
	return materialize.DefaultProfiles().With(overrides)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
