package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/recap-org/tgen/internal/branding"
	"github.com/recap-org/tgen/internal/config"
	"github.com/recap-org/tgen/internal/logging"
	"github.com/recap-org/tgen/internal/manifest"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	rootDir    string
	configFile string
	logLevel   string
	logFormat  string
)

// Resolved by the root command before any subcommand runs.
var (
	v   *viper.Viper
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` composes template repositories from a manifest, shared global files,
reusable blocks and atoms, then deploys, post-processes and tests the results.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		v = config.New()
		if err := config.BindFlags(v, cmd.Flags()); err != nil {
			return fmt.Errorf("binding flags: %w", err)
		}
		loaded, err := config.Load(v, configFile)
		if err != nil {
			return err
		}
		cfg = loaded

		logger := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(logging.WithLogger(ctx, logger))
		logger.Debug("configuration loaded", "root", cfg.Root, "file", cfg.File)
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootDir, "root", ".", "Project root directory")
	flags.StringVar(&configFile, "config", "", "Config file (default <root>/"+branding.ConfigName()+".yaml)")
	flags.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flags.StringVar(&logFormat, "log-format", "text", "Log format: text or json")
}

// Execute runs the root command with build info injected via ldflags. The
// context is canceled on interrupt.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// loadManifest reads and validates the configured manifest.
func loadManifest() (*manifest.Manifest, error) {
	return manifest.Load(cfg.Manifest, cfg.BlocksDir())
}

// selectTemplates loads the manifest and returns the templates named by ids,
// or all of them.
func selectTemplates(ids []string) (*manifest.Manifest, []manifest.TemplateSpec, error) {
	m, err := loadManifest()
	if err != nil {
		return nil, nil, err
	}
	specs, err := m.Select(ids...)
	if err != nil {
		return nil, nil, err
	}
	return m, specs, nil
}

func specIDs(specs []manifest.TemplateSpec) []string {
	ids := make([]string, len(specs))
	for i, s := range specs {
		ids[i] = s.ID
	}
	return ids
}
