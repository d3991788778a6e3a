package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recap-org/tgen/internal/logging"
	"github.com/recap-org/tgen/internal/watch"
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch [id...]",
	Short: "Regenerate templates whenever sources or the manifest change",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		rebuild := func(ctx context.Context) error {
			m, err := loadManifest()
			if err != nil {
				fmt.Fprintf(out, "✗ %v\n", err)
				return err
			}
			return generate(cmd, m, args)
		}

		// A failed first build still starts the watcher so it can be fixed.
		_ = rebuild(cmd.Context())

		paths := []string{cfg.Src, cfg.Manifest}
		if cfg.File != "" {
			paths = append(paths, cfg.File)
		}
		w, err := watch.New(paths)
		if err != nil {
			return fmt.Errorf("starting watcher: %w", err)
		}
		defer w.Close()

		fmt.Fprintf(out, "\nWatching %s for changes (Ctrl+C to stop)\n", cfg.Src)
		return w.Run(cmd.Context(), func(ctx context.Context, changed []string) error {
			logging.FromContext(ctx).Info("change detected", "paths", changed)
			fmt.Fprintf(out, "\n↻ %d change(s), regenerating\n", len(changed))
			return rebuild(ctx)
		})
	},
}
