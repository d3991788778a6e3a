package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recap-org/tgen/internal/manifest"
	"github.com/recap-org/tgen/internal/scaffold"
)

var (
	generateJobs     int
	generateFailFast bool
)

func init() {
	generateCmd.Flags().IntVarP(&generateJobs, "jobs", "j", 1, "Number of templates generated concurrently")
	generateCmd.Flags().BoolVar(&generateFailFast, "fail-fast", false, "Stop at the first failing template")
	rootCmd.AddCommand(generateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate [id...]",
	Short: "Generate templates into the output directory",
	Long: `Generate every template in the manifest, or only the given ids. Each
out/<id> directory is cleared, then the global files and each block are
materialized into it in order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadManifest()
		if err != nil {
			return err
		}
		return generate(cmd, m, args)
	},
}

// generate runs the generator for ids and prints a summary.
func generate(cmd *cobra.Command, m *manifest.Manifest, ids []string) error {
	out := cmd.OutOrStdout()
	g := scaffold.NewGenerator(cfg.Layout(),
		scaffold.WithProfiles(cfg.Profiles()),
		scaffold.WithJobs(cfg.Jobs),
		scaffold.WithFailFast(cfg.FailFast),
		scaffold.OnStart(func(id string) {
			fmt.Fprintf(out, "→ Rendering %s\n", id)
		}),
	)

	report, err := g.Generate(cmd.Context(), m, ids...)
	if report == nil {
		return err
	}

	fmt.Fprintln(out)
	for _, t := range report.Templates {
		if t.OK() {
			fmt.Fprintf(out, "  ✓ %s (%d files)\n", t.ID, len(t.Files))
		} else {
			fmt.Fprintf(out, "  ✗ %s: %v\n", t.ID, t.Err)
		}
	}
	if n := len(report.Generated()); n > 0 {
		fmt.Fprintf(out, "\n✓ Generated %d template(s) in %s\n", n, cfg.Out)
	}
	return err
}
