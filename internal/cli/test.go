package cli

import (
	"github.com/spf13/cobra"

	"github.com/recap-org/tgen/internal/devtest"
	"github.com/recap-org/tgen/internal/runner"
)

func init() {
	rootCmd.AddCommand(testCmd)
}

var testCmd = &cobra.Command{
	Use:   "test [id...]",
	Short: "Run generated templates in their dev containers",
	Long: `Bring up each template's dev container, then run its setup and run
commands inside it. Output goes to logs/test-<id>.log.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, specs, err := selectTemplates(args)
		if err != nil {
			return err
		}

		tester := devtest.New(runner.New(), devtest.Options{
			OutDir: cfg.Out,
			LogDir: cfg.Logs,
			Out:    cmd.OutOrStdout(),
		})
		_, err = tester.Test(cmd.Context(), specs)
		return err
	},
}
