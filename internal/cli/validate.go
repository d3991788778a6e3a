package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recap-org/tgen/internal/atom"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the manifest and atoms without writing output",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		m, err := loadManifest()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ %s: %d template(s)\n", cfg.Manifest, len(m.Templates))

		atoms, err := atom.Load(cfg.Layout().AtomsDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ %s: %d atom(s)\n", cfg.Layout().AtomsDir, atoms.Len())
		return nil
	},
}
