package cli

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/recap-org/tgen/internal/atom"
)

var atomsQuery string

func init() {
	atomsCmd.Flags().StringVarP(&atomsQuery, "query", "q", "", "JSONPath expression evaluated against the named atom")
	rootCmd.AddCommand(atomsCmd)
}

var atomsCmd = &cobra.Command{
	Use:   "atoms [name]",
	Short: "List atoms, or print one atom as templates see it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		dir := cfg.Layout().AtomsDir

		atoms, err := atom.Load(dir)
		if err != nil {
			return err
		}

		if len(args) == 0 {
			if atoms.Len() == 0 {
				fmt.Fprintf(out, "No atoms in %s\n", dir)
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tKIND\tSOURCE")
			for _, name := range atoms.Names() {
				shape, _ := atoms.Shape(name)
				path, _ := atoms.Path(name)
				if rel, err := filepath.Rel(dir, path); err == nil {
					path = rel
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, shape, path)
			}
			return w.Flush()
		}

		value, ok := atoms.Get(args[0])
		if !ok {
			return fmt.Errorf("atom %q not found in %s", args[0], dir)
		}
		var data any = value.Native()
		if atomsQuery != "" {
			if data, err = atom.Query(atomsQuery, data); err != nil {
				return err
			}
		}
		if text, ok := data.(string); ok {
			fmt.Fprint(out, text)
			return nil
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("encoding atom %q: %w", args[0], err)
		}
		return enc.Close()
	},
}
