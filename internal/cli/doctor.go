package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/recap-org/tgen/internal/atom"
	"github.com/recap-org/tgen/internal/runner"
)

// doctorTools lists the external commands each collaborator needs and the
// oldest version known to work.
var doctorTools = []struct {
	name    string
	purpose string
	minimum string
}{
	{"git", "deploy", ">= 2.28"},
	{"docker", "post", ">= 20.10"},
	{"devcontainer", "test", ">= 0.50"},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the project and the external tools",
	Long: `Check that the manifest and atoms load and that the tools used by the
deploy, post and test commands are on PATH. Missing tools are warnings;
an invalid manifest or atom tree is an error.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "Tools:")
		for _, tool := range doctorTools {
			checkTool(cmd.Context(), out, tool.name, tool.purpose, tool.minimum)
		}

		fmt.Fprintln(out, "\nProject:")
		fmt.Fprintf(out, "  root:   %s\n", cfg.Root)
		if cfg.File != "" {
			fmt.Fprintf(out, "  config: %s\n", cfg.File)
		}

		var failed bool
		m, err := loadManifest()
		if err != nil {
			fmt.Fprintf(out, "  ✗ manifest: %v\n", err)
			failed = true
		} else {
			fmt.Fprintf(out, "  ✓ manifest: %d template(s), release %s\n", len(m.Templates), m.Release)
		}

		atoms, err := atom.Load(cfg.Layout().AtomsDir)
		if err != nil {
			fmt.Fprintf(out, "  ✗ atoms: %v\n", err)
			failed = true
		} else {
			fmt.Fprintf(out, "  ✓ atoms: %d loaded\n", atoms.Len())
		}

		if failed {
			return fmt.Errorf("project checks failed")
		}
		return nil
	},
}

// checkTool reports whether name is on PATH and recent enough. Problems are
// printed as warnings.
func checkTool(ctx context.Context, out io.Writer, name, purpose, minimum string) {
	path, err := runner.LookPath(name)
	if err != nil {
		fmt.Fprintf(out, "  ⚠ %-13s not found (needed by %s)\n", name, purpose)
		return
	}

	v, err := runner.ToolVersion(ctx, runner.New(), name)
	if err != nil {
		fmt.Fprintf(out, "  ⚠ %-13s %s (version unknown: %v)\n", name, path, err)
		return
	}
	ok, err := runner.Satisfies(v, minimum)
	if err != nil {
		fmt.Fprintf(out, "  ⚠ %-13s %s: %v\n", name, path, err)
		return
	}
	if !ok {
		fmt.Fprintf(out, "  ⚠ %-13s %s is older than required (%s)\n", name, v, minimum)
		return
	}
	fmt.Fprintf(out, "  ✓ %-13s %s (%s)\n", name, v, path)
}
