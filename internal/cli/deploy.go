package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recap-org/tgen/internal/deploy"
	"github.com/recap-org/tgen/internal/runner"
)

var (
	deployRepoURL string
	deployBranch  string
)

func init() {
	deployCmd.Flags().StringVar(&deployRepoURL, "repo-url", "", "Repository URL; {id} is replaced by the template id")
	deployCmd.Flags().StringVar(&deployBranch, "branch", "", "Branch to push")
	rootCmd.AddCommand(deployCmd)
}

var deployCmd = &cobra.Command{
	Use:   "deploy [id...]",
	Short: "Push generated templates to their repositories",
	Long: `Clone each template's repository, replace its contents with out/<id>
(keeping .git), and commit and push when anything changed. Deployment stops
at the first failure.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, specs, err := selectTemplates(args)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		d := deploy.New(runner.New(), deploy.Options{
			OutDir:      cfg.Out,
			ProjectRoot: cfg.Root,
			RepoURL:     cfg.Deploy.RepoURL,
			Branch:      cfg.Deploy.Branch,
			Out:         out,
		})

		fmt.Fprintf(out, "Deploying %d template(s)...\n", len(specs))
		outcomes, err := d.Deploy(cmd.Context(), specIDs(specs))
		if err != nil {
			return err
		}

		pushed := 0
		for _, o := range outcomes {
			if o.Status == deploy.StatusPushed {
				pushed++
			}
		}
		fmt.Fprintf(out, "\n✓ Deployed %d template(s), %d pushed, %d up to date\n", len(outcomes), pushed, len(outcomes)-pushed)
		return nil
	},
}
