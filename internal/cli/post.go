package cli

import (
	"github.com/spf13/cobra"

	"github.com/recap-org/tgen/internal/posthook"
	"github.com/recap-org/tgen/internal/runner"
)

var postImage string

func init() {
	postCmd.Flags().StringVar(&postImage, "image", "", "Container image; {language}, {release} and {id} are substituted")
	rootCmd.AddCommand(postCmd)
}

var postCmd = &cobra.Command{
	Use:   "post [id...]",
	Short: "Run post-generation hooks in containers",
	Long: `Run the post command of every template that declares one inside a
container, with out/<id> mounted as the working directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, specs, err := selectTemplates(args)
		if err != nil {
			return err
		}

		hooks := posthook.New(runner.New(), posthook.Options{
			OutDir: cfg.Out,
			Image:  cfg.Post.Image,
			Out:    cmd.OutOrStdout(),
		})
		_, err = hooks.Run(cmd.Context(), m.Release, specs)
		return err
	},
}
