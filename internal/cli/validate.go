package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/linkatlas/pkg/errors"
	"github.com/matzehuels/linkatlas/pkg/pipeline"
	"github.com/matzehuels/linkatlas/pkg/view"
)

// validateCommand creates the validate command. It loads a dataset, reports
// every problem found, and prints entity counts for a valid one.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [dataset]",
		Short: "Check a dataset and print its statistics",
		Long: `Check a dataset and print its statistics.

Without an argument the --dataset flag is used, and without that the embedded
dataset. All problems are reported together.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.dataset
			if len(args) == 1 {
				path = args[0]
			}
			out := cmd.OutOrStdout()

			a, hash, err := pipeline.LoadDataset(cmd.Context(), path)
			if err != nil {
				printError(out, "%s is invalid", sourceLabel(path))
				for _, d := range errors.Details(err) {
					printDetail(out, "%s", d)
				}
				return err
			}

			st := a.Stats()
			printSuccess(out, "%s is valid", sourceLabel(path))
			printKeyValue(out, "games", fmt.Sprint(st.Artifacts))
			printKeyValue(out, "major links", fmt.Sprint(st.Majors))
			printKeyValue(out, "minor links", fmt.Sprint(st.Minors))
			printKeyValue(out, "fuzzy", fmt.Sprint(st.Fuzzy))
			printKeyValue(out, "memberships", fmt.Sprint(st.Memberships))
			printKeyValue(out, "fingerprint", hash[:12])
			for _, m := range []view.Mode{view.Detailed, view.Collapsed} {
				printDetail(out, "%s", view.Summary(view.Build(a, m)))
			}
			return nil
		},
	}
}

func sourceLabel(path string) string {
	if path == "" {
		return "embedded dataset"
	}
	return path
}
