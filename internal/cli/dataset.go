package cli

import (
	"bytes"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/linkatlas/pkg/dataset"
)

// datasetCommand groups dataset maintenance subcommands.
func (c *CLI) datasetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Work with dataset files",
	}
	cmd.AddCommand(c.datasetExportCommand())
	return cmd
}

// datasetExportCommand writes the active dataset in canonical order. Exporting
// the embedded dataset is the starting point for a custom one.
func (c *CLI) datasetExportCommand() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the active dataset as TOML or JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, hash, err := c.loadDataset(cmd.Context())
			if err != nil {
				return err
			}
			if format == "" {
				format = dataset.FormatFromPath(output)
			}

			var buf bytes.Buffer
			if err := dataset.Encode(&buf, dataset.FromAtlas(a), format); err != nil {
				return err
			}
			if output == "" {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return err
			}

			st := a.Stats()
			status := cmd.ErrOrStderr()
			printSuccess(status, "Exported %d games and %d links", st.Artifacts, st.Majors+st.Minors)
			printDetail(status, "fingerprint %s", hash[:12])
			printFile(status, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "toml or json (default from the output extension, else toml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
