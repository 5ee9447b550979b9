package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/linkatlas/pkg/atlas"
	"github.com/matzehuels/linkatlas/pkg/graph"
	"github.com/matzehuels/linkatlas/pkg/view"
)

// inspectCommand creates the inspect command, the terminal version of
// clicking a node on the page.
func (c *CLI) inspectCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect <name|key>",
		Short: "Print the name and description of a node",
		Long: `Print the name and description of a node, with its related links and games.

The node is given by display name ("Kind Words", "gifting") or by key
("artifact:Kind Words", "link:4").`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := c.loadDataset(cmd.Context())
			if err != nil {
				return err
			}
			info, err := lookupNode(a, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			printInfoBlock(cmd, info)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

// lookupNode resolves a key when arg looks like one and a display name
// otherwise.
func lookupNode(a *atlas.Atlas, arg string) (view.Info, error) {
	if strings.HasPrefix(arg, "artifact:") || strings.HasPrefix(arg, "link:") {
		return view.Describe(a, arg)
	}
	return view.Lookup(a, arg)
}

func printInfoBlock(cmd *cobra.Command, info view.Info) {
	out := cmd.OutOrStdout()
	group := graph.GroupArtifact
	switch info.Group {
	case atlas.GroupMinor.String():
		group = graph.GroupMinor
	case atlas.GroupMajor.String():
		group = graph.GroupMajor
	}

	fmt.Fprintln(out, StyleTitle.Render(info.Name)+"  "+StyleDim.Render(info.ID))
	printKeyValue(out, "group", renderName(info.Group, group, info.Fuzzy))
	if info.Description != "" {
		printKeyValue(out, "description", info.Description)
	}
	printList(out, "links", info.Links)
	printList(out, "parents", info.Parents)
	printList(out, "children", info.Children)
	printList(out, "games", info.Artifacts)
}
