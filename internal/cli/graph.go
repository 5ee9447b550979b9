package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/linkatlas/pkg/errors"
	"github.com/matzehuels/linkatlas/pkg/graph"
)

// graphCommand creates the graph command, which prints the view graph that
// the page feeds to its simulation.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		flags  viewFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the view graph as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options(flags)
			if err := opts.ValidateForBuild(); err != nil {
				return err
			}
			a, hash, err := c.loadDataset(cmd.Context())
			if err != nil {
				return err
			}

			runner, err := c.newRunner(true)
			if err != nil {
				return err
			}
			defer runner.Close()

			g, err := runner.Build(cmd.Context(), a, hash, opts)
			if err != nil {
				return err
			}
			if output == "" {
				return graph.WriteGraph(g, cmd.OutOrStdout())
			}
			if err := graph.WriteGraphFile(g, output); err != nil {
				return err
			}
			printSuccess(cmd.ErrOrStderr(), "Wrote %s graph", g.Mode)
			printStats(cmd.ErrOrStderr(), len(g.Nodes), len(g.Edges), false)
			printFile(cmd.ErrOrStderr(), output)
			return nil
		},
	}

	flags.register(cmd, false)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

// layoutCommand creates the layout command. It runs the layout engine and
// writes the positioned graph as JSON.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags   viewFlags
		output  string
		pins    []string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Compute node positions and print the layout as JSON",
		Long: `Compute node positions and print the layout as JSON.

Nodes can be pinned like a drag on the page with --pin key=x,y, for example
--pin "artifact:Sky=100,80". Pins for nodes hidden by the mode are ignored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options(flags)
			p, err := parsePins(pins)
			if err != nil {
				return err
			}
			opts.Pins = p
			if err := opts.ValidateForBuild(); err != nil {
				return err
			}
			opts.SetLayoutDefaults()
			if err := opts.ValidateForLayout(); err != nil {
				return err
			}

			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			a, hash, err := c.loadDataset(ctx)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			g, err := runner.Build(ctx, a, hash, opts)
			if err != nil {
				return err
			}

			prog := newProgress(logger)
			spin := newSpinner(ctx, cmd.ErrOrStderr(), fmt.Sprintf("Running %s layout...", opts.Engine))
			spin.Start()
			l, cached, err := runner.LayoutWithCacheInfo(ctx, g, opts)
			spin.Stop()
			if err != nil {
				return err
			}
			prog.done("computed layout", "engine", l.Engine, "cached", cached)

			if output == "" {
				data, err := graph.MarshalLayout(l)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := graph.WriteLayoutFile(l, output); err != nil {
				return err
			}
			printSuccess(cmd.ErrOrStderr(), "Wrote %s layout", l.Engine)
			printStats(cmd.ErrOrStderr(), len(l.Nodes), len(l.Edges), cached)
			printFile(cmd.ErrOrStderr(), output)
			printNextStep(cmd.ErrOrStderr(), "Render it", appName+" render --format svg,html")
			return nil
		},
	}

	flags.register(cmd, true)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringArrayVar(&pins, "pin", nil, "pin a node: key=x,y (repeatable)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the layout cache")
	return cmd
}

// parsePins parses --pin values of the form key=x,y.
func parsePins(values []string) (map[string]graph.Position, error) {
	if len(values) == 0 {
		return nil, nil
	}
	pins := make(map[string]graph.Position, len(values))
	for _, v := range values {
		key, coords, ok := strings.Cut(v, "=")
		xs, ys, ok2 := strings.Cut(coords, ",")
		if !ok || !ok2 || key == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "pin %q: want key=x,y", v)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "pin %q: x", v)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "pin %q: y", v)
		}
		pins[strings.TrimSpace(key)] = graph.Position{X: x, Y: y, Fixed: true}
	}
	return pins, nil
}
