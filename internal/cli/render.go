package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/linkatlas/pkg/pipeline"
)

// defaultOutputBase is the base path of rendered files when --output is not
// given.
const defaultOutputBase = appName

// renderOpts holds the flags of the render command that are not view flags.
type renderOpts struct {
	formats string
	output  string
	noCache bool
	refresh bool
	scale   float64
	api     string
	title   string
	pins    []string
}

// renderCommand creates the render command. It runs the whole pipeline and
// writes one file per requested format.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags viewFlags
		ro    renderOpts
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the link graph to SVG, DOT, JSON, HTML, PNG or PDF",
		Long: `Render the link graph to SVG, DOT, JSON, HTML, PNG or PDF.

The html format is the interactive page: it runs the simulation in the
browser, pins nodes on drag and toggles between the detailed and collapsed
views. Pass --api to let the page fetch graphs from a running server.

PNG and PDF are converted from the SVG and need rsvg-convert on PATH.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options(flags)
			opts.Formats = pipeline.ParseFormats(ro.formats)
			opts.Scale = ro.scale
			opts.API = ro.api
			opts.Title = ro.title
			opts.Refresh = ro.refresh
			pins, err := parsePins(ro.pins)
			if err != nil {
				return err
			}
			opts.Pins = pins
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			return c.runRender(cmd, opts, ro)
		},
	}

	flags.register(cmd, true)
	cmd.Flags().StringVarP(&ro.formats, "format", "f", "", "output format(s): svg (default), dot, json, html, png, pdf (comma-separated)")
	cmd.Flags().StringVarP(&ro.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&ro.noCache, "no-cache", false, "disable the render cache")
	cmd.Flags().BoolVar(&ro.refresh, "refresh", false, "recompute everything and update the cache")
	cmd.Flags().Float64Var(&ro.scale, "scale", pipeline.DefaultScale, "PNG resolution multiplier")
	cmd.Flags().StringVar(&ro.api, "api", "", "server base URL for the html page")
	cmd.Flags().StringVar(&ro.title, "title", "", "page title for the html format")
	cmd.Flags().StringArrayVar(&ro.pins, "pin", nil, "pin a node: key=x,y (repeatable)")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, opts pipeline.Options, ro renderOpts) error {
	ctx := cmd.Context()
	status := cmd.ErrOrStderr()
	if ro.noCache && ro.refresh {
		printWarning(status, "--refresh has no effect with --no-cache")
	}

	runner, err := c.newRunner(ro.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spin := newSpinner(ctx, status, fmt.Sprintf("Rendering %s...", strings.Join(opts.Formats, ", ")))
	spin.Start()
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spin.StopWithError("Render failed")
		return err
	}
	spin.Stop()

	paths := outputPaths(ro.output, opts.Formats)
	for _, format := range opts.Formats {
		path := paths[format]
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	cached := result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit
	printSuccess(status, "Rendered %s view with %s", result.Graph.Mode, result.Layout.Engine)
	printStats(status, result.Stats.NodeCount, result.Stats.EdgeCount, cached)
	for _, format := range opts.Formats {
		printFile(status, paths[format])
	}
	if !slices.Contains(opts.Formats, pipeline.FormatHTML) {
		printNextStep(status, "Explore it interactively", appName+" render --format html")
	}
	return nil
}

// outputPaths maps each format to its output file. A single format is written
// to output as given; multiple formats share output as a base path with the
// format appended as extension.
func outputPaths(output string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output)
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}

// basePath strips a known format extension from output.
func basePath(output string) string {
	if output == "" {
		return defaultOutputBase
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
