// Package cli implements the linkatlas command-line interface.
//
// Commands load the embedded dataset or a TOML file given with --dataset,
// derive the detailed or collapsed view graph and lay it out, render it, or
// serve it over HTTP. Output that other tools consume (graph and layout
// JSON, rendered artifacts, exported datasets) goes to stdout or to files;
// status lines and logs go to stderr.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// attached to the command context and shared with the pipeline runner.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/linkatlas/pkg/atlas"
	"github.com/matzehuels/linkatlas/pkg/buildinfo"
	"github.com/matzehuels/linkatlas/pkg/cache"
	"github.com/matzehuels/linkatlas/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used in help text and output defaults.
const appName = "linkatlas"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// dataset is the --dataset flag; empty selects the embedded dataset.
	dataset string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Linkatlas maps the links between games",
		Long:         `Linkatlas is a CLI tool for exploring a dataset of games and the design links they share, as a force-directed graph that can collapse minor links into their major ones.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.dataset, "dataset", "d", "", "dataset file (toml or json); default is the embedded dataset")

	root.AddCommand(c.validateCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.tuiCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.datasetCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

// newCache opens the per-user file cache. A missing home directory disables
// caching instead of failing the command.
func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cache.DefaultDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// loadDataset loads the dataset selected by --dataset.
func (c *CLI) loadDataset(ctx context.Context) (*atlas.Atlas, string, error) {
	return pipeline.LoadDataset(ctx, c.dataset)
}

// =============================================================================
// Options Helpers
// =============================================================================

// viewFlags are the flags shared by commands that build and lay out a view.
type viewFlags struct {
	mode   string
	engine string
	width  float64
	height float64
	seed   uint64
}

func (f *viewFlags) register(cmd *cobra.Command, layout bool) {
	cmd.Flags().StringVarP(&f.mode, "mode", "m", pipeline.DefaultMode, "view mode: detailed, collapsed")
	if !layout {
		return
	}
	cmd.Flags().StringVarP(&f.engine, "engine", "e", pipeline.DefaultEngine, "layout engine: force, neato, fdp")
	cmd.Flags().Float64Var(&f.width, "width", pipeline.DefaultWidth, "frame width")
	cmd.Flags().Float64Var(&f.height, "height", pipeline.DefaultHeight, "frame height")
	cmd.Flags().Uint64Var(&f.seed, "seed", pipeline.DefaultSeed, "random seed")
}

// options converts the flags into pipeline options for the active dataset.
func (c *CLI) options(f viewFlags) pipeline.Options {
	return pipeline.Options{
		Dataset: c.dataset,
		Mode:    f.mode,
		Engine:  f.engine,
		Width:   f.width,
		Height:  f.height,
		Seed:    f.seed,
		Logger:  c.Logger,
	}
}
