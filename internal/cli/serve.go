package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/matzehuels/linkatlas/internal/config"
	"github.com/matzehuels/linkatlas/internal/server"
	"github.com/matzehuels/linkatlas/pkg/cache"
	"github.com/matzehuels/linkatlas/pkg/dataset"
	"github.com/matzehuels/linkatlas/pkg/errors"
	"github.com/matzehuels/linkatlas/pkg/observability"
	"github.com/matzehuels/linkatlas/pkg/pipeline"
	"github.com/matzehuels/linkatlas/pkg/session"
	"github.com/matzehuels/linkatlas/pkg/storage"
)

// serveFlagKeys maps serve flags to configuration keys.
var serveFlagKeys = map[string]string{
	"dataset":          "dataset",
	"addr":             "addr",
	"watch":            "watch",
	"mode":             "mode",
	"engine":           "engine",
	"width":            "width",
	"height":           "height",
	"cache-backend":    "cache.backend",
	"session-backend":  "session.backend",
	"snapshot-backend": "snapshot.backend",
	"verbose":          "verbose",
}

// serveCommand creates the serve command. Settings come from flags, then
// LINKATLAS_* environment variables, then the config file.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configFile string
		title      string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive page and the JSON API",
		Long: `Serve the interactive page and the JSON API.

Configuration is read from linkatlas.{toml,yaml,json} in the working directory
or ~/.config/linkatlas, from LINKATLAS_* environment variables (for example
LINKATLAS_CACHE_BACKEND=redis) and from flags, in increasing precedence.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := config.New()
			if err := bindFlags(v, cmd); err != nil {
				return err
			}
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			if cfg.Verbose {
				c.SetLogLevel(LogDebug)
			}
			return c.runServe(cmd.Context(), cfg, title)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file")
	cmd.Flags().String("addr", config.DefaultAddr, "listen address")
	cmd.Flags().Bool("watch", false, "reload the dataset file when it changes")
	cmd.Flags().StringP("mode", "m", pipeline.DefaultMode, "default view mode")
	cmd.Flags().StringP("engine", "e", pipeline.DefaultEngine, "default layout engine")
	cmd.Flags().Float64("width", pipeline.DefaultWidth, "default frame width")
	cmd.Flags().Float64("height", pipeline.DefaultHeight, "default frame height")
	cmd.Flags().String("cache-backend", cache.BackendFile, "render cache: file, redis, none")
	cmd.Flags().String("session-backend", session.BackendMemory, "session store: memory, file, redis")
	cmd.Flags().String("snapshot-backend", storage.BackendMemory, "snapshot store: memory, sqlite, mongo")
	cmd.Flags().StringVar(&title, "title", "", "page title")

	return cmd
}

// bindFlags binds the serve flags, including the inherited ones, to v.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range serveFlagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	return nil
}

func (c *CLI) runServe(ctx context.Context, cfg config.Config, title string) error {
	logger := c.Logger
	if err := errors.ValidateAddr(cfg.Addr); err != nil {
		return err
	}
	observability.Install(observability.NewLogHooks(logger))
	defer observability.Reset()

	a, hash, err := pipeline.LoadDataset(ctx, cfg.Dataset)
	if err != nil {
		return err
	}
	st := a.Stats()
	logger.Info("loaded dataset",
		"source", sourceLabel(cfg.Dataset),
		"artifacts", st.Artifacts,
		"links", st.Majors+st.Minors,
		"fingerprint", hash[:12])

	rc, err := cache.Open(ctx, cfg.CacheConfig())
	if err != nil {
		logger.Warn("render cache unavailable, continuing without", "backend", cfg.Cache.Backend, "error", err)
		rc = cache.NewNullCache()
	}
	runner := pipeline.NewRunner(rc, cfg.Keyer(), logger)
	defer runner.Close()

	sessions, err := session.Open(ctx, cfg.SessionConfig())
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer sessions.Close()

	snapshots, err := storage.Open(ctx, cfg.StorageConfig())
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	defer snapshots.Close()

	logger.Debug("backends ready",
		"cache", cfg.Cache.Backend,
		"sessions", cfg.Session.Backend,
		"snapshots", cfg.Snapshot.Backend)

	srv := server.New(a, hash, server.Options{
		Logger:     logger,
		Runner:     runner,
		Sessions:   sessions,
		Snapshots:  snapshots,
		SessionTTL: cfg.Session.TTL,
		Mode:       cfg.Mode,
		Engine:     cfg.Engine,
		Width:      cfg.Width,
		Height:     cfg.Height,
		Title:      title,
	})

	if cfg.Watch {
		if cfg.Dataset == "" {
			logger.Warn("--watch needs --dataset; serving the embedded dataset without reload")
		} else {
			w, err := dataset.NewWatcher(cfg.Dataset)
			if err != nil {
				return fmt.Errorf("watch %s: %w", cfg.Dataset, err)
			}
			w.Logger = logger
			go func() {
				if err := srv.Watch(ctx, w); err != nil {
					logger.Error("dataset watcher stopped", "error", err)
				}
			}()
		}
	}

	return srv.ListenAndServe(ctx, cfg.Addr)
}
