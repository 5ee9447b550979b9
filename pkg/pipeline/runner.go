package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/linkatlas/pkg/atlas"
	"github.com/matzehuels/linkatlas/pkg/cache"
	"github.com/matzehuels/linkatlas/pkg/force"
	"github.com/matzehuels/linkatlas/pkg/graph"
	"github.com/matzehuels/linkatlas/pkg/observability"
	"github.com/matzehuels/linkatlas/pkg/view"
)

// Cache key types reported to observability hooks.
const (
	keyTypeGraph    = "graph"
	keyTypeLayout   = "layout"
	keyTypeArtifact = "artifact"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for its collaborators and does not store
// pipeline results. Multiple goroutines can safely use the same Runner with
// different options as long as Simulator is safe for concurrent use; the
// default simulator is created per call.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Simulator overrides the force engine. Nil builds one per layout from
	// the layout options.
	Simulator force.Simulator
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → build → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	r.applyLogger(&opts)

	loadStart := time.Now()
	a, hash, err := LoadDataset(ctx, opts.Dataset)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	loadTime := time.Since(loadStart)

	opts.Logger.Debug("loaded dataset",
		"source", sourceName(opts.Dataset),
		"hash", hash[:12],
		"duration", loadTime)

	result, err := r.ExecuteAtlas(ctx, a, hash, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = loadTime
	return result, nil
}

// ExecuteAtlas runs the build → layout → render stages on an already loaded
// dataset. The server uses it with the atlas it keeps in memory.
func (r *Runner) ExecuteAtlas(ctx context.Context, a *atlas.Atlas, datasetHash string, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Atlas:       a,
		DatasetHash: datasetHash,
		Artifacts:   make(map[string][]byte),
	}

	// Stage 1: Build
	g, graphHit, err := r.BuildWithCacheInfo(ctx, a, datasetHash, opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Graph = g
	result.Stats.NodeCount = len(g.Nodes)
	result.Stats.EdgeCount = len(g.Edges)
	result.CacheInfo.GraphHit = graphHit

	opts.Logger.Info("built view graph",
		"mode", g.Mode,
		"nodes", len(g.Nodes),
		"edges", len(g.Edges))

	// Stage 2: Layout
	layoutStart := time.Now()
	l, layoutHit, err := r.LayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	opts.Logger.Info("computed layout",
		"engine", l.Engine,
		"pinned", len(l.Pinned()),
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, a, datasetHash, l, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// BuildWithCacheInfo derives the view graph for opts.Mode with caching and
// returns cache hit info.
func (r *Runner) BuildWithCacheInfo(ctx context.Context, a *atlas.Atlas, datasetHash string, opts Options) (graph.Graph, bool, error) {
	if err := opts.ValidateForBuild(); err != nil {
		return graph.Graph{}, false, err
	}

	cacheKey := r.Keyer.GraphKey(datasetHash, opts.Mode)
	if !opts.Refresh && datasetHash != "" {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if g, err := graph.UnmarshalGraph(data); err == nil {
				observability.Cache().OnCacheHit(ctx, keyTypeGraph)
				return g, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, keyTypeGraph)
	}

	g := view.Build(a, opts.ViewMode())

	if datasetHash != "" {
		if data, err := graph.MarshalGraph(g); err == nil {
			if r.Cache.Set(ctx, cacheKey, data, cache.GraphTTL) == nil {
				observability.Cache().OnCacheSet(ctx, keyTypeGraph, len(data))
			}
		}
	}
	return g, false, nil
}

// Build is a convenience wrapper that calls BuildWithCacheInfo and discards the cache hit info.
func (r *Runner) Build(ctx context.Context, a *atlas.Atlas, datasetHash string, opts Options) (graph.Graph, error) {
	g, _, err := r.BuildWithCacheInfo(ctx, a, datasetHash, opts)
	return g, err
}

// LayoutWithCacheInfo generates a layout with caching and returns cache hit info.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, g graph.Graph, opts Options) (graph.Layout, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return graph.Layout{}, false, err
	}
	r.applyLogger(&opts)

	graphData, err := graph.MarshalGraph(g)
	if err != nil {
		return graph.Layout{}, false, fmt.Errorf("serialize graph for cache key: %w", err)
	}
	cacheKey := r.Keyer.LayoutKey(cache.Hash(graphData), opts.LayoutKeyOpts())

	// A custom simulator is not part of the key, so its results bypass the cache.
	cacheable := r.Simulator == nil || opts.IsGraphviz()

	if cacheable && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if cached, err := graph.UnmarshalLayout(data); err == nil {
				observability.Cache().OnCacheHit(ctx, keyTypeLayout)
				return cached, true, nil
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, keyTypeLayout)
	}

	l, err := GenerateLayout(ctx, g, r.Simulator, opts)
	if err != nil {
		return graph.Layout{}, false, err
	}

	if cacheable {
		if data, err := graph.MarshalLayout(l); err == nil {
			if r.Cache.Set(ctx, cacheKey, data, cache.LayoutTTL) == nil {
				observability.Cache().OnCacheSet(ctx, keyTypeLayout, len(data))
			}
		}
	}
	return l, false, nil
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, g graph.Graph, opts Options) (graph.Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, g, opts)
	return l, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit
// info. The hit flag is true only when every requested format was cached.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, a *atlas.Atlas, datasetHash string, l graph.Layout, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	layoutData, err := graph.MarshalLayout(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		if !opts.Refresh {
			key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format, datasetHash))
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, keyTypeArtifact)
				artifacts[format] = data
				continue
			}
			observability.Cache().OnCacheMiss(ctx, keyTypeArtifact)
		}
		missing = append(missing, format)
	}

	if len(missing) == 0 {
		return artifacts, true, nil
	}

	renderOpts := opts
	renderOpts.Formats = missing
	rendered, err := RenderFromLayout(ctx, a, l, renderOpts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		artifacts[format] = data
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format, datasetHash))
		if r.Cache.Set(ctx, key, data, cache.ArtifactTTL) == nil {
			observability.Cache().OnCacheSet(ctx, keyTypeArtifact, len(data))
		}
	}

	return artifacts, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, a *atlas.Atlas, datasetHash string, l graph.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, a, datasetHash, l, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
