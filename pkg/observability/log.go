package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// =============================================================================
// Log Hooks
// =============================================================================

// LogHooks writes every event to a structured logger at debug level, and
// failures at warn level. It implements all hook interfaces.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks logging to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{Logger: logger}
}

func (h *LogHooks) OnBuild(mode string, nodes, edges int) {
	h.Logger.Debug("view built", "mode", mode, "nodes", nodes, "edges", edges)
}

func (h *LogHooks) OnToggle(from, to string) {
	h.Logger.Debug("view toggled", "from", from, "to", to)
}

func (h *LogHooks) OnDatasetLoad(_ context.Context, source string, artifacts, links int, err error) {
	if err != nil {
		h.Logger.Warn("dataset load failed", "source", source, "error", err)
		return
	}
	h.Logger.Debug("dataset loaded", "source", source, "artifacts", artifacts, "links", links)
}

func (h *LogHooks) OnLayoutStart(_ context.Context, engine string, nodeCount int) {
	h.Logger.Debug("layout started", "engine", engine, "nodes", nodeCount)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, engine string, d time.Duration, err error) {
	if err != nil {
		h.Logger.Warn("layout failed", "engine", engine, "error", err)
		return
	}
	h.Logger.Debug("layout complete", "engine", engine, "took", d.Round(time.Millisecond))
}

func (h *LogHooks) OnRenderStart(_ context.Context, formats []string) {
	h.Logger.Debug("render started", "formats", formats)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	if err != nil {
		h.Logger.Warn("render failed", "formats", formats, "error", err)
		return
	}
	h.Logger.Debug("render complete", "formats", formats, "took", d.Round(time.Millisecond))
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(context.Context, string, string) {}

func (h *LogHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.Logger.Info("request", "method", method, "route", route, "status", status, "took", d.Round(time.Microsecond))
}

// =============================================================================
// Counters
// =============================================================================

// Counters tallies events in memory. It implements all hook interfaces and
// backs the server's /healthz statistics.
type Counters struct {
	Builds      atomic.Int64
	Toggles     atomic.Int64
	Layouts     atomic.Int64
	Renders     atomic.Int64
	Failures    atomic.Int64
	CacheHits   atomic.Int64
	CacheMisses atomic.Int64
	Requests    atomic.Int64

	mu       sync.Mutex
	statuses map[int]int64
}

// Snapshot is a point-in-time copy of Counters.
type Snapshot struct {
	Builds      int64         `json:"builds"`
	Toggles     int64         `json:"toggles"`
	Layouts     int64         `json:"layouts"`
	Renders     int64         `json:"renders"`
	Failures    int64         `json:"failures"`
	CacheHits   int64         `json:"cache_hits"`
	CacheMisses int64         `json:"cache_misses"`
	Requests    int64         `json:"requests"`
	Statuses    map[int]int64 `json:"statuses,omitempty"`
}

// Snapshot copies the current values.
func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	statuses := make(map[int]int64, len(c.statuses))
	for k, v := range c.statuses {
		statuses[k] = v
	}
	c.mu.Unlock()
	return Snapshot{
		Builds:      c.Builds.Load(),
		Toggles:     c.Toggles.Load(),
		Layouts:     c.Layouts.Load(),
		Renders:     c.Renders.Load(),
		Failures:    c.Failures.Load(),
		CacheHits:   c.CacheHits.Load(),
		CacheMisses: c.CacheMisses.Load(),
		Requests:    c.Requests.Load(),
		Statuses:    statuses,
	}
}

func (c *Counters) OnBuild(string, int, int) { c.Builds.Add(1) }
func (c *Counters) OnToggle(string, string)  { c.Toggles.Add(1) }

func (c *Counters) OnDatasetLoad(_ context.Context, _ string, _, _ int, err error) {
	if err != nil {
		c.Failures.Add(1)
	}
}

func (c *Counters) OnLayoutStart(context.Context, string, int) {}

func (c *Counters) OnLayoutComplete(_ context.Context, _ string, _ time.Duration, err error) {
	c.Layouts.Add(1)
	if err != nil {
		c.Failures.Add(1)
	}
}

func (c *Counters) OnRenderStart(context.Context, []string) {}

func (c *Counters) OnRenderComplete(_ context.Context, _ []string, _ time.Duration, err error) {
	c.Renders.Add(1)
	if err != nil {
		c.Failures.Add(1)
	}
}

func (c *Counters) OnCacheHit(context.Context, string)      { c.CacheHits.Add(1) }
func (c *Counters) OnCacheMiss(context.Context, string)     { c.CacheMisses.Add(1) }
func (c *Counters) OnCacheSet(context.Context, string, int) {}

func (c *Counters) OnRequest(context.Context, string, string) { c.Requests.Add(1) }

func (c *Counters) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.statuses == nil {
		c.statuses = make(map[int]int64)
	}
	c.statuses[status]++
}

// =============================================================================
// Fan-out
// =============================================================================

// Multi forwards every event to each of its members in order.
type Multi []interface {
	ViewHooks
	PipelineHooks
	CacheHooks
	HTTPHooks
}

func (m Multi) OnBuild(mode string, nodes, edges int) {
	for _, h := range m {
		h.OnBuild(mode, nodes, edges)
	}
}

func (m Multi) OnToggle(from, to string) {
	for _, h := range m {
		h.OnToggle(from, to)
	}
}

func (m Multi) OnDatasetLoad(ctx context.Context, source string, artifacts, links int, err error) {
	for _, h := range m {
		h.OnDatasetLoad(ctx, source, artifacts, links, err)
	}
}

func (m Multi) OnLayoutStart(ctx context.Context, engine string, n int) {
	for _, h := range m {
		h.OnLayoutStart(ctx, engine, n)
	}
}

func (m Multi) OnLayoutComplete(ctx context.Context, engine string, d time.Duration, err error) {
	for _, h := range m {
		h.OnLayoutComplete(ctx, engine, d, err)
	}
}

func (m Multi) OnRenderStart(ctx context.Context, formats []string) {
	for _, h := range m {
		h.OnRenderStart(ctx, formats)
	}
}

func (m Multi) OnRenderComplete(ctx context.Context, formats []string, d time.Duration, err error) {
	for _, h := range m {
		h.OnRenderComplete(ctx, formats, d, err)
	}
}

func (m Multi) OnCacheHit(ctx context.Context, keyType string) {
	for _, h := range m {
		h.OnCacheHit(ctx, keyType)
	}
}

func (m Multi) OnCacheMiss(ctx context.Context, keyType string) {
	for _, h := range m {
		h.OnCacheMiss(ctx, keyType)
	}
}

func (m Multi) OnCacheSet(ctx context.Context, keyType string, size int) {
	for _, h := range m {
		h.OnCacheSet(ctx, keyType, size)
	}
}

func (m Multi) OnRequest(ctx context.Context, method, route string) {
	for _, h := range m {
		h.OnRequest(ctx, method, route)
	}
}

func (m Multi) OnResponse(ctx context.Context, method, route string, status int, d time.Duration) {
	for _, h := range m {
		h.OnResponse(ctx, method, route, status, d)
	}
}

// Install registers h for every hook category.
func Install(h interface {
	ViewHooks
	PipelineHooks
	CacheHooks
	HTTPHooks
}) {
	SetViewHooks(h)
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}
