// Package pipeline provides the build → layout → render pipeline for linkatlas.
//
// The CLI and the HTTP server both go through this package so a graph, a
// layout or an image is computed the same way everywhere and lands in the
// same cache.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Build: Load the dataset and derive the view graph for a mode
//  2. Layout: Position the nodes with the force simulator or Graphviz
//  3. Render: Produce output formats (SVG, DOT, JSON, HTML, PNG, PDF)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Mode:    "collapsed",
//	    Engine:  "force",
//	    Formats: []string{"svg", "html"},
//	})
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	g, hit, err := runner.BuildWithCacheInfo(ctx, a, hash, opts)
//	l, hit, err := runner.LayoutWithCacheInfo(ctx, g, opts)
//	out, hit, err := runner.RenderWithCacheInfo(ctx, a, hash, l, opts)
package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/linkatlas/pkg/atlas"
	"github.com/matzehuels/linkatlas/pkg/cache"
	"github.com/matzehuels/linkatlas/pkg/errors"
	"github.com/matzehuels/linkatlas/pkg/graph"
	"github.com/matzehuels/linkatlas/pkg/render/nodelink"
	"github.com/matzehuels/linkatlas/pkg/view"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultWidth is the default frame width in pixels.
	DefaultWidth = 960.0

	// DefaultHeight is the default frame height in pixels.
	DefaultHeight = 600.0

	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = uint64(42)

	// DefaultScale is the PNG resolution multiplier.
	DefaultScale = 2.0

	// DefaultMode is the detail level shown first.
	DefaultMode = graph.ModeDetailed

	// DefaultEngine is the default layout engine.
	DefaultEngine = EngineForce

	// MaxDimension bounds width and height.
	MaxDimension = 20000.0
)

// Layout engines.
const (
	EngineForce = "force"
	EngineNeato = nodelink.EngineNeato
	EngineFDP   = nodelink.EngineFDP
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatDOT  = "dot"
	FormatJSON = "json"
	FormatHTML = "html"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatDOT:  true,
	FormatJSON: true,
	FormatHTML: true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// ValidEngines is the set of supported layout engines.
var ValidEngines = map[string]bool{
	EngineForce: true,
	EngineNeato: true,
	EngineFDP:   true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Build options
	Dataset string `json:"dataset,omitempty"` // dataset file; empty uses the embedded one
	Mode    string `json:"mode,omitempty"`

	// Layout options
	Engine string                    `json:"engine,omitempty"`
	Width  float64                   `json:"width,omitempty"`
	Height float64                   `json:"height,omitempty"`
	Seed   uint64                    `json:"seed,omitempty"`
	Pins   map[string]graph.Position `json:"pins,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Scale   float64  `json:"scale,omitempty"`
	API     string   `json:"api,omitempty"` // server base URL baked into HTML output
	Title   string   `json:"title,omitempty"`

	// Refresh skips cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Atlas is the dataset the graph was built from.
	Atlas *atlas.Atlas

	// DatasetHash is the dataset fingerprint.
	DatasetHash string

	// Graph is the view graph for the requested mode.
	Graph graph.Graph

	// Layout is the positioned graph.
	Layout graph.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LoadTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	GraphHit  bool
	LayoutHit bool
	RenderHit bool // all requested formats came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)", format, keys(ValidFormats))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateEngine checks that a layout engine is valid.
func ValidateEngine(engine string) error {
	if !ValidEngines[engine] {
		return errors.New(errors.ErrCodeInvalidEngine, "invalid engine: %q (must be one of: %s)", engine, keys(ValidEngines))
	}
	return nil
}

// ParseFormats splits a comma separated format list, dropping blanks and
// duplicates.
func ParseFormats(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

func keys(m map[string]bool) string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return strings.Join(out, ", ")
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks all fields and applies defaults for the full
// pipeline. Calling it again has no effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForBuild(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForBuild normalizes the mode.
func (o *Options) ValidateForBuild() error {
	m, err := view.ParseMode(o.Mode)
	if err != nil {
		return err
	}
	o.Mode = m.String()
	return nil
}

// ViewMode returns the parsed mode. Call after ValidateForBuild.
func (o *Options) ViewMode() view.Mode {
	m, _ := view.ParseMode(o.Mode)
	return m
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Engine == "" {
		o.Engine = DefaultEngine
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	o.Engine = strings.ToLower(o.Engine)
	if err := ValidateEngine(o.Engine); err != nil {
		return err
	}
	if o.Width < 0 || o.Height < 0 || o.Width > MaxDimension || o.Height > MaxDimension {
		return errors.New(errors.ErrCodeInvalidInput, "frame %gx%g out of range (max %g)", o.Width, o.Height, MaxDimension)
	}
	for key := range o.Pins {
		if _, err := atlas.ParseKey(key); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidKey, err, "pin")
		}
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// IsGraphviz reports whether the layout engine is a Graphviz engine.
func (o *Options) IsGraphviz() bool {
	return nodelink.ValidEngine(o.Engine)
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	k := cache.LayoutKeyOpts{
		Engine: o.Engine,
		Width:  o.Width,
		Height: o.Height,
		Seed:   o.Seed,
	}
	if len(o.Pins) > 0 {
		k.PinsHash, _ = cache.HashJSON(o.Pins)
	}
	return k
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format, datasetHash string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatPNG:
		k.Scale = o.Scale
	case FormatHTML:
		k.API = o.API
		k.DatasetHash = datasetHash + "|" + o.Title
	}
	return k
}
