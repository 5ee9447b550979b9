package pipeline

import (
	"context"
	"maps"
	"time"

	"github.com/matzehuels/linkatlas/pkg/force"
	"github.com/matzehuels/linkatlas/pkg/graph"
	"github.com/matzehuels/linkatlas/pkg/observability"
	"github.com/matzehuels/linkatlas/pkg/render/nodelink"
)

// =============================================================================
// Layout Generation
// =============================================================================

// GenerateLayout positions every node of g.
//
// The force engine runs sim (or a fresh simulator seeded from opts when sim
// is nil) and records a DOT drawing with all nodes pinned where the
// simulation left them, so the layout renders through neato unchanged. The
// Graphviz engines lay the graph out themselves; pins in opts are passed as
// fixed positions.
//
// Pins for nodes absent from g are ignored.
func GenerateLayout(ctx context.Context, g graph.Graph, sim force.Simulator, opts Options) (graph.Layout, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return graph.Layout{}, err
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, opts.Engine, len(g.Nodes))
	start := time.Now()

	l, err := generateLayout(ctx, g, sim, opts)
	hooks.OnLayoutComplete(ctx, opts.Engine, time.Since(start), err)
	return l, err
}

func generateLayout(ctx context.Context, g graph.Graph, sim force.Simulator, opts Options) (graph.Layout, error) {
	l := graph.Layout{
		Mode:   g.Mode,
		Engine: opts.Engine,
		Width:  opts.Width,
		Height: opts.Height,
		Seed:   opts.Seed,
		Nodes:  g.Nodes,
		Edges:  g.Edges,
	}
	pins := activePins(g, opts.Pins)

	if opts.IsGraphviz() {
		l.DOT = nodelink.ToDOT(g, pins, nodelink.Options{Engine: opts.Engine, Seed: opts.Seed})
		pos, err := nodelink.Layout(ctx, l.DOT, opts.Engine)
		if err != nil {
			return graph.Layout{}, err
		}
		l.Positions = pos
		return l, nil
	}

	if sim == nil {
		sim = force.NewEngine(force.Options{Width: opts.Width, Height: opts.Height, Seed: opts.Seed})
	}
	pos, err := sim.Run(ctx, g, pins)
	if err != nil {
		return graph.Layout{}, err
	}
	l.Positions = pos

	fixed := make(map[string]graph.Position, len(pos))
	for id, p := range pos {
		p.Fixed = true
		fixed[id] = p
	}
	l.DOT = nodelink.ToDOT(g, fixed, nodelink.Options{Engine: nodelink.EngineNeato, Width: opts.Width, Height: opts.Height})
	return l, nil
}

// activePins returns the pins that name a node of g, all marked fixed.
func activePins(g graph.Graph, pins map[string]graph.Position) map[string]graph.Position {
	if len(pins) == 0 {
		return nil
	}
	idx := g.Index()
	out := maps.Clone(pins)
	for id, p := range out {
		if _, ok := idx[id]; !ok {
			delete(out, id)
			continue
		}
		p.Fixed = true
		out[id] = p
	}
	return out
}

// SVGEngine returns the Graphviz engine that draws a layout. Force layouts
// carry fully pinned DOT and go through neato.
func SVGEngine(l graph.Layout) string {
	if nodelink.ValidEngine(l.Engine) {
		return l.Engine
	}
	return nodelink.EngineNeato
}
