package force

import (
	"context"

	"github.com/matzehuels/linkatlas/pkg/graph"
)

// Simulator computes node positions for a graph. Pins fix nodes at the given
// coordinates; pins for nodes not in the graph are ignored.
type Simulator interface {
	Run(ctx context.Context, g graph.Graph, pins map[string]graph.Position) (map[string]graph.Position, error)
}

// Engine is the built-in Simulator.
type Engine struct {
	Options Options
}

// NewEngine returns an engine with the given options.
func NewEngine(opts Options) *Engine {
	return &Engine{Options: opts}
}

// Run simulates g from a fresh start until it cools down.
func (e *Engine) Run(ctx context.Context, g graph.Graph, pins map[string]graph.Position) (map[string]graph.Position, error) {
	sim, err := New(g, e.Options)
	if err != nil {
		return nil, err
	}
	for id, p := range pins {
		if _, ok := sim.index[id]; !ok {
			continue
		}
		if err := sim.Pin(id, p.X, p.Y); err != nil {
			return nil, err
		}
	}
	if err := sim.Run(ctx); err != nil {
		return nil, err
	}
	return sim.Positions(), nil
}

// Func adapts a function to the Simulator interface.
type Func func(ctx context.Context, g graph.Graph, pins map[string]graph.Position) (map[string]graph.Position, error)

// Run calls f.
func (f Func) Run(ctx context.Context, g graph.Graph, pins map[string]graph.Position) (map[string]graph.Position, error) {
	return f(ctx, g, pins)
}
