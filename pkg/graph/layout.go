package graph

import (
	"encoding/json"
	"fmt"
	"os"
)

// =============================================================================
// Layout - Positioned View Graph
// =============================================================================

// Layout is a view graph with computed positions.
//
// Positions is keyed by node id and covers every node. Engine names the
// layout engine that produced it ("force", "neato" or "fdp"). DOT holds the
// Graphviz source when a Graphviz engine was used, so the layout can be
// re-rendered without running the engine again.
type Layout struct {
	Mode   string  `json:"mode" bson:"mode"`
	Engine string  `json:"engine" bson:"engine"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
	Seed   uint64  `json:"seed,omitempty" bson:"seed,omitempty"`

	Nodes     []Node              `json:"nodes" bson:"nodes"`
	Edges     []Edge              `json:"edges" bson:"edges"`
	Positions map[string]Position `json:"positions" bson:"positions"`

	DOT string `json:"dot,omitempty" bson:"dot,omitempty"`
}

// Graph returns the graph part of the layout.
func (l *Layout) Graph() Graph {
	return Graph{Mode: l.Mode, Nodes: l.Nodes, Edges: l.Edges}
}

// Pinned returns the ids of fixed nodes.
func (l *Layout) Pinned() []string {
	var out []string
	for _, n := range l.Nodes {
		if p, ok := l.Positions[n.ID]; ok && p.Fixed {
			out = append(out, n.ID)
		}
	}
	return out
}

// Bounds returns the bounding box of all positions.
func (l *Layout) Bounds() (minX, minY, maxX, maxY float64) {
	first := true
	for _, p := range l.Positions {
		if first {
			minX, maxX, minY, maxY = p.X, p.X, p.Y, p.Y
			first = false
			continue
		}
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	return
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
// Every node must have a position and every edge must reference known nodes.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if err := l.Graph().Validate(); err != nil {
		return Layout{}, err
	}
	for _, n := range l.Nodes {
		if _, ok := l.Positions[n.ID]; !ok {
			return Layout{}, fmt.Errorf("%w: node %q has no position", ErrInvalidGraph, n.ID)
		}
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
