package graph

import (
	"errors"
	"fmt"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// View mode names as they appear on the wire.
const (
	ModeDetailed  = "detailed"
	ModeCollapsed = "collapsed"
)

// Group values as they appear on the wire.
const (
	GroupArtifact = 0
	GroupMinor    = 1
	GroupMajor    = 2
)

// ErrInvalidGraph is returned when a decoded graph references unknown nodes
// or repeats a node id.
var ErrInvalidGraph = errors.New("invalid graph")

// =============================================================================
// Graph - View Graph Serialization
// =============================================================================

// Graph is the node and edge set shown for one view mode.
type Graph struct {
	Mode  string `json:"mode,omitempty" bson:"mode,omitempty"`
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Node is a drawable node.
type Node struct {
	ID          string  `json:"id" bson:"id"`
	Name        string  `json:"name,omitempty" bson:"name,omitempty"` // Display label (defaults to ID)
	Group       int     `json:"group" bson:"group"`
	Charge      float64 `json:"charge" bson:"charge"`
	Fuzzy       bool    `json:"fuzzy,omitempty" bson:"fuzzy,omitempty"`
	Description string  `json:"description,omitempty" bson:"description,omitempty"`
}

// DisplayName returns the name if set, otherwise the ID.
func (n *Node) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

// Edge is an undirected spring between two nodes.
type Edge struct {
	Source   string  `json:"source" bson:"source"`
	Target   string  `json:"target" bson:"target"`
	Distance float64 `json:"distance" bson:"distance"`
	Strength float64 `json:"strength" bson:"strength"`
}

// Position is a node coordinate. Fixed marks a node pinned by the viewer.
type Position struct {
	X     float64 `json:"x" bson:"x"`
	Y     float64 `json:"y" bson:"y"`
	Fixed bool    `json:"fixed,omitempty" bson:"fixed,omitempty"`
}

// =============================================================================
// Graph Queries
// =============================================================================

// Node returns the node with the given id.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Index maps node ids to their position in Nodes.
func (g Graph) Index() map[string]int {
	ix := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		ix[n.ID] = i
	}
	return ix
}

// Degree counts the edges incident to each node.
func (g Graph) Degree() map[string]int {
	deg := make(map[string]int, len(g.Nodes))
	for _, e := range g.Edges {
		deg[e.Source]++
		deg[e.Target]++
	}
	return deg
}

// Neighbors returns the ids adjacent to id, in edge order.
func (g Graph) Neighbors(id string) []string {
	var out []string
	for _, e := range g.Edges {
		switch id {
		case e.Source:
			out = append(out, e.Target)
		case e.Target:
			out = append(out, e.Source)
		}
	}
	return out
}

// CountGroup returns the number of nodes in the given group.
func (g Graph) CountGroup(group int) int {
	n := 0
	for _, node := range g.Nodes {
		if node.Group == group {
			n++
		}
	}
	return n
}

// Validate checks that node ids are unique and every edge endpoint exists.
func (g Graph) Validate() error {
	ix := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: node with empty id", ErrInvalidGraph)
		}
		if ix[n.ID] {
			return fmt.Errorf("%w: duplicate node %q", ErrInvalidGraph, n.ID)
		}
		ix[n.ID] = true
	}
	for _, e := range g.Edges {
		if !ix[e.Source] {
			return fmt.Errorf("%w: edge source %q not found", ErrInvalidGraph, e.Source)
		}
		if !ix[e.Target] {
			return fmt.Errorf("%w: edge target %q not found", ErrInvalidGraph, e.Target)
		}
	}
	return nil
}
