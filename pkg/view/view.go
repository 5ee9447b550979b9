// Package view derives the drawable node and edge set from an atlas.
//
// Two detail levels exist:
//
//   - [Detailed]: every game and every link. Games connect to the links they
//     exhibit; minor links connect to each of their parent themes.
//   - [Collapsed]: games and major links only. Each game connects once to
//     every theme reachable through one of its links.
//
// The mode is an explicit argument to [Build]; callers that need a toggle
// keep a [State] of their own.
package view

import (
	"fmt"
	"strings"

	"github.com/matzehuels/linkatlas/pkg/atlas"
	"github.com/matzehuels/linkatlas/pkg/errors"
	"github.com/matzehuels/linkatlas/pkg/graph"
	"github.com/matzehuels/linkatlas/pkg/observability"
)

// Mode is the detail level of a view.
type Mode int

const (
	// Detailed shows all nodes and the membership edges between them.
	Detailed Mode = iota
	// Collapsed hides minor links and aggregates them into game-to-theme edges.
	Collapsed
)

// String returns the wire name of the mode.
func (m Mode) String() string {
	if m == Collapsed {
		return graph.ModeCollapsed
	}
	return graph.ModeDetailed
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == Collapsed {
		return Detailed
	}
	return Collapsed
}

// ParseMode parses a mode name. The empty string parses as Detailed.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", graph.ModeDetailed, "detail", "expanded":
		return Detailed, nil
	case graph.ModeCollapsed, "collapse", "majors":
		return Collapsed, nil
	}
	return Detailed, errors.New(errors.ErrCodeInvalidMode, "unknown view mode %q (want %s or %s)", s, graph.ModeDetailed, graph.ModeCollapsed)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Build computes the view graph of a finalized atlas. Nodes are ordered with
// games first in declaration order, then links in canonical order. Edges are
// emitted deterministically, so building the same mode twice yields equal
// graphs.
func Build(a *atlas.Atlas, m Mode) graph.Graph {
	var g graph.Graph
	switch m {
	case Collapsed:
		g = buildCollapsed(a)
	default:
		g = buildDetailed(a)
	}
	observability.View().OnBuild(m.String(), len(g.Nodes), len(g.Edges))
	return g
}

func buildDetailed(a *atlas.Atlas) graph.Graph {
	g := graph.Graph{Mode: Detailed.String()}
	links := a.Links()

	for _, e := range a.Entities() {
		g.Nodes = append(g.Nodes, nodeOf(e))
	}

	for _, art := range a.Artifacts() {
		src := atlas.ArtifactID(art.Name).Key()
		for _, li := range art.Links {
			g.Edges = append(g.Edges, edgeTo(src, li, links[li]))
		}
	}

	// Each (link, parent) pair is drawn once no matter how many games share
	// the link. Only links that some game exhibits are connected.
	emitted := make(map[[2]int]bool)
	for _, art := range a.Artifacts() {
		for _, li := range art.Links {
			src := atlas.LinkID(li).Key()
			for _, p := range links[li].Parents {
				pair := [2]int{li, p}
				if emitted[pair] {
					continue
				}
				emitted[pair] = true
				g.Edges = append(g.Edges, edgeTo(src, p, links[p]))
			}
		}
	}
	return g
}

func buildCollapsed(a *atlas.Atlas) graph.Graph {
	g := graph.Graph{Mode: Collapsed.String()}
	links := a.Links()

	for _, e := range a.Entities() {
		if e.ID.Kind == atlas.KindLink && !e.Link.Major() {
			continue
		}
		g.Nodes = append(g.Nodes, nodeOf(e))
	}

	for _, art := range a.Artifacts() {
		target := atlas.ArtifactID(art.Name).Key()
		connected := make(map[int]bool)
		for _, li := range art.Links {
			parents := links[li].Parents
			if links[li].Major() { // listed directly, its own parent
				parents = []int{li}
			}
			for _, p := range parents {
				if connected[p] {
					continue
				}
				connected[p] = true
				parent := links[p]
				g.Edges = append(g.Edges, graph.Edge{
					Source:   atlas.LinkID(p).Key(),
					Target:   target,
					Distance: parent.Distance(),
					Strength: parent.Strength(),
				})
			}
		}
	}
	return g
}

func nodeOf(e atlas.Entity) graph.Node {
	return graph.Node{
		ID:          e.ID.Key(),
		Name:        e.Name,
		Group:       int(e.Group),
		Charge:      e.Charge(),
		Fuzzy:       e.Fuzzy(),
		Description: e.Description(),
	}
}

func edgeTo(source string, target int, l atlas.Link) graph.Edge {
	return graph.Edge{
		Source:   source,
		Target:   atlas.LinkID(target).Key(),
		Distance: l.Distance(),
		Strength: l.Strength(),
	}
}

// =============================================================================
// Node Info
// =============================================================================

// Info is the inspect panel content for one node.
type Info struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Group       string   `json:"group"`
	Description string   `json:"description"`
	Fuzzy       bool     `json:"fuzzy,omitempty"`
	Parents     []string `json:"parents,omitempty"`  // major links holding a minor link
	Children    []string `json:"children,omitempty"` // minor links of a major link
	Links       []string `json:"links,omitempty"`    // links exhibited by a game
	Artifacts   []string `json:"artifacts,omitempty"`
}

// Describe returns the inspect info for a node key.
func Describe(a *atlas.Atlas, key string) (Info, error) {
	id, err := atlas.ParseKey(key)
	if err != nil {
		return Info{}, errors.Wrap(errors.ErrCodeInvalidKey, err, "parse node key")
	}
	e, err := a.Entity(id)
	if err != nil {
		return Info{}, errors.Wrap(errors.ErrCodeUnknownNode, err, "node %s not found", key)
	}
	return describe(a, e), nil
}

// Lookup returns the inspect info for a node by display name.
func Lookup(a *atlas.Atlas, name string) (Info, error) {
	e, err := a.Lookup(name)
	if err != nil {
		return Info{}, errors.Wrap(errors.ErrCodeUnknownNode, err, "no game or link named %q", name)
	}
	return describe(a, e), nil
}

func describe(a *atlas.Atlas, e atlas.Entity) Info {
	links := a.Links()
	names := func(ix []int) []string {
		var out []string
		for _, i := range ix {
			out = append(out, links[i].Name)
		}
		return out
	}

	info := Info{
		ID:          e.ID.Key(),
		Name:        e.Name,
		Group:       e.Group.String(),
		Description: e.Description(),
		Fuzzy:       e.Fuzzy(),
	}
	switch {
	case e.Artifact != nil:
		info.Links = names(e.Artifact.Links)
	case e.Link != nil:
		info.Parents = names(e.Link.Parents)
		info.Children = names(e.Link.Children)
		for _, art := range a.Artifacts() {
			if exhibits(a, art, e.ID.Index) {
				info.Artifacts = append(info.Artifacts, art.Name)
			}
		}
	}
	return info
}

// exhibits reports whether art shows link li directly or, for a major link,
// through one of its children.
func exhibits(a *atlas.Atlas, art atlas.Artifact, li int) bool {
	links := a.Links()
	for _, l := range art.Links {
		if l == li {
			return true
		}
		for _, p := range links[l].Parents {
			if p == li {
				return true
			}
		}
	}
	return false
}

// Summary is a one-line description of a graph for logs and CLI output.
func Summary(g graph.Graph) string {
	return fmt.Sprintf("%s: %d nodes (%d games, %d minor, %d major), %d edges",
		g.Mode, len(g.Nodes),
		g.CountGroup(graph.GroupArtifact), g.CountGroup(graph.GroupMinor), g.CountGroup(graph.GroupMajor),
		len(g.Edges))
}
