package view

import (
	"maps"

	"github.com/matzehuels/linkatlas/pkg/atlas"
	"github.com/matzehuels/linkatlas/pkg/errors"
	"github.com/matzehuels/linkatlas/pkg/graph"
	"github.com/matzehuels/linkatlas/pkg/observability"
)

// State is the application state of one viewer: the current detail level
// and the nodes the viewer has dragged into place.
//
// Pins survive a toggle. A pin on a node that the current mode hides (a
// minor link while collapsed) is kept and applies again once the node is
// shown.
type State struct {
	Mode Mode                      `json:"mode"`
	Pins map[string]graph.Position `json:"pins,omitempty"`
}

// NewState returns a state in the given mode with no pins.
func NewState(m Mode) State {
	return State{Mode: m}
}

// Toggle flips the mode and returns the new one.
func (s *State) Toggle() Mode {
	from := s.Mode
	s.Mode = s.Mode.Toggle()
	observability.View().OnToggle(from.String(), s.Mode.String())
	return s.Mode
}

// Pin fixes the node with the given key at (x, y).
func (s *State) Pin(key string, x, y float64) error {
	if _, err := atlas.ParseKey(key); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidKey, err, "pin")
	}
	if s.Pins == nil {
		s.Pins = make(map[string]graph.Position)
	}
	s.Pins[key] = graph.Position{X: x, Y: y, Fixed: true}
	return nil
}

// Release unpins a node. It reports whether the node was pinned.
func (s *State) Release(key string) bool {
	if _, ok := s.Pins[key]; !ok {
		return false
	}
	delete(s.Pins, key)
	return true
}

// Graph builds the view graph for the current mode.
func (s *State) Graph(a *atlas.Atlas) graph.Graph {
	return Build(a, s.Mode)
}

// ActivePins returns the pins that apply to g, that is the pins of nodes g
// contains.
func (s *State) ActivePins(g graph.Graph) map[string]graph.Position {
	out := make(map[string]graph.Position)
	ix := g.Index()
	for k, p := range s.Pins {
		if _, ok := ix[k]; ok {
			out[k] = p
		}
	}
	return out
}

// Clone returns a deep copy.
func (s State) Clone() State {
	return State{Mode: s.Mode, Pins: maps.Clone(s.Pins)}
}
