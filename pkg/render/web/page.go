// Package web renders the interactive atlas page.
//
// The page is a single HTML document with both view modes embedded as JSON.
// It loads d3 from a CDN and runs the same force model as [force.Engine]:
// per-node charge, per-edge rest distance and strength, and a centering
// force. Clicking a node fills the name and description panels, dragging
// pins it, double-clicking releases it and the toggle button switches
// between the detailed and collapsed modes.
//
// When API is set the page talks to a running server instead: it creates a
// session, toggles through it and stores pins there, so a reload keeps the
// viewer's state.
//
// [force.Engine]: github.com/matzehuels/linkatlas/pkg/force
package web

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"

	"github.com/matzehuels/linkatlas/pkg/graph"
)

//go:embed page.html.tmpl
var pageSource string

var pageTemplate = template.Must(template.New("page").Parse(pageSource))

// Default page geometry, matching the original frame.
const (
	DefaultWidth  = 960
	DefaultHeight = 600
	DefaultTitle  = "linkatlas"
)

// Page holds everything the template needs.
type Page struct {
	Title  string
	Width  int
	Height int

	// Mode is the mode shown first ("detailed" or "collapsed").
	Mode string

	Detailed  graph.Graph
	Collapsed graph.Graph

	// Positions seeds node coordinates, e.g. from a saved snapshot. Fixed
	// entries start pinned.
	Positions map[string]graph.Position

	// API is the base URL of a linkatlas server. Empty renders a standalone page.
	API string
}

func (p *Page) setDefaults() {
	if p.Title == "" {
		p.Title = DefaultTitle
	}
	if p.Width <= 0 {
		p.Width = DefaultWidth
	}
	if p.Height <= 0 {
		p.Height = DefaultHeight
	}
	if p.Mode == "" {
		p.Mode = graph.ModeDetailed
	}
	if p.Positions == nil {
		p.Positions = map[string]graph.Position{}
	}
}

func (p *Page) validate() error {
	if p.Mode != graph.ModeDetailed && p.Mode != graph.ModeCollapsed {
		return fmt.Errorf("page mode %q", p.Mode)
	}
	if err := p.Detailed.Validate(); err != nil {
		return fmt.Errorf("detailed graph: %w", err)
	}
	if err := p.Collapsed.Validate(); err != nil {
		return fmt.Errorf("collapsed graph: %w", err)
	}
	return nil
}

// Write renders the page to w.
func Write(w io.Writer, p Page) error {
	p.setDefaults()
	if err := p.validate(); err != nil {
		return err
	}
	// Nil slices would reach the script as null.
	if p.Detailed.Nodes == nil {
		p.Detailed.Nodes = []graph.Node{}
	}
	if p.Detailed.Edges == nil {
		p.Detailed.Edges = []graph.Edge{}
	}
	if p.Collapsed.Nodes == nil {
		p.Collapsed.Nodes = []graph.Node{}
	}
	if p.Collapsed.Edges == nil {
		p.Collapsed.Edges = []graph.Edge{}
	}
	return pageTemplate.Execute(w, p)
}

// Render returns the page as bytes.
func Render(p Page) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
