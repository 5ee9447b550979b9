package web

import (
	"strings"
	"testing"

	"github.com/matzehuels/linkatlas/pkg/dataset"
	"github.com/matzehuels/linkatlas/pkg/graph"
	"github.com/matzehuels/linkatlas/pkg/view"
)

func TestRender(t *testing.T) {
	a := dataset.Default()
	page, err := Render(Page{
		Detailed:  view.Build(a, view.Detailed),
		Collapsed: view.Build(a, view.Collapsed),
		Mode:      graph.ModeCollapsed,
		Positions: map[string]graph.Position{"artifact:Sky": {X: 10, Y: 20, Fixed: true}},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := string(page)

	for _, want := range []string{
		"<title>linkatlas</title>",
		`<svg width="960" height="600">`,
		`"id":"artifact:Death Stranding"`,
		`"charge":-100`,
		`"mode":"collapsed"`,
		`let mode = "collapsed";`,
		`const API = "";`,
		`"artifact:Sky":{"x":10,"y":20,"fixed":true}`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestRenderEscapes(t *testing.T) {
	g := graph.Graph{Nodes: []graph.Node{{ID: "artifact:x", Name: "</script><b>", Description: "a & b"}}}
	page, err := Render(Page{Title: "<atlas>", Detailed: g, Collapsed: g, API: "http://localhost:8080"})
	if err != nil {
		t.Fatal(err)
	}
	html := string(page)
	if strings.Contains(html, "</script><b>") {
		t.Error("node name not escaped inside script")
	}
	if !strings.Contains(html, "<title>&lt;atlas&gt;</title>") {
		t.Error("title not escaped")
	}
	if !strings.Contains(html, `const API = "http://localhost:8080";`) {
		t.Error("API base missing")
	}
}

func TestRenderEmptyGraphs(t *testing.T) {
	page, err := Render(Page{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(page), `detailed: {"nodes":[],"edges":[]}`) {
		t.Errorf("empty graph not encoded as arrays")
	}
}

func TestRenderRejectsBadInput(t *testing.T) {
	bad := graph.Graph{Edges: []graph.Edge{{Source: "a", Target: "b"}}}
	tests := []struct {
		name string
		page Page
	}{
		{"mode", Page{Mode: "sideways"}},
		{"detailed", Page{Detailed: bad}},
		{"collapsed", Page{Collapsed: bad}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Render(tt.page); err == nil {
				t.Error("Render() = nil error")
			}
		})
	}
}
