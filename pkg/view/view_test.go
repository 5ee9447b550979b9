package view

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"testing"

	"github.com/matzehuels/linkatlas/pkg/atlas"
	"github.com/matzehuels/linkatlas/pkg/dataset"
	"github.com/matzehuels/linkatlas/pkg/errors"
	"github.com/matzehuels/linkatlas/pkg/graph"
)

func TestBuildCounts(t *testing.T) {
	a := dataset.Default()

	tests := []struct {
		mode      Mode
		wantNodes int
		wantEdges int
		wantMinor int
	}{
		{Detailed, 26, 46, 12},
		{Collapsed, 14, 31, 0},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			g := Build(a, tt.mode)
			if len(g.Nodes) != tt.wantNodes {
				t.Errorf("nodes = %d, want %d", len(g.Nodes), tt.wantNodes)
			}
			if len(g.Edges) != tt.wantEdges {
				t.Errorf("edges = %d, want %d", len(g.Edges), tt.wantEdges)
			}
			if n := g.CountGroup(graph.GroupMinor); n != tt.wantMinor {
				t.Errorf("minor nodes = %d, want %d", n, tt.wantMinor)
			}
			if g.Mode != tt.mode.String() {
				t.Errorf("Mode = %q", g.Mode)
			}
			if err := g.Validate(); err != nil {
				t.Errorf("Validate() = %v", err)
			}
		})
	}
}

func TestCollapsedPerGame(t *testing.T) {
	a := dataset.Default()
	g := Build(a, Collapsed)
	deg := g.Degree()

	want := map[string]int{
		"Death Stranding": 5,
		"Sky":             6,
		"Dark Souls":      5,
		"Animal Crossing": 6,
		"Kind Words":      4,
		"Ashen":           5,
	}
	for name, n := range want {
		if got := deg[atlas.ArtifactID(name).Key()]; got != n {
			t.Errorf("%s: %d majors, want %d", name, got, n)
		}
	}
}

func TestCollapsedDeathStranding(t *testing.T) {
	a := dataset.Default()
	g := Build(a, Collapsed)

	var majors []string
	for _, id := range g.Neighbors(atlas.ArtifactID("Death Stranding").Key()) {
		n, _ := g.Node(id)
		majors = append(majors, n.Name)
	}
	sort.Strings(majors)
	want := []string{"against the world", "awkward", "lived-in", "loneliness", "trash to treasure"}
	if !slices.Equal(majors, want) {
		t.Errorf("Death Stranding collapses to %v, want %v", majors, want)
	}
}

func TestCollapsedHasNoMinorEdges(t *testing.T) {
	a := dataset.Default()
	g := Build(a, Collapsed)
	nodes := g.Index()
	for _, e := range g.Edges {
		src := g.Nodes[nodes[e.Source]]
		dst := g.Nodes[nodes[e.Target]]
		if src.Group != graph.GroupMajor || dst.Group != graph.GroupArtifact {
			t.Errorf("collapsed edge %s -> %s is not major -> game", e.Source, e.Target)
		}
		if e.Distance != atlas.MajorDistance || e.Strength != atlas.MajorStrength {
			t.Errorf("collapsed edge %s -> %s has weights %v/%v", e.Source, e.Target, e.Distance, e.Strength)
		}
	}
}

func TestCollapsedDirectMajor(t *testing.T) {
	a, err := dataset.Build(dataset.Document{
		Majors: []dataset.MajorLink{{Name: "theme", Children: []string{"feat"}}},
		Minors: []dataset.MinorLink{{Name: "feat"}},
		Artifacts: []dataset.Game{
			{Name: "G", Developers: "dev", Links: []string{"theme"}},
			{Name: "H", Developers: "dev", Links: []string{"theme", "feat"}},
		},
	})
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}

	g := Build(a, Collapsed)
	var got []string
	for _, e := range g.Edges {
		got = append(got, e.Source+"|"+e.Target)
	}
	want := []string{"link:0|artifact:G", "link:0|artifact:H"}
	if !slices.Equal(got, want) {
		t.Errorf("collapsed edges = %v, want %v", got, want)
	}
}

func TestDetailedParentEdges(t *testing.T) {
	a := dataset.Default()
	g := Build(a, Detailed)

	has := make(map[string]int)
	for _, e := range g.Edges {
		has[e.Source+"|"+e.Target]++
	}

	links := a.Links()
	for _, art := range a.Artifacts() {
		for _, li := range art.Links {
			ak := atlas.ArtifactID(art.Name).Key()
			lk := atlas.LinkID(li).Key()
			if has[ak+"|"+lk] != 1 {
				t.Errorf("missing edge %s -> %s", ak, lk)
			}
			for _, p := range links[li].Parents {
				if n := has[lk+"|"+atlas.LinkID(p).Key()]; n != 1 {
					t.Errorf("link %s -> parent %d emitted %d times, want 1", lk, p, n)
				}
			}
		}
	}
}

func TestDetailedEdgeWeights(t *testing.T) {
	a := dataset.Default()
	g := Build(a, Detailed)
	nodes := g.Index()
	for _, e := range g.Edges {
		dst := g.Nodes[nodes[e.Target]]
		wantD, wantS := atlas.MinorDistance, atlas.MinorStrength
		if dst.Group == graph.GroupMajor {
			wantD, wantS = atlas.MajorDistance, atlas.MajorStrength
		}
		if e.Distance != wantD || e.Strength != wantS {
			t.Errorf("edge %s -> %s: %v/%v, want %v/%v", e.Source, e.Target, e.Distance, e.Strength, wantD, wantS)
		}
	}
}

func TestNodeAttributes(t *testing.T) {
	a := dataset.Default()
	g := Build(a, Detailed)

	kw, ok := g.Node("artifact:Kind Words")
	if !ok {
		t.Fatal("Kind Words missing")
	}
	if kw.Charge != atlas.ChargeArtifact || kw.Group != graph.GroupArtifact {
		t.Errorf("Kind Words = %+v", kw)
	}
	if kw.Description != "Popcannibal - a game about writing letters to others" {
		t.Errorf("description = %q", kw.Description)
	}

	var fuzzy []string
	for _, n := range g.Nodes {
		if n.Fuzzy {
			fuzzy = append(fuzzy, n.Name)
		}
		if n.Group != graph.GroupArtifact && n.Charge != atlas.ChargeLink {
			t.Errorf("%s charge = %v", n.ID, n.Charge)
		}
	}
	if len(fuzzy) != 3 {
		t.Errorf("fuzzy nodes = %v", fuzzy)
	}
}

func TestBuildOrder(t *testing.T) {
	a := dataset.Default()
	g := Build(a, Detailed)
	if g.Nodes[0].ID != "artifact:Death Stranding" || g.Nodes[5].ID != "artifact:Ashen" {
		t.Errorf("games not first: %s ... %s", g.Nodes[0].ID, g.Nodes[5].ID)
	}
	for i := 6; i < len(g.Nodes); i++ {
		if want := fmt.Sprintf("link:%d", i-6); g.Nodes[i].ID != want {
			t.Errorf("node %d = %s, want %s", i, g.Nodes[i].ID, want)
		}
	}
}

func TestToggleTwiceRestores(t *testing.T) {
	a := dataset.Default()
	for _, start := range []Mode{Detailed, Collapsed} {
		t.Run(start.String(), func(t *testing.T) {
			s := NewState(start)
			before := Build(a, s.Mode)
			s.Toggle()
			if s.Mode == start {
				t.Fatal("Toggle did not change mode")
			}
			s.Toggle()
			after := s.Graph(a)

			if !slices.Equal(nodeIDs(before), nodeIDs(after)) {
				t.Error("node ids differ after two toggles")
			}
			if !slices.Equal(edgeMultiset(before), edgeMultiset(after)) {
				t.Error("edge multiset differs after two toggles")
			}
		})
	}
}

func nodeIDs(g graph.Graph) []string {
	var ids []string
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
	}
	sort.Strings(ids)
	return ids
}

func edgeMultiset(g graph.Graph) []string {
	var out []string
	for _, e := range g.Edges {
		out = append(out, fmt.Sprintf("%s|%s|%v|%v", e.Source, e.Target, e.Distance, e.Strength))
	}
	sort.Strings(out)
	return out
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", Detailed, false},
		{"detailed", Detailed, false},
		{"Collapsed", Collapsed, false},
		{" collapsed ", Collapsed, false},
		{"majors", Collapsed, false},
		{"sideways", Detailed, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidMode) {
					t.Errorf("ParseMode(%q) error = %v, want INVALID_MODE", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseMode(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	a := dataset.Default()

	t.Run("game", func(t *testing.T) {
		info, err := Lookup(a, "Ashen")
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"silent guides", "shared messages in world", "asymmetric game"}
		if info.Group != "artifact" || info.Description != "A44" || !slices.Equal(info.Links, want) {
			t.Errorf("info = %+v", info)
		}
	})

	t.Run("minor", func(t *testing.T) {
		info, err := Lookup(a, "gifting")
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(info.Parents, []string{"trash to treasure", "stranger intimacy", "charity"}) {
			t.Errorf("parents = %v", info.Parents)
		}
		if !slices.Equal(info.Artifacts, []string{"Sky", "Animal Crossing", "Kind Words"}) {
			t.Errorf("artifacts = %v", info.Artifacts)
		}
	})

	t.Run("major by key", func(t *testing.T) {
		info, err := Describe(a, "link:0")
		if err != nil {
			t.Fatal(err)
		}
		if info.Name != "loneliness" || !slices.Equal(info.Children, []string{"single player experience"}) {
			t.Errorf("info = %+v", info)
		}
		if !slices.Equal(info.Artifacts, []string{"Death Stranding", "Dark Souls", "Kind Words"}) {
			t.Errorf("artifacts = %v", info.Artifacts)
		}
		if !strings.HasPrefix(info.Description, "on your own") {
			t.Errorf("description = %q", info.Description)
		}
	})

	t.Run("errors", func(t *testing.T) {
		if _, err := Describe(a, "bogus"); !errors.Is(err, errors.ErrCodeInvalidKey) {
			t.Errorf("Describe(bogus) = %v", err)
		}
		if _, err := Describe(a, "link:99"); !errors.Is(err, errors.ErrCodeUnknownNode) {
			t.Errorf("Describe(link:99) = %v", err)
		}
		if _, err := Lookup(a, "Journey"); !errors.Is(err, errors.ErrCodeUnknownNode) {
			t.Errorf("Lookup(Journey) = %v", err)
		}
	})
}

func TestSummary(t *testing.T) {
	g := Build(dataset.Default(), Collapsed)
	want := "collapsed: 14 nodes (6 games, 0 minor, 8 major), 31 edges"
	if got := Summary(g); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}
