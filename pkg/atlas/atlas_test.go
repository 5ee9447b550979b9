package atlas

import (
	"errors"
	"slices"
	"testing"
)

// small builds two majors sharing one minor plus a minor held by one major.
//
//	major "closer"  -> friends, gifting
//	major "charity" -> gifting
func small(t *testing.T) (*Atlas, map[string]int) {
	t.Helper()
	a := New()
	ix := map[string]int{}
	for _, l := range []Link{
		{Name: "closer", Group: GroupMajor, Comments: "the game brings you closer"},
		{Name: "charity", Group: GroupMajor},
		{Name: "friends", Group: GroupMinor},
		{Name: "gifting", Group: GroupMinor},
	} {
		i, err := a.AddLink(l)
		if err != nil {
			t.Fatalf("AddLink(%q): %v", l.Name, err)
		}
		ix[l.Name] = i
	}
	mustChild(t, a, ix["closer"], ix["friends"])
	mustChild(t, a, ix["closer"], ix["gifting"])
	mustChild(t, a, ix["charity"], ix["gifting"])
	if _, err := a.AddArtifact(Artifact{Name: "Sky", Developers: "thatgamecompany", Links: []int{ix["gifting"], ix["friends"]}}); err != nil {
		t.Fatalf("AddArtifact: %v", err)
	}
	return a, ix
}

func mustChild(t *testing.T, a *Atlas, p, c int) {
	t.Helper()
	if err := a.AddChild(p, c); err != nil {
		t.Fatalf("AddChild(%d, %d): %v", p, c, err)
	}
}

func TestDeriveParents(t *testing.T) {
	a, ix := small(t)
	a.DeriveParents()

	tests := []struct {
		link string
		want []int
	}{
		{"friends", []int{ix["closer"]}},
		{"gifting", []int{ix["closer"], ix["charity"]}},
		{"closer", nil},
		{"charity", nil},
	}
	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			l, _ := a.Link(ix[tt.link])
			if !slices.Equal(l.Parents, tt.want) {
				t.Errorf("Parents = %v, want %v", l.Parents, tt.want)
			}
		})
	}
}

func TestDeriveParentsBidirectional(t *testing.T) {
	a, _ := small(t)
	a.DeriveParents()
	for i, l := range a.Links() {
		for _, c := range l.Children {
			child, _ := a.Link(c)
			if !slices.Contains(child.Parents, i) {
				t.Errorf("%q not in parents of %q", l.Name, child.Name)
			}
		}
		for _, p := range l.Parents {
			parent, _ := a.Link(p)
			if !slices.Contains(parent.Children, i) {
				t.Errorf("%q lists parent %q which does not hold it", l.Name, parent.Name)
			}
		}
	}
}

func TestDeriveParentsIdempotent(t *testing.T) {
	a, _ := small(t)
	a.DeriveParents()
	first := make([][]int, len(a.Links()))
	for i, l := range a.Links() {
		first[i] = slices.Clone(l.Parents)
	}
	a.DeriveParents()
	a.DeriveParents()
	for i, l := range a.Links() {
		if !slices.Equal(l.Parents, first[i]) {
			t.Errorf("link %q: parents changed from %v to %v", l.Name, first[i], l.Parents)
		}
	}
}

func TestNormalizeIDs(t *testing.T) {
	a, _ := small(t)
	for _, l := range a.Links() {
		if l.ID != -1 {
			t.Fatalf("link %q has id %d before normalization", l.Name, l.ID)
		}
	}
	a.NormalizeIDs()
	a.NormalizeIDs()
	seen := map[int]bool{}
	for i, l := range a.Links() {
		if l.ID != i {
			t.Errorf("link %q: ID = %d, want %d", l.Name, l.ID, i)
		}
		seen[l.ID] = true
	}
	if len(seen) != len(a.Links()) {
		t.Errorf("ids not dense: %v", seen)
	}
}

func TestAddLinkErrors(t *testing.T) {
	tests := []struct {
		name string
		link Link
		want error
	}{
		{"empty name", Link{Group: GroupMinor}, ErrEmptyName},
		{"duplicate", Link{Name: "closer", Group: GroupMajor}, ErrDuplicateName},
		{"artifact group", Link{Name: "x", Group: GroupArtifact}, ErrInvalidGroup},
		{"out of range group", Link{Name: "y", Group: 7}, ErrInvalidGroup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := small(t)
			_, err := a.AddLink(tt.link)
			if !errors.Is(err, tt.want) {
				t.Errorf("AddLink() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAddArtifactDuplicate(t *testing.T) {
	a, _ := small(t)
	_, err := a.AddArtifact(Artifact{Name: "Sky"})
	if !errors.Is(err, ErrDuplicateName) {
		t.Errorf("AddArtifact() error = %v, want ErrDuplicateName", err)
	}
}

func TestValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		a, _ := small(t)
		if err := a.Validate(); err != nil {
			t.Errorf("Validate() = %v", err)
		}
	})

	t.Run("ReportsAllProblems", func(t *testing.T) {
		a := New()
		major, _ := a.AddLink(Link{Name: "m", Group: GroupMajor, Children: []int{5}})
		other, _ := a.AddLink(Link{Name: "n", Group: GroupMajor})
		_ = a.AddChild(major, other)
		_, _ = a.AddArtifact(Artifact{Name: "g", Links: []int{9}})

		err := a.Validate()
		if err == nil {
			t.Fatal("Validate() = nil, want error")
		}
		if !errors.Is(err, ErrUnknownLink) {
			t.Errorf("missing ErrUnknownLink in %v", err)
		}
		if !errors.Is(err, ErrInvalidChild) {
			t.Errorf("missing ErrInvalidChild in %v", err)
		}
		var joined interface{ Unwrap() []error }
		if !errors.As(err, &joined) || len(joined.Unwrap()) != 3 {
			t.Errorf("want 3 joined errors, got %v", err)
		}
	})

	t.Run("MinorWithChildren", func(t *testing.T) {
		a := New()
		minor, _ := a.AddLink(Link{Name: "a", Group: GroupMinor})
		other, _ := a.AddLink(Link{Name: "b", Group: GroupMinor})
		_ = a.AddChild(minor, other)
		if err := a.Validate(); !errors.Is(err, ErrInvalidChild) {
			t.Errorf("Validate() = %v, want ErrInvalidChild", err)
		}
	})
}

func TestFinalize(t *testing.T) {
	a, ix := small(t)
	if err := a.Finalize(); err != nil {
		t.Fatalf("Finalize() = %v", err)
	}
	g, _ := a.Link(ix["gifting"])
	if len(g.Parents) != 2 || g.ID != ix["gifting"] {
		t.Errorf("gifting = %+v", g)
	}
}

func TestEntity(t *testing.T) {
	a, ix := small(t)
	_ = a.Finalize()

	e, err := a.Entity(ArtifactID("Sky"))
	if err != nil {
		t.Fatalf("Entity(Sky): %v", err)
	}
	if e.Group != GroupArtifact || e.Charge() != ChargeArtifact || e.Description() != "thatgamecompany" {
		t.Errorf("Sky entity = %+v", e)
	}

	e, err = a.Entity(LinkID(ix["closer"]))
	if err != nil {
		t.Fatalf("Entity(closer): %v", err)
	}
	if e.Group != GroupMajor || e.Charge() != ChargeLink || e.Description() != "the game brings you closer" {
		t.Errorf("closer entity = %+v", e)
	}

	if _, err := a.Entity(LinkID(99)); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Entity(link:99) error = %v", err)
	}
	if _, err := a.Lookup("nope"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Lookup(nope) error = %v", err)
	}
	if e, _ := a.Lookup("gifting"); e.ID != LinkID(ix["gifting"]) {
		t.Errorf("Lookup(gifting) = %v", e.ID)
	}
}

func TestEntitiesOrder(t *testing.T) {
	a, _ := small(t)
	_ = a.Finalize()
	var keys []string
	for _, e := range a.Entities() {
		keys = append(keys, e.ID.Key())
	}
	want := []string{"artifact:Sky", "link:0", "link:1", "link:2", "link:3"}
	if !slices.Equal(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}
}

func TestStats(t *testing.T) {
	a, _ := small(t)
	s := a.Stats()
	want := Stats{Artifacts: 1, Majors: 2, Minors: 2, Memberships: 2}
	if s != want {
		t.Errorf("Stats() = %+v, want %+v", s, want)
	}
}
