package atlas

import (
	"errors"
	"fmt"
	"slices"
)

// Sentinel errors returned by Atlas operations.
var (
	ErrDuplicateName = errors.New("duplicate name")
	ErrEmptyName     = errors.New("empty name")
	ErrUnknownLink   = errors.New("unknown link")
	ErrInvalidGroup  = errors.New("invalid group")
	ErrInvalidChild  = errors.New("invalid child")
	ErrInvalidKey    = errors.New("invalid node key")
	ErrUnknownNode   = errors.New("unknown node")
)

// Atlas is the arena holding every artifact and link. Links are stored in
// canonical order: the order in which they were added, which for a dataset is
// major links followed by minor links.
type Atlas struct {
	artifacts  []Artifact
	links      []Link
	artifactIx map[string]int
	linkIx     map[string]int
}

// New creates an empty atlas.
func New() *Atlas {
	return &Atlas{
		artifactIx: make(map[string]int),
		linkIx:     make(map[string]int),
	}
}

// =============================================================================
// Construction
// =============================================================================

// AddLink appends a link and returns its index. Parents are reset since they
// are derived; Children are copied.
func (a *Atlas) AddLink(l Link) (int, error) {
	if l.Name == "" {
		return -1, fmt.Errorf("link: %w", ErrEmptyName)
	}
	if _, ok := a.linkIx[l.Name]; ok {
		return -1, fmt.Errorf("link %q: %w", l.Name, ErrDuplicateName)
	}
	if !l.Group.IsLink() {
		return -1, fmt.Errorf("link %q: %w: %d", l.Name, ErrInvalidGroup, int(l.Group))
	}
	l.Children = slices.Clone(l.Children)
	l.Parents = nil
	l.ID = -1
	idx := len(a.links)
	a.links = append(a.links, l)
	a.linkIx[l.Name] = idx
	return idx, nil
}

// AddArtifact appends an artifact and returns its index. Link references are
// checked later by Validate so that every problem is reported at once.
func (a *Atlas) AddArtifact(art Artifact) (int, error) {
	if art.Name == "" {
		return -1, fmt.Errorf("artifact: %w", ErrEmptyName)
	}
	if _, ok := a.artifactIx[art.Name]; ok {
		return -1, fmt.Errorf("artifact %q: %w", art.Name, ErrDuplicateName)
	}
	art.Links = slices.Clone(art.Links)
	idx := len(a.artifacts)
	a.artifacts = append(a.artifacts, art)
	a.artifactIx[art.Name] = idx
	return idx, nil
}

// AddChild records child as a member of the major link parent.
func (a *Atlas) AddChild(parent, child int) error {
	if !a.validLink(parent) {
		return fmt.Errorf("parent %d: %w", parent, ErrUnknownLink)
	}
	if !a.validLink(child) {
		return fmt.Errorf("child %d: %w", child, ErrUnknownLink)
	}
	p := &a.links[parent]
	if !slices.Contains(p.Children, child) {
		p.Children = append(p.Children, child)
	}
	return nil
}

// DeriveParents populates Parents on every link from the Children lists of
// the major links. Parents behaves as a set, ordered by major link iteration
// order, so running the pass again changes nothing.
func (a *Atlas) DeriveParents() {
	for i := range a.links {
		l := &a.links[i]
		if !l.Major() {
			continue
		}
		for _, c := range l.Children {
			if !a.validLink(c) {
				continue
			}
			child := &a.links[c]
			if !slices.Contains(child.Parents, i) {
				child.Parents = append(child.Parents, i)
			}
		}
	}
}

// NormalizeIDs assigns each link its position in the canonical list as its
// id. Artifact ids are their names and are left untouched.
func (a *Atlas) NormalizeIDs() {
	for i := range a.links {
		a.links[i].ID = i
	}
}

// Validate checks referential integrity and returns every violation joined
// into one error, or nil.
func (a *Atlas) Validate() error {
	var errs []error
	for i, l := range a.links {
		if !l.Group.IsLink() {
			errs = append(errs, fmt.Errorf("link %q: %w: %d", l.Name, ErrInvalidGroup, int(l.Group)))
		}
		if len(l.Children) > 0 && !l.Major() {
			errs = append(errs, fmt.Errorf("link %q: only major links have children: %w", l.Name, ErrInvalidChild))
		}
		for _, c := range l.Children {
			switch {
			case !a.validLink(c):
				errs = append(errs, fmt.Errorf("link %q: child %d: %w", l.Name, c, ErrUnknownLink))
			case c == i:
				errs = append(errs, fmt.Errorf("link %q: holds itself: %w", l.Name, ErrInvalidChild))
			case a.links[c].Group != GroupMinor:
				errs = append(errs, fmt.Errorf("link %q: child %q is not a minor link: %w", l.Name, a.links[c].Name, ErrInvalidChild))
			}
		}
	}
	for _, art := range a.artifacts {
		for _, li := range art.Links {
			if !a.validLink(li) {
				errs = append(errs, fmt.Errorf("artifact %q: link %d: %w", art.Name, li, ErrUnknownLink))
			}
		}
	}
	return errors.Join(errs...)
}

// Finalize derives parents, normalizes ids and validates the result.
func (a *Atlas) Finalize() error {
	if err := a.Validate(); err != nil {
		return err
	}
	a.DeriveParents()
	a.NormalizeIDs()
	return nil
}

func (a *Atlas) validLink(i int) bool { return i >= 0 && i < len(a.links) }

// =============================================================================
// Accessors
// =============================================================================

// Artifacts returns the artifacts in declaration order. The slice must not
// be modified.
func (a *Atlas) Artifacts() []Artifact { return a.artifacts }

// Links returns the links in canonical order. The slice must not be modified.
func (a *Atlas) Links() []Link { return a.links }

// Link returns the link at index i.
func (a *Atlas) Link(i int) (Link, bool) {
	if !a.validLink(i) {
		return Link{}, false
	}
	return a.links[i], true
}

// Artifact returns the artifact with the given name.
func (a *Atlas) Artifact(name string) (Artifact, bool) {
	i, ok := a.artifactIx[name]
	if !ok {
		return Artifact{}, false
	}
	return a.artifacts[i], true
}

// LinkIndex returns the index of the link with the given name.
func (a *Atlas) LinkIndex(name string) (int, bool) {
	i, ok := a.linkIx[name]
	return i, ok
}

// MajorLinks returns the indices of all major links in canonical order.
func (a *Atlas) MajorLinks() []int { return a.linksIn(GroupMajor) }

// MinorLinks returns the indices of all minor links in canonical order.
func (a *Atlas) MinorLinks() []int { return a.linksIn(GroupMinor) }

func (a *Atlas) linksIn(g Group) []int {
	var out []int
	for i, l := range a.links {
		if l.Group == g {
			out = append(out, i)
		}
	}
	return out
}

// Entity resolves a node id.
func (a *Atlas) Entity(id NodeID) (Entity, error) {
	switch id.Kind {
	case KindArtifact:
		i, ok := a.artifactIx[id.Name]
		if !ok {
			return Entity{}, fmt.Errorf("%s: %w", id, ErrUnknownNode)
		}
		art := &a.artifacts[i]
		return Entity{ID: id, Name: art.Name, Group: GroupArtifact, Artifact: art}, nil
	case KindLink:
		if !a.validLink(id.Index) {
			return Entity{}, fmt.Errorf("%s: %w", id, ErrUnknownNode)
		}
		l := &a.links[id.Index]
		return Entity{ID: id, Name: l.Name, Group: l.Group, Link: l}, nil
	}
	return Entity{}, fmt.Errorf("%s: %w", id, ErrUnknownNode)
}

// Lookup finds a node by display name, artifacts first.
func (a *Atlas) Lookup(name string) (Entity, error) {
	if _, ok := a.artifactIx[name]; ok {
		return a.Entity(ArtifactID(name))
	}
	if i, ok := a.linkIx[name]; ok {
		return a.Entity(LinkID(i))
	}
	return Entity{}, fmt.Errorf("%q: %w", name, ErrUnknownNode)
}

// Entities returns every node: artifacts in declaration order followed by
// links in canonical order.
func (a *Atlas) Entities() []Entity {
	out := make([]Entity, 0, len(a.artifacts)+len(a.links))
	for i := range a.artifacts {
		art := &a.artifacts[i]
		out = append(out, Entity{ID: ArtifactID(art.Name), Name: art.Name, Group: GroupArtifact, Artifact: art})
	}
	for i := range a.links {
		l := &a.links[i]
		out = append(out, Entity{ID: LinkID(i), Name: l.Name, Group: l.Group, Link: l})
	}
	return out
}

// Stats summarizes the atlas.
type Stats struct {
	Artifacts   int
	Majors      int
	Minors      int
	Fuzzy       int
	Memberships int // artifact-to-link references
}

// Stats counts entities and references.
func (a *Atlas) Stats() Stats {
	s := Stats{Artifacts: len(a.artifacts)}
	for _, l := range a.links {
		if l.Major() {
			s.Majors++
		} else {
			s.Minors++
		}
		if l.Fuzzy {
			s.Fuzzy++
		}
	}
	for _, art := range a.artifacts {
		s.Memberships += len(art.Links)
	}
	return s
}
