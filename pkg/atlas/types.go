package atlas

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// Groups and Kinds
// =============================================================================

// Group is the category tag of a node. It drives color, size and edge weights.
type Group int

const (
	// GroupArtifact tags games.
	GroupArtifact Group = 0
	// GroupMinor tags concrete features.
	GroupMinor Group = 1
	// GroupMajor tags thematic categories that aggregate minor links.
	GroupMajor Group = 2
)

// String returns the lowercase group name.
func (g Group) String() string {
	switch g {
	case GroupArtifact:
		return "artifact"
	case GroupMinor:
		return "minor"
	case GroupMajor:
		return "major"
	default:
		return fmt.Sprintf("group(%d)", int(g))
	}
}

// IsLink reports whether g is one of the link groups.
func (g Group) IsLink() bool { return g == GroupMinor || g == GroupMajor }

// Kind discriminates the two entity variants.
type Kind int

const (
	KindArtifact Kind = iota
	KindLink
)

// String returns the key prefix of the kind.
func (k Kind) String() string {
	if k == KindLink {
		return "link"
	}
	return "artifact"
}

// =============================================================================
// Physics and Rendering Constants
// =============================================================================

// Repulsion strength per node kind. Negative values push nodes apart.
const (
	ChargeArtifact = -80.0
	ChargeLink     = -100.0
)

// Rest distance and attraction strength of an edge, by the group of the link
// at its end. Minor links sit close to their games.
const (
	MinorDistance = 20.0
	MajorDistance = 60.0
	MinorStrength = 0.8
	MajorStrength = 0.4
)

// =============================================================================
// NodeID
// =============================================================================

// NodeID identifies a node in either id space. Artifacts use Name, links use
// Index; the Kind field selects which one is meaningful.
type NodeID struct {
	Kind  Kind
	Name  string
	Index int
}

// ArtifactID returns the id of the artifact with the given name.
func ArtifactID(name string) NodeID { return NodeID{Kind: KindArtifact, Name: name} }

// LinkID returns the id of the link with the given normalized index.
func LinkID(index int) NodeID { return NodeID{Kind: KindLink, Index: index} }

// Key renders the id as a graph node key.
func (id NodeID) Key() string {
	if id.Kind == KindLink {
		return "link:" + strconv.Itoa(id.Index)
	}
	return "artifact:" + id.Name
}

// String implements fmt.Stringer.
func (id NodeID) String() string { return id.Key() }

// ParseKey is the inverse of [NodeID.Key].
func ParseKey(key string) (NodeID, error) {
	prefix, rest, ok := strings.Cut(key, ":")
	if !ok {
		return NodeID{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	switch prefix {
	case "artifact":
		if rest == "" {
			return NodeID{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
		return ArtifactID(rest), nil
	case "link":
		i, err := strconv.Atoi(rest)
		if err != nil || i < 0 {
			return NodeID{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
		return LinkID(i), nil
	default:
		return NodeID{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
}

// =============================================================================
// Artifact
// =============================================================================

// Artifact is a game.
type Artifact struct {
	Name       string
	Developers string
	About      string
	Links      []int // indices into the atlas link list, in declaration order
}

// Description is the text shown when the artifact is inspected.
func (a Artifact) Description() string {
	if a.About == "" {
		return a.Developers
	}
	if a.Developers == "" {
		return a.About
	}
	return a.Developers + " - " + a.About
}

// =============================================================================
// Link
// =============================================================================

// Link is a shared mechanic (minor) or theme (major).
type Link struct {
	Name     string
	Comments string
	Group    Group
	Fuzzy    bool  // helps or hurts depending on who left it
	Children []int // minor links aggregated by a major link
	Parents  []int // major links holding this minor link; derived

	// ID is the normalized index, or -1 until NormalizeIDs runs.
	ID int
}

// Major reports whether the link is a thematic category.
func (l Link) Major() bool { return l.Group == GroupMajor }

// Distance is the rest length of an edge ending at this link.
func (l Link) Distance() float64 {
	if l.Group == GroupMinor {
		return MinorDistance
	}
	return MajorDistance
}

// Strength is the spring strength of an edge ending at this link.
func (l Link) Strength() float64 {
	if l.Group == GroupMinor {
		return MinorStrength
	}
	return MajorStrength
}

// =============================================================================
// Entity - tagged variant
// =============================================================================

// Entity is a read-only view of either an artifact or a link. Exactly one of
// Artifact and Link is set, matching ID.Kind.
type Entity struct {
	ID       NodeID
	Name     string
	Group    Group
	Artifact *Artifact
	Link     *Link
}

// Charge is the repulsion strength of the entity's node.
func (e Entity) Charge() float64 {
	if e.ID.Kind == KindLink {
		return ChargeLink
	}
	return ChargeArtifact
}

// Description returns the inspect text: developers and about text for games,
// comments for links.
func (e Entity) Description() string {
	switch {
	case e.Artifact != nil:
		return e.Artifact.Description()
	case e.Link != nil:
		return e.Link.Comments
	}
	return ""
}

// Fuzzy reports whether the entity is a fuzzy link.
func (e Entity) Fuzzy() bool { return e.Link != nil && e.Link.Fuzzy }
