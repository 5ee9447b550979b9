// Package dataset reads and writes the games-and-links dataset and turns it
// into an [atlas.Atlas].
//
// The on-disk format is TOML with three arrays of tables:
//
//	[[major]]
//	name = "closer"
//	comments = "you become more than strangers with others"
//	children = ["persisting friends"]
//
//	[[minor]]
//	name = "persisting friends"
//	fuzzy = false
//
//	[[artifact]]
//	name = "Sky"
//	developers = "thatgamecompany"
//	links = ["persisting friends"]
//
// All cross references are by name. The canonical link order is every major
// link in file order followed by every minor link in file order; link ids are
// assigned from that order. JSON files with the same shape are accepted too.
//
// A copy of the default dataset is embedded in the binary ([Default]).
package dataset

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/linkatlas/pkg/atlas"
	"github.com/matzehuels/linkatlas/pkg/errors"
)

//go:embed default.toml
var defaultTOML []byte

// Format names accepted by [Parse] and [Encode].
const (
	FormatTOML = "toml"
	FormatJSON = "json"
)

// Document is the decoded dataset file.
type Document struct {
	Majors    []MajorLink `toml:"major" json:"major"`
	Minors    []MinorLink `toml:"minor" json:"minor"`
	Artifacts []Game      `toml:"artifact" json:"artifact"`
}

// MajorLink is a theme aggregating minor links.
type MajorLink struct {
	Name     string   `toml:"name" json:"name"`
	Comments string   `toml:"comments,omitempty" json:"comments,omitempty"`
	Children []string `toml:"children" json:"children"`
}

// MinorLink is a concrete shared feature.
type MinorLink struct {
	Name     string `toml:"name" json:"name"`
	Comments string `toml:"comments,omitempty" json:"comments,omitempty"`
	Fuzzy    bool   `toml:"fuzzy,omitempty" json:"fuzzy,omitempty"`
}

// Game is an artifact entry.
type Game struct {
	Name       string   `toml:"name" json:"name"`
	Developers string   `toml:"developers" json:"developers"`
	About      string   `toml:"about,omitempty" json:"about,omitempty"`
	Links      []string `toml:"links" json:"links"`
}

// =============================================================================
// Decoding
// =============================================================================

// DefaultDocument returns the embedded dataset.
func DefaultDocument() Document {
	doc, err := Parse(defaultTOML, FormatTOML)
	if err != nil {
		panic(fmt.Sprintf("embedded dataset: %v", err))
	}
	return doc
}

// DefaultSource returns the raw embedded TOML.
func DefaultSource() []byte { return slices.Clone(defaultTOML) }

// Default builds the embedded dataset.
func Default() *atlas.Atlas {
	a, err := Build(DefaultDocument())
	if err != nil {
		panic(fmt.Sprintf("embedded dataset: %v", err))
	}
	return a
}

// Parse decodes a document in the given format. Unknown TOML keys are
// rejected so typos do not silently drop data.
func Parse(data []byte, format string) (Document, error) {
	var doc Document
	switch format {
	case FormatTOML, "":
		md, err := toml.Decode(string(data), &doc)
		if err != nil {
			return Document{}, errors.Wrap(errors.ErrCodeInvalidDataset, err, "parse toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return Document{}, errors.New(errors.ErrCodeInvalidDataset, "unknown keys: %s", strings.Join(keys, ", "))
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return Document{}, errors.Wrap(errors.ErrCodeInvalidDataset, err, "parse json")
		}
	default:
		return Document{}, errors.New(errors.ErrCodeInvalidFormat, "unsupported dataset format %q", format)
	}
	return doc, nil
}

// FormatFromPath infers the document format from a file extension.
func FormatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatTOML
}

// ReadFile reads and parses a dataset file.
func ReadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "dataset %s", path)
		}
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data, FormatFromPath(path))
}

// Load reads, parses and builds a dataset file. An empty path loads the
// embedded dataset.
func Load(path string) (*atlas.Atlas, error) {
	if path == "" {
		return Default(), nil
	}
	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Build(doc)
}

// =============================================================================
// Building
// =============================================================================

// Build converts a document into a finalized atlas. Every problem in the
// document is collected and returned together as one INVALID_DATASET error.
func Build(doc Document) (*atlas.Atlas, error) {
	a := atlas.New()
	var errs []error

	addLink := func(l atlas.Link) {
		if err := errors.ValidateName(l.Name); err != nil {
			errs = append(errs, fmt.Errorf("%s link %q: %s", l.Group, l.Name, errors.UserMessage(err)))
			return
		}
		if _, err := a.AddLink(l); err != nil {
			errs = append(errs, fmt.Errorf("%s %w", l.Group, err))
		}
	}
	for _, m := range doc.Majors {
		addLink(atlas.Link{Name: m.Name, Comments: m.Comments, Group: atlas.GroupMajor})
	}
	for _, m := range doc.Minors {
		addLink(atlas.Link{Name: m.Name, Comments: m.Comments, Group: atlas.GroupMinor, Fuzzy: m.Fuzzy})
	}

	for _, m := range doc.Majors {
		parent, ok := a.LinkIndex(m.Name)
		if !ok {
			continue
		}
		for _, c := range m.Children {
			child, ok := a.LinkIndex(c)
			if !ok {
				errs = append(errs, fmt.Errorf("major link %q: child %q: %w", m.Name, c, atlas.ErrUnknownLink))
				continue
			}
			if err := a.AddChild(parent, child); err != nil {
				errs = append(errs, fmt.Errorf("major link %q: %w", m.Name, err))
			}
		}
	}

	for _, g := range doc.Artifacts {
		if err := errors.ValidateName(g.Name); err != nil {
			errs = append(errs, fmt.Errorf("artifact %q: %s", g.Name, errors.UserMessage(err)))
			continue
		}
		links := make([]int, 0, len(g.Links))
		seen := make(map[string]bool, len(g.Links))
		for _, name := range g.Links {
			if seen[name] {
				errs = append(errs, fmt.Errorf("artifact %q: link %q listed twice", g.Name, name))
				continue
			}
			seen[name] = true
			i, ok := a.LinkIndex(name)
			if !ok {
				errs = append(errs, fmt.Errorf("artifact %q: link %q: %w", g.Name, name, atlas.ErrUnknownLink))
				continue
			}
			links = append(links, i)
		}
		art := atlas.Artifact{Name: g.Name, Developers: g.Developers, About: g.About, Links: links}
		if _, err := a.AddArtifact(art); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		if err := a.Finalize(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		joined := stderrors.Join(errs...)
		return nil, errors.Wrap(errors.ErrCodeInvalidDataset, joined, "dataset has %d problem(s)", len(errors.Details(joined)))
	}
	return a, nil
}

// FromAtlas converts an atlas back into a document, preserving canonical
// order.
func FromAtlas(a *atlas.Atlas) Document {
	links := a.Links()
	names := func(ix []int) []string {
		out := make([]string, len(ix))
		for i, li := range ix {
			out[i] = links[li].Name
		}
		return out
	}

	var doc Document
	for _, l := range links {
		if l.Major() {
			doc.Majors = append(doc.Majors, MajorLink{Name: l.Name, Comments: l.Comments, Children: names(l.Children)})
		} else {
			doc.Minors = append(doc.Minors, MinorLink{Name: l.Name, Comments: l.Comments, Fuzzy: l.Fuzzy})
		}
	}
	for _, art := range a.Artifacts() {
		doc.Artifacts = append(doc.Artifacts, Game{
			Name:       art.Name,
			Developers: art.Developers,
			About:      art.About,
			Links:      names(art.Links),
		})
	}
	return doc
}

// =============================================================================
// Encoding
// =============================================================================

// Encode writes the document in the given format.
func Encode(w io.Writer, doc Document, format string) error {
	switch format {
	case FormatTOML, "":
		if err := toml.NewEncoder(w).Encode(doc); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported dataset format %q", format)
	}
	return nil
}

// Fingerprint is a stable hex digest of the document's content. It changes
// whenever anything that affects the view graph changes and is used to key
// cached layouts.
func Fingerprint(doc Document) string {
	data, _ := json.Marshal(doc)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
