package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/linkatlas/pkg/graph"
	"github.com/matzehuels/linkatlas/pkg/render"
)

// Graphviz layout engines.
const (
	EngineNeato = "neato"
	EngineFDP   = "fdp"
)

// Points per inch; Graphviz sizes are in inches.
const pointsPerInch = 72.0

// Options configures node-link diagram generation.
type Options struct {
	// Engine is written as the graph's layout attribute. Defaults to neato.
	Engine string

	// Width and Height bound the drawing in points. Zero leaves the size free.
	Width, Height float64

	// Seed fixes the random start of neato and fdp.
	Seed uint64
}

type style struct {
	color string
	size  float64 // node diameter in points
}

var styles = map[int]style{
	graph.GroupArtifact: {color: "black", size: 8},
	graph.GroupMinor:    {color: "purple", size: 5},
	graph.GroupMajor:    {color: "orange", size: 7},
}

func styleFor(group int) style {
	if s, ok := styles[group]; ok {
		return s
	}
	return styles[graph.GroupArtifact]
}

// ValidEngine reports whether name is a Graphviz engine this package renders with.
func ValidEngine(name string) bool {
	return name == EngineNeato || name == EngineFDP
}

// ToDOT converts a view graph to Graphviz DOT.
//
// Nodes present in pos are pinned at their coordinates. Edge rest distances
// become len, strengths become weight.
func ToDOT(g graph.Graph, pos map[string]graph.Position, opts Options) string {
	engine := opts.Engine
	if engine == "" {
		engine = EngineNeato
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	fmt.Fprintf(&buf, "  layout=%s;\n", engine)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	fmt.Fprintf(&buf, "  inputscale=%g;\n", pointsPerInch)
	if opts.Seed != 0 {
		fmt.Fprintf(&buf, "  start=%d;\n", opts.Seed)
	}
	if opts.Width > 0 && opts.Height > 0 {
		fmt.Fprintf(&buf, "  size=\"%s,%s\";\n", inches(opts.Width), inches(opts.Height))
	}
	buf.WriteString("  node [shape=circle, style=filled, fixedsize=true, label=\"\", fontname=\"sans-serif\", fontsize=10];\n")
	buf.WriteString("  edge [color=\"#999999\", penwidth=1];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		attrs := fmtAttrs(n)
		// Screen y grows downward, Graphviz y upward.
		if p, ok := pos[n.ID]; ok {
			attrs = append(attrs, fmt.Sprintf("pos=\"%s,%s!\"", num(p.X), num(-p.Y)))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %q -- %q [len=%s, weight=%s];\n", e.Source, e.Target, inches(e.Distance), num(e.Strength))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtAttrs(n graph.Node) []string {
	s := styleFor(n.Group)
	attrs := []string{
		fmt.Sprintf("xlabel=%q", n.DisplayName()),
		fmt.Sprintf("fillcolor=%q", s.color),
		fmt.Sprintf("color=%q", s.color),
		fmt.Sprintf("fontcolor=%q", s.color),
		fmt.Sprintf("width=%s", inches(s.size)),
		fmt.Sprintf("class=\"group-%d\"", n.Group),
	}
	if n.Fuzzy {
		attrs = append(attrs, "shape=triangle")
	}
	if n.Description != "" {
		attrs = append(attrs, fmt.Sprintf("tooltip=%q", n.Description))
	}
	return attrs
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func inches(points float64) string {
	return strconv.FormatFloat(points/pointsPerInch, 'f', 4, 64)
}

// RenderSVG renders DOT source to SVG with the given engine.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot, engine string) ([]byte, error) {
	if engine == "" {
		engine = EngineNeato
	}
	if !ValidEngine(engine) {
		return nil, fmt.Errorf("unknown graphviz engine %q", engine)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.Layout(engine))

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a plain
// pixel-sized one so browsers and rsvg-convert scale it the same way.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// RenderPDF renders DOT source as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot, engine string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot, engine)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders DOT source as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
func RenderPNG(ctx context.Context, dot, engine string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot, engine)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
