// Package render turns positioned view graphs into pictures.
//
// # Overview
//
// The package has three parts:
//
//   - Format conversion (SVG to PDF/PNG) in this package
//   - Static node-link drawings through Graphviz (in [nodelink] subpackage)
//   - The interactive browser page (in [web] subpackage)
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	svg, err := nodelink.RenderSVG(ctx, dot, "neato")
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// # Node-Link Drawings
//
// The [nodelink] subpackage writes a view graph as Graphviz DOT. Nodes are
// colored by group and fuzzy links are drawn as triangles. Edge rest
// distances become Graphviz edge lengths, so neato and fdp produce a picture
// close to the settled force layout. A force layout can also be drawn as-is
// by pinning every node at its computed position.
//
// # Interactive Page
//
// The [web] subpackage renders a self-contained HTML page holding both view
// modes. The page runs the force simulation in the browser, shows the name
// and description of a clicked node, pins dragged nodes and switches modes
// with a toggle button.
//
// [nodelink]: github.com/matzehuels/linkatlas/pkg/render/nodelink
// [web]: github.com/matzehuels/linkatlas/pkg/render/web
package render
