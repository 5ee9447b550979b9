// Package nodelink draws view graphs as static node-link diagrams.
//
// # Overview
//
// This package writes an undirected Graphviz graph for a view graph and
// renders it in-process. It is the static counterpart of the interactive
// page: same colors, same label placement, same edge rest lengths.
//
// # Usage
//
// Let Graphviz place the nodes:
//
//	dot := nodelink.ToDOT(g, nil, nodelink.Options{Engine: nodelink.EngineNeato})
//	svg, err := nodelink.RenderSVG(ctx, dot, nodelink.EngineNeato)
//
// Or draw positions computed elsewhere, such as a force layout:
//
//	dot := nodelink.ToDOT(g, positions, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot, nodelink.EngineNeato)
//
// Nodes with a position are pinned with pos="x,y!" and inputscale=72, so
// coordinates are read as points. neato keeps pinned nodes where they are
// and places the rest.
//
// # Styling
//
//   - games are black, minor links purple, major links orange
//   - fuzzy links are triangles
//   - labels sit to the right of the node and carry the class group-N
//   - the node tooltip is its description
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
