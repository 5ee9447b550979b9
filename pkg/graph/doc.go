// Package graph provides serialization types for view graphs and layouts.
//
// This package defines the wire format shared by the CLI, the HTTP API, the
// render cache and the snapshot stores. It has no dependency on the in-memory
// model (pkg/atlas); pkg/view produces [Graph] values and pkg/force produces
// positions.
//
// # Core Types
//
//   - [Graph]: the node-link set for one view mode
//   - [Node], [Edge]: a node with its physics charge and an undirected edge
//     with its spring parameters
//   - [Position]: a 2D coordinate, optionally pinned
//   - [Layout]: a graph plus positions, frame size and engine
//
// # Graph Serialization
//
// Graphs use a node-link JSON format. Node ids are keys such as
// "artifact:Sky" or "link:3":
//
//	{
//	  "mode": "collapsed",
//	  "nodes": [{"id": "artifact:Sky", "name": "Sky", "group": 0, "charge": -80}],
//	  "edges": [{"source": "link:6", "target": "artifact:Sky", "distance": 60, "strength": 0.4}]
//	}
//
// Common operations:
//
//	data, _ := graph.MarshalGraph(g)          // Graph -> []byte
//	g, _ := graph.UnmarshalGraph(data)        // []byte -> Graph (validated)
//	graph.WriteGraphFile(g, "graph.json")     // Graph -> file
//	g, _ := graph.ReadGraphFile("graph.json") // file -> Graph
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
