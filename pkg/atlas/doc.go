// Package atlas provides the in-memory model of games and the links between
// them.
//
// # Overview
//
// An [Atlas] is a flat, indexed store (an arena) holding two kinds of
// entities:
//
//   - [Artifact]: a game, with its developers, an optional about text and an
//     ordered list of the links it exhibits.
//   - [Link]: a shared mechanic or theme. Minor links (group 1) are concrete
//     features; major links (group 2) are thematic categories that aggregate
//     minor links as their children.
//
// Relations are expressed as index lists into the arena rather than as
// pointers, so the parent/child graph between links never forms ownership
// cycles.
//
// # Node Identity
//
// Artifacts are keyed by their name. Links are keyed by a dense integer index
// assigned by [Atlas.NormalizeIDs]. [NodeID] is the tagged union of the two
// and [NodeID.Key] renders it as "artifact:<name>" or "link:<index>", which is
// the key used by graphs, layouts and the HTTP API.
//
// # Building
//
// Entities are added once, then two passes finish the model:
//
//	a := atlas.New()
//	loneliness, _ := a.AddLink(atlas.Link{Name: "loneliness", Group: atlas.GroupMajor})
//	solo, _ := a.AddLink(atlas.Link{Name: "single player experience", Group: atlas.GroupMinor})
//	_ = a.AddChild(loneliness, solo)
//	_, _ = a.AddArtifact(atlas.Artifact{Name: "Kind Words", Links: []int{solo}})
//	a.DeriveParents()
//	a.NormalizeIDs()
//
// [Atlas.Finalize] runs both passes followed by [Atlas.Validate]. Most callers
// build an atlas from a dataset document instead (see pkg/dataset).
//
// # Concurrency
//
// An Atlas is not safe for concurrent mutation. Once finalized it is only
// read, and concurrent reads are safe.
package atlas
