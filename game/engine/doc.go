// Package engine provides the in-memory game model for the rail-game client.
//
// The engine package implements:
//   - The static map graph of points and lines (MAP layer 0)
//   - Tagged post variants: Town, Market and Storage sharing a common header
//   - Trains with integer line positions and discrete speeds
//   - In-place merging of dynamic snapshots (MAP layer 1)
//   - Planner reservations and their per-tick accounting
//
// Core Types:
//
// Map holds the immutable graph built once per game. State wraps the map
// with the latest dynamic snapshot and merges each new snapshot in place so
// that pointers handed to the planner and executor stay valid across ticks.
// Reservation records a planner intention for one own train.
//
// Position Semantics:
//
// A train at position 0 stands on Points[0] of its line; at position equal
// to the line length it stands on Points[1]. Speed +1 moves toward
// Points[1], speed -1 toward Points[0]. Line length is simultaneously the
// shortest-path weight and the count of integer positions on the line.
package engine
