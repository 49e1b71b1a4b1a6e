// Package network reduces unconnected line segments to a topological
// network of junction and endpoint nodes joined by branches.
//
// Everything here is a pure function of its arguments: no logging, no I/O
// and no state shared between calls. Callers run AssignNodes, then
// MergeBranches, then Summarize.
package network
