package network

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Stats summarises a branch list.
type Stats struct {
	Nodes       int     `json:"nodes"`
	Branches    int     `json:"branches"`
	Junctions   int     `json:"junctions"`
	Endpoints   int     `json:"endpoints"`
	SelfLoops   int     `json:"self_loops"`
	Components  int     `json:"components"`
	TotalLength float64 `json:"total_length"`
}

// Degrees counts the branches incident to each node. A self-loop counts
// once toward its node.
func Degrees(branches []Branch) map[NodeID]int {
	deg := make(map[NodeID]int)
	for _, b := range branches {
		deg[b.StartNode]++
		if !b.IsLoop() {
			deg[b.EndNode]++
		}
	}
	return deg
}

// Summarize computes node, junction and connectivity counts for branches.
// A node whose only branch is its own self-loop is neither an endpoint nor
// a junction.
func Summarize(branches []Branch) Stats {
	st := Stats{
		Branches:    len(branches),
		TotalLength: totalLength(branches),
	}

	looped := make(map[NodeID]bool)
	g := simple.NewUndirectedGraph()
	addNode := func(id NodeID) {
		if g.Node(int64(id)) == nil {
			g.AddNode(simple.Node(id))
		}
	}
	for _, b := range branches {
		addNode(b.StartNode)
		addNode(b.EndNode)
		if b.IsLoop() {
			st.SelfLoops++
			looped[b.StartNode] = true
			continue
		}
		if !g.HasEdgeBetween(int64(b.StartNode), int64(b.EndNode)) {
			g.SetEdge(g.NewEdge(simple.Node(b.StartNode), simple.Node(b.EndNode)))
		}
	}

	for n, d := range Degrees(branches) {
		st.Nodes++
		switch {
		case d == 1 && !looped[n]:
			st.Endpoints++
		case d >= 3:
			st.Junctions++
		}
	}
	st.Components = len(topo.ConnectedComponents(g))
	return st
}

// BranchNodes lists the distinct nodes referenced by branches in order of
// first appearance, start before end.
func BranchNodes(branches []Branch) []NodeID {
	seen := make(map[NodeID]bool)
	var ids []NodeID
	for _, b := range branches {
		for _, id := range []NodeID{b.StartNode, b.EndNode} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}
