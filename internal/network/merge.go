package network

import (
	"fmt"
	"slices"

	"github.com/tidwall/btree"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

const (
	lengthAbsTol = 1e-9
	lengthRelTol = 1e-9
)

// MergeBranches contracts every pass-through node until only dead ends,
// junctions and self-loops remain as segment endpoints.
//
// A node is contracted when exactly two distinct segments touch it and
// neither is a self-loop. The surviving segment is the one that comes first
// in input order among those with a contractible endpoint; its partner is
// the earliest segment it can absorb, its start endpoint winning a tie. The
// result matches a full rescan after every contraction, but only segments
// touching the rewired node are re-examined.
//
// A closed ring of pass-through nodes collapses to a single self-loop that
// carries the ring's whole length.
func MergeBranches(segments []Segment) ([]Branch, error) {
	m, err := newMerger(segments)
	if err != nil {
		return nil, err
	}
	if err := m.run(); err != nil {
		return nil, err
	}
	return m.branches(segments)
}

// merger owns the working set of one MergeBranches call.
type merger struct {
	segs  []Segment
	live  []bool
	count int

	// incident live segment positions per node, ascending
	adj map[NodeID][]int

	// positions of live segments with at least one contractible endpoint
	ready btree.Set[int]
}

func newMerger(segments []Segment) (*merger, error) {
	m := &merger{
		segs:  slices.Clone(segments),
		live:  make([]bool, len(segments)),
		count: len(segments),
		adj:   make(map[NodeID][]int),
	}
	for i, s := range m.segs {
		if s.StartNode < 1 || s.EndNode < 1 {
			return nil, &InputError{Index: i, Reason: "segment references a node ID below 1"}
		}
		if s.Length < 0 || !finite(s.Length) {
			return nil, &InputError{Index: i, Reason: fmt.Sprintf("segment length %v is not a finite non-negative number", s.Length)}
		}
		m.live[i] = true
		m.attach(s.StartNode, i)
		if !s.IsLoop() {
			m.attach(s.EndNode, i)
		}
	}
	for i := range m.segs {
		m.refresh(i)
	}
	return m, nil
}

func (m *merger) run() error {
	limit := len(m.segs)
	for steps := 0; ; steps++ {
		i, ok := m.ready.Min()
		if !ok {
			return nil
		}
		if steps >= limit {
			return &InvariantError{Op: "merge", Detail: fmt.Sprintf("no fixed point after %d contractions of %d segments", steps, limit)}
		}
		t, n := m.partner(i)
		if t < 0 {
			return &InvariantError{Op: "merge", Detail: fmt.Sprintf("segment %d queued without a contractible endpoint", m.segs[i].Index)}
		}
		if t == i {
			return &InvariantError{Op: "merge", Detail: fmt.Sprintf("segment %d selected as its own partner", m.segs[i].Index)}
		}
		before := m.count
		m.contract(i, t, n)
		if m.count != before-1 {
			return &InvariantError{Op: "merge", Detail: fmt.Sprintf("working set went from %d to %d segments", before, m.count)}
		}
	}
}

// contractible reports whether n is a pass-through node.
func (m *merger) contractible(n NodeID) bool {
	ps := m.adj[n]
	return len(ps) == 2 && !m.segs[ps[0]].IsLoop() && !m.segs[ps[1]].IsLoop()
}

// partner returns the segment that i absorbs next and the node they share,
// or -1 when i has no contractible endpoint.
func (m *merger) partner(i int) (int, NodeID) {
	s := m.segs[i]
	best, at := -1, NodeID(0)
	if m.contractible(s.StartNode) {
		best, at = m.other(s.StartNode, i), s.StartNode
	}
	if m.contractible(s.EndNode) {
		if t := m.other(s.EndNode, i); best < 0 || t < best {
			best, at = t, s.EndNode
		}
	}
	return best, at
}

func (m *merger) other(n NodeID, i int) int {
	for _, p := range m.adj[n] {
		if p != i {
			return p
		}
	}
	return -1
}

// contract folds segment t into segment i across node n.
func (m *merger) contract(i, t int, n NodeID) {
	s, absorbed := &m.segs[i], m.segs[t]

	far, farCoord := absorbed.EndNode, absorbed.EndCoord
	if absorbed.EndNode == n {
		far, farCoord = absorbed.StartNode, absorbed.StartCoord
	}
	kept := s.EndNode
	if s.StartNode == n {
		s.StartNode, s.StartCoord = far, farCoord
	} else {
		kept = s.StartNode
		s.EndNode, s.EndCoord = far, farCoord
	}
	s.Length += absorbed.Length

	delete(m.adj, n)
	m.detach(far, t)
	m.attach(far, i)
	m.live[t] = false
	m.ready.Delete(t)
	m.count--

	for _, node := range []NodeID{far, kept} {
		for _, p := range m.adj[node] {
			m.refresh(p)
		}
	}
	m.refresh(i)
}

func (m *merger) refresh(i int) {
	if m.live[i] {
		s := m.segs[i]
		if m.contractible(s.StartNode) || m.contractible(s.EndNode) {
			m.ready.Insert(i)
			return
		}
	}
	m.ready.Delete(i)
}

func (m *merger) attach(n NodeID, i int) {
	ps := m.adj[n]
	pos, found := slices.BinarySearch(ps, i)
	if !found {
		m.adj[n] = slices.Insert(ps, pos, i)
	}
}

func (m *merger) detach(n NodeID, i int) {
	ps := m.adj[n]
	if pos, found := slices.BinarySearch(ps, i); found {
		ps = slices.Delete(ps, pos, pos+1)
	}
	if len(ps) == 0 {
		delete(m.adj, n)
		return
	}
	m.adj[n] = ps
}

// branches returns the surviving segments in input order after checking
// that no length was created or lost.
func (m *merger) branches(input []Segment) ([]Branch, error) {
	out := make([]Branch, 0, m.count)
	for i, s := range m.segs {
		if m.live[i] {
			out = append(out, s)
		}
	}
	in, got := totalLength(input), totalLength(out)
	if !scalar.EqualWithinAbsOrRel(in, got, lengthAbsTol, lengthRelTol) {
		return nil, &InvariantError{Op: "merge", Detail: fmt.Sprintf("length not conserved: input %v, branches %v", in, got)}
	}
	return out, nil
}

func totalLength(segments []Segment) float64 {
	lengths := make([]float64, len(segments))
	for i, s := range segments {
		lengths[i] = s.Length
	}
	return floats.Sum(lengths)
}
