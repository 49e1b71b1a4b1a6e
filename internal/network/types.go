package network

import (
	"encoding/json"
	"math"

	"github.com/paulmach/orb"
)

// DefaultPrecision is the number of decimal places endpoints are rounded to
// before they are compared.
const DefaultPrecision = 4

// MaxPrecision bounds the rounding factor so 10^precision stays exact.
const MaxPrecision = 12

// Coord is a 2D point. Canonical coords are used as node identity.
type Coord = orb.Point

// Polyline is one input run of vertices, in drawing order.
type Polyline = orb.LineString

// NodeID identifies a node. IDs start at 1 and follow discovery order.
type NodeID int

// Node pairs an ID with its canonical coordinate.
type Node struct {
	ID    NodeID `json:"id"`
	Coord Coord  `json:"coord"`
}

// Segment is an edge between the first and last vertex of a polyline,
// carrying the polyline's full arc length. During merging a surviving
// segment absorbs its neighbours and has one endpoint rewired.
type Segment struct {
	Index      int     `json:"-"`
	StartNode  NodeID  `json:"start_node"`
	EndNode    NodeID  `json:"end_node"`
	Length     float64 `json:"length"`
	StartCoord Coord   `json:"start_coord"`
	EndCoord   Coord   `json:"end_coord"`
}

// IsLoop reports whether both endpoints resolve to the same node.
func (s Segment) IsLoop() bool { return s.StartNode == s.EndNode }

// Branch is a segment no further contraction applies to.
type Branch = Segment

// Canonicalize rounds each axis of p to precision decimal places. An axis
// whose magnitude is at least 2^53/10^precision is already integral at that
// precision and is kept as is, so huge coordinates stay finite and
// distinct. Negative zero is folded into zero so both spellings name the
// same node.
func Canonicalize(p Coord, precision int) Coord {
	factor := math.Pow10(precision)
	limit := (1 << 53) / factor
	rounded := orb.Round(p, int(factor)).(orb.Point)

	c := p
	for i := range c {
		if math.Abs(p[i]) < limit {
			c[i] = rounded[i]
		}
		if c[i] == 0 {
			c[i] = 0
		}
	}
	return c
}

// NodeMap records canonical coordinates in the order they were discovered.
type NodeMap struct {
	ids    map[Coord]NodeID
	coords []Coord
}

func newNodeMap() *NodeMap {
	return &NodeMap{ids: make(map[Coord]NodeID)}
}

// intern returns the ID for c, assigning the next one if c is new.
func (m *NodeMap) intern(c Coord) NodeID {
	if id, ok := m.ids[c]; ok {
		return id
	}
	m.coords = append(m.coords, c)
	id := NodeID(len(m.coords))
	m.ids[c] = id
	return id
}

// Lookup returns the node ID assigned to a canonical coordinate.
func (m *NodeMap) Lookup(c Coord) (NodeID, bool) {
	id, ok := m.ids[c]
	return id, ok
}

// Coord returns the canonical coordinate of a node.
func (m *NodeMap) Coord(id NodeID) (Coord, bool) {
	if id < 1 || int(id) > len(m.coords) {
		return Coord{}, false
	}
	return m.coords[id-1], true
}

// Len returns the number of distinct nodes.
func (m *NodeMap) Len() int { return len(m.coords) }

// Nodes returns every node in ID order.
func (m *NodeMap) Nodes() []Node {
	nodes := make([]Node, len(m.coords))
	for i, c := range m.coords {
		nodes[i] = Node{ID: NodeID(i + 1), Coord: c}
	}
	return nodes
}

func (m *NodeMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Nodes())
}
