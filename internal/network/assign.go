package network

import (
	"fmt"
	"math"
)

// AssignNodes canonicalizes the first and last vertex of every polyline,
// numbers each distinct canonical coordinate in discovery order (start
// before end, polylines in input order) and emits one segment per polyline.
//
// Intermediate vertices contribute to a segment's length but never become
// nodes. Any malformed polyline fails the whole call.
func AssignNodes(polylines []Polyline, precision int) (*NodeMap, []Segment, error) {
	if precision < 0 || precision > MaxPrecision {
		return nil, nil, &InputError{
			Index:  -1,
			Reason: fmt.Sprintf("precision %d outside [0, %d]", precision, MaxPrecision),
		}
	}
	if err := validatePolylines(polylines); err != nil {
		return nil, nil, err
	}

	lengths := make([]float64, len(polylines))
	for i, pl := range polylines {
		lengths[i] = arcLength(pl)
		if !finite(lengths[i]) {
			return nil, nil, &InputError{Index: i, Reason: "length overflows float64"}
		}
	}

	nodes := newNodeMap()
	segments := make([]Segment, 0, len(polylines))
	for i, pl := range polylines {
		start := Canonicalize(pl[0], precision)
		end := Canonicalize(pl[len(pl)-1], precision)
		segments = append(segments, Segment{
			Index:      i,
			StartNode:  nodes.intern(start),
			EndNode:    nodes.intern(end),
			Length:     lengths[i],
			StartCoord: start,
			EndCoord:   end,
		})
	}
	return nodes, segments, nil
}

func validatePolylines(polylines []Polyline) error {
	for i, pl := range polylines {
		if len(pl) < 2 {
			return &InputError{Index: i, Reason: fmt.Sprintf("needs at least 2 vertices, has %d", len(pl))}
		}
		for j, p := range pl {
			if !finite(p[0]) || !finite(p[1]) {
				return &InputError{Index: i, Reason: fmt.Sprintf("vertex %d is not finite (%v, %v)", j, p[0], p[1])}
			}
		}
	}
	return nil
}

// arcLength sums the vertex-to-vertex distances of pl. math.Hypot avoids
// squaring the deltas, which would overflow long before the distance does.
func arcLength(pl Polyline) float64 {
	var total float64
	for i := 1; i < len(pl); i++ {
		total += math.Hypot(pl[i][0]-pl[i-1][0], pl[i][1]-pl[i-1][1])
	}
	return total
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
