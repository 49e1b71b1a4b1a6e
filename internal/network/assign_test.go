package network

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignNodes_DiscoveryOrder(t *testing.T) {
	polylines := []Polyline{
		{{0, 0}, {1, 0}},
		{{2, 0}, {1, 0}},
		{{2, 0}, {2, 5}},
	}
	nodes, segments, err := AssignNodes(polylines, DefaultPrecision)
	require.NoError(t, err)

	assert.Equal(t, 4, nodes.Len())
	want := []struct {
		start, end NodeID
	}{{1, 2}, {3, 2}, {3, 4}}
	require.Len(t, segments, 3)
	for i, w := range want {
		assert.Equal(t, w.start, segments[i].StartNode, "segment %d start", i)
		assert.Equal(t, w.end, segments[i].EndNode, "segment %d end", i)
		assert.Equal(t, i, segments[i].Index)
	}

	id, ok := nodes.Lookup(Coord{2, 5})
	require.True(t, ok)
	assert.Equal(t, NodeID(4), id)

	c, ok := nodes.Coord(3)
	require.True(t, ok)
	assert.Equal(t, Coord{2, 0}, c)

	_, ok = nodes.Coord(0)
	assert.False(t, ok)
	_, ok = nodes.Coord(5)
	assert.False(t, ok)
}

func TestAssignNodes_LengthUsesEveryVertex(t *testing.T) {
	polylines := []Polyline{
		{{0, 0}, {3, 4}, {3, 0}},
	}
	nodes, segments, err := AssignNodes(polylines, DefaultPrecision)
	require.NoError(t, err)

	assert.Equal(t, 2, nodes.Len(), "intermediate vertices must not become nodes")
	assert.InDelta(t, 9.0, segments[0].Length, 1e-12)
	assert.Equal(t, Coord{0, 0}, segments[0].StartCoord)
	assert.Equal(t, Coord{3, 0}, segments[0].EndCoord)
}

func TestAssignNodes_PrecisionMergesNearbyEndpoints(t *testing.T) {
	polylines := []Polyline{
		{{0, 0}, {1.00001, 0}},
		{{0.99999, 0}, {2, 0}},
	}

	nodes, _, err := AssignNodes(polylines, 4)
	require.NoError(t, err)
	assert.Equal(t, 3, nodes.Len())

	nodes, _, err = AssignNodes(polylines, 5)
	require.NoError(t, err)
	assert.Equal(t, 4, nodes.Len())
}

func TestAssignNodes_NegativeZeroIsZero(t *testing.T) {
	polylines := []Polyline{
		{{math.Copysign(0, -1), 0}, {1, 0}},
		{{1, 0}, {0.00001, -0.00001}},
	}
	nodes, segments, err := AssignNodes(polylines, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, nodes.Len())
	assert.Equal(t, segments[0].StartNode, segments[1].EndNode)
}

func TestAssignNodes_Empty(t *testing.T) {
	nodes, segments, err := AssignNodes(nil, DefaultPrecision)
	require.NoError(t, err)
	assert.Equal(t, 0, nodes.Len())
	assert.Empty(t, segments)
}

func TestAssignNodes_SinglePointPolyline(t *testing.T) {
	polylines := []Polyline{
		{{0, 0}, {1, 0}},
		{{5, 5}},
	}
	nodes, segments, err := AssignNodes(polylines, DefaultPrecision)
	require.Error(t, err)
	assert.Nil(t, nodes)
	assert.Nil(t, segments)

	var inErr *InputError
	require.True(t, errors.As(err, &inErr))
	assert.Equal(t, 1, inErr.Index)
	assert.True(t, errors.Is(err, ErrInput))
	assert.False(t, errors.Is(err, ErrInvariant))
}

func TestAssignNodes_NonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, _, err := AssignNodes([]Polyline{{{0, 0}, {1, v}, {2, 0}}}, DefaultPrecision)
		var inErr *InputError
		require.True(t, errors.As(err, &inErr), "value %v", v)
		assert.Equal(t, 0, inErr.Index)
		assert.Contains(t, inErr.Error(), "vertex 1")
	}
}

func TestAssignNodes_PrecisionOutOfRange(t *testing.T) {
	_, _, err := AssignNodes(nil, -1)
	assert.ErrorIs(t, err, ErrInput)
	_, _, err = AssignNodes(nil, MaxPrecision+1)
	assert.ErrorIs(t, err, ErrInput)
}

func TestNodeMap_JSON(t *testing.T) {
	nodes, _, err := AssignNodes([]Polyline{{{0, 0}, {1.5, 2}}}, DefaultPrecision)
	require.NoError(t, err)
	data, err := nodes.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"coord":[0,0]},{"id":2,"coord":[1.5,2]}]`, string(data))
}

func TestCanonicalize(t *testing.T) {
	assert.Equal(t, Coord{1.2346, -3}, Canonicalize(Coord{1.23456, -2.99999}, 4))
	assert.Equal(t, Coord{1, 2}, Canonicalize(Coord{1.4, 2.4}, 0))
}

func TestCanonicalize_HugeAxisIsKept(t *testing.T) {
	assert.Equal(t, Coord{1e305, 0.1235}, Canonicalize(Coord{1e305, 0.12346}, 4))
	assert.Equal(t, Coord{-2e300, 7}, Canonicalize(Coord{-2e300, 7}, MaxPrecision))

	// 2^53/10^4 is the first magnitude left unrounded at precision 4.
	limit := float64(1<<53) / 1e4
	assert.Equal(t, limit, Canonicalize(Coord{limit, 0}, 4)[0])
}

func TestAssignNodes_FarApartEndpointsStayDistinct(t *testing.T) {
	polylines := []Polyline{
		{{1e305, 0}, {1e305, 1}},
		{{2e305, 0}, {2e305, 1}},
	}
	nodes, segments, err := AssignNodes(polylines, DefaultPrecision)
	require.NoError(t, err)

	assert.Equal(t, 4, nodes.Len())
	assert.Equal(t, Coord{1e305, 0}, segments[0].StartCoord)
	assert.Equal(t, Coord{2e305, 0}, segments[1].StartCoord)
	assert.InDelta(t, 1.0, segments[0].Length, 1e-12)

	branches, err := MergeBranches(segments)
	require.NoError(t, err)
	assert.Len(t, branches, 2)
	assert.False(t, branches[0].IsLoop())

	_, err = json.Marshal(nodes)
	assert.NoError(t, err)
}

func TestAssignNodes_LengthOfHugeSpan(t *testing.T) {
	_, segments, err := AssignNodes([]Polyline{{{1e200, 0}, {-1e200, 0}}}, DefaultPrecision)
	require.NoError(t, err)
	assert.Equal(t, 2e200, segments[0].Length)

	branches, err := MergeBranches(segments)
	require.NoError(t, err)
	assert.Equal(t, 2e200, branches[0].Length)
}

func TestAssignNodes_LengthOverflow(t *testing.T) {
	_, _, err := AssignNodes([]Polyline{
		{{0, 0}, {1, 0}},
		{{math.MaxFloat64, 0}, {-math.MaxFloat64, 0}},
	}, DefaultPrecision)
	var inErr *InputError
	require.True(t, errors.As(err, &inErr))
	assert.Equal(t, 1, inErr.Index)
	assert.Contains(t, inErr.Error(), "overflows")
}
