package preview

import (
	"bytes"
	"image/jpeg"
	"testing"

	"github.com/dgallion1/dxfnet/internal/network"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tee = []network.Polyline{
	{{0, 0}, {1, 0}},
	{{1, 0}, {2, 0}},
	{{1, 0}, {1, 1}},
}

func TestFit(t *testing.T) {
	tr := Fit(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{2, 1}}, 800, 600)
	assert.Equal(t, 400.0, tr.Scale)
	assert.Equal(t, 0.0, tr.OffsetX)
	assert.Equal(t, 100.0, tr.OffsetY)

	x, y := tr.Apply(network.Coord{0, 0})
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 500.0, y)

	x, y = tr.Apply(network.Coord{1, 1})
	assert.Equal(t, 400.0, x)
	assert.Equal(t, 100.0, y, "y grows downward in the image")
}

func TestFit_DegenerateExtent(t *testing.T) {
	// A horizontal line has no height; scale comes from the width alone.
	tr := Fit(orb.Bound{Min: orb.Point{0, 5}, Max: orb.Point{10, 5}}, 800, 600)
	assert.Equal(t, 80.0, tr.Scale)

	x, y := tr.Apply(network.Coord{5, 5})
	assert.Equal(t, 400.0, x)
	assert.Equal(t, 300.0, y)

	// A single point falls back to unit extents and sits in the centre.
	tr = Fit(orb.Bound{Min: orb.Point{3, 3}, Max: orb.Point{3, 3}}, 800, 600)
	assert.Equal(t, 600.0, tr.Scale)
	x, y = tr.Apply(network.Coord{3, 3})
	assert.Equal(t, 400.0, x)
	assert.Equal(t, 300.0, y)
}

func TestBounds(t *testing.T) {
	_, ok := Bounds(nil, nil)
	assert.False(t, ok)

	b, ok := Bounds(tee, []Label{{At: network.Coord{-1, 3}, Text: "x"}})
	require.True(t, ok)
	assert.Equal(t, orb.Point{-1, 0}, b.Min)
	assert.Equal(t, orb.Point{2, 3}, b.Max)
}

func TestRasterize(t *testing.T) {
	nodes, branches := reduce(t, tee)

	img, err := Rasterize(tee, NodeLabels(nodes, branches), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 600, img.Bounds().Dy())

	// (0.5, 0) lands on pixel (200, 500).
	r, g, b, _ := img.At(200, 500).RGBA()
	assert.Less(t, r>>8, uint32(128))
	assert.Less(t, g>>8, uint32(128))
	assert.Less(t, b>>8, uint32(128))

	r, g, b, _ = img.At(700, 50).RGBA()
	assert.Equal(t, uint32(0xffff), r&g&b, "background is white")
}

func TestRasterize_Empty(t *testing.T) {
	img, err := Rasterize(nil, nil, DefaultOptions())
	require.NoError(t, err)
	r, g, b, _ := img.At(400, 300).RGBA()
	assert.Equal(t, uint32(0xffff), r&g&b)
}

func TestRasterize_InvalidSize(t *testing.T) {
	_, err := Rasterize(tee, nil, Options{Width: 0, Height: 10})
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Width, opts.Height = 320, 240
	require.NoError(t, Render(&buf, tee, nil, opts))

	img, err := jpeg.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
}

func TestNodeLabels(t *testing.T) {
	nodes, branches := reduce(t, tee)

	labels := NodeLabels(nodes, branches)
	require.Len(t, labels, 4)
	assert.Equal(t, "1", labels[0].Text)
	assert.Equal(t, network.Coord{0, 0}, labels[0].At)
}

func reduce(t *testing.T, polylines []network.Polyline) (*network.NodeMap, []network.Branch) {
	t.Helper()
	nodes, segments, err := network.AssignNodes(polylines, network.DefaultPrecision)
	require.NoError(t, err)
	branches, err := network.MergeBranches(segments)
	require.NoError(t, err)
	return nodes, branches
}
