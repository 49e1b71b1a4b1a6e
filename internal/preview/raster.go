// Package preview rasterizes drawing geometry to a JPEG thumbnail.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"io"
	"strconv"
	"sync"

	"github.com/dgallion1/dxfnet/internal/network"
	"github.com/golang/freetype/truetype"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
	"github.com/paulmach/orb"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// Options control the canvas and encoding.
type Options struct {
	Width     int
	Height    int
	Quality   int     // JPEG quality, 1..100
	LineWidth float64 // stroke width in pixels
	LabelSize float64 // font size in points
}

// DefaultOptions returns an 800x600 canvas.
func DefaultOptions() Options {
	return Options{
		Width:     800,
		Height:    600,
		Quality:   90,
		LineWidth: 2,
		LabelSize: 10,
	}
}

// Label is text anchored at a drawing coordinate.
type Label struct {
	At   network.Coord
	Text string
}

// Transform maps drawing coordinates to pixel coordinates.
type Transform struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
	Height  float64
}

// Fit centres b on a width x height canvas at the largest uniform scale
// that keeps it inside. A zero extent on either axis is treated as 1.
func Fit(b orb.Bound, width, height int) Transform {
	w, h := float64(width), float64(height)
	dx, dy := b.Max[0]-b.Min[0], b.Max[1]-b.Min[1]
	if dx <= 0 {
		dx = 1
	}
	if dy <= 0 {
		dy = 1
	}
	scale := min(w/dx, h/dy)
	return Transform{
		Scale:   scale,
		OffsetX: w/2 - (b.Min[0]+b.Max[0])/2*scale,
		OffsetY: h/2 - (b.Min[1]+b.Max[1])/2*scale,
		Height:  h,
	}
}

// Apply returns the pixel position of p. The y axis is flipped so that
// drawing "up" is image "up".
func (t Transform) Apply(p network.Coord) (x, y float64) {
	return p[0]*t.Scale + t.OffsetX, t.Height - (p[1]*t.Scale + t.OffsetY)
}

// Bounds returns the box around every polyline vertex and label anchor.
// ok is false when there is nothing to bound.
func Bounds(polylines []network.Polyline, labels []Label) (b orb.Bound, ok bool) {
	for _, pl := range polylines {
		if len(pl) == 0 {
			continue
		}
		if !ok {
			b, ok = pl.Bound(), true
			continue
		}
		b = b.Union(pl.Bound())
	}
	for _, l := range labels {
		if !ok {
			b, ok = l.At.Bound(), true
			continue
		}
		b = b.Extend(l.At)
	}
	return b, ok
}

var labelFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(goregular.TTF)
})

// Rasterize draws polylines in black and labelled nodes in red on a white
// canvas.
func Rasterize(polylines []network.Polyline, labels []Label, opts Options) (*image.RGBA, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", opts.Width, opts.Height)
	}
	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	b, ok := Bounds(polylines, labels)
	if !ok {
		return img, nil
	}
	tr := Fit(b, opts.Width, opts.Height)

	gc := draw2dimg.NewGraphicContext(img)
	gc.SetStrokeColor(color.Black)
	gc.SetLineWidth(opts.LineWidth)
	for _, pl := range polylines {
		if len(pl) < 2 {
			continue
		}
		gc.BeginPath()
		gc.MoveTo(tr.Apply(pl[0]))
		for _, p := range pl[1:] {
			gc.LineTo(tr.Apply(p))
		}
		gc.Stroke()
	}

	if len(labels) == 0 {
		return img, nil
	}

	red := color.RGBA{R: 200, A: 255}
	gc.SetFillColor(red)
	for _, l := range labels {
		x, y := tr.Apply(l.At)
		gc.BeginPath()
		draw2dkit.Circle(gc, x, y, 3)
		gc.Fill()
	}

	f, err := labelFont()
	if err != nil {
		return nil, fmt.Errorf("parse label font: %w", err)
	}
	face := truetype.NewFace(f, &truetype.Options{Size: opts.LabelSize})
	defer face.Close()
	d := &font.Drawer{Dst: img, Src: image.NewUniform(red), Face: face}
	for _, l := range labels {
		x, y := tr.Apply(l.At)
		d.Dot = fixed.P(int(x)+4, int(y)-4)
		d.DrawString(l.Text)
	}
	return img, nil
}

// Render rasterizes and JPEG-encodes to w.
func Render(w io.Writer, polylines []network.Polyline, labels []Label, opts Options) error {
	img, err := Rasterize(polylines, labels, opts)
	if err != nil {
		return err
	}
	q := opts.Quality
	if q <= 0 || q > 100 {
		q = jpeg.DefaultQuality
	}
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: q}); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	return nil
}

// NodeLabels labels every node referenced by branches with its ID.
func NodeLabels(nodes *network.NodeMap, branches []network.Branch) []Label {
	ids := network.BranchNodes(branches)
	labels := make([]Label, 0, len(ids))
	for _, id := range ids {
		if c, ok := nodes.Coord(id); ok {
			labels = append(labels, Label{At: c, Text: strconv.Itoa(int(id))})
		}
	}
	return labels
}
