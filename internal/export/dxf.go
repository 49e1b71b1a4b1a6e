package export

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dgallion1/dxfnet/internal/network"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
)

// Layer names in the annotated drawing.
const (
	LayerOriginal = "ORIGINAL_POLYLINES"
	LayerNodes    = "FINAL_NODES"
)

// DefaultLabelHeight is the TEXT height of node labels, in drawing units.
const DefaultLabelHeight = 2.0

// WriteDXF writes a new drawing holding every input polyline on
// LayerOriginal and one TEXT label per node referenced by branches on
// LayerNodes. The label text is the node ID and it sits on the node.
func WriteDXF(w io.Writer, polylines []network.Polyline, nodes *network.NodeMap, branches []network.Branch, labelHeight float64) error {
	if labelHeight <= 0 {
		labelHeight = DefaultLabelHeight
	}

	d := dxf.NewDrawing()
	if _, err := d.AddLayer(LayerOriginal, dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("add layer %s: %w", LayerOriginal, err)
	}
	for i, pl := range polylines {
		verts := make([][]float64, len(pl))
		for j, p := range pl {
			verts[j] = []float64{p[0], p[1]}
		}
		if _, err := d.LwPolyline(false, verts...); err != nil {
			return fmt.Errorf("add polyline %d: %w", i, err)
		}
	}

	if _, err := d.AddLayer(LayerNodes, color.Red, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("add layer %s: %w", LayerNodes, err)
	}
	for _, id := range network.BranchNodes(branches) {
		c, ok := nodes.Coord(id)
		if !ok {
			return fmt.Errorf("branch references unknown node %d", id)
		}
		if _, err := d.Text(strconv.Itoa(int(id)), c[0], c[1], 0, labelHeight); err != nil {
			return fmt.Errorf("add label for node %d: %w", id, err)
		}
	}

	// yofu/dxf saves by path, so go through a temp file.
	tmp, err := os.CreateTemp("", "dxfnet-out-*.dxf")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := d.SaveAs(tmpPath); err != nil {
		return fmt.Errorf("save dxf: %w", err)
	}
	f, err := os.Open(tmpPath)
	if err != nil {
		return fmt.Errorf("open temp file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("copy dxf: %w", err)
	}
	return nil
}
