package export

import (
	"fmt"
	"io"

	"github.com/dgallion1/dxfnet/internal/network"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// WriteGeoJSON writes a FeatureCollection with a Point feature per node
// referenced by branches followed by a LineString feature per branch.
// Branch lines run straight from start to end coordinate.
func WriteGeoJSON(w io.Writer, nodes *network.NodeMap, branches []network.Branch) error {
	fc := geojson.NewFeatureCollection()
	deg := network.Degrees(branches)

	for _, id := range network.BranchNodes(branches) {
		c, ok := nodes.Coord(id)
		if !ok {
			return fmt.Errorf("branch references unknown node %d", id)
		}
		f := geojson.NewFeature(orb.Point(c))
		f.Properties["kind"] = "node"
		f.Properties["node_id"] = int(id)
		f.Properties["degree"] = deg[id]
		fc.Append(f)
	}

	for i, b := range branches {
		f := geojson.NewFeature(orb.LineString{b.StartCoord, b.EndCoord})
		f.Properties["kind"] = "branch"
		f.Properties["branch"] = i
		f.Properties["start_node"] = int(b.StartNode)
		f.Properties["end_node"] = int(b.EndNode)
		f.Properties["length"] = b.Length
		f.Properties["start_coord"] = []float64{b.StartCoord[0], b.StartCoord[1]}
		f.Properties["end_coord"] = []float64{b.EndCoord[0], b.EndCoord[1]}
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal geojson: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	return nil
}
