package loader

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dgallion1/dxfnet/internal/network"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSONLoader reads LineString and MultiLineString geometries from a
// FeatureCollection, a single Feature or a bare geometry. Other geometry
// types are ignored.
type GeoJSONLoader struct{}

func (l *GeoJSONLoader) Load(r io.Reader, filename string) ([]network.Polyline, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, &network.InputError{Index: -1, Reason: "read geojson " + filename, Err: err}
	}

	var geoms []orb.Geometry
	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, &network.InputError{Index: -1, Reason: "read geojson " + filename, Err: err}
		}
		for _, f := range fc.Features {
			geoms = append(geoms, f.Geometry)
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, &network.InputError{Index: -1, Reason: "read geojson " + filename, Err: err}
		}
		geoms = append(geoms, f.Geometry)
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, &network.InputError{Index: -1, Reason: "read geojson " + filename, Err: err}
		}
		geoms = append(geoms, g.Geometry())
	}

	var out []network.Polyline
	for _, g := range geoms {
		out = appendLines(out, g)
	}
	return out, nil
}

func appendLines(out []network.Polyline, g orb.Geometry) []network.Polyline {
	switch g := g.(type) {
	case orb.LineString:
		out = append(out, network.Polyline(g))
	case orb.MultiLineString:
		for _, ls := range g {
			out = append(out, network.Polyline(ls))
		}
	case orb.Collection:
		for _, c := range g {
			out = appendLines(out, c)
		}
	}
	return out
}
