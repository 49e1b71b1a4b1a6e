package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/dxfnet/internal/network"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
)

// DXFLoader reads LWPOLYLINE and, optionally, LINE entities.
type DXFLoader struct {
	IncludeLines bool
}

func (l *DXFLoader) Load(r io.Reader, filename string) ([]network.Polyline, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	// yofu/dxf reads anything without sections as an empty drawing.
	if !hasSection(data, "ENTITIES") {
		return nil, &network.InputError{Index: -1, Reason: "read dxf " + filename + ": no ENTITIES section"}
	}

	// yofu/dxf opens by path, so we write to a temp file.
	tmp, err := os.CreateTemp("", "dxfnet-in-*.dxf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	drawing, err := dxf.Open(tmpPath)
	if err != nil {
		return nil, &network.InputError{Index: -1, Reason: "read dxf " + filename, Err: err}
	}

	var out []network.Polyline
	for _, e := range drawing.Entities() {
		switch e := e.(type) {
		case *entity.LwPolyline:
			pl, err := lwPolyline(e)
			if err != nil {
				return nil, &network.InputError{Index: len(out), Reason: err.Error()}
			}
			out = append(out, pl)
		case *entity.Line:
			if !l.IncludeLines {
				continue
			}
			if len(e.Start) < 2 || len(e.End) < 2 {
				return nil, &network.InputError{Index: len(out), Reason: "LINE has fewer than two coordinates per point"}
			}
			out = append(out, network.Polyline{
				{e.Start[0], e.Start[1]},
				{e.End[0], e.End[1]},
			})
		}
	}
	return out, nil
}

// lwPolyline flattens an LWPOLYLINE to its vertices. A closed polyline
// repeats its first vertex at the end so its closing edge counts toward
// length and both endpoints land on one node.
func lwPolyline(e *entity.LwPolyline) (network.Polyline, error) {
	pl := make(network.Polyline, 0, len(e.Vertices)+1)
	for i, v := range e.Vertices {
		if len(v) < 2 {
			return nil, fmt.Errorf("LWPOLYLINE vertex %d has %d coordinates", i, len(v))
		}
		pl = append(pl, network.Coord{v[0], v[1]})
	}
	if e.Closed && len(pl) > 0 {
		pl = append(pl, pl[0])
	}
	return pl, nil
}

// hasSection reports whether an ASCII DXF opens a section called name, that
// is the group pairs 0/SECTION then 2/name.
func hasSection(data []byte, name string) bool {
	want := [4]string{"0", "SECTION", "2", name}
	var window [4]string
	n := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		copy(window[:], window[1:])
		window[3] = strings.TrimSpace(sc.Text())
		if n++; n >= 4 && window == want {
			return true
		}
	}
	return false
}
