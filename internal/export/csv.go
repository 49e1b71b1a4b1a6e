// Package export writes a reduced network out as CSV, annotated DXF,
// GeoJSON and a DOCX report.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/dgallion1/dxfnet/internal/network"
)

// CSVHeader is the first row of every branch table.
var CSVHeader = []string{"start_node", "end_node", "length", "start_coord", "end_coord"}

// WriteCSV writes one row per branch, in branch order.
func WriteCSV(w io.Writer, branches []network.Branch) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, b := range branches {
		row := []string{
			strconv.Itoa(int(b.StartNode)),
			strconv.Itoa(int(b.EndNode)),
			formatFloat(b.Length),
			FormatCoord(b.StartCoord),
			FormatCoord(b.EndCoord),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// FormatCoord renders c as "(x, y)".
func FormatCoord(c network.Coord) string {
	return "(" + formatFloat(c[0]) + ", " + formatFloat(c[1]) + ")"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
