package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dgallion1/dxfnet/internal/network"
	"github.com/fumiama/go-docx"
)

// Report is the content of a conversion summary document.
type Report struct {
	Source   string
	Segments int
	Stats    network.Stats
	Branches []network.Branch
	Preview  []byte // JPEG, optional
}

// WriteReport writes r as a DOCX document: a title, the network counts,
// the preview image when present and the branch table.
func WriteReport(w io.Writer, r Report) error {
	doc := docx.New().WithDefaultTheme()

	doc.AddParagraph().AddText("Network report: " + r.Source).Bold().Size("32")

	st := r.Stats
	lines := []string{
		fmt.Sprintf("Input segments: %d", r.Segments),
		fmt.Sprintf("Branches: %d", st.Branches),
		fmt.Sprintf("Nodes: %d (%d junctions, %d endpoints)", st.Nodes, st.Junctions, st.Endpoints),
		fmt.Sprintf("Self-loops: %d", st.SelfLoops),
		fmt.Sprintf("Connected components: %d", st.Components),
		"Total length: " + formatFloat(st.TotalLength),
	}
	for _, l := range lines {
		doc.AddParagraph().AddText(l)
	}

	if len(r.Preview) > 0 {
		if _, err := doc.AddParagraph().AddInlineDrawing(r.Preview); err != nil {
			return fmt.Errorf("embed preview: %w", err)
		}
	}

	if len(r.Branches) > 0 {
		tbl := doc.AddTable(len(r.Branches)+1, len(CSVHeader), 0, nil)
		for j, h := range CSVHeader {
			tbl.TableRows[0].TableCells[j].AddParagraph().AddText(h).Bold()
		}
		for i, b := range r.Branches {
			cells := tbl.TableRows[i+1].TableCells
			cells[0].AddParagraph().AddText(strconv.Itoa(int(b.StartNode)))
			cells[1].AddParagraph().AddText(strconv.Itoa(int(b.EndNode)))
			cells[2].AddParagraph().AddText(formatFloat(b.Length))
			cells[3].AddParagraph().AddText(FormatCoord(b.StartCoord))
			cells[4].AddParagraph().AddText(FormatCoord(b.EndCoord))
		}
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}
