package render

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/nao1215/indextree/internal/model"
)

// CSVRow is one node of the flat listing.
type CSVRow struct {
	Depth int    `csv:"depth"`
	Kind  string `csv:"kind"`
	Name  string `csv:"name"`
	URL   string `csv:"url"`
	Last  bool   `csv:"last"`
}

// CSVRenderer writes one row per node in pre-order.
type CSVRenderer struct{}

// NewCSVRenderer creates a CSVRenderer.
func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

// ContentType implements Renderer.
func (r *CSVRenderer) ContentType() string {
	return "text/csv; charset=utf-8"
}

// Rows flattens root into CSV rows.
func Rows(root *model.Node) []CSVRow {
	nodes := root.Flatten()
	rows := make([]CSVRow, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, CSVRow{
			Depth: n.Depth,
			Kind:  n.Kind.String(),
			Name:  n.DisplayName,
			URL:   n.URL,
			Last:  n.IsLastSibling,
		})
	}
	return rows
}

// Render writes the rows for root with a header line.
func (r *CSVRenderer) Render(w io.Writer, root *model.Node) (int, error) {
	cw := &countingWriter{w: w}
	rows := Rows(root)
	if err := gocsv.Marshal(&rows, cw); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}
