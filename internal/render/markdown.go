package render

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/indextree/internal/crawler"
	"github.com/nao1215/indextree/internal/model"
	"github.com/nao1215/markdown"
)

// cellEscaper escapes link text inside a table cell.
var cellEscaper = strings.NewReplacer(
	`\`, `\\`,
	"|", `\|`,
	"[", `\[`,
	"]", `\]`,
	"\n", " ",
)

// linkEscaper percent-encodes the characters that end a link
// destination or a table cell.
var linkEscaper = strings.NewReplacer(
	"|", "%7C",
	"(", "%28",
	")", "%29",
	" ", "%20",
	"\n", "%0A",
)

// MarkdownRenderer writes a Markdown report: a summary table, the tree
// as drawn by the progress trace, and a table of every entry.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// ContentType implements Renderer.
func (r *MarkdownRenderer) ContentType() string {
	return "text/markdown; charset=utf-8"
}

// Render writes the report for root.
func (r *MarkdownRenderer) Render(w io.Writer, root *model.Node) (int, error) {
	cw := &countingWriter{w: w}
	md := markdown.NewMarkdown(cw)

	stats := root.Count()

	md.H1("Index of " + root.URL)
	md.PlainText("")

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Root", "`" + strings.ReplaceAll(root.URL, "|", `\|`) + "`"},
			{"Directories", strconv.Itoa(stats.Directories)},
			{"Files", strconv.Itoa(stats.Leaves)},
			{"Skipped revisits", strconv.Itoa(stats.Revisits)},
			{"Max depth", strconv.Itoa(stats.MaxDepth)},
		},
	})
	md.PlainText("")

	md.H2("Tree")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightText, crawler.Tree(root))
	md.PlainText("")

	md.H2("Entries")
	md.PlainText("")
	nodes := root.Flatten()
	rows := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, []string{
			strconv.Itoa(n.Depth),
			n.Kind.String(),
			"[" + cellEscaper.Replace(n.DisplayName) + "](" + linkEscaper.Replace(n.URL) + ")",
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Depth", "Kind", "Name"},
		Rows:   rows,
	})
	md.PlainText("")

	if stats.Revisits > 0 {
		md.Note("Directories reached more than once were listed but not fetched again.")
		md.PlainText("")
	}

	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Generated by indextree*")

	err := md.Build()
	return cw.n, err
}
