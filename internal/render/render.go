package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/indextree/internal/model"
	"github.com/nao1215/indextree/internal/templates"
)

// Renderer writes a finished tree to w.
type Renderer interface {
	// Render writes the document for root and returns the number of
	// bytes written.
	Render(w io.Writer, root *model.Node) (int, error)

	// ContentType is the MIME type of the rendered document.
	ContentType() string
}

// Format names an output format.
type Format string

const (
	// FormatTemplate renders HTML through the folder and file templates.
	FormatTemplate Format = "template"
	// FormatInline streams HTML list markup while the walk runs.
	FormatInline Format = "inline"
	// FormatMarkdown renders a Markdown report.
	FormatMarkdown Format = "markdown"
	// FormatJSON renders the nested tree as JSON.
	FormatJSON Format = "json"
	// FormatCSV renders one row per node in pre-order.
	FormatCSV Format = "csv"
)

// ErrUnknownFormat is returned by ParseFormat and New for unsupported formats.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatTemplate, FormatInline, FormatMarkdown, FormatJSON, FormatCSV}
}

// ParseFormat converts a format name. Matching is case-insensitive.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Extension returns the file extension used for documents of format f.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	case FormatCSV:
		return ".csv"
	default:
		return ".html"
	}
}

// IsStreaming reports whether documents of format f are written while
// the walk runs.
func (f Format) IsStreaming() bool {
	return f == FormatInline
}

// New returns the Renderer for format f. The template set is used by
// the HTML formats and ignored by the others.
func New(f Format, set templates.Set) (Renderer, error) {
	switch f {
	case FormatTemplate:
		return NewTemplateRenderer(set), nil
	case FormatInline:
		return NewInlineRenderer(WithLayout(set.Layout)), nil
	case FormatMarkdown:
		return NewMarkdownRenderer(), nil
	case FormatJSON:
		return NewJSONRenderer(WithPrettyPrint()), nil
	case FormatCSV:
		return NewCSVRenderer(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

// countingWriter counts the bytes written through it.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
