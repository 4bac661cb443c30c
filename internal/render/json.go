package render

import (
	"encoding/json"
	"io"

	"github.com/nao1215/indextree/internal/model"
)

// JSONRenderer writes the nested tree as a JSON document.
type JSONRenderer struct {
	// indent enables pretty-printed output.
	indent bool
}

// JSONOption configures a JSONRenderer.
type JSONOption func(*JSONRenderer)

// WithPrettyPrint enables two-space indentation.
func WithPrettyPrint() JSONOption {
	return func(r *JSONRenderer) {
		r.indent = true
	}
}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer(opts ...JSONOption) *JSONRenderer {
	r := &JSONRenderer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ContentType implements Renderer.
func (r *JSONRenderer) ContentType() string {
	return "application/json"
}

// JSONDocument is the top-level object written by JSONRenderer.
type JSONDocument struct {
	// Root is the URL the walk started from.
	Root string `json:"root"`

	// Stats summarizes the tree.
	Stats model.Stats `json:"stats"`

	// Tree is the root node with all descendants.
	Tree *model.Node `json:"tree"`
}

// Render writes the document for root.
func (r *JSONRenderer) Render(w io.Writer, root *model.Node) (int, error) {
	doc := JSONDocument{
		Root:  root.URL,
		Stats: root.Count(),
		Tree:  root,
	}

	var data []byte
	var err error
	if r.indent {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.Write(data)
}
