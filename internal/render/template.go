package render

import (
	"io"
	"strings"

	"github.com/nao1215/indextree/internal/model"
	"github.com/nao1215/indextree/internal/templates"
)

// TemplateRenderer renders a tree by substituting each node into the
// folder or file template.
//
// A leaf becomes the file template with {{url}} and {{name}} replaced.
// A directory becomes the folder template with its own {{url}} and
// {{name}} replaced and {{children}} replaced by the rendered children,
// concatenated in order. The result is wrapped in the layout at {{tree}}.
type TemplateRenderer struct {
	set templates.Set
}

// NewTemplateRenderer creates a TemplateRenderer for set.
func NewTemplateRenderer(set templates.Set) *TemplateRenderer {
	return &TemplateRenderer{set: set}
}

// ContentType implements Renderer.
func (r *TemplateRenderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render writes the layout with the rendered tree in place of {{tree}}.
// Without a layout only the tree fragment is written.
func (r *TemplateRenderer) Render(w io.Writer, root *model.Node) (int, error) {
	return io.WriteString(w, r.Document(root))
}

// Document returns the full document for root.
func (r *TemplateRenderer) Document(root *model.Node) string {
	tree := r.RenderTree(root)
	if r.set.Layout == "" {
		return tree
	}
	return strings.ReplaceAll(r.set.Layout, templates.PlaceholderTree, tree)
}

// RenderTree returns the fragment for root without the layout.
func (r *TemplateRenderer) RenderTree(root *model.Node) string {
	var b strings.Builder
	r.renderNode(&b, root)
	return b.String()
}

func (r *TemplateRenderer) renderNode(b *strings.Builder, n *model.Node) {
	if !n.IsDirectory() {
		b.WriteString(substitute(r.set.File, n))
		return
	}

	parts := strings.Split(substitute(r.set.Folder, n), templates.PlaceholderChildren)
	switch len(parts) {
	case 1:
		b.WriteString(parts[0])
	case 2:
		b.WriteString(parts[0])
		r.renderChildren(b, n)
		b.WriteString(parts[1])
	default:
		var children strings.Builder
		r.renderChildren(&children, n)
		b.WriteString(strings.Join(parts, children.String()))
	}
}

func (r *TemplateRenderer) renderChildren(b *strings.Builder, n *model.Node) {
	for _, c := range n.Children {
		r.renderNode(b, c)
	}
}

// substitute replaces {{url}} and then {{name}} in tmpl.
func substitute(tmpl string, n *model.Node) string {
	out := strings.ReplaceAll(tmpl, templates.PlaceholderURL, n.URL)
	return strings.ReplaceAll(out, templates.PlaceholderName, n.DisplayName)
}
