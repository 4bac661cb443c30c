package render

import (
	"io"
	"strings"

	"github.com/nao1215/indextree/internal/model"
	"github.com/nao1215/indextree/internal/templates"
	"golang.org/x/net/html"
)

// InlineRenderer writes HTML list markup node by node.
//
// A directory is written as an opening list item and nested list before
// its children and closed after them; a leaf is a single list item. URLs
// and names are HTML-escaped.
type InlineRenderer struct {
	// layout wraps the list at {{tree}}. Empty means no wrapper.
	layout string

	// indent is repeated once per depth level.
	indent string
}

// InlineOption configures an InlineRenderer.
type InlineOption func(*InlineRenderer)

// WithLayout wraps the streamed list in layout at {{tree}}.
func WithLayout(layout string) InlineOption {
	return func(r *InlineRenderer) {
		r.layout = layout
	}
}

// WithIndent sets the per-depth indentation. The default is two spaces.
func WithIndent(indent string) InlineOption {
	return func(r *InlineRenderer) {
		r.indent = indent
	}
}

// NewInlineRenderer creates an InlineRenderer.
func NewInlineRenderer(opts ...InlineOption) *InlineRenderer {
	r := &InlineRenderer{indent: "  "}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ContentType implements Renderer.
func (r *InlineRenderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Stream returns a Stream writing to w. Pass it to the crawler as the
// walk's Visitor, calling Begin before the walk and End after it.
func (r *InlineRenderer) Stream(w io.Writer) *Stream {
	prefix, suffix := splitLayout(r.layout)
	return &Stream{
		w:      &countingWriter{w: w},
		indent: r.indent,
		prefix: prefix,
		suffix: suffix,
	}
}

// Render replays a finished tree through a Stream.
func (r *InlineRenderer) Render(w io.Writer, root *model.Node) (int, error) {
	s := r.Stream(w)
	if err := s.Begin(); err != nil {
		return s.Written(), err
	}
	if err := replay(root, s); err != nil {
		return s.Written(), err
	}
	err := s.End()
	return s.Written(), err
}

// Stream writes inline markup as the walk reports nodes. It implements
// the crawler's Visitor interface. Nothing is buffered: every event is
// written to the underlying writer before the call returns.
type Stream struct {
	w      *countingWriter
	indent string
	prefix string
	suffix string
}

// Begin writes the part of the layout before {{tree}}.
func (s *Stream) Begin() error {
	return s.write(s.prefix)
}

// End writes the part of the layout after {{tree}}. It is not called
// when the walk fails, so the document stays truncated.
func (s *Stream) End() error {
	return s.write(s.suffix)
}

// Written returns the number of bytes written so far.
func (s *Stream) Written() int {
	return s.w.n
}

// EnterDirectory writes the opening tags of n.
func (s *Stream) EnterDirectory(n *model.Node) error {
	pad := s.pad(n.Depth)
	return s.write(pad + `<li class="folder"><a href="` + html.EscapeString(n.URL) + `">` +
		html.EscapeString(n.DisplayName) + "</a>\n" + pad + "<ul>\n")
}

// LeaveDirectory writes the closing tags of n.
func (s *Stream) LeaveDirectory(n *model.Node) error {
	pad := s.pad(n.Depth)
	return s.write(pad + "</ul>\n" + pad + "</li>\n")
}

// VisitLeaf writes the list item for n.
func (s *Stream) VisitLeaf(n *model.Node) error {
	return s.write(s.pad(n.Depth) + `<li class="file"><a href="` + html.EscapeString(n.URL) + `">` +
		html.EscapeString(n.DisplayName) + "</a></li>\n")
}

func (s *Stream) pad(depth int) string {
	return strings.Repeat(s.indent, depth)
}

func (s *Stream) write(text string) error {
	if text == "" {
		return nil
	}
	_, err := io.WriteString(s.w, text)
	return err
}

// splitLayout cuts layout at the first {{tree}}. A layout without the
// placeholder is written entirely before the tree.
func splitLayout(layout string) (string, string) {
	prefix, suffix, found := strings.Cut(layout, templates.PlaceholderTree)
	if !found {
		return layout, ""
	}
	return prefix, strings.ReplaceAll(suffix, templates.PlaceholderTree, "")
}

// visitor mirrors the crawler's Visitor so replay can drive any of them.
type visitor interface {
	EnterDirectory(n *model.Node) error
	LeaveDirectory(n *model.Node) error
	VisitLeaf(n *model.Node) error
}

// replay reports the nodes of a finished tree to v in walk order.
func replay(root *model.Node, v visitor) error {
	type entry struct {
		node *model.Node
		next int
	}

	if !root.IsDirectory() {
		return v.VisitLeaf(root)
	}
	if err := v.EnterDirectory(root); err != nil {
		return err
	}

	stack := []*entry{{node: root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next == len(top.node.Children) {
			stack = stack[:len(stack)-1]
			if err := v.LeaveDirectory(top.node); err != nil {
				return err
			}
			continue
		}

		child := top.node.Children[top.next]
		top.next++

		if !child.IsDirectory() {
			if err := v.VisitLeaf(child); err != nil {
				return err
			}
			continue
		}
		if err := v.EnterDirectory(child); err != nil {
			return err
		}
		stack = append(stack, &entry{node: child})
	}
	return nil
}
