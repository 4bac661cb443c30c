package crawler

import (
	"strings"

	"github.com/nao1215/indextree/internal/model"
)

const (
	// branchUnit is repeated once per ancestor level.
	branchUnit = "| "

	// lastConnector precedes the last child of a directory.
	lastConnector = " `-- "

	// connector precedes every other node.
	connector = "-- "
)

// Prefix returns the tree-drawing prefix for a node at depth.
//
// For the last sibling the unit "| " is repeated depth-1 times, otherwise
// depth times; the repetition is trimmed of surrounding whitespace before
// the connector is appended. A negative repeat count yields no units.
func Prefix(depth int, last bool) string {
	if last {
		return strings.TrimSpace(strings.Repeat(branchUnit, max(depth-1, 0))) + lastConnector
	}
	return strings.TrimSpace(strings.Repeat(branchUnit, max(depth, 0))) + connector
}

// Hyperlink wraps text in an OSC 8 terminal hyperlink pointing at target.
func Hyperlink(target, text string) string {
	return "\x1b]8;;" + target + "\x1b\\" + text + "\x1b]8;;\x1b\\"
}

// TraceLine returns the progress line for n without a line terminator.
// Leaf names are wrapped in a terminal hyperlink when hyperlinks is true.
func TraceLine(n *model.Node, hyperlinks bool) string {
	name := n.DisplayName
	if hyperlinks && !n.IsDirectory() {
		name = Hyperlink(n.URL, name)
	}
	return Prefix(n.Depth, n.IsLastSibling) + name
}

// Tree returns the trace lines of every node under root in pre-order,
// each terminated by a newline.
func Tree(root *model.Node) string {
	var b strings.Builder
	root.Walk(func(n *model.Node) bool {
		b.WriteString(TraceLine(n, false))
		b.WriteByte('\n')
		return true
	})
	return b.String()
}
