package model

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// PathSeparator terminates every directory URL.
// It is the only signal used to tell directories from leaves; no
// content-type sniffing takes place.
const PathSeparator = "/"

// Kind classifies a Node as a directory or a leaf.
type Kind int

const (
	// KindLeaf is a terminal node. Leaves are never fetched.
	KindLeaf Kind = iota
	// KindDirectory is a node whose listing page is fetched to discover children.
	KindDirectory
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if k == KindDirectory {
		return "directory"
	}
	return "leaf"
}

// MarshalText implements encoding.TextMarshaler so that JSON and CSV
// exports carry "directory"/"leaf" instead of integers.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It accepts the
// names written by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "directory":
		*k = KindDirectory
	case "leaf":
		*k = KindLeaf
	default:
		return fmt.Errorf("unknown node kind %q", text)
	}
	return nil
}

// KindOf classifies a URL. A URL ending with PathSeparator is a directory.
func KindOf(url string) Kind {
	if strings.HasSuffix(url, PathSeparator) {
		return KindDirectory
	}
	return KindLeaf
}

// Node is one entry of a crawled listing tree.
//
// Nodes are created by the crawler the moment their href is extracted
// from the parent's listing page and are only read by renderers.
type Node struct {
	// URL is the absolute locator of the entry and its identity.
	URL string `json:"url"`

	// DisplayName is the percent-decoded remainder of URL after the
	// parent's URL was removed as a literal prefix.
	DisplayName string `json:"name"`

	// Kind is KindDirectory when URL ends with PathSeparator.
	Kind Kind `json:"kind"`

	// Depth is the distance from the root, which has depth 0.
	Depth int `json:"depth"`

	// IsLastSibling reports whether this node is the last child of its
	// parent by anchor order. The root is never a last sibling.
	IsLastSibling bool `json:"last"`

	// Revisit marks a directory whose URL was already visited in this
	// walk. Revisited directories are not fetched and have no children.
	Revisit bool `json:"revisit,omitempty"`

	// Children holds the entries of a directory in anchor order.
	// It is always nil for leaves.
	Children []*Node `json:"children,omitempty"`
}

// NewNode creates a node for url discovered on parentURL's listing.
// The root is created with an empty parentURL.
func NewNode(url, parentURL string, depth int, last bool) *Node {
	return &Node{
		URL:           url,
		DisplayName:   DisplayName(url, parentURL),
		Kind:          KindOf(url),
		Depth:         depth,
		IsLastSibling: last,
	}
}

// IsDirectory reports whether n is a directory node.
func (n *Node) IsDirectory() bool {
	return n.Kind == KindDirectory
}

// Walk calls fn for n and every descendant in pre-order.
// If fn returns false the subtree below that node is skipped.
func (n *Node) Walk(fn func(*Node) bool) {
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(cur) {
			continue
		}
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
}

// Flatten returns n and all descendants in pre-order.
func (n *Node) Flatten() []*Node {
	nodes := make([]*Node, 0)
	n.Walk(func(c *Node) bool {
		nodes = append(nodes, c)
		return true
	})
	return nodes
}

// Stats summarizes a tree.
type Stats struct {
	// Directories counts directory nodes, including revisits.
	Directories int `json:"directories"`

	// Leaves counts leaf nodes.
	Leaves int `json:"leaves"`

	// Revisits counts directories that were not fetched again.
	Revisits int `json:"revisits"`

	// MaxDepth is the deepest depth reached.
	MaxDepth int `json:"max_depth"`
}

// Total returns the number of nodes.
func (s Stats) Total() int {
	return s.Directories + s.Leaves
}

// Fetched returns the number of listing pages that were fetched.
func (s Stats) Fetched() int {
	return s.Directories - s.Revisits
}

// Count computes Stats for the tree rooted at n.
func (n *Node) Count() Stats {
	var s Stats
	n.Walk(func(c *Node) bool {
		if c.IsDirectory() {
			s.Directories++
			if c.Revisit {
				s.Revisits++
			}
		} else {
			s.Leaves++
		}
		if c.Depth > s.MaxDepth {
			s.MaxDepth = c.Depth
		}
		return true
	})
	return s
}

// DisplayName removes parentURL from url as a literal prefix and
// percent-decodes the rest. When parentURL is not a prefix of url the
// whole url is decoded and returned.
func DisplayName(url, parentURL string) string {
	return Unescape(strings.TrimPrefix(url, parentURL))
}

// Unescape decodes %XX sequences in s. Malformed sequences are kept
// verbatim and '+' is not treated as a space. Byte sequences that do
// not form valid UTF-8 after decoding are replaced with one U+FFFD
// per invalid byte.
func Unescape(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}

	out := b.String()
	if utf8.ValidString(out) {
		return out
	}

	var v strings.Builder
	v.Grow(len(out) + 8)
	for len(out) > 0 {
		r, size := utf8.DecodeRuneInString(out)
		if r == utf8.RuneError && size == 1 {
			v.WriteString("\uFFFD")
		} else {
			v.WriteString(out[:size])
		}
		out = out[size:]
	}
	return v.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
