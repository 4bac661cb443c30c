package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/nao1215/indextree/internal/extract"
	"github.com/nao1215/indextree/internal/model"
)

// DefaultMaxDepth bounds the walk when no depth option is given.
const DefaultMaxDepth = 100

// Fetcher retrieves the listing page of a directory URL as text.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (string, error)

// Fetch calls f(ctx, url).
func (f FetcherFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// Visitor observes a walk as it happens, in traversal order.
//
// EnterDirectory is called after the directory's trace line is written
// and before its listing is fetched. LeaveDirectory is called after its
// last child has been visited. A Visitor error aborts the walk.
type Visitor interface {
	EnterDirectory(n *model.Node) error
	LeaveDirectory(n *model.Node) error
	VisitLeaf(n *model.Node) error
}

// nopVisitor is used when Walk is called without a Visitor.
type nopVisitor struct{}

func (nopVisitor) EnterDirectory(*model.Node) error { return nil }
func (nopVisitor) LeaveDirectory(*model.Node) error { return nil }
func (nopVisitor) VisitLeaf(*model.Node) error      { return nil }

// Walker crawls directory listings into a model.Node tree.
// A Walker holds no per-walk state and may be reused.
type Walker struct {
	// fetcher retrieves listing pages.
	fetcher Fetcher

	// trace receives one progress line per node. Nil disables the trace.
	trace io.Writer

	// hyperlinks wraps leaf names in the trace in terminal hyperlinks.
	hyperlinks bool

	// maxDepth is the deepest directory that may be fetched.
	// Zero means unlimited.
	maxDepth int

	// cyclePolicy handles directories reached more than once.
	cyclePolicy CyclePolicy

	logger *slog.Logger
}

// Option configures a Walker.
type Option func(*Walker)

// WithTrace sets the writer that receives the progress trace.
func WithTrace(w io.Writer) Option {
	return func(wk *Walker) {
		wk.trace = w
	}
}

// WithHyperlinks enables OSC 8 hyperlinks on leaf trace lines.
func WithHyperlinks(enabled bool) Option {
	return func(wk *Walker) {
		wk.hyperlinks = enabled
	}
}

// WithMaxDepth sets the maximum directory depth. Zero means unlimited.
func WithMaxDepth(depth int) Option {
	return func(wk *Walker) {
		wk.maxDepth = depth
	}
}

// WithCyclePolicy sets how revisited directories are handled.
func WithCyclePolicy(p CyclePolicy) Option {
	return func(wk *Walker) {
		wk.cyclePolicy = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(wk *Walker) {
		wk.logger = logger
	}
}

// NewWalker creates a Walker that fetches listings with f.
func NewWalker(f Fetcher, opts ...Option) *Walker {
	w := &Walker{
		fetcher:     f,
		hyperlinks:  true,
		maxDepth:    DefaultMaxDepth,
		cyclePolicy: CycleSkip,
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = slog.Default()
	}

	return w
}

// frame is a directory whose children are still being visited.
type frame struct {
	node  *model.Node
	hrefs []string
	next  int
}

// walkState is the per-walk bookkeeping.
type walkState struct {
	visitor Visitor
	visited map[string]struct{}
	stack   []*frame
}

// Walk crawls the tree rooted at rootURL.
func (w *Walker) Walk(ctx context.Context, rootURL string) (*model.Node, error) {
	return w.WalkWith(ctx, rootURL, nil)
}

// WalkWith crawls the tree rooted at rootURL and reports every node to v
// in traversal order. v may be nil.
//
// On failure the returned tree is nil; v has already seen every node
// visited before the failure.
func (w *Walker) WalkWith(ctx context.Context, rootURL string, v Visitor) (*model.Node, error) {
	if v == nil {
		v = nopVisitor{}
	}

	st := &walkState{
		visitor: v,
		visited: make(map[string]struct{}),
	}

	root := model.NewNode(rootURL, "", 0, false)
	if err := w.visit(ctx, st, root); err != nil {
		return nil, err
	}

	for len(st.stack) > 0 {
		top := st.stack[len(st.stack)-1]

		if top.next == len(top.hrefs) {
			st.stack = st.stack[:len(st.stack)-1]
			if err := v.LeaveDirectory(top.node); err != nil {
				return nil, err
			}
			continue
		}

		i := top.next
		top.next++

		parent := top.node
		child := model.NewNode(parent.URL+top.hrefs[i], parent.URL, parent.Depth+1, i == len(top.hrefs)-1)
		parent.Children = append(parent.Children, child)

		if err := w.visit(ctx, st, child); err != nil {
			return nil, err
		}
	}

	return root, nil
}

// visit traces n and either reports a leaf or opens a directory frame.
func (w *Walker) visit(ctx context.Context, st *walkState, n *model.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.writeTrace(n)

	if !n.IsDirectory() {
		return st.visitor.VisitLeaf(n)
	}

	if w.maxDepth > 0 && n.Depth > w.maxDepth {
		return &WalkError{URL: n.URL, Depth: n.Depth, Err: ErrMaxDepthExceeded}
	}

	key := visitKey(n.URL)
	if _, seen := st.visited[key]; seen {
		switch w.cyclePolicy {
		case CycleError:
			return &WalkError{URL: n.URL, Depth: n.Depth, Err: ErrCycle}
		case CycleSkip:
			w.logger.Debug("skipping revisited directory", "url", n.URL, "depth", n.Depth)
			n.Revisit = true
			if err := st.visitor.EnterDirectory(n); err != nil {
				return err
			}
			return st.visitor.LeaveDirectory(n)
		case CycleFollow:
		}
	}
	st.visited[key] = struct{}{}

	if err := st.visitor.EnterDirectory(n); err != nil {
		return err
	}

	w.logger.Debug("fetching listing", "url", n.URL, "depth", n.Depth)
	body, err := w.fetcher.Fetch(ctx, n.URL)
	if err != nil {
		return &WalkError{URL: n.URL, Depth: n.Depth, Err: err}
	}

	hrefs := extract.Links(body)
	n.Children = make([]*model.Node, 0, len(hrefs))
	st.stack = append(st.stack, &frame{node: n, hrefs: hrefs})
	return nil
}

// writeTrace emits the progress line for n. Trace write errors are
// logged and otherwise ignored; the trace never affects the walk.
func (w *Walker) writeTrace(n *model.Node) {
	if w.trace == nil {
		return
	}
	if _, err := fmt.Fprintln(w.trace, TraceLine(n, w.hyperlinks)); err != nil {
		w.logger.Warn("failed to write progress trace", "error", err)
	}
}
