// Package crawler reconstructs a directory tree from HTML listing pages.
//
// # Traversal
//
// A Walker starts at a root URL and visits nodes depth-first in pre-order.
// Every URL ending with "/" is a directory: its listing page is fetched
// once, the anchors on it are extracted in document order, and each href
// is appended verbatim to the directory URL to form a child URL. No URL
// resolution takes place, so "../", absolute hrefs and query strings are
// concatenated as-is. URLs without a trailing "/" are leaves and are never
// fetched.
//
// The walk is driven by an explicit stack of pending directory frames
// rather than by recursion, so listing depth does not grow the Go stack.
// A maximum depth and a visited-URL policy bound the walk on servers
// whose listings link back to themselves or to their parents.
//
// # Failure
//
// The first fetch or decode error aborts the whole walk. There is no
// per-branch recovery and no partial tree is returned.
//
// # Progress trace
//
// One line per node is written to the trace writer as the node is
// visited, using the ASCII prefix produced by Prefix:
//
//	-- http://h/a/
//	|-- b.txt
//	 `-- c/
//	| `-- d.txt
//
// # Usage
//
//	w := crawler.NewWalker(client, crawler.WithTrace(os.Stdout))
//	root, err := w.Walk(ctx, "http://example.com/pub/")
package crawler
