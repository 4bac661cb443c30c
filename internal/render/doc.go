// Package render turns a crawled model.Node tree into documents.
//
// Two renderers produce the HTML tree. TemplateRenderer substitutes
// nodes into folder and file templates and returns the whole document
// at once, so nothing is written unless the walk succeeds. The inline
// renderer writes markup while the walk is still running, through a
// Stream that the crawler drives as a Visitor; a failed walk leaves a
// truncated document behind.
//
// MarkdownRenderer, JSONRenderer and CSVRenderer export a finished tree
// in other formats. Every renderer preserves traversal order.
package render
