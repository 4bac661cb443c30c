// Package main provides the entry point for the indextree CLI.
//
// indextree crawls web server directory listings starting from a root URL,
// follows the <a> href links of every listing page and rebuilds the
// directory tree as a document.
//
// Usage:
//
//	indextree crawl <root-url> <destination>
//	indextree crawl --list <file> --output-dir <dir>
//	indextree serve
//
// See --help for all available options.
package main

func main() {
	Execute()
}
