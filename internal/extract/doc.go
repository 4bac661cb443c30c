// Package extract pulls anchor targets out of raw HTML listing pages.
//
// The scan is a plain substring search, not an HTML parser. Listing pages
// produced by web servers are regular enough for this to work, and the
// tree mirrors exactly what the scan finds, including its misreads:
// hrefs containing an embedded quote, single-quoted or unquoted
// attributes, and anchors whose first quoted value is not the href all
// come out wrong or empty.
package extract
