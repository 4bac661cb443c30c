package extract

import "strings"

const (
	// anchorClose separates candidate fragments.
	anchorClose = "</a>"

	// hrefToken is searched case-sensitively in each fragment.
	hrefToken = "href"

	quote = "\""
)

// Links returns the href values of every anchor in html in document order.
// Empty results are dropped, duplicates are kept. An empty document
// yields an empty, non-nil slice.
func Links(html string) []string {
	links := make([]string, 0)
	if html == "" {
		return links
	}

	for _, fragment := range strings.Split(html, anchorClose) {
		if href := Href(fragment); href != "" {
			links = append(links, href)
		}
	}
	return links
}

// Href returns the quoted value following the first "href" in fragment,
// or "" when there is none.
//
// When the opening quote has no matching closing quote the value runs up
// to, but not including, the last byte of the fragment.
func Href(fragment string) string {
	at := strings.Index(fragment, hrefToken)
	if at == -1 {
		return ""
	}

	start := strings.Index(fragment[at:], quote)
	if start == -1 {
		return ""
	}
	start += at + 1

	end := strings.Index(fragment[start:], quote)
	if end == -1 {
		if start >= len(fragment)-1 {
			return ""
		}
		return fragment[start : len(fragment)-1]
	}
	return fragment[start : start+end]
}
