package server

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/nao1215/indextree/internal/model"
)

// fallbackName is used when a URL has neither a path segment nor a host.
const fallbackName = "index"

// ArtifactName derives the artifact name for rootURL: the last non-empty
// path segment, percent-decoded, or the host when the path is empty,
// followed by ext.
func ArtifactName(rootURL, ext string) (string, error) {
	u, err := url.Parse(rootURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rootURL, err)
	}

	base := ""
	segments := strings.Split(u.EscapedPath(), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			base = sanitize(model.Unescape(segments[i]))
			break
		}
	}
	if base == "" {
		base = sanitize(u.Hostname())
	}
	if base == "" {
		base = fallbackName
	}
	return base + ext, nil
}

// sanitize replaces characters that cannot appear in a single path
// segment or file name.
func sanitize(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == 0:
			return '_'
		case r < 0x20:
			return -1
		}
		return r
	}, name)

	if name == "." || name == ".." {
		return ""
	}
	return name
}
