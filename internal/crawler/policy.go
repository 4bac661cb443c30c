package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// CyclePolicy decides what happens when a directory URL is reached again.
type CyclePolicy int

const (
	// CycleSkip records the directory as a revisit without fetching it.
	CycleSkip CyclePolicy = iota

	// CycleError aborts the walk with ErrCycle.
	CycleError

	// CycleFollow fetches the directory again. Only the depth limit
	// stops a walk that follows a cycle.
	CycleFollow
)

// String returns the flag value of the policy.
func (p CyclePolicy) String() string {
	switch p {
	case CycleError:
		return "error"
	case CycleFollow:
		return "follow"
	default:
		return "skip"
	}
}

// ParseCyclePolicy converts a flag value into a CyclePolicy.
func ParseCyclePolicy(s string) (CyclePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return CycleSkip, nil
	case "error":
		return CycleError, nil
	case "follow":
		return CycleFollow, nil
	default:
		return CycleSkip, fmt.Errorf("unknown cycle policy %q (want skip, error or follow)", s)
	}
}

// visitKey normalizes a directory URL for the visited set.
//
// Scheme and host are lowercased, the fragment is dropped and "." and
// ".." segments of the escaped path are resolved, so "http://h/a/b/../"
// and "http://H/a/" share a key. Everything else stays textual: empty
// segments and escapes such as %2F are kept. Opaque URLs and URLs that
// do not parse are used as-is.
func visitKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Opaque != "" {
		return raw
	}

	base := url.URL{
		Scheme: strings.ToLower(u.Scheme),
		User:   u.User,
		Host:   strings.ToLower(u.Host),
	}
	key := base.String() + removeDotSegments(u.EscapedPath())
	if u.RawQuery != "" || u.ForceQuery {
		key += "?" + u.RawQuery
	}
	return key
}

// removeDotSegments resolves "." and ".." in an escaped path. A path that
// ends in a dot segment keeps a trailing "/".
func removeDotSegments(p string) string {
	if p == "" {
		return "/"
	}

	segs := strings.Split(strings.TrimPrefix(p, "/"), "/")
	out := make([]string, 0, len(segs))
	for i, seg := range segs {
		last := i == len(segs)-1
		switch seg {
		case ".":
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, seg)
			continue
		}
		if last {
			out = append(out, "")
		}
	}
	return "/" + strings.Join(out, "/")
}
