package behavior

import (
	"net/url"
	"strings"
)

// DefaultTextSimilarity is the token-overlap acceptance boundary.
const DefaultTextSimilarity = 0.6

func tokens(s string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, f := range strings.Fields(strings.ToLower(s)) {
		set[f] = struct{}{}
	}
	return set
}

// TokenOverlap is |A∩B|/|A∪B| over lower-cased whitespace tokens. Two empty
// strings overlap fully.
func TokenOverlap(a, b string) float64 {
	ta, tb := tokens(a), tokens(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1
	}
	inter := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}

// TextMatch accepts exact matches after trimming, then token overlap at or
// above threshold.
func TextMatch(a, b string, threshold float64) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == b {
		return true
	}
	return TokenOverlap(a, b) >= threshold
}

// NormalizeLabel lower-cases and collapses whitespace.
func NormalizeLabel(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// NormalizeTarget reduces a link target to its path: scheme, host, query
// and fragment are dropped, a trailing slash is removed and an empty path
// becomes "/".
func NormalizeTarget(target string) string {
	raw := strings.TrimSpace(target)
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(raw, "?#"); i >= 0 {
		p = raw[:i]
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return "/"
	}
	return p
}
