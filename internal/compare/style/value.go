package style

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var lengthToken = regexp.MustCompile(`^(-?(?:\d+\.?\d*|\.\d+))(px|em|rem)?$`)

// remBase converts em and rem to pixels.
const remBase = 16

// ParseLength parses px, em, rem and unitless numbers into pixels.
func ParseLength(s string) (float64, bool) {
	m := lengthToken.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	if m[2] == "em" || m[2] == "rem" {
		f *= remBase
	}
	return f, true
}

// parseLengths parses a whitespace-separated list of lengths.
func parseLengths(s string) ([]float64, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, false
	}
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, ok := ParseLength(f)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// expandBox applies the CSS one-to-four value shorthand so box values of
// different arity can be compared side by side.
func expandBox(v []float64) []float64 {
	switch len(v) {
	case 1:
		return []float64{v[0], v[0], v[0], v[0]}
	case 2:
		return []float64{v[0], v[1], v[0], v[1]}
	case 3:
		return []float64{v[0], v[1], v[2], v[1]}
	}
	return v
}

// maxLengthDelta returns the largest token-wise pixel difference.
func maxLengthDelta(a, b []float64) (float64, bool) {
	if len(a) != len(b) {
		if len(a) > 4 || len(b) > 4 {
			return 0, false
		}
		a, b = expandBox(a), expandBox(b)
	}
	var worst float64
	for i := range a {
		worst = math.Max(worst, math.Abs(a[i]-b[i]))
	}
	return worst, true
}

var layoutModes = map[string]bool{
	"flex": true, "block": true, "grid": true,
	"inline-flex": true, "inline-grid": true, "none": true,
}

func normalizeKeyword(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// firstFamily returns the first entry of a font-family list, unquoted.
func firstFamily(s string) string {
	first, _, _ := strings.Cut(s, ",")
	return strings.Trim(strings.TrimSpace(first), `"'`)
}

// keywordDissimilarity is 0 for equal values, 0.2 when one contains the
// other and 1 otherwise. Layout-mode changes on display are always 1.
func keywordDissimilarity(property, a, b string) float64 {
	a, b = normalizeKeyword(a), normalizeKeyword(b)
	if strings.EqualFold(property, "font-family") {
		a, b = firstFamily(a), firstFamily(b)
	}
	switch {
	case a == b:
		return 0
	case a == "" || b == "":
		return 1
	case strings.EqualFold(property, "display") && layoutModes[a] && layoutModes[b]:
		return 1
	case strings.Contains(a, b) || strings.Contains(b, a):
		return 0.2
	}
	return 1
}

// bucket maps x onto {0, 0.25, 0.5, 0.75, 1} using four ascending cuts.
// Values at or below a cut fall into that cut's bucket.
func bucket(x float64, cuts []float64) float64 {
	for i, c := range cuts {
		if x <= c {
			return float64(i) / float64(len(cuts))
		}
	}
	return 1
}

// scored is the outcome of comparing one property.
type scored struct {
	dissimilarity float64
	noticeability float64
}

func compareValues(property string, cat Category, src, mig string, t Tuning) scored {
	if isColorProperty(property) {
		a, okA := ParseColor(src)
		b, okB := ParseColor(mig)
		if okA && okB {
			d := math.Min(Distance(a, b), 1)
			return scored{dissimilarity: d, noticeability: bucket(d, t.ColorBuckets)}
		}
	}

	if a, okA := parseLengths(src); okA {
		if b, okB := parseLengths(mig); okB {
			if delta, ok := maxLengthDelta(a, b); ok {
				return scored{
					dissimilarity: math.Min(delta/maxDelta[cat], 1),
					noticeability: bucket(delta, t.LengthBuckets),
				}
			}
		}
	}

	d := keywordDissimilarity(property, src, mig)
	return scored{dissimilarity: d, noticeability: d}
}
