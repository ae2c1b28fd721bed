package style

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBA is a color with every channel in [0,1].
type RGBA struct {
	colorful.Color
	A float64
}

var namedColors = map[string]string{
	"black": "#000000", "white": "#ffffff", "red": "#ff0000", "green": "#008000",
	"blue": "#0000ff", "yellow": "#ffff00", "cyan": "#00ffff", "aqua": "#00ffff",
	"magenta": "#ff00ff", "fuchsia": "#ff00ff", "gray": "#808080", "grey": "#808080",
	"silver": "#c0c0c0", "maroon": "#800000", "olive": "#808000", "lime": "#00ff00",
	"teal": "#008080", "navy": "#000080", "purple": "#800080", "orange": "#ffa500",
}

var rgbFunc = regexp.MustCompile(`^rgba?\(\s*([^)]*)\)$`)

// ParseColor parses hex (3, 4, 6 or 8 digits), rgb()/rgba() in comma or
// space syntax, transparent and basic named colors.
func ParseColor(s string) (RGBA, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "transparent" {
		return RGBA{}, true
	}
	if hex, ok := namedColors[v]; ok {
		v = hex
	}
	if strings.HasPrefix(v, "#") {
		return parseHex(v)
	}
	if m := rgbFunc.FindStringSubmatch(v); m != nil {
		return parseRGBArgs(m[1])
	}
	return RGBA{}, false
}

func parseHex(v string) (RGBA, bool) {
	digits := v[1:]
	alpha := 1.0
	switch len(digits) {
	case 3, 6:
	case 4:
		a, err := strconv.ParseUint(strings.Repeat(digits[3:], 2), 16, 8)
		if err != nil {
			return RGBA{}, false
		}
		alpha = float64(a) / 255
		digits = digits[:3]
	case 8:
		a, err := strconv.ParseUint(digits[6:], 16, 8)
		if err != nil {
			return RGBA{}, false
		}
		alpha = float64(a) / 255
		digits = digits[:6]
	default:
		return RGBA{}, false
	}
	c, err := colorful.Hex("#" + digits)
	if err != nil {
		return RGBA{}, false
	}
	return RGBA{Color: c, A: alpha}, true
}

func parseRGBArgs(args string) (RGBA, bool) {
	args = strings.ReplaceAll(args, "/", " ")
	args = strings.ReplaceAll(args, ",", " ")
	parts := strings.Fields(args)
	if len(parts) != 3 && len(parts) != 4 {
		return RGBA{}, false
	}

	var ch [4]float64
	ch[3] = 1
	for i, p := range parts {
		f, ok := channel(p, i == 3)
		if !ok {
			return RGBA{}, false
		}
		ch[i] = f
	}
	return RGBA{Color: colorful.Color{R: ch[0], G: ch[1], B: ch[2]}, A: ch[3]}, true
}

// channel parses one rgb() argument into [0,1].
func channel(p string, isAlpha bool) (float64, bool) {
	pct := strings.HasSuffix(p, "%")
	f, err := strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
	if err != nil {
		return 0, false
	}
	switch {
	case pct:
		f /= 100
	case !isAlpha:
		f /= 255
	}
	return math.Max(0, math.Min(1, f)), true
}

// Distance is the Euclidean distance over R, G, B and A.
func Distance(a, b RGBA) float64 {
	rgb := a.Color.DistanceRgb(b.Color)
	da := a.A - b.A
	return math.Sqrt(rgb*rgb + da*da)
}

func (c RGBA) String() string {
	return fmt.Sprintf("rgba(%.0f, %.0f, %.0f, %.2f)", c.R*255, c.G*255, c.B*255, c.A)
}
