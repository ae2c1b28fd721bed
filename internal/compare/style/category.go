package style

import "strings"

// Category groups CSS properties for weighting.
type Category string

const (
	Layout      Category = "layout"
	Colors      Category = "colors"
	Sizing      Category = "sizing"
	Typography  Category = "typography"
	Spacing     Category = "spacing"
	Backgrounds Category = "backgrounds"
	Borders     Category = "borders"
	Effects     Category = "effects"
	Misc        Category = "misc"
)

// Weight is the contribution of each category to the overall score.
var Weight = map[Category]float64{
	Layout:      1.5,
	Colors:      1.3,
	Sizing:      1.2,
	Typography:  1.1,
	Spacing:     1.0,
	Backgrounds: 1.0,
	Borders:     0.7,
	Effects:     0.5,
	Misc:        0.3,
}

// maxDelta is the pixel difference at which a length counts as fully
// different.
var maxDelta = map[Category]float64{
	Borders:     4,
	Typography:  8,
	Effects:     10,
	Spacing:     16,
	Backgrounds: 20,
	Misc:        20,
	Colors:      20,
	Layout:      50,
	Sizing:      50,
}

var explicit = map[string]Category{
	"display": Layout, "position": Layout, "float": Layout, "clear": Layout,
	"top": Layout, "right": Layout, "bottom": Layout, "left": Layout, "inset": Layout,
	"z-index": Layout, "visibility": Layout, "box-sizing": Layout, "order": Layout,
	"flex": Layout, "vertical-align": Layout,

	"width": Sizing, "height": Sizing, "aspect-ratio": Sizing,

	"color": Colors, "fill": Colors, "stroke": Colors,

	"line-height": Typography, "letter-spacing": Typography, "word-spacing": Typography,
	"white-space": Typography, "word-break": Typography,

	"gap": Spacing, "row-gap": Spacing, "column-gap": Spacing,

	"box-shadow": Effects, "text-shadow": Effects, "opacity": Effects, "filter": Effects,
	"backdrop-filter": Effects, "mix-blend-mode": Effects, "clip-path": Effects,
}

var prefixes = []struct {
	prefix   string
	category Category
}{
	{"flex-", Layout},
	{"grid", Layout},
	{"align-", Layout},
	{"justify-", Layout},
	{"place-", Layout},
	{"overflow", Layout},
	{"min-", Sizing},
	{"max-", Sizing},
	{"font", Typography},
	{"text-", Typography},
	{"margin", Spacing},
	{"padding", Spacing},
	{"background", Backgrounds},
	{"border", Borders},
	{"outline", Borders},
	{"transform", Effects},
	{"transition", Effects},
	{"animation", Effects},
}

// Categorize maps a property name to its category. Unknown properties are
// misc.
func Categorize(property string) Category {
	p := strings.ToLower(strings.TrimSpace(property))
	if c, ok := explicit[p]; ok {
		return c
	}
	if strings.HasSuffix(p, "-color") {
		for _, owner := range []string{"border", "outline", "background"} {
			if strings.HasPrefix(p, owner) {
				return byPrefix(p)
			}
		}
		return Colors
	}
	return byPrefix(p)
}

func byPrefix(p string) Category {
	for _, r := range prefixes {
		if strings.HasPrefix(p, r.prefix) {
			return r.category
		}
	}
	return Misc
}

// isColorProperty reports whether values of property are compared as colors.
func isColorProperty(property string) bool {
	p := strings.ToLower(property)
	return p == "color" || p == "fill" || p == "stroke" || strings.HasSuffix(p, "-color")
}
