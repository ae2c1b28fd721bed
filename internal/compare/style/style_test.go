package style

import (
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/parity/internal/workspace"
)

func snap(props map[string]string) Snapshot {
	return Snapshot{Properties: props}
}

func TestCompare_SelfIsPerfect(t *testing.T) {
	s := snap(map[string]string{
		"background-color": "#00aad2",
		"display":          "flex",
		"padding":          "8px 16px",
		"font-family":      `"Helvetica Neue", Arial, sans-serif`,
		"box-shadow":       "none",
		"cursor":           "pointer",
	})
	r := Compare(s, s, DefaultThreshold, DefaultTuning())

	assert.Equal(t, 100.0, r.Similarity)
	assert.Equal(t, "Excellent", r.Grade)
	assert.Empty(t, r.Differences)
	assert.Empty(t, r.Fixes)
	assert.True(t, r.Passed)
	assert.Equal(t, 6, r.Compared)
}

func TestCompare_EmptyUnion(t *testing.T) {
	r := Compare(snap(nil), snap(nil), DefaultThreshold, DefaultTuning())
	assert.Equal(t, 100.0, r.Similarity)
	assert.Zero(t, r.Compared)
}

func TestCompare_BackgroundColor(t *testing.T) {
	src := Snapshot{Component: "hero", Properties: map[string]string{
		"background-color": "#00aad2", "display": "flex", "padding": "16px",
	}}
	mig := snap(map[string]string{
		"background-color": "#ffffff", "display": "flex", "padding": "16px",
	})

	r := Compare(src, mig, DefaultThreshold, DefaultTuning())

	require.Len(t, r.Fixes, 1)
	assert.Equal(t, "background-color", r.Fixes[0].Property)
	assert.Equal(t, PriorityHigh, r.Fixes[0].Priority)
	assert.GreaterOrEqual(t, r.Differences[0].Dissimilarity, 0.6)

	g := goldie.New(t)
	g.AssertJson(t, "background-color", r)
}

func TestCompare_AbsentPropertyScoresHigh(t *testing.T) {
	r := Compare(snap(map[string]string{"cursor": "pointer"}), snap(nil), DefaultThreshold, DefaultTuning())

	require.Len(t, r.Differences, 1)
	assert.Equal(t, 1.0, r.Differences[0].Dissimilarity)
	assert.Equal(t, "", r.Differences[0].Migrated)
	require.Len(t, r.Fixes, 1)
	assert.Equal(t, "add cursor: pointer", r.Fixes[0].Suggestion)
	assert.Equal(t, 0.0, r.Similarity)
}

func TestCompare_LayoutAlwaysHigh(t *testing.T) {
	src := snap(map[string]string{"width": "100px"})
	mig := snap(map[string]string{"width": "106px"})

	r := Compare(src, mig, DefaultThreshold, DefaultTuning())

	// 6px over a 50px ceiling is 0.12, just above the fix floor
	require.Len(t, r.Fixes, 1)
	assert.Equal(t, PriorityHigh, r.Fixes[0].Priority)
	assert.Equal(t, Sizing, r.Fixes[0].Category)
}

func TestCompare_NoiseFloor(t *testing.T) {
	src := snap(map[string]string{"width": "100px"})
	mig := snap(map[string]string{"width": "102px"})

	r := Compare(src, mig, DefaultThreshold, DefaultTuning())

	// 2/50 = 0.04 is below the noise floor
	assert.Empty(t, r.Differences)
	assert.Equal(t, 96.0, r.Similarity)
}

func TestCompare_Sorting(t *testing.T) {
	src := snap(map[string]string{
		"color":         "#000000",
		"margin-top":    "0px",
		"border-radius": "4px",
		"opacity":       "1",
	})
	mig := snap(map[string]string{
		"color":         "#ffffff",
		"margin-top":    "8px",
		"border-radius": "6px",
		"opacity":       "0.5",
	})

	r := Compare(src, mig, DefaultThreshold, DefaultTuning())

	for i := 1; i < len(r.Differences); i++ {
		assert.GreaterOrEqual(t, r.Differences[i-1].Score, r.Differences[i].Score)
	}
	for i := 1; i < len(r.Fixes); i++ {
		assert.LessOrEqual(t, r.Fixes[i-1].Priority.rank(), r.Fixes[i].Priority.rank())
	}
	assert.Equal(t, "color", r.Fixes[0].Property)
}

func TestPriorityFor_Monotonic(t *testing.T) {
	for _, cat := range []Category{Colors, Typography, Spacing, Borders, Effects, Misc, Layout, Sizing} {
		prev := PriorityFor(cat, 0)
		for s := 0.0; s <= 1.0; s += 0.01 {
			p := PriorityFor(cat, s)
			assert.LessOrEqual(t, p.rank(), prev.rank(), "category %s score %.2f", cat, s)
			prev = p
		}
	}
	assert.Equal(t, PriorityHigh, PriorityFor(Colors, 0.6))
	assert.Equal(t, PriorityMedium, PriorityFor(Colors, 0.3))
	assert.Equal(t, PriorityLow, PriorityFor(Colors, 0.29))
	assert.Equal(t, PriorityHigh, PriorityFor(Layout, 0.1))
}

func TestGrade(t *testing.T) {
	assert.Equal(t, "Excellent", Grade(95))
	assert.Equal(t, "Good", Grade(94.99))
	assert.Equal(t, "Good", Grade(85))
	assert.Equal(t, "Fair", Grade(70))
	assert.Equal(t, "Poor", Grade(69.99))
}

func TestCategorize(t *testing.T) {
	tests := map[string]Category{
		"display":               Layout,
		"justify-content":       Layout,
		"grid-template-columns": Layout,
		"width":                 Sizing,
		"max-height":            Sizing,
		"color":                 Colors,
		"text-decoration-color": Colors,
		"font-size":             Typography,
		"line-height":           Typography,
		"padding-left":          Spacing,
		"gap":                   Spacing,
		"background-color":      Backgrounds,
		"background-image":      Backgrounds,
		"border-top-color":      Borders,
		"border-radius":         Borders,
		"box-shadow":            Effects,
		"transition-duration":   Effects,
		"cursor":                Misc,
		"--custom":              Misc,
	}
	for prop, want := range tests {
		assert.Equal(t, want, Categorize(prop), prop)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in         string
		r, g, b, a float64
	}{
		{"#fff", 1, 1, 1, 1},
		{"#000000", 0, 0, 0, 1},
		{"#ff000080", 1, 0, 0, 128.0 / 255},
		{"#f008", 1, 0, 0, 136.0 / 255},
		{"rgb(255, 0, 0)", 1, 0, 0, 1},
		{"rgba(0, 0, 255, 0.5)", 0, 0, 1, 0.5},
		{"rgb(0 255 0 / 50%)", 0, 1, 0, 0.5},
		{"transparent", 0, 0, 0, 0},
		{"White", 1, 1, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, ok := ParseColor(tt.in)
			require.True(t, ok)
			assert.InDelta(t, tt.r, c.R, 1e-9)
			assert.InDelta(t, tt.g, c.G, 1e-9)
			assert.InDelta(t, tt.b, c.B, 1e-9)
			assert.InDelta(t, tt.a, c.A, 1e-9)
		})
	}

	for _, bad := range []string{"", "#ggg", "#12345", "rgb(1,2)", "hsl(0, 0%, 0%)", "bluish"} {
		_, ok := ParseColor(bad)
		assert.False(t, ok, bad)
	}
}

func TestDistance_Symmetric(t *testing.T) {
	colors := []string{"#00aad2", "#ffffff", "transparent", "rgba(10, 20, 30, 0.3)", "#123", "navy", "#ff000080"}
	for _, a := range colors {
		for _, b := range colors {
			ca, _ := ParseColor(a)
			cb, _ := ParseColor(b)
			assert.Equal(t, Distance(ca, cb), Distance(cb, ca), "%s vs %s", a, b)
		}
		ca, _ := ParseColor(a)
		assert.Zero(t, Distance(ca, ca))
	}
}

func TestParseLength(t *testing.T) {
	tests := map[string]float64{"16px": 16, "1em": 16, "1.5rem": 24, "0": 0, "-4px": -4, ".5em": 8, "1.25": 1.25}
	for in, want := range tests {
		got, ok := ParseLength(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"auto", "50%", "10vh", "px"} {
		_, ok := ParseLength(bad)
		assert.False(t, ok, bad)
	}
}

func TestKeywordDissimilarity(t *testing.T) {
	assert.Equal(t, 0.0, keywordDissimilarity("position", "relative", "Relative"))
	assert.Equal(t, 0.2, keywordDissimilarity("text-decoration", "underline", "underline dotted"))
	assert.Equal(t, 1.0, keywordDissimilarity("position", "relative", "absolute"))
	assert.Equal(t, 1.0, keywordDissimilarity("display", "flex", "inline-flex"))
	assert.Equal(t, 0.2, keywordDissimilarity("display", "inline", "inline-block"))
	assert.Equal(t, 0.0, keywordDissimilarity("font-family", `"Roboto", sans-serif`, "roboto, Arial"))
	assert.Equal(t, 1.0, keywordDissimilarity("cursor", "pointer", ""))
}

func TestCompareValues_BoxShorthand(t *testing.T) {
	s := compareValues("padding", Spacing, "8px", "8px 8px 8px 8px", DefaultTuning())
	assert.Zero(t, s.dissimilarity)

	s = compareValues("padding", Spacing, "8px 16px", "8px 24px", DefaultTuning())
	assert.Equal(t, 0.5, s.dissimilarity)
	assert.Equal(t, 0.5, s.noticeability)
}

func TestBucket(t *testing.T) {
	cuts := []float64{1, 4, 8, 16}
	assert.Equal(t, 0.0, bucket(1, cuts))
	assert.Equal(t, 0.25, bucket(2, cuts))
	assert.Equal(t, 0.5, bucket(8, cuts))
	assert.Equal(t, 0.75, bucket(16, cuts))
	assert.Equal(t, 1.0, bucket(17, cuts))
}

func TestParse(t *testing.T) {
	s, err := Parse("w.json", []byte(`{"component":"nav","properties":{"color":"red"}}`))
	require.NoError(t, err)
	assert.Equal(t, "nav", s.Component)
	assert.Equal(t, map[string]string{"color": "red"}, s.Properties)

	s, err = Parse("f.json", []byte(`{"color":"red","display":"block"}`))
	require.NoError(t, err)
	assert.Empty(t, s.Component)
	assert.Len(t, s.Properties, 2)

	_, err = Parse("bad.json", []byte(`{"color":3}`))
	assert.True(t, errors.Is(err, workspace.ErrInvalid))

	_, err = Parse("bad.json", []byte(`[]`))
	assert.True(t, errors.Is(err, workspace.ErrInvalid))
}
