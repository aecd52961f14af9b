package bez

import (
	"fmt"
	"strings"
	"testing"

	"github.com/npillmayer/glifbez/core"
	"github.com/npillmayer/glifbez/core/outline"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	on  = outline.Curve
	off = outline.OffCurve
	ln  = outline.Line
	mv  = outline.Move
)

func pt(x, y float64, k outline.PointKind) outline.Point {
	return outline.Pt(x, y, k)
}

func kinds(c *outline.Contour) []outline.PointKind {
	ks := make([]outline.PointKind, len(c.Points))
	for i, p := range c.Points {
		ks[i] = p.Kind
	}
	return ks
}

func TestEncodeCurveContour(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.bez")
	defer teardown()
	//
	o := outline.New()
	o.AddContour(pt(0, 0, mv), pt(10, 0, off), pt(10, 10, off), pt(0, 10, on))
	bez, err := Encode(o, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, "0 0 mt\n10 0 10 10 0 10 ct\ncp", bez)
	//
	dec, hints, err := Decode(bez, Options{})
	require.NoError(t, err)
	assert.Nil(t, hints)
	cs := dec.Contours()
	require.Len(t, cs, 1)
	// the path does not end at its start: implied closing line-to
	assert.Equal(t, []outline.PointKind{ln, off, off, on}, kinds(cs[0]))
	assert.Equal(t, pt(0, 10, on), cs[0].Points[3])
}

func TestDecodeClosedCurve(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.bez")
	defer teardown()
	//
	dec, _, err := Decode("0 0 mt\n10 0 10 10 0 0 ct\ncp", Options{})
	require.NoError(t, err)
	cs := dec.Contours()
	require.Len(t, cs, 1)
	// closing curve ends at the start: first point takes over its kind
	assert.Equal(t, []outline.PointKind{on, off, off}, kinds(cs[0]))
	assert.Equal(t, pt(0, 0, on), cs[0].Points[0])
}

func TestEncodeStartPoints(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.bez")
	defer teardown()
	//
	cases := []struct {
		points []outline.Point
		bez    string
	}{
		{ // first point is a line: closing line-to stays implicit
			[]outline.Point{pt(0, 0, ln), pt(100, 0, ln), pt(100, 100, ln)},
			"0 0 mt\n100 0 dt\n100 100 dt\ncp",
		},
		{ // first point is a curve: it is repeated as the last operator
			[]outline.Point{pt(0, 0, on), pt(50, 0, off), pt(100, 50, off), pt(100, 100, on),
				pt(50, 100, off), pt(0, 50, off)},
			"0 0 mt\n50 0 100 50 100 100 ct\n50 100 0 50 0 0 ct\ncp",
		},
		{ // first point off-curve, last point a line
			[]outline.Point{pt(50, 0, off), pt(100, 50, off), pt(100, 100, on), pt(0, 0, ln)},
			"0 0 mt\n50 0 100 50 100 100 ct\ncp",
		},
		{ // first point off-curve, last point a curve
			[]outline.Point{pt(50, 0, off), pt(100, 50, off), pt(100, 100, on),
				pt(50, 100, off), pt(0, 50, off), pt(0, 0, on)},
			"0 0 mt\n50 0 100 50 100 100 ct\n50 100 0 50 0 0 ct\ncp",
		},
		{ // lone move is an anchor
			[]outline.Point{pt(10, 10, mv)},
			"",
		},
	}
	for i, c := range cases {
		o := outline.New()
		o.AddContour(c.points...)
		bez, err := Encode(o, nil, Options{})
		require.NoError(t, err, "case %d", i)
		assert.Equal(t, c.bez, bez, "case %d", i)
	}
}

func TestEncodeFormatErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.bez")
	defer teardown()
	//
	bad := [][]outline.Point{
		{pt(0, 0, ln), pt(10, 0, off), pt(10, 10, on)},             // curve with 2 args
		{pt(10, 0, off), pt(10, 10, off), pt(0, 0, mv)},            // off-curve start, move end
		{pt(0, 0, ln), pt(10, 0, off), pt(10, 10, outline.QCurve)}, // quadratic
	}
	for i, pts := range bad {
		o := outline.New()
		o.AddContour(pts...)
		_, err := Encode(o, nil, Options{})
		require.Error(t, err, "case %d", i)
		assert.Equal(t, core.EFORMAT, core.Code(err), "case %d", i)
	}
}

func TestEncodeRounding(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.bez")
	defer teardown()
	//
	o := outline.New()
	o.AddContour(pt(0.5, 1.5, ln), pt(10.4, -0.2, ln), pt(2.6, 3, ln))
	bez, err := Encode(o, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, "0 2 mt\n10 0 dt\n3 3 dt\ncp", bez)
	bez, err = Encode(o, nil, Options{AllowDecimals: true})
	require.NoError(t, err)
	assert.Equal(t, "0.500 1.500 mt\n10.400 -0.200 dt\n2.600 3.000 dt\ncp", bez)
}

func TestEncodeComponents(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.bez")
	defer teardown()
	//
	base := outline.New()
	base.AddContour(pt(0, 0, ln), pt(10, 0, ln), pt(10, 10, ln))
	middle := outline.New()
	middle.AddComponent("base", outline.Offset(100, 0))
	top := outline.New()
	top.AddComponent("middle", outline.Matrix(2, 0, 0, 2, 0, 0))
	r := outline.MapResolver{"base": base, "middle": middle}
	bez, err := Encode(top, r, Options{})
	require.NoError(t, err)
	// child offset first, then parent scale
	assert.Equal(t, "200 0 mt\n220 0 dt\n220 20 dt\ncp", bez)
	//
	_, err = Encode(top, outline.MapResolver{}, Options{})
	assert.Equal(t, core.EMISSING, core.Code(err))
}

func chain(depth int) (*outline.Outline, outline.MapResolver) {
	r := outline.MapResolver{}
	leaf := outline.New()
	leaf.AddContour(pt(0, 0, ln), pt(1, 0, ln), pt(1, 1, ln))
	r[fmt.Sprintf("g%d", depth)] = leaf
	for i := depth - 1; i >= 1; i-- {
		o := outline.New()
		o.AddComponent(fmt.Sprintf("g%d", i+1), outline.Offset(1, 0))
		r[fmt.Sprintf("g%d", i)] = o
	}
	top := outline.New()
	top.AddComponent("g1", outline.Identity)
	return top, r
}

func TestComponentDepthLimit(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.bez")
	defer teardown()
	//
	top, r := chain(10)
	bez, err := Encode(top, r, Options{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(bez, "9 0 mt"))
	top, r = chain(11)
	_, err = Encode(top, r, Options{})
	require.Error(t, err)
	assert.Equal(t, core.EFORMAT, core.Code(err))
	//
	cycle := outline.New()
	cycle.AddComponent("cycle", outline.Identity)
	_, err = Encode(cycle, outline.MapResolver{"cycle": cycle}, Options{})
	assert.Equal(t, core.EFORMAT, core.Code(err))
}

func TestEncodeGlyphFrame(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.bez")
	defer teardown()
	//
	o := outline.New()
	o.AddContour(pt(0, 0, ln), pt(10, 0, ln), pt(10, 10, ln))
	bez, err := EncodeGlyph("A", o, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, "% A\nsc\n0 0 mt\n10 0 dt\n10 10 dt\ncp\ned\n", bez)
}

func TestRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.bez")
	defer teardown()
	//
	o := outline.New()
	o.AddContour(pt(0, 0, ln), pt(500, 0, ln), pt(500, 700, ln), pt(0, 700, ln))
	o.AddContour(pt(100, 100, on), pt(150, 100, off), pt(200, 150, off), pt(200, 200, on),
		pt(200, 250, off), pt(150, 300, off), pt(100, 300, on), pt(50, 250, off), pt(50, 150, off))
	o.AddContour(pt(1, 1, mv)) // dropped
	bez, err := Encode(o, nil, Options{})
	require.NoError(t, err)
	dec, _, err := Decode(bez, Options{})
	require.NoError(t, err)
	cs := dec.Contours()
	require.Len(t, cs, 2)
	assert.Equal(t, o.Contours()[0].Points, cs[0].Points)
	assert.Equal(t, o.Contours()[1].Points, cs[1].Points)
}

func TestDecodeHints(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.bez")
	defer teardown()
	//
	bez := `% A
sc
0 20 rb
10 30 ry
0 0 mt
100 0 dt
snc
0 25 rb
100 100 dt
0 100 dt
cp
ed
`
	dec, hints, err := Decode(bez, Options{})
	require.NoError(t, err)
	require.NotNil(t, hints)
	require.Len(t, hints.HintSets, 2)
	assert.Equal(t, HintSet{PointTag: "hintSet0000", Stems: []string{"hstem 0 20", "vstem 10 30"}}, hints.HintSets[0])
	assert.Equal(t, HintSet{PointTag: "hintSet0002", Stems: []string{"hstem 0 25"}}, hints.HintSets[1])
	pts := dec.Contours()[0].Points
	assert.Equal(t, "hintSet0000", pts[0].Name)
	assert.Equal(t, "hintSet0002", pts[2].Name)
	assert.Nil(t, hints.FlexList)
}

func TestDecodeInitialHintSubstitution(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.bez")
	defer teardown()
	//
	bez := "sc snc 0 20 rb 0 0 mt 100 0 dt 100 100 dt cp ed"
	_, hints, err := Decode(bez, Options{})
	require.NoError(t, err)
	require.Len(t, hints.HintSets, 1, "snc before first point replaces the initial mask")
	assert.Equal(t, "hintSet0000", hints.HintSets[0].PointTag)
}

func TestDecodeCounterHints(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.bez")
	defer teardown()
	//
	bez := "sc 0 10 ry 100 10 rm 200 10 rm 300 10 rm 0 0 mt 100 0 dt 100 100 dt cp ed"
	_, hints, err := Decode(bez, Options{})
	require.NoError(t, err)
	// counter hints suppress the plain vertical stem
	assert.Equal(t, []string{"vstem3 100 10 200 10 300 10"}, hints.HintSets[0].Stems)
}

func TestDecodeHorizontalCounterHints(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.bez")
	defer teardown()
	//
	cases := []struct {
		bez   string
		stems []string
	}{
		{ // one group: plain horizontal stems are suppressed, vertical stay
			"sc 0 5 rb 20 30 ry 0 10 rv 50 10 rv 100 10 rv 0 0 mt 100 0 dt 100 100 dt cp ed",
			[]string{"hstem3 0 10 50 10 100 10", "vstem 20 30"},
		},
		{ // two groups, sorted by position; an incomplete group is ignored
			"sc 200 10 rv 250 10 rv 300 10 rv 0 10 rv 50 10 rv 100 10 rv 400 10 rv 0 0 mt 100 0 dt cp ed",
			[]string{"hstem3 0 10 50 10 100 10 200 10 250 10 300 10"},
		},
	}
	for i, c := range cases {
		_, hints, err := Decode(c.bez, Options{})
		require.NoError(t, err, "case %d", i)
		require.NotNil(t, hints, "case %d", i)
		require.Len(t, hints.HintSets, 1, "case %d", i)
		assert.Equal(t, c.stems, hints.HintSets[0].Stems, "case %d", i)
	}
}

func TestEncodeDropsStrayOffCurves(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.bez")
	defer teardown()
	//
	cases := []struct {
		points []outline.Point
		bez    string
	}{
		{ // off-curve followed by a line point
			[]outline.Point{pt(0, 0, ln), pt(5, 5, off), pt(10, 0, ln), pt(10, 10, ln)},
			"0 0 mt\n10 0 dt\n10 10 dt\ncp",
		},
		{ // two off-curves followed by a move
			[]outline.Point{pt(0, 0, ln), pt(5, 5, off), pt(6, 6, off), pt(10, 0, mv), pt(10, 10, ln)},
			"0 0 mt\n10 0 mt\n10 10 dt\ncp",
		},
		{ // a curve after a dropped off-curve gets only its own control points
			[]outline.Point{pt(0, 0, ln), pt(1, 1, off), pt(10, 0, ln),
				pt(20, 0, off), pt(20, 10, off), pt(10, 10, on)},
			"0 0 mt\n10 0 dt\n20 0 20 10 10 10 ct\ncp",
		},
	}
	for i, c := range cases {
		o := outline.New()
		o.AddContour(c.points...)
		bez, err := Encode(o, nil, Options{})
		require.NoError(t, err, "case %d", i)
		assert.Equal(t, c.bez, bez, "case %d", i)
		for _, op := range strings.Split(bez, "\n") {
			f := strings.Fields(op)
			switch f[len(f)-1] {
			case "mt", "dt":
				assert.Len(t, f, 3, "case %d: %q", i, op)
			}
		}
	}
}

func TestDecodeFlex(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.bez")
	defer teardown()
	//
	bez := `sc
0 0 mt
100 0 dt
snc
0 10 rb
preflx1
100 50 rmt
preflx2a
110 0 120 10 130 10 140 10 150 0 160 0 flxa
160 100 dt
cp
ed`
	dec, hints, err := Decode(bez, Options{})
	require.NoError(t, err)
	require.NotNil(t, hints)
	assert.Equal(t, []string{"flexCurve0002"}, hints.FlexList)
	require.Len(t, hints.HintSets, 2)
	assert.Equal(t, "flexCurve0002", hints.HintSets[1].PointTag, "hint mask re-anchored to flex point")
	pts := dec.Contours()[0].Points
	require.Len(t, pts, 9)
	assert.Equal(t, "flexCurve0002", pts[2].Name)
	assert.Equal(t, pt(130, 10, on), pts[4])
}

func TestDecodeMoveSequences(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.bez")
	defer teardown()
	//
	bez := "sc 5 5 mt 0 0 mt 10 0 dt 10 10 dt cp 20 20 mt ed"
	dec, _, err := Decode(bez, Options{})
	require.NoError(t, err)
	cs := dec.Contours()
	require.Len(t, cs, 1)
	assert.Equal(t, pt(0, 0, ln), cs[0].Points[0])
	//
	dec, _, err = Decode("sc 10 10 mt 5 0 rmt 0 10 rmt 20 20 dt ed", Options{})
	require.NoError(t, err)
	cs = dec.Contours()
	require.Len(t, cs, 1)
	assert.Equal(t, pt(15, 20, ln), cs[0].Points[0])
}

func TestDecodeDivAndDecimals(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.bez")
	defer teardown()
	//
	bez := "sc 1 2 div 0 mt 101 2 div 0 dt 10 10 dt cp ed"
	dec, _, err := Decode(bez, Options{AllowDecimals: true})
	require.NoError(t, err)
	assert.Equal(t, 0.5, dec.Contours()[0].Points[0].X)
	assert.Equal(t, 50.5, dec.Contours()[0].Points[1].X)
	dec, _, err = Decode(bez, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, dec.Contours()[0].Points[0].X)
	assert.Equal(t, 50.0, dec.Contours()[0].Points[1].X)
}

func TestDecodeErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.bez")
	defer teardown()
	//
	for _, bez := range []string{
		"sc 0 0 mt 10 10 lineto ed",
		"sc 0 mt ed",
		"sc 10 10 dt ed",
		"sc 0 0 mt 1 2 3 4 5 ct ed",
	} {
		_, _, err := Decode(bez, Options{})
		require.Error(t, err, bez)
		assert.Equal(t, core.EPARSE, core.Code(err), bez)
	}
}

func TestHintTruncation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.bez")
	defer teardown()
	//
	m := NewHintMask(0)
	for i := 30; i > 0; i-- {
		m.H = append(m.H, Stem{Pos: float64(i * 10), Width: 5})
	}
	hs := m.HintSet()
	require.Len(t, hs.Stems, HintLimit)
	assert.Equal(t, "hstem 10 5", hs.Stems[0])
	assert.Equal(t, fmt.Sprintf("hstem %d 5", HintLimit*10), hs.Stems[HintLimit-1])
	//
	m = NewHintMask(3)
	m.V = []Stem{{Pos: 7.5, Width: 2}, {Pos: 7.5, Width: 1}}
	assert.Equal(t, []string{"vstem 7.5 1", "vstem 7.5 2"}, m.HintSet().Stems)
	assert.Equal(t, "hintSet0003", m.HintSet().PointTag)
}

func TestOperatorTokens(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.bez")
	defer teardown()
	//
	for _, tok := range []string{"mt", "rmt", "dt", "ct", "cp", "sc", "ed", "snc", "rb", "ry",
		"rm", "rv", "preflx1", "preflx2a", "flxa", "div", "beginsubr", "endsubr", "newcolors", "enc"} {
		op, ok := LookupOperator(tok)
		assert.True(t, ok, tok)
		assert.Equal(t, tok, op.String())
	}
	_, ok := LookupOperator("rrcurveto")
	assert.False(t, ok)
}
