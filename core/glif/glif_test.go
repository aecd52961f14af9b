package glif

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/npillmayer/glifbez/core"
	"github.com/npillmayer/glifbez/core/bez"
	"github.com/npillmayer/glifbez/core/outline"
	"github.com/npillmayer/glifbez/core/plist"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const glyphA = `<?xml version="1.0" encoding="UTF-8"?>
<glyph name="Aacute" format="2">
  <advance width="560"/>
  <unicode hex="00C1"/>
  <note>an accented glyph</note>
  <anchor x="280" y="700" name="top"/>
  <outline>
    <contour>
      <point x="0" y="0" type="line" name="hintSet0000"/>
      <point x="250.5" y="700" type="line" smooth="yes"/>
      <point x="500" y="0" type="line"/>
    </contour>
    <component base="acute" xOffset="100" yOffset="50"/>
    <contour identifier="c2">
      <point x="10" y="10" type="curve"/>
      <point x="20" y="10"/>
      <point x="20" y="20"/>
    </contour>
  </outline>
  <lib>
    <dict>
      <key>com.example.flag</key>
      <true/>
      <key>com.adobe.type.autohint</key>
      <string>old</string>
    </dict>
  </lib>
</glyph>
`

func TestReadGlyph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.glif")
	defer teardown()
	//
	g, err := Unmarshal([]byte(glyphA))
	require.NoError(t, err)
	assert.Equal(t, "Aacute", g.Name)
	assert.Equal(t, 560.0, g.Width())
	assert.Equal(t, []string{"00C1"}, g.Unicodes)
	require.NotNil(t, g.Outline)
	require.Len(t, g.Outline.Elements, 3)
	c, ok := g.Outline.Elements[0].(*outline.Contour)
	require.True(t, ok)
	assert.Equal(t, outline.Point{X: 250.5, Y: 700, Kind: outline.Line, Smooth: true}, c.Points[1])
	assert.Equal(t, "hintSet0000", c.Points[0].Name)
	comp, ok := g.Outline.Elements[1].(*outline.Component)
	require.True(t, ok)
	assert.Equal(t, "acute", comp.Base)
	assert.True(t, comp.Transform.IsOffsetOnly)
	assert.False(t, comp.Transform.IsDefault)
	c, ok = g.Outline.Elements[2].(*outline.Contour)
	require.True(t, ok)
	assert.Equal(t, "c2", c.Identifier)
	assert.Equal(t, outline.OffCurve, c.Points[2].Kind)
	require.NotNil(t, g.Lib)
	assert.Equal(t, []string{"com.example.flag", HintKeyV1}, g.Lib.Keys())
}

func TestWriteGlyphPreservesParts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.glif")
	defer teardown()
	//
	g, err := Unmarshal([]byte(glyphA))
	require.NoError(t, err)
	data, err := Marshal(g)
	require.NoError(t, err)
	doc := string(data)
	t.Log(doc)
	assert.Contains(t, doc, "<note>an accented glyph</note>")
	assert.Contains(t, doc, `<component base="acute" xOffset="100" yOffset="50">`)
	assert.True(t, strings.Index(doc, "<note>") < strings.Index(doc, "<outline>"))
	assert.True(t, strings.Index(doc, "<anchor") < strings.Index(doc, "<outline>"))
	//
	again, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, g.Outline, again.Outline)
	assert.Equal(t, g.Lib.Keys(), again.Lib.Keys())
	assert.Equal(t, g.Advance, again.Advance)
	assert.Equal(t, g.Unicodes, again.Unicodes)
}

func TestInsertMissingParts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.glif")
	defer teardown()
	//
	g, err := Unmarshal([]byte(`<glyph name="space" format="2"><note>n</note><lib><dict/></lib></glyph>`))
	require.NoError(t, err)
	assert.Nil(t, g.Outline)
	assert.Equal(t, float64(DefaultWidth), g.Width())
	g.Outline = outline.New()
	g.Outline.AddContour(outline.Pt(0, 0, outline.Line), outline.Pt(1, 1, outline.Line))
	data, err := Marshal(g)
	require.NoError(t, err)
	doc := string(data)
	assert.True(t, strings.Index(doc, "<outline>") < strings.Index(doc, "<lib>"), "outline goes before lib")
	assert.True(t, strings.Index(doc, "<note>") < strings.Index(doc, "<outline>"))
}

func TestMalformedGlyph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.glif")
	defer teardown()
	//
	for _, doc := range []string{
		`<glyph name="a"><outline><contour><point y="0" type="line"/></contour></outline></glyph>`,
		`<glyph name="a"><outline><contour><point x="zero" y="0"/></contour></outline></glyph>`,
		`<glyph name="a"><outline><contour><point x="0" y="0" type="spline"/></contour></outline></glyph>`,
		`<glyph name="a"><outline><component xOffset="10"/></outline></glyph>`,
		`<glyph name="a"><outline>`,
		`<font/>`,
	} {
		_, err := Unmarshal([]byte(doc))
		require.Error(t, err, doc)
		assert.Equal(t, core.EFORMAT, core.Code(err), doc)
	}
}

func TestHintRecord(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.glif")
	defer teardown()
	//
	g, err := Unmarshal([]byte(glyphA))
	require.NoError(t, err)
	hd, err := g.HintData()
	require.NoError(t, err)
	assert.Nil(t, hd)
	rec := &bez.HintData{
		ID: "w560l00",
		HintSets: []bez.HintSet{
			{PointTag: "hintSet0000", Stems: []string{"hstem 0 20", "vstem 10 30"}},
			{PointTag: "hintSet0002", Stems: []string{}},
		},
		FlexList: []string{"flexCurve0003"},
	}
	g.SetHintData(rec)
	assert.Equal(t, []string{"com.example.flag", HintKey}, g.Lib.Keys(), "outdated record is removed")
	//
	path := filepath.Join(t.TempDir(), "A_acute.glif")
	require.NoError(t, WriteFile(path, g))
	again, err := ReadFile(path)
	require.NoError(t, err)
	hd, err = again.HintData()
	require.NoError(t, err)
	assert.Equal(t, rec, hd)
	//
	g.SetHintData(&bez.HintData{ID: "x", HintSets: []bez.HintSet{{PointTag: "hintSet0000", Stems: []string{}}}})
	v, _ := g.Lib.Get(HintKey)
	assert.Equal(t, []string{"id", "hintSetList"}, v.(*plist.Dict).Keys())
}

func TestHintRecordCreatesLib(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.glif")
	defer teardown()
	//
	g := &Glyph{Name: "a"}
	g.SetHintData(&bez.HintData{ID: "id"})
	require.NotNil(t, g.Lib)
	data, err := Marshal(g)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<key>com.adobe.type.autohint.v2</key>")
	//
	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.glif"))
	assert.Equal(t, core.EMISSING, core.Code(err))
}

func TestClone(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.glif")
	defer teardown()
	//
	g, err := Unmarshal([]byte(glyphA))
	require.NoError(t, err)
	c := g.Clone()
	c.SetHintData(&bez.HintData{ID: "id"})
	c.Advance.Width = 1
	assert.Equal(t, []string{"com.example.flag", HintKeyV1}, g.Lib.Keys())
	assert.Equal(t, 560.0, g.Width())
}
