package ufo

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npillmayer/glifbez/core"
	"github.com/npillmayer/glifbez/core/glif"
	"github.com/npillmayer/glifbez/core/outline"
	"github.com/npillmayer/glifbez/core/plist"
	"github.com/npillmayer/glifbez/engine/hashmap"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const glyphA = `<?xml version="1.0" encoding="UTF-8"?>
<glyph name="A" format="2">
  <advance width="500"/>
  <unicode hex="0041"/>
  <outline>
    <contour>
      <point x="0" y="0" type="line"/>
      <point x="500" y="0" type="line"/>
      <point x="500" y="700" type="line"/>
      <point x="0" y="700" type="line"/>
    </contour>
  </outline>
</glyph>
`

const glyphAacute = `<?xml version="1.0" encoding="UTF-8"?>
<glyph name="Aacute" format="2">
  <advance width="500"/>
  <outline>
    <component base="A" xOffset="10"/>
  </outline>
</glyph>
`

const glyphB = `<?xml version="1.0" encoding="UTF-8"?>
<glyph name="B" format="2">
  <advance width="400"/>
  <outline>
    <contour>
      <point x="0" y="0" type="line"/>
      <point x="400" y="0" type="line"/>
      <point x="200" y="600" type="line"/>
    </contour>
  </outline>
</glyph>
`

const bezA = "% A\nsc\n0 0 mt\n500 0 dt\n500 700 dt\n0 700 dt\ncp\ned\n"

// makeUFO creates a UFO font folder with glyphs A, Aacute and B.
func makeUFO(t *testing.T, order ...string) string {
	dir := filepath.Join(t.TempDir(), "Test.ufo")
	contents := &plist.Dict{}
	for _, g := range []struct{ name, glif string }{
		{"A", glyphA}, {"Aacute", glyphAacute}, {"B", glyphB},
	} {
		file := GlyphFileName(g.name, map[string]bool{})
		contents.Set(g.name, plist.String(file))
		writeFile(t, filepath.Join(dir, DefaultLayerDir, file), g.glif)
	}
	require.NoError(t, plist.WriteFile(filepath.Join(dir, DefaultLayerDir, ContentsFile), contents))
	if len(order) > 0 {
		lib := plist.NewDict(plist.Entry{Key: GlyphOrderKey, Value: plist.Strings(order...)})
		require.NoError(t, plist.WriteFile(filepath.Join(dir, LibFile), lib))
	}
	return dir
}

func writeFile(t *testing.T, path, data string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
}

func editGlyphA(t *testing.T, ufo string) {
	writeFile(t, filepath.Join(ufo, DefaultLayerDir, "A_.glif"),
		strings.Replace(glyphA, `width="500"`, `width="600"`, 1))
}

func open(t *testing.T, ufo string, conf testconfig.Conf) *Font {
	f, err := Open(ufo, conf)
	require.NoError(t, err)
	return f
}

func TestConfig(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.ufo")
	defer teardown()
	//
	c := ConfigFrom(testconfig.Conf{
		"ufo.processed-layer": "true",
		"ufo.write-default":   "true",
		"ufo.required-tools":  "hint, check,",
	})
	assert.True(t, c.HashMap)
	assert.True(t, c.WriteDefault)
	assert.False(t, c.UseProcessedLayer, "writing to the default layer reads from it, too")
	assert.Equal(t, []string{"hint", "check"}, c.RequiredTools)
	c = ConfigFrom(testconfig.Conf{"ufo.hashmap": "false", "ufo.decimals": "yes"})
	assert.False(t, c.HashMap)
	assert.False(t, c.Decimals)
}

func TestGlyphFileName(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.ufo")
	defer teardown()
	//
	none := map[string]bool{}
	assert.Equal(t, "a.glif", GlyphFileName("a", none))
	assert.Equal(t, "A_.glif", GlyphFileName("A", none))
	assert.Equal(t, "A_E_.glif", GlyphFileName("AE", none))
	assert.Equal(t, "_notdef.glif", GlyphFileName(".notdef", none))
	assert.Equal(t, "a_b.glif", GlyphFileName("a/b", none))
	assert.Equal(t, "_con.glif", GlyphFileName("con", none))
	assert.Equal(t, "a._aux.glif", GlyphFileName("a.aux", none))
	taken := map[string]bool{"a.glif": true}
	assert.Equal(t, "a000000000000001.glif", GlyphFileName("a", taken))
	taken = map[string]bool{foldName("\u00e9.glif"): true}
	assert.Equal(t, "e\u0301000000000000001.glif", GlyphFileName("e\u0301", taken),
		"decomposed names clash with composed ones")
	long := strings.Repeat("x", 300)
	assert.Len(t, GlyphFileName(long, none), maxFileName)
}

func TestGlyphOrder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.ufo")
	defer teardown()
	//
	f := open(t, makeUFO(t, "B", "missing", "A"), nil)
	assert.Equal(t, []string{"B", "A", "Aacute"}, f.GlyphNames())
	id, err := f.GlyphID("Aacute")
	require.NoError(t, err)
	assert.Equal(t, 2, id)
	_, err = f.GlyphID("missing")
	assert.Equal(t, core.EMISSING, core.Code(err))
}

func TestNotAFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.ufo")
	defer teardown()
	//
	_, err := Open(t.TempDir(), nil)
	assert.Equal(t, core.EMISSING, core.Code(err))
}

func TestConvertToBez(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.ufo")
	defer teardown()
	//
	f := open(t, makeUFO(t), nil)
	bez, width, skip, err := f.ConvertToBez("A", "check")
	require.NoError(t, err)
	assert.False(t, skip)
	assert.Equal(t, 500.0, width)
	assert.Equal(t, bezA, bez)
	bez, _, _, err = f.ConvertToBez("Aacute", "check")
	require.NoError(t, err)
	assert.Equal(t, "% Aacute\nsc\n10 0 mt\n510 0 dt\n510 700 dt\n10 700 dt\ncp\ned\n", bez)
	_, _, _, err = f.ConvertToBez("C", "check")
	assert.Equal(t, core.EMISSING, core.Code(err))
}

func TestSkipUnchangedGlyph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.ufo")
	defer teardown()
	//
	ufo := makeUFO(t)
	f := open(t, ufo, nil)
	bez, _, _, err := f.ConvertToBez("A", "check")
	require.NoError(t, err)
	require.NoError(t, f.UpdateFromBez("A", "check", bez))
	assert.Equal(t, []string{"A"}, f.Staged())
	require.NoError(t, f.Save())
	assert.FileExists(t, hashmap.Path(ufo))
	assert.FileExists(t, filepath.Join(ufo, ProcessedLayerDir, "A_.glif"))
	//
	f = open(t, ufo, nil)
	_, _, skip, err := f.ConvertToBez("A", "check")
	require.NoError(t, err)
	assert.True(t, skip)
	assert.False(t, f.DeletedGlyph())
	// another tool reading the source layer makes the processed glyph stale
	_, _, skip, err = f.ConvertToBez("A", "other")
	require.NoError(t, err)
	assert.False(t, skip)
	assert.True(t, f.DeletedGlyph())
	assert.NoFileExists(t, filepath.Join(ufo, ProcessedLayerDir, "A_.glif"))
	e, ok := f.Cache().Entry("A")
	require.True(t, ok)
	assert.Equal(t, []string{"other"}, e.History)
}

func TestEditedSourceDeletesProcessedGlyph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.ufo")
	defer teardown()
	//
	ufo := makeUFO(t)
	f := open(t, ufo, nil)
	require.NoError(t, f.Process("check", EngineFunc(func(name, bez string) (string, error) {
		return bez, nil
	})))
	require.NoError(t, f.Save())
	editGlyphA(t, ufo)
	//
	f = open(t, ufo, nil)
	_, width, skip, err := f.ConvertToBez("A", "check")
	require.NoError(t, err)
	assert.False(t, skip)
	assert.Equal(t, 600.0, width)
	assert.True(t, f.DeletedGlyph())
	_, _, skip, err = f.ConvertToBez("B", "check")
	require.NoError(t, err)
	assert.True(t, skip)
	require.NoError(t, f.Close())
	//
	f = open(t, ufo, nil)
	assert.False(t, f.processed.Has("A"))
	assert.True(t, f.processed.Has("B"))
}

func TestRequiredTool(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.ufo")
	defer teardown()
	//
	conf := testconfig.Conf{
		"ufo.processed-layer": "true",
		"ufo.required-tools":  "hint",
	}
	ufo := makeUFO(t)
	f := open(t, ufo, conf)
	bez, _, _, err := f.ConvertToBez("A", "hint")
	require.NoError(t, err)
	require.NoError(t, f.UpdateFromBez("A", "hint", bez))
	require.NoError(t, f.Save())
	editGlyphA(t, ufo)
	//
	f = open(t, ufo, conf)
	_, _, skip, err := f.ConvertToBez("A", "check")
	assert.True(t, skip)
	require.Error(t, err)
	assert.Equal(t, core.EREQUIRED, core.Code(err))
	assert.Equal(t, "A", core.GlyphName(err))
}

func TestProcessedLayerIsRead(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.ufo")
	defer teardown()
	//
	conf := testconfig.Conf{"ufo.processed-layer": "true"}
	ufo := makeUFO(t)
	f := open(t, ufo, conf)
	triangle := "sc\n0 0 mt\n100 0 dt\n50 80 dt\ncp\ned\n"
	_, _, _, err := f.ConvertToBez("A", "first")
	require.NoError(t, err)
	require.NoError(t, f.UpdateFromBez("A", "first", triangle))
	require.NoError(t, f.Save())
	//
	f = open(t, ufo, conf)
	bez, _, skip, err := f.ConvertToBez("A", "second")
	require.NoError(t, err)
	assert.False(t, skip)
	assert.Equal(t, "% A\n"+triangle, bez)
	// components resolve to the processed base glyph
	bez, _, _, err = f.ConvertToBez("Aacute", "second")
	require.NoError(t, err)
	assert.Contains(t, bez, "110 0 dt")
	e, _ := f.Cache().Entry("A")
	assert.Equal(t, []string{"first", "second"}, e.History)
}

func TestHintsAreStored(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.ufo")
	defer teardown()
	//
	ufo := makeUFO(t)
	f := open(t, ufo, nil)
	_, _, _, err := f.ConvertToBez("A", "hint")
	require.NoError(t, err)
	hinted := "% A\nsc\n0 700 rb\n0 500 ry\n0 0 mt\n500 0 dt\n500 700 dt\n0 700 dt\ncp\ned\n"
	require.NoError(t, f.UpdateHintsFromBez("A", "hint", hinted))
	require.NoError(t, f.Save())
	g, err := glif.ReadFile(filepath.Join(ufo, ProcessedLayerDir, "A_.glif"))
	require.NoError(t, err)
	hints, err := g.HintData()
	require.NoError(t, err)
	require.NotNil(t, hints)
	assert.Equal(t, "w500l00l5000l500700l0700", hints.ID)
	require.Len(t, hints.HintSets, 1)
	assert.Equal(t, []string{"hstem 0 700", "vstem 0 500"}, hints.HintSets[0].Stems)
	assert.Equal(t, []string{"0041"}, g.Unicodes)
	// source glyph is untouched
	src, err := glif.ReadFile(filepath.Join(ufo, DefaultLayerDir, "A_.glif"))
	require.NoError(t, err)
	assert.Nil(t, src.Lib)
}

func TestLayerContents(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.ufo")
	defer teardown()
	//
	ufo := makeUFO(t)
	f := open(t, ufo, nil)
	bez, _, _, err := f.ConvertToBez("B", "check")
	require.NoError(t, err)
	require.NoError(t, f.UpdateFromBez("B", "check", bez))
	require.NoError(t, f.Save())
	v, err := plist.ReadFile(filepath.Join(ufo, LayerContentsFile))
	require.NoError(t, err)
	assert.Equal(t, plist.Array{
		plist.Strings(DefaultLayerName, DefaultLayerDir),
		plist.Strings(ProcessedLayerName, ProcessedLayerDir),
	}, v)
	contents, err := plist.ReadDict(filepath.Join(ufo, ProcessedLayerDir, ContentsFile))
	require.NoError(t, err)
	file, _ := contents.String("B")
	assert.Equal(t, "B_.glif", file)
}

func TestWriteDefaultLayer(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.ufo")
	defer teardown()
	//
	ufo := makeUFO(t)
	f := open(t, ufo, testconfig.Conf{"ufo.write-default": "true", "ufo.hashmap": "false"})
	require.NoError(t, f.UpdateFromBez("A", "check", "sc\n0 0 mt\n100 0 dt\n50 80 dt\ncp\ned\n"))
	require.NoError(t, f.Save())
	assert.NoDirExists(t, filepath.Join(ufo, ProcessedLayerDir))
	assert.NoFileExists(t, hashmap.Path(ufo))
	g, err := glif.ReadFile(filepath.Join(ufo, DefaultLayerDir, "A_.glif"))
	require.NoError(t, err)
	require.Len(t, g.Outline.Contours(), 1)
	assert.Equal(t, outline.Pt(50, 80, outline.Line), g.Outline.Contours()[0].Points[2])
	assert.Equal(t, 500.0, g.Width())
}

func TestBatchErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.ufo")
	defer teardown()
	//
	f := open(t, makeUFO(t), nil)
	err := f.Process("check", EngineFunc(func(name, bez string) (string, error) {
		if name == "B" {
			return "", core.Error(core.EINVALID, "cannot process")
		}
		return bez, nil
	}))
	require.Error(t, err)
	var batch *BatchError
	require.True(t, errors.As(err, &batch))
	assert.Equal(t, []string{"B"}, batch.Glyphs())
	assert.Equal(t, core.EINVALID, core.Code(batch.Errors[0]))
	assert.Equal(t, []string{"A", "Aacute"}, f.Staged())
}

func TestNewerCacheVersion(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.ufo")
	defer teardown()
	//
	ufo := makeUFO(t)
	writeFile(t, hashmap.Path(ufo), "{\n'hashMapVersion': (2, 0),\n}\n")
	_, err := Open(ufo, nil)
	assert.Equal(t, core.EVERSION, core.Code(err))
}

func TestExecEngine(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glifbez.ufo")
	defer teardown()
	//
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("no 'cat' command")
	}
	out, err := ExecEngine{Command: "cat"}.Process("A", bezA)
	require.NoError(t, err)
	assert.Equal(t, bezA, out)
	_, err = ExecEngine{Command: "cat", Args: []string{"/no/such/{glyph}"}}.Process("A", bezA)
	require.Error(t, err)
	assert.Contains(t, core.UserMessage(err), "/no/such/A")
}
