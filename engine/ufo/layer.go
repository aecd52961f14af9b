package ufo

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/npillmayer/glifbez/core"
	"github.com/npillmayer/glifbez/core/fileio"
	"github.com/npillmayer/glifbez/core/glif"
	"github.com/npillmayer/glifbez/core/plist"
	"golang.org/x/text/unicode/norm"
)

// Layer is a glyph layer of a UFO font: a folder of GLIF files together
// with its contents.plist, which maps glyph names to file names.
type Layer struct {
	Name     string      // layer name in layercontents.plist
	Dir      string      // folder name, relative to the UFO folder
	path     string      // folder path
	contents *plist.Dict // glyph name → file name
	files    map[string]bool
	changed  bool
}

// OpenLayer reads the contents of a layer folder. A layer folder which does
// not exist results in an empty layer.
func OpenLayer(ufoPath, name, dir string) (*Layer, error) {
	l := &Layer{
		Name:     name,
		Dir:      dir,
		path:     filepath.Join(ufoPath, dir),
		contents: &plist.Dict{},
		files:    make(map[string]bool),
	}
	if !fileio.Exists(l.path) {
		tracer().Debugf("layer '%s' has no folder %s", name, l.path)
		return l, nil
	}
	contents, err := plist.ReadDict(filepath.Join(l.path, ContentsFile))
	if err != nil {
		if core.Code(err) == core.EMISSING {
			return l, nil
		}
		return nil, err
	}
	for _, e := range contents.Entries() {
		file, ok := e.Value.(plist.String)
		if !ok {
			return nil, core.Error(core.EFORMAT, "layer '%s': file name of glyph '%s' is not a string",
				name, e.Key)
		}
		l.contents.Set(e.Key, file)
		l.files[foldName(string(file))] = true
	}
	tracer().Debugf("layer '%s' has %d glyphs", name, l.contents.Len())
	return l, nil
}

// Exists is true if the layer's folder exists.
func (l *Layer) Exists() bool {
	return fileio.Exists(l.path)
}

// Names returns the names of the glyphs in the layer, in contents.plist
// order.
func (l *Layer) Names() []string {
	return l.contents.Keys()
}

// FileName returns the file name of a glyph in the layer.
func (l *Layer) FileName(glyphName string) (string, bool) {
	return l.contents.String(glyphName)
}

// GlyphPath returns the path of a glyph's GLIF file, or "" if the glyph is
// not listed in the layer.
func (l *Layer) GlyphPath(glyphName string) string {
	file, ok := l.FileName(glyphName)
	if !ok {
		return ""
	}
	return filepath.Join(l.path, file)
}

// Has is true if the glyph is listed in the layer and its file exists.
func (l *Layer) Has(glyphName string) bool {
	path := l.GlyphPath(glyphName)
	return path != "" && fileio.Exists(path)
}

// ReadGlyph reads a glyph of the layer.
func (l *Layer) ReadGlyph(glyphName string) (*glif.Glyph, error) {
	path := l.GlyphPath(glyphName)
	if path == "" {
		return nil, core.Error(core.EMISSING, "glyph '%s' not found in layer '%s'", glyphName, l.Name)
	}
	return glif.ReadFile(path)
}

// WriteGlyph writes a glyph to the layer. A glyph already listed keeps its
// file name. A new glyph is written to file name fileName, if it is given
// and free, or to a file name derived from the glyph name.
func (l *Layer) WriteGlyph(glyphName string, g *glif.Glyph, fileName string) error {
	file, ok := l.FileName(glyphName)
	if !ok {
		if fileName == "" || l.files[foldName(fileName)] {
			fileName = GlyphFileName(glyphName, l.files)
		}
		file = fileName
	}
	if err := glif.WriteFile(filepath.Join(l.path, file), g); err != nil {
		return err
	}
	if !ok {
		l.contents.Set(glyphName, plist.String(file))
		l.files[foldName(file)] = true
		l.changed = true
	}
	return nil
}

// DeleteGlyph removes a glyph from the layer. It reports if a glyph file
// has been deleted.
func (l *Layer) DeleteGlyph(glyphName string) (bool, error) {
	file, ok := l.FileName(glyphName)
	if !ok {
		return false, nil
	}
	l.contents.Delete(glyphName)
	delete(l.files, foldName(file))
	l.changed = true
	return fileio.Remove(filepath.Join(l.path, file))
}

// SaveContents writes the layer's contents.plist, if the layer has
// changed.
func (l *Layer) SaveContents() error {
	if !l.changed {
		return nil
	}
	if err := plist.WriteFile(filepath.Join(l.path, ContentsFile), l.contents); err != nil {
		return err
	}
	l.changed = false
	return nil
}

// --- File names ------------------------------------------------------------

const (
	glifSuffix    = ".glif"
	maxFileName   = 255
	clashDigits   = 15
	illegalInName = "\"*+/:<>?[\\]|"
)

var reservedFileNames = map[string]bool{
	"con": true, "prn": true, "aux": true, "clock$": true, "nul": true,
	"com1": true, "com2": true, "com3": true, "com4": true,
	"com5": true, "com6": true, "com7": true, "com8": true, "com9": true,
	"lpt1": true, "lpt2": true, "lpt3": true, "lpt4": true,
}

// foldName is the key for case-insensitive comparison of file names.
func foldName(file string) string {
	return strings.ToLower(norm.NFC.String(file))
}

// GlyphFileName derives a GLIF file name from a glyph name, following the
// UFO 3 user-name-to-file-name rules. taken holds the file names already in
// use, folded by foldName; a clashing name gets a numeric suffix.
func GlyphFileName(glyphName string, taken map[string]bool) string {
	var b strings.Builder
	for i, r := range glyphName {
		switch {
		case i == 0 && r == '.':
			b.WriteByte('_')
		case r < 0x20 || r == 0x7f || strings.ContainsRune(illegalInName, r):
			b.WriteByte('_')
		case unicode.IsUpper(r):
			b.WriteRune(r)
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	name := b.String()
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if reservedFileNames[strings.ToLower(p)] {
			parts[i] = "_" + p
		}
	}
	name = truncate(strings.Join(parts, "."), maxFileName-len(glifSuffix))
	file := name + glifSuffix
	if !taken[foldName(file)] {
		return file
	}
	name = truncate(name, maxFileName-len(glifSuffix)-clashDigits)
	for counter := 1; ; counter++ {
		file = fmt.Sprintf("%s%0*d%s", name, clashDigits, counter, glifSuffix)
		if !taken[foldName(file)] {
			return file
		}
	}
}

// truncate shortens s to at most n bytes, without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
