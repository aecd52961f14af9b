package ufo

import (
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/npillmayer/glifbez/core"
	"github.com/npillmayer/glifbez/core/bez"
	"github.com/npillmayer/glifbez/core/glif"
	"github.com/npillmayer/glifbez/core/outline"
	"github.com/npillmayer/glifbez/core/plist"
	"github.com/npillmayer/glifbez/engine/hashmap"
	"github.com/npillmayer/schuko"
)

// Config holds the settings of a Font session.
type Config struct {
	Decimals          bool     // keep fractional coordinates
	HashMap           bool     // use the processed-glyphs hash map
	UseProcessedLayer bool     // read glyphs from the processed layer if present
	WriteDefault      bool     // write results to the default layer
	Force             bool     // process unchanged glyphs
	RequiredTools     []string // see hashmap.Policy
}

// ConfigFrom reads the session settings from a configuration.
// Writing to the default layer implies reading from the default layer.
func ConfigFrom(conf schuko.Configuration) Config {
	c := Config{HashMap: true}
	if conf == nil {
		return c
	}
	c.Decimals = setting(conf, "ufo.decimals", false)
	c.HashMap = setting(conf, "ufo.hashmap", true)
	c.UseProcessedLayer = setting(conf, "ufo.processed-layer", false)
	c.WriteDefault = setting(conf, "ufo.write-default", false)
	c.Force = setting(conf, "ufo.force", false)
	for _, tool := range strings.Split(conf.GetString("ufo.required-tools"), ",") {
		if tool = strings.TrimSpace(tool); tool != "" {
			c.RequiredTools = append(c.RequiredTools, tool)
		}
	}
	if c.WriteDefault {
		c.UseProcessedLayer = false
	}
	return c
}

func setting(conf schuko.Configuration, key string, dflt bool) bool {
	s := conf.GetString(key)
	if s == "" {
		return dflt
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		tracer().Errorf("config[%s] = %q is not a boolean, using %v", key, s, dflt)
		return dflt
	}
	return b
}

// Font is a processing session on a UFO font folder.
//
// Glyphs are read once and kept for the lifetime of the session. Results of
// processing tools are staged and written by Save. A Font may be used from
// several goroutines, as long as each glyph is processed by one goroutine
// only.
type Font struct {
	Path      string
	config    Config
	source    *Layer // default layer
	processed *Layer // processed glyphs layer
	order     []string
	ids       map[string]int
	cache     *hashmap.Cache
	mx        sync.Mutex
	glyphs    map[glyphKey]*glif.Glyph // loaded glyphs, read-only
	staged    *treemap.Map             // glyph name → *glif.Glyph
	deleted   bool
}

type glyphKey struct {
	processed bool
	name      string
}

// Open starts a session on the UFO font at ufoPath. It reads the layers'
// contents, the glyph order and the processed-glyphs hash map. A hash map
// written by a newer program version is an error with code core.EVERSION.
func Open(ufoPath string, conf schuko.Configuration) (*Font, error) {
	config := ConfigFrom(conf)
	f := &Font{
		Path:   ufoPath,
		config: config,
		glyphs: make(map[glyphKey]*glif.Glyph),
		staged: treemap.NewWithStringComparator(),
		cache: hashmap.New(hashmap.Policy{
			Enabled:           config.HashMap,
			UseProcessedLayer: config.UseProcessedLayer,
			RequiredTools:     config.RequiredTools,
			Force:             config.Force,
		}),
	}
	var err error
	if f.source, err = OpenLayer(ufoPath, DefaultLayerName, DefaultLayerDir); err != nil {
		return nil, err
	}
	if !f.source.Exists() {
		return nil, core.Error(core.EMISSING, "%s is not a UFO font: no folder '%s'", ufoPath, DefaultLayerDir)
	}
	if f.processed, err = OpenLayer(ufoPath, ProcessedLayerName, ProcessedLayerDir); err != nil {
		return nil, err
	}
	if err = f.readGlyphOrder(); err != nil {
		return nil, err
	}
	if config.HashMap {
		if err = f.cache.Load(hashmap.Path(ufoPath)); err != nil {
			return nil, err
		}
	}
	tracer().Infof("opened UFO font %s with %d glyphs", ufoPath, len(f.order))
	return f, nil
}

// Config returns the session's settings.
func (f *Font) Config() Config {
	return f.config
}

// Cache returns the session's processed-glyphs hash map.
func (f *Font) Cache() *hashmap.Cache {
	return f.cache
}

// readGlyphOrder collects glyph names: first the ones listed in lib.plist
// under public.glyphOrder, then the remaining ones in contents.plist order.
// Names in the glyph order which are not in the default layer are dropped.
func (f *Font) readGlyphOrder() error {
	f.ids = make(map[string]int)
	add := func(name string) {
		if _, ok := f.ids[name]; ok {
			return
		}
		if _, ok := f.source.FileName(name); !ok {
			tracer().Debugf("glyph order lists '%s', which is not in the font", name)
			return
		}
		f.ids[name] = len(f.order)
		f.order = append(f.order, name)
	}
	lib, err := plist.ReadDict(filepath.Join(f.Path, LibFile))
	if err != nil && core.Code(err) != core.EMISSING {
		return err
	} else if err == nil {
		if names, ok := lib.Strings(GlyphOrderKey); ok {
			for _, name := range names {
				add(name)
			}
		}
	}
	for _, name := range f.source.Names() {
		add(name)
	}
	return nil
}

// GlyphNames returns the names of all glyphs in glyph order.
func (f *Font) GlyphNames() []string {
	return append([]string(nil), f.order...)
}

// GlyphID returns the position of a glyph in the glyph order.
func (f *Font) GlyphID(glyphName string) (int, error) {
	id, ok := f.ids[glyphName]
	if !ok {
		return 0, errNotFound(glyphName)
	}
	return id, nil
}

func errNotFound(glyphName string) error {
	return core.Error(core.EMISSING, "glyph '%s' is not in the font", glyphName)
}

// DeletedGlyph is true if a stale glyph has been deleted from the processed
// layer during the session.
func (f *Font) DeletedGlyph() bool {
	f.mx.Lock()
	defer f.mx.Unlock()
	return f.deleted
}

// --- Reading glyphs --------------------------------------------------------

func (f *Font) loadGlyph(l *Layer, glyphName string) (*glif.Glyph, error) {
	key := glyphKey{processed: l == f.processed, name: glyphName}
	f.mx.Lock()
	g, ok := f.glyphs[key]
	f.mx.Unlock()
	if ok {
		return g, nil
	}
	g, err := l.ReadGlyph(glyphName)
	if err != nil {
		if core.Code(err) == core.EMISSING {
			return nil, errNotFound(glyphName)
		}
		return nil, err
	}
	f.mx.Lock()
	f.glyphs[key] = g
	f.mx.Unlock()
	return g, nil
}

// SourceGlyph returns a glyph of the default layer.
func (f *Font) SourceGlyph(glyphName string) (*glif.Glyph, error) {
	return f.loadGlyph(f.source, glyphName)
}

// processedGlyph returns the version of a glyph a tool would see after
// earlier processing: a staged result or the glyph of the processed layer.
func (f *Font) processedGlyph(glyphName string) (*glif.Glyph, bool, error) {
	f.mx.Lock()
	if !f.config.WriteDefault {
		if v, ok := f.staged.Get(glyphName); ok {
			f.mx.Unlock()
			return v.(*glif.Glyph), true, nil
		}
	}
	has := f.processed.Has(glyphName)
	f.mx.Unlock()
	if !has {
		return nil, false, nil
	}
	g, err := f.loadGlyph(f.processed, glyphName)
	return g, err == nil, err
}

// Glyph returns a glyph as a tool sees it: the processed version if the
// session reads from the processed layer and there is one, the default
// layer's version otherwise.
func (f *Font) Glyph(glyphName string) (*glif.Glyph, error) {
	if f.config.UseProcessedLayer {
		if g, ok, err := f.processedGlyph(glyphName); ok || err != nil {
			return g, err
		}
	}
	return f.SourceGlyph(glyphName)
}

// ComponentOutline returns the outline of a component base glyph. If
// fromSource is set, it is read from the default layer. Otherwise the
// processed version is preferred.
func (f *Font) ComponentOutline(glyphName string, fromSource bool) (*outline.Outline, error) {
	if !fromSource {
		g, ok, err := f.processedGlyph(glyphName)
		if err != nil {
			return nil, err
		} else if ok {
			return g.Outline, nil
		}
	}
	g, err := f.SourceGlyph(glyphName)
	if err != nil {
		return nil, err
	}
	return g.Outline, nil
}

var _ hashmap.ComponentSource = (*Font)(nil)

// resolver adapts a Font to outline.Resolver.
type resolver struct {
	f          *Font
	fromSource bool
}

func (r resolver) ComponentOutline(glyphName string) (*outline.Outline, error) {
	return r.f.ComponentOutline(glyphName, r.fromSource)
}

// Resolver returns a resolver for component base glyphs, reading from the
// layer the session reads from.
func (f *Font) Resolver() outline.Resolver {
	return resolver{f: f, fromSource: !f.config.UseProcessedLayer}
}

// --- Processing ------------------------------------------------------------

// ConvertToBez prepares a glyph for processing by tool. It consults the
// hash map and returns skip = true if the tool need not process the glyph.
// Otherwise it returns the glyph's outline as a bez program, together with
// the glyph's advance width.
//
// If the glyph has been edited after a required tool processed it, skip is
// true and err has code core.EREQUIRED.
func (f *Font) ConvertToBez(glyphName, tool string) (string, float64, bool, error) {
	src, err := f.SourceGlyph(glyphName)
	if err != nil {
		return "", 0, false, err
	}
	if f.config.HashMap {
		hash, err := hashmap.Fingerprint(src.Width(), src.Outline, f, true)
		if err != nil {
			return "", 0, false, err
		}
		d := f.cache.CheckSkip(glyphName, hash, tool)
		if d.DeleteProcessed {
			if err := f.deleteProcessed(glyphName); err != nil {
				return "", 0, false, err
			}
		}
		if d.Skip {
			return "", src.Width(), true, d.Err
		}
	}
	g, err := f.Glyph(glyphName)
	if err != nil {
		return "", 0, false, err
	}
	opts := bez.Options{AllowDecimals: f.config.Decimals}
	data, err := bez.EncodeGlyph(glyphName, g.Outline, f.Resolver(), opts)
	if err != nil {
		return "", 0, false, err
	}
	return data, g.Width(), false, nil
}

// deleteProcessed removes a stale glyph from the processed layer.
func (f *Font) deleteProcessed(glyphName string) error {
	f.mx.Lock()
	defer f.mx.Unlock()
	if !f.config.WriteDefault {
		f.staged.Remove(glyphName)
	}
	delete(f.glyphs, glyphKey{processed: true, name: glyphName})
	deleted, err := f.processed.DeleteGlyph(glyphName)
	if err != nil {
		return err
	}
	if deleted {
		tracer().Debugf("deleted stale processed glyph '%s'", glyphName)
		f.deleted = true
	}
	return nil
}

// UpdateFromBez merges the output of tool into a glyph: the outline is
// replaced by the outline drawn by the bez program, and hints found in the
// program are stored in the glyph's lib. The result is staged for Save.
func (f *Font) UpdateFromBez(glyphName, tool, bezData string) error {
	return f.update(glyphName, tool, bezData, false)
}

// UpdateHintsFromBez stores the hints of a bez program in a glyph, leaving
// the glyph's outline alone. The result is staged for Save.
func (f *Font) UpdateHintsFromBez(glyphName, tool, bezData string) error {
	return f.update(glyphName, tool, bezData, true)
}

func (f *Font) update(glyphName, tool, bezData string, hintsOnly bool) error {
	o, hints, err := bez.Decode(bezData, bez.Options{AllowDecimals: f.config.Decimals})
	if err != nil {
		return err
	}
	base, err := f.Glyph(glyphName)
	if err != nil {
		return err
	}
	g := base.Clone()
	if !hintsOnly {
		g.Outline = o
	}
	f.cache.UpdateEntry(glyphName, tool, true)
	if hints != nil {
		if hints.ID, err = hashmap.Fingerprint(g.Width(), g.Outline, f, false); err != nil {
			return err
		}
		g.SetHintData(hints)
	}
	f.mx.Lock()
	f.staged.Put(glyphName, g)
	f.mx.Unlock()
	tracer().Debugf("staged glyph '%s' processed by '%s'", glyphName, tool)
	return nil
}

// Staged returns the names of the glyphs waiting to be written by Save.
func (f *Font) Staged() []string {
	f.mx.Lock()
	defer f.mx.Unlock()
	names := make([]string, 0, f.staged.Size())
	for _, k := range f.staged.Keys() {
		names = append(names, k.(string))
	}
	return names
}

// --- Saving ----------------------------------------------------------------

func (f *Font) writeLayer() *Layer {
	if f.config.WriteDefault {
		return f.source
	}
	return f.processed
}

// Save writes the hash map, then all staged glyphs. Glyphs are written to
// the processed layer, or to the default layer if the session is configured
// to write there. Failing glyph writes do not keep other glyphs from being
// written; they are reported together as a *BatchError.
func (f *Font) Save() error {
	if err := f.saveCache(); err != nil {
		return err
	}
	f.mx.Lock()
	defer f.mx.Unlock()
	layer := f.writeLayer()
	batch := &BatchError{}
	it := f.staged.Iterator()
	for it.Next() {
		name, g := it.Key().(string), it.Value().(*glif.Glyph)
		file, _ := f.processed.FileName(name)
		if file == "" {
			file, _ = f.source.FileName(name)
		}
		if err := layer.WriteGlyph(name, g, file); err != nil {
			tracer().Errorf("cannot write glyph '%s': %v", name, err)
			batch.add(core.ForGlyph(name, err))
			continue
		}
		f.glyphs[glyphKey{processed: layer == f.processed, name: name}] = g
	}
	f.staged.Clear()
	for _, l := range []*Layer{f.source, f.processed} {
		if err := l.SaveContents(); err != nil {
			batch.add(err)
		}
	}
	if f.processed.Exists() {
		if err := f.saveLayerContents(); err != nil {
			batch.add(err)
		}
	}
	return batch.errOrNil()
}

func (f *Font) saveCache() error {
	if !f.config.HashMap || !f.cache.Changed() {
		return nil
	}
	return f.cache.Save(hashmap.Path(f.Path))
}

// saveLayerContents updates layercontents.plist: the default layer comes
// first, the processed layer is added if missing.
func (f *Font) saveLayerContents() error {
	path := filepath.Join(f.Path, LayerContentsFile)
	var layers plist.Array
	v, err := plist.ReadFile(path)
	if err != nil && core.Code(err) != core.EMISSING {
		return err
	} else if err == nil {
		var ok bool
		if layers, ok = v.(plist.Array); !ok {
			return core.Error(core.EFORMAT, "in %s: top level value is not an array", path)
		}
	}
	entries := plist.Array{plist.Strings(DefaultLayerName, DefaultLayerDir)}
	hasProcessed, changed := false, false
	for i, l := range layers {
		pair, ok := l.(plist.Array)
		names, isStrings := pair.StringSlice()
		if !ok || !isStrings || len(names) != 2 {
			return core.Error(core.EFORMAT, "in %s: malformed layer entry", path)
		}
		if names[1] == DefaultLayerDir {
			changed = changed || i != 0
			continue
		}
		hasProcessed = hasProcessed || names[1] == ProcessedLayerDir
		entries = append(entries, pair)
	}
	if !hasProcessed {
		entries = append(entries, plist.Strings(ProcessedLayerName, ProcessedLayerDir))
		changed = true
	}
	if !changed && len(entries) == len(layers) {
		return nil
	}
	tracer().Debugf("updating %s", path)
	return plist.WriteFile(path, entries)
}

// Close ends the session. It writes the hash map if it has changed, and
// the processed layer's contents if stale glyphs have been deleted. Staged
// glyphs which have not been saved are discarded.
func (f *Font) Close() error {
	if err := f.saveCache(); err != nil {
		return err
	}
	f.mx.Lock()
	defer f.mx.Unlock()
	if n := f.staged.Size(); n > 0 {
		tracer().Infof("discarding %d unsaved glyphs", n)
	}
	return f.processed.SaveContents()
}
