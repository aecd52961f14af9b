/*
Command glifbez converts the glyphs of UFO fonts to and from bez programs
and runs outline processing tools over a font.

Usage:

	glifbez [flags] tobez    font.ufo glyph...
	glifbez [flags] frombez  font.ufo glyph file.bez
	glifbez [flags] run      font.ufo command [args...]
	glifbez [flags] status   font.ufo
	glifbez [flags] preview  font.ufo glyph file.png
	glifbez [flags] shell    font.ufo

The tobez command only prints the programs; it neither records the glyphs
in the hash map nor touches the processed layer.

The run command starts the external command once per glyph, writing the
glyph's bez program to its stdin and reading the processed program from its
stdout. Arguments "{glyph}" are replaced by the glyph name.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

*/
package main

import (
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/npillmayer/glifbez/core"
	"github.com/npillmayer/glifbez/core/bez"
	"github.com/npillmayer/glifbez/core/outline"
	"github.com/npillmayer/glifbez/core/plist"
	"github.com/npillmayer/glifbez/engine/ufo"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
)

// tracer traces with key 'glifbez.cli'
func tracer() tracing.Trace {
	return tracing.Select("glifbez.cli")
}

// traceKeys are the tracers of all packages of this module.
var traceKeys = []string{
	"glifbez.cli",
	"glifbez.ufo",
	"glifbez.hashmap",
	"glifbez.bez",
	"glifbez.glif",
	"glifbez.plist",
	"glifbez.outline",
	"glifbez.fileio",
}

func main() {
	initDisplay()

	// command line flags
	tlevel := flag.String("trace", "Error", "Trace level [Debug|Info|Error]")
	tool := flag.String("tool", "glifbez", "Name of the processing tool, recorded in the hash map")
	decimals := flag.Bool("decimals", false, "Keep fractional coordinates")
	nohash := flag.Bool("nohashmap", false, "Do not use the processed-glyphs hash map")
	processed := flag.Bool("processed", false, "Read glyphs from the processed layer")
	wdefault := flag.Bool("writedefault", false, "Write results to the default layer")
	force := flag.Bool("force", false, "Process unchanged glyphs, too")
	required := flag.String("required", "", "Comma separated list of required tools")
	height := flag.Int("height", 256, "Pixel height of previews")
	flag.Usage = usage
	flag.Parse()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":     "go",
		"ufo.decimals":        strconv.FormatBool(*decimals),
		"ufo.hashmap":         strconv.FormatBool(!*nohash),
		"ufo.processed-layer": strconv.FormatBool(*processed),
		"ufo.write-default":   strconv.FormatBool(*wdefault),
		"ufo.force":           strconv.FormatBool(*force),
		"ufo.required-tools":  *required,
	}
	for _, key := range traceKeys {
		conf["trace."+key] = *tlevel
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())
	tracer().Infof("Trace level is %s", *tlevel)

	args := flag.Args()
	if len(args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, ufoPath, args := args[0], args[1], args[2:]
	font, err := ufo.Open(ufoPath, conf)
	if err != nil {
		fail(err)
	}
	switch cmd {
	case "tobez":
		err = toBez(os.Stdout, font, args)
	case "frombez":
		err = fromBez(font, *tool, args)
	case "run":
		err = run(font, *tool, args)
	case "status":
		err = status(font)
	case "preview":
		err = preview(font, args, *height)
	case "shell":
		err = shell(font)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fail(err)
	}
	if err = font.Close(); err != nil {
		fail(err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: glifbez [flags] tobez|frombez|run|status|preview|shell font.ufo [args]\n")
	flag.PrintDefaults()
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

func fail(err error) {
	var batch *ufo.BatchError
	if errors.As(err, &batch) {
		pterm.Error.Printfln("%d glyphs failed", len(batch.Errors))
		for _, e := range batch.Errors {
			core.UserError(e)
		}
		os.Exit(3)
	}
	core.UserError(err)
	os.Exit(3)
}

// toBez writes the bez programs of glyphs to w. It is an export only: the
// hash map and the processed layer are left alone.
func toBez(w io.Writer, font *ufo.Font, glyphs []string) error {
	if len(glyphs) == 0 {
		glyphs = font.GlyphNames()
	}
	for _, name := range glyphs {
		prog, err := glyphBez(font, name)
		if err != nil {
			return core.ForGlyph(name, err)
		}
		fmt.Fprint(w, prog)
	}
	return nil
}

// glyphBez encodes the current version of a glyph as a bez program.
func glyphBez(font *ufo.Font, name string) (string, error) {
	g, err := font.Glyph(name)
	if err != nil {
		return "", err
	}
	opts := bez.Options{AllowDecimals: font.Config().Decimals}
	return bez.EncodeGlyph(name, g.Outline, font.Resolver(), opts)
}

func fromBez(font *ufo.Font, tool string, args []string) error {
	if len(args) != 2 {
		return core.Error(core.EINVALID, "frombez needs a glyph name and a bez file")
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return core.WrapError(err, core.EMISSING, "cannot read %s", args[1])
	}
	if err = font.UpdateFromBez(args[0], tool, string(data)); err != nil {
		return core.ForGlyph(args[0], err)
	}
	return font.Save()
}

func run(font *ufo.Font, tool string, args []string) error {
	if len(args) == 0 {
		return core.Error(core.EINVALID, "run needs a command")
	}
	engine := ufo.ExecEngine{Command: args[0], Args: args[1:]}
	err := font.Process(tool, engine)
	staged := len(font.Staged())
	if serr := font.Save(); serr != nil {
		return serr
	}
	pterm.Info.Printfln("%s: wrote %d glyphs", tool, staged)
	if font.DeletedGlyph() {
		pterm.Info.Println("stale glyphs have been removed from the processed layer")
	}
	return err
}

func status(font *ufo.Font) error {
	data := pterm.TableData{{"ID", "Glyph", "Tools", "Hash"}}
	cache := font.Cache()
	for _, name := range font.GlyphNames() {
		id, _ := font.GlyphID(name)
		tools, hash := "-", "-"
		if e, ok := cache.Entry(name); ok {
			tools = fmt.Sprintf("%v", e.History)
			hash = e.Hash
			if len(hash) > 24 {
				hash = hash[:24] + "…"
			}
		}
		data = append(data, []string{strconv.Itoa(id), name, tools, hash})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func preview(font *ufo.Font, args []string, height int) error {
	if len(args) != 2 {
		return core.Error(core.EINVALID, "preview needs a glyph name and an output file")
	}
	g, err := font.Glyph(args[0])
	if err != nil {
		return err
	}
	o, err := outline.Flatten(g.Outline, font.Resolver())
	if err != nil {
		return core.ForGlyph(args[0], err)
	}
	upm, descender := metrics(font.Path)
	img := outline.Rasterize(o, g.Width(), upm, descender, height)
	if ink := outline.PixelBounds(o.Bounds(), upm, descender, height); !ink.In(img.Bounds()) {
		pterm.Warning.Printfln("glyph '%s' extends beyond the preview box %v: %v", args[0], img.Bounds(), ink)
	}
	out, err := os.Create(args[1])
	if err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot create %s", args[1])
	}
	defer out.Close()
	if err = png.Encode(out, img); err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot write %s", args[1])
	}
	pterm.Info.Printfln("wrote %s (%dx%d)", args[1], img.Bounds().Dx(), img.Bounds().Dy())
	return nil
}

// metrics reads units per em and descender from a font's fontinfo.plist.
func metrics(ufoPath string) (float64, float64) {
	upm, descender := 1000.0, -250.0
	info, err := plist.ReadDict(filepath.Join(ufoPath, "fontinfo.plist"))
	if err != nil {
		tracer().Infof("no font info: %v", core.UserMessage(err))
		return upm, descender
	}
	if x, ok := info.Number("unitsPerEm"); ok && x > 0 {
		upm = x
	}
	if x, ok := info.Number("descender"); ok {
		descender = x
	}
	return upm, descender
}
