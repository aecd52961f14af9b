/*
Package glif reads and writes glyph files in GLIF format, the XML format
of glyphs in a UFO font folder.

A Glyph holds the parts of a GLIF file this module works with: the advance,
unicode values, the outline and the private lib dictionary. Every other
element (anchors, guidelines, images, notes) is kept verbatim and written
back at its original position. The outline is converted to the model of
package outline.

Glyphs may carry stem hints in their lib, under key HintKey. The hint record
is read and written with HintData and SetHintData.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

*/
package glif

import (
	"github.com/npillmayer/glifbez/core"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'glifbez.glif'
func tracer() tracing.Trace {
	return tracing.Select("glifbez.glif")
}

// Lib keys of the hint record. Hint data is written under HintKey only;
// records under HintKeyV1 are from an outdated format and get removed.
const (
	HintKeyV1 = "com.adobe.type.autohint"
	HintKey   = "com.adobe.type.autohint.v2"
)

// DefaultWidth is the advance width of a glyph without an <advance> element.
const DefaultWidth = 1000

func errFormat(format string, v ...interface{}) error {
	return core.Error(core.EFORMAT, format, v...)
}
