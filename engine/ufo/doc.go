/*
Package ufo gives outline processing tools access to the glyphs of a UFO
font.

A Font is a session on a UFO font folder. It reads glyphs from the default
layer ("glyphs") and from the processed glyphs layer
("glyphs.com.adobe.type.processedGlyphs"), converts them to bez programs for
a processing tool, and merges the tool's output back into the glyphs.
Results are staged in memory and written by Save.

Tools are identified by name. Together with the processed-glyphs hash map
(package hashmap), a Font lets a tool skip glyphs it has already processed
and whose source outline has not changed since.

A Font is configured from a schuko configuration with these keys:

	ufo.decimals          keep fractional coordinates in bez programs
	ufo.hashmap           use the processed-glyphs hash map (default true)
	ufo.processed-layer   read glyphs from the processed layer if present
	ufo.write-default     write results to the default layer
	ufo.force             process unchanged glyphs, too
	ufo.required-tools    comma separated list of tools, see hashmap.Policy

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

*/
package ufo

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'glifbez.ufo'
func tracer() tracing.Trace {
	return tracing.Select("glifbez.ufo")
}

// Names of the layers, their folders and the files of a UFO font.
const (
	DefaultLayerName   = "public.default"
	DefaultLayerDir    = "glyphs"
	ProcessedLayerName = "AFDKO ProcessedGlyphs"
	ProcessedLayerDir  = "glyphs.com.adobe.type.processedGlyphs"

	ContentsFile      = "contents.plist"
	LayerContentsFile = "layercontents.plist"
	LibFile           = "lib.plist"

	GlyphOrderKey = "public.glyphOrder"
)
