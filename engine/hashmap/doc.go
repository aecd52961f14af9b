/*
Package hashmap implements the processed-glyphs hash map of a UFO font: a
persistent cache which lets outline processing tools skip glyphs whose
source outline has not changed since the tool last processed them.

For every glyph the cache stores the fingerprint of the glyph's source
outline, together with the history of tools which have processed the glyph
since the source last changed. Before a tool processes a glyph, it calls
CheckSkip with the glyph's current fingerprint. The returned Decision tells
the tool whether to skip the glyph, and whether a stale glyph in the
processed layer has to be deleted.

Tools may be configured to require that other tools have not yet processed
a glyph. If a glyph's source has been edited after a required tool ran, the
edit would silently discard the work of that tool; CheckSkip reports this
as an error with code core.EREQUIRED and skips the glyph.

The cache is persisted as a Python-style mapping literal in the UFO's data
folder, in file FileName. The format carries a version marker; a cache
written by a newer major version is rejected, an older cache is discarded.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

*/
package hashmap

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'glifbez.hashmap'
func tracer() tracing.Trace {
	return tracing.Select("glifbez.hashmap")
}
