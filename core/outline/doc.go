/*
Package outline holds the in-memory model of a glyph outline, as found in
the <outline> element of a GLIF file: contours of on- and off-curve points,
and components referencing the outlines of other glyphs through an affine
transform.

The model is deliberately free of any file format concerns. Reading and
writing GLIF is done by package glif, conversion to and from the bez path
instruction format is done by package bez.

A component is resolved lazily through a Resolver. Components may nest, but
not deeper than MaxComponentDepth levels; a cyclic reference will hit this
limit and result in a format error.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

*/
package outline

import (
	"github.com/npillmayer/glifbez/core"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'glifbez.outline'
func tracer() tracing.Trace {
	return tracing.Select("glifbez.outline")
}

// MaxComponentDepth is the maximum nesting level of component references.
const MaxComponentDepth = 10

// ErrDepth produces the error for a component nesting level exceeding
// MaxComponentDepth.
func ErrDepth(glyphName string) error {
	return core.Error(core.EFORMAT,
		"in parsing component, exceeded %d levels of reference: '%s'", MaxComponentDepth, glyphName)
}

// NotFound produces the error for a component base glyph missing from a font.
func NotFound(glyphName string) error {
	return core.Error(core.EMISSING, "component glyph '%s' is missing", glyphName)
}
