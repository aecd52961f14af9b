/*
Package bez converts glyph outlines to and from the bez format, the flat
path instruction stream read and written by the Adobe outline processing
tools (autohint, checkOutlines).

A bez stream is a sequence of whitespace separated tokens. Numbers are
pushed onto an argument stack, operators consume them:

	% A
	sc
	snc
	0 20 rb
	20 0 mt
	680 0 dt
	cp
	ed

GLIF has no explicit start and end operator for a contour: its first point
is both the start and the end of the path. Encode resolves this by turning
the first on-curve point into a move-to, and repeating it as the final path
operator (a final line-to is left implicit). Decode reverses this: the
move-to is retagged with the kind of the path's closing operator, or with
'line' if the path closes with an implied line-to.

Hints found in a bez stream are collected into hint masks, each anchored to
the name of the point before which it takes effect.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

*/
package bez

import (
	"github.com/npillmayer/glifbez/core"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'glifbez.bez'
func tracer() tracing.Trace {
	return tracing.Select("glifbez.bez")
}

// Options control number formatting of the codec.
type Options struct {
	// AllowDecimals keeps fractional coordinates. If false, coordinates are
	// rounded to integers.
	AllowDecimals bool
}

// errFormat produces user level errors for malformed outline data.
func errFormat(format string, v ...interface{}) error {
	return core.Error(core.EFORMAT, format, v...)
}

// errParse produces user level errors for malformed bez data.
func errParse(format string, v ...interface{}) error {
	return core.Error(core.EPARSE, format, v...)
}
