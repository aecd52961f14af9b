package bez

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/npillmayer/glifbez/core/outline"
)

// EncodeGlyph converts the outline of a glyph to a complete bez program,
// framed by a glyph name comment and start and end markers.
func EncodeGlyph(glyphName string, o *outline.Outline, r outline.Resolver, opts Options) (string, error) {
	body, err := Encode(o, r, opts)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("% " + glyphName + "\n")
	b.WriteString(OpStartGlyph.String() + "\n")
	if body != "" {
		b.WriteString(body + "\n")
	}
	b.WriteString(OpEndGlyph.String() + "\n")
	return b.String(), nil
}

// Encode converts an outline to a newline separated list of bez path
// operators. Components are resolved through r and flattened into the
// stream. Hints of the outline are not carried over.
func Encode(o *outline.Outline, r outline.Resolver, opts Options) (string, error) {
	enc := &encoder{resolver: r, decimals: opts.AllowDecimals}
	if err := enc.outline(o, nil, 0, ""); err != nil {
		return "", err
	}
	return strings.Join(enc.ops, "\n"), nil
}

type encoder struct {
	resolver outline.Resolver
	decimals bool
	ops      []string
	args     []string
}

func (enc *encoder) outline(o *outline.Outline, t *outline.Transform, depth int, name string) error {
	if depth > outline.MaxComponentDepth {
		return outline.ErrDepth(name)
	}
	if o == nil {
		return nil
	}
	for _, e := range o.Elements {
		switch el := e.(type) {
		case *outline.Component:
			if err := enc.component(el, t, depth); err != nil {
				return err
			}
		case *outline.Contour:
			if err := enc.contour(el, t); err != nil {
				return err
			}
		}
	}
	return nil
}

func (enc *encoder) component(c *outline.Component, t *outline.Transform, depth int) error {
	if enc.resolver == nil {
		return outline.NotFound(c.Base)
	}
	ct := c.Transform
	if t != nil {
		ct = ct.Compose(*t)
	}
	var sub *outline.Transform
	if !ct.IsDefault && ct != (outline.Transform{}) {
		sub = &ct
	}
	o, err := enc.resolver.ComponentOutline(c.Base)
	if err != nil {
		return err
	}
	tracer().Debugf("bez: flattening component '%s'", c.Base)
	return enc.outline(o, sub, depth+1, c.Base)
}

func (enc *encoder) contour(c *outline.Contour, t *outline.Transform) error {
	if len(c.Points) == 0 {
		return nil
	}
	pts := c.Points
	enc.args = enc.args[:0]
	first := pts[0]
	switch first.Kind {
	case outline.Line:
		// the closing line-to stays implicit
		enc.emit(OpMoveTo, t, first)
		pts = pts[1:]
	case outline.Curve:
		enc.emit(OpMoveTo, t, first)
		rotated := make([]outline.Point, 0, len(pts))
		rotated = append(rotated, pts[1:]...)
		pts = append(rotated, first)
	case outline.Move:
		if len(pts) == 1 { // anchor left over from GLIF format 1
			return nil
		}
	case outline.OffCurve:
		// the path starts with the end point of the closing segment
		last := pts[len(pts)-1]
		switch last.Kind {
		case outline.Line:
			enc.emit(OpMoveTo, t, last)
			pts = pts[:len(pts)-1]
		case outline.Curve:
			enc.emit(OpMoveTo, t, last)
		default:
			return errFormat("unhandled case for first and last points in contour: %v … %v", first, last)
		}
	default:
		return errFormat("unhandled case for first point in contour: %v", first)
	}
	for _, p := range pts {
		switch p.Kind {
		case outline.OffCurve:
			x, y := enc.coords(t, p)
			enc.args = append(enc.args, x, y)
		case outline.Move:
			enc.dropPending(p)
			enc.emit(OpMoveTo, t, p)
		case outline.Line:
			enc.dropPending(p)
			enc.emit(OpLineTo, t, p)
		case outline.Curve:
			if len(enc.args) != 4 {
				return errFormat("argument stack error seen for curve point %v", p)
			}
			enc.emit(OpCurveTo, t, p)
		default:
			return errFormat("point type not supported: %v", p)
		}
	}
	enc.ops = append(enc.ops, OpClosePath.String())
	return nil
}

// emit appends a path operator with the pending arguments and the
// coordinates of p, and clears the argument stack.
func (enc *encoder) emit(op Operator, t *outline.Transform, p outline.Point) {
	x, y := enc.coords(t, p)
	args := append(enc.args, x, y, op.String())
	enc.ops = append(enc.ops, strings.Join(args, " "))
	enc.args = enc.args[:0]
}

func (enc *encoder) coords(t *outline.Transform, p outline.Point) (string, string) {
	x, y := p.X, p.Y
	if t != nil {
		x, y = t.Apply(x, y)
	}
	return enc.number(x), enc.number(y)
}

func (enc *encoder) number(v float64) string {
	if enc.decimals {
		return fmt.Sprintf("%.3f", v)
	}
	return strconv.FormatInt(int64(RoundCoord(v)), 10)
}

// RoundCoord rounds a coordinate to the nearest integer, ties to even.
func RoundCoord(v float64) float64 {
	r := math.RoundToEven(v)
	if r == 0 {
		return 0 // no negative zero
	}
	return r
}

// dropPending discards off-curve points which are not followed by a curve
// point. Line and move operators take no control points.
func (enc *encoder) dropPending(p outline.Point) {
	if len(enc.args) == 0 {
		return
	}
	tracer().Infof("bez: dropping %d stray off-curve points before %v", len(enc.args)/2, p)
	enc.args = enc.args[:0]
}
