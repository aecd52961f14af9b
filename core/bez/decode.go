package bez

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/npillmayer/glifbez/core/outline"
)

// Decode parses a bez program and returns the outline it draws, together
// with the hint data found in it. If the program contains no hints and no
// flex operators, the hint data is nil. The ID of the hint data is a
// placeholder; callers set it to the fingerprint of the outline.
//
// Decode never produces components, and drops contours consisting of a
// single move-to.
func Decode(bez string, opts Options) (*outline.Outline, *HintData, error) {
	d := newDecoder(opts)
	sc := bufio.NewScanner(strings.NewReader(bez))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '%'); i >= 0 {
			line = line[:i] // comment
		}
		for _, token := range strings.Fields(line) {
			if err := d.token(token); err != nil {
				return nil, nil, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, errParse("reading bez data: %v", err)
	}
	d.closeContour()
	if !d.seenHints && len(d.flex) == 0 {
		return d.out, nil, nil
	}
	return d.out, assembleHints(d.masks, d.flex), nil
}

// pathOp records a path operator of the current contour.
type pathOp struct {
	kind outline.PointKind
	x, y float64
}

type decoder struct {
	decimals  bool
	args      []float64
	out       *outline.Outline
	contour   *outline.Contour
	ops       []pathOp
	opIndex   int
	curX      float64
	curY      float64
	mask      *HintMask
	masks     []*HintMask
	pending   string // name of a hint mask waiting for its point
	hStem3    []Stem
	vStem3    []Stem
	seenHints bool
	inPreFlex bool
	flex      []string
}

func newDecoder(opts Options) *decoder {
	// initial hint mask, for hints preceding any explicit hint substitution
	m := NewHintMask(0)
	return &decoder{
		decimals: opts.AllowDecimals,
		out:      &outline.Outline{},
		mask:     m,
		masks:    []*HintMask{m},
	}
}

func (d *decoder) token(token string) error {
	if v, err := strconv.ParseFloat(token, 64); err == nil {
		d.args = append(d.args, v)
		return nil
	}
	op, ok := LookupOperator(token)
	if !ok {
		return errParse("unrecognized operator '%s' with arguments %v", token, d.args)
	}
	var args []float64
	if n := op.argCount(); n > 0 {
		if len(d.args) < n {
			return errParse("argument stack error: '%s' needs %d arguments, has %d", op, n, len(d.args))
		}
		args = d.args[len(d.args)-n:]
	}
	switch op {
	case OpStartGlyph, OpEndGlyph, OpClosePath, OpBeginSubr, OpEndSubr, OpNewColors, OpEnc:
		return nil
	case OpDiv:
		if args[1] == 0 {
			return errParse("division by zero")
		}
		d.args = append(d.args[:len(d.args)-2], args[0]/args[1])
		return nil
	case OpNewHints:
		d.mask = NewHintMask(d.opIndex)
		if d.opIndex == 0 { // replaces the initial mask
			d.masks = []*HintMask{d.mask}
		} else {
			d.masks = append(d.masks, d.mask)
		}
		d.pending = d.mask.PointName
	case OpHStem, OpVStem, OpHStem3, OpVStem3:
		d.hint(op, Stem{Pos: args[0], Width: args[1]})
	case OpPreFlex1:
		d.inPreFlex = true
	case OpPreFlex2:
	case OpFlex:
		if err := d.flexCurves(args); err != nil {
			return err
		}
	case OpMoveTo, OpRMoveTo:
		if !d.inPreFlex {
			d.moveTo(op, args)
		}
	case OpLineTo:
		if err := d.lineTo(args); err != nil {
			return err
		}
	case OpCurveTo:
		if err := d.curveTo(args); err != nil {
			return err
		}
	default:
		return errParse("unhandled operator '%s'", op)
	}
	d.args = d.args[:0]
	return nil
}

func (d *decoder) hint(op Operator, s Stem) {
	d.seenHints = true
	if d.pending == "" {
		d.pending = d.mask.PointName
	}
	switch op {
	case OpHStem:
		d.mask.H = append(d.mask.H, s)
	case OpVStem:
		d.mask.V = append(d.mask.V, s)
	case OpVStem3:
		d.vStem3 = append(d.vStem3, s)
		if len(d.vStem3) == 3 {
			d.mask.VStem3 = append(d.mask.VStem3, Stem3{d.vStem3[0], d.vStem3[1], d.vStem3[2]})
			d.vStem3 = d.vStem3[:0]
		}
	case OpHStem3:
		d.hStem3 = append(d.hStem3, s)
		if len(d.hStem3) == 3 {
			d.mask.HStem3 = append(d.mask.HStem3, Stem3{d.hStem3[0], d.hStem3[1], d.hStem3[2]})
			d.hStem3 = d.hStem3[:0]
		}
	}
}

func (d *decoder) coord(v float64) float64 {
	if d.decimals {
		return v
	}
	return RoundCoord(v)
}

// point appends a point to the current contour.
func (d *decoder) point(x, y float64, kind outline.PointKind) *outline.Point {
	d.contour.Points = append(d.contour.Points, outline.Point{
		X:    d.coord(x),
		Y:    d.coord(y),
		Kind: kind,
	})
	return &d.contour.Points[len(d.contour.Points)-1]
}

// attach names p after a pending hint mask.
func (d *decoder) attach(p *outline.Point) {
	if d.pending != "" {
		p.Name = d.pending
		d.pending = ""
	}
}

func (d *decoder) record(kind outline.PointKind) {
	d.ops = append(d.ops, pathOp{kind: kind, x: d.coord(d.curX), y: d.coord(d.curY)})
	d.opIndex++
}

func (d *decoder) moveTo(op Operator, args []float64) {
	if op == OpMoveTo {
		d.curX, d.curY = args[0], args[1]
	} else {
		d.curX += args[0]
		d.curY += args[1]
	}
	d.closeContour()
	d.contour = &outline.Contour{}
	d.out.Elements = append(d.out.Elements, d.contour)
	d.ops = d.ops[:0]
	d.attach(d.point(d.curX, d.curY, outline.Move))
	d.record(outline.Move)
}

func (d *decoder) lineTo(args []float64) error {
	if d.contour == nil {
		return errParse("line-to without current point")
	}
	d.curX, d.curY = args[0], args[1]
	d.attach(d.point(d.curX, d.curY, outline.Line))
	d.record(outline.Line)
	return nil
}

func (d *decoder) curveTo(args []float64) error {
	if d.contour == nil {
		return errParse("curve-to without current point")
	}
	d.attach(d.point(args[0], args[1], outline.OffCurve))
	d.point(args[2], args[3], outline.OffCurve)
	d.curX, d.curY = args[4], args[5]
	d.point(d.curX, d.curY, outline.Curve)
	d.record(outline.Curve)
	return nil
}

// flexCurves emits the two curves of a flex operator with absolute
// coordinates. The first point is named as a flex point; a pending hint
// mask is re-anchored to this name, as a point carries one name only.
func (d *decoder) flexCurves(args []float64) error {
	if d.contour == nil {
		return errParse("flex without current point")
	}
	d.inPreFlex = false
	name := PointName(FlexPrefix, d.opIndex)
	d.flex = append(d.flex, name)
	start := len(d.contour.Points)
	for i := 0; i < 2; i++ {
		a := args[6*i : 6*i+6]
		d.point(a[0], a[1], outline.OffCurve)
		d.point(a[2], a[3], outline.OffCurve)
		d.curX, d.curY = a[4], a[5]
		d.point(d.curX, d.curY, outline.Curve)
		d.record(outline.Curve)
	}
	d.contour.Points[start].Name = name
	if d.pending != "" {
		d.mask.PointName = name
		d.pending = ""
	}
	return nil
}

// closeContour finishes the current contour, if any. A contour consisting
// of a move-to only is removed.
func (d *decoder) closeContour() {
	if d.contour == nil {
		return
	}
	if len(d.contour.Points) > 1 {
		fixStartPoint(d.contour, d.ops)
	}
	if len(d.contour.Points) <= 1 {
		tracer().Infof("bez: deleting degenerate contour %v", d.contour.Points)
		d.out.Elements = d.out.Elements[:len(d.out.Elements)-1]
	}
	d.contour = nil
	d.ops = d.ops[:0]
}

// fixStartPoint resolves the start of a GLIF contour. If the path ends
// where it started, the closing point is dropped and the first point takes
// over the closing operator's kind. Otherwise the path is closed by an
// implied line-to and the first point becomes a line point.
func fixStartPoint(c *outline.Contour, ops []pathOp) {
	first, last := ops[0], ops[len(ops)-1]
	if first.x == last.x && first.y == last.y {
		c.Points = c.Points[:len(c.Points)-1]
		c.Points[0].Kind = last.kind
	} else {
		c.Points[0].Kind = outline.Line
	}
}
