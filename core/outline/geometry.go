package outline

import (
	"math"

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// Flatten resolves all components of o recursively and returns an outline
// consisting of contours only, with component transforms applied.
// Degenerate contours are kept; point names are dropped.
func Flatten(o *Outline, r Resolver) (*Outline, error) {
	flat := &Outline{}
	err := flatten(flat, o, r, Identity, 0, "")
	return flat, err
}

func flatten(dst, o *Outline, r Resolver, t Transform, depth int, name string) error {
	if depth > MaxComponentDepth {
		return ErrDepth(name)
	}
	if o == nil {
		return nil
	}
	for _, e := range o.Elements {
		switch el := e.(type) {
		case *Contour:
			c := &Contour{Points: make([]Point, len(el.Points))}
			for i, p := range el.Points {
				p.X, p.Y = t.Apply(p.X, p.Y)
				p.Name = ""
				c.Points[i] = p
			}
			dst.Elements = append(dst.Elements, c)
		case *Component:
			sub, err := r.ComponentOutline(el.Base)
			if err != nil {
				return err
			}
			if err := flatten(dst, sub, r, el.Transform.Compose(t), depth+1, el.Base); err != nil {
				return err
			}
		}
	}
	return nil
}

// Path converts the contours of o to a path. Components are not resolved;
// call Flatten first to include them. Quadratic segments are approximated
// by their cubic equivalent, which is exact.
func (o *Outline) Path() *path.Data {
	p := &path.Data{}
	for _, c := range o.Contours() {
		appendContour(p, c)
	}
	return p
}

func appendContour(p *path.Data, c *Contour) {
	n := len(c.Points)
	if n == 0 {
		return
	}
	// GLIF contours are cyclic: find an on-curve point to start from.
	start := -1
	for i, pt := range c.Points {
		if pt.Kind.IsOnCurve() {
			start = i
			break
		}
	}
	if start < 0 {
		tracer().Debugf("skipping contour without on-curve points")
		return
	}
	at := func(i int) vec.Vec2 {
		pt := c.Points[(start+i)%n]
		return vec.Vec2{X: pt.X, Y: pt.Y}
	}
	open := c.Points[start].Kind == Move
	cur := at(0)
	p.Cmds = append(p.Cmds, path.CmdMoveTo)
	p.Coords = append(p.Coords, cur)
	var ctrl []vec.Vec2
	last := n
	if open {
		last = n - 1
	}
	for i := 1; i <= last; i++ {
		pt := c.Points[(start+i)%n]
		v := at(i)
		switch pt.Kind {
		case OffCurve:
			ctrl = append(ctrl, v)
			continue
		case Line, Move:
			p.Cmds = append(p.Cmds, path.CmdLineTo)
			p.Coords = append(p.Coords, v)
		case Curve:
			switch len(ctrl) {
			case 0:
				p.Cmds = append(p.Cmds, path.CmdLineTo)
				p.Coords = append(p.Coords, v)
			case 1:
				c1, c2 := quadToCubic(cur, ctrl[0], v)
				p.Cmds = append(p.Cmds, path.CmdCubeTo)
				p.Coords = append(p.Coords, c1, c2, v)
			default:
				p.Cmds = append(p.Cmds, path.CmdCubeTo)
				p.Coords = append(p.Coords, ctrl[0], ctrl[len(ctrl)-1], v)
			}
		case QCurve:
			q := cur
			for j, qc := range ctrl {
				end := v
				if j < len(ctrl)-1 {
					end = qc.Add(ctrl[j+1]).Mul(0.5) // implied on-curve point
				}
				c1, c2 := quadToCubic(q, qc, end)
				p.Cmds = append(p.Cmds, path.CmdCubeTo)
				p.Coords = append(p.Coords, c1, c2, end)
				q = end
			}
			if len(ctrl) == 0 {
				p.Cmds = append(p.Cmds, path.CmdLineTo)
				p.Coords = append(p.Coords, v)
			}
		}
		ctrl = ctrl[:0]
		cur = v
	}
	if !open {
		p.Cmds = append(p.Cmds, path.CmdClose)
	}
}

func quadToCubic(p0, q, p1 vec.Vec2) (vec.Vec2, vec.Vec2) {
	c1 := p0.Add(q.Sub(p0).Mul(2.0 / 3.0))
	c2 := p1.Add(q.Sub(p1).Mul(2.0 / 3.0))
	return c1, c2
}

// Bounds returns the bounding box of all points of the contours of o,
// control points included. An outline without points has an empty box.
func (o *Outline) Bounds() rect.Rect {
	box := rect.Rect{
		LLx: math.Inf(1), LLy: math.Inf(1),
		URx: math.Inf(-1), URy: math.Inf(-1),
	}
	seen := false
	for _, c := range o.Contours() {
		for _, p := range c.Points {
			seen = true
			box.LLx = math.Min(box.LLx, p.X)
			box.LLy = math.Min(box.LLy, p.Y)
			box.URx = math.Max(box.URx, p.X)
			box.URy = math.Max(box.URy, p.Y)
		}
	}
	if !seen {
		return rect.Rect{}
	}
	return box
}
