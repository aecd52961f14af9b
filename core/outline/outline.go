package outline

import (
	"fmt"
	"strconv"
)

// PointKind is the type of a point in a contour.
type PointKind int8

// Point kinds of GLIF. OffCurve points carry no type attribute in GLIF.
const (
	OffCurve PointKind = iota
	Move
	Line
	Curve
	QCurve
)

var kindNames = [...]string{"offcurve", "move", "line", "curve", "qcurve"}

func (k PointKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("PointKind(%d)", int(k))
}

// IsOnCurve is true for every kind except OffCurve.
func (k PointKind) IsOnCurve() bool {
	return k != OffCurve
}

// Prefix is the kind's one-letter tag as used in glyph fingerprints.
// Off-curve points have an empty prefix.
func (k PointKind) Prefix() string {
	if k == OffCurve {
		return ""
	}
	return k.String()[:1]
}

// ParseKind maps a GLIF point type attribute to a PointKind. An empty
// attribute denotes an off-curve point.
func ParseKind(s string) (PointKind, bool) {
	switch s {
	case "", "offcurve":
		return OffCurve, true
	case "move":
		return Move, true
	case "line":
		return Line, true
	case "curve":
		return Curve, true
	case "qcurve":
		return QCurve, true
	}
	return OffCurve, false
}

// Point is a point of a contour.
type Point struct {
	X, Y       float64
	Kind       PointKind
	Name       string // anchors hint sets and flex hints
	Smooth     bool
	Identifier string
}

// Pt creates an unnamed point.
func Pt(x, y float64, kind PointKind) Point {
	return Point{X: x, Y: y, Kind: kind}
}

func (p Point) String() string {
	s := fmt.Sprintf("%s(%s,%s)", p.Kind, FormatNumber(p.X), FormatNumber(p.Y))
	if p.Name != "" {
		s += "[" + p.Name + "]"
	}
	return s
}

// Element is either a *Contour or a *Component.
type Element interface {
	isElement()
}

// Contour is a closed sub-path.
type Contour struct {
	Identifier string
	Points     []Point
}

func (*Contour) isElement() {}

// IsDegenerate is true for contours with less than two points.
func (c *Contour) IsDegenerate() bool {
	return len(c.Points) < 2
}

// Component places the outline of another glyph.
type Component struct {
	Base       string
	Transform  Transform
	Identifier string
}

func (*Component) isElement() {}

// Outline is an ordered sequence of contours and components.
type Outline struct {
	Elements []Element
}

// New creates an outline from a list of elements.
func New(elements ...Element) *Outline {
	return &Outline{Elements: elements}
}

// AddContour appends a new contour of points and returns it.
func (o *Outline) AddContour(points ...Point) *Contour {
	c := &Contour{Points: points}
	o.Elements = append(o.Elements, c)
	return c
}

// AddComponent appends a component reference.
func (o *Outline) AddComponent(base string, t Transform) *Component {
	c := &Component{Base: base, Transform: t}
	o.Elements = append(o.Elements, c)
	return c
}

// Contours returns the contours of o, ignoring components.
func (o *Outline) Contours() []*Contour {
	if o == nil {
		return nil
	}
	var cs []*Contour
	for _, e := range o.Elements {
		if c, ok := e.(*Contour); ok {
			cs = append(cs, c)
		}
	}
	return cs
}

// Components returns the components of o.
func (o *Outline) Components() []*Component {
	if o == nil {
		return nil
	}
	var cs []*Component
	for _, e := range o.Elements {
		if c, ok := e.(*Component); ok {
			cs = append(cs, c)
		}
	}
	return cs
}

// IsEmpty is true for nil outlines and outlines without elements.
func (o *Outline) IsEmpty() bool {
	return o == nil || len(o.Elements) == 0
}

// Resolver finds the outline of a component's base glyph.
// Implementations return an error with code core.EMISSING if the glyph
// does not exist. A glyph without an <outline> element resolves to a nil
// outline and no error.
type Resolver interface {
	ComponentOutline(glyphName string) (*Outline, error)
}

// MapResolver resolves glyph outlines from a map.
type MapResolver map[string]*Outline

// ComponentOutline is part of interface Resolver.
func (m MapResolver) ComponentOutline(glyphName string) (*Outline, error) {
	o, ok := m[glyphName]
	if !ok {
		return nil, NotFound(glyphName)
	}
	return o, nil
}

// FormatNumber prints integral values without decimals and other values
// in their shortest decimal representation.
func FormatNumber(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
