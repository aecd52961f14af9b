package glif

import (
	"encoding/xml"

	"github.com/npillmayer/glifbez/core"
	"github.com/npillmayer/glifbez/core/outline"
)

type xmlPoint struct {
	X          *string `xml:"x,attr"`
	Y          *string `xml:"y,attr"`
	Type       string  `xml:"type,attr"`
	Smooth     string  `xml:"smooth,attr"`
	Name       string  `xml:"name,attr"`
	Identifier string  `xml:"identifier,attr"`
}

type xmlContour struct {
	Identifier string     `xml:"identifier,attr"`
	Points     []xmlPoint `xml:"point"`
}

type xmlComponent struct {
	Base       *string `xml:"base,attr"`
	XScale     *string `xml:"xScale,attr"`
	XYScale    *string `xml:"xyScale,attr"`
	YXScale    *string `xml:"yxScale,attr"`
	YScale     *string `xml:"yScale,attr"`
	XOffset    *string `xml:"xOffset,attr"`
	YOffset    *string `xml:"yOffset,attr"`
	Identifier string  `xml:"identifier,attr"`
}

// decodeOutline reads the children of an <outline> element. Contours and
// components keep their relative order.
func decodeOutline(d *xml.Decoder) (*outline.Outline, error) {
	o := outline.New()
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, core.WrapError(err, core.EFORMAT, "malformed <outline>")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "contour":
				var xc xmlContour
				if err := d.DecodeElement(&xc, &t); err != nil {
					return nil, core.WrapError(err, core.EFORMAT, "malformed <contour>")
				}
				c, err := xc.contour()
				if err != nil {
					return nil, err
				}
				o.Elements = append(o.Elements, c)
			case "component":
				var xc xmlComponent
				if err := d.DecodeElement(&xc, &t); err != nil {
					return nil, core.WrapError(err, core.EFORMAT, "malformed <component>")
				}
				c, err := xc.component()
				if err != nil {
					return nil, err
				}
				o.Elements = append(o.Elements, c)
			default:
				tracer().Infof("glif: ignoring <%s> in outline", t.Name.Local)
				if err := d.Skip(); err != nil {
					return nil, core.WrapError(err, core.EFORMAT, "malformed <outline>")
				}
			}
		case xml.EndElement:
			return o, nil
		}
	}
}

func (xc xmlContour) contour() (*outline.Contour, error) {
	c := &outline.Contour{Identifier: xc.Identifier}
	c.Points = make([]outline.Point, 0, len(xc.Points))
	for _, xp := range xc.Points {
		if xp.X == nil || xp.Y == nil {
			return nil, errFormat("point is missing a coordinate")
		}
		kind, ok := outline.ParseKind(xp.Type)
		if !ok {
			return nil, errFormat("unknown point type '%s'", xp.Type)
		}
		p := outline.Point{Kind: kind, Name: xp.Name, Smooth: xp.Smooth == "yes", Identifier: xp.Identifier}
		var err error
		if p.X, err = number(*xp.X, "x"); err != nil {
			return nil, err
		}
		if p.Y, err = number(*xp.Y, "y"); err != nil {
			return nil, err
		}
		c.Points = append(c.Points, p)
	}
	return c, nil
}

func (xc xmlComponent) component() (*outline.Component, error) {
	if xc.Base == nil {
		return nil, errFormat("component is missing the 'base' attribute")
	}
	var coeffs [6]*float64
	for i, s := range []*string{xc.XScale, xc.XYScale, xc.YXScale, xc.YScale, xc.XOffset, xc.YOffset} {
		if s == nil {
			continue
		}
		x, err := number(*s, transformAttrs[i])
		if err != nil {
			return nil, err
		}
		coeffs[i] = &x
	}
	return &outline.Component{
		Base:       *xc.Base,
		Transform:  outline.NewTransform(coeffs[0], coeffs[1], coeffs[2], coeffs[3], coeffs[4], coeffs[5]),
		Identifier: xc.Identifier,
	}, nil
}

var transformAttrs = [6]string{"xScale", "xyScale", "yxScale", "yScale", "xOffset", "yOffset"}

var transformDefaults = [6]float64{1, 0, 0, 1, 0, 0}

func encodeOutline(e *xml.Encoder, o *outline.Outline) error {
	el := element("outline")
	if err := e.EncodeToken(el); err != nil {
		return err
	}
	for _, elem := range o.Elements {
		var err error
		switch x := elem.(type) {
		case *outline.Contour:
			err = encodeContour(e, x)
		case *outline.Component:
			err = encodeComponent(e, x)
		}
		if err != nil {
			return err
		}
	}
	return e.EncodeToken(el.End())
}

func encodeContour(e *xml.Encoder, c *outline.Contour) error {
	el := element("contour")
	if c.Identifier != "" {
		el.Attr = append(el.Attr, attr("identifier", c.Identifier))
	}
	if err := e.EncodeToken(el); err != nil {
		return err
	}
	for _, p := range c.Points {
		pt := element("point")
		pt.Attr = append(pt.Attr,
			attr("x", outline.FormatNumber(p.X)),
			attr("y", outline.FormatNumber(p.Y)))
		if p.Kind != outline.OffCurve {
			pt.Attr = append(pt.Attr, attr("type", p.Kind.String()))
		}
		if p.Smooth {
			pt.Attr = append(pt.Attr, attr("smooth", "yes"))
		}
		if p.Name != "" {
			pt.Attr = append(pt.Attr, attr("name", p.Name))
		}
		if p.Identifier != "" {
			pt.Attr = append(pt.Attr, attr("identifier", p.Identifier))
		}
		if err := emptyElement(e, pt); err != nil {
			return err
		}
	}
	return e.EncodeToken(el.End())
}

func encodeComponent(e *xml.Encoder, c *outline.Component) error {
	el := element("component")
	el.Attr = append(el.Attr, attr("base", c.Base))
	coeffs := c.Transform.Coefficients()
	for i, x := range coeffs {
		if x != transformDefaults[i] {
			el.Attr = append(el.Attr, attr(transformAttrs[i], outline.FormatNumber(x)))
		}
	}
	if c.Identifier != "" {
		el.Attr = append(el.Attr, attr("identifier", c.Identifier))
	}
	return emptyElement(e, el)
}
