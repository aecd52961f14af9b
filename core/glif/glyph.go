package glif

import (
	"bytes"
	"encoding/xml"
	"errors"
	"os"
	"strconv"

	"github.com/npillmayer/glifbez/core"
	"github.com/npillmayer/glifbez/core/fileio"
	"github.com/npillmayer/glifbez/core/outline"
	"github.com/npillmayer/glifbez/core/plist"
)

// Advance is the advance of a glyph.
type Advance struct {
	Width, Height float64
}

// Glyph is the content of a GLIF file.
type Glyph struct {
	Name        string
	Format      string
	FormatMinor string
	Advance     *Advance         // nil if the glyph has no <advance>
	Unicodes    []string         // hexadecimal code points
	Outline     *outline.Outline // nil if the glyph has no <outline>
	Lib         *plist.Dict      // nil if the glyph has no <lib>
	layout      []part           // element order as read
}

// part is a child element of <glyph>. Elements this package does not know
// about are kept as raw elements.
type part struct {
	name string
	raw  *plist.Raw
}

// Width returns the advance width, or DefaultWidth if the glyph has no
// advance.
func (g *Glyph) Width() float64 {
	if g.Advance == nil {
		return DefaultWidth
	}
	return g.Advance.Width
}

// Clone creates a copy of g which shares its outline and unknown elements.
// The lib dictionary is copied at the top level, so it may be modified
// without affecting g.
func (g *Glyph) Clone() *Glyph {
	c := *g
	if g.Advance != nil {
		adv := *g.Advance
		c.Advance = &adv
	}
	c.Unicodes = append([]string(nil), g.Unicodes...)
	c.layout = append([]part(nil), g.layout...)
	if g.Lib != nil {
		c.Lib = plist.NewDict(g.Lib.Entries()...)
	}
	return &c
}

// --- Reading ---------------------------------------------------------------

// Unmarshal parses GLIF data.
func Unmarshal(data []byte) (*Glyph, error) {
	g := &Glyph{}
	if err := xml.Unmarshal(data, g); err != nil {
		var appErr core.AppError
		if !errors.As(err, &appErr) {
			err = core.WrapError(err, core.EFORMAT, "malformed GLIF data")
		}
		return nil, err
	}
	return g, nil
}

// ReadFile reads a GLIF file.
func ReadFile(path string) (*Glyph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.WrapError(err, core.EMISSING, "glyph file %s does not exist", path)
		}
		return nil, core.WrapError(err, core.EINTERNAL, "cannot read glyph file %s", path)
	}
	tracer().Debugf("reading glyph file %s", path)
	g, err := Unmarshal(data)
	if err != nil {
		return nil, core.WrapError(err, core.Code(err), "in %s: %s", path, core.UserMessage(err))
	}
	return g, nil
}

// UnmarshalXML is part of interface xml.Unmarshaler.
func (g *Glyph) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	if start.Name.Local != "glyph" {
		return errFormat("expected <glyph>, found <%s>", start.Name.Local)
	}
	for _, a := range start.Attr {
		switch a.Name.Local {
		case "name":
			g.Name = a.Value
		case "format":
			g.Format = a.Value
		case "formatMinor":
			g.FormatMinor = a.Value
		}
	}
	for {
		tok, err := d.Token()
		if err != nil {
			return core.WrapError(err, core.EFORMAT, "malformed GLIF data for glyph '%s'", g.Name)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := g.decodePart(d, t); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (g *Glyph) decodePart(d *xml.Decoder, start xml.StartElement) (err error) {
	name := start.Name.Local
	switch name {
	case "advance":
		var adv struct {
			Width  *string `xml:"width,attr"`
			Height *string `xml:"height,attr"`
		}
		if err = d.DecodeElement(&adv, &start); err != nil {
			return core.WrapError(err, core.EFORMAT, "malformed <advance>")
		}
		g.Advance = &Advance{}
		if g.Advance.Width, err = optNumber(adv.Width, "width", 0); err != nil {
			return err
		}
		if g.Advance.Height, err = optNumber(adv.Height, "height", 0); err != nil {
			return err
		}
	case "unicode":
		var u struct {
			Hex string `xml:"hex,attr"`
		}
		if err = d.DecodeElement(&u, &start); err != nil {
			return core.WrapError(err, core.EFORMAT, "malformed <unicode>")
		}
		g.Unicodes = append(g.Unicodes, u.Hex)
	case "outline":
		if g.Outline, err = decodeOutline(d); err != nil {
			return err
		}
	case "lib":
		if g.Lib, err = decodeLib(d); err != nil {
			return err
		}
	default:
		raw, err := plist.DecodeRaw(d, start)
		if err != nil {
			return err
		}
		g.layout = append(g.layout, part{name: name, raw: &raw})
		return nil
	}
	g.layout = append(g.layout, part{name: name})
	return nil
}

func decodeLib(d *xml.Decoder) (*plist.Dict, error) {
	var lib *plist.Dict
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, core.WrapError(err, core.EFORMAT, "malformed <lib>")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			v, err := plist.Decode(d, t)
			if err != nil {
				return nil, err
			}
			dict, ok := v.(*plist.Dict)
			if !ok || lib != nil {
				return nil, errFormat("<lib> must contain a single <dict>")
			}
			lib = dict
		case xml.EndElement:
			if lib == nil {
				lib = &plist.Dict{}
			}
			return lib, nil
		}
	}
}

func optNumber(s *string, attr string, dflt float64) (float64, error) {
	if s == nil {
		return dflt, nil
	}
	return number(*s, attr)
}

func number(s string, attr string) (float64, error) {
	x, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errFormat("attribute '%s' is not a number: '%s'", attr, s)
	}
	return x, nil
}

// --- Writing ---------------------------------------------------------------

// rank orders the known parts of a glyph when they have to be inserted.
var rank = map[string]int{"advance": 1, "unicode": 2, "outline": 3, "lib": 4}

func (g *Glyph) has(name string) bool {
	switch name {
	case "advance":
		return g.Advance != nil
	case "unicode":
		return len(g.Unicodes) > 0
	case "outline":
		return g.Outline != nil
	case "lib":
		return g.Lib != nil
	}
	return false
}

// parts returns the child elements to write, in the order they have been
// read. Known parts which have been added since are inserted before the
// first known part of higher rank.
func (g *Glyph) parts() []part {
	seen := make(map[string]bool)
	var parts []part
	for _, p := range g.layout {
		if p.raw == nil {
			if seen[p.name] || !g.has(p.name) {
				continue
			}
			seen[p.name] = true
		}
		parts = append(parts, p)
	}
	for _, name := range []string{"advance", "unicode", "outline", "lib"} {
		if seen[name] || !g.has(name) {
			continue
		}
		at := len(parts)
		for i, p := range parts {
			if p.raw == nil && rank[p.name] > rank[name] {
				at = i
				break
			}
		}
		parts = append(parts[:at], append([]part{{name: name}}, parts[at:]...)...)
	}
	return parts
}

// MarshalXML is part of interface xml.Marshaler.
func (g *Glyph) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	start := xml.StartElement{Name: xml.Name{Local: "glyph"}}
	start.Attr = append(start.Attr, attr("name", g.Name))
	format := g.Format
	if format == "" {
		format = "2"
	}
	start.Attr = append(start.Attr, attr("format", format))
	if g.FormatMinor != "" {
		start.Attr = append(start.Attr, attr("formatMinor", g.FormatMinor))
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, p := range g.parts() {
		if err := g.encodePart(e, p); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

func (g *Glyph) encodePart(e *xml.Encoder, p part) error {
	if p.raw != nil {
		return plist.Encode(e, *p.raw)
	}
	switch p.name {
	case "advance":
		el := element("advance")
		if g.Advance.Width != 0 {
			el.Attr = append(el.Attr, attr("width", outline.FormatNumber(g.Advance.Width)))
		}
		if g.Advance.Height != 0 {
			el.Attr = append(el.Attr, attr("height", outline.FormatNumber(g.Advance.Height)))
		}
		return emptyElement(e, el)
	case "unicode":
		for _, u := range g.Unicodes {
			el := element("unicode")
			el.Attr = append(el.Attr, attr("hex", u))
			if err := emptyElement(e, el); err != nil {
				return err
			}
		}
		return nil
	case "outline":
		return encodeOutline(e, g.Outline)
	case "lib":
		if err := e.EncodeToken(element("lib")); err != nil {
			return err
		}
		if err := plist.Encode(e, g.Lib); err != nil {
			return err
		}
		return e.EncodeToken(element("lib").End())
	}
	return core.Error(core.EINTERNAL, "unknown glyph part <%s>", p.name)
}

func element(name string) xml.StartElement {
	return xml.StartElement{Name: xml.Name{Local: name}}
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func emptyElement(e *xml.Encoder, el xml.StartElement) error {
	if err := e.EncodeToken(el); err != nil {
		return err
	}
	return e.EncodeToken(el.End())
}

// Marshal creates GLIF data for a glyph.
func Marshal(g *Glyph) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	e := xml.NewEncoder(&buf)
	e.Indent("", "  ")
	if err := e.Encode(g); err != nil {
		return nil, err
	}
	if err := e.Flush(); err != nil {
		return nil, err
	}
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// WriteFile writes a GLIF file. The file is replaced atomically.
func WriteFile(path string, g *Glyph) error {
	data, err := Marshal(g)
	if err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot encode glyph '%s'", g.Name)
	}
	tracer().Debugf("writing glyph file %s", path)
	return fileio.WriteAtomic(path, data)
}
