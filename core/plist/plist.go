/*
Package plist reads and writes the XML property lists found in UFO font
folders.

Only the value types needed for UFO bookkeeping are modelled: strings,
arrays and dictionaries. Any other element (integer, real, true, false, date,
data) is kept verbatim as a Raw value, so that dictionaries can be read,
modified and written back without losing data. Dictionaries keep the order
of their keys.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

*/
package plist

import (
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/npillmayer/glifbez/core"
	"github.com/npillmayer/glifbez/core/fileio"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'glifbez.plist'
func tracer() tracing.Trace {
	return tracing.Select("glifbez.plist")
}

// Value is one of String, Array, *Dict or Raw.
type Value interface {
	isValue()
}

// String is a <string> value.
type String string

// Array is an <array> value.
type Array []Value

// Raw is any other value element, kept as it was read.
type Raw struct {
	Name  string
	Attrs []xml.Attr
	Inner string // inner XML, verbatim
}

func (String) isValue() {}
func (Array) isValue()  {}
func (*Dict) isValue()  {}
func (Raw) isValue()    {}

// Strings creates an array of strings.
func Strings(s ...string) Array {
	a := make(Array, len(s))
	for i, str := range s {
		a[i] = String(str)
	}
	return a
}

// StringSlice returns the strings of an array. It is false if a contains
// a value which is not a string.
func (a Array) StringSlice() ([]string, bool) {
	s := make([]string, 0, len(a))
	for _, v := range a {
		str, ok := v.(String)
		if !ok {
			return nil, false
		}
		s = append(s, string(str))
	}
	return s, true
}

// Entry is a key-value pair of a dictionary.
type Entry struct {
	Key   string
	Value Value
}

// Dict is a <dict> value. The zero value is an empty dictionary.
type Dict struct {
	entries []Entry
}

// NewDict creates a dictionary from a list of entries.
func NewDict(entries ...Entry) *Dict {
	d := &Dict{}
	for _, e := range entries {
		d.Set(e.Key, e.Value)
	}
	return d
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	return len(d.entries)
}

// Keys returns the keys in document order.
func (d *Dict) Keys() []string {
	keys := make([]string, len(d.entries))
	for i, e := range d.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns the entries in document order.
func (d *Dict) Entries() []Entry {
	return d.entries
}

func (d *Dict) index(key string) int {
	for i, e := range d.entries {
		if e.Key == key {
			return i
		}
	}
	return -1
}

// Get returns the value for a key.
func (d *Dict) Get(key string) (Value, bool) {
	if i := d.index(key); i >= 0 {
		return d.entries[i].Value, true
	}
	return nil, false
}

// Set replaces the value of an existing key in place, or appends a new entry.
func (d *Dict) Set(key string, v Value) {
	if i := d.index(key); i >= 0 {
		d.entries[i].Value = v
		return
	}
	d.entries = append(d.entries, Entry{Key: key, Value: v})
}

// Delete removes a key. It reports if the key has been present.
func (d *Dict) Delete(key string) bool {
	i := d.index(key)
	if i < 0 {
		return false
	}
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	return true
}

// String returns a string value for a key.
func (d *Dict) String(key string) (string, bool) {
	v, ok := d.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(String)
	return string(s), ok
}

// Strings returns the value for key as a list of strings. It is false if
// key is missing or its value is not an array of strings.
func (d *Dict) Strings(key string) ([]string, bool) {
	v, ok := d.Get(key)
	if !ok {
		return nil, false
	}
	a, ok := v.(Array)
	if !ok {
		return nil, false
	}
	return a.StringSlice()
}

// Number returns the value for key of an <integer> or <real> entry.
func (d *Dict) Number(key string) (float64, bool) {
	v, ok := d.Get(key)
	if !ok {
		return 0, false
	}
	raw, ok := v.(Raw)
	if !ok || (raw.Name != "integer" && raw.Name != "real") {
		return 0, false
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(raw.Inner), 64)
	return x, err == nil
}

// --- Decoding --------------------------------------------------------------

func errPlist(format string, v ...interface{}) error {
	return core.Error(core.EFORMAT, format, v...)
}

type rawElement struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Inner   string     `xml:",innerxml"`
}

// Decode reads a value, starting at element start.
func Decode(d *xml.Decoder, start xml.StartElement) (Value, error) {
	switch start.Name.Local {
	case "string":
		var s string
		if err := d.DecodeElement(&s, &start); err != nil {
			return nil, core.WrapError(err, core.EFORMAT, "malformed plist string")
		}
		return String(s), nil
	case "array":
		return decodeArray(d)
	case "dict":
		return decodeDict(d)
	}
	return DecodeRaw(d, start)
}

// DecodeRaw reads an element starting at start verbatim.
func DecodeRaw(d *xml.Decoder, start xml.StartElement) (Raw, error) {
	var raw rawElement
	if err := d.DecodeElement(&raw, &start); err != nil {
		return Raw{}, core.WrapError(err, core.EFORMAT, "malformed element <%s>", start.Name.Local)
	}
	return Raw{Name: start.Name.Local, Attrs: raw.Attrs, Inner: raw.Inner}, nil
}

func decodeArray(d *xml.Decoder) (Array, error) {
	a := Array{}
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, core.WrapError(err, core.EFORMAT, "malformed plist array")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			v, err := Decode(d, t)
			if err != nil {
				return nil, err
			}
			a = append(a, v)
		case xml.EndElement:
			return a, nil
		}
	}
}

func decodeDict(d *xml.Decoder) (*Dict, error) {
	dict := &Dict{}
	var key string
	haveKey := false
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, core.WrapError(err, core.EFORMAT, "malformed plist dict")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "key" {
				if haveKey {
					return nil, errPlist("plist key '%s' followed by another key", key)
				}
				if err := d.DecodeElement(&key, &t); err != nil {
					return nil, core.WrapError(err, core.EFORMAT, "malformed plist key")
				}
				haveKey = true
				continue
			}
			if !haveKey {
				return nil, errPlist("plist value <%s> without key", t.Name.Local)
			}
			if _, dup := dict.Get(key); dup {
				return nil, errPlist("duplicate plist key '%s'", key)
			}
			v, err := Decode(d, t)
			if err != nil {
				return nil, err
			}
			dict.entries = append(dict.entries, Entry{Key: key, Value: v})
			haveKey = false
		case xml.EndElement:
			if haveKey {
				return nil, errPlist("plist key '%s' without value", key)
			}
			return dict, nil
		}
	}
}

// Unmarshal parses a property list document and returns its top level value.
func Unmarshal(data []byte) (Value, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	inPlist := false
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil, errPlist("property list has no value")
		} else if err != nil {
			return nil, core.WrapError(err, core.EFORMAT, "malformed property list")
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !inPlist && start.Name.Local == "plist" {
			inPlist = true
			continue
		}
		if !inPlist {
			return nil, errPlist("expected <plist>, found <%s>", start.Name.Local)
		}
		return Decode(d, start)
	}
}

// ReadFile reads a property list file.
func ReadFile(path string) (Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.WrapError(err, core.EMISSING, "no property list %s", path)
		}
		return nil, core.WrapError(err, core.EINTERNAL, "cannot read %s", path)
	}
	tracer().Debugf("reading property list %s", path)
	v, err := Unmarshal(data)
	if err != nil {
		return nil, core.WrapError(err, core.EFORMAT, "in %s: %s", path, core.UserMessage(err))
	}
	return v, nil
}

// ReadDict reads a property list file with a dictionary at the top level.
func ReadDict(path string) (*Dict, error) {
	v, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, ok := v.(*Dict)
	if !ok {
		return nil, errPlist("in %s: top level value is not a dict", path)
	}
	return d, nil
}

// --- Encoding --------------------------------------------------------------

const header = xml.Header + `<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">` + "\n"

// Encode writes a value to e.
func Encode(e *xml.Encoder, v Value) error {
	switch val := v.(type) {
	case String:
		return e.EncodeElement(string(val), startOf("string"))
	case Array:
		if err := e.EncodeToken(startOf("array")); err != nil {
			return err
		}
		for _, item := range val {
			if err := Encode(e, item); err != nil {
				return err
			}
		}
		return e.EncodeToken(startOf("array").End())
	case *Dict:
		if err := e.EncodeToken(startOf("dict")); err != nil {
			return err
		}
		for _, entry := range val.entries {
			if err := e.EncodeElement(entry.Key, startOf("key")); err != nil {
				return err
			}
			if err := Encode(e, entry.Value); err != nil {
				return err
			}
		}
		return e.EncodeToken(startOf("dict").End())
	case Raw:
		return e.Encode(rawElement{
			XMLName: xml.Name{Local: val.Name},
			Attrs:   val.Attrs,
			Inner:   val.Inner,
		})
	}
	return core.Error(core.EINTERNAL, "cannot encode plist value of type %T", v)
}

func startOf(name string) xml.StartElement {
	return xml.StartElement{Name: xml.Name{Local: name}}
}

// Marshal creates a property list document for a top level value.
func Marshal(v Value) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(header)
	e := xml.NewEncoder(&buf)
	e.Indent("", "\t")
	root := xml.StartElement{
		Name: xml.Name{Local: "plist"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "version"}, Value: "1.0"}},
	}
	if err := e.EncodeToken(root); err != nil {
		return nil, err
	}
	if err := Encode(e, v); err != nil {
		return nil, err
	}
	if err := e.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := e.Flush(); err != nil {
		return nil, err
	}
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// WriteFile writes a property list file. The file is replaced atomically.
func WriteFile(path string, v Value) error {
	data, err := Marshal(v)
	if err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot encode property list %s", path)
	}
	return fileio.WriteAtomic(path, data)
}
