package hashmap

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/npillmayer/glifbez/core"
	"github.com/npillmayer/glifbez/core/fileio"
)

// FileName is the name of the cache file in a UFO's data folder.
const FileName = "com.adobe.type.processedHashMap"

// versionKey is the key of the version marker in the cache file.
const versionKey = "hashMapVersion"

// Version is the version of the cache file format. Caches with a different
// major version are not used.
var Version = [2]int{1, 0}

// Path returns the location of the cache file of a UFO font.
func Path(ufoPath string) string {
	return filepath.Join(ufoPath, "data", FileName)
}

// Load reads the cache file at path into c, replacing all entries.
// A missing file results in an empty cache. So does a cache file of an
// older major version, or without version marker. A cache file of a newer
// major version is an error with code core.EVERSION.
func (c *Cache) Load(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		tracer().Debugf("hashmap: no cache file at %s", path)
		c.reset()
		return nil
	} else if err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot read hash map %s", path)
	}
	entries, err := Unmarshal(data)
	if err != nil {
		return core.WrapError(err, core.Code(err), "in %s: %s", path, core.UserMessage(err))
	}
	c.Lock()
	defer c.Unlock()
	c.entries.Clear()
	for name, e := range entries {
		c.entries.Put(name, e)
	}
	c.changed = false
	tracer().Infof("hashmap: loaded %d entries from %s", len(entries), path)
	return nil
}

func (c *Cache) reset() {
	c.Lock()
	defer c.Unlock()
	c.entries.Clear()
	c.changed = false
}

// Save writes the cache to path, replacing an existing file atomically.
// Saving an empty cache is a no-op.
func (c *Cache) Save(path string) error {
	c.Lock()
	defer c.Unlock()
	if c.entries.Size() == 0 {
		return nil
	}
	if err := fileio.WriteAtomic(path, c.marshal()); err != nil {
		return err
	}
	c.changed = false
	tracer().Infof("hashmap: saved %d entries to %s", c.entries.Size(), path)
	return nil
}

// Marshal returns the cache in its file format.
func (c *Cache) Marshal() []byte {
	c.Lock()
	defer c.Unlock()
	return c.marshal()
}

func (c *Cache) marshal() []byte {
	var b strings.Builder
	version := fmt.Sprintf("%s: (%d, %d),\n", pyString(versionKey), Version[0], Version[1])
	b.WriteString("{\n")
	it := c.entries.Iterator()
	for it.Next() {
		name, e := it.Key().(string), it.Value().(Entry)
		if version != "" && name > versionKey {
			b.WriteString(version)
			version = ""
		}
		hist := make([]string, len(e.History))
		for i, t := range e.History {
			hist[i] = pyString(t)
		}
		fmt.Fprintf(&b, "%s: [%s, [%s]],\n", pyString(name), pyString(e.Hash), strings.Join(hist, ", "))
	}
	b.WriteString(version)
	b.WriteString("}\n")
	return []byte(b.String())
}

// Unmarshal parses cache file data. If the data has no version marker or an
// older major version, the result is empty.
func Unmarshal(data []byte) (map[string]Entry, error) {
	p := &literalParser{src: string(data)}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected data after mapping")
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, p.errorf("hash map is not a mapping")
	}
	entries := make(map[string]Entry)
	vv, ok := m[versionKey]
	if !ok {
		tracer().Infof("Updating hash map: was older version")
		return entries, nil
	}
	major, err := versionMajor(vv)
	if err != nil {
		return nil, err
	}
	if major > Version[0] {
		return nil, core.Error(core.EVERSION,
			"hash map version is newer than program: %d > %d. Please update the program", major, Version[0])
	} else if major < Version[0] {
		tracer().Infof("Updating hash map: was older version")
		return entries, nil
	}
	for name, val := range m {
		if name == versionKey {
			continue
		}
		e, err := toEntry(name, val)
		if err != nil {
			return nil, err
		}
		entries[name] = e
	}
	return entries, nil
}

func versionMajor(v interface{}) (int, error) {
	seq, ok := v.([]interface{})
	if !ok || len(seq) == 0 {
		return 0, core.Error(core.EFORMAT, "malformed hash map version %v", v)
	}
	major, ok := seq[0].(float64)
	if !ok {
		return 0, core.Error(core.EFORMAT, "malformed hash map version %v", v)
	}
	return int(major), nil
}

func toEntry(name string, v interface{}) (Entry, error) {
	malformed := core.Error(core.EFORMAT, "malformed hash map entry for glyph '%s'", name)
	seq, ok := v.([]interface{})
	if !ok || len(seq) != 2 {
		return Entry{}, malformed
	}
	hash, ok := seq[0].(string)
	if !ok {
		return Entry{}, malformed
	}
	hist, ok := seq[1].([]interface{})
	if !ok {
		return Entry{}, malformed
	}
	e := Entry{Hash: hash, History: make([]string, 0, len(hist))}
	for _, h := range hist {
		tool, ok := h.(string)
		if !ok {
			return Entry{}, malformed
		}
		e.History = append(e.History, tool)
	}
	return e, nil
}

// --- Python literals -------------------------------------------------------

// pyString quotes a string the way Python's repr does.
func pyString(s string) string {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}
	var b strings.Builder
	b.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == rune(quote) || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		case !unicode.IsPrint(r):
			if r <= 0xffff {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				fmt.Fprintf(&b, `\U%08x`, r)
			}
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

// literalParser reads the subset of Python literal syntax used by cache
// files: mappings with string keys, lists, tuples, strings and numbers.
// Lists and tuples both result in []interface{}, numbers in float64.
type literalParser struct {
	src string
	pos int
}

func (p *literalParser) errorf(format string, v ...interface{}) error {
	return core.Error(core.EFORMAT, "malformed hash map at offset %d: %s", p.pos, fmt.Sprintf(format, v...))
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		case '#':
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

func (p *literalParser) value() (interface{}, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, p.errorf("unexpected end of data")
	}
	switch ch := p.src[p.pos]; {
	case ch == '{':
		return p.mapping()
	case ch == '[':
		p.pos++
		return p.sequence(']')
	case ch == '(':
		p.pos++
		return p.sequence(')')
	case ch == '\'' || ch == '"':
		return p.str()
	case ch == '-' || ch == '+' || ch == '.' || ('0' <= ch && ch <= '9'):
		return p.number()
	}
	return nil, p.errorf("unexpected character %q", p.src[p.pos])
}

// sequence reads comma separated values up to a closing bracket. A
// trailing comma is allowed.
func (p *literalParser) sequence(closing byte) ([]interface{}, error) {
	seq := []interface{}{}
	for {
		p.skipSpace()
		if p.pos < len(p.src) && p.src[p.pos] == closing {
			p.pos++
			return seq, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		seq = append(seq, v)
		if !p.separator(closing) {
			return nil, p.errorf("expected ',' or '%c'", closing)
		}
	}
}

// separator consumes a comma. It is true if a comma or the closing bracket
// follows.
func (p *literalParser) separator(closing byte) bool {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return false
	}
	if p.src[p.pos] == ',' {
		p.pos++
		return true
	}
	return p.src[p.pos] == closing
}

func (p *literalParser) mapping() (map[string]interface{}, error) {
	p.pos++ // '{'
	m := make(map[string]interface{})
	for {
		p.skipSpace()
		if p.pos < len(p.src) && p.src[p.pos] == '}' {
			p.pos++
			return m, nil
		}
		k, err := p.value()
		if err != nil {
			return nil, err
		}
		key, ok := k.(string)
		if !ok {
			return nil, p.errorf("mapping key is not a string: %v", k)
		}
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ':' {
			return nil, p.errorf("expected ':' after key '%s'", key)
		}
		p.pos++
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		m[key] = v
		if !p.separator('}') {
			return nil, p.errorf("expected ',' or '}'")
		}
	}
}

func (p *literalParser) str() (string, error) {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		ch := p.src[p.pos]
		switch {
		case ch == quote:
			p.pos++
			return b.String(), nil
		case ch == '\n':
			return "", p.errorf("unterminated string")
		case ch == '\\':
			if err := p.escape(&b); err != nil {
				return "", err
			}
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			b.WriteRune(r)
			p.pos += size
		}
	}
	return "", p.errorf("unterminated string")
}

func (p *literalParser) escape(b *strings.Builder) error {
	p.pos++ // '\\'
	if p.pos >= len(p.src) {
		return p.errorf("unterminated string")
	}
	ch := p.src[p.pos]
	p.pos++
	switch ch {
	case '\\', '\'', '"':
		b.WriteByte(ch)
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 'x', 'u', 'U':
		n := map[byte]int{'x': 2, 'u': 4, 'U': 8}[ch]
		if p.pos+n > len(p.src) {
			return p.errorf("truncated escape sequence")
		}
		r, err := strconv.ParseUint(p.src[p.pos:p.pos+n], 16, 32)
		if err != nil {
			return p.errorf("invalid escape sequence \\%c%s", ch, p.src[p.pos:p.pos+n])
		}
		b.WriteRune(rune(r))
		p.pos += n
	case '\n':
		// line continuation
	default:
		b.WriteByte('\\')
		b.WriteByte(ch)
	}
	return nil
}

func (p *literalParser) number() (float64, error) {
	start := p.pos
	for p.pos < len(p.src) && strings.IndexByte("+-.0123456789eE_", p.src[p.pos]) >= 0 {
		p.pos++
	}
	x, err := strconv.ParseFloat(strings.ReplaceAll(p.src[start:p.pos], "_", ""), 64)
	if err != nil {
		return 0, p.errorf("invalid number '%s'", p.src[start:p.pos])
	}
	return x, nil
}
