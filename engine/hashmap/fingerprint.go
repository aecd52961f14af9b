package hashmap

import (
	"crypto/sha512"
	"encoding/hex"
	"strings"

	"github.com/npillmayer/glifbez/core/outline"
)

// ComponentSource resolves the outlines of component base glyphs.
// If fromSource is set, base glyphs are read from the font's source layer.
// Otherwise they are read from the layer a processing tool reads from,
// falling back to the source layer.
type ComponentSource interface {
	ComponentOutline(glyphName string, fromSource bool) (*outline.Outline, error)
}

// maxPlainFingerprint is the length limit for fingerprints kept as plain
// text. Longer fingerprints are replaced by their SHA-512 digest.
const maxPlainFingerprint = 128

// Fingerprint computes the content hash of a glyph: its advance width and
// the marking geometry of its outline. Contours with less than two points
// do not contribute. Components contribute their base glyph name, their
// transform and the fingerprint data of the base glyph.
func Fingerprint(width float64, o *outline.Outline, src ComponentSource, fromSource bool) (string, error) {
	var b strings.Builder
	if err := fingerprintData(&b, width, o, src, fromSource, 0, ""); err != nil {
		return "", err
	}
	data := b.String()
	if len(data) < maxPlainFingerprint {
		return data, nil
	}
	sum := sha512.Sum512([]byte(data))
	return hex.EncodeToString(sum[:]), nil
}

func fingerprintData(b *strings.Builder, width float64, o *outline.Outline, src ComponentSource,
	fromSource bool, depth int, name string) error {
	//
	if depth > outline.MaxComponentDepth {
		return outline.ErrDepth(name)
	}
	b.WriteString("w" + outline.FormatNumber(width))
	if o == nil {
		return nil
	}
	for _, e := range o.Elements {
		switch el := e.(type) {
		case *outline.Contour:
			if el.IsDegenerate() {
				continue
			}
			for _, p := range el.Points {
				b.WriteString(p.Kind.Prefix())
				b.WriteString(outline.FormatNumber(p.X))
				b.WriteString(outline.FormatNumber(p.Y))
			}
		case *outline.Component:
			b.WriteString("base:" + el.Base)
			coeffs := el.Transform.Coefficients()
			for i, x := range coeffs {
				if x != outline.Identity.Coefficients()[i] {
					b.WriteString(outline.FormatNumber(x))
				}
			}
			if src == nil {
				return outline.NotFound(el.Base)
			}
			base, err := src.ComponentOutline(el.Base, fromSource)
			if err != nil {
				return err
			}
			if err := fingerprintData(b, width, base, src, fromSource, depth+1, el.Base); err != nil {
				return err
			}
		}
	}
	return nil
}
