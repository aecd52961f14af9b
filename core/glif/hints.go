package glif

import (
	"github.com/npillmayer/glifbez/core/bez"
	"github.com/npillmayer/glifbez/core/plist"
)

// Keys of the hint record dictionary.
const (
	keyID          = "id"
	keyHintSetList = "hintSetList"
	keyPointTag    = "pointTag"
	keyStems       = "stems"
	keyFlexList    = "flexList"
)

// SetHintData stores a hint record in the glyph's lib, creating the lib if
// necessary. Existing hint records, including those of the outdated format,
// are removed first.
func (g *Glyph) SetHintData(hd *bez.HintData) {
	if g.Lib == nil {
		g.Lib = &plist.Dict{}
	}
	g.Lib.Delete(HintKeyV1)
	g.Lib.Delete(HintKey)
	sets := plist.Array{}
	for _, hs := range hd.HintSets {
		sets = append(sets, plist.NewDict(
			plist.Entry{Key: keyPointTag, Value: plist.String(hs.PointTag)},
			plist.Entry{Key: keyStems, Value: plist.Strings(hs.Stems...)},
		))
	}
	rec := plist.NewDict(
		plist.Entry{Key: keyID, Value: plist.String(hd.ID)},
		plist.Entry{Key: keyHintSetList, Value: sets},
	)
	if len(hd.FlexList) > 0 {
		rec.Set(keyFlexList, plist.Strings(hd.FlexList...))
	}
	g.Lib.Set(HintKey, rec)
}

// HintData reads the hint record from the glyph's lib. It returns nil if
// the glyph has no hint record.
func (g *Glyph) HintData() (*bez.HintData, error) {
	if g.Lib == nil {
		return nil, nil
	}
	v, ok := g.Lib.Get(HintKey)
	if !ok {
		return nil, nil
	}
	rec, ok := v.(*plist.Dict)
	if !ok {
		return nil, errFormat("hint record of glyph '%s' is not a dict", g.Name)
	}
	hd := &bez.HintData{}
	hd.ID, _ = rec.String(keyID)
	if v, ok := rec.Get(keyHintSetList); ok {
		sets, ok := v.(plist.Array)
		if !ok {
			return nil, errFormat("hint set list of glyph '%s' is not an array", g.Name)
		}
		for _, s := range sets {
			d, ok := s.(*plist.Dict)
			if !ok {
				return nil, errFormat("hint set of glyph '%s' is not a dict", g.Name)
			}
			hs := bez.HintSet{Stems: []string{}}
			hs.PointTag, _ = d.String(keyPointTag)
			if _, present := d.Get(keyStems); present {
				if hs.Stems, ok = d.Strings(keyStems); !ok {
					return nil, errFormat("stems of glyph '%s' are not a list of strings", g.Name)
				}
			}
			hd.HintSets = append(hd.HintSets, hs)
		}
	}
	if _, present := rec.Get(keyFlexList); present {
		if hd.FlexList, ok = rec.Strings(keyFlexList); !ok {
			return nil, errFormat("flex list of glyph '%s' is not a list of strings", g.Name)
		}
	}
	return hd, nil
}
