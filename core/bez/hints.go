package bez

import (
	"fmt"
	"sort"
	"strings"

	"github.com/npillmayer/glifbez/core/outline"
)

// StackLimit is the operand stack size of the Type 1 interpreter. It
// limits the number of stem hints in a hint set.
const StackLimit = 46

// HintLimit is the maximum number of stems (or counter groups) per axis
// in a hint set.
const HintLimit = (StackLimit - 2) / 2

// Prefixes for generated point names.
const (
	HintSetPrefix = "hintSet"
	FlexPrefix    = "flexCurve"
)

// Stem is a stem hint: a position and a width.
type Stem struct {
	Pos, Width float64
}

// Stem3 is a counter hint: three stems hinted together.
type Stem3 [3]Stem

// HintMask is a set of stem hints which becomes active at a point of the
// path.
type HintMask struct {
	OpIndex   int    // index of the path operator the mask is active for
	PointName string // name of the anchoring point
	H, V      []Stem
	HStem3    []Stem3
	VStem3    []Stem3
}

// NewHintMask creates an empty hint mask, named after the path operator
// index it becomes active at.
func NewHintMask(opIndex int) *HintMask {
	return &HintMask{
		OpIndex:   opIndex,
		PointName: PointName(HintSetPrefix, opIndex),
	}
}

// PointName creates a name for a point which anchors a hint.
func PointName(prefix string, opIndex int) string {
	return fmt.Sprintf("%s%04d", prefix, opIndex)
}

// IsEmpty is true if the mask holds no stems.
func (m *HintMask) IsEmpty() bool {
	return len(m.H)+len(m.V)+len(m.HStem3)+len(m.VStem3) == 0
}

// HintSet serializes a mask. Per axis, a mask either has counter hints or
// plain stem hints; if both are present, the counter hints win.
// Hints exceeding HintLimit are truncated after sorting by position.
func (m *HintMask) HintSet() HintSet {
	hs := HintSet{PointTag: m.PointName, Stems: []string{}}
	hs.Stems = appendStems(hs.Stems, "hstem", m.H, m.HStem3)
	hs.Stems = appendStems(hs.Stems, "vstem", m.V, m.VStem3)
	return hs
}

func appendStems(dst []string, op string, stems []Stem, groups []Stem3) []string {
	if len(groups) > 0 {
		groups = append([]Stem3(nil), groups...)
		sort.SliceStable(groups, func(i, j int) bool {
			for k := range groups[i] {
				if groups[i][k] != groups[j][k] {
					return lessStem(groups[i][k], groups[j][k])
				}
			}
			return false
		})
		if len(groups) > HintLimit {
			tracer().Infof("truncating %d %s3 hints to %d", len(groups), op, HintLimit)
			groups = groups[:HintLimit]
		}
		var b strings.Builder
		b.WriteString(op + "3")
		for _, g := range groups {
			for _, s := range g {
				b.WriteString(" " + outline.FormatNumber(s.Pos) + " " + outline.FormatNumber(s.Width))
			}
		}
		return append(dst, b.String())
	}
	if len(stems) == 0 {
		return dst
	}
	stems = append([]Stem(nil), stems...)
	sort.SliceStable(stems, func(i, j int) bool {
		return lessStem(stems[i], stems[j])
	})
	if len(stems) > HintLimit {
		tracer().Infof("truncating %d %s hints to %d", len(stems), op, HintLimit)
		stems = stems[:HintLimit]
	}
	for _, s := range stems {
		dst = append(dst, op+" "+outline.FormatNumber(s.Pos)+" "+outline.FormatNumber(s.Width))
	}
	return dst
}

func lessStem(a, b Stem) bool {
	if a.Pos != b.Pos {
		return a.Pos < b.Pos
	}
	return a.Width < b.Width
}

// HintSet is the serialized form of a hint mask.
type HintSet struct {
	PointTag string
	Stems    []string // "hstem pos width", "vstem3 pos width pos width pos width", …
}

// HintData is the hint record of a glyph, stored in the glyph's private
// lib data.
type HintData struct {
	ID       string // fingerprint of the outline the hints belong to
	HintSets []HintSet
	FlexList []string // names of points starting a flex curve pair
}

// assembleHints builds the hint record for a list of hint masks and flex
// point names.
func assembleHints(masks []*HintMask, flex []string) *HintData {
	hd := &HintData{ID: "id"}
	for _, m := range masks {
		hd.HintSets = append(hd.HintSets, m.HintSet())
	}
	if len(flex) > 0 {
		hd.FlexList = append([]string(nil), flex...)
	}
	return hd
}
