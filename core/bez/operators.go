package bez

import "fmt"

// Operator is a bez path or hint operator.
type Operator int

// Operators of the bez format, as far as they are understood by this package.
const (
	NoOp Operator = iota
	OpMoveTo
	OpRMoveTo
	OpLineTo
	OpCurveTo
	OpClosePath
	OpStartGlyph
	OpEndGlyph
	OpNewHints
	OpHStem
	OpVStem
	OpVStem3
	OpHStem3
	OpPreFlex1
	OpPreFlex2
	OpFlex
	OpDiv
	OpBeginSubr
	OpEndSubr
	OpNewColors
	OpEnc
)

var operatorTokens = [...]string{
	NoOp:         "",
	OpMoveTo:     "mt",
	OpRMoveTo:    "rmt",
	OpLineTo:     "dt",
	OpCurveTo:    "ct",
	OpClosePath:  "cp",
	OpStartGlyph: "sc",
	OpEndGlyph:   "ed",
	OpNewHints:   "snc",
	OpHStem:      "rb",
	OpVStem:      "ry",
	OpVStem3:     "rm",
	OpHStem3:     "rv",
	OpPreFlex1:   "preflx1",
	OpPreFlex2:   "preflx2a",
	OpFlex:       "flxa",
	OpDiv:        "div",
	OpBeginSubr:  "beginsubr",
	OpEndSubr:    "endsubr",
	OpNewColors:  "newcolors",
	OpEnc:        "enc",
}

var operatorLookup map[string]Operator

func init() {
	operatorLookup = make(map[string]Operator, len(operatorTokens))
	for op, tok := range operatorTokens {
		if tok != "" {
			operatorLookup[tok] = Operator(op)
		}
	}
}

// LookupOperator finds the operator for a bez token.
func LookupOperator(token string) (Operator, bool) {
	op, ok := operatorLookup[token]
	return op, ok
}

func (op Operator) String() string {
	if op > NoOp && int(op) < len(operatorTokens) {
		return operatorTokens[op]
	}
	return fmt.Sprintf("Operator(%d)", int(op))
}

// argCount is the number of arguments an operator consumes.
// Operators with a count of -1 discard the argument stack.
func (op Operator) argCount() int {
	switch op {
	case OpMoveTo, OpRMoveTo, OpLineTo, OpHStem, OpVStem, OpHStem3, OpVStem3, OpDiv:
		return 2
	case OpCurveTo:
		return 6
	case OpFlex:
		return 12
	case OpPreFlex1, OpPreFlex2:
		return -1
	}
	return 0
}
