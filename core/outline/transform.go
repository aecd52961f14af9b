package outline

import (
	"seehuhn.de/go/geom/matrix"
)

// Transform is the affine transform of a component. Coefficients are kept
// in GLIF attribute order: xScale, xyScale, yxScale, yScale, xOffset, yOffset.
//
// Nested components are very often pure translations; IsOffsetOnly allows
// Compose and Apply to skip the matrix arithmetic for them.
type Transform struct {
	m            matrix.Matrix
	IsDefault    bool // the identity transform
	IsOffsetOnly bool // the linear part is the identity
}

// Identity is the default transform of a component.
var Identity = Transform{m: matrix.Identity, IsDefault: true, IsOffsetOnly: true}

// Offset creates a pure translation.
func Offset(dx, dy float64) Transform {
	return NewTransform(nil, nil, nil, nil, &dx, &dy)
}

// Matrix creates a transform from all six coefficients.
func Matrix(xScale, xyScale, yxScale, yScale, xOffset, yOffset float64) Transform {
	return NewTransform(&xScale, &xyScale, &yxScale, &yScale, &xOffset, &yOffset)
}

// NewTransform creates a transform from optional component attributes.
// A missing scale defaults to 1, missing skew and offset values default to 0.
func NewTransform(xScale, xyScale, yxScale, yScale, xOffset, yOffset *float64) Transform {
	t := Identity
	set := func(i int, v *float64, dflt float64) {
		if v == nil || *v == dflt {
			return
		}
		t.m[i] = *v
		t.IsDefault = false
		if i < 4 {
			t.IsOffsetOnly = false
		}
	}
	set(0, xScale, 1)
	set(1, xyScale, 0)
	set(2, yxScale, 0)
	set(3, yScale, 1)
	set(4, xOffset, 0)
	set(5, yOffset, 0)
	return t
}

// Coefficients returns the six coefficients of t.
func (t Transform) Coefficients() matrix.Matrix {
	if t == (Transform{}) {
		return matrix.Identity
	}
	return t.m
}

// Compose returns the transform which applies t first and parent second.
// This is the transform of a component nested inside a component with
// transform parent.
func (t Transform) Compose(parent Transform) Transform {
	t = t.norm()
	parent = parent.norm()
	if parent.IsDefault {
		return t
	}
	if parent.IsOffsetOnly {
		t.m = t.m.Translate(parent.m[4], parent.m[5])
		t.IsDefault = false
		return t
	}
	return Transform{
		m:            t.m.Mul(parent.m),
		IsDefault:    false,
		IsOffsetOnly: t.IsOffsetOnly && parent.IsOffsetOnly,
	}
}

// Apply maps a point through t.
func (t Transform) Apply(x, y float64) (float64, float64) {
	t = t.norm()
	if t.IsOffsetOnly {
		return x + t.m[4], y + t.m[5]
	}
	return t.m.Apply(x, y)
}

// norm turns the zero value into the identity.
func (t Transform) norm() Transform {
	if t == (Transform{}) {
		return Identity
	}
	return t
}
