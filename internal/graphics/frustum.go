package graphics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type plane struct{ a, b, c, d float32 }

// Frustum holds the six clip planes of a view-projection matrix in the
// order left, right, bottom, top, near, far. Plane normals point inwards.
type Frustum struct {
	planes [6]plane
	// Margin inflates boxes before testing.
	Margin float32
}

// NewFrustum extracts the planes of clip = projection * view. clip must use
// OpenGL depth conventions ([-1, 1]).
func NewFrustum(clip mgl32.Mat4) Frustum {
	row := func(r int) [4]float32 {
		return [4]float32{clip[r], clip[4+r], clip[8+r], clip[12+r]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)
	add := func(a, b [4]float32, s float32) plane {
		return normalizePlane(plane{a[0] + s*b[0], a[1] + s*b[1], a[2] + s*b[2], a[3] + s*b[3]})
	}
	return Frustum{planes: [6]plane{
		add(r3, r0, 1),
		add(r3, r0, -1),
		add(r3, r1, 1),
		add(r3, r1, -1),
		add(r3, r2, 1),
		add(r3, r2, -1),
	}}
}

func normalizePlane(p plane) plane {
	l := float32(math.Sqrt(float64(p.a*p.a + p.b*p.b + p.c*p.c)))
	if l == 0 {
		return p
	}
	return plane{p.a / l, p.b / l, p.c / l, p.d / l}
}

// ContainsAABB reports whether the box intersects or lies inside the
// frustum. It can report false positives near frustum corners.
func (f Frustum) ContainsAABB(lo, hi mgl32.Vec3) bool {
	m := mgl32.Vec3{f.Margin, f.Margin, f.Margin}
	lo, hi = lo.Sub(m), hi.Add(m)
	for _, p := range f.planes {
		// Test the corner furthest along the plane normal.
		x, y, z := hi.X(), hi.Y(), hi.Z()
		if p.a < 0 {
			x = lo.X()
		}
		if p.b < 0 {
			y = lo.Y()
		}
		if p.c < 0 {
			z = lo.Z()
		}
		if p.a*x+p.b*y+p.c*z+p.d < 0 {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether p lies inside the frustum.
func (f Frustum) ContainsPoint(p mgl32.Vec3) bool {
	return f.ContainsAABB(p, p)
}
