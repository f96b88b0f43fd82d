package heightmap

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// HeightAt bilinearly interpolates the scaled height at a point given in
// heightmap space (grid coordinates multiplied by scaling, no recentering).
// ok is false outside the grid.
func (h *Heightmap) HeightAt(px, pz float32) (height float32, ok bool) {
	gx := px / h.scaling.X()
	gz := pz / h.scaling.Z()
	last := float32(h.dimension - 1)
	if gx < 0 || gz < 0 || gx > last || gz > last {
		return 0, false
	}

	x0 := int(gx)
	z0 := int(gz)
	x1 := min(x0+1, h.dimension-1)
	z1 := min(z0+1, h.dimension-1)
	fx := gx - float32(x0)
	fz := gz - float32(z0)

	at := func(x, z int) float32 { return h.samples[z*h.dimension+x] }
	top := at(x0, z0) + (at(x1, z0)-at(x0, z0))*fx
	bottom := at(x0, z1) + (at(x1, z1)-at(x0, z1))*fx
	return (top + (bottom-top)*fz) * h.scaling.Y(), true
}

const refineSteps = 12

// Raycast marches a ray in heightmap space and returns the first point at
// or below the surface within maxDist.
func (h *Heightmap) Raycast(origin, dir mgl32.Vec3, maxDist float32) (mgl32.Vec3, bool) {
	if dir.Len() == 0 || maxDist <= 0 {
		return mgl32.Vec3{}, false
	}
	dir = dir.Normalize()
	step := float32(math.Min(float64(h.scaling.X()), float64(h.scaling.Z()))) / 2

	below := func(t float32) (bool, bool) {
		p := origin.Add(dir.Mul(t))
		ground, ok := h.HeightAt(p.X(), p.Z())
		return ok && p.Y() <= ground, ok
	}

	prev := float32(0)
	entered := false
	for t := float32(0); t <= maxDist; t += step {
		hit, inside := below(t)
		if inside {
			entered = true
		} else if entered {
			// Left the grid after crossing it.
			return mgl32.Vec3{}, false
		}
		if hit {
			lo, hi := prev, t
			for range refineSteps {
				mid := (lo + hi) / 2
				if ok, _ := below(mid); ok {
					hi = mid
				} else {
					lo = mid
				}
			}
			return origin.Add(dir.Mul(hi)), true
		}
		prev = t
	}
	return mgl32.Vec3{}, false
}
