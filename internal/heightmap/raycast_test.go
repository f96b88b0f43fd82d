package heightmap

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestHeightAtInterpolates(t *testing.T) {
	hm, err := New(2, []float32{0, 1, 0, 1}, mgl32.Vec3{2, 4, 2}, UnitRange)
	if err != nil {
		t.Fatal(err)
	}
	h, ok := hm.HeightAt(1, 1)
	if !ok {
		t.Fatal("point inside grid reported outside")
	}
	if h != 2 {
		t.Errorf("HeightAt(1,1) = %v, want 2", h)
	}
	if _, ok := hm.HeightAt(-0.1, 0); ok {
		t.Error("negative coordinate reported inside")
	}
	if _, ok := hm.HeightAt(2.5, 0); ok {
		t.Error("coordinate past the edge reported inside")
	}
}

func TestRaycastHitsFlatGround(t *testing.T) {
	hm := flat(t, 11, 0.5, mgl32.Vec3{1, 2, 1})
	hit, ok := hm.Raycast(mgl32.Vec3{5, 10, 5}, mgl32.Vec3{0, -1, 0}, 20)
	if !ok {
		t.Fatal("expected hit")
	}
	if d := hit.Y() - 1; d > 1e-2 || d < -1e-2 {
		t.Errorf("hit height = %v, want 1", hit.Y())
	}
	if hit.X() != 5 || hit.Z() != 5 {
		t.Errorf("hit moved sideways: %v", hit)
	}
}

func TestRaycastMisses(t *testing.T) {
	hm := flat(t, 11, 0.5, mgl32.Vec3{1, 2, 1})
	if _, ok := hm.Raycast(mgl32.Vec3{5, 10, 5}, mgl32.Vec3{0, 1, 0}, 20); ok {
		t.Error("upward ray hit the ground")
	}
	if _, ok := hm.Raycast(mgl32.Vec3{5, 10, 5}, mgl32.Vec3{}, 20); ok {
		t.Error("zero direction hit the ground")
	}
	if _, ok := hm.Raycast(mgl32.Vec3{5, 10, 5}, mgl32.Vec3{0, -1, 0}, 5); ok {
		t.Error("ray shorter than the drop hit the ground")
	}
}
