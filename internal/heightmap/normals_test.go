package heightmap

import (
	"context"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func flat(t *testing.T, dim int, value float32, scaling mgl32.Vec3) *Heightmap {
	t.Helper()
	samples := make([]float32, dim*dim)
	for i := range samples {
		samples[i] = value
	}
	hm, err := New(dim, samples, scaling, UnitRange)
	if err != nil {
		t.Fatal(err)
	}
	return hm
}

func TestNormalsFlatPointUp(t *testing.T) {
	hm := flat(t, 9, 0.3, DefaultScaling)
	normals, err := hm.Normals(context.Background(), 3)
	if err != nil {
		t.Fatalf("Normals: %v", err)
	}
	if len(normals) != 81 {
		t.Fatalf("len = %d", len(normals))
	}
	up := mgl32.Vec3{0, 1, 0}
	for i, n := range normals {
		if !n.ApproxEqual(up) {
			t.Fatalf("normal %d = %v, want %v", i, n, up)
		}
	}
}

func TestNormalsLeanAwayFromSlope(t *testing.T) {
	const dim = 5
	samples := make([]float32, dim*dim)
	for y := range dim {
		for x := range dim {
			samples[y*dim+x] = float32(x) / (dim - 1)
		}
	}
	hm, err := New(dim, samples, mgl32.Vec3{1, 1, 1}, UnitRange)
	if err != nil {
		t.Fatal(err)
	}
	normals, err := hm.Normals(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	n := normals[2*dim+2]
	if n.X() >= 0 || n.Y() <= 0 {
		t.Errorf("normal on rising x slope = %v, want negative x and positive y", n)
	}
	if d := n.Len() - 1; d > 1e-5 || d < -1e-5 {
		t.Errorf("normal not unit length: %v", n.Len())
	}
}

func TestNormalsHonourCancellation(t *testing.T) {
	hm := flat(t, 64, 0, DefaultScaling)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := hm.Normals(ctx, 2); err == nil {
		t.Fatal("expected context error")
	}
}

func TestNormalBytesStride(t *testing.T) {
	b := NormalBytes([]mgl32.Vec3{{0, 1, 0}, {1, 0, 0}})
	if len(b) != 32 {
		t.Fatalf("len = %d, want 32", len(b))
	}
}

func BenchmarkNormals(b *testing.B) {
	hm, err := Generate(DefaultNoiseOptions(257))
	if err != nil {
		b.Fatal(err)
	}
	for b.Loop() {
		if _, err := hm.Normals(context.Background(), 0); err != nil {
			b.Fatal(err)
		}
	}
}
