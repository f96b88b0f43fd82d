package lod

import (
	"errors"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestMaxLOD(t *testing.T) {
	tests := map[int]int{3: 1, 5: 2, 9: 3, 17: 4, 33: 5, 65: 6, 129: 7}
	for dim, want := range tests {
		got, err := MaxLOD(dim)
		if err != nil {
			t.Errorf("MaxLOD(%d): %v", dim, err)
			continue
		}
		if got != want {
			t.Errorf("MaxLOD(%d) = %d, want %d", dim, got, want)
		}
	}
}

func TestMaxLODRejectsNonPowerOfTwo(t *testing.T) {
	for _, dim := range []int{0, 1, 2, 4, 6, 64, 66, 100} {
		if _, err := MaxLOD(dim); !errors.Is(err, ErrConfiguration) {
			t.Errorf("MaxLOD(%d) err = %v, want ErrConfiguration", dim, err)
		}
	}
}

func TestIndexCountMatchesFormula(t *testing.T) {
	for k := 1; k <= 7; k++ {
		dim := 1<<k + 1
		for l := 0; l <= k; l++ {
			idx, err := Indices(dim, l)
			if err != nil {
				t.Fatalf("Indices(%d,%d): %v", dim, l, err)
			}
			cells := (dim - 1) / (1 << l)
			want := 6 * cells * cells
			if len(idx) != want || IndexCount(dim, l) != want {
				t.Errorf("dim %d lod %d: len=%d IndexCount=%d want %d", dim, l, len(idx), IndexCount(dim, l), want)
			}
		}
	}
}

func TestSingleQuadWinding(t *testing.T) {
	idx, err := Indices(3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(idx[:6], []uint32{0, 3, 1, 1, 3, 4}) {
		t.Fatalf("first quad = %v, want [0 3 1 1 3 4]", idx[:6])
	}
}

func vertex(i uint32, dim int) mgl32.Vec3 {
	return mgl32.Vec3{float32(int(i) % dim), 0, float32(int(i) / dim)}
}

func TestTrianglesFaceUp(t *testing.T) {
	for _, dim := range []int{3, 9, 17} {
		levels, err := Levels(dim)
		if err != nil {
			t.Fatal(err)
		}
		for _, lvl := range levels {
			for i := 0; i < len(lvl.Indices); i += 3 {
				a := vertex(lvl.Indices[i], dim)
				b := vertex(lvl.Indices[i+1], dim)
				c := vertex(lvl.Indices[i+2], dim)
				n := b.Sub(a).Cross(c.Sub(a))
				if n.Y() <= 0 {
					t.Fatalf("dim %d lod %d triangle %d: normal %v not facing +y", dim, lvl.LOD, i/3, n)
				}
				if n.Len() == 0 {
					t.Fatalf("dim %d lod %d triangle %d degenerate", dim, lvl.LOD, i/3)
				}
			}
		}
	}
}

func TestIndicesStayInChunk(t *testing.T) {
	const dim = 17
	levels, err := Levels(dim)
	if err != nil {
		t.Fatal(err)
	}
	if len(levels) != 5 {
		t.Fatalf("levels = %d, want 5", len(levels))
	}
	for _, lvl := range levels {
		step := lvl.Step()
		for _, v := range lvl.Indices {
			if int(v) >= dim*dim {
				t.Fatalf("lod %d index %d outside grid", lvl.LOD, v)
			}
			x, z := int(v)%dim, int(v)/dim
			if x%step != 0 || z%step != 0 {
				t.Fatalf("lod %d references off-stride vertex (%d,%d)", lvl.LOD, x, z)
			}
		}
	}
}

func TestCoarsestLevelCoversCorners(t *testing.T) {
	idx, err := Indices(65, 6)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(idx, []uint32{0, 64 * 65, 64, 64, 64 * 65, 64*65 + 64}) {
		t.Fatalf("coarsest level = %v", idx)
	}
}

func TestIndicesRejectsLODOutOfRange(t *testing.T) {
	if _, err := Indices(9, 4); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
	if _, err := Indices(9, -1); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func BenchmarkLevels(b *testing.B) {
	for b.Loop() {
		if _, err := Levels(257); err != nil {
			b.Fatal(err)
		}
	}
}
