package chunk

import (
	"errors"
	"testing"

	"lodterrain/internal/heightmap"

	"github.com/go-gl/mathgl/mgl32"
)

func TestCount(t *testing.T) {
	tests := []struct {
		terrain, chunk int
		perDim         int
	}{
		{65, 65, 1},
		{1025, 65, 16},
		{129, 65, 2},
		{100, 65, 2},
		{9, 3, 4},
		{5, 2, 4},
	}
	for _, tt := range tests {
		if got := ChunksPerDimension(tt.terrain, tt.chunk); got != tt.perDim {
			t.Errorf("ChunksPerDimension(%d,%d) = %d, want %d", tt.terrain, tt.chunk, got, tt.perDim)
		}
		if got := Count(tt.terrain, tt.chunk); got != tt.perDim*tt.perDim {
			t.Errorf("Count(%d,%d) = %d, want %d", tt.terrain, tt.chunk, got, tt.perDim*tt.perDim)
		}
	}
	if Count(65, 65) != 1 || Count(1025, 65) != 256 {
		t.Fatal("locked seam convention changed")
	}
}

func TestCoveredDimension(t *testing.T) {
	if got := CoveredDimension(1025, 65); got != 1025 {
		t.Errorf("exact division covered = %d", got)
	}
	if got := CoveredDimension(100, 65); got != 129 {
		t.Errorf("padded covered = %d, want 129", got)
	}
}

func TestSeamSharing(t *testing.T) {
	const chunkDim, perDim = 9, 4
	for row := range perDim {
		for col := range perDim - 1 {
			left := row*perDim + col
			right := left + 1
			for y := range chunkDim {
				lx, ly := GlobalSampleCoordinate(chunkDim-1, y, left, chunkDim, perDim)
				rx, ry := GlobalSampleCoordinate(0, y, right, chunkDim, perDim)
				if lx != rx || ly != ry {
					t.Fatalf("chunks %d/%d row %d: (%d,%d) != (%d,%d)", left, right, y, lx, ly, rx, ry)
				}
			}
		}
	}
	for row := range perDim - 1 {
		for col := range perDim {
			top := row*perDim + col
			bottom := top + perDim
			for x := range chunkDim {
				tx, ty := GlobalSampleCoordinate(x, chunkDim-1, top, chunkDim, perDim)
				bx, by := GlobalSampleCoordinate(x, 0, bottom, chunkDim, perDim)
				if tx != bx || ty != by {
					t.Fatalf("chunks %d/%d column %d: (%d,%d) != (%d,%d)", top, bottom, x, tx, ty, bx, by)
				}
			}
		}
	}
}

func grid(t *testing.T, dim int) *heightmap.Heightmap {
	t.Helper()
	samples := make([]float32, dim*dim)
	for y := range dim {
		for x := range dim {
			samples[y*dim+x] = float32(x+y) / float32(2*(dim-1))
		}
	}
	hm, err := heightmap.New(dim, samples, mgl32.Vec3{1, 2, 1}, heightmap.UnitRange)
	if err != nil {
		t.Fatal(err)
	}
	return hm
}

func TestPartitionOrderAndOffsets(t *testing.T) {
	hm := grid(t, 5)
	chunks, err := Partition(hm, 5, 3, CenteredLayout(hm, 5))
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}
	if len(chunks) != 4 {
		t.Fatalf("len = %d, want 4", len(chunks))
	}
	want := []mgl32.Vec3{{-2, -1, -2}, {0, -1, -2}, {-2, -1, 0}, {0, -1, 0}}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
		if c.Row != i/2 || c.Col != i%2 {
			t.Errorf("chunk %d at row %d col %d", i, c.Row, c.Col)
		}
		if !c.WorldOffset.ApproxEqual(want[i]) {
			t.Errorf("chunk %d offset = %v, want %v", i, c.WorldOffset, want[i])
		}
		m := c.Model()
		if !m.Col(3).Vec3().ApproxEqual(c.WorldOffset) {
			t.Errorf("chunk %d model translation = %v", i, m.Col(3))
		}
	}
}

func TestPartitionBounds(t *testing.T) {
	hm := grid(t, 5)
	chunks, err := Partition(hm, 5, 3, CenteredLayout(hm, 5))
	if err != nil {
		t.Fatal(err)
	}
	// Chunk 3 spans samples (2..4, 2..4): heights 0.5..1, scaled by 2, baseline -1.
	b := chunks[3].Bounds
	if !b.Min.ApproxEqual(mgl32.Vec3{0, 0, 0}) || !b.Max.ApproxEqual(mgl32.Vec3{2, 1, 2}) {
		t.Errorf("bounds = %+v", b)
	}
}

func TestPartitionNeedsCoveredHeightmap(t *testing.T) {
	hm := grid(t, 6)
	if _, err := Partition(hm, 6, 3, CenteredLayout(hm, 6)); !errors.Is(err, heightmap.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange for unpadded grid, got %v", err)
	}

	padded, err := hm.Pad(CoveredDimension(6, 3))
	if err != nil {
		t.Fatal(err)
	}
	chunks, err := Partition(padded, 6, 3, CenteredLayout(padded, 6))
	if err != nil {
		t.Fatalf("Partition padded: %v", err)
	}
	if len(chunks) != 9 {
		t.Fatalf("len = %d, want 9", len(chunks))
	}
}

func TestPartitionRejectsBadDimensions(t *testing.T) {
	hm := grid(t, 5)
	for _, c := range [][2]int{{5, 1}, {3, 5}} {
		if _, err := Partition(hm, c[0], c[1], CenteredLayout(hm, c[0])); !errors.Is(err, ErrConfiguration) {
			t.Errorf("Partition(%d,%d) err = %v, want ErrConfiguration", c[0], c[1], err)
		}
	}
}
