package heightmap

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func ramp(t *testing.T, dim int) *Heightmap {
	t.Helper()
	samples := make([]float32, dim*dim)
	for i := range samples {
		samples[i] = float32(i)
	}
	hm, err := New(dim, samples, DefaultScaling, Range{Min: 0, Max: float32(dim*dim - 1)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return hm
}

func TestNewValidatesSampleCount(t *testing.T) {
	if _, err := New(3, make([]float32, 8), DefaultScaling, UnitRange); err == nil {
		t.Fatal("expected error for short sample slice")
	}
	if _, err := New(0, nil, DefaultScaling, UnitRange); err == nil {
		t.Fatal("expected error for zero dimension")
	}
	if _, err := New(1, []float32{0}, DefaultScaling, Range{Min: 1, Max: 0}); err == nil {
		t.Fatal("expected error for inverted range")
	}
}

func TestValueRowMajor(t *testing.T) {
	hm := ramp(t, 4)
	for y := range 4 {
		for x := range 4 {
			v, err := hm.Value(x, y)
			if err != nil {
				t.Fatalf("Value(%d,%d): %v", x, y, err)
			}
			if want := float32(y*4 + x); v != want {
				t.Errorf("Value(%d,%d) = %v, want %v", x, y, v, want)
			}
		}
	}
}

func TestValueOutOfRange(t *testing.T) {
	hm := ramp(t, 4)
	cases := [][2]int{{4, 0}, {0, 4}, {-1, 0}, {0, -1}, {10, 10}}
	for _, c := range cases {
		if _, err := hm.Value(c[0], c[1]); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Value(%d,%d) err = %v, want ErrOutOfRange", c[0], c[1], err)
		}
	}
}

func TestMustValuePanicsOutOfRange(t *testing.T) {
	hm := ramp(t, 2)
	defer func() {
		if recover() == nil {
			t.Fatal("MustValue did not panic")
		}
	}()
	hm.MustValue(2, 0)
}

func TestSamplesIsCopy(t *testing.T) {
	hm := ramp(t, 2)
	s := hm.Samples()
	s[0] = 99
	if v := hm.MustValue(0, 0); v != 0 {
		t.Fatalf("heightmap mutated through Samples copy: %v", v)
	}
}

func TestRangeMid(t *testing.T) {
	if got := UnitRange.Mid(); got != 0.5 {
		t.Errorf("UnitRange.Mid() = %v", got)
	}
	if got := (Range{Min: 0, Max: 255}).Mid(); got != 127.5 {
		t.Errorf("byte range mid = %v", got)
	}
}

func TestPadReplicatesEdges(t *testing.T) {
	hm := ramp(t, 3)
	padded, err := hm.Pad(5)
	if err != nil {
		t.Fatalf("Pad: %v", err)
	}
	if padded.Dimension() != 5 {
		t.Fatalf("dimension = %d", padded.Dimension())
	}
	for y := range 5 {
		for x := range 5 {
			want := hm.MustValue(min(x, 2), min(y, 2))
			if got := padded.MustValue(x, y); got != want {
				t.Errorf("padded(%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
	if same, _ := hm.Pad(3); same != hm {
		t.Error("Pad to same dimension should return receiver")
	}
	if _, err := hm.Pad(2); err == nil {
		t.Error("Pad to smaller dimension should fail")
	}
}

func TestRegionExtent(t *testing.T) {
	hm := ramp(t, 4)
	lo, hi, err := hm.RegionExtent(1, 1, 2, 2)
	if err != nil {
		t.Fatalf("RegionExtent: %v", err)
	}
	if lo != 5 || hi != 10 {
		t.Errorf("extent = [%v, %v], want [5, 10]", lo, hi)
	}
	if _, _, err := hm.RegionExtent(0, 0, 4, 4); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestBytesLittleEndian(t *testing.T) {
	hm, err := New(1, []float32{1.5}, DefaultScaling, UnitRange)
	if err != nil {
		t.Fatal(err)
	}
	b := hm.Bytes()
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	if math.Float32frombits(bits) != 1.5 {
		t.Fatalf("decoded %v", math.Float32frombits(bits))
	}
}

func TestWithScalingSharesSamples(t *testing.T) {
	hm := ramp(t, 2)
	scaled := hm.WithScaling(mgl32.Vec3{1, 1, 1})
	if scaled.Scaling() != (mgl32.Vec3{1, 1, 1}) || hm.Scaling() != DefaultScaling {
		t.Fatal("scaling not applied to copy only")
	}
	if scaled.MustValue(1, 1) != hm.MustValue(1, 1) {
		t.Fatal("samples differ")
	}
}
