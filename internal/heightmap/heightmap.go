// Package heightmap holds square grids of terrain elevation samples.
package heightmap

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrLoad reports a heightmap that could not be read or decoded.
	ErrLoad = errors.New("heightmap load error")
	// ErrOutOfRange reports a sample access outside the grid.
	ErrOutOfRange = errors.New("heightmap sample out of range")
)

// DefaultScaling is the world-space scale applied to x, height and z.
var DefaultScaling = mgl32.Vec3{10, 5, 10}

// Range is the value domain samples are expressed in.
type Range struct {
	Min float32
	Max float32
}

// Mid returns the center of the domain. Terrain is recentered vertically on it.
func (r Range) Mid() float32 { return (r.Min + r.Max) / 2 }

// Span returns Max-Min.
func (r Range) Span() float32 { return r.Max - r.Min }

// UnitRange is the domain of normalized samples.
var UnitRange = Range{Min: 0, Max: 1}

// Heightmap is an immutable dimension x dimension grid of samples in
// row-major order.
type Heightmap struct {
	dimension int
	scaling   mgl32.Vec3
	rng       Range
	samples   []float32
}

// New wraps samples into a heightmap. The slice is owned by the heightmap
// afterwards.
func New(dimension int, samples []float32, scaling mgl32.Vec3, rng Range) (*Heightmap, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("heightmap dimension %d must be positive", dimension)
	}
	if len(samples) != dimension*dimension {
		return nil, fmt.Errorf("heightmap has %d samples, want %d", len(samples), dimension*dimension)
	}
	if rng.Max < rng.Min {
		return nil, fmt.Errorf("heightmap range [%g, %g] is inverted", rng.Min, rng.Max)
	}
	return &Heightmap{
		dimension: dimension,
		scaling:   scaling,
		rng:       rng,
		samples:   samples,
	}, nil
}

// Dimension returns the number of samples along one side.
func (h *Heightmap) Dimension() int { return h.dimension }

// Scaling returns the world-space scale for x, height and z.
func (h *Heightmap) Scaling() mgl32.Vec3 { return h.scaling }

// Range returns the value domain of the samples.
func (h *Heightmap) Range() Range { return h.rng }

// Value returns the sample at grid coordinate (x, y).
func (h *Heightmap) Value(x, y int) (float32, error) {
	if x < 0 || y < 0 || x >= h.dimension || y >= h.dimension {
		return 0, fmt.Errorf("%w: (%d, %d) in %dx%d grid", ErrOutOfRange, x, y, h.dimension, h.dimension)
	}
	return h.samples[y*h.dimension+x], nil
}

// MustValue is Value for coordinates already validated by the caller.
func (h *Heightmap) MustValue(x, y int) float32 {
	v, err := h.Value(x, y)
	if err != nil {
		panic(err)
	}
	return v
}

// Samples returns a copy of the sample grid.
func (h *Heightmap) Samples() []float32 {
	out := make([]float32, len(h.samples))
	copy(out, h.samples)
	return out
}

// Extent returns the lowest and highest stored sample.
func (h *Heightmap) Extent() (lo, hi float32) {
	lo, hi = float32(math.Inf(1)), float32(math.Inf(-1))
	for _, v := range h.samples {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

// RegionExtent returns the lowest and highest sample inside the inclusive
// grid rectangle [x0,x1] x [y0,y1].
func (h *Heightmap) RegionExtent(x0, y0, x1, y1 int) (lo, hi float32, err error) {
	if _, err := h.Value(x0, y0); err != nil {
		return 0, 0, err
	}
	if _, err := h.Value(x1, y1); err != nil {
		return 0, 0, err
	}
	lo, hi = float32(math.Inf(1)), float32(math.Inf(-1))
	for y := y0; y <= y1; y++ {
		row := h.samples[y*h.dimension : (y+1)*h.dimension]
		for _, v := range row[x0 : x1+1] {
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	return lo, hi, nil
}

// Pad returns a heightmap grown to dimension by replicating the last row
// and column. A dimension equal to the current one returns h itself.
func (h *Heightmap) Pad(dimension int) (*Heightmap, error) {
	switch {
	case dimension == h.dimension:
		return h, nil
	case dimension < h.dimension:
		return nil, fmt.Errorf("cannot pad %dx%d heightmap down to %d", h.dimension, h.dimension, dimension)
	}

	samples := make([]float32, dimension*dimension)
	last := h.dimension - 1
	for y := range dimension {
		sy := min(y, last)
		for x := range dimension {
			samples[y*dimension+x] = h.samples[sy*h.dimension+min(x, last)]
		}
	}
	return New(dimension, samples, h.scaling, h.rng)
}

// WithScaling returns a copy sharing samples but using a different scale.
func (h *Heightmap) WithScaling(scaling mgl32.Vec3) *Heightmap {
	c := *h
	c.scaling = scaling
	return &c
}

// Bytes returns the samples as little-endian float32 values, ready for a
// storage buffer upload.
func (h *Heightmap) Bytes() []byte {
	out := make([]byte, 4*len(h.samples))
	for i, v := range h.samples {
		bits := math.Float32bits(v)
		out[4*i] = byte(bits)
		out[4*i+1] = byte(bits >> 8)
		out[4*i+2] = byte(bits >> 16)
		out[4*i+3] = byte(bits >> 24)
	}
	return out
}
