// Package lod builds the strided index buffers that draw one chunk at
// decreasing resolutions over a shared full-resolution vertex grid.
package lod

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrConfiguration reports a chunk dimension that cannot be halved cleanly
// down to a single quad.
var ErrConfiguration = errors.New("terrain configuration error")

// Level is the index data of one LOD.
type Level struct {
	LOD     int
	Indices []uint32
}

// Step returns the vertex stride of the level.
func (l Level) Step() int { return 1 << l.LOD }

// MaxLOD returns log2(chunkDim-1). chunkDim must be 2^k+1 with k >= 1.
func MaxLOD(chunkDim int) (int, error) {
	span := chunkDim - 1
	if span < 2 || span&(span-1) != 0 {
		return 0, fmt.Errorf("%w: chunk dimension %d is not a power of two plus one", ErrConfiguration, chunkDim)
	}
	return bits.TrailingZeros(uint(span)), nil
}

// IndexCount returns 6 * ((chunkDim-1) / 2^lod)^2.
func IndexCount(chunkDim, lod int) int {
	cells := (chunkDim - 1) >> lod
	return 6 * cells * cells
}

// Indices returns the triangle list for one LOD. Vertices are addressed as
// z*chunkDim+x in the full-resolution grid. Each cell yields
// (top-left, bottom-left, top-right) and (top-right, bottom-left,
// bottom-right), counter-clockwise when seen from +y.
func Indices(chunkDim, lod int) ([]uint32, error) {
	maxLOD, err := MaxLOD(chunkDim)
	if err != nil {
		return nil, err
	}
	if lod < 0 || lod > maxLOD {
		return nil, fmt.Errorf("%w: lod %d outside [0, %d]", ErrConfiguration, lod, maxLOD)
	}

	step := 1 << lod
	dim := uint32(chunkDim)
	out := make([]uint32, 0, IndexCount(chunkDim, lod))
	for z := 0; z < chunkDim-1; z += step {
		for x := 0; x < chunkDim-1; x += step {
			tl := uint32(z)*dim + uint32(x)
			tr := tl + uint32(step)
			bl := tl + uint32(step)*dim
			br := bl + uint32(step)
			out = append(out, tl, bl, tr, tr, bl, br)
		}
	}
	return out, nil
}

// Levels builds every level from 0 to MaxLOD.
func Levels(chunkDim int) ([]Level, error) {
	maxLOD, err := MaxLOD(chunkDim)
	if err != nil {
		return nil, err
	}
	levels := make([]Level, 0, maxLOD+1)
	for l := 0; l <= maxLOD; l++ {
		idx, err := Indices(chunkDim, l)
		if err != nil {
			return nil, err
		}
		levels = append(levels, Level{LOD: l, Indices: idx})
	}
	return levels, nil
}
