// Package chunk splits a square height grid into seam-sharing chunks and
// places them in world space.
package chunk

import (
	"errors"
	"fmt"

	"lodterrain/internal/heightmap"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrConfiguration reports terrain and chunk dimensions that cannot be
// partitioned.
var ErrConfiguration = errors.New("terrain configuration error")

// Chunk is one independently drawable square of chunkDimension vertices.
type Chunk struct {
	Index int
	Row   int
	Col   int
	// WorldOffset places the chunk-local origin in world space.
	WorldOffset mgl32.Vec3
	// Bounds is the world-space box enclosing the chunk surface.
	Bounds AABB
}

// Model returns the chunk's model matrix.
func (c Chunk) Model() mgl32.Mat4 {
	return mgl32.Translate3D(c.WorldOffset.X(), c.WorldOffset.Y(), c.WorldOffset.Z())
}

// AABB is an axis aligned bounding box.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// ChunksPerDimension returns ceil((terrainDim-1)/(chunkDim-1)): neighbouring
// chunks share their border row and column.
func ChunksPerDimension(terrainDim, chunkDim int) int {
	if chunkDim < 2 || terrainDim < 2 {
		return 0
	}
	span := chunkDim - 1
	return (terrainDim - 1 + span - 1) / span
}

// Count returns the number of chunks covering the terrain.
func Count(terrainDim, chunkDim int) int {
	n := ChunksPerDimension(terrainDim, chunkDim)
	return n * n
}

// CoveredDimension is the number of samples per side the chunk grid reads.
// It exceeds terrainDim when (terrainDim-1) is not a multiple of
// (chunkDim-1).
func CoveredDimension(terrainDim, chunkDim int) int {
	return ChunksPerDimension(terrainDim, chunkDim)*(chunkDim-1) + 1
}

// GlobalSampleCoordinate maps a chunk-local vertex to its heightmap sample.
// The last column of a chunk is the first column of its right neighbour,
// and likewise for rows.
func GlobalSampleCoordinate(localX, localY, chunkIndex, chunkDim, chunksPerDim int) (int, int) {
	row := chunkIndex / chunksPerDim
	col := chunkIndex % chunksPerDim
	return col*(chunkDim-1) + localX, row*(chunkDim-1) + localY
}

// Layout describes where the chunk grid sits in world space.
type Layout struct {
	Scaling mgl32.Vec3
	// Center is the grid coordinate placed at the world origin on x and z.
	Center float32
	// Baseline is the world y of chunk-local height zero.
	Baseline float32
}

// CenteredLayout recenters a terrainDim wide terrain on the origin
// horizontally and on the middle of the sample domain vertically. Padding
// added past terrainDim does not move the center.
func CenteredLayout(hm *heightmap.Heightmap, terrainDim int) Layout {
	s := hm.Scaling()
	return Layout{
		Scaling:  s,
		Center:   float32(terrainDim-1) / 2,
		Baseline: -hm.Range().Mid() * s.Y(),
	}
}

// WorldOffset returns the world position of the chunk at (row, col).
func (l Layout) WorldOffset(row, col, chunkDim int) mgl32.Vec3 {
	span := float32(chunkDim - 1)
	return mgl32.Vec3{
		(float32(col)*span - l.Center) * l.Scaling.X(),
		l.Baseline,
		(float32(row)*span - l.Center) * l.Scaling.Z(),
	}
}

// Validate checks that chunkDim can tile terrainDim.
func Validate(terrainDim, chunkDim int) error {
	switch {
	case chunkDim < 2:
		return fmt.Errorf("%w: chunk dimension %d must be at least 2", ErrConfiguration, chunkDim)
	case terrainDim < chunkDim:
		return fmt.Errorf("%w: terrain dimension %d is smaller than chunk dimension %d",
			ErrConfiguration, terrainDim, chunkDim)
	}
	return nil
}

// Partition splits hm into chunks of chunkDim vertices, in row-major index
// order. hm must already cover CoveredDimension samples per side (see
// heightmap.Heightmap.Pad); a chunk reaching past the grid fails with
// heightmap.ErrOutOfRange.
func Partition(hm *heightmap.Heightmap, terrainDim, chunkDim int, layout Layout) ([]Chunk, error) {
	if err := Validate(terrainDim, chunkDim); err != nil {
		return nil, err
	}

	perDim := ChunksPerDimension(terrainDim, chunkDim)
	chunks := make([]Chunk, 0, perDim*perDim)
	for index := range perDim * perDim {
		x0, y0 := GlobalSampleCoordinate(0, 0, index, chunkDim, perDim)
		x1, y1 := GlobalSampleCoordinate(chunkDim-1, chunkDim-1, index, chunkDim, perDim)

		lo, hi, err := hm.RegionExtent(x0, y0, x1, y1)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", index, err)
		}

		row, col := index/perDim, index%perDim
		offset := layout.WorldOffset(row, col, chunkDim)
		span := float32(chunkDim - 1)
		chunks = append(chunks, Chunk{
			Index:       index,
			Row:         row,
			Col:         col,
			WorldOffset: offset,
			Bounds: AABB{
				Min: mgl32.Vec3{offset.X(), offset.Y() + lo*layout.Scaling.Y(), offset.Z()},
				Max: mgl32.Vec3{
					offset.X() + span*layout.Scaling.X(),
					offset.Y() + hi*layout.Scaling.Y(),
					offset.Z() + span*layout.Scaling.Z(),
				},
			},
		})
	}
	return chunks, nil
}
