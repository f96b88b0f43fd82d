package terrain

import (
	"lodterrain/internal/gpu"
	"lodterrain/internal/heightmap"

	"github.com/go-gl/mathgl/mgl32"
)

// Descriptor bindings shared with assets/shaders/terrain.
const (
	bindingCamera  = 0
	bindingChunks  = 1
	bindingHeights = 2
	bindingNormals = 3
)

// cameraUniform mirrors the shader's Camera block (std140, 176 bytes).
// Heights carries the sample range as (min, 1/span) so the fragment stage
// can colour raw samples of any source.
type cameraUniform struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Scaling    mgl32.Vec4
	Position   mgl32.Vec4
	Heights    mgl32.Vec4
}

const cameraUniformSize = 2*gpu.SizeMat4 + 3*gpu.SizeVec4

// heightBand packs rng for the shader. A flat range maps every sample to 0.
func heightBand(rng heightmap.Range) mgl32.Vec4 {
	var inv float32
	if span := rng.Span(); span > 0 {
		inv = 1 / span
	}
	return mgl32.Vec4{rng.Min, inv, 0, 0}
}

func (u *cameraUniform) marshal(dst []byte) {
	gpu.PutMat4(dst[0:], u.View)
	gpu.PutMat4(dst[gpu.SizeMat4:], u.Projection)
	gpu.PutVec4(dst[2*gpu.SizeMat4:], u.Scaling)
	gpu.PutVec4(dst[2*gpu.SizeMat4+gpu.SizeVec4:], u.Position)
	gpu.PutVec4(dst[2*gpu.SizeMat4+2*gpu.SizeVec4:], u.Heights)
}

// pushConstants mirrors the shader's push constant block.
type pushConstants struct {
	ChunkIndex   uint32
	LOD          uint32
	ChunkDim     uint32
	TerrainDim   uint32
	ChunksPerDim uint32
	Normals      uint32
}

const pushConstantSize = 6 * gpu.SizeU32

func (p *pushConstants) marshal(dst []byte) {
	gpu.PutUint32(dst[0:], p.ChunkIndex)
	gpu.PutUint32(dst[4:], p.LOD)
	gpu.PutUint32(dst[8:], p.ChunkDim)
	gpu.PutUint32(dst[12:], p.TerrainDim)
	gpu.PutUint32(dst[16:], p.ChunksPerDim)
	gpu.PutUint32(dst[20:], p.Normals)
}

// vertexTemplate is the chunk's full-resolution grid of (x, z) local
// coordinates, shared by every chunk and every LOD.
func vertexTemplate(chunkDim int) []byte {
	coords := make([]uint32, 0, 2*chunkDim*chunkDim)
	for z := range chunkDim {
		for x := range chunkDim {
			coords = append(coords, uint32(x), uint32(z))
		}
	}
	return gpu.Uint32Bytes(coords)
}

const vertexStride = 2 * gpu.SizeU32
