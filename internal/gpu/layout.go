package gpu

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Sizes of std140/std430 members used by the terrain shaders.
const (
	SizeMat4 = 64
	SizeVec4 = 16
	SizeU32  = 4
)

// PutFloat32 writes v little-endian at dst[0:4].
func PutFloat32(dst []byte, v float32) {
	binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
}

// PutUint32 writes v little-endian at dst[0:4].
func PutUint32(dst []byte, v uint32) {
	binary.LittleEndian.PutUint32(dst, v)
}

// PutMat4 writes m column-major at dst[0:64].
func PutMat4(dst []byte, m mgl32.Mat4) {
	_ = dst[SizeMat4-1]
	for i, v := range m {
		PutFloat32(dst[i*4:], v)
	}
}

// PutVec4 writes v at dst[0:16].
func PutVec4(dst []byte, v mgl32.Vec4) {
	_ = dst[SizeVec4-1]
	for i, c := range v {
		PutFloat32(dst[i*4:], c)
	}
}

// ReadMat4 decodes a column-major matrix from src[0:64].
func ReadMat4(src []byte) mgl32.Mat4 {
	var m mgl32.Mat4
	for i := range m {
		m[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
	return m
}

// Float32Bytes encodes vs little-endian.
func Float32Bytes(vs []float32) []byte {
	out := make([]byte, 4*len(vs))
	for i, v := range vs {
		PutFloat32(out[i*4:], v)
	}
	return out
}

// Uint32Bytes encodes vs little-endian.
func Uint32Bytes(vs []uint32) []byte {
	out := make([]byte, 4*len(vs))
	for i, v := range vs {
		PutUint32(out[i*4:], v)
	}
	return out
}
