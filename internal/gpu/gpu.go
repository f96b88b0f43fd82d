// Package gpu is the device contract the terrain renderer records against.
// The Vulkan and OpenGL backends implement it; gputest provides a
// recording fake.
package gpu

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrUnsupported is returned by a backend for a request it cannot express.
	ErrUnsupported = errors.New("gpu: unsupported")
	// ErrSurfaceOutdated means the presentation surface no longer matches
	// the window and must be recreated before the next frame.
	ErrSurfaceOutdated = errors.New("gpu: surface out of date")
)

// BufferUsage is a bit set of the roles a buffer can be bound to.
type BufferUsage uint32

const (
	UsageVertex BufferUsage = 1 << iota
	UsageIndex
	UsageUniform
	UsageStorage
	UsageTransferSrc
	UsageTransferDst
)

// Has reports whether all bits of o are set.
func (u BufferUsage) Has(o BufferUsage) bool { return u&o == o }

// MemoryKind selects where buffer memory lives.
type MemoryKind int

const (
	// DeviceLocal memory is filled through Device.Upload.
	DeviceLocal MemoryKind = iota
	// HostVisible memory is persistently mapped and coherent.
	HostVisible
)

// TexelFormat describes storage buffer elements for backends that read
// storage through texel fetches.
type TexelFormat int

const (
	TexelNone TexelFormat = iota
	TexelR32F
	TexelRGBA32F
	TexelRG32UI
)

// BufferDesc describes a buffer to create.
type BufferDesc struct {
	Label  string
	Size   int
	Usage  BufferUsage
	Memory MemoryKind
	Texel  TexelFormat
}

// Buffer is a GPU buffer. Mapped returns nil for device-local memory.
type Buffer interface {
	Size() int
	Usage() BufferUsage
	Mapped() []byte
	// Flush makes writes to Mapped()[offset:offset+size] visible to the
	// device. A no-op on coherent memory.
	Flush(offset, size int) error
	Destroy()
}

// ShaderStage is a bit set of programmable stages.
type ShaderStage uint32

const (
	StageVertex ShaderStage = 1 << iota
	StageFragment
)

// BindingKind is the descriptor type of a binding.
type BindingKind int

const (
	BindingUniform BindingKind = iota
	BindingStorage
)

// BindingLayout declares one resource slot of a pipeline. Name is the block
// or sampler name in the shader, used by backends without explicit binding
// numbers.
type BindingLayout struct {
	Binding int
	Kind    BindingKind
	Stages  ShaderStage
	Name    string
}

// VertexFormat is the type of one vertex attribute.
type VertexFormat int

const (
	FormatUint32x2 VertexFormat = iota
	FormatFloat32x3
)

// VertexAttribute describes one attribute of the bound vertex buffer.
type VertexAttribute struct {
	Location int
	Format   VertexFormat
	Offset   int
}

// ShaderSet is a vertex and fragment shader pair in the backend's format
// (SPIR-V for Vulkan, GLSL source for OpenGL).
type ShaderSet struct {
	Name     string
	Vertex   []byte
	Fragment []byte
}

// PipelineDesc describes a graphics pipeline.
type PipelineDesc struct {
	Label            string
	Shader           ShaderSet
	Bindings         []BindingLayout
	PushConstantSize int
	PushStages       ShaderStage
	VertexStride     int
	Attributes       []VertexAttribute
	CullBack         bool
	FrontFaceCCW     bool
	DepthTest        bool
	Wireframe        bool
}

// Pipeline is a compiled graphics pipeline and its resource layout.
type Pipeline interface {
	Destroy()
}

// BindGroupEntry binds a buffer to a slot of the pipeline layout.
type BindGroupEntry struct {
	Binding int
	Buffer  Buffer
}

// BindGroup is a descriptor set built for one pipeline.
type BindGroup interface {
	Destroy()
}

// Rect is a pixel rectangle.
type Rect struct {
	X, Y          int
	Width, Height int
}

// RenderTarget is a backend specific framebuffer the pass renders into.
type RenderTarget interface {
	Extent() (width, height int)
}

// ClearValues are applied when a pass begins.
type ClearValues struct {
	Color [4]float32
	Depth float32
}

// DefaultClear clears to a sky colour and far depth.
var DefaultClear = ClearValues{Color: [4]float32{0.53, 0.71, 0.92, 1}, Depth: 1}

// CommandBuffer records commands for one frame.
type CommandBuffer interface {
	BeginRenderPass(target RenderTarget, area Rect, clear ClearValues)
	EndRenderPass()
	BindPipeline(p Pipeline)
	BindGroup(p Pipeline, g BindGroup)
	BindVertexBuffer(b Buffer)
	BindIndexBuffer(b Buffer)
	PushConstants(p Pipeline, data []byte)
	DrawIndexed(indexCount int)
}

// Device creates resources and describes the frame pipelining of a backend.
type Device interface {
	CreateBuffer(desc BufferDesc) (Buffer, error)
	// Upload copies data into a device-local buffer through a temporary
	// host-visible staging buffer and waits for the copy.
	Upload(dst Buffer, data []byte) error
	CreatePipeline(desc PipelineDesc) (Pipeline, error)
	CreateBindGroup(p Pipeline, entries []BindGroupEntry) (BindGroup, error)
	FramesInFlight() int
	// ClipCorrection maps OpenGL clip space to the backend's clip space.
	ClipCorrection() mgl32.Mat4
	WaitIdle() error
}
