package terrain

import (
	"fmt"

	"lodterrain/internal/gpu"
)

// frame holds the per-frame-in-flight resources of the renderer.
type frame struct {
	camera gpu.Buffer
	chunks gpu.Buffer
	group  gpu.BindGroup

	// Reset whenever the ring cycles onto this slot.
	boundVertexBuffer gpu.Buffer
	nextChunk         int
	updated           bool
}

func (f *frame) reset() {
	f.boundVertexBuffer = nil
	f.nextChunk = 0
	f.updated = false
}

func (f *frame) destroy() {
	if f.group != nil {
		f.group.Destroy()
	}
	if f.chunks != nil {
		f.chunks.Destroy()
	}
	if f.camera != nil {
		f.camera.Destroy()
	}
	*f = frame{}
}

// newFrame creates the mapped camera and chunk buffers of slot i and binds
// them together with the shared height and normal buffers.
func (r *Renderer) newFrame(i int) (frame, error) {
	var f frame
	var err error
	f.camera, err = r.dev.CreateBuffer(gpu.BufferDesc{
		Label:  "terrain.camera",
		Size:   cameraUniformSize,
		Usage:  gpu.UsageUniform,
		Memory: gpu.HostVisible,
	})
	if err != nil {
		return frame{}, fmt.Errorf("frame %d camera buffer: %w", i, err)
	}
	f.chunks, err = r.dev.CreateBuffer(gpu.BufferDesc{
		Label:  "terrain.chunks",
		Size:   r.opts.MaxChunks * gpu.SizeMat4,
		Usage:  gpu.UsageStorage,
		Memory: gpu.HostVisible,
		Texel:  gpu.TexelRGBA32F,
	})
	if err != nil {
		f.destroy()
		return frame{}, fmt.Errorf("frame %d chunk buffer: %w", i, err)
	}
	f.group, err = r.dev.CreateBindGroup(r.pipeline, []gpu.BindGroupEntry{
		{Binding: bindingCamera, Buffer: f.camera},
		{Binding: bindingChunks, Buffer: f.chunks},
		{Binding: bindingHeights, Buffer: r.heights},
		{Binding: bindingNormals, Buffer: r.normals},
	})
	if err != nil {
		f.destroy()
		return frame{}, fmt.Errorf("frame %d bind group: %w", i, err)
	}
	return f, nil
}
