// Package gputest is an in-memory gpu.Device that records what it is asked
// to do, for testing code written against the gpu contract.
package gputest

import (
	"fmt"
	"slices"

	"lodterrain/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

// Buffer is a fake buffer. Host-visible buffers expose their bytes through
// Mapped; device-local contents land in Data after an upload.
type Buffer struct {
	Desc      gpu.BufferDesc
	Data      []byte
	Flushes   int
	Destroyed bool
}

func (b *Buffer) Size() int              { return b.Desc.Size }
func (b *Buffer) Usage() gpu.BufferUsage { return b.Desc.Usage }

func (b *Buffer) Mapped() []byte {
	if b.Desc.Memory != gpu.HostVisible {
		return nil
	}
	return b.Data
}

func (b *Buffer) Flush(offset, size int) error {
	if offset < 0 || size < 0 || offset+size > len(b.Data) {
		return fmt.Errorf("gputest: flush [%d,%d) outside buffer of %d bytes", offset, offset+size, len(b.Data))
	}
	b.Flushes++
	return nil
}

func (b *Buffer) Destroy() { b.Destroyed = true }

// Pipeline is a fake pipeline.
type Pipeline struct {
	Desc      gpu.PipelineDesc
	Destroyed bool
}

func (p *Pipeline) Destroy() { p.Destroyed = true }

// BindGroup is a fake descriptor set.
type BindGroup struct {
	Entries   []gpu.BindGroupEntry
	Destroyed bool
}

func (g *BindGroup) Destroy() { g.Destroyed = true }

// Device records created resources in creation order.
type Device struct {
	Frames     int
	Clip       mgl32.Mat4
	Buffers    []*Buffer
	Pipelines  []*Pipeline
	BindGroups []*BindGroup
	Uploads    int

	// FailBuffer makes the n-th CreateBuffer call (1-based) fail.
	FailBuffer int
}

// NewDevice returns a fake with the given frames in flight and an
// identity clip correction.
func NewDevice(frames int) *Device {
	return &Device{Frames: frames, Clip: mgl32.Ident4()}
}

func (d *Device) CreateBuffer(desc gpu.BufferDesc) (gpu.Buffer, error) {
	if d.FailBuffer > 0 && len(d.Buffers)+1 == d.FailBuffer {
		return nil, fmt.Errorf("gputest: create buffer %q: out of memory", desc.Label)
	}
	if desc.Size <= 0 {
		return nil, fmt.Errorf("gputest: create buffer %q: size %d", desc.Label, desc.Size)
	}
	b := &Buffer{Desc: desc, Data: make([]byte, desc.Size)}
	d.Buffers = append(d.Buffers, b)
	return b, nil
}

func (d *Device) Upload(dst gpu.Buffer, data []byte) error {
	b, ok := dst.(*Buffer)
	if !ok {
		return fmt.Errorf("gputest: foreign buffer %T", dst)
	}
	if len(data) > len(b.Data) {
		return fmt.Errorf("gputest: upload of %d bytes into %d byte buffer", len(data), len(b.Data))
	}
	copy(b.Data, data)
	d.Uploads++
	return nil
}

func (d *Device) CreatePipeline(desc gpu.PipelineDesc) (gpu.Pipeline, error) {
	p := &Pipeline{Desc: desc}
	d.Pipelines = append(d.Pipelines, p)
	return p, nil
}

func (d *Device) CreateBindGroup(p gpu.Pipeline, entries []gpu.BindGroupEntry) (gpu.BindGroup, error) {
	fp, ok := p.(*Pipeline)
	if !ok {
		return nil, fmt.Errorf("gputest: foreign pipeline %T", p)
	}
	for _, e := range entries {
		if !slices.ContainsFunc(fp.Desc.Bindings, func(l gpu.BindingLayout) bool { return l.Binding == e.Binding }) {
			return nil, fmt.Errorf("gputest: binding %d not in pipeline layout", e.Binding)
		}
	}
	g := &BindGroup{Entries: slices.Clone(entries)}
	d.BindGroups = append(d.BindGroups, g)
	return g, nil
}

func (d *Device) FramesInFlight() int        { return d.Frames }
func (d *Device) ClipCorrection() mgl32.Mat4 { return d.Clip }
func (d *Device) WaitIdle() error            { return nil }

// BuffersWith returns the buffers whose label matches.
func (d *Device) BuffersWith(label string) []*Buffer {
	var out []*Buffer
	for _, b := range d.Buffers {
		if b.Desc.Label == label {
			out = append(out, b)
		}
	}
	return out
}

// Live returns the number of resources not yet destroyed.
func (d *Device) Live() int {
	n := 0
	for _, b := range d.Buffers {
		if !b.Destroyed {
			n++
		}
	}
	for _, p := range d.Pipelines {
		if !p.Destroyed {
			n++
		}
	}
	for _, g := range d.BindGroups {
		if !g.Destroyed {
			n++
		}
	}
	return n
}
