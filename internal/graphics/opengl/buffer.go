package opengl

import (
	"errors"
	"fmt"

	"lodterrain/internal/gpu"

	"github.com/go-gl/gl/v4.1-core/gl"
)

type buffer struct {
	desc gpu.BufferDesc
	id   uint32
	// tex is the buffer texture viewing a storage buffer.
	tex uint32
	// shadow is the host copy behind Mapped; Flush copies ranges of it.
	shadow []byte
}

var _ gpu.Buffer = (*buffer)(nil)

func (b *buffer) Size() int              { return b.desc.Size }
func (b *buffer) Usage() gpu.BufferUsage { return b.desc.Usage }
func (b *buffer) Mapped() []byte         { return b.shadow }

func (b *buffer) Flush(offset, size int) error {
	if b.shadow == nil {
		return errors.New("opengl: flush of device-local buffer")
	}
	if offset < 0 || size < 0 || offset+size > len(b.shadow) {
		return fmt.Errorf("opengl: flush [%d,%d) outside %q", offset, offset+size, b.desc.Label)
	}
	if size == 0 {
		return nil
	}
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, b.id)
	gl.BufferSubData(gl.COPY_WRITE_BUFFER, offset, size, gl.Ptr(&b.shadow[offset]))
	return nil
}

func (b *buffer) Destroy() {
	if b.tex != 0 {
		gl.DeleteTextures(1, &b.tex)
		b.tex = 0
	}
	if b.id != 0 {
		gl.DeleteBuffers(1, &b.id)
		b.id = 0
	}
	b.shadow = nil
}

// texelFormat is the buffer texture internal format for f.
func texelFormat(f gpu.TexelFormat) (uint32, error) {
	switch f {
	case gpu.TexelR32F:
		return gl.R32F, nil
	case gpu.TexelRGBA32F:
		return gl.RGBA32F, nil
	case gpu.TexelRG32UI:
		return gl.RG32UI, nil
	}
	return 0, fmt.Errorf("%w: storage buffer without texel format", gpu.ErrUnsupported)
}

func usageHint(kind gpu.MemoryKind) uint32 {
	if kind == gpu.HostVisible {
		return gl.DYNAMIC_DRAW
	}
	return gl.STATIC_DRAW
}

// CreateBuffer allocates a buffer object. Storage buffers also get a
// buffer texture; host-visible buffers get a host shadow.
func (d *Device) CreateBuffer(desc gpu.BufferDesc) (gpu.Buffer, error) {
	if desc.Size <= 0 {
		return nil, fmt.Errorf("opengl: buffer %q has size %d", desc.Label, desc.Size)
	}
	var texFormat uint32
	if desc.Usage.Has(gpu.UsageStorage) {
		f, err := texelFormat(desc.Texel)
		if err != nil {
			return nil, fmt.Errorf("buffer %q: %w", desc.Label, err)
		}
		texFormat = f
	}

	b := &buffer{desc: desc}
	gl.GenBuffers(1, &b.id)
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, b.id)
	gl.BufferData(gl.COPY_WRITE_BUFFER, desc.Size, nil, usageHint(desc.Memory))

	if texFormat != 0 {
		gl.GenTextures(1, &b.tex)
		gl.BindTexture(gl.TEXTURE_BUFFER, b.tex)
		gl.TexBuffer(gl.TEXTURE_BUFFER, texFormat, b.id)
		gl.BindTexture(gl.TEXTURE_BUFFER, 0)
	}
	if desc.Memory == gpu.HostVisible {
		b.shadow = make([]byte, desc.Size)
	}
	if err := glError("create buffer " + desc.Label); err != nil {
		b.Destroy()
		return nil, err
	}
	return b, nil
}

// Upload replaces the start of dst with data.
func (d *Device) Upload(dst gpu.Buffer, data []byte) error {
	b, ok := dst.(*buffer)
	if !ok {
		return fmt.Errorf("opengl: upload to foreign buffer %T", dst)
	}
	if len(data) > b.desc.Size {
		return fmt.Errorf("opengl: upload of %d bytes into %q (%d)", len(data), b.desc.Label, b.desc.Size)
	}
	if len(data) == 0 {
		return nil
	}
	if b.shadow != nil {
		copy(b.shadow, data)
	}
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, b.id)
	gl.BufferSubData(gl.COPY_WRITE_BUFFER, 0, len(data), gl.Ptr(data))
	return glError("upload " + b.desc.Label)
}
