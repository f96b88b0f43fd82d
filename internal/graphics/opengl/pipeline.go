package opengl

import (
	"fmt"

	"lodterrain/internal/gpu"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// pushBlock is the uniform block that stands in for push constants.
const pushBlock = "PushConstants"

type pipeline struct {
	desc    gpu.PipelineDesc
	program uint32
	vao     uint32
	// push backs the PushConstants block; zero without push constants.
	push     uint32
	pushSize int
}

var _ gpu.Pipeline = (*pipeline)(nil)

func (p *pipeline) Destroy() {
	if p.push != 0 {
		gl.DeleteBuffers(1, &p.push)
		p.push = 0
	}
	if p.vao != 0 {
		gl.DeleteVertexArrays(1, &p.vao)
		p.vao = 0
	}
	if p.program != 0 {
		gl.DeleteProgram(p.program)
		p.program = 0
	}
}

// attribLayout is the component count and type of a vertex format, and
// whether it is read as an integer attribute.
func attribLayout(f gpu.VertexFormat) (size int32, xtype uint32, integer bool, err error) {
	switch f {
	case gpu.FormatUint32x2:
		return 2, gl.UNSIGNED_INT, true, nil
	case gpu.FormatFloat32x3:
		return 3, gl.FLOAT, false, nil
	}
	return 0, 0, false, fmt.Errorf("%w: vertex format %d", gpu.ErrUnsupported, f)
}

// pushBufferSize rounds n up to the std140 block alignment.
func pushBufferSize(n int) int {
	return (n + 15) &^ 15
}

// validateBindings rejects layouts the uniform and texture units cannot hold.
func validateBindings(bindings []gpu.BindingLayout) error {
	seen := make(map[int]bool, len(bindings))
	for _, b := range bindings {
		if b.Binding < 0 || b.Binding >= pushBinding {
			return fmt.Errorf("%w: binding %d", gpu.ErrUnsupported, b.Binding)
		}
		if seen[b.Binding] {
			return fmt.Errorf("binding %d declared twice", b.Binding)
		}
		if b.Name == "" {
			return fmt.Errorf("binding %d has no shader name", b.Binding)
		}
		seen[b.Binding] = true
	}
	return nil
}

// CreatePipeline compiles the GLSL pair and resolves every binding by name.
func (d *Device) CreatePipeline(desc gpu.PipelineDesc) (gpu.Pipeline, error) {
	p := &pipeline{desc: desc}
	if err := d.buildPipeline(p); err != nil {
		p.Destroy()
		return nil, fmt.Errorf("pipeline %q: %w", desc.Label, err)
	}
	return p, nil
}

func (d *Device) buildPipeline(p *pipeline) error {
	desc := p.desc
	if err := validateBindings(desc.Bindings); err != nil {
		return err
	}
	for _, a := range desc.Attributes {
		if _, _, _, err := attribLayout(a.Format); err != nil {
			return err
		}
	}

	program, err := compileProgram(string(desc.Shader.Vertex), string(desc.Shader.Fragment))
	if err != nil {
		return fmt.Errorf("shader %q: %w", desc.Shader.Name, err)
	}
	p.program = program

	gl.UseProgram(program)
	for _, b := range desc.Bindings {
		switch b.Kind {
		case gpu.BindingUniform:
			err = bindBlock(program, b.Name, b.Binding)
		case gpu.BindingStorage:
			err = bindSampler(program, b.Name, b.Binding)
		}
		if err != nil {
			return err
		}
	}
	if desc.PushConstantSize > 0 {
		if err := bindBlock(program, pushBlock, pushBinding); err != nil {
			return err
		}
		p.pushSize = desc.PushConstantSize
		gl.GenBuffers(1, &p.push)
		gl.BindBuffer(gl.UNIFORM_BUFFER, p.push)
		gl.BufferData(gl.UNIFORM_BUFFER, pushBufferSize(desc.PushConstantSize), nil, gl.STREAM_DRAW)
		gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
	}
	gl.GenVertexArrays(1, &p.vao)
	return glError("create pipeline")
}

type bindGroup struct {
	uniforms map[int]*buffer
	storage  map[int]*buffer
}

var _ gpu.BindGroup = (*bindGroup)(nil)

func (g *bindGroup) Destroy() {}

// CreateBindGroup checks entries against p's layout. Binding happens when
// the group is bound.
func (d *Device) CreateBindGroup(gp gpu.Pipeline, entries []gpu.BindGroupEntry) (gpu.BindGroup, error) {
	p, ok := gp.(*pipeline)
	if !ok {
		return nil, fmt.Errorf("opengl: bind group for foreign pipeline %T", gp)
	}
	kinds := make(map[int]gpu.BindingKind, len(p.desc.Bindings))
	for _, b := range p.desc.Bindings {
		kinds[b.Binding] = b.Kind
	}
	g := &bindGroup{uniforms: make(map[int]*buffer), storage: make(map[int]*buffer)}
	for _, e := range entries {
		kind, ok := kinds[e.Binding]
		if !ok {
			return nil, fmt.Errorf("opengl: binding %d not in pipeline %q", e.Binding, p.desc.Label)
		}
		b, ok := e.Buffer.(*buffer)
		if !ok {
			return nil, fmt.Errorf("opengl: binding %d holds foreign buffer %T", e.Binding, e.Buffer)
		}
		if kind == gpu.BindingStorage {
			if b.tex == 0 {
				return nil, fmt.Errorf("opengl: binding %d buffer has no texel view", e.Binding)
			}
			g.storage[e.Binding] = b
		} else {
			g.uniforms[e.Binding] = b
		}
	}
	return g, nil
}
