package opengl

import (
	"lodterrain/internal/gpu"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// commandBuffer executes each command as it is recorded.
type commandBuffer struct {
	dev      *Device
	pipeline *pipeline
}

var _ gpu.CommandBuffer = (*commandBuffer)(nil)

func (c *commandBuffer) BeginRenderPass(target gpu.RenderTarget, area gpu.Rect, clear gpu.ClearValues) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(int32(area.X), int32(area.Y), int32(area.Width), int32(area.Height))
	gl.ClearColor(clear.Color[0], clear.Color[1], clear.Color[2], clear.Color[3])
	gl.ClearDepth(float64(clear.Depth))
	gl.DepthMask(true)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (c *commandBuffer) EndRenderPass() {
	gl.BindVertexArray(0)
	gl.UseProgram(0)
	c.pipeline = nil
}

func (c *commandBuffer) BindPipeline(gp gpu.Pipeline) {
	p, ok := gp.(*pipeline)
	if !ok {
		return
	}
	c.pipeline = p
	desc := p.desc
	gl.UseProgram(p.program)
	gl.BindVertexArray(p.vao)

	if desc.CullBack {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	} else {
		gl.Disable(gl.CULL_FACE)
	}
	if desc.FrontFaceCCW {
		gl.FrontFace(gl.CCW)
	} else {
		gl.FrontFace(gl.CW)
	}
	if desc.DepthTest {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.LESS)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	if desc.Wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	} else {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
	if p.push != 0 {
		gl.BindBufferBase(gl.UNIFORM_BUFFER, pushBinding, p.push)
	}
}

func (c *commandBuffer) BindGroup(_ gpu.Pipeline, gg gpu.BindGroup) {
	g, ok := gg.(*bindGroup)
	if !ok {
		return
	}
	for binding, b := range g.uniforms {
		gl.BindBufferBase(gl.UNIFORM_BUFFER, uint32(binding), b.id)
	}
	for binding, b := range g.storage {
		gl.ActiveTexture(gl.TEXTURE0 + uint32(binding))
		gl.BindTexture(gl.TEXTURE_BUFFER, b.tex)
	}
	gl.ActiveTexture(gl.TEXTURE0)
}

// BindVertexBuffer attaches b to the bound pipeline's vertex array.
func (c *commandBuffer) BindVertexBuffer(gb gpu.Buffer) {
	b, ok := gb.(*buffer)
	if !ok || c.pipeline == nil {
		return
	}
	desc := c.pipeline.desc
	gl.BindBuffer(gl.ARRAY_BUFFER, b.id)
	for _, a := range desc.Attributes {
		size, xtype, integer, err := attribLayout(a.Format)
		if err != nil {
			continue
		}
		loc := uint32(a.Location)
		if integer {
			gl.VertexAttribIPointer(loc, size, xtype, int32(desc.VertexStride), gl.PtrOffset(a.Offset))
		} else {
			gl.VertexAttribPointer(loc, size, xtype, false, int32(desc.VertexStride), gl.PtrOffset(a.Offset))
		}
		gl.EnableVertexAttribArray(loc)
	}
}

func (c *commandBuffer) BindIndexBuffer(gb gpu.Buffer) {
	if b, ok := gb.(*buffer); ok {
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.id)
	}
}

func (c *commandBuffer) PushConstants(gp gpu.Pipeline, data []byte) {
	p, ok := gp.(*pipeline)
	if !ok || p.push == 0 || len(data) == 0 {
		return
	}
	n := min(len(data), p.pushSize)
	gl.BindBuffer(gl.UNIFORM_BUFFER, p.push)
	gl.BufferSubData(gl.UNIFORM_BUFFER, 0, n, gl.Ptr(data))
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
}

func (c *commandBuffer) DrawIndexed(indexCount int) {
	gl.DrawElements(gl.TRIANGLES, int32(indexCount), gl.UNSIGNED_INT, gl.PtrOffset(0))
}
