package gputest

import (
	"slices"

	"lodterrain/internal/gpu"
)

// Op names a recorded command.
type Op string

const (
	OpBeginPass    Op = "begin"
	OpEndPass      Op = "end"
	OpPipeline     Op = "pipeline"
	OpBindGroup    Op = "bindgroup"
	OpVertexBuffer Op = "vertex"
	OpIndexBuffer  Op = "index"
	OpPush         Op = "push"
	OpDraw         Op = "draw"
)

// Command is one recorded call.
type Command struct {
	Op     Op
	Buffer gpu.Buffer
	Group  gpu.BindGroup
	Data   []byte
	Count  int
}

// CommandBuffer records commands in order.
type CommandBuffer struct {
	Commands []Command
	open     bool
}

func (c *CommandBuffer) BeginRenderPass(gpu.RenderTarget, gpu.Rect, gpu.ClearValues) {
	if c.open {
		panic("gputest: render pass already open")
	}
	c.open = true
	c.Commands = append(c.Commands, Command{Op: OpBeginPass})
}

func (c *CommandBuffer) EndRenderPass() {
	if !c.open {
		panic("gputest: no open render pass")
	}
	c.open = false
	c.Commands = append(c.Commands, Command{Op: OpEndPass})
}

func (c *CommandBuffer) BindPipeline(gpu.Pipeline) {
	c.Commands = append(c.Commands, Command{Op: OpPipeline})
}

func (c *CommandBuffer) BindGroup(_ gpu.Pipeline, g gpu.BindGroup) {
	c.Commands = append(c.Commands, Command{Op: OpBindGroup, Group: g})
}

func (c *CommandBuffer) BindVertexBuffer(b gpu.Buffer) {
	c.Commands = append(c.Commands, Command{Op: OpVertexBuffer, Buffer: b})
}

func (c *CommandBuffer) BindIndexBuffer(b gpu.Buffer) {
	c.Commands = append(c.Commands, Command{Op: OpIndexBuffer, Buffer: b})
}

func (c *CommandBuffer) PushConstants(_ gpu.Pipeline, data []byte) {
	c.Commands = append(c.Commands, Command{Op: OpPush, Data: slices.Clone(data)})
}

func (c *CommandBuffer) DrawIndexed(count int) {
	c.Commands = append(c.Commands, Command{Op: OpDraw, Count: count})
}

// Open reports whether a render pass is open.
func (c *CommandBuffer) Open() bool { return c.open }

// Ops returns the recorded op sequence.
func (c *CommandBuffer) Ops() []Op {
	ops := make([]Op, len(c.Commands))
	for i, cmd := range c.Commands {
		ops[i] = cmd.Op
	}
	return ops
}

// Draws returns the recorded draw commands.
func (c *CommandBuffer) Draws() []Command {
	var out []Command
	for _, cmd := range c.Commands {
		if cmd.Op == OpDraw {
			out = append(out, cmd)
		}
	}
	return out
}

// Reset clears the recording.
func (c *CommandBuffer) Reset() {
	c.Commands = c.Commands[:0]
	c.open = false
}

// Target is a fixed-size render target.
type Target struct{ Width, Height int }

func (t Target) Extent() (int, int) { return t.Width, t.Height }
