package vulkan

import (
	"fmt"
	"math"
	"unsafe"

	"lodterrain/internal/gpu"

	vk "github.com/vulkan-go/vulkan"
)

// frameSync is the per frame in flight command buffer and its
// synchronisation objects.
type frameSync struct {
	cmd            vk.CommandBuffer
	imageAvailable vk.Semaphore
	renderFinished vk.Semaphore
	inFlight       vk.Fence

	image uint32
}

func (c *Context) createFrames() error {
	n := c.opts.FramesInFlight
	alloc := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        c.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(n),
	}
	cmds := make([]vk.CommandBuffer, n)
	if err := vk.Error(vk.AllocateCommandBuffers(c.device, &alloc, cmds)); err != nil {
		return fmt.Errorf("allocate command buffers: %w", err)
	}

	semInfo := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	fenceInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}
	for i := range n {
		f := frameSync{cmd: cmds[i]}
		c.frames = append(c.frames, f)
		fr := &c.frames[i]
		if err := vk.Error(vk.CreateSemaphore(c.device, &semInfo, nil, &fr.imageAvailable)); err != nil {
			return fmt.Errorf("frame %d semaphore: %w", i, err)
		}
		if err := vk.Error(vk.CreateSemaphore(c.device, &semInfo, nil, &fr.renderFinished)); err != nil {
			return fmt.Errorf("frame %d semaphore: %w", i, err)
		}
		if err := vk.Error(vk.CreateFence(c.device, &fenceInfo, nil, &fr.inFlight)); err != nil {
			return fmt.Errorf("frame %d fence: %w", i, err)
		}
	}
	return nil
}

func (c *Context) destroyFrames() {
	for _, f := range c.frames {
		if f.imageAvailable != nil {
			vk.DestroySemaphore(c.device, f.imageAvailable, nil)
		}
		if f.renderFinished != nil {
			vk.DestroySemaphore(c.device, f.renderFinished, nil)
		}
		if f.inFlight != nil {
			vk.DestroyFence(c.device, f.inFlight, nil)
		}
	}
	c.frames = nil
}

// BeginFrame waits for the current frame slot, acquires a swapchain image
// and starts recording.
func (c *Context) BeginFrame() (gpu.CommandBuffer, gpu.RenderTarget, error) {
	f := &c.frames[c.current]
	fences := []vk.Fence{f.inFlight}
	if err := vk.Error(vk.WaitForFences(c.device, 1, fences, vk.True, math.MaxUint64)); err != nil {
		return nil, nil, fmt.Errorf("wait frame fence: %w", err)
	}

	res := vk.AcquireNextImage(c.device, c.swapchain.handle, math.MaxUint64,
		f.imageAvailable, vk.Fence(vk.NullHandle), &f.image)
	switch res {
	case vk.Success, vk.Suboptimal:
	case vk.ErrorOutOfDate:
		return nil, nil, gpu.ErrSurfaceOutdated
	default:
		return nil, nil, fmt.Errorf("acquire image: %w", vk.Error(res))
	}

	// Reset only once work that signals the fence is certain.
	vk.ResetFences(c.device, 1, fences)
	vk.ResetCommandBuffer(f.cmd, 0)
	begin := vk.CommandBufferBeginInfo{SType: vk.StructureTypeCommandBufferBeginInfo}
	if err := vk.Error(vk.BeginCommandBuffer(f.cmd, &begin)); err != nil {
		return nil, nil, fmt.Errorf("begin command buffer: %w", err)
	}

	t := &target{
		framebuffer: c.swapchain.framebuffers[f.image],
		extent:      c.swapchain.extent,
	}
	return &commandBuffer{ctx: c, cmd: f.cmd}, t, nil
}

// EndFrame submits the recorded commands and presents the image. The
// frame slot advances even when the surface turned out of date.
func (c *Context) EndFrame() error {
	f := &c.frames[c.current]
	c.current = (c.current + 1) % len(c.frames)

	if err := vk.Error(vk.EndCommandBuffer(f.cmd)); err != nil {
		return fmt.Errorf("end command buffer: %w", err)
	}
	submit := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{f.imageAvailable},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{f.cmd},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{f.renderFinished},
	}
	if err := vk.Error(vk.QueueSubmit(c.graphicsQueue, 1, []vk.SubmitInfo{submit}, f.inFlight)); err != nil {
		return fmt.Errorf("submit frame: %w", err)
	}

	present := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{f.renderFinished},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{c.swapchain.handle},
		PImageIndices:      []uint32{f.image},
	}
	switch res := vk.QueuePresent(c.presentQueue, &present); res {
	case vk.Success:
		return nil
	case vk.Suboptimal, vk.ErrorOutOfDate:
		return gpu.ErrSurfaceOutdated
	default:
		return fmt.Errorf("present: %w", vk.Error(res))
	}
}

// commandBuffer records into the frame's primary command buffer.
type commandBuffer struct {
	ctx *Context
	cmd vk.CommandBuffer
}

var _ gpu.CommandBuffer = (*commandBuffer)(nil)

func (b *commandBuffer) BeginRenderPass(t gpu.RenderTarget, area gpu.Rect, clear gpu.ClearValues) {
	tgt := t.(*target)
	rect := vk.Rect2D{
		Offset: vk.Offset2D{X: int32(area.X), Y: int32(area.Y)},
		Extent: vk.Extent2D{Width: uint32(area.Width), Height: uint32(area.Height)},
	}
	clears := []vk.ClearValue{
		vk.NewClearValue(clear.Color[:]),
		vk.NewClearDepthStencil(clear.Depth, 0),
	}
	info := vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      b.ctx.renderPass,
		Framebuffer:     tgt.framebuffer,
		RenderArea:      rect,
		ClearValueCount: uint32(len(clears)),
		PClearValues:    clears,
	}
	vk.CmdBeginRenderPass(b.cmd, &info, vk.SubpassContentsInline)
	vk.CmdSetViewport(b.cmd, 0, 1, []vk.Viewport{{
		X:        float32(area.X),
		Y:        float32(area.Y),
		Width:    float32(area.Width),
		Height:   float32(area.Height),
		MaxDepth: 1,
	}})
	vk.CmdSetScissor(b.cmd, 0, 1, []vk.Rect2D{rect})
}

func (b *commandBuffer) EndRenderPass() { vk.CmdEndRenderPass(b.cmd) }

func (b *commandBuffer) BindPipeline(p gpu.Pipeline) {
	vk.CmdBindPipeline(b.cmd, vk.PipelineBindPointGraphics, p.(*pipeline).handle)
}

func (b *commandBuffer) BindGroup(p gpu.Pipeline, g gpu.BindGroup) {
	vk.CmdBindDescriptorSets(b.cmd, vk.PipelineBindPointGraphics, p.(*pipeline).layout,
		0, 1, []vk.DescriptorSet{g.(*bindGroup).set}, 0, nil)
}

func (b *commandBuffer) BindVertexBuffer(buf gpu.Buffer) {
	vk.CmdBindVertexBuffers(b.cmd, 0, 1, []vk.Buffer{buf.(*buffer).handle}, []vk.DeviceSize{0})
}

func (b *commandBuffer) BindIndexBuffer(buf gpu.Buffer) {
	vk.CmdBindIndexBuffer(b.cmd, buf.(*buffer).handle, 0, vk.IndexTypeUint32)
}

func (b *commandBuffer) PushConstants(p gpu.Pipeline, data []byte) {
	if len(data) == 0 {
		return
	}
	pl := p.(*pipeline)
	vk.CmdPushConstants(b.cmd, pl.layout, pl.pushStages, 0, uint32(len(data)), unsafe.Pointer(&data[0]))
}

func (b *commandBuffer) DrawIndexed(count int) {
	vk.CmdDrawIndexed(b.cmd, uint32(count), 1, 0, 0, 0)
}
