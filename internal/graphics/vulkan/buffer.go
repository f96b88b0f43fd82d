package vulkan

import (
	"errors"
	"fmt"
	"unsafe"

	"lodterrain/internal/gpu"

	vk "github.com/vulkan-go/vulkan"
)

type buffer struct {
	ctx    *Context
	desc   gpu.BufferDesc
	handle vk.Buffer
	memory vk.DeviceMemory
	mapped []byte
}

var _ gpu.Buffer = (*buffer)(nil)

func (b *buffer) Size() int              { return b.desc.Size }
func (b *buffer) Usage() gpu.BufferUsage { return b.desc.Usage }
func (b *buffer) Mapped() []byte         { return b.mapped }

// Flush is a range check only: host-visible memory is allocated coherent.
func (b *buffer) Flush(offset, size int) error {
	if b.mapped == nil {
		return errors.New("vulkan: flush of unmapped buffer")
	}
	if offset < 0 || size < 0 || offset+size > len(b.mapped) {
		return fmt.Errorf("vulkan: flush [%d,%d) outside %q", offset, offset+size, b.desc.Label)
	}
	return nil
}

func (b *buffer) Destroy() {
	if b.handle == nil {
		return
	}
	d := b.ctx.device
	if b.mapped != nil {
		vk.UnmapMemory(d, b.memory)
		b.mapped = nil
	}
	vk.DestroyBuffer(d, b.handle, nil)
	vk.FreeMemory(d, b.memory, nil)
	b.handle, b.memory = nil, nil
}

func usageFlags(u gpu.BufferUsage) vk.BufferUsageFlagBits {
	var f vk.BufferUsageFlagBits
	pairs := []struct {
		u gpu.BufferUsage
		f vk.BufferUsageFlagBits
	}{
		{gpu.UsageVertex, vk.BufferUsageVertexBufferBit},
		{gpu.UsageIndex, vk.BufferUsageIndexBufferBit},
		{gpu.UsageUniform, vk.BufferUsageUniformBufferBit},
		{gpu.UsageStorage, vk.BufferUsageStorageBufferBit},
		{gpu.UsageTransferSrc, vk.BufferUsageTransferSrcBit},
		{gpu.UsageTransferDst, vk.BufferUsageTransferDstBit},
	}
	for _, p := range pairs {
		if u.Has(p.u) {
			f |= p.f
		}
	}
	return f
}

func memoryFlags(kind gpu.MemoryKind) vk.MemoryPropertyFlagBits {
	if kind == gpu.HostVisible {
		return vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit
	}
	return vk.MemoryPropertyDeviceLocalBit
}

func (c *Context) allocate(req vk.MemoryRequirements, props vk.MemoryPropertyFlagBits) (vk.DeviceMemory, error) {
	idx, err := findMemoryType(c.memory, req.MemoryTypeBits, props)
	if err != nil {
		return nil, err
	}
	info := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: idx,
	}
	var mem vk.DeviceMemory
	if err := vk.Error(vk.AllocateMemory(c.device, &info, nil, &mem)); err != nil {
		return nil, err
	}
	return mem, nil
}

// CreateBuffer creates a buffer. Device-local buffers are implicitly
// transfer destinations; host-visible ones stay mapped until destroyed.
func (c *Context) CreateBuffer(desc gpu.BufferDesc) (gpu.Buffer, error) {
	if desc.Size <= 0 {
		return nil, fmt.Errorf("vulkan: buffer %q has size %d", desc.Label, desc.Size)
	}
	usage := desc.Usage
	if desc.Memory == gpu.DeviceLocal {
		usage |= gpu.UsageTransferDst
	}
	info := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(desc.Size),
		Usage:       vk.BufferUsageFlags(usageFlags(usage)),
		SharingMode: vk.SharingModeExclusive,
	}
	b := &buffer{ctx: c, desc: desc}
	if err := vk.Error(vk.CreateBuffer(c.device, &info, nil, &b.handle)); err != nil {
		return nil, fmt.Errorf("create buffer %q: %w", desc.Label, err)
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(c.device, b.handle, &req)
	req.Deref()
	mem, err := c.allocate(req, memoryFlags(desc.Memory))
	if err != nil {
		vk.DestroyBuffer(c.device, b.handle, nil)
		return nil, fmt.Errorf("allocate buffer %q: %w", desc.Label, err)
	}
	b.memory = mem
	if err := vk.Error(vk.BindBufferMemory(c.device, b.handle, mem, 0)); err != nil {
		b.Destroy()
		return nil, fmt.Errorf("bind buffer %q: %w", desc.Label, err)
	}

	if desc.Memory == gpu.HostVisible {
		var ptr unsafe.Pointer
		if err := vk.Error(vk.MapMemory(c.device, mem, 0, vk.DeviceSize(desc.Size), 0, &ptr)); err != nil {
			b.Destroy()
			return nil, fmt.Errorf("map buffer %q: %w", desc.Label, err)
		}
		b.mapped = unsafe.Slice((*byte)(ptr), desc.Size)
	}
	return b, nil
}

// Upload fills a device-local buffer through a staging copy and waits for
// the transfer to finish.
func (c *Context) Upload(dst gpu.Buffer, data []byte) error {
	d, ok := dst.(*buffer)
	if !ok {
		return fmt.Errorf("vulkan: upload to foreign buffer %T", dst)
	}
	if len(data) > d.desc.Size {
		return fmt.Errorf("vulkan: upload of %d bytes into %q (%d)", len(data), d.desc.Label, d.desc.Size)
	}
	if len(data) == 0 {
		return nil
	}
	if d.mapped != nil {
		copy(d.mapped, data)
		return nil
	}

	staging, err := c.CreateBuffer(gpu.BufferDesc{
		Label:  d.desc.Label + " staging",
		Size:   len(data),
		Usage:  gpu.UsageTransferSrc,
		Memory: gpu.HostVisible,
	})
	if err != nil {
		return err
	}
	defer staging.Destroy()
	copy(staging.Mapped(), data)

	return c.submitOnce(func(cmd vk.CommandBuffer) {
		vk.CmdCopyBuffer(cmd, staging.(*buffer).handle, d.handle, 1, []vk.BufferCopy{{
			Size: vk.DeviceSize(len(data)),
		}})
	})
}

// submitOnce records fn into a transient command buffer and waits for the
// graphics queue to drain.
func (c *Context) submitOnce(fn func(cmd vk.CommandBuffer)) error {
	alloc := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        c.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	cmds := make([]vk.CommandBuffer, 1)
	if err := vk.Error(vk.AllocateCommandBuffers(c.device, &alloc, cmds)); err != nil {
		return fmt.Errorf("allocate transfer commands: %w", err)
	}
	defer vk.FreeCommandBuffers(c.device, c.pool, 1, cmds)

	begin := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if err := vk.Error(vk.BeginCommandBuffer(cmds[0], &begin)); err != nil {
		return err
	}
	fn(cmds[0])
	if err := vk.Error(vk.EndCommandBuffer(cmds[0])); err != nil {
		return err
	}
	submit := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    cmds,
	}
	if err := vk.Error(vk.QueueSubmit(c.graphicsQueue, 1, []vk.SubmitInfo{submit}, vk.Fence(vk.NullHandle))); err != nil {
		return fmt.Errorf("submit transfer: %w", err)
	}
	return vk.Error(vk.QueueWaitIdle(c.graphicsQueue))
}
