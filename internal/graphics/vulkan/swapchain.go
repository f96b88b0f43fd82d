package vulkan

import (
	"errors"
	"fmt"
	"math"

	"lodterrain/internal/gpu"

	vk "github.com/vulkan-go/vulkan"
	"go.uber.org/zap"
)

type swapchain struct {
	handle       vk.Swapchain
	format       vk.Format
	extent       vk.Extent2D
	views        []vk.ImageView
	framebuffers []vk.Framebuffer

	depthFormat vk.Format
	depthImage  vk.Image
	depthMemory vk.DeviceMemory
	depthView   vk.ImageView
}

// target is the framebuffer of one acquired swapchain image.
type target struct {
	framebuffer vk.Framebuffer
	extent      vk.Extent2D
}

func (t *target) Extent() (int, int) { return int(t.extent.Width), int(t.extent.Height) }

var _ gpu.RenderTarget = (*target)(nil)

func (c *Context) createSwapchain(width, height int) error {
	var caps vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(c.physical, c.surface, &caps)); err != nil {
		return fmt.Errorf("surface capabilities: %w", err)
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	format, err := c.chooseSurfaceFormat()
	if err != nil {
		return err
	}
	extent := chooseExtent(caps, width, height)
	if extent.Width == 0 || extent.Height == 0 {
		return gpu.ErrSurfaceOutdated
	}

	imageCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && imageCount > caps.MaxImageCount {
		imageCount = caps.MaxImageCount
	}

	var old vk.Swapchain
	if c.swapchain != nil {
		old = c.swapchain.handle
	}
	info := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          c.surface,
		MinImageCount:    imageCount,
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      c.choosePresentMode(),
		Clipped:          vk.True,
		OldSwapchain:     old,
	}
	if c.queues.graphics != c.queues.present {
		info.ImageSharingMode = vk.SharingModeConcurrent
		info.QueueFamilyIndexCount = 2
		info.PQueueFamilyIndices = []uint32{c.queues.graphics, c.queues.present}
	}

	var handle vk.Swapchain
	if err := vk.Error(vk.CreateSwapchain(c.device, &info, nil, &handle)); err != nil {
		return fmt.Errorf("create swapchain: %w", err)
	}
	if c.swapchain != nil {
		c.swapchain.destroy(c.device)
	}
	sc := &swapchain{handle: handle, format: format.Format, extent: extent}
	c.swapchain = sc

	if c.renderPass == nil {
		if sc.depthFormat, err = c.findDepthFormat(); err != nil {
			return err
		}
		if err := c.createRenderPass(sc.format, sc.depthFormat); err != nil {
			return err
		}
	} else {
		sc.depthFormat, _ = c.findDepthFormat()
	}

	if err := c.createImageViews(sc); err != nil {
		return err
	}
	if err := c.createDepth(sc); err != nil {
		return err
	}
	if err := c.createFramebuffers(sc); err != nil {
		return err
	}
	c.log.Debug("swapchain created",
		zap.Uint32("width", extent.Width),
		zap.Uint32("height", extent.Height),
		zap.Int("images", len(sc.views)))
	return nil
}

func (c *Context) chooseSurfaceFormat() (vk.SurfaceFormat, error) {
	var count uint32
	vk.GetPhysicalDeviceSurfaceFormats(c.physical, c.surface, &count, nil)
	if count == 0 {
		return vk.SurfaceFormat{}, errors.New("surface reports no formats")
	}
	formats := make([]vk.SurfaceFormat, count)
	vk.GetPhysicalDeviceSurfaceFormats(c.physical, c.surface, &count, formats)
	for i := range formats {
		formats[i].Deref()
		if formats[i].Format == vk.FormatB8g8r8a8Srgb && formats[i].ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return formats[i], nil
		}
	}
	return formats[0], nil
}

func (c *Context) choosePresentMode() vk.PresentMode {
	if c.opts.VSync {
		return vk.PresentModeFifo
	}
	var count uint32
	vk.GetPhysicalDeviceSurfacePresentModes(c.physical, c.surface, &count, nil)
	modes := make([]vk.PresentMode, count)
	vk.GetPhysicalDeviceSurfacePresentModes(c.physical, c.surface, &count, modes)
	for _, want := range []vk.PresentMode{vk.PresentModeMailbox, vk.PresentModeImmediate} {
		for _, m := range modes {
			if m == want {
				return m
			}
		}
	}
	return vk.PresentModeFifo
}

func chooseExtent(caps vk.SurfaceCapabilities, width, height int) vk.Extent2D {
	if caps.CurrentExtent.Width != math.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  max(caps.MinImageExtent.Width, min(caps.MaxImageExtent.Width, uint32(width))),
		Height: max(caps.MinImageExtent.Height, min(caps.MaxImageExtent.Height, uint32(height))),
	}
}

func (c *Context) findDepthFormat() (vk.Format, error) {
	for _, f := range []vk.Format{vk.FormatD32Sfloat, vk.FormatD32SfloatS8Uint, vk.FormatD24UnormS8Uint} {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(c.physical, f, &props)
		props.Deref()
		if props.OptimalTilingFeatures&vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit) != 0 {
			return f, nil
		}
	}
	return vk.FormatUndefined, errors.New("no depth format supported")
}

func (c *Context) createRenderPass(color, depth vk.Format) error {
	attachments := []vk.AttachmentDescription{
		{
			Format:         color,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutPresentSrc,
		},
		{
			Format:         depth,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}
	depthRef := vk.AttachmentReference{Attachment: 1, Layout: vk.ImageLayoutDepthStencilAttachmentOptimal}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{
			{Attachment: 0, Layout: vk.ImageLayoutColorAttachmentOptimal},
		},
		PDepthStencilAttachment: &depthRef,
	}
	stages := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit)
	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		SrcStageMask:  stages,
		DstStageMask:  stages,
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit),
	}
	info := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}
	var rp vk.RenderPass
	if err := vk.Error(vk.CreateRenderPass(c.device, &info, nil, &rp)); err != nil {
		return fmt.Errorf("create render pass: %w", err)
	}
	c.renderPass = rp
	return nil
}

func (c *Context) createImageView(img vk.Image, format vk.Format, aspect vk.ImageAspectFlagBits) (vk.ImageView, error) {
	info := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(aspect),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var view vk.ImageView
	err := vk.Error(vk.CreateImageView(c.device, &info, nil, &view))
	return view, err
}

func (c *Context) createImageViews(sc *swapchain) error {
	var count uint32
	vk.GetSwapchainImages(c.device, sc.handle, &count, nil)
	images := make([]vk.Image, count)
	vk.GetSwapchainImages(c.device, sc.handle, &count, images)

	for i, img := range images {
		view, err := c.createImageView(img, sc.format, vk.ImageAspectColorBit)
		if err != nil {
			return fmt.Errorf("image view %d: %w", i, err)
		}
		sc.views = append(sc.views, view)
	}
	return nil
}

func (c *Context) createDepth(sc *swapchain) error {
	info := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    sc.depthFormat,
		Extent: vk.Extent3D{
			Width:  sc.extent.Width,
			Height: sc.extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	if err := vk.Error(vk.CreateImage(c.device, &info, nil, &sc.depthImage)); err != nil {
		return fmt.Errorf("create depth image: %w", err)
	}
	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(c.device, sc.depthImage, &req)
	req.Deref()
	mem, err := c.allocate(req, vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		return fmt.Errorf("depth memory: %w", err)
	}
	sc.depthMemory = mem
	if err := vk.Error(vk.BindImageMemory(c.device, sc.depthImage, mem, 0)); err != nil {
		return fmt.Errorf("bind depth memory: %w", err)
	}
	sc.depthView, err = c.createImageView(sc.depthImage, sc.depthFormat, vk.ImageAspectDepthBit)
	return err
}

func (c *Context) createFramebuffers(sc *swapchain) error {
	for i, view := range sc.views {
		info := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      c.renderPass,
			AttachmentCount: 2,
			PAttachments:    []vk.ImageView{view, sc.depthView},
			Width:           sc.extent.Width,
			Height:          sc.extent.Height,
			Layers:          1,
		}
		var fb vk.Framebuffer
		if err := vk.Error(vk.CreateFramebuffer(c.device, &info, nil, &fb)); err != nil {
			return fmt.Errorf("framebuffer %d: %w", i, err)
		}
		sc.framebuffers = append(sc.framebuffers, fb)
	}
	return nil
}

func (sc *swapchain) destroy(device vk.Device) {
	for _, fb := range sc.framebuffers {
		vk.DestroyFramebuffer(device, fb, nil)
	}
	sc.framebuffers = nil
	if sc.depthView != nil {
		vk.DestroyImageView(device, sc.depthView, nil)
	}
	if sc.depthImage != nil {
		vk.DestroyImage(device, sc.depthImage, nil)
	}
	if sc.depthMemory != nil {
		vk.FreeMemory(device, sc.depthMemory, nil)
	}
	for _, v := range sc.views {
		vk.DestroyImageView(device, v, nil)
	}
	sc.views = nil
	if sc.handle != nil {
		vk.DestroySwapchain(device, sc.handle, nil)
	}
}

// Resize recreates the swapchain for the new framebuffer size.
func (c *Context) Resize(width, height int) error {
	if width == 0 || height == 0 {
		return nil
	}
	if err := c.WaitIdle(); err != nil {
		return err
	}
	if err := c.createSwapchain(width, height); err != nil {
		if errors.Is(err, gpu.ErrSurfaceOutdated) {
			return nil
		}
		return fmt.Errorf("recreate swapchain: %w", err)
	}
	return nil
}
