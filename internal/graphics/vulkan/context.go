// Package vulkan implements the gpu device contract and the frame
// presenter on top of vulkan-go and a GLFW window.
package vulkan

import (
	"errors"
	"fmt"

	"lodterrain/internal/gpu"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
	"go.uber.org/zap"
)

// Options configures the Vulkan context.
type Options struct {
	AppName        string
	Validation     bool
	FramesInFlight int
	VSync          bool
	Logger         *zap.Logger
}

// Context owns the instance, device and swapchain of one window. It
// implements gpu.Device and the frame presenter.
type Context struct {
	opts   Options
	log    *zap.Logger
	window *glfw.Window

	instance      vk.Instance
	debugCallback vk.DebugReportCallback
	surface       vk.Surface
	physical      vk.PhysicalDevice
	memory        vk.PhysicalDeviceMemoryProperties
	device        vk.Device
	queues        queueFamilies
	graphicsQueue vk.Queue
	presentQueue  vk.Queue

	fillModeNonSolid bool

	swapchain  *swapchain
	renderPass vk.RenderPass
	pool       vk.CommandPool
	frames     []frameSync
	current    int
}

var _ gpu.Device = (*Context)(nil)

// Setup sets the GLFW hints for a window without a GL context. Call it
// before glfw.CreateWindow.
func Setup() error {
	if !glfw.VulkanSupported() {
		return errors.New("vulkan: loader not found")
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	return nil
}

// New brings up Vulkan for window. On failure everything created so far
// is released.
func New(window *glfw.Window, opts Options) (*Context, error) {
	if opts.FramesInFlight < 1 {
		opts.FramesInFlight = 2
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	c := &Context{
		opts:   opts,
		log:    opts.Logger.Named("vulkan"),
		window: window,
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"instance", func() error { return c.createInstance(window) }},
		{"surface", func() error { return c.createSurface(window) }},
		{"physical device", c.pickPhysicalDevice},
		{"device", c.createDevice},
		{"command pool", c.createCommandPool},
		{"swapchain", func() error {
			w, h := window.GetFramebufferSize()
			return c.createSwapchain(w, h)
		}},
		{"frames", c.createFrames},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			c.Destroy()
			return nil, fmt.Errorf("vulkan %s: %w", s.name, err)
		}
	}
	c.log.Info("vulkan ready",
		zap.Int("frames_in_flight", opts.FramesInFlight),
		zap.Bool("validation", c.opts.Validation),
		zap.Bool("wireframe", c.fillModeNonSolid))
	return c, nil
}

func (c *Context) createCommandPool() error {
	info := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: c.queues.graphics,
	}
	var pool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(c.device, &info, nil, &pool)); err != nil {
		return err
	}
	c.pool = pool
	return nil
}

// FramesInFlight returns how many frames may be recorded before the
// oldest one is waited for.
func (c *Context) FramesInFlight() int { return c.opts.FramesInFlight }

// ClipCorrection flips Y and maps depth from [-1,1] to [0,1].
func (c *Context) ClipCorrection() mgl32.Mat4 { return ClipCorrection() }

// ClipCorrection is the OpenGL to Vulkan clip space transform.
func ClipCorrection() mgl32.Mat4 {
	m := mgl32.Ident4()
	m[5] = -1
	m[10] = 0.5
	m[14] = 0.5
	return m
}

func (c *Context) WaitIdle() error {
	if c.device == nil {
		return nil
	}
	return vk.Error(vk.DeviceWaitIdle(c.device))
}

// Destroy releases the context. Resources created through it must be
// destroyed first.
func (c *Context) Destroy() {
	if c.device != nil {
		vk.DeviceWaitIdle(c.device)
		c.destroyFrames()
		if c.swapchain != nil {
			c.swapchain.destroy(c.device)
			c.swapchain = nil
		}
		if c.renderPass != nil {
			vk.DestroyRenderPass(c.device, c.renderPass, nil)
			c.renderPass = nil
		}
		if c.pool != nil {
			vk.DestroyCommandPool(c.device, c.pool, nil)
			c.pool = nil
		}
		vk.DestroyDevice(c.device, nil)
		c.device = nil
	}
	if c.instance == nil {
		return
	}
	if c.surface != nil {
		vk.DestroySurface(c.instance, c.surface, nil)
		c.surface = nil
	}
	if c.debugCallback != nil {
		vk.DestroyDebugReportCallback(c.instance, c.debugCallback, nil)
		c.debugCallback = nil
	}
	vk.DestroyInstance(c.instance, nil)
	c.instance = nil
}
