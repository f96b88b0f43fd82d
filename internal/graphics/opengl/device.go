// Package opengl implements the gpu device contract on an OpenGL 4.1 core
// context. Storage buffers are read in shaders through buffer textures and
// push constants through a uniform block.
package opengl

import (
	"fmt"

	"lodterrain/internal/gpu"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// pushBinding is the uniform buffer binding point of the PushConstants
// block. It sits above every binding a pipeline declares.
const pushBinding = 15

// Options configures the OpenGL device.
type Options struct {
	FramesInFlight int
	VSync          bool
	Logger         *zap.Logger
}

// Device is the OpenGL implementation of gpu.Device and the frame
// presenter. Commands execute immediately on the context thread.
type Device struct {
	window *glfw.Window
	opts   Options
	log    *zap.Logger
}

var _ gpu.Device = (*Device)(nil)

// Setup sets the GLFW hints for a 4.1 core context. Call it before
// glfw.CreateWindow.
func Setup() {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
}

// New makes the window's context current and loads the GL bindings.
func New(window *glfw.Window, opts Options) (*Device, error) {
	if opts.FramesInFlight < 1 {
		opts.FramesInFlight = 1
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("opengl init: %w", err)
	}
	if opts.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}
	d := &Device{window: window, opts: opts, log: opts.Logger.Named("opengl")}
	d.log.Info("opengl ready",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))))
	return d, nil
}

// FramesInFlight is the frame ring size. The driver synchronises buffer
// updates itself, so any value is safe.
func (d *Device) FramesInFlight() int { return d.opts.FramesInFlight }

// ClipCorrection is the identity: projections already target GL clip space.
func (d *Device) ClipCorrection() mgl32.Mat4 { return mgl32.Ident4() }

func (d *Device) WaitIdle() error {
	gl.Finish()
	return glError("finish")
}

// BeginFrame returns a command buffer drawing into the default framebuffer.
func (d *Device) BeginFrame() (gpu.CommandBuffer, gpu.RenderTarget, error) {
	w, h := d.window.GetFramebufferSize()
	if w == 0 || h == 0 {
		return nil, nil, gpu.ErrSurfaceOutdated
	}
	return &commandBuffer{dev: d}, target{w, h}, nil
}

// EndFrame swaps the window buffers.
func (d *Device) EndFrame() error {
	d.window.SwapBuffers()
	return glError("end frame")
}

// Resize is a no-op: the viewport is set per render pass.
func (d *Device) Resize(width, height int) error { return nil }

// Destroy releases nothing; the context dies with the window.
func (d *Device) Destroy() {}

type target struct{ width, height int }

func (t target) Extent() (int, int) { return t.width, t.height }

// glError drains the GL error queue and reports the first error.
func glError(op string) error {
	var first uint32
	for {
		code := gl.GetError()
		if code == gl.NO_ERROR {
			break
		}
		if first == 0 {
			first = code
		}
	}
	if first != 0 {
		return fmt.Errorf("opengl %s: error 0x%04x", op, first)
	}
	return nil
}
