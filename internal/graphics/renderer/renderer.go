// Package renderer hosts the scenes drawn each frame and drives the
// presenter that owns the window surface.
package renderer

import (
	"errors"
	"fmt"

	"lodterrain/internal/gpu"
	"lodterrain/internal/graphics"
	"lodterrain/internal/profiling"
)

// Scene is something the host draws every frame.
type Scene interface {
	Resize(width, height int) error
	Update(cam graphics.View, dt float64) error
	Draw(cmd gpu.CommandBuffer, target gpu.RenderTarget, area gpu.Rect) error
	DrawUI(ui graphics.UI)
	Destroy()
}

// Presenter acquires and presents frames on a window surface.
type Presenter interface {
	// BeginFrame waits for the frame slot to be free and returns the
	// command buffer to record into. It returns gpu.ErrSurfaceOutdated
	// when the surface must be resized first.
	BeginFrame() (gpu.CommandBuffer, gpu.RenderTarget, error)
	EndFrame() error
	Resize(width, height int) error
}

// fovRate is how fast the camera eases toward the target FOV, in degrees
// per second.
const fovRate = 100

// Renderer orchestrates scenes over one presenter.
type Renderer struct {
	presenter Presenter
	scenes    []Scene
	camera    *graphics.Camera

	width, height int

	targetFOV float32
}

// NewRenderer creates a renderer for the given scenes. Scenes are drawn
// in order and destroyed in reverse.
func NewRenderer(p Presenter, camera *graphics.Camera, width, height int, scenes ...Scene) *Renderer {
	return &Renderer{
		presenter: p,
		scenes:    scenes,
		camera:    camera,
		width:     width,
		height:    height,
		targetFOV: camera.FOV,
	}
}

// SetTargetFOV makes the camera ease toward fov over the next frames.
func (r *Renderer) SetTargetFOV(fov float32) { r.targetFOV = fov }

// Render records and presents one frame. A frame lost to an outdated
// surface is not an error: the surface is recreated and the frame skipped.
func (r *Renderer) Render(dt float64) error {
	r.easeFOV(dt)

	stop := profiling.Track("frame.Acquire")
	cmd, target, err := r.presenter.BeginFrame()
	stop()
	if errors.Is(err, gpu.ErrSurfaceOutdated) {
		return r.Resize(r.width, r.height)
	}
	if err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}

	for _, s := range r.scenes {
		if err := s.Update(r.camera, dt); err != nil {
			return fmt.Errorf("update scene: %w", err)
		}
	}

	w, h := target.Extent()
	area := gpu.Rect{Width: w, Height: h}
	stop = profiling.Track("frame.Record")
	for _, s := range r.scenes {
		if err := s.Draw(cmd, target, area); err != nil {
			stop()
			return fmt.Errorf("draw scene: %w", err)
		}
	}
	stop()

	stop = profiling.Track("frame.Present")
	err = r.presenter.EndFrame()
	stop()
	if errors.Is(err, gpu.ErrSurfaceOutdated) {
		return r.Resize(r.width, r.height)
	}
	if err != nil {
		return fmt.Errorf("end frame: %w", err)
	}
	return nil
}

// DrawUI lets every scene declare its debug controls.
func (r *Renderer) DrawUI(ui graphics.UI) {
	for _, s := range r.scenes {
		s.DrawUI(ui)
	}
}

// Resize recreates the surface and forwards the new size. A zero size
// (minimised window) is remembered but not applied.
func (r *Renderer) Resize(width, height int) error {
	r.width, r.height = width, height
	if width == 0 || height == 0 {
		return nil
	}
	r.camera.SetViewport(width, height)
	if err := r.presenter.Resize(width, height); err != nil {
		return fmt.Errorf("resize surface: %w", err)
	}
	for _, s := range r.scenes {
		if err := s.Resize(width, height); err != nil {
			return fmt.Errorf("resize scene: %w", err)
		}
	}
	return nil
}

// Dispose destroys the scenes in reverse order.
func (r *Renderer) Dispose() {
	for i := len(r.scenes) - 1; i >= 0; i-- {
		r.scenes[i].Destroy()
	}
	r.scenes = nil
}

// GetCamera returns the camera the scenes are updated with.
func (r *Renderer) GetCamera() *graphics.Camera {
	return r.camera
}

func (r *Renderer) easeFOV(dt float64) {
	c := r.camera
	step := float32(dt) * fovRate
	switch {
	case c.FOV < r.targetFOV:
		c.FOV = min(c.FOV+step, r.targetFOV)
	case c.FOV > r.targetFOV:
		c.FOV = max(c.FOV-step, r.targetFOV)
	}
}
