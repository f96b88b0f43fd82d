package app

import (
	"fmt"

	"lodterrain/internal/config"
	"lodterrain/internal/gpu"
	"lodterrain/internal/graphics/opengl"
	"lodterrain/internal/graphics/renderer"
	"lodterrain/internal/graphics/vulkan"

	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"
)

// Backend is a GPU device that also presents frames to the window.
type Backend interface {
	gpu.Device
	renderer.Presenter
	Destroy()
}

var (
	_ Backend = (*vulkan.Context)(nil)
	_ Backend = (*opengl.Device)(nil)
)

// prepareWindow sets the GLFW hints the backend needs. It runs between
// glfw.Init and glfw.CreateWindow.
func prepareWindow(kind config.Backend) error {
	switch kind {
	case config.BackendVulkan:
		return vulkan.Setup()
	case config.BackendOpenGL:
		opengl.Setup()
		return nil
	}
	return fmt.Errorf("unknown backend %q", kind)
}

// createWindow opens the window described by cfg.
func createWindow(cfg *config.Config) (*glfw.Window, error) {
	if err := prepareWindow(cfg.Renderer.Backend); err != nil {
		return nil, err
	}
	glfw.WindowHint(glfw.Resizable, glfw.True)
	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("creating window: %w", err)
	}
	return window, nil
}

// newBackend builds the configured backend on window.
func newBackend(window *glfw.Window, cfg *config.Config, log *zap.Logger) (Backend, error) {
	r := cfg.Renderer
	switch r.Backend {
	case config.BackendVulkan:
		ctx, err := vulkan.New(window, vulkan.Options{
			AppName:        cfg.Window.Title,
			Validation:     r.Validation,
			FramesInFlight: r.FramesInFlight,
			VSync:          r.VSync,
			Logger:         log,
		})
		if err != nil {
			return nil, err
		}
		return ctx, nil
	case config.BackendOpenGL:
		dev, err := opengl.New(window, opengl.Options{
			FramesInFlight: r.FramesInFlight,
			VSync:          r.VSync,
			Logger:         log,
		})
		if err != nil {
			return nil, err
		}
		return dev, nil
	}
	return nil, fmt.Errorf("unknown backend %q", r.Backend)
}

// loadShaders reads the terrain shader pair in the backend's format.
func loadShaders(cfg *config.Config) (gpu.ShaderSet, error) {
	if cfg.Renderer.Backend == config.BackendOpenGL {
		return opengl.LoadShaderSet(cfg.Renderer.ShaderDir, "terrain")
	}
	return vulkan.LoadShaderSet(cfg.Renderer.ShaderDir, "terrain")
}
