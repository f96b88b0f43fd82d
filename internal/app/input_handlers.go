package app

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"
)

func (a *App) setupInputHandlers() {
	window := a.window
	a.input.Attach(window)

	window.SetCursorPosCallback(func(_ *glfw.Window, xpos, ypos float64) {
		a.cursorX, a.cursorY = xpos, ypos
		if a.captured {
			a.camera.HandleMouseMovement(xpos, ypos)
		}
	})

	window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		if err := a.renderer.Resize(width, height); err != nil {
			a.log.Error("resize", zap.Int("width", width), zap.Int("height", height), zap.Error(err))
		}
	})

	// Release the cursor when the window loses focus.
	window.SetFocusCallback(func(_ *glfw.Window, focused bool) {
		if !focused && a.captured {
			a.setCaptured(false)
		}
	})
}
