package graphics

import "github.com/go-gl/mathgl/mgl32"

// View is what a scene needs from a camera each frame.
type View interface {
	View() mgl32.Mat4
	// Projection uses OpenGL clip conventions; devices correct it.
	Projection() mgl32.Mat4
	Eye() mgl32.Vec3
}

// UI is the immediate-mode debug control surface scenes draw into.
type UI interface {
	// SliderInt shows an integer slider and reports whether value changed.
	SliderInt(label string, value *int, min, max int) bool
}
