package graphics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

var worldUp = mgl32.Vec3{0, 1, 0}

// Camera is a free-flying perspective camera driven by yaw and pitch in
// degrees.
type Camera struct {
	Position    mgl32.Vec3
	Yaw         float64
	Pitch       float64
	AspectRatio float32
	FOV         float32
	NearPlane   float32
	FarPlane    float32
	// Speed is in world units per second.
	Speed       float32
	Sensitivity float64

	lastX, lastY float64
	firstMouse   bool
}

// NewCamera returns a camera at the origin looking down -z.
func NewCamera(width, height int) *Camera {
	c := &Camera{
		Yaw:         -90,
		FOV:         60,
		NearPlane:   0.1,
		FarPlane:    1000,
		Speed:       3,
		Sensitivity: 0.1,
		firstMouse:  true,
	}
	c.SetViewport(width, height)
	return c
}

// SetViewport updates the aspect ratio. A zero height is ignored, which
// happens while the window is minimized.
func (c *Camera) SetViewport(width, height int) {
	if height <= 0 {
		return
	}
	c.AspectRatio = float32(width) / float32(height)
}

// HandleMouseMovement turns the camera by the cursor delta.
func (c *Camera) HandleMouseMovement(xpos, ypos float64) {
	if c.firstMouse {
		c.lastX, c.lastY = xpos, ypos
		c.firstMouse = false
		return
	}
	dx := (xpos - c.lastX) * c.Sensitivity
	dy := (c.lastY - ypos) * c.Sensitivity
	c.lastX, c.lastY = xpos, ypos

	c.Yaw += dx
	c.Pitch = max(-89, min(89, c.Pitch+dy))
}

// ResetMouse makes the next movement event re-anchor the cursor, so that
// recapturing the cursor does not jump the view.
func (c *Camera) ResetMouse() { c.firstMouse = true }

// Front is the unit view direction.
func (c *Camera) Front() mgl32.Vec3 {
	y := float64(mgl32.DegToRad(float32(c.Yaw)))
	p := float64(mgl32.DegToRad(float32(c.Pitch)))
	return mgl32.Vec3{
		float32(math.Cos(y) * math.Cos(p)),
		float32(math.Sin(p)),
		float32(math.Sin(y) * math.Cos(p)),
	}.Normalize()
}

// Right is the unit vector to the right of the view direction.
func (c *Camera) Right() mgl32.Vec3 {
	return c.Front().Cross(worldUp).Normalize()
}

// Move translates the camera along its front, right and world-up axes.
// Each axis is in [-1, 1].
func (c *Camera) Move(forward, right, up float32, dt float64) {
	d := c.Front().Mul(forward).Add(c.Right().Mul(right)).Add(worldUp.Mul(up))
	if d.Len() == 0 {
		return
	}
	c.Position = c.Position.Add(d.Normalize().Mul(c.Speed * float32(dt)))
}

// View returns the world-to-view matrix.
func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Front()), worldUp)
}

// Projection returns an OpenGL-convention perspective matrix.
func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.AspectRatio, c.NearPlane, c.FarPlane)
}

// Eye is the camera position.
func (c *Camera) Eye() mgl32.Vec3 { return c.Position }

// Ray returns the world-space direction through a cursor position given in
// window pixels with the origin at the top left.
func (c *Camera) Ray(cursorX, cursorY float64, width, height int) (mgl32.Vec3, error) {
	winY := float32(height) - float32(cursorY)
	near, err := mgl32.UnProject(mgl32.Vec3{float32(cursorX), winY, 0}, c.View(), c.Projection(), 0, 0, width, height)
	if err != nil {
		return mgl32.Vec3{}, err
	}
	far, err := mgl32.UnProject(mgl32.Vec3{float32(cursorX), winY, 1}, c.View(), c.Projection(), 0, 0, width, height)
	if err != nil {
		return mgl32.Vec3{}, err
	}
	return far.Sub(near).Normalize(), nil
}
