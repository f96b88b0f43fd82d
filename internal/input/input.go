// Package input maps GLFW key and mouse events to logical actions.
package input

import (
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Action is a logical control, independent of the key that triggers it.
type Action int

const (
	ActionMoveForward Action = iota
	ActionMoveBackward
	ActionMoveLeft
	ActionMoveRight
	ActionMoveUp
	ActionMoveDown
	ActionBoost
	ActionToggleCapture
	ActionToggleCulling
	ActionToggleProfiling
	ActionUIPrev
	ActionUINext
	ActionUIDecrease
	ActionUIIncrease
	ActionPick
	ActionQuit
	ActionCount
)

var actionNames = [ActionCount]string{
	"move_forward", "move_backward", "move_left", "move_right", "move_up", "move_down",
	"boost", "toggle_capture", "toggle_culling", "toggle_profiling",
	"ui_prev", "ui_next", "ui_decrease", "ui_increase", "pick", "quit",
}

func (a Action) String() string {
	if a < 0 || a >= ActionCount {
		return "unknown"
	}
	return actionNames[a]
}

// InputManager maps keys and mouse buttons to actions and tracks per-frame
// press and release edges.
type InputManager struct {
	mu sync.RWMutex

	keyToActions         map[glfw.Key][]Action
	mouseButtonToActions map[glfw.MouseButton][]Action

	currentState [ActionCount]bool
	justPressed  [ActionCount]bool
	justReleased [ActionCount]bool
}

// NewInputManager returns a manager with the default bindings: WASD or the
// arrow keys to move, Space/Shift for up/down, F3 to capture the cursor,
// Tab and brackets for the control panel.
func NewInputManager() *InputManager {
	im := &InputManager{
		keyToActions:         make(map[glfw.Key][]Action),
		mouseButtonToActions: make(map[glfw.MouseButton][]Action),
	}

	im.BindKey(glfw.KeyW, ActionMoveForward)
	im.BindKey(glfw.KeyUp, ActionMoveForward)
	im.BindKey(glfw.KeyS, ActionMoveBackward)
	im.BindKey(glfw.KeyDown, ActionMoveBackward)
	im.BindKey(glfw.KeyA, ActionMoveLeft)
	im.BindKey(glfw.KeyLeft, ActionMoveLeft)
	im.BindKey(glfw.KeyD, ActionMoveRight)
	im.BindKey(glfw.KeyRight, ActionMoveRight)
	im.BindKey(glfw.KeySpace, ActionMoveUp)
	im.BindKey(glfw.KeyLeftShift, ActionMoveDown)
	im.BindKey(glfw.KeyLeftControl, ActionBoost)
	im.BindKey(glfw.KeyF3, ActionToggleCapture)
	im.BindKey(glfw.KeyC, ActionToggleCulling)
	im.BindKey(glfw.KeyV, ActionToggleProfiling)
	im.BindKey(glfw.KeyTab, ActionUINext)
	im.BindKey(glfw.KeyGraveAccent, ActionUIPrev)
	im.BindKey(glfw.KeyLeftBracket, ActionUIDecrease)
	im.BindKey(glfw.KeyPageDown, ActionUIDecrease)
	im.BindKey(glfw.KeyRightBracket, ActionUIIncrease)
	im.BindKey(glfw.KeyPageUp, ActionUIIncrease)
	im.BindKey(glfw.KeyEscape, ActionQuit)

	im.BindMouseButton(glfw.MouseButtonLeft, ActionPick)

	return im
}

// BindKey adds action to key. A key may drive several actions and an
// action may have several keys.
func (im *InputManager) BindKey(key glfw.Key, action Action) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if action < 0 || action >= ActionCount {
		return
	}

	im.keyToActions[key] = append(im.keyToActions[key], action)
}

// UnbindKey removes every action bound to key.
func (im *InputManager) UnbindKey(key glfw.Key) {
	im.mu.Lock()
	defer im.mu.Unlock()

	delete(im.keyToActions, key)
}

// BindMouseButton adds action to button.
func (im *InputManager) BindMouseButton(button glfw.MouseButton, action Action) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if action < 0 || action >= ActionCount {
		return
	}

	im.mouseButtonToActions[button] = append(im.mouseButtonToActions[button], action)
}

// UnbindMouseButton removes every action bound to button.
func (im *InputManager) UnbindMouseButton(button glfw.MouseButton) {
	im.mu.Lock()
	defer im.mu.Unlock()

	delete(im.mouseButtonToActions, button)
}

// HandleKeyEvent applies a key event. Repeats count as held.
func (im *InputManager) HandleKeyEvent(key glfw.Key, action glfw.Action) {
	im.mu.RLock()
	actions := im.keyToActions[key]
	im.mu.RUnlock()
	im.setState(actions, action == glfw.Press || action == glfw.Repeat)
}

// HandleMouseButtonEvent applies a mouse button event.
func (im *InputManager) HandleMouseButtonEvent(button glfw.MouseButton, action glfw.Action) {
	im.mu.RLock()
	actions := im.mouseButtonToActions[button]
	im.mu.RUnlock()
	im.setState(actions, action == glfw.Press)
}

func (im *InputManager) setState(actions []Action, pressed bool) {
	if len(actions) == 0 {
		return
	}
	im.mu.Lock()
	defer im.mu.Unlock()
	for _, act := range actions {
		// Edges are latched when the event arrives so a press and release
		// within one frame are both seen.
		if pressed && !im.currentState[act] {
			im.justPressed[act] = true
		}
		if !pressed && im.currentState[act] {
			im.justReleased[act] = true
		}
		im.currentState[act] = pressed
	}
}

// Attach installs key and mouse button callbacks on window.
func (im *InputManager) Attach(window *glfw.Window) {
	window.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		im.HandleKeyEvent(key, action)
	})
	window.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		im.HandleMouseButtonEvent(button, action)
	})
}

// PostUpdate clears the press and release edges. Call at the end of every
// frame, after all input has been read.
func (im *InputManager) PostUpdate() {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.justPressed = [ActionCount]bool{}
	im.justReleased = [ActionCount]bool{}
}

// Axis returns +1, -1 or 0 from a pair of opposing actions.
func (im *InputManager) Axis(positive, negative Action) float32 {
	var v float32
	if im.IsActive(positive) {
		v++
	}
	if im.IsActive(negative) {
		v--
	}
	return v
}

// IsActive reports whether action is held.
func (im *InputManager) IsActive(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}

	im.mu.RLock()
	defer im.mu.RUnlock()

	return im.currentState[action]
}

// JustPressed reports whether action went down this frame.
func (im *InputManager) JustPressed(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}

	im.mu.RLock()
	defer im.mu.RUnlock()

	return im.justPressed[action]
}

// JustReleased reports whether action went up this frame.
func (im *InputManager) JustReleased(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}

	im.mu.RLock()
	defer im.mu.RUnlock()

	return im.justReleased[action]
}
