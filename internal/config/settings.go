package config

import "sync"

// RuntimeSettings holds the values the frame loop can tune while running.
type RuntimeSettings struct {
	mu               sync.RWMutex
	fov              float32
	cameraSpeed      float32
	mouseSensitivity float64
	frustumCulling   bool
}

var globalRuntimeSettings = &RuntimeSettings{
	fov:              60,
	cameraSpeed:      3,
	mouseSensitivity: 0.1,
	frustumCulling:   true,
}

// ApplyRuntime seeds the runtime settings from a loaded config.
func ApplyRuntime(cfg *Config) {
	SetFOV(cfg.Camera.FOV)
	SetCameraSpeed(cfg.Camera.Speed)
	SetMouseSensitivity(cfg.Camera.Sensitivity)
	SetFrustumCulling(cfg.Terrain.FrustumCulling)
}

// GetFOV returns the vertical field of view in degrees.
func GetFOV() float32 {
	globalRuntimeSettings.mu.RLock()
	defer globalRuntimeSettings.mu.RUnlock()
	return globalRuntimeSettings.fov
}

// SetFOV sets the field of view, clamped to [30, 120].
func SetFOV(fov float32) {
	globalRuntimeSettings.mu.Lock()
	defer globalRuntimeSettings.mu.Unlock()
	globalRuntimeSettings.fov = max(30, min(120, fov))
}

// GetCameraSpeed returns the free camera speed in world units per second.
func GetCameraSpeed() float32 {
	globalRuntimeSettings.mu.RLock()
	defer globalRuntimeSettings.mu.RUnlock()
	return globalRuntimeSettings.cameraSpeed
}

// SetCameraSpeed sets the camera speed, clamped to [0.1, 5000].
func SetCameraSpeed(speed float32) {
	globalRuntimeSettings.mu.Lock()
	defer globalRuntimeSettings.mu.Unlock()
	globalRuntimeSettings.cameraSpeed = max(0.1, min(5000, speed))
}

// GetMouseSensitivity returns degrees turned per pixel of cursor movement.
func GetMouseSensitivity() float64 {
	globalRuntimeSettings.mu.RLock()
	defer globalRuntimeSettings.mu.RUnlock()
	return globalRuntimeSettings.mouseSensitivity
}

// SetMouseSensitivity sets the sensitivity, clamped to [0.01, 1].
func SetMouseSensitivity(s float64) {
	globalRuntimeSettings.mu.Lock()
	defer globalRuntimeSettings.mu.Unlock()
	globalRuntimeSettings.mouseSensitivity = max(0.01, min(1, s))
}

// GetFrustumCulling reports whether chunks outside the view are skipped.
func GetFrustumCulling() bool {
	globalRuntimeSettings.mu.RLock()
	defer globalRuntimeSettings.mu.RUnlock()
	return globalRuntimeSettings.frustumCulling
}

// SetFrustumCulling toggles frustum culling.
func SetFrustumCulling(on bool) {
	globalRuntimeSettings.mu.Lock()
	defer globalRuntimeSettings.mu.Unlock()
	globalRuntimeSettings.frustumCulling = on
}
