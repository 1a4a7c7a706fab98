// Package config centralizes all tunable simulation parameters.
package config

import "time"

// Fixed timestep
const (
	FixedStep        = 0.016 // Seconds of simulated time per physics step (~62.5 Hz)
	MaxStepsPerFrame = 5     // Catch-up steps allowed in a single frame
)

// Frame pacing for the headless/terminal loop.
const (
	FrameRate     = 60
	FrameInterval = time.Second / FrameRate
)

// FPS estimation
const (
	FPSWindow = 500 * time.Millisecond
)

// Spawning
const (
	SpawnInterval     = 100 * time.Millisecond
	SpawnFPSThreshold = 50  // Spawn only while the FPS estimate is strictly above this
	SpawnHeight       = 10  // World units above the ground
	SpawnSpread       = 2.5 // Max horizontal offset either side of the origin
	MaxCubes          = 0   // 0 = unlimited
)

// Cube and ground geometry (world units).
const (
	CubeHalfExtent   = 0.5
	CubeDensity      = 1.0
	CubeRestitution  = 0.3
	CubeFriction     = 0.5
	GroundHalfWidth  = 20.0
	GroundHalfHeight = 0.1
	GroundFriction   = 0.8
)

// Physics world
const (
	Gravity            = -9.81
	SolverIterations   = 10
	SleepTimeThreshold = 0.5 // Seconds at rest before a body is put to sleep
)

// Camera
const (
	CameraTargetX    = 0.0
	CameraTargetY    = 5.0
	CameraViewHeight = 12.0 // World units visible vertically
)

// Viewer rendering
const (
	ViewerTargetFPS       = 30
	ViewerTargetFrameTime = time.Second / ViewerTargetFPS
	MaxTermWidth          = 240
	MaxTermHeight         = 70
)

// Shutdown
const (
	ShutdownDisplaySeconds = 5.0 // Seconds to show shutdown message before auto-disconnect
)

// Inactivity
const (
	InactivityDisconnectViewer = 15 * time.Minute
)

// Web stats stream
const (
	StreamInterval  = time.Second / 30
	StreamWriteWait = 2 * time.Second
)
