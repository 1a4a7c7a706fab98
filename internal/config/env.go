// Package config provides shared configuration utilities.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	simconfig "github.com/tomz197/cubefall/internal/sim/config"
)

// ErrInvalidValue is wrapped by every error caused by a malformed override.
var ErrInvalidValue = errors.New("invalid configuration value")

// Settings holds the runtime tunables of a simulation context.
type Settings struct {
	FixedStep         float64
	MaxStepsPerFrame  int
	FrameInterval     time.Duration
	SpawnInterval     time.Duration
	SpawnFPSThreshold int
	MaxCubes          int
	Seed              int64
	LogLevel          string
}

// Defaults returns the reference settings.
func Defaults() Settings {
	return Settings{
		FixedStep:         simconfig.FixedStep,
		MaxStepsPerFrame:  simconfig.MaxStepsPerFrame,
		FrameInterval:     simconfig.FrameInterval,
		SpawnInterval:     simconfig.SpawnInterval,
		SpawnFPSThreshold: simconfig.SpawnFPSThreshold,
		MaxCubes:          simconfig.MaxCubes,
		Seed:              time.Now().UnixNano(),
		LogLevel:          "info",
	}
}

// Load reads settings from CUBEFALL_* environment variables on top of Defaults.
func Load() (Settings, error) {
	s := Defaults()
	var err error

	if s.FixedStep, err = GetEnvFloat("CUBEFALL_FIXED_STEP", s.FixedStep); err != nil {
		return Settings{}, err
	}
	if s.MaxStepsPerFrame, err = GetEnvInt("CUBEFALL_MAX_STEPS", s.MaxStepsPerFrame); err != nil {
		return Settings{}, err
	}
	frameRate, err := GetEnvInt("CUBEFALL_FRAME_RATE", simconfig.FrameRate)
	if err != nil {
		return Settings{}, err
	}
	if s.SpawnInterval, err = GetEnvDuration("CUBEFALL_SPAWN_INTERVAL", s.SpawnInterval); err != nil {
		return Settings{}, err
	}
	if s.SpawnFPSThreshold, err = GetEnvInt("CUBEFALL_SPAWN_FPS", s.SpawnFPSThreshold); err != nil {
		return Settings{}, err
	}
	if s.MaxCubes, err = GetEnvInt("CUBEFALL_MAX_CUBES", s.MaxCubes); err != nil {
		return Settings{}, err
	}
	seed, err := GetEnvInt("CUBEFALL_SEED", 0)
	if err != nil {
		return Settings{}, err
	}
	if seed != 0 {
		s.Seed = int64(seed)
	}
	s.LogLevel = GetEnv("CUBEFALL_LOG_LEVEL", s.LogLevel)

	switch {
	case s.FixedStep <= 0:
		return Settings{}, fmt.Errorf("CUBEFALL_FIXED_STEP must be positive: %w", ErrInvalidValue)
	case s.MaxStepsPerFrame < 1:
		return Settings{}, fmt.Errorf("CUBEFALL_MAX_STEPS must be at least 1: %w", ErrInvalidValue)
	case frameRate < 1:
		return Settings{}, fmt.Errorf("CUBEFALL_FRAME_RATE must be at least 1: %w", ErrInvalidValue)
	case s.SpawnInterval <= 0:
		return Settings{}, fmt.Errorf("CUBEFALL_SPAWN_INTERVAL must be positive: %w", ErrInvalidValue)
	case s.MaxCubes < 0:
		return Settings{}, fmt.Errorf("CUBEFALL_MAX_CUBES must be non-negative: %w", ErrInvalidValue)
	}
	s.FrameInterval = time.Second / time.Duration(frameRate)

	return s, nil
}

// GetEnv returns the value of the environment variable named by the key,
// or fallback if the variable is not set.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetEnvInt parses an integer override.
func GetEnvInt(key string, fallback int) (int, error) {
	raw, ok := lookup(key)
	if !ok {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s=%q: %w", key, raw, ErrInvalidValue)
	}
	return v, nil
}

// GetEnvFloat parses a float override.
func GetEnvFloat(key string, fallback float64) (float64, error) {
	raw, ok := lookup(key)
	if !ok {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s=%q: %w", key, raw, ErrInvalidValue)
	}
	return v, nil
}

// GetEnvDuration parses a time.Duration override such as "250ms".
func GetEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := lookup(key)
	if !ok {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s=%q: %w", key, raw, ErrInvalidValue)
	}
	return v, nil
}

// lookup treats blank values as unset.
func lookup(key string) (string, bool) {
	raw, ok := os.LookupEnv(key)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return "", false
	}
	return raw, true
}
