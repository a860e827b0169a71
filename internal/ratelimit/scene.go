package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSceneNotFound is returned when no configuration exists for a scene.
var ErrSceneNotFound = errors.New("scene not found")

// SceneConfig is the window a named scene is limited by.
type SceneConfig struct {
	Window    int64 // seconds
	Threshold int64
}

// SceneProvider resolves scene names to their window configuration.
type SceneProvider interface {
	// Scene returns ErrSceneNotFound when name is unknown.
	Scene(ctx context.Context, name string) (SceneConfig, error)
}

// ParseScenes reads a scene table in the form "login=60:5,sms=300:3",
// where each entry is name=windowSeconds:threshold.
func ParseScenes(s string) (map[string]SceneConfig, error) {
	scenes := make(map[string]SceneConfig)

	for entry := range strings.SplitSeq(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, pair, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid scene %q: expected name=window:threshold", entry)
		}

		cfg, err := ParseSceneConfig(pair)
		if err != nil {
			return nil, fmt.Errorf("invalid scene %q: %w", entry, err)
		}

		scenes[strings.TrimSpace(name)] = cfg
	}

	return scenes, nil
}

// ParseSceneConfig reads a single "windowSeconds:threshold" pair.
func ParseSceneConfig(s string) (SceneConfig, error) {
	windowStr, thresholdStr, ok := strings.Cut(s, ":")
	if !ok {
		return SceneConfig{}, errors.New("expected window:threshold")
	}

	window, err := strconv.ParseInt(strings.TrimSpace(windowStr), 10, 64)
	if err != nil || window <= 0 {
		return SceneConfig{}, errors.New("window must be a positive number of seconds")
	}

	threshold, err := strconv.ParseInt(strings.TrimSpace(thresholdStr), 10, 64)
	if err != nil || threshold < 0 {
		return SceneConfig{}, errors.New("threshold must not be negative")
	}

	return SceneConfig{Window: window, Threshold: threshold}, nil
}
