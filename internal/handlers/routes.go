package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/sliding-window/internal/ratelimit"
)

// RegisterRoutes registers the sliding window routes with their rate limit scenes.
func RegisterRoutes(api huma.API, windowHandler *WindowHandler, sceneHandler *SceneHandler) {
	windowOps := []struct {
		path, summary, description string
		register                   func(op huma.Operation)
	}{
		{
			path:        "/sliding-window/check",
			summary:     "Check a window",
			description: "Records an event for the key and reports whether it is over the threshold.",
			register:    func(op huma.Operation) { huma.Register(api, op, windowHandler.Check) },
		},
		{
			path:        "/sliding-window/check-and-clean",
			summary:     "Check a window and reset it when over",
			description: "Like check, but an over-limit key is cleared so the next event starts a fresh window.",
			register:    func(op huma.Operation) { huma.Register(api, op, windowHandler.CheckAndClean) },
		},
		{
			path:        "/sliding-window/count",
			summary:     "Count a window",
			description: "Records an event for the key and returns the events inside the window.",
			register:    func(op huma.Operation) { huma.Register(api, op, windowHandler.Count) },
		},
	}

	for _, w := range windowOps {
		w.register(huma.Operation{
			Method:      http.MethodGet,
			Path:        w.path,
			Summary:     w.summary,
			Description: w.description,
			Tags:        []string{"Sliding window"},
		})
	}

	// Scene routes count against the caller's own scene budget as well.
	sceneMetadata := map[string]any{
		ratelimit.MetadataKey: ratelimit.EndpointConfig{Scene: "scenes"},
	}

	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/scenes/{scene}/check",
		Summary:     "Check a scene",
		Description: "Records an event for the key using the scene's window and threshold.",
		Tags:        []string{"Scenes"},
		Metadata:    sceneMetadata,
	}, sceneHandler.Check)

	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/scenes/{scene}/check-and-clean",
		Summary:     "Check a scene and reset it when over",
		Description: "Like check, but an over-limit key is cleared.",
		Tags:        []string{"Scenes"},
		Metadata:    sceneMetadata,
	}, sceneHandler.CheckAndClean)

	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/scenes/{scene}/count",
		Summary:     "Count a scene",
		Description: "Records an event for the key and returns the events in the scene's window.",
		Tags:        []string{"Scenes"},
		Metadata:    sceneMetadata,
	}, sceneHandler.Count)
}
