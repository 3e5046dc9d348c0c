package face

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-facedepth/engine/preview"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/scene"
)

// HelperBuilderOption is a functional option used to configure a Helper during construction.
type HelperBuilderOption func(*Helper)

// WithLogger sets the structured logger. The default discards all output.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - HelperBuilderOption: a function that sets the logger
func WithLogger(l *slog.Logger) HelperBuilderOption {
	return func(h *Helper) {
		h.logger = l
	}
}

// WithScene makes Render drive the given scene instead of the surface subtree alone.
//
// Parameters:
//   - s: the host scene
//
// Returns:
//   - HelperBuilderOption: a function that sets the scene
func WithScene(s scene.Scene) HelperBuilderOption {
	return func(h *Helper) {
		h.scene = s
	}
}

// WithCanvas sets the preview canvas the detector draws on and the preview state scales.
//
// Parameters:
//   - c: the preview canvas
//
// Returns:
//   - HelperBuilderOption: a function that sets the canvas
func WithCanvas(c preview.Canvas) HelperBuilderOption {
	return func(h *Helper) {
		h.canvas = c
	}
}

// WithID overrides the generated session identifier.
//
// Parameters:
//   - id: the identifier
//
// Returns:
//   - HelperBuilderOption: a function that sets the identifier
func WithID(id string) HelperBuilderOption {
	return func(h *Helper) {
		if id != "" {
			h.id = id
		}
	}
}
