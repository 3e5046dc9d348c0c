package engine

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-facedepth/engine/detector"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/scene"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithFrameRate sets the target frame rate. Values <= 0 select 60.
//
// Parameters:
//   - fps: target frames per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60
		}
		e.frameInterval = time.Duration(float64(time.Second) / fps)
	}
}

// WithMaxFrames stops Run after n frames. 0 runs until cancelled.
//
// Parameters:
//   - n: the frame limit
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMaxFrames(n int) EngineBuilderOption {
	return func(e *engine) {
		e.maxFrames = max(n, 0)
	}
}

// WithWindow attaches a window. Run then pumps its message loop, and focus changes gate detector polling.
//
// Parameters:
//   - w: an opened Window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithScene sets the scene resized with the window.
//
// Parameters:
//   - s: the scene the helper renders
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scene = s
	}
}

// WithLogger sets the engine logger.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(l *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		e.logger = l
	}
}

// WithAnimation registers the body animation step.
//
// Parameters:
//   - fn: function receiving the delta time in seconds
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithAnimation(fn func(deltaTime float32)) EngineBuilderOption {
	return func(e *engine) {
		e.animate = fn
	}
}

// WithFrameObserver registers a function called with every polled frame before the helper applies it.
//
// Parameters:
//   - fn: the observer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameObserver(fn func(f detector.Frame)) EngineBuilderOption {
	return func(e *engine) {
		e.observer = fn
	}
}
