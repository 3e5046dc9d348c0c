package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-facedepth/common"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/detector"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/face"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/profiler"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/scene"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/window"
)

// engine implements the Engine interface.
// Runs detection, animation and rendering on one goroutine so the neck override and the body animation
// never write the same bone concurrently.
type engine struct {
	helper *face.Helper
	det    detector.Detector
	logger *slog.Logger

	window window.Window
	scene  scene.Scene

	profiler         *profiler.Profiler
	profilingEnabled bool

	frameInterval time.Duration
	maxFrames     int

	animate  func(deltaTime float32)
	observer func(f detector.Frame)

	focused bool
	frames  int
	polled  int
	lastErr string

	quitChannel chan struct{}
	quitOnce    sync.Once
}

// Engine drives an initialized face depth Helper frame by frame.
type Engine interface {
	// Window returns the attached window, or nil when running headless.
	Window() window.Window

	// Helper returns the driven helper.
	Helper() *face.Helper

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetFrameRate sets the target frame rate.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetFrameRate(fps float64)

	// SetAnimationCallback registers the body animation step. It runs every frame after the detector
	// output is applied and before the helper renders, so the neck override lands on top of it.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetAnimationCallback(callback func(deltaTime float32))

	// SetFocused records a host focus change. While unfocused the detector is not polled unless the
	// helper is configured to keep running on focus loss.
	//
	// Parameters:
	//   - focused: whether the host has input focus
	SetFocused(focused bool)

	// Polling reports whether the next Step polls the detector.
	Polling() bool

	// Step runs one frame: poll the detector, apply the frame, animate, render.
	//
	// Parameters:
	//   - deltaTime: seconds since the previous frame
	//
	// Returns:
	//   - error: face.ErrClosed once the helper is closed; other per-frame errors are logged
	Step(deltaTime float32) error

	// Run steps at the configured frame rate until ctx is done, Quit is called, the window closes or the
	// frame limit is reached. With a window it must run on the main OS thread.
	//
	// Parameters:
	//   - ctx: cancels the loop
	//
	// Returns:
	//   - error: the error that stopped Step, if any
	Run(ctx context.Context) error

	// Frames returns the number of completed steps.
	Frames() int

	// Polled returns the number of detector frames applied.
	Polled() int

	// Quit stops Run. Safe to call multiple times.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates an Engine for an initialized helper.
//
// Parameters:
//   - helper: the face depth helper; its detector is polled each frame
//   - options: functional options for window, scene, profiling and frame rate
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(helper *face.Helper, options ...EngineBuilderOption) Engine {
	e := &engine{
		helper:        helper,
		det:           helper.Detector(),
		frameInterval: time.Second / 60,
		focused:       true,
		quitChannel:   make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}
	e.logger = common.LoggerOr(e.logger).With("component", "engine")
	e.profiler = profiler.NewProfiler(e.logger)

	if e.window != nil {
		e.focused = e.window.Focused()
		e.window.SetFocusCallback(e.SetFocused)
		e.window.SetResizeCallback(func(width, height int) {
			if e.scene == nil {
				return
			}
			if err := e.scene.Resize(width, height); err != nil {
				e.logger.Warn("resize failed", "width", width, "height", height, "error", err)
			}
		})
	}
	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Helper() *face.Helper {
	return e.helper
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetFrameRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	e.frameInterval = time.Duration(float64(time.Second) / fps)
}

func (e *engine) SetAnimationCallback(callback func(deltaTime float32)) {
	e.animate = callback
}

func (e *engine) SetFocused(focused bool) {
	if focused == e.focused {
		return
	}
	e.focused = focused
	if e.helper.Config().KeepRunningOnFocusLost {
		return
	}
	if focused {
		e.logger.Info("detector resumed")
	} else {
		e.logger.Info("detector paused on focus loss")
	}
}

func (e *engine) Polling() bool {
	return e.focused || e.helper.Config().KeepRunningOnFocusLost
}

func (e *engine) Step(deltaTime float32) error {
	detected := false
	if e.Polling() {
		if f, ok := e.det.Poll(); ok {
			e.polled++
			detected = f.Detected
			if e.observer != nil {
				e.observer(f)
			}
			if err := e.helper.OnFrame(f); err != nil {
				if errors.Is(err, face.ErrClosed) {
					return err
				}
				e.report(err)
			}
		}
	}

	if e.animate != nil {
		e.animate(deltaTime)
	}

	if err := e.helper.Render(); err != nil {
		if errors.Is(err, face.ErrClosed) {
			return err
		}
		e.report(err)
	}

	e.frames++
	if e.profilingEnabled {
		e.profiler.Tick(detected)
	}
	return nil
}

// report logs a frame error once per distinct message, so a latched failure does not flood the log.
func (e *engine) report(err error) {
	if msg := err.Error(); msg != e.lastErr {
		e.lastErr = msg
		e.logger.Warn("frame error", "frame", e.frames, "error", err)
	}
}

func (e *engine) Run(ctx context.Context) error {
	if e.window != nil {
		return e.runWindow(ctx)
	}

	ticker := time.NewTicker(e.frameInterval)
	defer ticker.Stop()
	last := time.Now()

	for !e.limitReached() {
		select {
		case <-ctx.Done():
			return nil
		case <-e.quitChannel:
			return nil
		case now := <-ticker.C:
			dt := float32(now.Sub(last).Seconds())
			last = now
			if err := e.Step(dt); err != nil {
				return err
			}
		}
	}
	return nil
}

// runWindow pumps the window's message loop and steps once per iteration, sleeping off the rest of the frame interval.
func (e *engine) runWindow(ctx context.Context) error {
	var runErr error
	last := time.Now()

	e.window.SetUpdateCallback(func() {
		now := time.Now()
		dt := float32(now.Sub(last).Seconds())
		last = now
		if err := e.Step(dt); err != nil {
			runErr = err
			e.Quit()
			return
		}
		if remaining := e.frameInterval - time.Since(now); remaining > 0 {
			time.Sleep(remaining)
		}
	})
	defer e.window.SetUpdateCallback(nil)

	e.window.ProcessMessages(func() bool {
		select {
		case <-ctx.Done():
			return true
		case <-e.quitChannel:
			return true
		default:
			return e.limitReached()
		}
	})
	return runErr
}

func (e *engine) limitReached() bool {
	return e.maxFrames > 0 && e.frames >= e.maxFrames
}

func (e *engine) Frames() int {
	return e.frames
}

func (e *engine) Polled() int {
	return e.polled
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}
