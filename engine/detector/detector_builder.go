package detector

import (
	"log/slog"
	"time"
)

// options collects the settings shared by the detector constructors. Each constructor reads the fields it needs.
type options struct {
	logger  *slog.Logger
	workers int

	resolution int
	pattern    []bool
	amplitude  [3]float32
	period     int

	loop    bool
	session string

	readLimit    int64
	writeTimeout time.Duration
}

// DetectorBuilderOption is a functional option used to configure a detector during construction.
type DetectorBuilderOption func(*options)

func newOptions(opts []DetectorBuilderOption) *options {
	o := &options{
		workers:      1,
		resolution:   64,
		pattern:      []bool{true},
		amplitude:    [3]float32{0.2, 0.35, 0.1},
		period:       120,
		writeTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the structured logger. The default discards all output.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - DetectorBuilderOption: a function that sets the logger
func WithLogger(l *slog.Logger) DetectorBuilderOption {
	return func(o *options) {
		o.logger = l
	}
}

// WithWorkers sets the size of the pool that runs the tracker load.
//
// Parameters:
//   - n: the worker count, at least 1
//
// Returns:
//   - DetectorBuilderOption: a function that sets the worker count
func WithWorkers(n int) DetectorBuilderOption {
	return func(o *options) {
		o.workers = max(n, 1)
	}
}

// WithResolution sets the frame resolution produced by a synthetic detector.
//
// Parameters:
//   - res: the width and height of generated frames
//
// Returns:
//   - DetectorBuilderOption: a function that sets the resolution
func WithResolution(res int) DetectorBuilderOption {
	return func(o *options) {
		o.resolution = res
	}
}

// WithDetectionPattern sets the cyclic detected flags of a synthetic detector, one entry per frame.
//
// Parameters:
//   - pattern: the detected flag per frame, repeated
//
// Returns:
//   - DetectorBuilderOption: a function that sets the pattern
func WithDetectionPattern(pattern ...bool) DetectorBuilderOption {
	return func(o *options) {
		if len(pattern) > 0 {
			o.pattern = append([]bool(nil), pattern...)
		}
	}
}

// WithHeadMotion sets the peak rotation in radians per axis and the period in frames of the synthetic head sway.
//
// Parameters:
//   - amplitude: the peak rx, ry, rz
//   - period: the frames per full sway, at least 1
//
// Returns:
//   - DetectorBuilderOption: a function that sets the head motion
func WithHeadMotion(amplitude [3]float32, period int) DetectorBuilderOption {
	return func(o *options) {
		o.amplitude = amplitude
		o.period = max(period, 1)
	}
}

// WithLoop makes a replay start over after its last frame.
//
// Returns:
//   - DetectorBuilderOption: a function that enables looping
func WithLoop() DetectorBuilderOption {
	return func(o *options) {
		o.loop = true
	}
}

// WithSession selects the recording session a replay reads. The default is the most recent session.
//
// Parameters:
//   - id: the session identifier
//
// Returns:
//   - DetectorBuilderOption: a function that sets the session
func WithSession(id string) DetectorBuilderOption {
	return func(o *options) {
		o.session = id
	}
}

// WithReadLimit caps the size of a websocket message.
//
// Parameters:
//   - n: the maximum message size in bytes, 0 for no limit
//
// Returns:
//   - DetectorBuilderOption: a function that sets the read limit
func WithReadLimit(n int64) DetectorBuilderOption {
	return func(o *options) {
		o.readLimit = n
	}
}

// WithWriteTimeout bounds each frame write of a Publisher.
//
// Parameters:
//   - d: the write deadline per frame
//
// Returns:
//   - DetectorBuilderOption: a function that sets the write timeout
func WithWriteTimeout(d time.Duration) DetectorBuilderOption {
	return func(o *options) {
		o.writeTimeout = d
	}
}
