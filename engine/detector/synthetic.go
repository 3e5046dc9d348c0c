package detector

import (
	"context"
	"fmt"
	"math"
)

// Synthetic is a deterministic Detector that generates a dome-shaped face and a swaying head pose.
// Frame n depends only on n and the construction options, which makes it the reference source for tests and demos.
type Synthetic struct {
	base

	resolution int
	pattern    []bool
	amplitude  [3]float32
	period     int
	frame      int
}

var _ Detector = &Synthetic{}

// NewSynthetic creates a Synthetic detector.
//
// Parameters:
//   - opts: WithResolution, WithDetectionPattern, WithHeadMotion, WithLogger, WithWorkers
//
// Returns:
//   - *Synthetic: the new detector
func NewSynthetic(opts ...DetectorBuilderOption) *Synthetic {
	o := newOptions(opts)
	return &Synthetic{
		base:       newBase("synthetic", o),
		resolution: o.resolution,
		pattern:    o.pattern,
		amplitude:  o.amplitude,
		period:     o.period,
	}
}

func (s *Synthetic) Init(ctx context.Context, cfg Config) *Ready {
	return s.init(ctx, cfg, func(context.Context) (BufferInfo, error) {
		if s.resolution <= 0 {
			return BufferInfo{}, fmt.Errorf("detector: synthetic resolution must be positive, got %d", s.resolution)
		}
		return BufferInfo{Resolution: s.resolution}, nil
	})
}

// Poll generates the next frame. It returns false until Init has resolved successfully.
func (s *Synthetic) Poll() (Frame, bool) {
	if !s.isReady() {
		return Frame{}, false
	}
	f := SyntheticFrame(s.frame, s.resolution, s.pattern, s.amplitude, s.period)
	s.frame++
	s.offer(f)
	return s.take()
}

func (s *Synthetic) Close() error {
	s.close()
	return nil
}

// SyntheticFrame builds frame n of a synthetic session.
//
// Parameters:
//   - n: the frame index
//   - res: the frame resolution
//   - pattern: the cyclic detected flags
//   - amplitude: the peak rotation per axis in radians
//   - period: the frames per full head sway
//
// Returns:
//   - Frame: the generated frame
func SyntheticFrame(n, res int, pattern []bool, amplitude [3]float32, period int) Frame {
	detected := true
	if len(pattern) > 0 {
		detected = pattern[n%len(pattern)]
	}
	phase := 2 * math.Pi * float64(n%max(period, 1)) / float64(max(period, 1))

	f := Frame{
		Detected:   detected,
		Resolution: res,
		Buffer:     make([]byte, res*res*4),
	}
	if !detected {
		return f
	}
	f.Rx = amplitude[0] * float32(math.Sin(phase))
	f.Ry = amplitude[1] * float32(math.Sin(2*phase))
	f.Rz = amplitude[2] * float32(math.Cos(phase))

	for y := 0; y < res; y++ {
		for x := 0; x < res; x++ {
			u := (float64(x)+0.5)/float64(res)*2 - 1
			v := (float64(y)+0.5)/float64(res)*2 - 1
			// depth is 1 at the center and falls to -1 at the rim
			d := max(1-2*(u*u+v*v), -1)
			i := (y*res + x) * 4
			shade := 0.55 + 0.45*(d+1)/2
			f.Buffer[i] = byte(230 * shade)
			f.Buffer[i+1] = byte(185 * shade)
			f.Buffer[i+2] = byte(160 * shade)
			f.Buffer[i+3] = byte(math.Round((d + 1) / 2 * 255))
		}
	}
	return f
}
