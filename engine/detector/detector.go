package detector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-facedepth/common"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/preview"
)

var (
	// ErrClosed is returned by operations on a closed detector.
	ErrClosed = errors.New("detector closed")

	// ErrNoFrames is returned when a source holds nothing to replay.
	ErrNoFrames = errors.New("detector has no frames")

	// ErrModelLoad is returned when a configured network file cannot be loaded.
	ErrModelLoad = errors.New("detector model load")
)

// Frame is one result of the face tracker: the face color with encoded depth in the alpha channel, plus the head pose.
type Frame struct {
	Detected bool
	// Buffer holds Resolution*Resolution RGBA texels. Depth is stored in A, decoded as 2*a/255-1.
	Buffer     []byte
	Resolution int
	// Rx, Ry, Rz are the head rotation angles in radians.
	Rx, Ry, Rz float32
}

// Clone returns a deep copy of the frame.
//
// Returns:
//   - Frame: a copy that shares no memory with f
func (f Frame) Clone() Frame {
	c := f
	c.Buffer = append([]byte(nil), f.Buffer...)
	return c
}

// BufferInfo describes the frame buffers a ready detector will produce.
type BufferInfo struct {
	Resolution int
}

// Config is the tracker configuration handed to Init.
type Config struct {
	// NNTrackPath is the path to the tracking network, or "" for the built-in one.
	NNTrackPath string
	// NNDepthPath is the path to the depth network, or "" for the built-in one.
	NNDepthPath string
	// Canvas receives the raw camera preview drawn by RenderVideo. May be nil.
	Canvas preview.Canvas
	// KeepRunningOnFocusLost keeps the tracker polling while the host window is unfocused.
	KeepRunningOnFocusLost bool
	// FollowZRot forwards the head roll angle. When false Rz is always reported as 0.
	FollowZRot bool
}

// Detector is the contract of an external face tracker. Init is one-shot; Poll, RenderVideo and the frame
// consumer all run on the frame goroutine.
type Detector interface {
	// Init starts loading the tracker. Subsequent calls return the same Ready.
	//
	// Parameters:
	//   - ctx: bounds the load
	//   - cfg: the tracker configuration
	//
	// Returns:
	//   - *Ready: resolves once the tracker produces frames, or with the load error
	Init(ctx context.Context, cfg Config) *Ready

	// Poll returns the latest frame produced since the previous Poll.
	//
	// Returns:
	//   - Frame: the frame
	//   - bool: false when no new frame is available
	Poll() (Frame, bool)

	// RenderVideo draws the most recently polled frame onto the configured preview canvas.
	RenderVideo()

	Close() error
}

// base carries the state shared by every Detector implementation: the readiness future, the
// latest-wins mailbox, and the preview hookup.
type base struct {
	mu sync.Mutex

	name    string
	cfg     Config
	ready   *Ready
	pending *Frame
	current *Frame
	closed  bool

	logger *slog.Logger
	pool   worker.DynamicWorkerPool
}

func newBase(name string, o *options) base {
	return base{
		name:   name,
		logger: common.LoggerOr(o.logger).With("component", "detector", "source", name),
		pool:   worker.NewDynamicWorkerPool(max(o.workers, 1), 4, 1*time.Second),
	}
}

// init stores cfg and submits load exactly once.
func (b *base) init(ctx context.Context, cfg Config, load func(ctx context.Context) (BufferInfo, error)) *Ready {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ready != nil {
		return b.ready
	}
	b.cfg = cfg
	if b.closed {
		b.ready = Resolved(BufferInfo{}, ErrClosed)
		return b.ready
	}
	b.ready = submitReady(b.pool, func() (BufferInfo, error) {
		if err := loadNetworks(cfg); err != nil {
			return BufferInfo{}, err
		}
		info, err := load(ctx)
		if err != nil {
			return BufferInfo{}, err
		}
		b.logger.Info("detector ready", "resolution", info.Resolution)
		return info, nil
	})
	return b.ready
}

// isReady reports whether Init resolved successfully.
func (b *base) isReady() bool {
	b.mu.Lock()
	r := b.ready
	closed := b.closed
	b.mu.Unlock()
	if r == nil || closed {
		return false
	}
	select {
	case <-r.Done():
		return r.Err() == nil
	default:
		return false
	}
}

// offer places f in the mailbox, replacing any frame not yet polled.
func (b *base) offer(f Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	if b.pending != nil {
		b.logger.Debug("dropping unpolled frame")
	}
	b.pending = &f
}

// take empties the mailbox.
func (b *base) take() (Frame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == nil || b.closed {
		return Frame{}, false
	}
	f := b.deliver(*b.pending)
	b.pending = nil
	return f, true
}

// deliver applies the per-config frame adjustments and remembers f for RenderVideo. Requires b.mu.
func (b *base) deliver(f Frame) Frame {
	if !b.cfg.FollowZRot {
		f.Rz = 0
	}
	b.current = &f
	return f
}

func (b *base) RenderVideo() {
	b.mu.Lock()
	canvas := b.cfg.Canvas
	cur := b.current
	b.mu.Unlock()

	if canvas == nil || cur == nil || len(cur.Buffer) == 0 {
		return
	}
	if err := canvas.Draw(cur.Buffer, cur.Resolution); err != nil {
		b.logger.Debug("preview draw failed", "error", err)
	}
}

func (b *base) close() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.closed = true
	b.pending = nil
	if b.ready != nil {
		// a load still queued on the stopped pool would never resolve
		b.ready.resolve(BufferInfo{}, ErrClosed)
	}
	b.pool.Stop()
	return true
}

// loadNetworks checks that the configured network files can be read.
func loadNetworks(cfg Config) error {
	for _, p := range []string{cfg.NNTrackPath, cfg.NNDepthPath} {
		if p == "" {
			continue
		}
		fi, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrModelLoad, err)
		}
		if fi.IsDir() || fi.Size() == 0 {
			return fmt.Errorf("%w: %s is not a network file", ErrModelLoad, p)
		}
	}
	return nil
}
