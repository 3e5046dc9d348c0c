package face

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-facedepth/engine/preview"
)

// PreviewState tracks the raw camera preview. The preview is displayed and refreshed every frame until a
// face is detected; then it collapses at once, and refreshes stop after a debounce delay unless the face is
// lost first. Losing the face restores the preview immediately.
//
// Apply and the canvas writes happen on the frame goroutine. The debounce timer only clears the
// updating flag, under mu, and is disarmed by Close.
type PreviewState struct {
	mu sync.Mutex

	canvas preview.Canvas
	delay  time.Duration

	displayed bool
	updating  bool
	timer     *time.Timer
	gen       uint64
	closed    bool
}

// NewPreviewState creates a displayed, updating preview state.
//
// Parameters:
//   - canvas: the preview canvas to scale, or nil
//   - delay: the debounce before refreshes stop once a face is detected
//
// Returns:
//   - *PreviewState: the state
func NewPreviewState(canvas preview.Canvas, delay time.Duration) *PreviewState {
	return &PreviewState{
		canvas:    canvas,
		delay:     delay,
		displayed: true,
		updating:  true,
	}
}

// Apply feeds one frame's detection flag.
//
// Parameters:
//   - detected: whether the frame holds a face
func (p *PreviewState) Apply(detected bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	switch {
	case p.displayed && detected:
		p.displayed = false
		p.updating = true
		if p.canvas != nil {
			p.canvas.SetScale(preview.HiddenScale)
		}
		p.arm()
	case !p.displayed && !detected:
		p.displayed = true
		p.updating = true
		if p.canvas != nil {
			p.canvas.SetScale(preview.ShownScale)
		}
		p.cancel()
	}
}

// arm cancels any pending suspension and schedules a new one. Requires p.mu.
func (p *PreviewState) arm() {
	p.cancel()
	gen := p.gen
	p.timer = time.AfterFunc(p.delay, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.closed || p.gen != gen {
			return
		}
		p.updating = false
		p.timer = nil
	})
}

// cancel stops the pending suspension. The generation bump discards a callback that already started. Requires p.mu.
func (p *PreviewState) cancel() {
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// Displayed reports whether the preview is shown at full scale.
func (p *PreviewState) Displayed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.displayed
}

// Updating reports whether the preview should be redrawn this frame.
func (p *PreviewState) Updating() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updating
}

// Pending reports whether a suspension is scheduled.
func (p *PreviewState) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timer != nil
}

// Close disarms the timer. No suspension fires afterwards and Apply becomes a no-op.
func (p *PreviewState) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.cancel()
}
