package detector

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// taskID numbers readiness tasks across all detectors.
var taskID atomic.Int64

// Ready is the one-shot result of Detector.Init. It resolves exactly once, either with the buffer
// description of the loaded tracker or with the load error.
type Ready struct {
	once sync.Once
	done chan struct{}
	info BufferInfo
	err  error
}

// submitReady runs load on the pool and resolves the returned Ready with its result.
func submitReady(pool worker.DynamicWorkerPool, load func() (BufferInfo, error)) *Ready {
	r := &Ready{done: make(chan struct{})}
	pool.SubmitTask(worker.Task{
		ID: int(taskID.Add(1)),
		Do: func() (any, error) {
			info, err := load()
			r.resolve(info, err)
			return info, err
		},
	})
	return r
}

// resolve settles r with the first result it is given; later calls are ignored.
func (r *Ready) resolve(info BufferInfo, err error) {
	r.once.Do(func() {
		r.info, r.err = info, err
		close(r.done)
	})
}

// Resolved returns a Ready that has already resolved, for detectors that are ready on construction.
//
// Parameters:
//   - info: the buffer description
//   - err: the load error, or nil
//
// Returns:
//   - *Ready: a resolved Ready
func Resolved(info BufferInfo, err error) *Ready {
	r := &Ready{done: make(chan struct{})}
	r.resolve(info, err)
	return r
}

// Wait blocks until the detector is ready or ctx ends.
//
// Parameters:
//   - ctx: bounds the wait
//
// Returns:
//   - BufferInfo: the frame buffer description
//   - error: the load error, or ctx.Err() when the wait was abandoned
func (r *Ready) Wait(ctx context.Context) (BufferInfo, error) {
	select {
	case <-r.done:
		return r.info, r.err
	case <-ctx.Done():
		return BufferInfo{}, ctx.Err()
	}
}

// Done returns a channel closed once the Ready has resolved.
func (r *Ready) Done() <-chan struct{} {
	return r.done
}

// Err returns the load error, or nil while unresolved or on success.
func (r *Ready) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}
