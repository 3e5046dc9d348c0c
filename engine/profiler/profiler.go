package profiler

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-facedepth/common"
)

// Profiler tracks frame rate, detector throughput and memory statistics.
// Outputs stats to the logger at a fixed interval.
type Profiler struct {
	logger *slog.Logger

	frameCount     int
	detectedCount  int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a Profiler reporting once per second.
//
// Parameters:
//   - logger: the destination, or nil to discard
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(logger *slog.Logger) *Profiler {
	return &Profiler{
		logger:         common.LoggerOr(logger).With("component", "profiler"),
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
}

// Tick should be called once per frame.
// Logs the frame rate, the share of frames holding a face, heap usage, allocation rate and GC pauses
// when the update interval has elapsed.
//
// Parameters:
//   - detected: whether the frame's detector output held a face
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(detected bool) bool {
	p.frameCount++
	if detected {
		p.detectedCount++
	}
	now := time.Now()
	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc

	gcCount := p.memStats.NumGC
	var lastPause, maxPause time.Duration
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses.
		lastPause = time.Duration(p.memStats.PauseNs[(gcCount-1)%256])
		start := p.lastGCCount
		if gcCount-start > 256 {
			start = gcCount - 256
		}
		for i := start; i < gcCount; i++ {
			maxPause = max(maxPause, time.Duration(p.memStats.PauseNs[i%256]))
		}
	}

	p.logger.Info("frame stats",
		"fps", float64(p.frameCount)/elapsed.Seconds(),
		"detected_ratio", float64(p.detectedCount)/float64(p.frameCount),
		"heap_mb", float64(p.memStats.Alloc)/1024/1024,
		"alloc_mb_per_s", float64(allocDelta)/1024/1024/elapsed.Seconds(),
		"gc", gcCount,
		"gc_last_pause", lastPause,
		"gc_max_pause", maxPause,
		"sys_mb", float64(p.memStats.Sys)/1024/1024,
	)

	p.frameCount = 0
	p.detectedCount = 0
	p.lastTime = now
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
