package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickReportsOncePerInterval(t *testing.T) {
	var buf bytes.Buffer
	p := NewProfiler(slog.New(slog.NewTextHandler(&buf, nil)))

	assert.False(t, p.Tick(true))
	assert.Empty(t, buf.String())

	p.lastTime = time.Now().Add(-2 * time.Second)
	assert.True(t, p.Tick(false))
	assert.Contains(t, buf.String(), "frame stats")
	assert.Contains(t, buf.String(), "detected_ratio=0.5")
	assert.Zero(t, p.frameCount)
	assert.Zero(t, p.detectedCount)
}

func TestNilLoggerDiscards(t *testing.T) {
	p := NewProfiler(nil)
	p.updateInterval = 0
	assert.True(t, p.Tick(true))
}
