package detector

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-facedepth/engine/preview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitReady(t *testing.T, r *Ready) BufferInfo {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	info, err := r.Wait(ctx)
	require.NoError(t, err)
	return info
}

func TestMailboxKeepsLatestFrame(t *testing.T) {
	b := newBase("test", newOptions(nil))
	b.cfg.FollowZRot = true

	b.offer(Frame{Rx: 1})
	b.offer(Frame{Rx: 2, Rz: 0.5})

	f, ok := b.take()
	require.True(t, ok)
	assert.Equal(t, float32(2), f.Rx)
	assert.Equal(t, float32(0.5), f.Rz)

	_, ok = b.take()
	assert.False(t, ok)
}

func TestReadyWaitHonorsContext(t *testing.T) {
	r := &Ready{done: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, r.Err())

	done := Resolved(BufferInfo{Resolution: 8}, nil)
	info, err := done.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, info.Resolution)
}

func TestSyntheticInitIsOneShot(t *testing.T) {
	s := NewSynthetic(WithResolution(16))
	defer s.Close()

	_, ok := s.Poll()
	assert.False(t, ok, "poll before init")

	r1 := s.Init(context.Background(), Config{})
	r2 := s.Init(context.Background(), Config{FollowZRot: true})
	assert.Same(t, r1, r2)
	assert.Equal(t, 16, waitReady(t, r1).Resolution)
}

func TestSyntheticFramesAreDeterministic(t *testing.T) {
	s := NewSynthetic(WithResolution(8), WithDetectionPattern(true, false), WithHeadMotion([3]float32{0.1, 0.2, 0.3}, 8))
	defer s.Close()
	waitReady(t, s.Init(context.Background(), Config{FollowZRot: true}))

	first, ok := s.Poll()
	require.True(t, ok)
	assert.True(t, first.Detected)
	assert.Equal(t, SyntheticFrame(0, 8, []bool{true, false}, [3]float32{0.1, 0.2, 0.3}, 8), first)
	assert.InDelta(t, 0.3, first.Rz, 1e-6)

	second, ok := s.Poll()
	require.True(t, ok)
	assert.False(t, second.Detected)
	assert.Len(t, second.Buffer, 8*8*4)
}

func TestSyntheticFrameDepthProfile(t *testing.T) {
	f := SyntheticFrame(0, 16, nil, [3]float32{}, 1)
	center := (8*16 + 8) * 4
	corner := 0
	assert.Greater(t, f.Buffer[center+3], byte(240))
	assert.Equal(t, byte(0), f.Buffer[corner+3])
}

func TestFollowZRotDisabledZeroesRoll(t *testing.T) {
	s := NewSynthetic(WithResolution(4), WithHeadMotion([3]float32{0, 0, 1}, 4))
	defer s.Close()
	waitReady(t, s.Init(context.Background(), Config{}))

	f, ok := s.Poll()
	require.True(t, ok)
	assert.Zero(t, f.Rz)
}

func TestInitFailsOnMissingNetwork(t *testing.T) {
	s := NewSynthetic()
	defer s.Close()

	r := s.Init(context.Background(), Config{NNTrackPath: filepath.Join(t.TempDir(), "missing.json")})
	_, err := r.Wait(context.Background())
	assert.ErrorIs(t, err, ErrModelLoad)

	_, ok := s.Poll()
	assert.False(t, ok)
}

func TestInitAcceptsNetworkFiles(t *testing.T) {
	dir := t.TempDir()
	track := filepath.Join(dir, "track.json")
	require.NoError(t, os.WriteFile(track, []byte(`{"layers":[]}`), 0o644))

	s := NewSynthetic(WithResolution(4))
	defer s.Close()
	waitReady(t, s.Init(context.Background(), Config{NNTrackPath: track}))

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	assert.ErrorIs(t, loadNetworks(Config{NNDepthPath: empty}), ErrModelLoad)
	assert.ErrorIs(t, loadNetworks(Config{NNDepthPath: dir}), ErrModelLoad)
}

func TestRenderVideoDrawsPolledFrame(t *testing.T) {
	canvas := preview.NewCanvas(8, 8)
	defer canvas.Close()

	s := NewSynthetic(WithResolution(4))
	defer s.Close()
	waitReady(t, s.Init(context.Background(), Config{Canvas: canvas}))

	s.RenderVideo()
	assert.Equal(t, 0, canvas.Frames(), "nothing polled yet")

	_, ok := s.Poll()
	require.True(t, ok)
	s.RenderVideo()
	assert.Equal(t, 1, canvas.Frames())
}

func TestClosedDetector(t *testing.T) {
	s := NewSynthetic()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.Init(context.Background(), Config{}).Wait(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCloseSettlesPendingInit(t *testing.T) {
	b := newBase("test", newOptions(nil))
	release := make(chan struct{})
	loaded := make(chan struct{})
	ready := b.init(context.Background(), Config{}, func(context.Context) (BufferInfo, error) {
		<-release
		close(loaded)
		return BufferInfo{Resolution: 4}, nil
	})

	require.True(t, b.close())
	assert.False(t, b.close(), "second close is a no-op")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := ready.Wait(ctx)
	assert.ErrorIs(t, err, ErrClosed)

	close(release)
	select {
	case <-loaded:
	case <-time.After(100 * time.Millisecond):
	}
	assert.ErrorIs(t, ready.Err(), ErrClosed, "a late load result does not override close")
	assert.False(t, b.isReady())
}
