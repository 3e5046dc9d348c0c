package detector

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordFrames(t *testing.T, path string, frames ...Frame) string {
	t.Helper()
	rec, err := OpenRecorder(path)
	require.NoError(t, err)
	for _, f := range frames {
		require.NoError(t, rec.Record(context.Background(), f))
	}
	assert.Equal(t, len(frames), rec.Frames())
	require.NoError(t, rec.Close())
	return rec.SessionID()
}

func testFrames(n int) []Frame {
	frames := make([]Frame, n)
	for i := range frames {
		frames[i] = SyntheticFrame(i, 4, []bool{true, true, false}, [3]float32{0.1, 0.1, 0.1}, 5)
	}
	return frames
}

func TestReplayPlaysRecordedSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	frames := testFrames(3)
	session := recordFrames(t, path, frames...)

	p, err := OpenReplay(path)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, 4, waitReady(t, p.Init(context.Background(), Config{FollowZRot: true})).Resolution)
	assert.Equal(t, session, p.SessionID())

	for i, want := range frames {
		got, ok := p.Poll()
		require.True(t, ok, "frame %d", i)
		assert.Equal(t, want, got, "frame %d", i)
	}
	_, ok := p.Poll()
	assert.False(t, ok, "end of session")
}

func TestReplayLoopsAndSelectsSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	frames := testFrames(2)
	first := recordFrames(t, path, frames...)
	recordFrames(t, path, testFrames(5)...)

	p, err := OpenReplay(path, WithSession(first), WithLoop())
	require.NoError(t, err)
	defer p.Close()
	waitReady(t, p.Init(context.Background(), Config{FollowZRot: true}))

	var got []Frame
	for i := 0; i < 3; i++ {
		f, ok := p.Poll()
		require.True(t, ok)
		got = append(got, f)
	}
	assert.Equal(t, []Frame{frames[0], frames[1], frames[0]}, got)
}

func TestReplayEmptyRecording(t *testing.T) {
	p, err := OpenReplay(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Init(context.Background(), Config{}).Wait(context.Background())
	assert.ErrorIs(t, err, ErrNoFrames)
}

func TestRecorderRejectsResolutionChange(t *testing.T) {
	rec, err := OpenRecorder(filepath.Join(t.TempDir(), "session.db"), WithSession("fixed"))
	require.NoError(t, err)
	defer rec.Close()

	assert.Equal(t, "fixed", rec.SessionID())
	require.NoError(t, rec.Record(context.Background(), Frame{Resolution: 1, Buffer: make([]byte, 4)}))
	assert.Error(t, rec.Record(context.Background(), Frame{Resolution: 2, Buffer: make([]byte, 16)}))

	require.NoError(t, rec.Close())
	assert.ErrorIs(t, rec.Record(context.Background(), Frame{}), ErrClosed)
}

func TestRecordingTee(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tee.db")
	rec, err := OpenRecorder(path)
	require.NoError(t, err)

	src := NewSynthetic(WithResolution(4))
	det := Recording(src, rec)
	waitReady(t, det.Init(context.Background(), Config{FollowZRot: true}))

	var polled []Frame
	for i := 0; i < 4; i++ {
		f, ok := det.Poll()
		require.True(t, ok)
		polled = append(polled, f)
	}
	require.NoError(t, det.Close())
	require.NoError(t, rec.Close())

	p, err := OpenReplay(path)
	require.NoError(t, err)
	defer p.Close()
	waitReady(t, p.Init(context.Background(), Config{FollowZRot: true}))
	for _, want := range polled {
		got, ok := p.Poll()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}
