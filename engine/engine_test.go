package engine

import (
	"context"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-facedepth/common"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/detector"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/face"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/model"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindow struct {
	focused  bool
	updates  int
	onUpdate func()
	onFocus  func(bool)
	onResize func(int, int)
}

func (w *fakeWindow) SetUpdateCallback(cb func())                  { w.onUpdate = cb }
func (w *fakeWindow) SetResizeCallback(cb func(width, height int)) { w.onResize = cb }
func (w *fakeWindow) SetKeyDownCallback(func(keyCode uint32))      {}
func (w *fakeWindow) SetFocusCallback(cb func(focused bool))       { w.onFocus = cb }
func (w *fakeWindow) Focused() bool                                { return w.focused }
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor   { return nil }
func (w *fakeWindow) IsRunning() bool                              { return true }
func (w *fakeWindow) Close() error                                 { return nil }
func (w *fakeWindow) Width() int                                   { return 64 }
func (w *fakeWindow) Height() int                                  { return 64 }

func (w *fakeWindow) ProcessMessages(stop func() bool) {
	for stop == nil || !stop() {
		w.updates++
		if w.onUpdate != nil {
			w.onUpdate()
		}
	}
}

func newAvatar() (scene.Node, scene.Node) {
	root := scene.NewNode("avatar")
	neck := scene.NewNode("Neck", scene.WithPosition(mgl32.Vec3{0, 1.5, 0}))
	root.Add(neck)
	scene.PrecomputeMatrices(root)

	geom := model.NewPlaneGeometry(0.3, 0.3, 1, 1)
	geom.SetUniformSkin([4]uint32{0, 0, 0, 0}, [4]float32{1, 0, 0, 0})
	donor := scene.NewSkinnedMesh(face.DefaultFaceMeshName, geom, material.NewMaterial())
	donor.Bind(scene.NewSkeleton([]scene.Node{neck}, nil), mgl32.Ident4())
	root.Add(donor)
	return root, neck
}

func newHelper(t *testing.T, keepRunning bool, pattern ...bool) (*face.Helper, scene.Node) {
	t.Helper()
	root, neck := newAvatar()
	cfg := face.DefaultConfig()
	cfg.Avatar = root
	cfg.NeckBoneName = "Neck"
	cfg.KeepRunningOnFocusLost = keepRunning

	det := detector.NewSynthetic(detector.WithResolution(4), detector.WithDetectionPattern(pattern...))
	h, err := face.NewHelper(cfg, det)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.Initialize(ctx))
	require.NoError(t, h.InsertFace())
	return h, neck
}

func TestStepAppliesFramesInOrder(t *testing.T) {
	h, neck := newHelper(t, true, false, true)
	var seen []bool
	var animated int
	e := NewEngine(h,
		WithFrameObserver(func(f detector.Frame) { seen = append(seen, f.Detected) }),
		WithAnimation(func(float32) {
			animated++
			neck.SetRotation(mgl32.QuatRotate(0.3, mgl32.Vec3{0, 0, 1}))
		}),
	)

	require.NoError(t, e.Step(0.016))
	assert.Equal(t, face.StateNoFace, h.State())
	require.NoError(t, e.Step(0.016))
	assert.Equal(t, face.StateFaceDetected, h.State())

	assert.Equal(t, []bool{false, true}, seen)
	assert.Equal(t, 2, animated)
	assert.Equal(t, 2, e.Frames())
	assert.Equal(t, 2, e.Polled())

	// The override lands on top of the animated pose.
	euler := h.Neck().Euler()
	want := common.ComposeTRS(neck.Position(), neck.Rotation(), neck.Scale()).
		Mul4(common.RotationYZX(euler[0], euler[1], euler[2]))
	assert.True(t, want.ApproxEqualThreshold(neck.Matrix(), 1e-5))
}

func TestFocusLossPausesDetector(t *testing.T) {
	h, _ := newHelper(t, false)
	e := NewEngine(h)

	require.NoError(t, e.Step(0))
	e.SetFocused(false)
	assert.False(t, e.Polling())
	require.NoError(t, e.Step(0))
	assert.Equal(t, 1, e.Polled())
	assert.Equal(t, 2, e.Frames())

	e.SetFocused(true)
	require.NoError(t, e.Step(0))
	assert.Equal(t, 2, e.Polled())
}

func TestKeepRunningOnFocusLost(t *testing.T) {
	h, _ := newHelper(t, true)
	w := &fakeWindow{focused: true}
	e := NewEngine(h, WithWindow(w))

	require.NotNil(t, w.onFocus)
	w.onFocus(false)
	assert.True(t, e.Polling())
	require.NoError(t, e.Step(0))
	assert.Equal(t, 1, e.Polled())
}

func TestRunHeadlessStopsAtFrameLimit(t *testing.T) {
	h, _ := newHelper(t, true)
	e := NewEngine(h, WithFrameRate(1000), WithMaxFrames(5), WithProfiling(true))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.Run(ctx))
	assert.Equal(t, 5, e.Frames())
	assert.Equal(t, face.StateFaceDetected, h.State())
}

func TestRunStopsOnQuitAndCancel(t *testing.T) {
	h, _ := newHelper(t, true)
	e := NewEngine(h, WithFrameRate(1000))
	e.Quit()
	e.Quit()
	require.NoError(t, e.Run(context.Background()))

	e = NewEngine(h, WithFrameRate(1000))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, e.Run(ctx))
}

func TestRunWindowSteps(t *testing.T) {
	h, _ := newHelper(t, true)
	w := &fakeWindow{focused: true}
	e := NewEngine(h, WithWindow(w), WithFrameRate(1000), WithMaxFrames(3))

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 3, e.Frames())
	assert.Equal(t, 3, w.updates)
	assert.Nil(t, w.onUpdate)
}

func TestRunReturnsWhenHelperCloses(t *testing.T) {
	h, _ := newHelper(t, true)
	w := &fakeWindow{focused: true}
	e := NewEngine(h, WithWindow(w), WithFrameRate(1000))
	require.NoError(t, h.Close())

	assert.ErrorIs(t, e.Run(context.Background()), face.ErrClosed)
}
