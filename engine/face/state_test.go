package face

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-facedepth/engine/model"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/preview"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectionMachineTransitions(t *testing.T) {
	surface := scene.NewMesh("surface", model.NewPlaneGeometry(1, 1, 1, 1), material.NewMaterial(), scene.WithVisible(false))
	donor := scene.NewNode("donor")
	teeth := scene.NewNode("teeth")
	neck, err := NewNeckFilter(scene.NewNode("Neck"), 0.8, mgl32.Vec3{1, 1, 1})
	require.NoError(t, err)

	m := NewDetectionMachine()
	m.Bind(surface, []scene.Node{teeth, donor}, neck)
	assert.Equal(t, StateNoFace, m.State())
	assert.False(t, surface.Visible())
	assert.True(t, donor.Visible())
	assert.True(t, neck.Bone().MatrixAutoUpdate())

	assert.False(t, m.Apply(false))
	assert.True(t, m.Apply(true))
	assert.Equal(t, StateFaceDetected, m.State())
	assert.Equal(t, "face_detected", m.State().String())
	assert.True(t, surface.Visible())
	assert.False(t, donor.Visible())
	assert.False(t, teeth.Visible())
	assert.False(t, neck.Bone().MatrixAutoUpdate())
	assert.True(t, neck.Active())

	assert.True(t, m.Apply(false))
	assert.False(t, surface.Visible())
	assert.True(t, donor.Visible())
	assert.True(t, teeth.Visible())
	assert.True(t, neck.Bone().MatrixAutoUpdate())
}

func TestDetectionMachineIdempotent(t *testing.T) {
	surface := scene.NewMesh("surface", model.NewPlaneGeometry(1, 1, 1, 1), material.NewMaterial())
	m := NewDetectionMachine()
	m.Bind(surface, []scene.Node{scene.NewNode("donor")}, nil)

	for _, detected := range []bool{true, false} {
		m.Apply(detected)
		writes := m.VisibilityWrites()
		assert.False(t, m.Apply(detected))
		assert.Equal(t, writes, m.VisibilityWrites(), "repeat of %v wrote visibility", detected)
	}
}

func TestDetectionMachineReset(t *testing.T) {
	surface := scene.NewMesh("surface", model.NewPlaneGeometry(1, 1, 1, 1), material.NewMaterial())
	donor := scene.NewNode("donor")
	m := NewDetectionMachine()
	m.Bind(surface, []scene.Node{donor}, nil)

	m.Apply(true)
	m.Reset()
	assert.Equal(t, StateNoFace, m.State())
	assert.False(t, surface.Visible())
	assert.True(t, donor.Visible())

	writes := m.VisibilityWrites()
	m.Reset()
	assert.Equal(t, writes, m.VisibilityWrites())
}

func TestDetectionMachineBindAppliesCurrentState(t *testing.T) {
	m := NewDetectionMachine()
	m.Apply(true)

	surface := scene.NewMesh("surface", model.NewPlaneGeometry(1, 1, 1, 1), material.NewMaterial(), scene.WithVisible(false))
	donor := scene.NewNode("donor")
	m.Bind(surface, []scene.Node{donor}, nil)
	assert.True(t, surface.Visible())
	assert.False(t, donor.Visible())
}

func TestPreviewStateSuspendsAfterDelay(t *testing.T) {
	canvas := preview.NewCanvas(4, 4)
	defer canvas.Close()
	p := NewPreviewState(canvas, 20*time.Millisecond)
	defer p.Close()

	assert.True(t, p.Displayed())
	assert.True(t, p.Updating())

	p.Apply(true)
	assert.False(t, p.Displayed())
	assert.True(t, p.Updating(), "refresh continues until the delay elapses")
	assert.Equal(t, preview.HiddenScale, canvas.Scale())
	assert.True(t, p.Pending())

	require.Eventually(t, func() bool { return !p.Updating() }, 2*time.Second, 5*time.Millisecond)
	assert.False(t, p.Pending())

	p.Apply(false)
	assert.True(t, p.Displayed())
	assert.True(t, p.Updating())
	assert.Equal(t, preview.ShownScale, canvas.Scale())
}

func TestPreviewStateLossCancelsSuspension(t *testing.T) {
	delay := 30 * time.Millisecond
	p := NewPreviewState(nil, delay)
	defer p.Close()

	p.Apply(true)
	p.Apply(false)
	assert.False(t, p.Pending())

	time.Sleep(3 * delay)
	assert.True(t, p.Updating())
	assert.True(t, p.Displayed())
}

func TestPreviewStateRearmsOnRedetection(t *testing.T) {
	p := NewPreviewState(nil, 20*time.Millisecond)
	defer p.Close()

	p.Apply(true)
	p.Apply(true)
	p.Apply(false)
	p.Apply(true)
	assert.True(t, p.Pending())
	require.Eventually(t, func() bool { return !p.Updating() }, 2*time.Second, 5*time.Millisecond)
}

func TestPreviewStateNeverFiresAfterClose(t *testing.T) {
	delay := 20 * time.Millisecond
	p := NewPreviewState(nil, delay)

	p.Apply(true)
	p.Close()
	time.Sleep(3 * delay)
	assert.True(t, p.Updating())

	p.Apply(false)
	assert.False(t, p.Displayed(), "apply is a no-op once closed")
}
