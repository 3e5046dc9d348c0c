package face

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-facedepth/common"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newActiveNeck(t *testing.T, k float32) *NeckFilter {
	t.Helper()
	n, err := NewNeckFilter(scene.NewNode("Neck"), k, mgl32.Vec3{1, 1, 1})
	require.NoError(t, err)
	n.SetActive(true)
	return n
}

func TestNeckSmoothingSequence(t *testing.T) {
	n := newActiveNeck(t, 0.8)
	want := []float32{2, 3.6, 4.88, 5.904}
	for i, w := range want {
		n.Update(mgl32.DegToRad(10), 0, 0)
		assert.InDelta(t, w, mgl32.RadToDeg(n.Euler()[0]), 1e-4, "step %d", i)
	}
}

func TestNeckSmoothingConvergesWithoutOvershoot(t *testing.T) {
	for _, k := range []float32{0, 0.1, 0.5, 0.8, 0.95, 0.999} {
		n := newActiveNeck(t, k)
		target := float32(0.7)
		prev := float32(0)
		for i := 0; i < 200; i++ {
			n.Update(target, -target, target/2)
			e := n.Euler()
			assert.GreaterOrEqual(t, e[0], prev-1e-6, "k=%v step %d", k, i)
			assert.LessOrEqual(t, e[0], target+1e-6, "k=%v step %d", k, i)
			assert.GreaterOrEqual(t, e[1], -target-1e-6)
			prev = e[0]
		}
		if k <= 0.95 {
			assert.InDelta(t, target, n.Euler()[0], 1e-3, "k=%v", k)
		}
	}
}

func TestNeckFactorsScaleRawAngles(t *testing.T) {
	n, err := NewNeckFilter(scene.NewNode("Neck"), 0, mgl32.Vec3{2, 0.5, -1})
	require.NoError(t, err)
	n.SetActive(true)
	n.Update(0.1, 0.2, 0.3)
	assert.InDelta(t, 0.2, n.Euler()[0], 1e-6)
	assert.InDelta(t, 0.1, n.Euler()[1], 1e-6)
	assert.InDelta(t, -0.3, n.Euler()[2], 1e-6)
}

func TestNeckFrozenWhileInactive(t *testing.T) {
	n := newActiveNeck(t, 0.5)
	n.Update(1, 1, 1)
	frozen := n.Euler()

	n.SetActive(false)
	assert.True(t, n.Bone().MatrixAutoUpdate())
	n.Update(5, 5, 5)
	n.Update(0, 0, 0)
	assert.Equal(t, frozen, n.Euler())

	n.BeginFrame()
	assert.False(t, n.Apply())

	n.SetActive(true)
	assert.False(t, n.Bone().MatrixAutoUpdate())
	n.Update(1, 1, 1)
	assert.InDelta(t, 0.75, n.Euler()[0], 1e-6)
}

func TestNeckApplyOverridesAnimatedMatrixOncePerFrame(t *testing.T) {
	bone := scene.NewNode("Neck", scene.WithPosition(mgl32.Vec3{0, 1.5, 0}))
	n, err := NewNeckFilter(bone, 0, mgl32.Vec3{1, 1, 1})
	require.NoError(t, err)
	n.SetActive(true)
	n.Update(0.3, -0.2, 0.1)

	// animation moved the bone this frame
	bone.SetPosition(mgl32.Vec3{0, 2, 0})
	n.BeginFrame()
	require.True(t, n.Apply())

	want := common.ComposeTRS(mgl32.Vec3{0, 2, 0}, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1}).
		Mul4(common.RotationYZX(0.3, -0.2, 0.1))
	assert.True(t, want.ApproxEqualThreshold(bone.Matrix(), 1e-6))

	// a second writer in the same frame is rejected
	bone.SetMatrix(mgl32.Ident4())
	assert.False(t, n.Apply())
	assert.Equal(t, mgl32.Ident4(), bone.Matrix())

	n.BeginFrame()
	assert.True(t, n.Apply())
	assert.True(t, want.ApproxEqualThreshold(bone.Matrix(), 1e-6))

	// the override survives the world pass because auto update is off
	bone.UpdateMatrixWorld()
	assert.True(t, want.ApproxEqualThreshold(bone.MatrixWorld(), 1e-6))
}

func TestNewNeckFilterValidation(t *testing.T) {
	_, err := NewNeckFilter(scene.NewNode("Neck"), 1, mgl32.Vec3{1, 1, 1})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewNeckFilter(scene.NewNode("Neck"), -0.5, mgl32.Vec3{1, 1, 1})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewNeckFilter(nil, 0.5, mgl32.Vec3{1, 1, 1})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
