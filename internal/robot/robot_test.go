package robot

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAvatarHierarchy(t *testing.T) {
	a := New()

	assert.Same(t, a.Neck, scene.FindByName(a.Root, NeckBoneName))
	assert.Same(t, a.Face, scene.FindByName(a.Root, FaceMeshName))
	assert.Same(t, a.Visor, scene.FindByName(a.Root, VisorName))
	assert.Same(t, a.Head, a.Visor.Parent())

	head := a.Head.MatrixWorld().Col(3).Vec3()
	assert.InDelta(t, 1.8, head.Y(), 1e-5)
}

func TestFaceIsSkinnedToHead(t *testing.T) {
	a := New()
	require.True(t, a.Face.Skinned())
	require.NotNil(t, a.Face.Skeleton())

	assert.Same(t, a.Neck, a.Face.Skeleton().BoneByName(NeckBoneName))
	v := a.Face.Geometry().Vertices[0]
	assert.Equal(t, [4]uint32{3, 0, 0, 0}, v.BoneIndices)
	assert.Same(t, a.Head, a.Face.Skeleton().Bones()[v.BoneIndices[0]])

	// At rest the skinned panel sits where its node puts it.
	a.Face.Skeleton().Update()
	p := scene.SkinVertex(a.Face, v)
	want := a.Face.MatrixWorld().Mul4x1(mgl32.Vec4{v.Position[0], v.Position[1], v.Position[2], 1}).Vec3()
	for i := range 3 {
		assert.InDelta(t, want[i], p[i], 1e-5)
	}
	assert.Equal(t, FacePosition, a.Face.Position())
}

func TestPanelsUseFlatDepthMaterials(t *testing.T) {
	a := New()
	for _, m := range append(a.Panels, a.Face) {
		mat, ok := m.Material().(material.DepthMaterial)
		require.True(t, ok, m.Name())
		assert.Zero(t, mat.Params().DepthScale, m.Name())
		require.NotNil(t, mat.DepthTexture(), m.Name())
		assert.True(t, mat.DepthTexture().NeedsUpdate(), m.Name())
		assert.False(t, m.FrustumCulled(), m.Name())
	}
}

func TestAnimateMovesBones(t *testing.T) {
	a := New()
	a.Animate(0.5)
	a.Animate(0.5)

	assert.InDelta(t, 1.0, a.Elapsed(), 1e-6)
	assert.NotEqual(t, mgl32.QuatIdent(), a.Spine.Rotation())
	assert.NotEqual(t, mgl32.QuatIdent(), a.Neck.Rotation())
	assert.Equal(t, mgl32.QuatIdent(), a.Head.Rotation())
}
