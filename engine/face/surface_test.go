package face

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-facedepth/engine/model"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/depth_texture"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestSurface(t *testing.T, res int) *Surface {
	t.Helper()
	s, err := BuildSurface(res, nil, material.DefaultDepthParams())
	require.NoError(t, err)
	return s
}

// skinnedDonor returns a donor skinned to the second bone of a two-bone chain under a root node.
func skinnedDonor(t *testing.T, name string) (scene.Node, scene.Node, scene.Mesh) {
	t.Helper()
	return skinnedDonorAt(t, name, mgl32.Vec3{})
}

// skinnedDonorAt is skinnedDonor with the root node moved to rootPos before the bones are bound.
func skinnedDonorAt(t *testing.T, name string, rootPos mgl32.Vec3) (scene.Node, scene.Node, scene.Mesh) {
	t.Helper()
	root := scene.NewNode("avatar", scene.WithPosition(rootPos))
	neck := scene.NewNode("Neck", scene.WithPosition(mgl32.Vec3{0, 1.5, 0}))
	head := scene.NewNode("HeadBone", scene.WithPosition(mgl32.Vec3{0, 0.2, 0}))
	neck.Add(head)
	root.Add(neck)
	scene.PrecomputeMatrices(root)

	geom := model.NewPlaneGeometry(1, 1, 2, 2)
	geom.SetUniformSkin([4]uint32{1, 0, 0, 0}, [4]float32{1, 0, 0, 0})
	geom.Vertices[3].BoneIndices = [4]uint32{0, 0, 0, 0}

	donor := scene.NewSkinnedMesh(name, geom, material.NewMaterial())
	donor.Bind(scene.NewSkeleton([]scene.Node{neck, head}, nil), mgl32.Translate3D(0, 0.1, 0))
	root.Add(donor)
	return root, neck, donor
}

func TestBuildSurface(t *testing.T) {
	s := buildTestSurface(t, 8)

	assert.Equal(t, 8, s.Resolution())
	assert.Equal(t, 81, s.Geometry().VertexCount())
	assert.Len(t, s.Geometry().Indices, 8*8*6)
	assert.Equal(t, SurfaceMeshName, s.Mesh().Name())
	assert.False(t, s.Mesh().Visible())
	assert.False(t, s.Mesh().FrustumCulled())
	assert.False(t, s.Skinned())

	assert.Equal(t, 8, s.Material().Params().Resolution)
	assert.Equal(t, 8, s.Material().Mask().Resolution())
	assert.Same(t, s.Texture(), s.Material().DepthTexture())
	assert.True(t, s.Material().Transparent())
	assert.Equal(t, SurfaceRenderOrder, s.Material().RenderOrder())
	assert.Equal(t, []string{material.FeatureAlphaFallOff}, s.Material().Features())

	_, err := BuildSurface(0, nil, material.DefaultDepthParams())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSurfaceUpdateRejectsResolutionChange(t *testing.T) {
	s := buildTestSurface(t, 4)
	require.NoError(t, s.Update(make([]byte, 4*4*4), 4))
	assert.True(t, s.Texture().NeedsUpdate())

	err := s.Update(make([]byte, 8*8*4), 8)
	assert.ErrorIs(t, err, depth_texture.ErrResolutionMismatch)
}

func TestAttachSkinCopiesFirstVertexSkin(t *testing.T) {
	root, neck, donor := skinnedDonor(t, "Head")
	s := buildTestSurface(t, 4)
	plain := s.Mesh()
	root.Add(plain)

	require.NoError(t, AttachSkin(donor, s))

	mesh := s.Mesh()
	require.NotSame(t, plain, mesh)
	assert.True(t, mesh.Skinned())
	assert.Equal(t, SurfaceMeshName, mesh.Name())
	assert.False(t, mesh.FrustumCulled())
	assert.False(t, mesh.Visible())
	assert.Same(t, s.Geometry(), mesh.Geometry())
	assert.Equal(t, s.Material(), mesh.Material())

	want := donor.Geometry().Vertices[0]
	for i, v := range mesh.Geometry().Vertices {
		assert.Equal(t, want.BoneIndices, v.BoneIndices, "vertex %d", i)
		assert.Equal(t, want.BoneWeights, v.BoneWeights, "vertex %d", i)
	}

	require.NotNil(t, mesh.Skeleton())
	assert.NotSame(t, donor.Skeleton(), mesh.Skeleton())
	bones := mesh.Skeleton().Bones()
	require.Len(t, bones, 2)
	assert.Same(t, neck, bones[0])
	assert.Equal(t, donor.Skeleton().BoneInverses(), mesh.Skeleton().BoneInverses())
	assert.Equal(t, donor.BindMatrix(), mesh.BindMatrix())
	assert.Equal(t, mgl32.Ident4(), mesh.BindMatrixInverse())

	assert.Nil(t, plain.Parent())
	assert.Same(t, root, mesh.Parent())
}

func TestAttachSkinLeavesSurfaceForPlainDonor(t *testing.T) {
	s := buildTestSurface(t, 2)
	plain := s.Mesh()

	require.NoError(t, AttachSkin(nil, s))
	assert.Same(t, plain, s.Mesh())

	donor := scene.NewMesh("robotFace", model.NewPlaneGeometry(1, 1, 1, 1), material.NewMaterial())
	require.NoError(t, AttachSkin(donor, s))
	assert.Same(t, plain, s.Mesh())
	assert.False(t, s.Skinned())
}

func TestAttachSkinEmptyDonor(t *testing.T) {
	s := buildTestSurface(t, 2)

	empty := scene.NewSkinnedMesh("Head", &model.Geometry{}, material.NewMaterial())
	empty.Bind(scene.NewSkeleton([]scene.Node{scene.NewNode("b")}, nil), mgl32.Ident4())
	err := AttachSkin(empty, s)
	assert.ErrorIs(t, err, ErrEmptyDonor)
	assert.ErrorIs(t, err, model.ErrEmptyGeometry)

	unbound := scene.NewSkinnedMesh("Head", model.NewPlaneGeometry(1, 1, 1, 1), material.NewMaterial())
	assert.ErrorIs(t, AttachSkin(unbound, s), ErrEmptyDonor)
	assert.False(t, s.Skinned())
}

func TestSetPoseUnskinned(t *testing.T) {
	s := buildTestSurface(t, 2)
	mesh := s.Mesh()

	SetPose(mesh, 60, mgl32.Vec3{0, 87, 22}, mgl32.DegToRad(-10))

	assert.Equal(t, mgl32.Vec3{60, 60, 60}, mesh.Scale())
	assert.Equal(t, mgl32.Vec3{0, 87, 22}, mesh.Position())
	want := mgl32.QuatRotate(mgl32.DegToRad(80), mgl32.Vec3{1, 0, 0})
	got := mesh.Rotation()
	assert.InDelta(t, want.W, got.W, 1e-6)
	assert.InDelta(t, want.V[0], got.V[0], 1e-6)
	assert.InDelta(t, 0, got.V[1], 1e-6)
	assert.InDelta(t, 0, got.V[2], 1e-6)
	assert.Equal(t, mgl32.Ident4(), mesh.BindMatrix())
}

func TestSetPoseSkinned(t *testing.T) {
	_, _, donor := skinnedDonor(t, "Head")
	s := buildTestSurface(t, 2)
	require.NoError(t, AttachSkin(donor, s))
	mesh := s.Mesh()

	rx := float32(math.Pi / 6)
	SetPose(mesh, 2, mgl32.Vec3{1, 2, 3}, rx)

	want := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.Scale3D(2, 2, 2)).Mul4(mgl32.HomogRotate3DX(rx))
	assert.True(t, want.ApproxEqualThreshold(mesh.BindMatrix(), 1e-6))
	assert.Equal(t, mgl32.Ident4(), mesh.BindMatrixInverse(), "inverse stays at the bind-time world matrix")
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, mesh.Scale(), "node transform untouched")
	assert.Equal(t, mgl32.Vec3{}, mesh.Position())
}

func assertVec3InDelta(t *testing.T, want, got mgl32.Vec3, msgAndArgs ...any) {
	t.Helper()
	for i := range 3 {
		assert.InDelta(t, want[i], got[i], 1e-3, msgAndArgs...)
	}
}

func TestSkinnedSurfacePlacement(t *testing.T) {
	rootPos := mgl32.Vec3{0.5, 0, -1}
	root, neck, donor := skinnedDonorAt(t, "Head", rootPos)
	s := buildTestSurface(t, 2)
	root.Add(s.Mesh())
	require.NoError(t, AttachSkin(donor, s))
	mesh := s.Mesh()

	scale, offset, rx := float32(60), mgl32.Vec3{0, 87, 22}, float32(math.Pi/12)
	SetPose(mesh, scale, offset, rx)
	bind := mgl32.Translate3D(offset[0], offset[1], offset[2]).
		Mul4(mgl32.Scale3D(scale, scale, scale)).
		Mul4(mgl32.HomogRotate3DX(rx))
	rootWorld := mgl32.Translate3D(rootPos[0], rootPos[1], rootPos[2])

	vertices := mesh.Geometry().Vertices
	corner := vertices[len(vertices)-1]
	p := mgl32.Vec4{corner.Position[0], corner.Position[1], corner.Position[2], 1}

	t.Run("rest pose", func(t *testing.T) {
		root.UpdateMatrixWorld()
		mesh.Skeleton().Update()

		want := rootWorld.Mul4(bind).Mul4x1(p).Vec3()
		got := scene.SkinVertex(mesh, corner)
		assertVec3InDelta(t, want, got, "corner %v", corner.Position)
		assert.Greater(t, got.Len(), float32(50), "calibration scales the patch")
	})

	t.Run("rotated neck", func(t *testing.T) {
		restNeck := neck.MatrixWorld()
		neck.SetRotation(mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1}))
		root.UpdateMatrixWorld()
		mesh.Skeleton().Update()

		motion := neck.MatrixWorld().Mul4(restNeck.Inv())
		want := rootWorld.Mul4(motion).Mul4(bind).Mul4x1(p).Vec3()
		got := scene.SkinVertex(mesh, corner)
		assertVec3InDelta(t, want, got)

		rest := rootWorld.Mul4(bind).Mul4x1(p).Vec3()
		assert.Greater(t, got.Sub(rest).Len(), float32(1), "the patch follows the bone")
	})
}
