package scene

import (
	"github.com/Carmen-Shannon/oxy-facedepth/engine/model"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

// mesh is the implementation of the Mesh interface.
type mesh struct {
	*node

	geometry      *model.Geometry
	material      material.Material
	frustumCulled bool

	skinned           bool
	skeleton          *Skeleton
	bindMatrix        mgl32.Mat4
	bindMatrixInverse mgl32.Mat4

	onBeforeRender func(Mesh)

	provider bind_group_provider.BindGroupProvider
}

// Mesh is a drawable Node holding geometry and a material. A skinned Mesh additionally carries a Skeleton
// and a bind matrix; its vertices are deformed by the skeleton's bone palette relative to the bind pose.
type Mesh interface {
	Node

	// Geometry returns the mesh geometry.
	Geometry() *model.Geometry

	// Material returns the mesh material.
	Material() material.Material

	FrustumCulled() bool
	SetFrustumCulled(culled bool)

	// Skinned reports whether the mesh is deformed by a skeleton.
	Skinned() bool

	// Skeleton returns the bound skeleton, or nil for unskinned meshes or before Bind.
	Skeleton() *Skeleton

	// Bind attaches a skeleton and sets the bind matrix. The bind matrix inverse is fixed here and stays put
	// through later SetBindMatrix calls. Has no effect on unskinned meshes.
	//
	// Parameters:
	//   - skeleton: the skeleton driving the mesh
	//   - bindMatrix: the bind pose transform
	Bind(skeleton *Skeleton, bindMatrix mgl32.Mat4)

	BindMatrix() mgl32.Mat4

	// SetBindMatrix replaces the bind matrix. The inverse captured by Bind is kept, so the difference between
	// the two places the skinned vertices.
	//
	// Parameters:
	//   - m: the new bind matrix
	SetBindMatrix(m mgl32.Mat4)

	BindMatrixInverse() mgl32.Mat4

	// SetOnBeforeRender installs a hook run once per frame before the world matrix pass, or clears it when fn is nil.
	//
	// Parameters:
	//   - fn: the hook
	SetOnBeforeRender(fn func(Mesh))

	// BeforeRender runs the installed hook, if any.
	BeforeRender()

	// BindGroupProvider returns the provider holding this mesh's GPU buffers, or nil before GPU init.
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// SetBindGroupProvider stores the provider created during GPU init.
	//
	// Parameters:
	//   - provider: the provider holding vertex, index, and per-mesh uniform buffers
	SetBindGroupProvider(provider bind_group_provider.BindGroupProvider)
}

var _ Mesh = &mesh{}

// NewMesh creates an unskinned Mesh.
//
// Parameters:
//   - name: the mesh identifier
//   - geometry: the mesh geometry
//   - mat: the mesh material
//   - options: functional options for the node transform
//
// Returns:
//   - Mesh: the new mesh
func NewMesh(name string, geometry *model.Geometry, mat material.Material, options ...NodeBuilderOption) Mesh {
	return newMesh(name, geometry, mat, false, options)
}

// NewSkinnedMesh creates a skinned Mesh. Call Bind to attach a skeleton.
//
// Parameters:
//   - name: the mesh identifier
//   - geometry: the mesh geometry, carrying bone indices and weights
//   - mat: the mesh material
//   - options: functional options for the node transform
//
// Returns:
//   - Mesh: the new skinned mesh
func NewSkinnedMesh(name string, geometry *model.Geometry, mat material.Material, options ...NodeBuilderOption) Mesh {
	return newMesh(name, geometry, mat, true, options)
}

func newMesh(name string, geometry *model.Geometry, mat material.Material, skinned bool, options []NodeBuilderOption) *mesh {
	m := &mesh{
		node:              newNode(name),
		geometry:          geometry,
		material:          mat,
		frustumCulled:     true,
		skinned:           skinned,
		bindMatrix:        mgl32.Ident4(),
		bindMatrixInverse: mgl32.Ident4(),
	}
	m.node.self = m
	for _, opt := range options {
		opt(m.node)
	}
	return m
}

func (m *mesh) Geometry() *model.Geometry {
	return m.geometry
}

func (m *mesh) Material() material.Material {
	return m.material
}

func (m *mesh) FrustumCulled() bool {
	return m.frustumCulled
}

func (m *mesh) SetFrustumCulled(culled bool) {
	m.frustumCulled = culled
}

func (m *mesh) Skinned() bool {
	return m.skinned
}

func (m *mesh) Skeleton() *Skeleton {
	return m.skeleton
}

func (m *mesh) Bind(skeleton *Skeleton, bindMatrix mgl32.Mat4) {
	if !m.skinned {
		return
	}
	m.skeleton = skeleton
	m.bindMatrix = bindMatrix
	m.bindMatrixInverse = bindMatrix.Inv()
}

func (m *mesh) BindMatrix() mgl32.Mat4 {
	return m.bindMatrix
}

func (m *mesh) SetBindMatrix(bm mgl32.Mat4) {
	m.bindMatrix = bm
}

func (m *mesh) BindMatrixInverse() mgl32.Mat4 {
	return m.bindMatrixInverse
}

func (m *mesh) SetOnBeforeRender(fn func(Mesh)) {
	m.onBeforeRender = fn
}

func (m *mesh) BeforeRender() {
	if m.onBeforeRender != nil {
		m.onBeforeRender(m)
	}
}

func (m *mesh) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return m.provider
}

func (m *mesh) SetBindGroupProvider(provider bind_group_provider.BindGroupProvider) {
	m.provider = provider
}

// SkinVertex returns the world-space position of a vertex after skinning, mirroring the vertex shader.
// Unskinned meshes, or skinned meshes without a skeleton, only apply the world matrix.
//
// Parameters:
//   - m: the mesh the vertex belongs to
//   - v: the vertex
//
// Returns:
//   - mgl32.Vec3: the deformed world-space position
func SkinVertex(m Mesh, v model.GPUSkinnedVertex) mgl32.Vec3 {
	p := mgl32.Vec4{v.Position[0], v.Position[1], v.Position[2], 1}
	if m.Skinned() && m.Skeleton() != nil {
		palette := m.Skeleton().BoneMatrices()
		bound := m.BindMatrix().Mul4x1(p)
		var sum mgl32.Vec4
		for i := 0; i < 4; i++ {
			w := v.BoneWeights[i]
			idx := int(v.BoneIndices[i])
			if w == 0 || idx >= len(palette) {
				continue
			}
			sum = sum.Add(palette[idx].Mul4x1(bound).Mul(w))
		}
		p = m.BindMatrixInverse().Mul4x1(sum)
	}
	return m.MatrixWorld().Mul4x1(p).Vec3()
}
