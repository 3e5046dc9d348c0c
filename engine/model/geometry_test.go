package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlaneGeometryLayout(t *testing.T) {
	res := 4
	g := NewPlaneGeometry(1, 1, res, res)

	require.Equal(t, (res+1)*(res+1), g.VertexCount())
	require.Len(t, g.Indices, res*res*6)

	first := g.Vertices[0]
	assert.Equal(t, [3]float32{-0.5, 0.5, 0}, first.Position)
	assert.Equal(t, [2]float32{0, 1}, first.TexCoord)
	assert.Equal(t, [3]float32{0, 0, 1}, first.Normal)

	last := g.Vertices[len(g.Vertices)-1]
	assert.Equal(t, [3]float32{0.5, -0.5, 0}, last.Position)
	assert.Equal(t, [2]float32{1, 0}, last.TexCoord)

	assert.Equal(t, [3]float32{-0.5, -0.5, 0}, g.BoundingMin)
	assert.Equal(t, [3]float32{0.5, 0.5, 0}, g.BoundingMax)
	assert.InDelta(t, math.Sqrt(0.5), g.BoundingRadius, 1e-6)

	for _, idx := range g.Indices {
		assert.Less(t, int(idx), g.VertexCount())
	}
	// first cell: a=0, b=res+1, c=res+2, d=1
	assert.Equal(t, []uint32{0, 5, 1, 5, 6, 1}, g.Indices[:6])
}

func TestNewPlaneGeometryClampsSegments(t *testing.T) {
	g := NewPlaneGeometry(2, 2, 0, -3)
	assert.Equal(t, 4, g.VertexCount())
	assert.Len(t, g.Indices, 6)
}

func TestCopySkinAttributesReplicatesFirstVertex(t *testing.T) {
	donor := NewPlaneGeometry(1, 1, 2, 2)
	donor.Vertices[0].BoneIndices = [4]uint32{7, 3, 0, 0}
	donor.Vertices[0].BoneWeights = [4]float32{0.75, 0.25, 0, 0}
	donor.Vertices[1].BoneIndices = [4]uint32{9, 9, 9, 9}

	grid := NewPlaneGeometry(1, 1, 8, 8)
	require.NoError(t, CopySkinAttributes(donor, grid))

	for i, v := range grid.Vertices {
		assert.Equal(t, donor.Vertices[0].BoneIndices, v.BoneIndices, "vertex %d", i)
		assert.Equal(t, donor.Vertices[0].BoneWeights, v.BoneWeights, "vertex %d", i)
	}
	// source untouched
	assert.Equal(t, [4]uint32{9, 9, 9, 9}, donor.Vertices[1].BoneIndices)
}

func TestCopySkinAttributesErrors(t *testing.T) {
	grid := NewPlaneGeometry(1, 1, 1, 1)
	err := CopySkinAttributes(&Geometry{}, grid)
	assert.ErrorIs(t, err, ErrEmptyGeometry)

	err = CopySkinAttributes(nil, grid)
	assert.ErrorIs(t, err, ErrEmptyGeometry)

	err = CopySkinAttributes(grid, nil)
	assert.Error(t, err)
}

func TestGeometryClone(t *testing.T) {
	g := NewPlaneGeometry(1, 1, 1, 1)
	c := g.Clone()
	c.SetUniformSkin([4]uint32{1, 0, 0, 0}, [4]float32{1, 0, 0, 0})
	assert.Equal(t, [4]float32{}, g.Vertices[0].BoneWeights)
	assert.Equal(t, [4]float32{1, 0, 0, 0}, c.Vertices[0].BoneWeights)
}

func TestGeometrySerialization(t *testing.T) {
	g := NewPlaneGeometry(1, 1, 1, 1)
	g.Vertices[0].BoneIndices = [4]uint32{2, 0, 0, 0}

	vd := g.VertexData()
	require.Len(t, vd, 4*96)
	assert.Equal(t, g.Vertices[0].Marshal(), vd[:96])
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(vd[64:68]))
	assert.Equal(t, float32(-0.5), math.Float32frombits(binary.LittleEndian.Uint32(vd[0:4])))

	id := g.IndexData()
	require.Len(t, id, 6*4)
	assert.Equal(t, g.Indices[1], binary.LittleEndian.Uint32(id[4:8]))
}

func TestSkinnedVertexLayoutMatchesStruct(t *testing.T) {
	var v GPUSkinnedVertex
	layout := SkinnedVertexLayout()
	assert.Equal(t, uint64(v.Size()), layout.ArrayStride)
	assert.Len(t, layout.Attributes, 7)
	assert.Contains(t, GPUSkinnedVertexSource, "bone_weights")
}

func TestGPUMeshUniformsMarshal(t *testing.T) {
	u := GPUMeshUniforms{Skinned: 1}
	u.Model[12] = 3
	u.BindMatrixInverse[15] = 1

	assert.Equal(t, 272, u.Size())
	buf := u.Marshal()
	require.Len(t, buf, 272)
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(buf[64+48:64+52])))
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[192+60:192+64])))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[256:260]))
	assert.Contains(t, GPUMeshUniformsSource, "bind_matrix_inverse")
}
