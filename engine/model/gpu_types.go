package model

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
)

// GPUVertex is the GPU-aligned representation of a single mesh vertex without skinning data.
// Size: 64 bytes (std430 aligned, no padding required).
type GPUVertex struct {
	Position [3]float32 // offset  0: vertex position in model space (12 bytes)
	Normal   [3]float32 // offset 12: vertex normal for lighting (12 bytes)
	TexCoord [2]float32 // offset 24: UV texture coordinate (8 bytes)
	Color    [4]float32 // offset 32: per-vertex RGBA color (16 bytes)
	Tangent  [4]float32 // offset 48: tangent vector (xyz) + handedness (w) (16 bytes)
}

// GPUSkinnedVertexSource is the canonical WGSL definition of the VertexInput struct for skinned mesh pipelines.
// Matches GPUSkinnedVertex layout exactly (96 bytes, std430 aligned).
//
//go:embed assets/skinned_vertex.wgsl
var GPUSkinnedVertexSource string

// GPUSkinnedVertex is the GPU-aligned representation of a single mesh vertex for skinned (bone-animated) models.
// It extends GPUVertex with per-vertex bone skinning data. Unskinned geometry uses the same layout with zero weights.
// Matches the WGSL VertexInput struct layout (see GPUSkinnedVertexSource).
// Size: 96 bytes (64 base vertex + 32 skinning data, std430 aligned, no padding required).
type GPUSkinnedVertex struct {
	GPUVertex              // offset  0: base vertex data (position, normal, uv, color, tangent), 64 bytes
	BoneIndices [4]uint32  // offset 64: indices of up to 4 influencing bones (16 bytes)
	BoneWeights [4]float32 // offset 80: blend weights for each bone (16 bytes)
}

// Size returns the size of the GPUSkinnedVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUSkinnedVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUSkinnedVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 96-byte buffer ready for GPU upload.
func (g *GPUSkinnedVertex) Marshal() []byte {
	buf := make([]byte, 96)
	g.marshalInto(buf)
	return buf
}

func (g *GPUSkinnedVertex) marshalInto(buf []byte) {
	putFloats := func(off int, vals ...float32) {
		for i, v := range vals {
			binary.LittleEndian.PutUint32(buf[off+i*4:off+i*4+4], math.Float32bits(v))
		}
	}
	putFloats(0, g.Position[:]...)
	putFloats(12, g.Normal[:]...)
	putFloats(24, g.TexCoord[:]...)
	putFloats(32, g.Color[:]...)
	putFloats(48, g.Tangent[:]...)
	for i, idx := range g.BoneIndices {
		binary.LittleEndian.PutUint32(buf[64+i*4:68+i*4], idx)
	}
	putFloats(80, g.BoneWeights[:]...)
}

// SkinnedVertexLayout returns the vertex buffer layout matching GPUSkinnedVertex.
// Shader locations follow the field order of the WGSL VertexInput struct.
//
// Returns:
//   - wgpu.VertexBufferLayout: the layout for a tightly packed GPUSkinnedVertex buffer
func SkinnedVertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: 96,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 3},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 48, ShaderLocation: 4},
			{Format: wgpu.VertexFormatUint32x4, Offset: 64, ShaderLocation: 5},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 80, ShaderLocation: 6},
		},
	}
}

// ComputeBoundingRadius calculates the bounding sphere radius from a slice of
// GPUSkinnedVertex positions. The radius is the maximum distance from the origin
// across all vertices in the slice.
//
// Parameters:
//   - vertices: the vertex data to compute the bounding radius from
//
// Returns:
//   - float32: the maximum distance from the origin
func ComputeBoundingRadius(vertices []GPUSkinnedVertex) float32 {
	var maxDistSq float32
	for _, v := range vertices {
		p := v.Position
		distSq := p[0]*p[0] + p[1]*p[1] + p[2]*p[2]
		if distSq > maxDistSq {
			maxDistSq = distSq
		}
	}
	return float32(math.Sqrt(float64(maxDistSq)))
}

// GPUMeshUniformsSource is the canonical WGSL definition of the MeshUniforms struct.
// Matches GPUMeshUniforms layout exactly (272 bytes, std140 aligned).
//
//go:embed assets/mesh_uniforms.wgsl
var GPUMeshUniformsSource string

// GPUMeshUniforms is the per-mesh uniform block read by the vertex stage.
// The bind matrices are only meaningful when Skinned is non-zero.
// Size: 272 bytes (four mat4x4<f32> + one u32 padded to 16 bytes).
type GPUMeshUniforms struct {
	ViewProj          [16]float32 // offset   0: camera view-projection, column-major (64 bytes)
	Model             [16]float32 // offset  64: mesh world matrix, column-major (64 bytes)
	BindMatrix        [16]float32 // offset 128: skinning bind matrix (64 bytes)
	BindMatrixInverse [16]float32 // offset 192: inverse of BindMatrix (64 bytes)
	Skinned           uint32      // offset 256: 1 when the bone palette applies (4 bytes)
	_                 [3]uint32   // offset 260: padding to 16-byte alignment (12 bytes)
}

// Size returns the size of the GPUMeshUniforms struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUMeshUniforms) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUMeshUniforms struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 272-byte buffer ready for GPU upload.
func (g *GPUMeshUniforms) Marshal() []byte {
	buf := make([]byte, 272)
	mats := [4]*[16]float32{&g.ViewProj, &g.Model, &g.BindMatrix, &g.BindMatrixInverse}
	for m, mat := range mats {
		for i, v := range mat {
			off := m*64 + i*4
			binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
		}
	}
	binary.LittleEndian.PutUint32(buf[256:260], g.Skinned)
	return buf
}
