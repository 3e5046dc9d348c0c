package material

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUFaceDepthParamsSource is the canonical WGSL definition of the FaceDepthParams struct.
// Matches GPUFaceDepthParams layout exactly (32 bytes, std140 aligned).
//
//go:embed assets/face_depth_params.wgsl
var GPUFaceDepthParamsSource string

// FaceDepthShaderSource is the annotated WGSL source of the face depth surface shader.
// It carries an alpha_falloff variant block and must be run through the shader pre-processor before use.
//
//go:embed assets/face_depth.wgsl
var FaceDepthShaderSource string

// GPUFaceDepthParams is the GPU-aligned uniform consumed by both stages of the face depth shader.
// Matches the WGSL FaceDepthParams struct layout exactly (see GPUFaceDepthParamsSource).
// Size: 32 bytes.
type GPUFaceDepthParams struct {
	LightFallOffRange     [2]float32 // offset  0: depth where light falloff is max, depth where it stops (8 bytes)
	AlphaFallOffRange     [2]float32 // offset  8: depth range over which alpha fades in (8 bytes)
	DepthScale            float32    // offset 16: displacement along the vertex normal per unit of depth (4 bytes)
	Resolution            float32    // offset 20: grid and texture resolution (4 bytes)
	LightFallOffIntensity float32    // offset 24: maximum darkening applied by the light falloff (4 bytes)
	_                     float32    // offset 28: padding (4 bytes)
}

// Size returns the size of the GPUFaceDepthParams struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUFaceDepthParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUFaceDepthParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload.
func (g *GPUFaceDepthParams) Marshal() []byte {
	buf := make([]byte, 32)
	vals := []float32{
		g.LightFallOffRange[0], g.LightFallOffRange[1],
		g.AlphaFallOffRange[0], g.AlphaFallOffRange[1],
		g.DepthScale, g.Resolution, g.LightFallOffIntensity,
	}
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(v))
	}
	return buf
}
