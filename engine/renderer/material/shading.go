package material

import (
	"github.com/Carmen-Shannon/oxy-facedepth/common"
	"github.com/go-gl/mathgl/mgl32"
)

// The functions below evaluate the face depth shader on the CPU. The preview snapshot uses them and they
// pin down the shading laws in tests.

// Displace offsets a grid vertex along its normal by the decoded depth.
//
// Parameters:
//   - position: the local vertex position
//   - normal: the local vertex normal
//   - depth: the decoded depth in [-1, 1]
//   - scale: the depth scale
//
// Returns:
//   - mgl32.Vec3: the displaced position
func Displace(position, normal mgl32.Vec3, depth, scale float32) mgl32.Vec3 {
	return position.Add(normal.Mul(depth * scale))
}

// LightFactor returns the multiplier applied to the texture color at the given depth.
// Darkening is LightFallOffIntensity at LightFallOffRange[0] and fades out by LightFallOffRange[1].
//
// Parameters:
//   - p: the shader parameters
//   - depth: the decoded depth in [-1, 1]
//
// Returns:
//   - float32: the light factor
func LightFactor(p DepthParams, depth float32) float32 {
	return 1 - p.LightFallOffIntensity*common.Smoothstep(p.LightFallOffRange[1], p.LightFallOffRange[0], depth)
}

// Alpha returns the fragment opacity for a mask value and a depth.
//
// Parameters:
//   - p: the shader parameters
//   - mask: the mask opacity in [0, 1]
//   - depth: the decoded depth in [-1, 1]
//
// Returns:
//   - float32: the opacity
func Alpha(p DepthParams, mask, depth float32) float32 {
	if !p.AlphaFallOff {
		return mask
	}
	return mask * common.Smoothstep(p.AlphaFallOffRange[0], p.AlphaFallOffRange[1], depth)
}

// Shade returns the straight-alpha fragment color for one texel of the depth buffer.
//
// Parameters:
//   - p: the shader parameters
//   - texel: the RGBA texel, depth in alpha
//   - mask: the mask opacity in [0, 1]
//
// Returns:
//   - [4]float32: RGBA color in [0, 1]
func Shade(p DepthParams, texel [4]byte, mask float32) [4]float32 {
	depth := common.DecodeDepth(texel[3])
	light := LightFactor(p, depth)
	return [4]float32{
		float32(texel[0]) / 255 * light,
		float32(texel[1]) / 255 * light,
		float32(texel[2]) / 255 * light,
		Alpha(p, mask, depth),
	}
}
