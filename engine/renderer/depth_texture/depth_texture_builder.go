package depth_texture

import "github.com/cogentcore/webgpu/wgpu"

// DepthTextureBuilderOption is a functional option used to configure a DepthTexture during construction.
type DepthTextureBuilderOption func(*depthTexture)

// WithFilter overrides the min and mag filter of the sampler.
//
// Parameters:
//   - filter: the filter mode
//
// Returns:
//   - DepthTextureBuilderOption: a function that sets the sampler filter
func WithFilter(filter wgpu.FilterMode) DepthTextureBuilderOption {
	return func(t *depthTexture) {
		t.sampler.MinFilter = filter
		t.sampler.MagFilter = filter
	}
}

// WithInitialPixels stages an initial buffer, for example a neutral gray face, so the texture is valid before the first frame.
// A buffer of the wrong size is ignored.
//
// Parameters:
//   - buf: RGBA bytes, resolution*resolution*4 long
//
// Returns:
//   - DepthTextureBuilderOption: a function that stages the pixels
func WithInitialPixels(buf []byte) DepthTextureBuilderOption {
	return func(t *depthTexture) {
		_ = t.Update(buf, t.resolution)
	}
}
