package depth_texture

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-facedepth/common"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrResolutionMismatch is returned when a frame's resolution differs from the one the texture was created with.
	ErrResolutionMismatch = errors.New("depth texture resolution mismatch")

	// ErrBufferSize is returned when a frame buffer is not resolution*resolution*4 bytes long.
	ErrBufferSize = errors.New("depth texture buffer size")
)

const (
	// TextureBinding is the binding index of the depth texture within the face depth material group.
	TextureBinding = 1

	// SamplerBinding is the binding index of the depth sampler within the face depth material group.
	SamplerBinding = 2
)

// depthTexture is the implementation of the DepthTexture interface.
type depthTexture struct {
	mu sync.Mutex

	resolution  int
	staging     *common.TextureStagingData
	sampler     common.SamplerStagingData
	needsUpdate bool
	provider    bind_group_provider.BindGroupProvider
}

// DepthTexture adapts the per-frame RGBA depth buffer of the face tracker into a GPU texture.
// RGB carries the face color and A the encoded depth. Update is called from the detection callback
// and only marks the texture dirty; the pixel transfer happens when the render step drains StagedWrites.
type DepthTexture interface {
	// Update copies a new frame buffer into the staging pixels and marks the texture for upload.
	// The first call allocates the staging pixels.
	//
	// Parameters:
	//   - buf: RGBA bytes, resolution*resolution*4 long
	//   - resolution: the width and height of the buffer
	//
	// Returns:
	//   - error: ErrResolutionMismatch or ErrBufferSize, wrapped with the offending values
	Update(buf []byte, resolution int) error

	Resolution() int

	// Staging returns the staged pixels, or nil before the first Update.
	//
	// Returns:
	//   - *common.TextureStagingData: the staged RGBA pixels
	Staging() *common.TextureStagingData

	// Sampler returns the sampler configuration: linear min/mag filtering, no mipmaps, clamp to edge.
	//
	// Returns:
	//   - common.SamplerStagingData: the sampler configuration
	Sampler() common.SamplerStagingData

	// Format returns the GPU texture format.
	//
	// Returns:
	//   - wgpu.TextureFormat: always wgpu.TextureFormatRGBA8Unorm
	Format() wgpu.TextureFormat

	// NeedsUpdate reports whether staged pixels are waiting for upload.
	NeedsUpdate() bool

	// StagedWrites drains the pending upload. It returns nothing when the texture is clean or has no
	// bind group provider yet, in which case the dirty flag is kept for the next drain.
	//
	// Returns:
	//   - []bind_group_provider.TextureWrite: zero or one full-texture writes
	StagedWrites() []bind_group_provider.TextureWrite

	BindGroupProvider() bind_group_provider.BindGroupProvider
	SetBindGroupProvider(provider bind_group_provider.BindGroupProvider)
}

var _ DepthTexture = &depthTexture{}

// NewDepthTexture creates a DepthTexture fixed to the given resolution.
//
// Parameters:
//   - resolution: the width and height in texels every Update must match
//   - options: functional options
//
// Returns:
//   - DepthTexture: the new texture
func NewDepthTexture(resolution int, options ...DepthTextureBuilderOption) DepthTexture {
	t := &depthTexture{
		resolution: resolution,
		sampler:    common.LinearClampSampler(),
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

func (t *depthTexture) Update(buf []byte, resolution int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if resolution != t.resolution {
		return fmt.Errorf("%w: got %d, texture is %d", ErrResolutionMismatch, resolution, t.resolution)
	}
	if want := resolution * resolution * 4; len(buf) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrBufferSize, len(buf), want)
	}
	if t.staging == nil {
		t.staging = common.NewTextureStaging(uint32(resolution), uint32(resolution))
	}
	copy(t.staging.Pixels, buf)
	t.needsUpdate = true
	return nil
}

func (t *depthTexture) Resolution() int {
	return t.resolution
}

func (t *depthTexture) Staging() *common.TextureStagingData {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.staging
}

func (t *depthTexture) Sampler() common.SamplerStagingData {
	return t.sampler
}

func (t *depthTexture) Format() wgpu.TextureFormat {
	return wgpu.TextureFormatRGBA8Unorm
}

func (t *depthTexture) NeedsUpdate() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.needsUpdate
}

func (t *depthTexture) StagedWrites() []bind_group_provider.TextureWrite {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.needsUpdate || t.provider == nil || t.staging == nil {
		return nil
	}
	t.needsUpdate = false

	pixels := make([]byte, len(t.staging.Pixels))
	copy(pixels, t.staging.Pixels)
	return []bind_group_provider.TextureWrite{{
		Provider: t.provider,
		Binding:  TextureBinding,
		Staging: common.TextureStagingData{
			Pixels: pixels,
			Width:  t.staging.Width,
			Height: t.staging.Height,
		},
	}}
}

func (t *depthTexture) BindGroupProvider() bind_group_provider.BindGroupProvider {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.provider
}

func (t *depthTexture) SetBindGroupProvider(provider bind_group_provider.BindGroupProvider) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.provider = provider
}
