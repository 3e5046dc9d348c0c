// package common contains plain data types shared across the face depth engine, plus the small math and
// image helpers the renderer, material, and face packages have in common.
package common

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData holds tightly packed RGBA8 pixels waiting for a GPU texture upload.
// The depth texture restages it every detected frame; the mask texture stages it once.
type TextureStagingData struct {
	// Pixels is row-major RGBA, 4 bytes per texel.
	Pixels []byte
	Width  uint32
	Height uint32
}

// NewTextureStaging allocates a zeroed RGBA8 staging image.
//
// Parameters:
//   - width: texels per row
//   - height: number of rows
//
// Returns:
//   - *TextureStagingData: the staging image
func NewTextureStaging(width, height uint32) *TextureStagingData {
	return &TextureStagingData{Pixels: make([]byte, int(width)*int(height)*4), Width: width, Height: height}
}

// Validate checks that the pixel slice covers exactly Width*Height texels.
//
// Returns:
//   - error: non-nil when the dimensions and pixel count disagree
func (d TextureStagingData) Validate() error {
	if d.Width == 0 || d.Height == 0 {
		return fmt.Errorf("texture staging: empty %dx%d image", d.Width, d.Height)
	}
	if want := int(d.Width) * int(d.Height) * 4; len(d.Pixels) != want {
		return fmt.Errorf("texture staging: %d bytes for %dx%d, want %d", len(d.Pixels), d.Width, d.Height, want)
	}
	return nil
}

// SamplerStagingData holds a sampler description until the renderer creates the GPU sampler.
type SamplerStagingData struct {
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	MagFilter, MinFilter                     wgpu.FilterMode
	MipmapFilter                             wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp both zero pin sampling to the base level.
	LodMinClamp, LodMaxClamp float32
	// Compare is left undefined for the color samplers used here.
	Compare       wgpu.CompareFunction
	MaxAnisotropy uint16
}

// LinearClampSampler returns the sampler used for per-frame depth data: bilinear min and mag filtering,
// nearest mip selection with the LOD pinned to level 0, and clamp-to-edge addressing on every axis.
//
// Returns:
//   - SamplerStagingData: the sampler description
func LinearClampSampler() SamplerStagingData {
	return SamplerStagingData{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		MaxAnisotropy: 1,
	}
}
