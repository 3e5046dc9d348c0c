package material

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-facedepth/common"
)

// MaskTexture is a square RGBA opacity mask resampled to the face grid resolution.
// The red channel is the opacity. Rows are stored bottom-up so that texture coordinate v=0
// addresses the bottom of the source image, matching the grid's UV layout.
type MaskTexture struct {
	resolution int
	staging    common.TextureStagingData
}

// OpaqueMask returns a fully opaque mask of the given resolution.
//
// Parameters:
//   - resolution: the width and height in texels, clamped to at least 1
//
// Returns:
//   - *MaskTexture: a mask whose opacity is 1 everywhere
func OpaqueMask(resolution int) *MaskTexture {
	resolution = max(resolution, 1)
	pix := make([]byte, resolution*resolution*4)
	for i := range pix {
		pix[i] = 0xff
	}
	return &MaskTexture{
		resolution: resolution,
		staging:    common.TextureStagingData{Pixels: pix, Width: uint32(resolution), Height: uint32(resolution)},
	}
}

// LoadMaskTexture loads an opacity mask from disk and resamples it to the grid resolution with bilinear filtering.
// PNG, JPEG, TGA and WebP files are accepted. An empty path yields OpaqueMask.
//
// Parameters:
//   - path: the image file path, or "" for no mask
//   - resolution: the grid resolution the mask is resampled to
//
// Returns:
//   - *MaskTexture: the loaded mask
//   - error: an error if the file cannot be read or decoded
func LoadMaskTexture(path string, resolution int) (*MaskTexture, error) {
	if path == "" {
		return OpaqueMask(resolution), nil
	}
	if resolution <= 0 {
		return nil, fmt.Errorf("material: mask resolution must be positive, got %d", resolution)
	}
	tex := &common.ImportedTexture{Name: "mask", Path: path}
	pix, err := tex.DecodeResized(resolution, resolution)
	if err != nil {
		return nil, fmt.Errorf("material: load mask %q: %w", path, err)
	}
	return &MaskTexture{
		resolution: resolution,
		staging:    common.TextureStagingData{Pixels: flipRows(pix, resolution), Width: uint32(resolution), Height: uint32(resolution)},
	}, nil
}

func flipRows(pix []byte, resolution int) []byte {
	stride := resolution * 4
	out := make([]byte, len(pix))
	for y := 0; y < resolution; y++ {
		copy(out[(resolution-1-y)*stride:(resolution-y)*stride], pix[y*stride:(y+1)*stride])
	}
	return out
}

func (m *MaskTexture) Resolution() int {
	return m.resolution
}

// Staging returns the mask pixels ready for upload.
//
// Returns:
//   - common.TextureStagingData: RGBA pixels and dimensions
func (m *MaskTexture) Staging() common.TextureStagingData {
	return m.staging
}

// Opacity samples the mask at a texture coordinate with nearest filtering.
//
// Parameters:
//   - u: horizontal texture coordinate in [0, 1]
//   - v: vertical texture coordinate in [0, 1]
//
// Returns:
//   - float32: the red channel as an opacity in [0, 1]
func (m *MaskTexture) Opacity(u, v float32) float32 {
	if m == nil {
		return 1
	}
	x, y := texel(u, m.resolution), texel(v, m.resolution)
	return float32(m.staging.Pixels[(y*m.resolution+x)*4]) / 255
}

func texel(c float32, resolution int) int {
	return min(max(int(c*float32(resolution)), 0), resolution-1)
}
