package common

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// ImportedTexture represents image data referenced by a material, either embedded as raw bytes or stored on disk.
type ImportedTexture struct {
	// Name is an identifier for this texture (e.g., "mask").
	Name string

	// Path is the file path for external textures (empty for embedded).
	Path string

	// Data contains raw encoded image bytes (PNG, JPEG, TGA or WebP).
	Data []byte

	// Width is the texture width in pixels (populated after Decode).
	Width int

	// Height is the texture height in pixels (populated after Decode).
	Height int
}

// Decode decodes the texture to raw RGBA pixel data.
// Uses either embedded Data bytes or loads from Path on disk.
// Supports PNG, JPEG, TGA and WebP formats.
//
// Returns:
//   - []byte: raw RGBA pixel data (4 bytes per pixel, row-major order)
//   - uint32: texture width in pixels
//   - uint32: texture height in pixels
//   - error: error if decoding fails
func (t *ImportedTexture) Decode() ([]byte, uint32, uint32, error) {
	img, err := t.image()
	if err != nil {
		return nil, 0, 0, err
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	t.Width = bounds.Dx()
	t.Height = bounds.Dy()

	return rgba.Pix, uint32(t.Width), uint32(t.Height), nil
}

// DecodeResized decodes the texture and resamples it to the requested size with bilinear filtering.
// Used when an image has to line up texel-for-texel with a grid of known resolution.
//
// Parameters:
//   - width: the target width in pixels
//   - height: the target height in pixels
//
// Returns:
//   - []byte: raw RGBA pixel data of the resampled image
//   - error: error if decoding fails or the target size is not positive
func (t *ImportedTexture) DecodeResized(width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	img, err := t.image()
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	t.Width = bounds.Dx()
	t.Height = bounds.Dy()

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if t.Width == width && t.Height == height {
		draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
		return dst.Pix, nil
	}
	draw.BiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst.Pix, nil
}

func (t *ImportedTexture) image() (image.Image, error) {
	if t == nil {
		return nil, fmt.Errorf("texture is nil")
	}

	if len(t.Data) > 0 {
		img, err := decodeImage(t.Data, false)
		if err != nil {
			return nil, fmt.Errorf("failed to decode embedded image: %w", err)
		}
		return img, nil
	}
	if t.Path == "" {
		return nil, fmt.Errorf("texture has neither data nor path")
	}

	data, err := os.ReadFile(t.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture file %s: %w", t.Path, err)
	}
	img, err := decodeImage(data, strings.EqualFold(filepath.Ext(t.Path), ".tga"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode texture file %s: %w", t.Path, err)
	}
	return img, nil
}

var (
	pngMagic  = []byte("\x89PNG\r\n\x1a\n")
	jpegMagic = []byte{0xff, 0xd8}
)

// decodeImage picks the decoder from the leading bytes instead of image.Decode: the tga package registers
// itself with an empty magic string, which would claim every input. TGA has no magic number, so it is
// decoded for .tga paths and for anything that is not PNG, JPEG or WebP.
func decodeImage(data []byte, isTGA bool) (image.Image, error) {
	r := bytes.NewReader(data)
	switch {
	case isTGA:
		return tga.Decode(r)
	case bytes.HasPrefix(data, pngMagic):
		return png.Decode(r)
	case bytes.HasPrefix(data, jpegMagic):
		return jpeg.Decode(r)
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return webp.Decode(r)
	}
	img, err := tga.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("unrecognized image format: %w", err)
	}
	return img, nil
}
