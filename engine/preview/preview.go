package preview

import (
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/Carmen-Shannon/oxy-facedepth/common"
	"github.com/HugoSmits86/nativewebp"
	"github.com/gogpu/gg"
)

const (
	// HiddenScale is the scale the preview collapses to while a face is tracked.
	HiddenScale = 0.001

	// ShownScale is the scale of a fully displayed preview.
	ShownScale = 1.0
)

// canvas is the implementation of the Canvas interface.
type canvas struct {
	mu sync.Mutex

	ctx        *gg.Context
	background gg.RGBA
	scale      float64
	opacity    float64
	frames     int
}

// Canvas is the raw camera preview surface. The detector draws the color channels of the latest frame onto it
// while the preview is updating; the face helper shrinks it out of view once a face is tracked.
type Canvas interface {
	// Draw paints the RGB channels of a square RGBA frame buffer, scaled about the canvas center by Scale
	// and blended with Opacity. The alpha channel carries depth and is ignored.
	//
	// Parameters:
	//   - pixels: RGBA bytes, res*res*4 long
	//   - res: the width and height of the frame
	//
	// Returns:
	//   - error: an error if the buffer size does not match res
	Draw(pixels []byte, res int) error

	// SetScale sets the display scale. ShownScale displays the frame edge to edge, HiddenScale collapses it.
	//
	// Parameters:
	//   - scale: the display scale, clamped to [0,1]
	SetScale(scale float64)

	Scale() float64

	// SetOpacity sets the blend opacity of subsequent draws.
	//
	// Parameters:
	//   - opacity: the opacity, clamped to [0,1]
	SetOpacity(opacity float64)

	Opacity() float64

	// Hidden reports whether the preview is collapsed below a visible size.
	Hidden() bool

	// Frames returns how many frames have been drawn since construction.
	Frames() int

	Width() int
	Height() int

	// Image returns the current canvas contents.
	//
	// Returns:
	//   - image.Image: the canvas pixels
	Image() image.Image

	// EncodeWebP writes the current canvas contents as a lossless WebP image.
	//
	// Parameters:
	//   - w: the destination writer
	//
	// Returns:
	//   - error: an error if encoding fails
	EncodeWebP(w io.Writer) error

	// EncodePNG writes the current canvas contents as a PNG image.
	//
	// Parameters:
	//   - w: the destination writer
	//
	// Returns:
	//   - error: an error if encoding fails
	EncodePNG(w io.Writer) error

	// Close releases the drawing context.
	Close() error
}

var _ Canvas = &canvas{}

// NewCanvas creates a preview Canvas of the given size.
//
// Parameters:
//   - width: the canvas width in pixels
//   - height: the canvas height in pixels
//   - options: functional options applied after defaults
//
// Returns:
//   - Canvas: the new canvas
func NewCanvas(width, height int, options ...CanvasBuilderOption) Canvas {
	c := &canvas{
		background: gg.RGBA2(0, 0, 0, 1),
		scale:      ShownScale,
		opacity:    1,
	}
	for _, opt := range options {
		opt(c)
	}
	c.ctx = gg.NewContext(max(width, 1), max(height, 1))
	c.ctx.ClearWithColor(c.background)
	return c
}

func (c *canvas) Draw(pixels []byte, res int) error {
	if res <= 0 || len(pixels) != res*res*4 {
		return fmt.Errorf("preview: frame is %d bytes, want %d for resolution %d", len(pixels), res*res*4, res)
	}

	img := image.NewNRGBA(image.Rect(0, 0, res, res))
	for i := 0; i < len(pixels); i += 4 {
		img.Pix[i] = pixels[i]
		img.Pix[i+1] = pixels[i+1]
		img.Pix[i+2] = pixels[i+2]
		img.Pix[i+3] = 0xff
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.frames++
	c.ctx.ClearWithColor(c.background)
	if c.scale*float64(min(c.ctx.Width(), c.ctx.Height())) < 1 {
		return nil
	}

	w := float64(c.ctx.Width()) * c.scale
	h := float64(c.ctx.Height()) * c.scale
	c.ctx.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		X:             (float64(c.ctx.Width()) - w) / 2,
		Y:             (float64(c.ctx.Height()) - h) / 2,
		DstWidth:      w,
		DstHeight:     h,
		Interpolation: gg.InterpBilinear,
		Opacity:       c.opacity,
		BlendMode:     gg.BlendNormal,
	})
	return nil
}

func (c *canvas) SetScale(scale float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scale = common.Clamp(scale, 0, 1)
}

func (c *canvas) Scale() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scale
}

func (c *canvas) SetOpacity(opacity float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opacity = common.Clamp(opacity, 0, 1)
}

func (c *canvas) Opacity() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opacity
}

func (c *canvas) Hidden() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scale*float64(min(c.ctx.Width(), c.ctx.Height())) < 1
}

func (c *canvas) Frames() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

func (c *canvas) Width() int {
	return c.ctx.Width()
}

func (c *canvas) Height() int {
	return c.ctx.Height()
}

func (c *canvas) Image() image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx.Image()
}

func (c *canvas) EncodeWebP(w io.Writer) error {
	if err := nativewebp.Encode(w, c.Image(), nil); err != nil {
		return fmt.Errorf("preview: encode webp: %w", err)
	}
	return nil
}

func (c *canvas) EncodePNG(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ctx.EncodePNG(w); err != nil {
		return fmt.Errorf("preview: encode png: %w", err)
	}
	return nil
}

func (c *canvas) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx.Close()
}
