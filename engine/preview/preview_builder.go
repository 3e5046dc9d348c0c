package preview

import (
	"github.com/Carmen-Shannon/oxy-facedepth/common"
	"github.com/gogpu/gg"
)

// CanvasBuilderOption is a functional option used to configure a Canvas during construction.
type CanvasBuilderOption func(*canvas)

// WithBackground sets the color the canvas is cleared to before every draw.
//
// Parameters:
//   - r, g, b, a: the color channels in [0,1]
//
// Returns:
//   - CanvasBuilderOption: a function that sets the background color
func WithBackground(r, g, b, a float64) CanvasBuilderOption {
	return func(c *canvas) {
		c.background = gg.RGBA2(r, g, b, a)
	}
}

// WithOpacity sets the initial draw opacity.
//
// Parameters:
//   - opacity: the opacity in [0,1]
//
// Returns:
//   - CanvasBuilderOption: a function that sets the opacity
func WithOpacity(opacity float64) CanvasBuilderOption {
	return func(c *canvas) {
		c.opacity = common.Clamp(opacity, 0, 1)
	}
}
