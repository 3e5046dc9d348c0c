package renderer

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-facedepth/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingNames(t *testing.T) {
	assert.Equal(t, "wgpu", BackendTypeWGPU.String())
	assert.Equal(t, "vsync", PresentModeVSync.String())
	assert.Equal(t, "uncapped", PresentModeUncapped.String())
	assert.Equal(t, "present(7)", PresentMode(7).String())
	assert.Equal(t, "off", MSAAOff.String())
	assert.Equal(t, "4x", MSAA4x.String())
}

func TestBuilderOptions(t *testing.T) {
	r := &renderer{}
	for _, opt := range []RendererBuilderOption{
		WithPresentMode(PresentModeUncapped),
		WithMSAA(MSAAOff),
		WithClearColor([4]float64{0.1, 0.2, 0.3, 1}),
		WithForceSoftwareRenderer(true),
		WithLogger(nil),
	} {
		opt(r)
	}
	assert.Equal(t, PresentModeUncapped, r.presentMode)
	assert.Equal(t, MSAAOff, r.msaa)
	assert.Equal(t, [4]float64{0.1, 0.2, 0.3, 1}, r.clearColor)
	assert.True(t, r.forceFallbackAdapter)
	assert.Nil(t, r.logger)
}

// surfaceBackend records the present mode and surface configuration calls; every other backend method is unused.
type surfaceBackend struct {
	RendererBackend
	modes      []PresentMode
	configured [][2]int
	err        error
}

func (b *surfaceBackend) SetPresentMode(mode PresentMode) {
	b.modes = append(b.modes, mode)
}

func (b *surfaceBackend) ConfigureSurface(width, height int) error {
	b.configured = append(b.configured, [2]int{width, height})
	return b.err
}

func TestSetPresentModeReconfiguresSurface(t *testing.T) {
	backend := &surfaceBackend{}
	r := &renderer{backend: backend, presentMode: PresentModeVSync, logger: common.NopLogger()}

	require.NoError(t, r.SetPresentMode(PresentModeUncapped))
	assert.Empty(t, backend.configured, "nothing to reconfigure before the first size is known")

	require.NoError(t, r.Resize(640, 480))
	require.NoError(t, r.SetPresentMode(r.PresentMode().Toggled()))
	assert.Equal(t, PresentModeVSync, r.PresentMode())
	assert.Equal(t, []PresentMode{PresentModeUncapped, PresentModeVSync}, backend.modes)
	assert.Equal(t, [][2]int{{640, 480}, {640, 480}}, backend.configured)

	require.NoError(t, r.SetPresentMode(PresentModeVSync))
	assert.Len(t, backend.modes, 2, "setting the active mode is a no-op")

	backend.err = errors.New("surface lost")
	assert.ErrorIs(t, r.SetPresentMode(PresentModeUncapped), backend.err)
}

func TestPresentModeToggled(t *testing.T) {
	assert.Equal(t, PresentModeUncapped, PresentModeVSync.Toggled())
	assert.Equal(t, PresentModeVSync, PresentModeUncapped.Toggled())
}
