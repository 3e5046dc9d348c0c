package depth_texture

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame(res int, fill byte) []byte {
	buf := make([]byte, res*res*4)
	for i := range buf {
		buf[i] = fill
	}
	return buf
}

func TestUpdateAllocatesOnFirstCall(t *testing.T) {
	tex := NewDepthTexture(4)
	assert.Nil(t, tex.Staging())
	assert.False(t, tex.NeedsUpdate())

	require.NoError(t, tex.Update(frame(4, 7), 4))
	staging := tex.Staging()
	require.NotNil(t, staging)
	assert.Equal(t, uint32(4), staging.Width)
	assert.Equal(t, uint32(4), staging.Height)
	assert.Equal(t, byte(7), staging.Pixels[63])
	assert.True(t, tex.NeedsUpdate())

	pix := staging.Pixels
	require.NoError(t, tex.Update(frame(4, 9), 4))
	assert.Same(t, &pix[0], &tex.Staging().Pixels[0], "staging is reused")
	assert.Equal(t, byte(9), tex.Staging().Pixels[0])
}

func TestUpdateResolutionMismatch(t *testing.T) {
	tex := NewDepthTexture(256)
	require.NoError(t, tex.Update(frame(256, 0), 256))

	err := tex.Update(frame(128, 0), 128)
	require.ErrorIs(t, err, ErrResolutionMismatch)
	assert.Contains(t, err.Error(), "128")
	assert.Contains(t, err.Error(), "256")

	// deterministic: same input, same failure
	assert.ErrorIs(t, tex.Update(frame(128, 0), 128), ErrResolutionMismatch)
	assert.Equal(t, 256, tex.Resolution())
}

func TestUpdateBufferSize(t *testing.T) {
	tex := NewDepthTexture(4)
	err := tex.Update(make([]byte, 10), 4)
	assert.ErrorIs(t, err, ErrBufferSize)
	assert.False(t, tex.NeedsUpdate())
}

func TestSamplerConfiguration(t *testing.T) {
	tex := NewDepthTexture(8)
	s := tex.Sampler()
	assert.Equal(t, wgpu.FilterModeLinear, s.MinFilter)
	assert.Equal(t, wgpu.FilterModeLinear, s.MagFilter)
	assert.Equal(t, wgpu.MipmapFilterModeNearest, s.MipmapFilter)
	assert.Equal(t, float32(0), s.LodMaxClamp)
	assert.Equal(t, wgpu.AddressModeClampToEdge, s.AddressModeU)
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, tex.Format())

	nearest := NewDepthTexture(8, WithFilter(wgpu.FilterModeNearest))
	assert.Equal(t, wgpu.FilterModeNearest, nearest.Sampler().MinFilter)
}

func TestStagedWritesDeferUntilDrained(t *testing.T) {
	tex := NewDepthTexture(2)
	require.NoError(t, tex.Update(frame(2, 1), 2))

	assert.Empty(t, tex.StagedWrites(), "no provider yet")
	assert.True(t, tex.NeedsUpdate(), "dirty flag survives a drain without provider")

	provider := bind_group_provider.NewBindGroupProvider("depth")
	tex.SetBindGroupProvider(provider)

	writes := tex.StagedWrites()
	require.Len(t, writes, 1)
	assert.Equal(t, TextureBinding, writes[0].Binding)
	assert.Equal(t, provider, writes[0].Provider)
	assert.Equal(t, frame(2, 1), writes[0].Staging.Pixels)
	assert.False(t, tex.NeedsUpdate())
	assert.Empty(t, tex.StagedWrites())

	// the drained copy is detached from later updates
	require.NoError(t, tex.Update(frame(2, 5), 2))
	assert.Equal(t, byte(1), writes[0].Staging.Pixels[0])
	assert.Len(t, tex.StagedWrites(), 1)
}

func TestWithInitialPixels(t *testing.T) {
	tex := NewDepthTexture(2, WithInitialPixels(frame(2, 128)))
	require.NotNil(t, tex.Staging())
	assert.True(t, tex.NeedsUpdate())

	ignored := NewDepthTexture(2, WithInitialPixels(frame(3, 128)))
	assert.Nil(t, ignored.Staging())
}
