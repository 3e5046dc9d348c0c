package bind_group_provider

import (
	"github.com/Carmen-Shannon/oxy-facedepth/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureWrite stages a full RGBA8 image for the texture at a provider binding. The depth texture emits
// one whenever a detected frame has restaged its pixels.
type TextureWrite struct {
	Provider BindGroupProvider
	Binding  int
	Staging  common.TextureStagingData
}

// Target resolves the destination texture. It is nil when the provider is missing, the binding holds no
// texture, or the staged pixels do not cover the staged dimensions.
//
// Returns:
//   - *wgpu.Texture: the texture to write, or nil to skip
func (w TextureWrite) Target() *wgpu.Texture {
	if w.Provider == nil || w.Staging.Validate() != nil {
		return nil
	}
	return w.Provider.Texture(w.Binding)
}
