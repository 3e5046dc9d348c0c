package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithSharedLayout makes the provider build its bind group against a layout owned by a pipeline.
// The provider never releases a shared layout. A nil layout is ignored, so the Renderer creates one.
//
// Parameters:
//   - bgl: the pipeline's layout for this bind group index
//
// Returns:
//   - BindGroupProviderOption: option function to apply
func WithSharedLayout(bgl *wgpu.BindGroupLayout) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		if bgl == nil {
			return
		}
		p.layout = bgl
		p.ownsLayout = false
	}
}
