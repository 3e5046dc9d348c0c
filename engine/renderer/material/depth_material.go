package material

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/depth_texture"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// PipelineKeyFaceDepth is the pipeline key shared by all face depth materials.
	PipelineKeyFaceDepth = "face_depth"

	// FeatureAlphaFallOff enables the alpha_falloff variant block of the face depth shader.
	FeatureAlphaFallOff = "alpha_falloff"

	// ParamsBinding is the binding index of the FaceDepthParams uniform within the material bind group.
	ParamsBinding = 0

	// MaskBinding is the binding index of the mask texture within the material bind group.
	MaskBinding = 3
)

// DepthParams holds the tunables of the face depth shader.
type DepthParams struct {
	// DepthScale is the displacement along the vertex normal per unit of decoded depth.
	DepthScale float32
	// Resolution is the grid and texture resolution.
	Resolution int
	// LightFallOffRange is [depth where darkening is max, depth where it stops].
	LightFallOffRange [2]float32
	// LightFallOffIntensity is the darkening applied at the near end of LightFallOffRange.
	LightFallOffIntensity float32
	// AlphaFallOffRange is the depth range over which alpha fades from 0 to the mask value.
	AlphaFallOffRange [2]float32
	// AlphaFallOff selects the shader variant that fades alpha with depth.
	AlphaFallOff bool
}

// DefaultDepthParams returns the stock tuning for a 512 texel face grid.
//
// Returns:
//   - DepthParams: the default parameters
func DefaultDepthParams() DepthParams {
	return DepthParams{
		DepthScale:            0.4,
		Resolution:            512,
		LightFallOffRange:     [2]float32{-1, 0.5},
		LightFallOffIntensity: 0.8,
		AlphaFallOffRange:     [2]float32{-1, -0.5},
		AlphaFallOff:          true,
	}
}

// depthMaterial is the implementation of the DepthMaterial interface.
type depthMaterial struct {
	*material

	mu     sync.Mutex
	params DepthParams
	mask   *MaskTexture
	depth  depth_texture.DepthTexture
	dirty  bool
}

// DepthMaterial is the transparent material of the generated face surface. It displaces grid vertices
// by the depth stored in the alpha channel of the depth texture and shades them with the texture color,
// a depth dependent light falloff and a depth dependent alpha falloff.
type DepthMaterial interface {
	Material

	// Params returns the current shader parameters.
	//
	// Returns:
	//   - DepthParams: the parameters
	Params() DepthParams

	// SetParams replaces the shader parameters and stages a uniform upload.
	//
	// Parameters:
	//   - params: the new parameters
	SetParams(params DepthParams)

	// Mask returns the opacity mask.
	//
	// Returns:
	//   - *MaskTexture: the mask, never nil
	Mask() *MaskTexture

	// DepthTexture returns the per-frame depth texture sampled by the vertex and fragment stages, or nil.
	DepthTexture() depth_texture.DepthTexture

	// SetDepthTexture binds the depth texture. The material's bind group provider is shared with it, so
	// texture uploads land in the material bind group.
	//
	// Parameters:
	//   - t: the depth texture
	SetDepthTexture(t depth_texture.DepthTexture)

	// Features returns the shader variant features the material needs.
	//
	// Returns:
	//   - []string: the enabled feature names
	Features() []string

	// Uniforms returns the GPU representation of the current parameters.
	//
	// Returns:
	//   - GPUFaceDepthParams: the uniform block
	Uniforms() GPUFaceDepthParams

	// BlendState returns the alpha blending state used by the face depth pipeline.
	//
	// Returns:
	//   - *wgpu.BlendState: source-alpha over blending
	BlendState() *wgpu.BlendState

	// StagedWrites drains the pending uniform upload, if any. Requires a bind group provider.
	//
	// Returns:
	//   - []bind_group_provider.BufferWrite: zero or one writes
	StagedWrites() []bind_group_provider.BufferWrite
}

var _ DepthMaterial = &depthMaterial{}

// NewDepthMaterial creates the face depth material. The material is always transparent and uses PipelineKeyFaceDepth.
//
// Parameters:
//   - params: the shader parameters
//   - mask: the opacity mask, or nil for a fully opaque mask at params.Resolution
//   - options: options applied to the underlying material
//
// Returns:
//   - DepthMaterial: the new material
func NewDepthMaterial(params DepthParams, mask *MaskTexture, options ...MaterialBuilderOption) DepthMaterial {
	if mask == nil {
		mask = OpaqueMask(params.Resolution)
	}
	base := newMaterial(append([]MaterialBuilderOption{WithName("face depth")}, options...))
	base.transparent = true
	base.pipelineKey = PipelineKeyFaceDepth
	return &depthMaterial{
		material: base,
		params:   params,
		mask:     mask,
		dirty:    true,
	}
}

func (m *depthMaterial) Params() DepthParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.params
}

func (m *depthMaterial) SetParams(params DepthParams) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.params = params
	m.dirty = true
}

func (m *depthMaterial) Mask() *MaskTexture {
	return m.mask
}

func (m *depthMaterial) DepthTexture() depth_texture.DepthTexture {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.depth
}

func (m *depthMaterial) SetDepthTexture(t depth_texture.DepthTexture) {
	m.mu.Lock()
	m.depth = t
	m.mu.Unlock()
	if provider := m.BindGroupProvider(); provider != nil && t != nil {
		t.SetBindGroupProvider(provider)
	}
}

func (m *depthMaterial) SetBindGroupProvider(provider bind_group_provider.BindGroupProvider) {
	m.material.SetBindGroupProvider(provider)
	if t := m.DepthTexture(); t != nil {
		t.SetBindGroupProvider(provider)
	}
	m.mu.Lock()
	m.dirty = true
	m.mu.Unlock()
}

func (m *depthMaterial) Features() []string {
	if m.Params().AlphaFallOff {
		return []string{FeatureAlphaFallOff}
	}
	return nil
}

func (m *depthMaterial) Uniforms() GPUFaceDepthParams {
	p := m.Params()
	return GPUFaceDepthParams{
		LightFallOffRange:     p.LightFallOffRange,
		AlphaFallOffRange:     p.AlphaFallOffRange,
		DepthScale:            p.DepthScale,
		Resolution:            float32(p.Resolution),
		LightFallOffIntensity: p.LightFallOffIntensity,
	}
}

func (m *depthMaterial) BlendState() *wgpu.BlendState {
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
	}
}

func (m *depthMaterial) StagedWrites() []bind_group_provider.BufferWrite {
	provider := m.BindGroupProvider()
	if provider == nil {
		return nil
	}
	m.mu.Lock()
	if !m.dirty {
		m.mu.Unlock()
		return nil
	}
	m.dirty = false
	m.mu.Unlock()

	u := m.Uniforms()
	return []bind_group_provider.BufferWrite{{
		Provider: provider,
		Binding:  ParamsBinding,
		Data:     u.Marshal(),
	}}
}
