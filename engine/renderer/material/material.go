package material

import (
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/bind_group_provider"
)

// material is the implementation of the Material interface.
type material struct {
	name        string
	transparent bool
	renderOrder int

	pipelineKey       string
	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Material is the part of a surface description the scene needs to sort and draw a mesh: a name for
// debugging, blending and ordering, and the GPU pipeline and bind group assigned on first draw.
// Plain materials carry no shading and are skipped by the GPU draw pass; DepthMaterial embeds one.
type Material interface {
	Name() string

	// Transparent reports whether the material is alpha blended. Blended meshes draw after opaque ones,
	// back to front.
	//
	// Returns:
	//   - bool: true for blended materials
	Transparent() bool

	// RenderOrder returns the explicit draw order. Within the opaque or the blended group, lower orders
	// draw first and depth sorting only breaks ties.
	//
	// Returns:
	//   - int: the render order, 0 by default
	RenderOrder() int

	// PipelineKey returns the key of the shader variant this material was registered with, or "".
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// BindGroupProvider returns the provider holding the material's GPU resources, or nil before first draw.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider or nil
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// SetPipelineKey records the shader variant chosen when the scene registers the pipeline.
	//
	// Parameters:
	//   - key: the pipeline key
	SetPipelineKey(key string)

	// SetBindGroupProvider stores the provider created when the scene initializes the material.
	//
	// Parameters:
	//   - provider: the provider holding the GPU resources
	SetBindGroupProvider(provider bind_group_provider.BindGroupProvider)
}

var _ Material = &material{}

// NewMaterial creates a plain Material.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	return newMaterial(options)
}

func newMaterial(options []MaterialBuilderOption) *material {
	m := &material{}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) Transparent() bool {
	return m.transparent
}

func (m *material) RenderOrder() int {
	return m.renderOrder
}

func (m *material) PipelineKey() string {
	return m.pipelineKey
}

func (m *material) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return m.bindGroupProvider
}

func (m *material) SetPipelineKey(key string) {
	m.pipelineKey = key
}

func (m *material) SetBindGroupProvider(provider bind_group_provider.BindGroupProvider) {
	m.bindGroupProvider = provider
}
