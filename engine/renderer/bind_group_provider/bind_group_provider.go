package bind_group_provider

import (
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
)

// slot holds the GPU resources created for one binding index. A binding is exactly one of a buffer,
// a texture with its view, or a sampler.
type slot struct {
	buffer  *wgpu.Buffer
	texture *wgpu.Texture
	view    *wgpu.TextureView
	sampler *wgpu.Sampler
}

func (s *slot) release() {
	if s.view != nil {
		s.view.Release()
	}
	if s.texture != nil {
		s.texture.Release()
	}
	if s.sampler != nil {
		s.sampler.Release()
	}
	if s.buffer != nil {
		s.buffer.Release()
	}
}

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	label string

	bindGroup *wgpu.BindGroup
	layout    *wgpu.BindGroupLayout
	// ownsLayout is false when the layout belongs to a pipeline and must outlive this provider.
	ownsLayout bool

	slots map[int]*slot

	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	indexCount   int
}

// BindGroupProvider owns the GPU resources behind one bind group. Meshes hold one for their vertex, index,
// uniform and bone palette buffers; the depth material holds one for its parameters, the depth texture, its
// sampler and the opacity mask.
//
// The Renderer creates the resources (InitMeshBuffers, InitTextureView, InitSampler, InitBindGroup) and stores
// them here; the scene then addresses per-frame BufferWrite and TextureWrite values at a provider binding.
type BindGroupProvider interface {
	// Release frees every GPU resource created for this provider. A layout shared from a pipeline is left alone.
	Release()

	Label() string

	// Initialized reports whether the bind group has been created.
	Initialized() bool

	// Bindings returns the binding indices holding a resource, in ascending order.
	//
	// Returns:
	//   - []int: the populated binding indices
	Bindings() []int

	BindGroup() *wgpu.BindGroup
	BindGroupLayout() *wgpu.BindGroupLayout

	// Buffer returns the uniform or storage buffer at a binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// Texture returns the texture at a binding, or nil. Staged TextureWrite values target it.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Texture: the texture or nil
	Texture(binding int) *wgpu.Texture

	// TextureView returns the view bound at a binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.TextureView: the view or nil
	TextureView(binding int) *wgpu.TextureView

	// Sampler returns the sampler at a binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Sampler: the sampler or nil
	Sampler(binding int) *wgpu.Sampler

	VertexBuffer() *wgpu.Buffer
	IndexBuffer() *wgpu.Buffer
	IndexCount() int

	SetBindGroup(bg *wgpu.BindGroup)

	// SetBindGroupLayout stores a layout created for this provider alone. It is released with the provider.
	//
	// Parameters:
	//   - bgl: the created layout
	SetBindGroupLayout(bgl *wgpu.BindGroupLayout)

	// SetBuffer stores the buffer created for a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the created buffer
	SetBuffer(binding int, buf *wgpu.Buffer)

	// SetTexture stores the texture backing a texture binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - tex: the created texture
	SetTexture(binding int, tex *wgpu.Texture)

	// SetTextureView stores the view bound at a texture binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - tv: the created view
	SetTextureView(binding int, tv *wgpu.TextureView)

	// SetSampler stores the sampler created for a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - s: the created sampler
	SetSampler(binding int, s *wgpu.Sampler)

	SetVertexBuffer(buf *wgpu.Buffer)
	SetIndexBuffer(buf *wgpu.Buffer)
	SetIndexCount(count int)
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates an empty provider. GPU resources are added by the Renderer.
//
// Parameters:
//   - label: prefix for the debug labels of the GPU resources
//   - options: functional options
//
// Returns:
//   - BindGroupProvider: the new provider
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label: label,
		slots: make(map[int]*slot),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) slot(binding int) *slot {
	s, ok := p.slots[binding]
	if !ok {
		s = &slot{}
		p.slots[binding] = s
	}
	return s
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Initialized() bool {
	return p.bindGroup != nil
}

func (p *bindGroupProvider) Bindings() []int {
	out := make([]int, 0, len(p.slots))
	for b := range p.slots {
		out = append(out, b)
	}
	slices.Sort(out)
	return out
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.layout
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	if s, ok := p.slots[binding]; ok {
		return s.buffer
	}
	return nil
}

func (p *bindGroupProvider) Texture(binding int) *wgpu.Texture {
	if s, ok := p.slots[binding]; ok {
		return s.texture
	}
	return nil
}

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	if s, ok := p.slots[binding]; ok {
		return s.view
	}
	return nil
}

func (p *bindGroupProvider) Sampler(binding int) *wgpu.Sampler {
	if s, ok := p.slots[binding]; ok {
		return s.sampler
	}
	return nil
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer {
	return p.vertexBuffer
}

func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer {
	return p.indexBuffer
}

func (p *bindGroupProvider) IndexCount() int {
	return p.indexCount
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBindGroupLayout(bgl *wgpu.BindGroupLayout) {
	p.layout = bgl
	p.ownsLayout = bgl != nil
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	p.slot(binding).buffer = buf
}

func (p *bindGroupProvider) SetTexture(binding int, tex *wgpu.Texture) {
	p.slot(binding).texture = tex
}

func (p *bindGroupProvider) SetTextureView(binding int, tv *wgpu.TextureView) {
	p.slot(binding).view = tv
}

func (p *bindGroupProvider) SetSampler(binding int, s *wgpu.Sampler) {
	p.slot(binding).sampler = s
}

func (p *bindGroupProvider) SetVertexBuffer(buf *wgpu.Buffer) {
	p.vertexBuffer = buf
}

func (p *bindGroupProvider) SetIndexBuffer(buf *wgpu.Buffer) {
	p.indexBuffer = buf
}

func (p *bindGroupProvider) SetIndexCount(count int) {
	p.indexCount = count
}

func (p *bindGroupProvider) Release() {
	// the bind group references the slot resources, so it goes first
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	for b, s := range p.slots {
		s.release()
		delete(p.slots, b)
	}
	if p.layout != nil && p.ownsLayout {
		p.layout.Release()
	}
	p.layout = nil
	p.ownsLayout = false

	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
	p.indexCount = 0
}
