package shader

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/oxy-facedepth/engine/model"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/material"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// VertexEntryPoint is the vertex stage entry point every render shader exposes.
	VertexEntryPoint = "vs_main"

	// FragmentEntryPoint is the fragment stage entry point every render shader exposes.
	FragmentEntryPoint = "fs_main"
)

// shader is the implementation of the Shader interface.
// It holds all of the persistent shader data required for pipeline creation and resource binding.
type shader struct {
	key                        string
	features                   []string
	source                     string
	module                     *wgpu.ShaderModuleDescriptor
	declarations               []Annotation
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	vertexLayouts              []wgpu.VertexBufferLayout
}

// Shader is a pre-processed WGSL render shader variant. It exposes the processed source, the
// module descriptor, the bind group layouts derived from its declarations and its vertex layouts.
type Shader interface {
	// Key retrieves the unique identifier of this variant, the base key followed by its features.
	//
	// Returns:
	//   - string: the variant key, e.g. "face_depth[alpha_falloff]"
	Key() string

	// Features returns the sorted variant features the shader was built with.
	//
	// Returns:
	//   - []string: the enabled features
	Features() []string

	// Source retrieves the processed WGSL source.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// Module returns the shader module descriptor built from the processed source.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor

	// Declarations returns the group and provider annotations of the processed source.
	//
	// Returns:
	//   - []Annotation: the declarations in source order
	Declarations() []Annotation

	// BindGroupLayoutDescriptor retrieves the layout descriptor of one bind group.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor, or an empty descriptor if the group is unused
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors retrieves all bind group layout descriptors keyed by group index.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// VertexLayouts retrieves the vertex buffer layouts consumed by the vertex stage.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: one layout per vertex buffer slot
	VertexLayouts() []wgpu.VertexBufferLayout

	// Binding resolves the group and binding index of a provider role.
	//
	// Parameters:
	//   - role: the binding role, e.g. AnnotationArgDepthTexture
	//
	// Returns:
	//   - int: the group index
	//   - int: the binding index
	//   - bool: false if the shader declares no such role
	Binding(role AnnotationArg) (int, int, bool)
}

var _ Shader = &shader{}

// NewShader pre-processes WGSL source into a Shader variant.
//
// Parameters:
//   - key: the base identifier of the shader
//   - source: the annotated WGSL source
//   - features: the variant features to enable
//
// Returns:
//   - Shader: the processed shader
//   - error: an error if pre-processing fails
func NewShader(key, source string, features ...string) (Shader, error) {
	feats := slices.Clone(features)
	slices.Sort(feats)
	feats = slices.Compact(feats)

	pp := newPreProcessor()
	processed, err := pp.Process(source, feats...)
	if err != nil {
		return nil, fmt.Errorf("shader: pre-process %q: %w", key, err)
	}

	s := &shader{
		key:          variantKey(key, feats),
		features:     feats,
		source:       processed,
		declarations: slices.Clone(pp.Declarations()),
	}
	s.module = &wgpu.ShaderModuleDescriptor{
		Label: s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.source,
		},
	}
	s.bindGroupLayoutDescriptors = buildBindGroupLayouts(s.key, s.declarations, pp)
	if slices.Contains(pp.includes, annotationArgSkinnedVertex) {
		s.vertexLayouts = []wgpu.VertexBufferLayout{model.SkinnedVertexLayout()}
	}
	return s, nil
}

// NewFaceDepthShader builds the face depth surface shader variant for the given features.
//
// Parameters:
//   - features: the variant features, typically DepthMaterial.Features()
//
// Returns:
//   - Shader: the processed shader
//   - error: an error if pre-processing fails
func NewFaceDepthShader(features ...string) (Shader, error) {
	return NewShader(material.PipelineKeyFaceDepth, material.FaceDepthShaderSource, features...)
}

func variantKey(key string, features []string) string {
	if len(features) == 0 {
		return key
	}
	return key + "[" + strings.Join(features, ",") + "]"
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Features() []string {
	return s.features
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) Declarations() []Annotation {
	return s.declarations
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) Binding(role AnnotationArg) (int, int, bool) {
	for _, d := range s.declarations {
		if d.Type == AnnotationTypeProvider && d.Args[1] == role {
			return *d.Group, *d.Binding, true
		}
	}
	return 0, 0, false
}

// buildBindGroupLayouts derives one layout descriptor per bind group from the declarations.
// Every binding is visible to both stages since the vertex stage samples the depth texture too.
func buildBindGroupLayouts(label string, decls []Annotation, pp *preProcessor) map[int]wgpu.BindGroupLayoutDescriptor {
	visibility := wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	for _, d := range decls {
		entry := wgpu.BindGroupLayoutEntry{
			Binding:    uint32(*d.Binding),
			Visibility: visibility,
		}
		switch d.Type {
		case AnnotationTypeBindingGroup:
			if d.Args[0] == annotationArgStorageTypeRead {
				entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
			} else {
				entry.Buffer.Type = wgpu.BufferBindingTypeUniform
			}
			entry.Buffer.MinBindingSize = pp.structSize(d.Args[2])
		case AnnotationTypeProvider:
			switch d.Args[1] {
			case AnnotationArgBones:
				entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
			case AnnotationArgDepthTexture, AnnotationArgMaskTexture:
				entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
				entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
			case AnnotationArgDepthSampler:
				entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
			}
		}
		groups[*d.Group] = append(groups[*d.Group], entry)
	}

	result := make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Binding < entries[j].Binding
		})
		result[g] = wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s group %d", label, g),
			Entries: entries,
		}
	}
	return result
}
