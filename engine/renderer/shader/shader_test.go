package shader

import (
	"os"
	"testing"

	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/material"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestProcessVariantBlocks(t *testing.T) {
	src, err := os.ReadFile("testdata/small_variant.wgsl")
	require.NoError(t, err)
	g := newGoldie(t)

	pp := NewPreProcessor()
	on, err := pp.Process(string(src), material.FeatureAlphaFallOff)
	require.NoError(t, err)
	g.Assert(t, "small_variant_on", []byte(on))
	require.Len(t, pp.Declarations(), 1)

	off, err := pp.Process(string(src))
	require.NoError(t, err)
	g.Assert(t, "small_variant_off", []byte(off))
	assert.Len(t, pp.Declarations(), 1, "declarations inside dropped blocks are discarded")
	assert.Equal(t, 1, *pp.Declarations()[0].Group)
}

func TestFaceDepthShaderVariants(t *testing.T) {
	g := newGoldie(t)

	withAlpha, err := NewFaceDepthShader(material.FeatureAlphaFallOff)
	require.NoError(t, err)
	g.Assert(t, "face_depth_alpha_falloff", []byte(withAlpha.Source()))
	assert.Equal(t, "face_depth[alpha_falloff]", withAlpha.Key())

	opaque, err := NewFaceDepthShader()
	require.NoError(t, err)
	g.Assert(t, "face_depth_opaque", []byte(opaque.Source()))
	assert.Equal(t, material.PipelineKeyFaceDepth, opaque.Key())
	assert.NotContains(t, opaque.Source(), "alpha_falloff_range.x")
}

func TestFaceDepthShaderLayouts(t *testing.T) {
	s, err := NewFaceDepthShader(material.FeatureAlphaFallOff, material.FeatureAlphaFallOff)
	require.NoError(t, err)
	assert.Equal(t, []string{material.FeatureAlphaFallOff}, s.Features())

	require.Len(t, s.VertexLayouts(), 1)
	assert.Equal(t, uint64(96), s.VertexLayouts()[0].ArrayStride)

	layouts := s.BindGroupLayoutDescriptors()
	require.Len(t, layouts, 2)

	mesh := s.BindGroupLayoutDescriptor(0)
	require.Len(t, mesh.Entries, 2)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, mesh.Entries[0].Buffer.Type)
	assert.Equal(t, uint64(272), mesh.Entries[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, mesh.Entries[1].Buffer.Type)

	mat := s.BindGroupLayoutDescriptor(1)
	require.Len(t, mat.Entries, 4)
	assert.Equal(t, uint64(32), mat.Entries[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, mat.Entries[1].Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, mat.Entries[2].Sampler.Type)
	assert.Equal(t, uint32(3), mat.Entries[3].Binding)

	group, binding, ok := s.Binding(AnnotationArgMaskTexture)
	require.True(t, ok)
	assert.Equal(t, 1, group)
	assert.Equal(t, material.MaskBinding, binding)

	_, _, ok = s.Binding("unknown")
	assert.False(t, ok)

	require.NotNil(t, s.Module())
	assert.Equal(t, s.Source(), s.Module().WGSLDescriptor.Code)
}

func TestProcessErrors(t *testing.T) {
	cases := map[string]string{
		"unknown type":      "//@oxy:frobnicate",
		"empty":             "//@oxy:",
		"unknown include":   "//@oxy:include camera",
		"bad group number":  "//@oxy:group x 0 storage_uniform p face_depth_params",
		"bad address space": "//@oxy:group 0 0 storage_write p face_depth_params",
		"bad provider":      "//@oxy:provider 0 0 lights bones",
		"bad role":          "//@oxy:provider 0 0 mesh diffuse_texture",
		"unclosed if":       "//@oxy:if alpha_falloff\nconst a = 1.0;",
		"stray endif":       "//@oxy:endif",
		"stray else":        "//@oxy:else",
		"if without name":   "//@oxy:if",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewPreProcessor().Process(src)
			assert.Error(t, err)
		})
	}
}

func TestProcessIgnoresPlainComments(t *testing.T) {
	out, err := NewPreProcessor().Process("// plain comment\nconst b = 2.0;")
	require.NoError(t, err)
	assert.Equal(t, "// plain comment\nconst b = 2.0;", out)
}

func TestNestedVariantBlocks(t *testing.T) {
	src := "//@oxy:if a\nA\n//@oxy:if b\nB\n//@oxy:else\nNB\n//@oxy:endif\n//@oxy:endif\nZ"
	pp := NewPreProcessor()

	out, err := pp.Process(src, "a")
	require.NoError(t, err)
	assert.Equal(t, "A\nNB\nZ", out)

	out, err = pp.Process(src, "b")
	require.NoError(t, err)
	assert.Equal(t, "Z", out)

	out, err = pp.Process(src, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "A\nB\nZ", out)
}
