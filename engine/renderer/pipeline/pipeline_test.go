package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("unlit")
	assert.Equal(t, "unlit", p.PipelineKey())
	assert.True(t, p.DepthTestEnabled())
	assert.True(t, p.DepthWriteEnabled())
	assert.False(t, p.BlendEnabled())
	assert.Nil(t, p.BlendState())
	assert.Equal(t, wgpu.CullModeNone, p.CullMode())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, p.Topology())
	assert.Nil(t, p.RenderPipeline())
	assert.Nil(t, p.BindGroupLayout(0))
}

func TestFaceDepthPipelineConfiguration(t *testing.T) {
	mat := material.NewDepthMaterial(material.DefaultDepthParams(), material.OpaqueMask(2))
	s, err := shader.NewFaceDepthShader(mat.Features()...)
	require.NoError(t, err)

	p := NewPipeline(s.Key(),
		WithShader(s),
		WithBlendState(mat.BlendState()),
		WithDepthWriteEnabled(false),
	)
	assert.Equal(t, s, p.Shader())
	assert.True(t, p.BlendEnabled())
	require.NotNil(t, p.BlendState())
	assert.Equal(t, wgpu.BlendFactorSrcAlpha, p.BlendState().Color.SrcFactor)
	assert.False(t, p.DepthWriteEnabled())
	assert.NotPanics(t, p.Release)
}
