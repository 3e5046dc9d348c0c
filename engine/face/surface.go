package face

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-facedepth/engine/model"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/depth_texture"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/scene"
)

// SurfaceMeshName names the generated face mesh in the host scene.
const SurfaceMeshName = "3D Face - generated by oxy-facedepth"

// SurfaceRenderOrder draws the face after the avatar's other blended meshes, such as a visor.
const SurfaceRenderOrder = 1

// Surface is the generated face: a unit plane grid with one vertex per depth texel, displaced and shaded
// by the face depth material. The mesh starts hidden; the detection state machine shows it.
type Surface struct {
	mesh       scene.Mesh
	geometry   *model.Geometry
	material   material.DepthMaterial
	texture    depth_texture.DepthTexture
	resolution int
}

// BuildSurface creates the face grid, its depth texture and its material.
//
// Parameters:
//   - resolution: the grid subdivisions per side, equal to the depth buffer resolution
//   - mask: the opacity mask, or nil for a fully opaque one
//   - params: the shader parameters; Resolution is overwritten with resolution
//
// Returns:
//   - *Surface: the unskinned, hidden surface
//   - error: ErrInvalidConfig for a non-positive resolution
func BuildSurface(resolution int, mask *material.MaskTexture, params material.DepthParams) (*Surface, error) {
	if resolution <= 0 {
		return nil, fmt.Errorf("%w: surface resolution must be positive, got %d", ErrInvalidConfig, resolution)
	}
	params.Resolution = resolution

	geom := model.NewPlaneGeometry(1, 1, resolution, resolution)
	tex := depth_texture.NewDepthTexture(resolution)
	mat := material.NewDepthMaterial(params, mask, material.WithName("face depth surface"), material.WithRenderOrder(SurfaceRenderOrder))
	mat.SetDepthTexture(tex)

	mesh := scene.NewMesh(SurfaceMeshName, geom, mat, scene.WithVisible(false))
	mesh.SetFrustumCulled(false)

	return &Surface{
		mesh:       mesh,
		geometry:   geom,
		material:   mat,
		texture:    tex,
		resolution: resolution,
	}, nil
}

func (s *Surface) Mesh() scene.Mesh {
	return s.mesh
}

func (s *Surface) Geometry() *model.Geometry {
	return s.geometry
}

func (s *Surface) Material() material.DepthMaterial {
	return s.material
}

func (s *Surface) Texture() depth_texture.DepthTexture {
	return s.texture
}

func (s *Surface) Resolution() int {
	return s.resolution
}

// Skinned reports whether the surface has been transplanted onto a skeleton.
func (s *Surface) Skinned() bool {
	return s.mesh.Skinned()
}

// Update stages a new depth buffer for upload on the next render.
//
// Parameters:
//   - buf: RGBA bytes with depth in A
//   - resolution: the buffer resolution, which must equal Resolution
//
// Returns:
//   - error: depth_texture.ErrResolutionMismatch or depth_texture.ErrBufferSize
func (s *Surface) Update(buf []byte, resolution int) error {
	return s.texture.Update(buf, resolution)
}
