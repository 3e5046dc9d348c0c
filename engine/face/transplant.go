package face

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-facedepth/engine/model"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/scene"
)

// AttachSkin makes the surface follow the donor's skeleton. A nil or unskinned donor leaves the surface unchanged.
//
// For a skinned donor the plain mesh is replaced by a skinned mesh sharing geometry and material. Every grid
// vertex receives the bone indices and weights of the donor's first vertex, so the patch moves rigidly with
// the donor's reference bone. The new mesh gets its own skeleton container over the donor's bones, bound at
// its own identity world matrix, and then takes the donor's bind matrix. SetPose later rewrites that bind
// matrix to place the patch. The replacement takes over the plain mesh's parent and visibility.
//
// Parameters:
//   - donor: the template face mesh, or nil
//   - s: the surface to transplant
//
// Returns:
//   - error: ErrEmptyDonor if the donor has no vertices or no skeleton
func AttachSkin(donor scene.Mesh, s *Surface) error {
	if donor == nil || !donor.Skinned() || s.mesh.Skinned() {
		return nil
	}
	skel := donor.Skeleton()
	if skel == nil {
		return fmt.Errorf("%w: %s has no skeleton", ErrEmptyDonor, donor.Name())
	}
	if err := model.CopySkinAttributes(donor.Geometry(), s.geometry); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrEmptyDonor, donor.Name(), err)
	}

	old := s.mesh
	skinned := scene.NewSkinnedMesh(SurfaceMeshName, s.geometry, s.material, scene.WithVisible(old.Visible()))
	skinned.SetFrustumCulled(false)
	skinned.Bind(scene.NewSkeleton(skel.Bones(), skel.BoneInverses()), skinned.MatrixWorld())
	skinned.SetBindMatrix(donor.BindMatrix())

	if parent := old.Parent(); parent != nil {
		parent.Remove(old)
		parent.Add(skinned)
	}
	s.mesh = skinned
	return nil
}
