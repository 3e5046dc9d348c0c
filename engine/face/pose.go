package face

import (
	"math"

	"github.com/Carmen-Shannon/oxy-facedepth/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// SetPose calibrates the surface against the donor. Run once at insertion.
//
// A skinned mesh carries the calibration in its bind matrix, Translate(offset) * Scale(s) * RotX(rx),
// because the skeleton drives it afterwards. The bind matrix inverse fixed at Bind is left alone. An unskinned mesh gets scale s, position offset, and an
// extra rotation of rx + 90 degrees about X, which turns the plane from facing +Z to the face-forward convention.
//
// Parameters:
//   - mesh: the surface mesh
//   - scale: the uniform scale
//   - offset: the translation
//   - rx: the rotation about X in radians
func SetPose(mesh scene.Mesh, scale float32, offset mgl32.Vec3, rx float32) {
	if mesh.Skinned() {
		bind := mgl32.Translate3D(offset[0], offset[1], offset[2]).
			Mul4(mgl32.Scale3D(scale, scale, scale)).
			Mul4(mgl32.HomogRotate3DX(rx))
		mesh.SetBindMatrix(bind)
		return
	}
	mesh.SetScale(mgl32.Vec3{scale, scale, scale})
	mesh.SetPosition(offset)
	mesh.RotateX(rx + math.Pi/2)
}
