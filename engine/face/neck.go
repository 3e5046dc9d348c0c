package face

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-facedepth/common"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// NeckFilter smooths the tracked head rotation and overrides the neck bone's local matrix with it.
//
// The filter is the only writer of the bone's MatrixAutoUpdate flag. While active the bone's auto update is
// off and Apply recomposes the animated local transform and right-multiplies the smoothed rotation, in the
// bone's YZX Euler order. While inactive the smoothed angles are frozen, so reactivation resumes from them.
type NeckFilter struct {
	bone    scene.Node
	k       float32
	factors mgl32.Vec3

	euler  mgl32.Vec3
	active bool

	frame     uint64
	appliedIn uint64
	applied   bool
}

// NewNeckFilter creates an inactive filter for bone.
//
// Parameters:
//   - bone: the neck bone
//   - k: the amortization factor in [0,1); higher is smoother
//   - factors: the per-axis gain applied to the raw angles
//
// Returns:
//   - *NeckFilter: the filter
//   - error: ErrInvalidConfig for a nil bone or k outside [0,1)
func NewNeckFilter(bone scene.Node, k float32, factors mgl32.Vec3) (*NeckFilter, error) {
	if bone == nil {
		return nil, fmt.Errorf("%w: neck filter needs a bone", ErrInvalidConfig)
	}
	if k < 0 || k >= 1 {
		return nil, fmt.Errorf("%w: neck amortization factor must be in [0,1), got %v", ErrInvalidConfig, k)
	}
	return &NeckFilter{bone: bone, k: k, factors: factors}, nil
}

func (n *NeckFilter) Bone() scene.Node {
	return n.bone
}

// Euler returns the smoothed rotation (x pitch, y yaw, z roll) in radians.
func (n *NeckFilter) Euler() mgl32.Vec3 {
	return n.euler
}

func (n *NeckFilter) Active() bool {
	return n.active
}

// SetActive hands the bone to the filter (true) or back to its animation (false).
//
// Parameters:
//   - active: whether the override runs
func (n *NeckFilter) SetActive(active bool) {
	n.active = active
	n.bone.SetMatrixAutoUpdate(!active)
}

// Update folds one frame of raw head angles into the smoothed rotation. Ignored while inactive.
//
// Parameters:
//   - rx, ry, rz: the raw angles in radians
func (n *NeckFilter) Update(rx, ry, rz float32) {
	if !n.active {
		return
	}
	raw := mgl32.Vec3{rx * n.factors[0], ry * n.factors[1], rz * n.factors[2]}
	for i := range n.euler {
		n.euler[i] = n.euler[i]*n.k + raw[i]*(1-n.k)
	}
}

// BeginFrame opens a new frame. Apply runs at most once between two BeginFrame calls.
func (n *NeckFilter) BeginFrame() {
	n.frame++
}

// Apply overrides the bone's local matrix for the current frame. It must run after the body animation
// wrote the bone's position, rotation and scale and before the world matrix pass.
//
// Returns:
//   - bool: false when inactive or when the override already ran this frame
func (n *NeckFilter) Apply() bool {
	if !n.active {
		return false
	}
	if n.applied && n.appliedIn == n.frame {
		return false
	}
	n.bone.UpdateMatrix()
	n.bone.SetMatrix(n.bone.Matrix().Mul4(common.RotationYZX(n.euler[0], n.euler[1], n.euler[2])))
	n.applied = true
	n.appliedIn = n.frame
	return true
}
