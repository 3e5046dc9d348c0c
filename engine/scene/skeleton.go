package scene

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Skeleton is an ordered bone list plus the inverse bind matrices that relate each bone to the mesh's rest pose.
//
// Bones are shared by reference: two skeletons built from the same bone list observe the same animated
// transforms, while each keeps its own inverse matrices and computed bone palette. Only the node
// owning a bone's MatrixAutoUpdate flag may write it.
type Skeleton struct {
	bones        []Node
	boneInverses []mgl32.Mat4
	boneMatrices []mgl32.Mat4
}

// NewSkeleton creates a skeleton over the given bones.
// When boneInverses is nil or its length differs from the bone count, the inverses are computed from the
// bones' current world matrices, so callers should run PrecomputeMatrices first.
//
// Parameters:
//   - bones: the ordered bone list (shared, not copied)
//   - boneInverses: the inverse bind matrix per bone, or nil to derive them
//
// Returns:
//   - *Skeleton: the new skeleton
func NewSkeleton(bones []Node, boneInverses []mgl32.Mat4) *Skeleton {
	s := &Skeleton{
		bones:        append([]Node(nil), bones...),
		boneMatrices: make([]mgl32.Mat4, len(bones)),
	}
	if len(boneInverses) == len(bones) {
		s.boneInverses = append([]mgl32.Mat4(nil), boneInverses...)
	} else {
		s.CalculateInverses()
	}
	for i := range s.boneMatrices {
		s.boneMatrices[i] = mgl32.Ident4()
	}
	return s
}

// Bones returns the ordered bone list. The slice is a copy; the bones are shared.
//
// Returns:
//   - []Node: the bones
func (s *Skeleton) Bones() []Node {
	return append([]Node(nil), s.bones...)
}

// BoneInverses returns a copy of the inverse bind matrices.
//
// Returns:
//   - []mgl32.Mat4: the inverse bind matrix per bone
func (s *Skeleton) BoneInverses() []mgl32.Mat4 {
	return append([]mgl32.Mat4(nil), s.boneInverses...)
}

// BoneMatrices returns the skinning palette computed by the last Update.
//
// Returns:
//   - []mgl32.Mat4: boneWorld * boneInverse per bone
func (s *Skeleton) BoneMatrices() []mgl32.Mat4 {
	return s.boneMatrices
}

// BoneByName returns the first bone with the given name, or nil.
//
// Parameters:
//   - name: the bone name
//
// Returns:
//   - Node: the bone or nil
func (s *Skeleton) BoneByName(name string) Node {
	for _, b := range s.bones {
		if b.Name() == name {
			return b
		}
	}
	return nil
}

// CalculateInverses derives the inverse bind matrices from the bones' current world matrices.
func (s *Skeleton) CalculateInverses() {
	s.boneInverses = make([]mgl32.Mat4, len(s.bones))
	for i, b := range s.bones {
		s.boneInverses[i] = b.MatrixWorld().Inv()
	}
}

// Update recomputes the skinning palette from the bones' world matrices.
// Must run after the world matrix pass of the frame.
func (s *Skeleton) Update() {
	for i, b := range s.bones {
		s.boneMatrices[i] = b.MatrixWorld().Mul4(s.boneInverses[i])
	}
}

// Marshal serializes the skinning palette as consecutive column-major mat4x4<f32> values.
//
// Returns:
//   - []byte: 64 bytes per bone
func (s *Skeleton) Marshal() []byte {
	buf := make([]byte, len(s.boneMatrices)*64)
	for i, m := range s.boneMatrices {
		for j := 0; j < 16; j++ {
			binary.LittleEndian.PutUint32(buf[i*64+j*4:], math.Float32bits(m[j]))
		}
	}
	return buf
}
