// Package robot builds the procedural demo avatar: a bone chain with flat colored panels and a skinned
// face panel the face depth surface replaces.
package robot

import (
	"math"

	"github.com/Carmen-Shannon/oxy-facedepth/engine/model"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/depth_texture"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// FaceMeshName names the skinned face panel.
	FaceMeshName = "robotFace"
	// VisorName names the panel hidden while a face is tracked.
	VisorName = "robotVisor"
	// NeckBoneName names the bone the neck override drives.
	NeckBoneName = "Neck"
	// HeadBoneName names the bone the face panel is skinned to.
	HeadBoneName = "Head"
	// FaceSize is the edge length of the face panel, and the face scale that makes a unit surface cover it.
	FaceSize = 0.3
)

// FacePosition is where the face panel sits in the avatar root's space.
var FacePosition = mgl32.Vec3{0, 1.9, 0.02}

// Avatar is the demo character.
type Avatar struct {
	Root  scene.Node
	Hips  scene.Node
	Spine scene.Node
	Neck  scene.Node
	Head  scene.Node

	Face   scene.Mesh
	Visor  scene.Mesh
	Panels []scene.Mesh

	elapsed float32
}

// New builds the avatar with world matrices and the face skeleton computed.
//
// Returns:
//   - *Avatar: the avatar, rooted at a node named "robot"
func New() *Avatar {
	a := &Avatar{
		Root:  scene.NewNode("robot"),
		Hips:  scene.NewNode("Hips", scene.WithPosition(mgl32.Vec3{0, 1, 0})),
		Spine: scene.NewNode("Spine", scene.WithPosition(mgl32.Vec3{0, 0.3, 0})),
		Neck:  scene.NewNode(NeckBoneName, scene.WithPosition(mgl32.Vec3{0, 0.35, 0})),
		Head:  scene.NewNode(HeadBoneName, scene.WithPosition(mgl32.Vec3{0, 0.15, 0})),
	}
	a.Root.Add(a.Hips)
	a.Hips.Add(a.Spine)
	a.Spine.Add(a.Neck)
	a.Neck.Add(a.Head)

	a.Panels = []scene.Mesh{
		panel("robotTorso", a.Spine, 0.5, 0.6, mgl32.Vec3{0, 0.05, 0}, [3]byte{90, 96, 110}),
		panel("robotPelvis", a.Hips, 0.4, 0.2, mgl32.Vec3{0, -0.05, 0}, [3]byte{70, 74, 86}),
		panel("robotSkull", a.Head, 0.36, 0.4, mgl32.Vec3{0, 0.1, -0.01}, [3]byte{150, 156, 170}),
	}
	a.Visor = panel(VisorName, a.Head, 0.28, 0.08, mgl32.Vec3{0, 0.16, 0.03}, [3]byte{20, 200, 230})
	a.Panels = append(a.Panels, a.Visor)

	scene.PrecomputeMatrices(a.Root)

	bones := []scene.Node{a.Hips, a.Spine, a.Neck, a.Head}
	geom := model.NewPlaneGeometry(0.26, FaceSize, 4, 4)
	geom.SetUniformSkin([4]uint32{3, 0, 0, 0}, [4]float32{1, 0, 0, 0})
	a.Face = scene.NewSkinnedMesh(FaceMeshName, geom, flatMaterial(FaceMeshName, [3]byte{200, 170, 150}),
		scene.WithPosition(FacePosition))
	a.Root.Add(a.Face)
	scene.PrecomputeMatrices(a.Root)
	a.Face.Bind(scene.NewSkeleton(bones, nil), a.Face.MatrixWorld())
	scene.DisableFrustumCulling(a.Root)
	return a
}

// Animate advances the idle animation: a slow torso sway and a small head nod written to the bones'
// local transforms. The neck override, when active, composes on top of the nod.
//
// Parameters:
//   - dt: seconds since the previous frame
func (a *Avatar) Animate(dt float32) {
	a.elapsed += dt
	t := float64(a.elapsed)
	a.Spine.SetRotation(mgl32.QuatRotate(float32(0.05*math.Sin(t*0.8)), mgl32.Vec3{0, 0, 1}))
	a.Neck.SetRotation(mgl32.QuatRotate(float32(0.04*math.Sin(t*1.3)), mgl32.Vec3{1, 0, 0}))
}

// Elapsed returns the animation clock in seconds.
func (a *Avatar) Elapsed() float32 {
	return a.elapsed
}

func panel(name string, parent scene.Node, w, h float32, pos mgl32.Vec3, rgb [3]byte) scene.Mesh {
	m := scene.NewMesh(name, model.NewPlaneGeometry(w, h, 1, 1), flatMaterial(name, rgb), scene.WithPosition(pos))
	parent.Add(m)
	return m
}

// flatMaterial is a face depth material over a constant 2x2 texture with zero displacement, which the
// face depth pipeline draws as a flat colored panel.
func flatMaterial(name string, rgb [3]byte) material.DepthMaterial {
	const res = 2
	pix := make([]byte, res*res*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = rgb[0], rgb[1], rgb[2], 255
	}
	mat := material.NewDepthMaterial(material.DepthParams{Resolution: res}, nil, material.WithName(name))
	mat.SetDepthTexture(depth_texture.NewDepthTexture(res, depth_texture.WithInitialPixels(pix)))
	return mat
}
