package scene

import "github.com/go-gl/mathgl/mgl32"

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithView sets the initial camera placement.
//
// Parameters:
//   - eye: the camera position
//   - target: the point looked at
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithView(eye, target mgl32.Vec3) SceneBuilderOption {
	return func(s *scene) {
		s.eye = eye
		s.target = target
	}
}

// WithPerspective sets the projection.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPerspective(fovY, near, far float32) SceneBuilderOption {
	return func(s *scene) {
		s.fovY = fovY
		s.near = near
		s.far = far
	}
}

// WithAspect sets the initial aspect ratio. Resize overrides it.
//
// Parameters:
//   - aspect: width divided by height
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithAspect(aspect float32) SceneBuilderOption {
	return func(s *scene) {
		if aspect > 0 {
			s.aspect = aspect
		}
	}
}

// WithSkinningWorkers sets the number of worker goroutines used to update skinning palettes when a frame
// has more than one skeleton. Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithSkinningWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.skinWorkers = n
	}
}

// WithNodes attaches initial nodes under the root.
//
// Parameters:
//   - nodes: the nodes to attach
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithNodes(nodes ...Node) SceneBuilderOption {
	return func(s *scene) {
		for _, n := range nodes {
			s.root.Add(n)
		}
	}
}
