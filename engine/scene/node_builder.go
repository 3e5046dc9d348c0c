package scene

import "github.com/go-gl/mathgl/mgl32"

// NodeBuilderOption is a functional option for configuring a Node or Mesh during construction.
type NodeBuilderOption func(*node)

// WithPosition sets the initial local position.
//
// Parameters:
//   - p: the position
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithPosition(p mgl32.Vec3) NodeBuilderOption {
	return func(n *node) {
		n.position = p
	}
}

// WithRotation sets the initial local rotation.
//
// Parameters:
//   - q: the orientation quaternion
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithRotation(q mgl32.Quat) NodeBuilderOption {
	return func(n *node) {
		n.rotation = q
	}
}

// WithScale sets the initial local scale.
//
// Parameters:
//   - s: the per-axis scale
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithScale(s mgl32.Vec3) NodeBuilderOption {
	return func(n *node) {
		n.scale = s
	}
}

// WithVisible sets the initial visibility.
//
// Parameters:
//   - visible: whether the node is drawn
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithVisible(visible bool) NodeBuilderOption {
	return func(n *node) {
		n.visible = visible
	}
}

// WithChildren attaches the given children to the node.
//
// Parameters:
//   - children: the nodes to attach
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithChildren(children ...Node) NodeBuilderOption {
	return func(n *node) {
		for _, c := range children {
			n.Add(c)
		}
	}
}
