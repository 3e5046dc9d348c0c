package scene

import (
	"github.com/Carmen-Shannon/oxy-facedepth/common"
	"github.com/go-gl/mathgl/mgl32"
)

// node is the implementation of the Node interface.
type node struct {
	// self is the outermost value wrapping this node (a Mesh embeds a node), so traversal and parent links hand out the full type.
	self Node

	name     string
	parent   Node
	children []Node
	visible  bool

	position mgl32.Vec3
	rotation mgl32.Quat
	scale    mgl32.Vec3

	matrix           mgl32.Mat4
	matrixWorld      mgl32.Mat4
	matrixAutoUpdate bool
}

// Node is a named element of the host scene graph with a local transform and a cached world transform.
// Bones, meshes, and grouping nodes are all Nodes.
//
// When MatrixAutoUpdate is true the local matrix is recomposed from position, rotation, and scale on every
// UpdateMatrixWorld pass. When it is false the local matrix is left as last written, which lets a single
// owner override it for a frame.
type Node interface {
	// Name returns the node's identifier.
	Name() string

	// SetName sets the node's identifier.
	SetName(name string)

	// Parent returns the parent node, or nil for a root.
	Parent() Node

	// Children returns a copy of the child list.
	Children() []Node

	// Add attaches a child, detaching it from its previous parent first.
	//
	// Parameters:
	//   - child: the node to attach
	Add(child Node)

	// Remove detaches a direct child. Unknown children are ignored.
	//
	// Parameters:
	//   - child: the node to detach
	Remove(child Node)

	// Visible reports whether the node and its subtree are drawn.
	Visible() bool

	// SetVisible shows or hides the node and its subtree.
	SetVisible(visible bool)

	Position() mgl32.Vec3
	SetPosition(p mgl32.Vec3)
	Rotation() mgl32.Quat
	SetRotation(q mgl32.Quat)
	Scale() mgl32.Vec3
	SetScale(s mgl32.Vec3)

	// RotateX rotates the node about its local X axis by the given angle in radians.
	//
	// Parameters:
	//   - angle: the rotation in radians
	RotateX(angle float32)

	// Matrix returns the local transform matrix.
	Matrix() mgl32.Mat4

	// SetMatrix overwrites the local transform matrix. Only meaningful while MatrixAutoUpdate is false.
	//
	// Parameters:
	//   - m: the new local matrix
	SetMatrix(m mgl32.Mat4)

	MatrixAutoUpdate() bool
	SetMatrixAutoUpdate(auto bool)

	// UpdateMatrix recomposes the local matrix from position, rotation, and scale.
	UpdateMatrix()

	// MatrixWorld returns the world transform computed by the last UpdateMatrixWorld pass.
	MatrixWorld() mgl32.Mat4

	// UpdateMatrixWorld recomputes the world matrix of this node and all descendants.
	// Nodes with MatrixAutoUpdate enabled recompose their local matrix first.
	UpdateMatrixWorld()

	// Traverse calls fn for this node and then every descendant, depth first.
	//
	// Parameters:
	//   - fn: the visitor
	Traverse(fn func(Node))

	base() *node
}

var _ Node = &node{}

// NewNode creates a new Node with an identity transform.
//
// Parameters:
//   - name: the node identifier
//   - options: functional options applied after defaults
//
// Returns:
//   - Node: the new node
func NewNode(name string, options ...NodeBuilderOption) Node {
	n := newNode(name)
	n.self = n
	for _, opt := range options {
		opt(n)
	}
	return n
}

func newNode(name string) *node {
	return &node{
		name:             name,
		visible:          true,
		rotation:         mgl32.QuatIdent(),
		scale:            mgl32.Vec3{1, 1, 1},
		matrix:           mgl32.Ident4(),
		matrixWorld:      mgl32.Ident4(),
		matrixAutoUpdate: true,
	}
}

func (n *node) base() *node {
	return n
}

func (n *node) Name() string {
	return n.name
}

func (n *node) SetName(name string) {
	n.name = name
}

func (n *node) Parent() Node {
	return n.parent
}

func (n *node) Children() []Node {
	return append([]Node(nil), n.children...)
}

func (n *node) Add(child Node) {
	if child == nil || child == n.self {
		return
	}
	if p := child.Parent(); p != nil {
		p.Remove(child)
	}
	child.base().parent = n.self
	n.children = append(n.children, child)
}

func (n *node) Remove(child Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.base().parent = nil
			return
		}
	}
}

func (n *node) Visible() bool {
	return n.visible
}

func (n *node) SetVisible(visible bool) {
	n.visible = visible
}

func (n *node) Position() mgl32.Vec3 {
	return n.position
}

func (n *node) SetPosition(p mgl32.Vec3) {
	n.position = p
}

func (n *node) Rotation() mgl32.Quat {
	return n.rotation
}

func (n *node) SetRotation(q mgl32.Quat) {
	n.rotation = q
}

func (n *node) Scale() mgl32.Vec3 {
	return n.scale
}

func (n *node) SetScale(s mgl32.Vec3) {
	n.scale = s
}

func (n *node) RotateX(angle float32) {
	n.rotation = n.rotation.Mul(mgl32.QuatRotate(angle, mgl32.Vec3{1, 0, 0})).Normalize()
}

func (n *node) Matrix() mgl32.Mat4 {
	return n.matrix
}

func (n *node) SetMatrix(m mgl32.Mat4) {
	n.matrix = m
}

func (n *node) MatrixAutoUpdate() bool {
	return n.matrixAutoUpdate
}

func (n *node) SetMatrixAutoUpdate(auto bool) {
	n.matrixAutoUpdate = auto
}

func (n *node) UpdateMatrix() {
	n.matrix = common.ComposeTRS(n.position, n.rotation, n.scale)
}

func (n *node) MatrixWorld() mgl32.Mat4 {
	return n.matrixWorld
}

func (n *node) UpdateMatrixWorld() {
	if n.matrixAutoUpdate {
		n.UpdateMatrix()
	}
	if n.parent == nil {
		n.matrixWorld = n.matrix
	} else {
		n.matrixWorld = n.parent.MatrixWorld().Mul4(n.matrix)
	}
	for _, c := range n.children {
		c.UpdateMatrixWorld()
	}
}

func (n *node) Traverse(fn func(Node)) {
	fn(n.self)
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

// FindByName returns the first node in depth-first order whose name matches, or nil.
//
// Parameters:
//   - root: the subtree to search
//   - name: the name to match
//
// Returns:
//   - Node: the matching node, or nil if none is found
func FindByName(root Node, name string) Node {
	if root == nil {
		return nil
	}
	var found Node
	root.Traverse(func(n Node) {
		if found == nil && n.Name() == name {
			found = n
		}
	})
	return found
}

// PrecomputeMatrices forces a world matrix pass over the subtree so bind poses read before the first
// rendered frame see final transforms.
//
// Parameters:
//   - root: the subtree to update
func PrecomputeMatrices(root Node) {
	if root == nil {
		return
	}
	root.UpdateMatrixWorld()
}

// DisableFrustumCulling turns off frustum culling on every mesh in the subtree.
//
// Parameters:
//   - root: the subtree to update
func DisableFrustumCulling(root Node) {
	if root == nil {
		return
	}
	root.Traverse(func(n Node) {
		if m, ok := n.(Mesh); ok {
			m.SetFrustumCulled(false)
		}
	})
}
