package face

import "github.com/Carmen-Shannon/oxy-facedepth/engine/scene"

// DetectionState is the face presence state driving surface visibility.
type DetectionState int

const (
	StateNoFace DetectionState = iota
	StateFaceDetected
)

func (s DetectionState) String() string {
	switch s {
	case StateNoFace:
		return "no_face"
	case StateFaceDetected:
		return "face_detected"
	}
	return "unknown"
}

// DetectionMachine swaps the donor meshes and the generated surface on detection edges.
// Entering StateFaceDetected hides the donor and auxiliary meshes, shows the surface, and activates the neck
// override. Leaving it reverses all three. Repeated inputs write nothing.
type DetectionMachine struct {
	state   DetectionState
	surface scene.Mesh
	hide    []scene.Node
	neck    *NeckFilter

	writes int
}

// NewDetectionMachine creates a machine in StateNoFace with nothing bound.
//
// Returns:
//   - *DetectionMachine: the machine
func NewDetectionMachine() *DetectionMachine {
	return &DetectionMachine{state: StateNoFace}
}

// Bind sets the nodes the machine drives and writes the visibilities of the current state onto them.
// Called when the surface is built and again when insertion replaces it.
//
// Parameters:
//   - surface: the generated face mesh
//   - hide: the donor and auxiliary meshes hidden while a face is detected
//   - neck: the neck override, or nil
func (m *DetectionMachine) Bind(surface scene.Mesh, hide []scene.Node, neck *NeckFilter) {
	m.surface = surface
	m.hide = append([]scene.Node(nil), hide...)
	m.neck = neck
	m.write(m.state == StateFaceDetected)
}

func (m *DetectionMachine) State() DetectionState {
	return m.state
}

// VisibilityWrites counts the visibility and bone auto-update writes made so far.
func (m *DetectionMachine) VisibilityWrites() int {
	return m.writes
}

// Apply feeds one frame's detection flag.
//
// Parameters:
//   - detected: whether the frame holds a face
//
// Returns:
//   - bool: true when the state changed
func (m *DetectionMachine) Apply(detected bool) bool {
	next := StateNoFace
	if detected {
		next = StateFaceDetected
	}
	if next == m.state {
		return false
	}
	m.state = next
	m.write(detected)
	return true
}

// Reset forces StateNoFace, restoring the donor and hiding the surface.
func (m *DetectionMachine) Reset() {
	if m.state == StateNoFace {
		return
	}
	m.state = StateNoFace
	m.write(false)
}

func (m *DetectionMachine) write(face bool) {
	for _, n := range m.hide {
		n.SetVisible(!face)
		m.writes++
	}
	if m.surface != nil {
		m.surface.SetVisible(face)
		m.writes++
	}
	if m.neck != nil {
		m.neck.SetActive(face)
		m.writes++
	}
}
