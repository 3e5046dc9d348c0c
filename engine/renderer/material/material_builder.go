package material

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName sets the material name used in GPU resource labels.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: option function to apply
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithTransparent marks the material as alpha blended.
//
// Parameters:
//   - transparent: whether the material is drawn with alpha blending
//
// Returns:
//   - MaterialBuilderOption: option function to apply
func WithTransparent(transparent bool) MaterialBuilderOption {
	return func(m *material) {
		m.transparent = transparent
	}
}

// WithRenderOrder sets the explicit draw order.
//
// Parameters:
//   - order: lower values draw first within the opaque or blended group
//
// Returns:
//   - MaterialBuilderOption: option function to apply
func WithRenderOrder(order int) MaterialBuilderOption {
	return func(m *material) {
		m.renderOrder = order
	}
}
