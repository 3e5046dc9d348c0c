package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BufferWrite stages bytes for the buffer at a provider binding. Mesh uniforms, the bone palette and the
// depth material parameters are uploaded this way once per frame.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// Target resolves the destination buffer. It is nil when the provider is missing, the binding holds no
// buffer, or there is nothing to write.
//
// Returns:
//   - *wgpu.Buffer: the buffer to write, or nil to skip
func (w BufferWrite) Target() *wgpu.Buffer {
	if w.Provider == nil || len(w.Data) == 0 {
		return nil
	}
	return w.Provider.Buffer(w.Binding)
}
