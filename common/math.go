package common

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Smoothstep performs Hermite interpolation between edge0 and edge1.
// Reversed edges (edge0 > edge1) produce a falling curve instead of a rising one,
// which the depth falloff laws rely on.
//
// Parameters:
//   - edge0: the value of x at which the result is 0
//   - edge1: the value of x at which the result is 1
//   - x: the input value
//
// Returns:
//   - float32: the interpolated value in [0, 1]
func Smoothstep(edge0, edge1, x float32) float32 {
	if edge0 == edge1 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := mgl32.Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

// DecodeDepth converts an 8-bit encoded depth sample to the signed range [-1, 1].
//
// Parameters:
//   - a: the encoded depth byte (alpha channel of the depth/color buffer)
//
// Returns:
//   - float32: the decoded depth
func DecodeDepth(a byte) float32 {
	return 2*float32(a)/255 - 1
}

// RotationYZX builds a rotation matrix from Euler angles applied in Y, Z, X order.
// The result is Ry * Rz * Rx, matching bones authored with a yaw-roll-pitch convention.
//
// Parameters:
//   - x, y, z: rotation angles in radians around each axis
//
// Returns:
//   - mgl32.Mat4: the column-major rotation matrix
func RotationYZX(x, y, z float32) mgl32.Mat4 {
	return mgl32.HomogRotate3DY(y).Mul4(mgl32.HomogRotate3DZ(z)).Mul4(mgl32.HomogRotate3DX(x))
}

// ComposeTRS builds a local transform matrix from position, rotation, and scale.
// The result is T * R * S.
//
// Parameters:
//   - position: translation
//   - rotation: orientation quaternion
//   - scale: per-axis scale factors
//
// Returns:
//   - mgl32.Mat4: the column-major transform matrix
func ComposeTRS(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) mgl32.Mat4 {
	t := mgl32.Translate3D(position.X(), position.Y(), position.Z())
	s := mgl32.Scale3D(scale.X(), scale.Y(), scale.Z())
	return t.Mul4(rotation.Normalize().Mat4()).Mul4(s)
}

// Float32sToBytes writes a float32 slice into a freshly allocated little-endian byte buffer.
//
// Parameters:
//   - values: the values to serialize
//
// Returns:
//   - []byte: 4*len(values) bytes ready for GPU upload
func Float32sToBytes(values []float32) []byte {
	buf := make([]byte, 0, len(values)*4)
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}
