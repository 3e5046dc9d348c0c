package model

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrEmptyGeometry is returned when an operation needs at least one vertex and the geometry has none.
var ErrEmptyGeometry = errors.New("geometry has no vertices")

// Geometry holds CPU-side mesh data in the skinned vertex layout together with its triangle indices.
// Unskinned meshes use the same layout with zero bone weights so a single vertex format serves every pipeline.
type Geometry struct {
	// Vertices are the mesh vertices, including bone skinning data.
	Vertices []GPUSkinnedVertex

	// Indices are the triangle indices (three per triangle).
	Indices []uint32

	// BoundingMin is the minimum corner of the axis-aligned bounding box.
	BoundingMin [3]float32

	// BoundingMax is the maximum corner of the axis-aligned bounding box.
	BoundingMax [3]float32

	// BoundingRadius is the bounding sphere radius around the local origin.
	BoundingRadius float32
}

// NewPlaneGeometry builds a planar grid in the XY plane centered on the origin, facing +Z.
// The grid has (widthSegments+1)*(heightSegments+1) vertices laid out row by row from the top edge (y = +height/2)
// down to the bottom edge, and two triangles per cell. UVs run from (0, 1) at the top-left to (1, 0) at the bottom-right.
//
// Parameters:
//   - width: extent along X
//   - height: extent along Y
//   - widthSegments: number of cells along X (clamped to at least 1)
//   - heightSegments: number of cells along Y (clamped to at least 1)
//
// Returns:
//   - *Geometry: the generated grid with bounds computed
func NewPlaneGeometry(width, height float32, widthSegments, heightSegments int) *Geometry {
	gridX := max(widthSegments, 1)
	gridY := max(heightSegments, 1)
	gridX1 := gridX + 1
	gridY1 := gridY + 1

	segW := width / float32(gridX)
	segH := height / float32(gridY)
	halfW := width / 2
	halfH := height / 2

	g := &Geometry{
		Vertices: make([]GPUSkinnedVertex, 0, gridX1*gridY1),
		Indices:  make([]uint32, 0, gridX*gridY*6),
	}

	for iy := 0; iy < gridY1; iy++ {
		y := float32(iy)*segH - halfH
		for ix := 0; ix < gridX1; ix++ {
			x := float32(ix)*segW - halfW
			g.Vertices = append(g.Vertices, GPUSkinnedVertex{
				GPUVertex: GPUVertex{
					Position: [3]float32{x, -y, 0},
					Normal:   [3]float32{0, 0, 1},
					TexCoord: [2]float32{float32(ix) / float32(gridX), 1 - float32(iy)/float32(gridY)},
					Color:    [4]float32{1, 1, 1, 1},
					Tangent:  [4]float32{1, 0, 0, 1},
				},
			})
		}
	}

	for iy := 0; iy < gridY; iy++ {
		for ix := 0; ix < gridX; ix++ {
			a := uint32(ix + gridX1*iy)
			b := uint32(ix + gridX1*(iy+1))
			c := uint32(ix + 1 + gridX1*(iy+1))
			d := uint32(ix + 1 + gridX1*iy)
			g.Indices = append(g.Indices, a, b, d, b, c, d)
		}
	}

	g.ComputeBounds()
	return g
}

// ComputeBounds recomputes the axis-aligned bounding box and bounding radius from the current vertex positions.
func (g *Geometry) ComputeBounds() {
	if len(g.Vertices) == 0 {
		g.BoundingMin, g.BoundingMax, g.BoundingRadius = [3]float32{}, [3]float32{}, 0
		return
	}
	lo := [3]float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	hi := [3]float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for _, v := range g.Vertices {
		for i := 0; i < 3; i++ {
			lo[i] = min(lo[i], v.Position[i])
			hi[i] = max(hi[i], v.Position[i])
		}
	}
	g.BoundingMin, g.BoundingMax = lo, hi
	g.BoundingRadius = ComputeBoundingRadius(g.Vertices)
}

// VertexCount returns the number of vertices in the geometry.
//
// Returns:
//   - int: the vertex count
func (g *Geometry) VertexCount() int {
	return len(g.Vertices)
}

// Clone returns a deep copy of the geometry so skinning attributes can diverge from the source.
//
// Returns:
//   - *Geometry: the copy
func (g *Geometry) Clone() *Geometry {
	out := *g
	out.Vertices = append([]GPUSkinnedVertex(nil), g.Vertices...)
	out.Indices = append([]uint32(nil), g.Indices...)
	return &out
}

// SetUniformSkin writes the same bone indices and weights to every vertex, binding the whole mesh rigidly
// to one bone combination.
//
// Parameters:
//   - indices: the bone indices to assign
//   - weights: the bone weights to assign
func (g *Geometry) SetUniformSkin(indices [4]uint32, weights [4]float32) {
	for i := range g.Vertices {
		g.Vertices[i].BoneIndices = indices
		g.Vertices[i].BoneWeights = weights
	}
}

// VertexData serializes every vertex into a tightly packed byte buffer for GPU upload.
//
// Returns:
//   - []byte: 96 bytes per vertex
func (g *Geometry) VertexData() []byte {
	buf := make([]byte, len(g.Vertices)*96)
	for i := range g.Vertices {
		g.Vertices[i].marshalInto(buf[i*96 : (i+1)*96])
	}
	return buf
}

// IndexData serializes the index list as little-endian uint32 values.
//
// Returns:
//   - []byte: 4 bytes per index
func (g *Geometry) IndexData() []byte {
	buf := make([]byte, len(g.Indices)*4)
	for i, idx := range g.Indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}

// CopySkinAttributes replicates the bone indices and weights of the first source vertex onto every destination vertex.
// The destination is rigidly bound to the same bone combination as the source's reference vertex.
//
// Parameters:
//   - src: the donor geometry whose first vertex provides the skinning attributes
//   - dst: the geometry receiving the attributes
//
// Returns:
//   - error: ErrEmptyGeometry if the source has no vertices, nil otherwise
func CopySkinAttributes(src, dst *Geometry) error {
	if src == nil || len(src.Vertices) == 0 {
		return fmt.Errorf("copy skin attributes: source: %w", ErrEmptyGeometry)
	}
	if dst == nil {
		return fmt.Errorf("copy skin attributes: destination is nil")
	}
	ref := src.Vertices[0]
	dst.SetUniformSkin(ref.BoneIndices, ref.BoneWeights)
	return nil
}
