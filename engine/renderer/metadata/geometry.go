package metadata

import "github.com/go-gl/mathgl/mgl32"

type VertexAttribute struct {
	Location   uint32
	Components int32
	// Offset in floats from the start of the vertex.
	Offset int32
}

type VertexLayout struct {
	// Stride in floats.
	Stride     int32
	Attributes []VertexAttribute
}

var (
	// position(3) normal(3) texcoord(2)
	LayoutPositionNormalUV = VertexLayout{
		Stride: 8,
		Attributes: []VertexAttribute{
			{Location: 0, Components: 3, Offset: 0},
			{Location: 1, Components: 3, Offset: 3},
			{Location: 2, Components: 2, Offset: 6},
		},
	}
	// position(3) normal(3) texcoord(2) tangent(3) bitangent(3)
	LayoutTangentSpace = VertexLayout{
		Stride: 14,
		Attributes: []VertexAttribute{
			{Location: 0, Components: 3, Offset: 0},
			{Location: 1, Components: 3, Offset: 3},
			{Location: 2, Components: 2, Offset: 6},
			{Location: 3, Components: 3, Offset: 8},
			{Location: 4, Components: 3, Offset: 11},
		},
	}
	// position(2) texcoord(2)
	LayoutScreenQuad = VertexLayout{
		Stride: 4,
		Attributes: []VertexAttribute{
			{Location: 0, Components: 2, Offset: 0},
			{Location: 1, Components: 2, Offset: 2},
		},
	}
	// position(3)
	LayoutPosition = VertexLayout{
		Stride: 3,
		Attributes: []VertexAttribute{
			{Location: 0, Components: 3, Offset: 0},
		},
	}
)

/** @brief Represents actual geometry uploaded to the backend. */
type Geometry struct {
	ID          uint32
	Name        string
	VertexCount uint32
	IndexCount  uint32
	Center      mgl32.Vec3
	// Backend specific buffer data.
	InternalData interface{}
}
