package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

type geometryBuffers struct {
	vao         uint32
	vbo         uint32
	ebo         uint32
	vertexCount int32
	indexCount  int32
}

func (b *Backend) GeometryCreate(geometry *metadata.Geometry, layout metadata.VertexLayout, vertices []float32, indices []uint32) error {
	if layout.Stride <= 0 || len(vertices) == 0 || len(vertices)%int(layout.Stride) != 0 {
		return fmt.Errorf("geometry %s: %d floats do not match stride %d", geometry.Name, len(vertices), layout.Stride)
	}
	buffers := &geometryBuffers{
		vertexCount: int32(len(vertices)) / layout.Stride,
		indexCount:  int32(len(indices)),
	}

	gl.GenVertexArrays(1, &buffers.vao)
	gl.BindVertexArray(buffers.vao)

	gl.GenBuffers(1, &buffers.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, buffers.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	if len(indices) > 0 {
		gl.GenBuffers(1, &buffers.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, buffers.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)
	}

	stride := layout.Stride * 4
	for _, attr := range layout.Attributes {
		gl.EnableVertexAttribArray(attr.Location)
		gl.VertexAttribPointerWithOffset(attr.Location, attr.Components, gl.FLOAT, false, stride, uintptr(attr.Offset*4))
	}
	gl.BindVertexArray(0)

	if err := checkError("geometry " + geometry.Name); err != nil {
		b.deleteBuffers(buffers)
		return err
	}
	geometry.ID = buffers.vao
	geometry.VertexCount = uint32(buffers.vertexCount)
	geometry.IndexCount = uint32(buffers.indexCount)
	geometry.InternalData = buffers
	return nil
}

func (b *Backend) deleteBuffers(buffers *geometryBuffers) {
	gl.DeleteVertexArrays(1, &buffers.vao)
	gl.DeleteBuffers(1, &buffers.vbo)
	if buffers.ebo != 0 {
		gl.DeleteBuffers(1, &buffers.ebo)
	}
}

func (b *Backend) GeometryDraw(geometry *metadata.Geometry) error {
	buffers, ok := geometry.InternalData.(*geometryBuffers)
	if !ok {
		return fmt.Errorf("geometry %s was not uploaded", geometry.Name)
	}
	gl.BindVertexArray(buffers.vao)
	if buffers.indexCount > 0 {
		gl.DrawElementsWithOffset(gl.TRIANGLES, buffers.indexCount, gl.UNSIGNED_INT, 0)
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, buffers.vertexCount)
	}
	gl.BindVertexArray(0)
	return nil
}

func (b *Backend) GeometryDestroy(geometry *metadata.Geometry) {
	if buffers, ok := geometry.InternalData.(*geometryBuffers); ok {
		b.deleteBuffers(buffers)
	}
	geometry.InternalData = nil
}
