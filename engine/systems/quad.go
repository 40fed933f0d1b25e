package systems

import (
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// FullScreenQuad draws a quad covering the whole viewport. The geometry is
// created on first use and lives until the geometry system shuts down.
type FullScreenQuad struct {
	geometry   *metadata.Geometry
	geometries *GeometrySystem
	backend    renderer.RendererBackend
}

func NewFullScreenQuad(gs *GeometrySystem, backend renderer.RendererBackend) *FullScreenQuad {
	return &FullScreenQuad{
		geometries: gs,
		backend:    backend,
	}
}

// DrawFullScreenQuad issues one indexed draw of 6 indices with the current shader.
// Depth testing is left as configured by the caller.
func (q *FullScreenQuad) DrawFullScreenQuad() error {
	if q.geometry == nil {
		g, err := q.geometries.ScreenQuad()
		if err != nil {
			core.LogError("failed to create the full screen quad: %s", err)
			return err
		}
		q.geometry = g
	}
	return q.backend.GeometryDraw(q.geometry)
}
