package systems

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

const (
	GeometryNameCube       = "Geometry.Builtin.Cube"
	GeometryNamePyramid    = "Geometry.Builtin.Pyramid"
	GeometryNameSkybox     = "Geometry.Builtin.Skybox"
	GeometryNameScreenQuad = "Geometry.Builtin.ScreenQuad"
	GeometryNamePlane      = "Geometry.Builtin.Plane"
)

type GeometrySystemConfig struct {
	// Max number of geometries that can be loaded at once.
	MaxGeometryCount uint32
}

type GeometrySystem struct {
	Config *GeometrySystemConfig
	// Registered geometries by name.
	Lookup  map[string]*metadata.Geometry
	backend renderer.RendererBackend
}

func NewGeometrySystem(config *GeometrySystemConfig, backend renderer.RendererBackend) (*GeometrySystem, error) {
	if config.MaxGeometryCount == 0 {
		err := fmt.Errorf("func NewGeometrySystem - config.MaxGeometryCount must be > 0")
		core.LogWarn(err.Error())
		return nil, err
	}
	return &GeometrySystem{
		Config:  config,
		Lookup:  make(map[string]*metadata.Geometry),
		backend: backend,
	}, nil
}

func (gs *GeometrySystem) Shutdown() error {
	for name, g := range gs.Lookup {
		gs.backend.GeometryDestroy(g)
		delete(gs.Lookup, name)
	}
	return nil
}

// CreateStatic uploads immutable vertex and index data under name.
func (gs *GeometrySystem) CreateStatic(name string, layout metadata.VertexLayout, vertices []float32, indices []uint32) (*metadata.Geometry, error) {
	if _, ok := gs.Lookup[name]; ok {
		return nil, fmt.Errorf("geometry %s already exists", name)
	}
	if len(gs.Lookup) >= int(gs.Config.MaxGeometryCount) {
		return nil, fmt.Errorf("geometry %s: %w (limit %d)", name, core.ErrResourceExhaustion, gs.Config.MaxGeometryCount)
	}
	g := &metadata.Geometry{Name: name}
	if err := gs.backend.GeometryCreate(g, layout, vertices, indices); err != nil {
		core.LogError("failed to create geometry %s: %s", name, err)
		return nil, err
	}
	gs.Lookup[name] = g
	return g, nil
}

func (gs *GeometrySystem) Get(name string) (*metadata.Geometry, bool) {
	g, ok := gs.Lookup[name]
	return g, ok
}

func (gs *GeometrySystem) acquire(name string, layout metadata.VertexLayout, build func() ([]float32, []uint32)) (*metadata.Geometry, error) {
	if g, ok := gs.Lookup[name]; ok {
		return g, nil
	}
	vertices, indices := build()
	return gs.CreateStatic(name, layout, vertices, indices)
}

func (gs *GeometrySystem) Cube() (*metadata.Geometry, error) {
	return gs.acquire(GeometryNameCube, metadata.LayoutPositionNormalUV, func() ([]float32, []uint32) {
		return CubeMesh(), nil
	})
}

func (gs *GeometrySystem) Pyramid() (*metadata.Geometry, error) {
	return gs.acquire(GeometryNamePyramid, metadata.LayoutPositionNormalUV, PyramidMesh)
}

func (gs *GeometrySystem) Skybox() (*metadata.Geometry, error) {
	return gs.acquire(GeometryNameSkybox, metadata.LayoutPosition, func() ([]float32, []uint32) {
		return SkyboxMesh(), nil
	})
}

func (gs *GeometrySystem) ScreenQuad() (*metadata.Geometry, error) {
	return gs.acquire(GeometryNameScreenQuad, metadata.LayoutScreenQuad, ScreenQuadMesh)
}

func (gs *GeometrySystem) Plane() (*metadata.Geometry, error) {
	return gs.acquire(GeometryNamePlane, metadata.LayoutTangentSpace, PlaneMesh)
}
