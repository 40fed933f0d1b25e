package renderer

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/renderer/opengl"
	"github.com/spaghettifunk/prism/engine/renderer/software"
)

type RendererType uint8

const (
	OpenGL RendererType = iota
	Software
)

func (t RendererType) String() string {
	switch t {
	case OpenGL:
		return "opengl"
	case Software:
		return "software"
	}
	return fmt.Sprintf("renderer(%d)", uint8(t))
}

// ParseRendererType maps a configuration value to a backend type.
func ParseRendererType(name string) (RendererType, error) {
	switch name {
	case "opengl":
		return OpenGL, nil
	case "software":
		return Software, nil
	}
	return OpenGL, fmt.Errorf("unknown renderer backend %q", name)
}

// NewBackend builds the backend of the given type. presenter is only used by OpenGL.
func NewBackend(t RendererType, presenter opengl.Presenter) (RendererBackend, error) {
	switch t {
	case OpenGL:
		if presenter == nil {
			return nil, fmt.Errorf("the OpenGL backend needs a window to present to")
		}
		return opengl.New(presenter), nil
	case Software:
		return software.New(), nil
	}
	return nil, fmt.Errorf("unsupported renderer type %s", t)
}
