package components

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestCameraDefaults(t *testing.T) {
	c := NewCamera()
	assert.InDelta(t, 0, c.Front().X(), 1e-6)
	assert.InDelta(t, -1, c.Front().Z(), 1e-6)
	assert.InDelta(t, 1, c.Up().Y(), 1e-6)
	assert.Equal(t, DefaultZoom, c.Zoom)
}

func TestCameraMove(t *testing.T) {
	c := NewCamera()
	c.Move(CameraForward, 2)
	assert.InDelta(t, -5, c.Position.Z(), 1e-5)
	c.Move(CameraRight, 2)
	assert.InDelta(t, 5, c.Position.X(), 1e-5)
	assert.True(t, c.IsDirty)

	view := c.GetView()
	assert.False(t, c.IsDirty)
	// the camera position maps to the view space origin
	origin := view.Mul4x1(c.Position.Vec4(1))
	assert.InDelta(t, 0, origin.Vec3().Len(), 1e-4)
}

func TestCameraPitchIsClamped(t *testing.T) {
	c := NewCamera()
	c.Look(0, 5000)
	assert.Equal(t, float32(89), c.Pitch)
	c.Look(0, -10000)
	assert.Equal(t, float32(-89), c.Pitch)
}

func TestCameraZoomIsClamped(t *testing.T) {
	c := NewCamera()
	c.ZoomBy(100)
	assert.Equal(t, float32(1), c.Zoom)
	c.ZoomBy(-100)
	assert.Equal(t, float32(45), c.Zoom)

	p := c.Projection(800, 600, 0.1, 100)
	assert.NotEqual(t, mgl32.Ident4(), p)
}
