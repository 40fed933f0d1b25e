package components

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

/**
 * @brief A fly camera driven by keyboard movement, mouse look and scroll zoom.
 * Ideally, these are created and managed by the camera system.
 */
type Camera struct {
	/**
	 * @brief The position of this camera.
	 * NOTE: Do not set this directly, use SetPosition() instead
	 * so the view matrix is recalculated when needed.
	 */
	Position mgl32.Vec3
	/** @brief Yaw and pitch in degrees. */
	Yaw   float32
	Pitch float32
	/** @brief Vertical field of view in degrees. */
	Zoom             float32
	MovementSpeed    float32
	MouseSensitivity float32
	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty bool
	/**
	 * @brief The view matrix of this camera.
	 * NOTE: IMPORTANT: Do not get this directly, use GetView() instead
	 * so the view matrix is recalculated when needed.
	 */
	ViewMatrix mgl32.Mat4

	front mgl32.Vec3
	right mgl32.Vec3
	up    mgl32.Vec3
}

type CameraLookup struct {
	ReferenceCount uint16
	Camera         *Camera
}

/** @brief The name of the default camera. */
const DEFAULT_CAMERA_NAME string = "default"

type CameraMovement uint8

const (
	CameraForward CameraMovement = iota
	CameraBackward
	CameraLeft
	CameraRight
)

const (
	DefaultYaw         float32 = -90
	DefaultPitch       float32 = 0
	DefaultSpeed       float32 = 2.5
	DefaultSensitivity float32 = 0.1
	DefaultZoom        float32 = 45
	// 89 degrees keeps the view from flipping.
	pitchLimit float32 = 89
	minZoom    float32 = 1
	maxZoom    float32 = 45
)

var worldUp = mgl32.Vec3{0, 1, 0}

func NewCamera() *Camera {
	camera := &Camera{}
	camera.Reset()
	return camera
}

func (c *Camera) Reset() {
	c.Position = mgl32.Vec3{}
	c.Yaw = DefaultYaw
	c.Pitch = DefaultPitch
	c.Zoom = DefaultZoom
	c.MovementSpeed = DefaultSpeed
	c.MouseSensitivity = DefaultSensitivity
	c.updateVectors()
}

func (c *Camera) GetPosition() mgl32.Vec3 {
	return c.Position
}

func (c *Camera) SetPosition(position mgl32.Vec3) {
	c.Position = position
	c.IsDirty = true
}

// SetRotation sets yaw and pitch in degrees. Pitch is clamped to +-89.
func (c *Camera) SetRotation(yaw, pitch float32) {
	c.Yaw = yaw
	c.Pitch = mgl32.Clamp(pitch, -pitchLimit, pitchLimit)
	c.updateVectors()
}

func (c *Camera) Front() mgl32.Vec3 {
	return c.front
}

func (c *Camera) Right() mgl32.Vec3 {
	return c.right
}

func (c *Camera) Up() mgl32.Vec3 {
	return c.up
}

func (c *Camera) GetView() mgl32.Mat4 {
	if c.IsDirty {
		c.ViewMatrix = mgl32.LookAtV(c.Position, c.Position.Add(c.front), c.up)
		c.IsDirty = false
	}
	return c.ViewMatrix
}

// Projection returns a perspective projection for the current zoom.
func (c *Camera) Projection(width, height uint32, near, far float32) mgl32.Mat4 {
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	return mgl32.Perspective(mgl32.DegToRad(c.Zoom), aspect, near, far)
}

// Move translates the camera along its own axes by MovementSpeed * deltaTime.
func (c *Camera) Move(direction CameraMovement, deltaTime float32) {
	velocity := c.MovementSpeed * deltaTime
	switch direction {
	case CameraForward:
		c.Position = c.Position.Add(c.front.Mul(velocity))
	case CameraBackward:
		c.Position = c.Position.Sub(c.front.Mul(velocity))
	case CameraLeft:
		c.Position = c.Position.Sub(c.right.Mul(velocity))
	case CameraRight:
		c.Position = c.Position.Add(c.right.Mul(velocity))
	}
	c.IsDirty = true
}

// Look turns the camera by a mouse delta in pixels.
func (c *Camera) Look(dx, dy float32) {
	c.SetRotation(c.Yaw+dx*c.MouseSensitivity, c.Pitch+dy*c.MouseSensitivity)
}

// ZoomBy narrows or widens the field of view, kept within [1, 45] degrees.
func (c *Camera) ZoomBy(amount float32) {
	c.Zoom = mgl32.Clamp(c.Zoom-amount, minZoom, maxZoom)
}

func (c *Camera) updateVectors() {
	yaw, pitch := mgl32.DegToRad(c.Yaw), mgl32.DegToRad(c.Pitch)
	front := mgl32.Vec3{
		cos(yaw) * cos(pitch),
		sin(pitch),
		sin(yaw) * cos(pitch),
	}
	c.front = front.Normalize()
	c.right = c.front.Cross(worldUp).Normalize()
	c.up = c.right.Cross(c.front).Normalize()
	c.IsDirty = true
}

func cos(v float32) float32 {
	return float32(math.Cos(float64(v)))
}

func sin(v float32) float32 {
	return float32(math.Sin(float64(v)))
}
