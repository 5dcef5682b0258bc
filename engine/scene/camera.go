package scene

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/lumen/engine/math"
)

type CameraType int

const (
	CameraPerspective CameraType = iota
	CameraOrthographic
)

/** @brief Default vertical field of view in degrees. */
const DefaultFOV float32 = 45

/**
 * @brief A fly camera. Rotation is (pitch, yaw, roll) in radians; yaw turns
 * around +Y and a zero rotation looks down -Z.
 */
type Camera struct {
	Name string
	/**
	 * @brief The position of this camera.
	 * NOTE: use SetPosition so the view matrix is rebuilt.
	 */
	Position mgl32.Vec3
	/**
	 * @brief Euler rotation of this camera.
	 * NOTE: use SetEulerRotation so the view matrix is rebuilt.
	 */
	EulerRotation mgl32.Vec3
	Type          CameraType
	FOV           float32
	Near          float32
	Far           float32
	Width         float32
	Height        float32
	/** @brief Set when the view matrix needs to be rebuilt. */
	IsDirty bool

	view       mgl32.Mat4
	projection mgl32.Mat4
}

func NewCamera(name string, position mgl32.Vec3, width, height float32) *Camera {
	c := &Camera{
		Name:     name,
		Position: position,
		Type:     CameraPerspective,
		FOV:      DefaultFOV,
		Near:     0.1,
		Far:      100,
		Width:    width,
		Height:   height,
		IsDirty:  true,
	}
	c.recalculateProjection()
	return c
}

func (c *Camera) SetPosition(position mgl32.Vec3) {
	c.Position = position
	c.IsDirty = true
}

func (c *Camera) SetEulerRotation(rotation mgl32.Vec3) {
	c.EulerRotation = rotation
	c.IsDirty = true
}

// LookAt rotates the camera so it faces target. Roll is reset.
func (c *Camera) LookAt(target mgl32.Vec3) {
	dir := target.Sub(c.Position)
	if dir.Len() == 0 {
		return
	}
	dir = dir.Normalize()
	pitch := float32(gomath.Asin(float64(math.Clamp(dir.Y(), -1, 1))))
	yaw := float32(gomath.Atan2(float64(-dir.X()), float64(-dir.Z())))
	c.SetEulerRotation(mgl32.Vec3{pitch, yaw, 0})
}

func (c *Camera) SetAspectRatio(width, height float32) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Width = width
	c.Height = height
	c.recalculateProjection()
}

func (c *Camera) SetFOV(fov float32) {
	c.FOV = fov
	c.recalculateProjection()
}

func (c *Camera) SetClipPlanes(near, far float32) {
	c.Near = near
	c.Far = far
	c.recalculateProjection()
}

func (c *Camera) SetType(t CameraType) {
	c.Type = t
	c.recalculateProjection()
}

func (c *Camera) rotation() mgl32.Mat4 {
	return mgl32.HomogRotate3DY(c.EulerRotation.Y()).
		Mul4(mgl32.HomogRotate3DX(c.EulerRotation.X())).
		Mul4(mgl32.HomogRotate3DZ(c.EulerRotation.Z()))
}

func (c *Camera) View() mgl32.Mat4 {
	if c.IsDirty {
		translation := mgl32.Translate3D(c.Position.X(), c.Position.Y(), c.Position.Z())
		c.view = translation.Mul4(c.rotation()).Inv()
		c.IsDirty = false
	}
	return c.view
}

func (c *Camera) Projection() mgl32.Mat4 {
	return c.projection
}

func (c *Camera) ViewProjection() mgl32.Mat4 {
	return c.projection.Mul4(c.View())
}

func (c *Camera) recalculateProjection() {
	switch c.Type {
	case CameraOrthographic:
		halfX, halfY := c.Width/2, c.Height/2
		c.projection = mgl32.Ortho(-halfX, halfX, -halfY, halfY, c.Near, c.Far)
	default:
		c.projection = mgl32.Perspective(mgl32.DegToRad(c.FOV), c.Width/c.Height, c.Near, c.Far)
	}
}

func (c *Camera) Forward() mgl32.Vec3 {
	return c.rotation().Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3().Normalize()
}

func (c *Camera) Backward() mgl32.Vec3 {
	return c.Forward().Mul(-1)
}

func (c *Camera) Right() mgl32.Vec3 {
	return c.rotation().Mul4x1(mgl32.Vec4{1, 0, 0, 0}).Vec3().Normalize()
}

func (c *Camera) Left() mgl32.Vec3 {
	return c.Right().Mul(-1)
}

func (c *Camera) move(direction mgl32.Vec3, amount float32) {
	c.Position = c.Position.Add(direction.Mul(amount))
	c.IsDirty = true
}

func (c *Camera) MoveForward(amount float32)  { c.move(c.Forward(), amount) }
func (c *Camera) MoveBackward(amount float32) { c.move(c.Backward(), amount) }
func (c *Camera) MoveLeft(amount float32)     { c.move(c.Left(), amount) }
func (c *Camera) MoveRight(amount float32)    { c.move(c.Right(), amount) }
func (c *Camera) MoveUp(amount float32)       { c.move(mgl32.Vec3{0, 1, 0}, amount) }
func (c *Camera) MoveDown(amount float32)     { c.move(mgl32.Vec3{0, -1, 0}, amount) }

func (c *Camera) Yaw(amount float32) {
	c.EulerRotation[1] += amount
	c.IsDirty = true
}

func (c *Camera) Pitch(amount float32) {
	c.EulerRotation[0] += amount

	// Clamp to avoid Gimbal lock.
	limit := mgl32.DegToRad(89)
	c.EulerRotation[0] = math.Clamp(c.EulerRotation[0], -limit, limit)

	c.IsDirty = true
}
