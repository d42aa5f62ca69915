package core

import "github.com/go-gl/mathgl/mgl32"

// DefaultMouseSensitivity is degrees of rotation per pixel of mouse travel.
const DefaultMouseSensitivity float32 = 0.25

// Camera is a first-person camera. The up vector never changes; the right
// vector is only refreshed by lateral moves and is what pitch rotates about.
type Camera struct {
	Eye         mgl32.Vec3
	View        mgl32.Vec3
	Up          mgl32.Vec3
	Right       mgl32.Vec3
	Sensitivity float32

	lastMouse mgl32.Vec2
	seeded    bool
}

func NewCamera() *Camera {
	c := &Camera{
		Eye:         mgl32.Vec3{0, 0, 5},
		View:        mgl32.Vec3{0, 0, -1},
		Up:          mgl32.Vec3{0, 1, 0},
		Sensitivity: DefaultMouseSensitivity,
	}
	c.Right = c.View.Cross(c.Up)
	return c
}

// MouseLook takes absolute mouse coordinates. The first call only records the
// baseline so the view does not jump.
func (c *Camera) MouseLook(mouseX, mouseY int) {
	current := mgl32.Vec2{float32(mouseX), float32(mouseY)}
	if !c.seeded {
		c.seeded = true
		c.lastMouse = current
	}

	delta := current.Sub(c.lastMouse).Mul(c.Sensitivity)

	yaw := rotationAbout(delta.X(), c.Up)
	pitch := rotationAbout(delta.Y(), c.Right)
	c.View = yaw.Mul4(pitch).Mat3().Mul3x1(c.View).Normalize()

	c.lastMouse = current
}

// ResetMouse makes the next MouseLook a baseline-only call.
func (c *Camera) ResetMouse() {
	c.seeded = false
}

func (c *Camera) MoveForward(speed float32) {
	c.Eye = c.Eye.Add(c.View.Mul(speed))
}

func (c *Camera) MoveBackward(speed float32) {
	c.Eye = c.Eye.Sub(c.View.Mul(speed))
}

func (c *Camera) MoveLeft(speed float32) {
	c.Right = c.View.Cross(c.Up)
	c.Eye = c.Eye.Sub(c.Right.Mul(speed))
}

func (c *Camera) MoveRight(speed float32) {
	c.Right = c.View.Cross(c.Up)
	c.Eye = c.Eye.Add(c.Right.Mul(speed))
}

// MoveUp and MoveDown travel along world Y, not the view's up.
func (c *Camera) MoveUp(speed float32) {
	c.Eye[1] += speed
}

func (c *Camera) MoveDown(speed float32) {
	c.Eye[1] -= speed
}

func (c *Camera) SetEyePosition(x, y, z float32) {
	c.Eye = mgl32.Vec3{x, y, z}
}

func (c *Camera) EyePosition() mgl32.Vec3 {
	return c.Eye
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye, c.Eye.Add(c.View), c.Up)
}

// rotationAbout builds a rotation of deg degrees about axis. A zero axis
// (view parallel to up) yields identity instead of NaNs.
func rotationAbout(deg float32, axis mgl32.Vec3) mgl32.Mat4 {
	l := axis.Len()
	if l == 0 {
		return mgl32.Ident4()
	}
	return mgl32.HomogRotate3D(mgl32.DegToRad(deg), axis.Mul(1/l))
}
