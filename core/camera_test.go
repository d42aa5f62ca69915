package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCamera_Defaults(t *testing.T) {
	cam := NewCamera()

	assert.Equal(t, mgl32.Vec3{0, 0, 5}, cam.Eye)
	assert.Equal(t, mgl32.Vec3{0, 0, -1}, cam.View)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, cam.Up)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, cam.Right)
}

func TestCamera_FirstMouseLookSeedsOnly(t *testing.T) {
	cam := NewCamera()

	cam.MouseLook(320, 240)
	assert.Equal(t, mgl32.Vec3{0, 0, -1}, cam.View)

	cam.MouseLook(360, 240)
	want := float32(math.Sin(float64(mgl32.DegToRad(10))))
	assert.InDelta(t, -want, cam.View.X(), 1e-5)
	assert.InDelta(t, 0, cam.View.Y(), 1e-5)
	assert.InDelta(t, 1.0, cam.View.Len(), 1e-5)
}

func TestCamera_MouseLookPitch(t *testing.T) {
	cam := NewCamera()
	cam.MouseLook(0, 0)
	cam.MouseLook(0, 20)

	want := float32(math.Sin(float64(mgl32.DegToRad(5))))
	assert.InDelta(t, want, cam.View.Y(), 1e-5)
	assert.InDelta(t, 0, cam.View.X(), 1e-5)
	assert.InDelta(t, 1.0, cam.View.Len(), 1e-5)
}

func TestCamera_SameSampleIsNoop(t *testing.T) {
	cam := NewCamera()
	cam.MouseLook(10, 10)
	cam.MouseLook(50, 10)
	before := cam.View

	cam.MouseLook(50, 10)
	assert.InDelta(t, before.X(), cam.View.X(), 1e-6)
	assert.InDelta(t, before.Y(), cam.View.Y(), 1e-6)
	assert.InDelta(t, before.Z(), cam.View.Z(), 1e-6)
}

func TestCamera_Movement(t *testing.T) {
	cam := NewCamera()

	cam.MoveForward(1)
	assert.Equal(t, mgl32.Vec3{0, 0, 4}, cam.Eye)

	cam.MoveBackward(2)
	assert.Equal(t, mgl32.Vec3{0, 0, 6}, cam.Eye)

	cam.MoveRight(1)
	assert.Equal(t, mgl32.Vec3{1, 0, 6}, cam.Eye)

	cam.MoveLeft(3)
	assert.Equal(t, mgl32.Vec3{-2, 0, 6}, cam.Eye)

	cam.MoveUp(2)
	cam.MoveDown(0.5)
	assert.Equal(t, mgl32.Vec3{-2, 1.5, 6}, cam.Eye)
}

func TestCamera_MoveUpIgnoresViewPitch(t *testing.T) {
	cam := NewCamera()
	cam.View = mgl32.Vec3{0, 0.6, -0.8}

	cam.MoveUp(1)
	assert.Equal(t, mgl32.Vec3{0, 1, 5}, cam.Eye)
}

func TestCamera_ViewMatrixMapsEyeToOrigin(t *testing.T) {
	cam := NewCamera()
	cam.SetEyePosition(0, 5, 25)

	eye := cam.ViewMatrix().Mul4x1(cam.EyePosition().Vec4(1))
	assert.InDelta(t, 0, eye.X(), 1e-5)
	assert.InDelta(t, 0, eye.Y(), 1e-5)
	assert.InDelta(t, 0, eye.Z(), 1e-5)

	ahead := cam.ViewMatrix().Mul4x1(mgl32.Vec4{0, 5, 15, 1})
	require.InDelta(t, -10, ahead.Z(), 1e-4)
}

func TestCamera_DegenerateViewStaysFinite(t *testing.T) {
	cam := NewCamera()
	cam.View = mgl32.Vec3{0, 1, 0}
	cam.Right = cam.View.Cross(cam.Up)

	cam.MouseLook(0, 0)
	cam.MouseLook(10, 10)

	for i := 0; i < 3; i++ {
		assert.False(t, math.IsNaN(float64(cam.View[i])))
	}
}

func TestCamera_ResetMouseReseeds(t *testing.T) {
	cam := NewCamera()
	cam.MouseLook(0, 0)
	cam.ResetMouse()
	cam.MouseLook(400, 300)

	assert.Equal(t, mgl32.Vec3{0, 0, -1}, cam.View)
}
