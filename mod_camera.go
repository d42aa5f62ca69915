package fountain

import (
	"github.com/gekko3d/fountain/core"
	"github.com/go-gl/mathgl/mgl32"
)

// CameraModule adds the first-person camera entity and its keyboard/mouse
// controls. Speed is world units per frame. A zero Eye keeps the camera's
// default position. An app holds at most one camera.
type CameraModule struct {
	Eye         mgl32.Vec3
	Speed       float32
	Sensitivity float32
}

type FirstPersonCameraComponent struct {
	Camera *core.Camera
	Speed  float32

	captured bool
}

func (m CameraModule) Install(app *App, cmd *Commands) {
	if _, _, ok := firstCamera(cmd); ok {
		panic("camera already installed")
	}
	cam := core.NewCamera()
	if m.Eye != (mgl32.Vec3{}) {
		cam.SetEyePosition(m.Eye.X(), m.Eye.Y(), m.Eye.Z())
	}
	if m.Sensitivity > 0 {
		cam.Sensitivity = m.Sensitivity
	}
	speed := m.Speed
	if speed <= 0 {
		speed = 0.25
	}

	cmd.AddEntity(FirstPersonCameraComponent{Camera: cam, Speed: speed})
	app.UseSystem(
		System(cameraControlSystem).
			InStage(Update),
	)
}

func firstCamera(cmd *Commands) (EntityId, *FirstPersonCameraComponent, bool) {
	return MakeQuery1[FirstPersonCameraComponent](cmd).First()
}

func cameraControlSystem(input *Input, cmd *Commands) {
	MakeQuery1[FirstPersonCameraComponent](cmd).Map(func(eid EntityId, fp *FirstPersonCameraComponent) bool {
		cam := fp.Camera
		if input.Pressed[KeyW] {
			cam.MoveForward(fp.Speed)
		}
		if input.Pressed[KeyS] {
			cam.MoveBackward(fp.Speed)
		}
		if input.Pressed[KeyA] {
			cam.MoveLeft(fp.Speed)
		}
		if input.Pressed[KeyD] {
			cam.MoveRight(fp.Speed)
		}
		if input.Pressed[KeyUp] {
			cam.MoveUp(fp.Speed)
		}
		if input.Pressed[KeyDown] {
			cam.MoveDown(fp.Speed)
		}

		// Releasing the cursor drops the mouse baseline so recapture does not jump.
		if fp.captured && !input.MouseCaptured {
			cam.ResetMouse()
		}
		fp.captured = input.MouseCaptured

		if input.MouseCaptured && input.MouseMoved {
			cam.MouseLook(int(input.MouseX), int(input.MouseY))
		}
		return true
	})
}
