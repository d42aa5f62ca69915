package fountain

import (
	"fmt"
	"strings"

	"github.com/gekko3d/fountain/core"
	"github.com/gekko3d/fountain/shaders"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// GLRendererModule draws the batch through an OpenGL 4.1 core context.
type GLRendererModule struct {
	ClearColor [4]float32
}

type glRendererState struct {
	program ProgramHandle
	glProg  uint32

	vao         uint32
	quadVBO     uint32
	positionVBO uint32
	colorVBO    uint32
	instances   int

	modelLoc      int32
	viewLoc       int32
	projectionLoc int32

	clearColor [4]float32
	window     *glfw.Window
}

func (m GLRendererModule) Install(app *App, cmd *Commands) {
	ws, ok := Resource[WindowState](app)
	if !ok || ws.API() != ClientAPIOpenGL {
		panic("gl renderer requires an OpenGL window; select it with UseGL")
	}
	if err := gl.Init(); err != nil {
		cmd.Logger().Errorf("OpenGL init failed: %v", err)
		panic(err)
	}
	cmd.Logger().Infof("OpenGL %s", gl.GoStr(gl.GetString(gl.VERSION)))

	lib := ensureShaderLibrary(app, cmd)
	program := lib.LoadProgram(ProgramSource{
		Name:     "particle-gl",
		Language: ShaderLanguageGLSL,
		Vertex:   shaders.ParticleVertexGLSL,
		Fragment: shaders.ParticleFragmentGLSL,
	})

	capacity := 1024
	if _, em, ok := firstEmitter(cmd); ok {
		capacity = em.Emitter.Pool().Capacity()
	}

	state, err := newGLRendererState(lib, program, capacity)
	if err != nil {
		cmd.Logger().Errorf("Particle program setup failed: %v", err)
		panic(err)
	}
	state.window = ws.windowGlfw
	state.clearColor = m.ClearColor
	if state.clearColor == ([4]float32{}) {
		state.clearColor = [4]float32{0, 0, 0, 1}
	}

	cmd.AddResources(state)
	cmd.OnExit(state.release)

	app.UseSystem(
		System(glRenderSystem).
			InStage(Render),
	)
	app.UseSystem(
		System(windowTitleSystem).
			InStage(PostRender),
	)
}

func newGLRendererState(lib *ShaderLibrary, program ProgramHandle, capacity int) (*glRendererState, error) {
	src, err := lib.Program(program)
	if err != nil {
		return nil, err
	}
	if src.Language != ShaderLanguageGLSL {
		return nil, fmt.Errorf("program %s is %s, want glsl", src.Name, src.Language)
	}
	glProg, err := linkProgram(src.Vertex, src.Fragment)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w", src.Name, err)
	}

	s := &glRendererState{
		program:       program,
		glProg:        glProg,
		modelLoc:      gl.GetUniformLocation(glProg, gl.Str(core.UniformModelMatrix+"\x00")),
		viewLoc:       gl.GetUniformLocation(glProg, gl.Str(core.UniformViewMatrix+"\x00")),
		projectionLoc: gl.GetUniformLocation(glProg, gl.Str(core.UniformProjectionMatrix+"\x00")),
	}

	gl.GenVertexArrays(1, &s.vao)
	gl.BindVertexArray(s.vao)

	gl.GenBuffers(1, &s.quadVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(core.QuadVertices)*4, gl.Ptr(&core.QuadVertices[0]), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 0, gl.PtrOffset(0))

	gl.GenBuffers(1, &s.positionVBO)
	gl.GenBuffers(1, &s.colorVBO)
	s.allocateInstances(capacity)

	gl.BindBuffer(gl.ARRAY_BUFFER, s.positionVBO)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 4, gl.FLOAT, false, 0, gl.PtrOffset(0))

	gl.BindBuffer(gl.ARRAY_BUFFER, s.colorVBO)
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 4, gl.UNSIGNED_BYTE, true, 0, gl.PtrOffset(0))

	// Quad vertices advance per vertex, positions and colours per instance.
	gl.VertexAttribDivisor(0, 0)
	gl.VertexAttribDivisor(1, 1)
	gl.VertexAttribDivisor(2, 1)

	gl.BindVertexArray(0)
	return s, nil
}

// allocateInstances orphans and resizes the instance buffers.
func (s *glRendererState) allocateInstances(n int) {
	gl.BindBuffer(gl.ARRAY_BUFFER, s.positionVBO)
	gl.BufferData(gl.ARRAY_BUFFER, n*positionStride, nil, gl.STREAM_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.colorVBO)
	gl.BufferData(gl.ARRAY_BUFFER, n*colorStride, nil, gl.STREAM_DRAW)
	s.instances = n
}

func (s *glRendererState) DrawInstances(batch *core.RenderBatch, u core.Uniforms) error {
	width, height := s.window.GetFramebufferSize()
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.ClearColor(s.clearColor[0], s.clearColor[1], s.clearColor[2], s.clearColor[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	count := batch.Count
	if count > 0 {
		gl.BindVertexArray(s.vao)
		if count > s.instances {
			s.allocateInstances(count)
		}
		gl.BindBuffer(gl.ARRAY_BUFFER, s.positionVBO)
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, count*positionStride, gl.Ptr(batch.PositionData()))
		gl.BindBuffer(gl.ARRAY_BUFFER, s.colorVBO)
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, count*colorStride, gl.Ptr(batch.ColorData()))

		gl.UseProgram(s.glProg)
		gl.UniformMatrix4fv(s.modelLoc, 1, false, &u.Model[0])
		gl.UniformMatrix4fv(s.viewLoc, 1, false, &u.View[0])
		gl.UniformMatrix4fv(s.projectionLoc, 1, false, &u.Projection[0])

		gl.DrawArraysInstanced(gl.TRIANGLES, 0, core.QuadVertexCount, int32(count))
		gl.BindVertexArray(0)
	}

	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("gl error 0x%x", code)
	}
	s.window.SwapBuffers()
	return nil
}

func (s *glRendererState) release() {
	buffers := []uint32{s.quadVBO, s.positionVBO, s.colorVBO}
	gl.DeleteBuffers(int32(len(buffers)), &buffers[0])
	gl.DeleteVertexArrays(1, &s.vao)
	gl.DeleteProgram(s.glProg)
}

func glRenderSystem(input *Input, stats *FrameStats, state *glRendererState, cmd *Commands) {
	if input.WindowWidth <= 0 || input.WindowHeight <= 0 {
		return
	}
	cam, em, ok := renderTargets(cmd)
	if !ok {
		return
	}
	stats.Profiler.BeginScope("render")
	projection := em.Controls.RenderProjection.Matrix(viewportAspect(input))
	if err := em.Emitter.RenderParticles(state, cam.ViewMatrix(), projection); err != nil {
		cmd.Logger().Warnf("Frame skipped: %v", err)
	}
	stats.Profiler.EndScope("render")
}

func linkProgram(vertexSource, fragmentSource string) (uint32, error) {
	vertexShader, err := compileShader(gl.VERTEX_SHADER, vertexSource)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertexShader)
	fragmentShader, err := compileShader(gl.FRAGMENT_SHADER, fragmentSource)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragmentShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link error: %s", log)
	}
	return program, nil
}

func compileShader(shaderType uint32, source string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile error: %s", log)
	}
	return shader, nil
}
