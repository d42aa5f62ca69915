package fountain

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/fountain/core"
	"github.com/gekko3d/fountain/shaders"
)

const (
	positionStride = 4 * 4 // pos.xyz + size, float32
	colorStride    = 4     // rgba8
	uniformSize    = 3 * 16 * 4
	hudFontSize    = 16
)

// WgpuRendererModule draws the particle batch with one instanced draw per
// frame and optionally overlays the frame statistics.
type WgpuRendererModule struct {
	HUD        bool
	ClearColor wgpu.Color
}

type wgpuRendererState struct {
	gpu *GpuState

	program   ProgramHandle
	pipeline  *wgpu.RenderPipeline
	bindGroup *wgpu.BindGroup

	quadBuffer     *wgpu.Buffer
	positionBuffer *wgpu.Buffer
	colorBuffer    *wgpu.Buffer
	uniformBuffer  *wgpu.Buffer
	instances      int

	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView

	clearColor wgpu.Color
	hud        *wgpuHudPass
}

func (m WgpuRendererModule) Install(app *App, cmd *Commands) {
	ws, ok := Resource[WindowState](app)
	if !ok {
		panic("wgpu renderer requires a WindowState; select it with UseWGPU")
	}

	gpu, err := createGpuState(ws)
	if err != nil {
		cmd.Logger().Errorf("GPU setup failed: %v", err)
		panic(err)
	}

	lib := ensureShaderLibrary(app, cmd)
	program := lib.LoadProgram(ProgramSource{
		Name:     "particle",
		Language: ShaderLanguageWGSL,
		Vertex:   shaders.ParticleWGSL,
	})

	capacity := 1024
	if _, em, ok := firstEmitter(cmd); ok {
		capacity = em.Emitter.Pool().Capacity()
	}

	state, err := newWgpuRendererState(gpu, lib, program, capacity)
	if err != nil {
		cmd.Logger().Errorf("Particle pipeline setup failed: %v", err)
		panic(err)
	}
	state.clearColor = m.ClearColor
	if state.clearColor == (wgpu.Color{}) {
		state.clearColor = wgpu.Color{R: 0, G: 0, B: 0, A: 1}
	}

	if m.HUD {
		hud, err := newWgpuHudPass(gpu, lib)
		if err != nil {
			// The overlay is optional; particles still render without it.
			cmd.Logger().Warnf("HUD disabled: %v", err)
		} else {
			state.hud = hud
		}
	}

	cmd.AddResources(state)
	cmd.OnExit(func() {
		state.release()
		gpu.release()
	})

	app.UseSystem(
		System(wgpuResizeSystem).
			InStage(PreRender),
	)
	app.UseSystem(
		System(wgpuRenderSystem).
			InStage(Render),
	)
	app.UseSystem(
		System(windowTitleSystem).
			InStage(PostRender),
	)
}

func newWgpuRendererState(gpu *GpuState, lib *ShaderLibrary, program ProgramHandle, capacity int) (*wgpuRendererState, error) {
	src, err := lib.Program(program)
	if err != nil {
		return nil, err
	}
	shader, err := createShaderModule(src.Name, src.Vertex, gpu)
	if err != nil {
		return nil, err
	}
	defer shader.Release()

	pipeline, err := gpu.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Particle Pipeline",
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: 3 * 4,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
					},
				},
				{
					ArrayStride: positionStride,
					StepMode:    wgpu.VertexStepModeInstance,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 1},
					},
				},
				{
					ArrayStride: colorStride,
					StepMode:    wgpu.VertexStepModeInstance,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatUnorm8x4, Offset: 0, ShaderLocation: 2},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    gpu.surfaceConfig.Format,
				Blend:     &alphaBlend,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("particle pipeline: %w", err)
	}

	s := &wgpuRendererState{
		gpu:      gpu,
		program:  program,
		pipeline: pipeline,
	}

	s.quadBuffer, err = gpu.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Particle Quad",
		Contents: wgpu.ToBytes(core.QuadVertices[:]),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		s.release()
		return nil, fmt.Errorf("quad buffer: %w", err)
	}

	s.uniformBuffer, err = createStreamBuffer("Particle Uniforms", uniformSize, wgpu.BufferUsageUniform, gpu)
	if err != nil {
		s.release()
		return nil, err
	}

	if err := s.ensureInstanceCapacity(capacity); err != nil {
		s.release()
		return nil, err
	}

	layout := pipeline.GetBindGroupLayout(0)
	defer layout.Release()
	s.bindGroup, err = gpu.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: s.uniformBuffer, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		s.release()
		return nil, fmt.Errorf("particle bind group: %w", err)
	}

	if err := s.recreateDepth(); err != nil {
		s.release()
		return nil, err
	}
	return s, nil
}

var alphaBlend = wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorSrcAlpha,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOne,
		Operation: wgpu.BlendOperationAdd,
	},
}

// ensureInstanceCapacity grows the instance buffers; contents are rewritten
// every frame so nothing is copied.
func (s *wgpuRendererState) ensureInstanceCapacity(n int) error {
	if n <= s.instances {
		return nil
	}
	positions, err := createStreamBuffer("Particle Positions", uint64(n*positionStride), wgpu.BufferUsageVertex, s.gpu)
	if err != nil {
		return err
	}
	colors, err := createStreamBuffer("Particle Colors", uint64(n*colorStride), wgpu.BufferUsageVertex, s.gpu)
	if err != nil {
		positions.Release()
		return err
	}
	if s.positionBuffer != nil {
		s.positionBuffer.Release()
		s.colorBuffer.Release()
	}
	s.positionBuffer = positions
	s.colorBuffer = colors
	s.instances = n
	return nil
}

func (s *wgpuRendererState) recreateDepth() error {
	if s.depthView != nil {
		s.depthView.Release()
		s.depthTexture.Release()
	}
	var err error
	s.depthTexture, s.depthView, err = createDepthView(s.gpu)
	return err
}

// DrawInstances uploads the batch and submits one frame: clear, one
// instanced draw of the quad, the optional HUD, present.
func (s *wgpuRendererState) DrawInstances(batch *core.RenderBatch, u core.Uniforms) error {
	queue := s.gpu.queue

	var uniforms [48]float32
	copy(uniforms[0:16], u.Model[:])
	copy(uniforms[16:32], u.View[:])
	copy(uniforms[32:48], u.Projection[:])
	if err := queue.WriteBuffer(s.uniformBuffer, 0, wgpu.ToBytes(uniforms[:])); err != nil {
		return fmt.Errorf("write uniforms: %w", err)
	}

	count := batch.Count
	if count > 0 {
		if err := s.ensureInstanceCapacity(count); err != nil {
			return err
		}
		if err := queue.WriteBuffer(s.positionBuffer, 0, wgpu.ToBytes(batch.PositionData())); err != nil {
			return fmt.Errorf("write positions: %w", err)
		}
		if err := queue.WriteBuffer(s.colorBuffer, 0, batch.ColorData()); err != nil {
			return fmt.Errorf("write colors: %w", err)
		}
	}

	nextTexture, err := s.gpu.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("acquire surface texture: %w", err)
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		return fmt.Errorf("surface view: %w", err)
	}
	defer view.Release()

	encoder, err := s.gpu.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("command encoder: %w", err)
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: s.clearColor,
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            s.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})

	if count > 0 {
		pass.SetPipeline(s.pipeline)
		pass.SetBindGroup(0, s.bindGroup, nil)
		pass.SetVertexBuffer(0, s.quadBuffer, 0, wgpu.WholeSize)
		pass.SetVertexBuffer(1, s.positionBuffer, 0, uint64(count*positionStride))
		pass.SetVertexBuffer(2, s.colorBuffer, 0, uint64(count*colorStride))
		pass.Draw(core.QuadVertexCount, uint32(count), 0, 0)
	}
	if s.hud != nil {
		s.hud.draw(pass)
	}

	if err := pass.End(); err != nil {
		return fmt.Errorf("end render pass: %w", err)
	}

	cmdBuffer, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish encoder: %w", err)
	}
	defer cmdBuffer.Release()

	queue.Submit(cmdBuffer)
	s.gpu.surface.Present()
	return nil
}

func (s *wgpuRendererState) release() {
	if s.hud != nil {
		s.hud.release()
	}
	for _, b := range []*wgpu.Buffer{s.quadBuffer, s.positionBuffer, s.colorBuffer, s.uniformBuffer} {
		if b != nil {
			b.Release()
		}
	}
	if s.bindGroup != nil {
		s.bindGroup.Release()
	}
	if s.depthView != nil {
		s.depthView.Release()
		s.depthTexture.Release()
	}
	if s.pipeline != nil {
		s.pipeline.Release()
	}
}

func wgpuResizeSystem(input *Input, state *wgpuRendererState, cmd *Commands) {
	if !state.gpu.resize(input.WindowWidth, input.WindowHeight) {
		return
	}
	if err := state.recreateDepth(); err != nil {
		cmd.Logger().Errorf("Depth buffer resize failed: %v", err)
	}
}

func wgpuRenderSystem(input *Input, stats *FrameStats, state *wgpuRendererState, cmd *Commands) {
	if input.WindowWidth <= 0 || input.WindowHeight <= 0 {
		// Minimized.
		return
	}
	cam, em, ok := renderTargets(cmd)
	if !ok {
		return
	}
	if state.hud != nil {
		if err := state.hud.update(stats.HUDLines(&em.Controls), input.WindowWidth, input.WindowHeight); err != nil {
			cmd.Logger().Warnf("HUD update failed: %v", err)
		}
	}

	stats.Profiler.BeginScope("render")
	projection := em.Controls.RenderProjection.Matrix(viewportAspect(input))
	if err := em.Emitter.RenderParticles(state, cam.ViewMatrix(), projection); err != nil {
		cmd.Logger().Warnf("Frame skipped: %v", err)
	}
	stats.Profiler.EndScope("render")
}

// wgpuHudPass draws screen-space text from an alpha glyph atlas.
type wgpuHudPass struct {
	gpu   *GpuState
	atlas *core.TextAtlas

	pipeline  *wgpu.RenderPipeline
	bindGroup *wgpu.BindGroup
	texture   *wgpu.Texture
	view      *wgpu.TextureView
	sampler   *wgpu.Sampler

	vertexBuffer *wgpu.Buffer
	vertexCount  uint32
}

func newWgpuHudPass(gpu *GpuState, lib *ShaderLibrary) (*wgpuHudPass, error) {
	atlas, err := core.NewDefaultTextAtlas(hudFontSize)
	if err != nil {
		return nil, err
	}

	h := &wgpuHudPass{gpu: gpu, atlas: atlas}

	w, ht := atlas.Image.Bounds().Dx(), atlas.Image.Bounds().Dy()
	h.texture, err = gpu.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "HUD Atlas",
		Size:          wgpu.Extent3D{Width: uint32(w), Height: uint32(ht), DepthOrArrayLayers: 1},
		Format:        wgpu.TextureFormatR8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("atlas texture: %w", err)
	}
	err = gpu.queue.WriteTexture(h.texture.AsImageCopy(), atlas.Image.Pix, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(w),
		RowsPerImage: uint32(ht),
	}, &wgpu.Extent3D{Width: uint32(w), Height: uint32(ht), DepthOrArrayLayers: 1})
	if err != nil {
		h.release()
		return nil, fmt.Errorf("atlas upload: %w", err)
	}
	h.view, err = h.texture.CreateView(nil)
	if err != nil {
		h.release()
		return nil, fmt.Errorf("atlas view: %w", err)
	}
	h.sampler, err = gpu.device.CreateSampler(&wgpu.SamplerDescriptor{
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		h.release()
		return nil, fmt.Errorf("atlas sampler: %w", err)
	}

	src, err := lib.Program(lib.LoadProgram(ProgramSource{
		Name:     "hud-text",
		Language: ShaderLanguageWGSL,
		Vertex:   shaders.TextWGSL,
	}))
	if err != nil {
		h.release()
		return nil, err
	}
	shader, err := createShaderModule(src.Name, src.Vertex, gpu)
	if err != nil {
		h.release()
		return nil, err
	}
	defer shader.Release()

	h.pipeline, err = gpu.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "HUD Text Pipeline",
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: 8 * 4,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
					{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    gpu.surfaceConfig.Format,
				Blend:     &alphaBlend,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		// Shares the particle pass, so it must match its depth attachment.
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: false,
			DepthCompare:      wgpu.CompareFunctionAlways,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		h.release()
		return nil, fmt.Errorf("hud pipeline: %w", err)
	}

	layout := h.pipeline.GetBindGroupLayout(0)
	defer layout.Release()
	h.bindGroup, err = gpu.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: h.view},
			{Binding: 1, Sampler: h.sampler},
		},
	})
	if err != nil {
		h.release()
		return nil, fmt.Errorf("hud bind group: %w", err)
	}
	return h, nil
}

func (h *wgpuHudPass) update(lines []string, width, height int) error {
	items := make([]core.TextItem, 0, len(lines))
	for i, line := range lines {
		items = append(items, core.TextItem{
			Text:     line,
			Position: [2]float32{8, 8 + float32(i)*(hudFontSize+4)},
			Scale:    1,
			Color:    [4]float32{1, 1, 1, 0.9},
		})
	}

	vertices := h.atlas.BuildVertices(items, width, height)
	h.vertexCount = uint32(len(vertices))
	if len(vertices) == 0 {
		return nil
	}

	data := wgpu.ToBytes(vertices)
	if h.vertexBuffer == nil || h.vertexBuffer.GetSize() < uint64(len(data)) {
		if h.vertexBuffer != nil {
			h.vertexBuffer.Release()
		}
		buffer, err := createStreamBuffer("HUD Vertices", uint64(len(data)), wgpu.BufferUsageVertex, h.gpu)
		if err != nil {
			h.vertexBuffer = nil
			h.vertexCount = 0
			return err
		}
		h.vertexBuffer = buffer
	}
	return h.gpu.queue.WriteBuffer(h.vertexBuffer, 0, data)
}

func (h *wgpuHudPass) draw(pass *wgpu.RenderPassEncoder) {
	if h.vertexCount == 0 || h.vertexBuffer == nil {
		return
	}
	pass.SetPipeline(h.pipeline)
	pass.SetBindGroup(0, h.bindGroup, nil)
	pass.SetVertexBuffer(0, h.vertexBuffer, 0, wgpu.WholeSize)
	pass.Draw(h.vertexCount, 1, 0, 0)
}

func (h *wgpuHudPass) release() {
	if h.vertexBuffer != nil {
		h.vertexBuffer.Release()
	}
	if h.bindGroup != nil {
		h.bindGroup.Release()
	}
	if h.pipeline != nil {
		h.pipeline.Release()
	}
	if h.sampler != nil {
		h.sampler.Release()
	}
	if h.view != nil {
		h.view.Release()
	}
	if h.texture != nil {
		h.texture.Release()
	}
}
