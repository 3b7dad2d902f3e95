package engine

import (
	"path/filepath"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/lumina3d/lumina/engine/assets"
	"github.com/lumina3d/lumina/engine/core"
	"github.com/lumina3d/lumina/engine/mesh"
	"github.com/lumina3d/lumina/engine/platform"
	"github.com/lumina3d/lumina/engine/renderer/vulkan"
)

// pipelineKind selects which of the three pipelines the next frame binds.
type pipelineKind int

const (
	pipelineMesh pipelineKind = iota
	pipelineColoredTriangle
	pipelineRedTriangle
	pipelineCount
)

// Engine owns everything from the window to the frame loop. All handles it
// creates are registered for teardown as they appear, so Cleanup releases a
// partially initialized engine just as well as a fully running one.
type Engine struct {
	config   Config
	platform *platform.Platform
	registry *vulkan.Registry
	watcher  *assets.Watcher
	clock    *core.Clock

	ctx       *vulkan.Context
	device    *vulkan.Device
	allocator vulkan.Allocator
	swapchain *vulkan.Swapchain
	frameLoop *vulkan.FrameLoop

	coloredTrianglePipeline vk.Pipeline
	redTrianglePipeline     vk.Pipeline
	meshPipeline            vk.Pipeline
	meshPipelineLayout      vk.PipelineLayout
	selected                pipelineKind

	triangleMesh *mesh.Mesh
	monkeyMesh   *mesh.Mesh

	initialized bool
	running     bool
}

func New(cfg Config) *Engine {
	return &Engine{
		config:   cfg,
		platform: platform.New(),
		registry: vulkan.NewRegistry(),
		clock:    core.NewClock(),
		selected: pipelineMesh,
	}
}

// Init stands up the window, the whole Vulkan stack, the pipelines and the
// meshes, in dependency order. On any failure the registry still holds
// everything created so far; the caller runs Cleanup either way.
func (e *Engine) Init() error {
	core.MetricsInitialize()

	if err := e.platform.Startup(e.config.Title, 0, 0, e.config.Width, e.config.Height); err != nil {
		return err
	}
	e.registry.Push(vulkan.PlatformResource(e.platform))
	e.registry.Push(vulkan.WindowResource(e.platform.Window))

	ctx, err := vulkan.CreateContext(e.platform, e.config.Title, e.config.ValidationEnabled, e.registry)
	if err != nil {
		return err
	}
	e.ctx = ctx

	dev, err := vulkan.CreateDevice(ctx, e.registry)
	if err != nil {
		return err
	}
	e.device = dev

	e.allocator = vulkan.NewAllocator(dev.Physical, dev.Logical)
	e.registry.Push(vulkan.AllocatorResource(e.allocator))

	sc, err := vulkan.CreateSwapchain(ctx, dev, vulkan.SwapchainOptions{
		Width:         e.config.Width,
		Height:        e.config.Height,
		PreferMailbox: e.config.PreferMailbox,
	}, e.registry)
	if err != nil {
		return err
	}
	e.swapchain = sc

	cmd, err := vulkan.CreateCommandState(dev, e.registry)
	if err != nil {
		return err
	}

	renderPass, err := vulkan.CreateRenderPass(dev, sc.Format.Format, e.registry)
	if err != nil {
		return err
	}

	framebuffers, err := vulkan.CreateFramebuffers(dev, renderPass, sc, e.registry)
	if err != nil {
		return err
	}

	frameSync, err := vulkan.CreateFrameSync(dev, e.registry)
	if err != nil {
		return err
	}

	if err := e.initPipelines(renderPass); err != nil {
		return err
	}

	if err := e.loadMeshes(); err != nil {
		return err
	}

	e.frameLoop = vulkan.NewFrameLoop(
		vulkan.NewDeviceOps(dev.Logical),
		dev, sc, renderPass, framebuffers, cmd, frameSync,
	)

	if watcher, err := assets.NewWatcher(); err == nil {
		e.watcher = watcher
		if err := watcher.Watch(e.config.ShaderDirectory); err != nil {
			core.LogWarn("shader watch failed: %s", err.Error())
		}
	} else {
		core.LogWarn("shader watcher unavailable: %s", err.Error())
	}

	e.initialized = true
	core.LogInfo("engine initialized")
	return nil
}

// initPipelines compiles the two hardcoded-triangle pipelines and the mesh
// pipeline. Shader modules are destroyed as soon as their pipelines are
// built; only the pipelines themselves outlive this function.
func (e *Engine) initPipelines(renderPass vk.RenderPass) error {
	device := e.device.Logical
	dir := e.config.ShaderDirectory

	modules := make([]vk.ShaderModule, 0, 5)
	defer func() {
		for _, m := range modules {
			vk.DestroyShaderModule(device, m, nil)
		}
	}()
	load := func(name string) (vk.ShaderModule, error) {
		m, err := vulkan.LoadShaderModule(device, filepath.Join(dir, name))
		if err != nil {
			return vk.NullShaderModule, err
		}
		modules = append(modules, m)
		return m, nil
	}

	coloredVert, err := load("colored_triangle.vert.spv")
	if err != nil {
		return err
	}
	coloredFrag, err := load("colored_triangle.frag.spv")
	if err != nil {
		return err
	}
	redVert, err := load("triangle.vert.spv")
	if err != nil {
		return err
	}
	redFrag, err := load("triangle.frag.spv")
	if err != nil {
		return err
	}
	meshVert, err := load("tri_mesh.vert.spv")
	if err != nil {
		return err
	}

	triangleLayout, err := vulkan.CreateEmptyPipelineLayout(device, e.registry)
	if err != nil {
		return err
	}
	pushSize := uint32(unsafe.Sizeof(vulkan.MeshPushConstants{}))
	meshLayout, err := vulkan.CreatePushConstantPipelineLayout(device, pushSize, e.registry)
	if err != nil {
		return err
	}
	e.meshPipelineLayout = meshLayout

	trianglePipeline := func(vert, frag vk.ShaderModule) (vk.Pipeline, error) {
		return vulkan.NewPipelineBuilder().
			AddShaderStage(vk.ShaderStageVertexBit, vert).
			AddShaderStage(vk.ShaderStageFragmentBit, frag).
			WithVertexInput(nil, nil).
			WithTopology(vk.PrimitiveTopologyTriangleList).
			WithViewport(e.swapchain.Extent).
			WithPolygonMode(vk.PolygonModeFill).
			WithNoBlending().
			WithNoMultisampling().
			WithLayout(triangleLayout).
			Build(device, renderPass, e.registry)
	}

	if e.coloredTrianglePipeline, err = trianglePipeline(coloredVert, coloredFrag); err != nil {
		return err
	}
	if e.redTrianglePipeline, err = trianglePipeline(redVert, redFrag); err != nil {
		return err
	}

	vertexDesc := mesh.GetVertexDescription()
	e.meshPipeline, err = vulkan.NewPipelineBuilder().
		AddShaderStage(vk.ShaderStageVertexBit, meshVert).
		AddShaderStage(vk.ShaderStageFragmentBit, coloredFrag).
		WithVertexInput(vertexDesc.Bindings, vertexDesc.Attributes).
		WithTopology(vk.PrimitiveTopologyTriangleList).
		WithViewport(e.swapchain.Extent).
		WithPolygonMode(vk.PolygonModeFill).
		WithNoBlending().
		WithNoMultisampling().
		WithLayout(meshLayout).
		Build(device, renderPass, e.registry)
	return err
}

func (e *Engine) loadMeshes() error {
	e.triangleMesh = mesh.NewTriangle()
	if err := e.triangleMesh.Upload(e.allocator, e.registry); err != nil {
		return err
	}

	monkey, err := mesh.LoadGLTF(e.config.AssetPath)
	if err != nil {
		return err
	}
	if err := monkey.Upload(e.allocator, e.registry); err != nil {
		return err
	}
	e.monkeyMesh = monkey
	return nil
}

// Run drives the frame loop until a quit event, Escape, or a fatal frame
// error. Space cycles the bound pipeline.
func (e *Engine) Run() error {
	if !e.initialized {
		return nil
	}
	e.running = true
	e.clock.Start()
	e.clock.Update()
	lastTime := e.clock.Elapsed()

	for e.running {
		for _, event := range e.platform.PollEvents() {
			switch event.Type {
			case platform.EventQuit:
				e.running = false
			case platform.EventKeyDown:
				e.onKey(event.Key)
			}
		}
		if !e.running {
			break
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - lastTime
		lastTime = currentTime

		if err := e.frameLoop.Draw(e.framePacket()); err != nil {
			core.LogError("frame %d failed: %s", e.frameLoop.FrameNumber(), err.Error())
			e.running = false
			return err
		}
		core.MetricsUpdate(delta)
	}

	core.LogInfo("run loop exited after %d frames (avg %.1f fps)",
		e.frameLoop.FrameNumber(), core.MetricsFPS())
	return nil
}

func (e *Engine) onKey(key glfw.Key) {
	switch key {
	case glfw.KeyEscape:
		e.running = false
	case glfw.KeySpace:
		e.selected = (e.selected + 1) % pipelineCount
		core.LogDebug("switched to pipeline %d", e.selected)
	}
}

// framePacket pairs the selected pipeline with its draw data. The triangle
// pipelines generate vertices in the shader and carry no mesh.
func (e *Engine) framePacket() vulkan.FramePacket {
	switch e.selected {
	case pipelineColoredTriangle:
		return vulkan.FramePacket{Pipeline: e.coloredTrianglePipeline}
	case pipelineRedTriangle:
		return vulkan.FramePacket{Pipeline: e.redTrianglePipeline}
	default:
		return vulkan.FramePacket{
			Pipeline: e.meshPipeline,
			Layout:   e.meshPipelineLayout,
			Mesh: &vulkan.DrawMesh{
				Buffer:      e.monkeyMesh.VertexBuffer.Buffer,
				VertexCount: e.monkeyMesh.VertexCount(),
			},
		}
	}
}

// Cleanup drains the device and flushes the registry. Safe to call on a
// never-initialized or partially initialized engine, and safe to call
// twice.
func (e *Engine) Cleanup() {
	if e.watcher != nil {
		e.watcher.Close()
		e.watcher = nil
	}
	if e.frameLoop != nil {
		if err := e.frameLoop.WaitIdle(); err != nil {
			core.LogWarn("device wait before teardown failed: %s", err.Error())
		}
	}

	var instance vk.Instance
	var logical vk.Device
	if e.ctx != nil {
		instance = e.ctx.Instance
	}
	if e.device != nil {
		logical = e.device.Logical
	}
	e.registry.Flush(vulkan.NewDestructor(instance, logical, e.allocator))
	core.LogInfo("engine shut down")
}
