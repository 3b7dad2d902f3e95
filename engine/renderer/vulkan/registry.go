package vulkan

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/lumina3d/lumina/engine/core"
	"github.com/lumina3d/lumina/engine/platform"
)

// ResourceKind tags every destructible handle the engine can own.
type ResourceKind int

const (
	ResourcePlatform ResourceKind = iota
	ResourceWindow
	ResourceInstance
	ResourceDebugMessenger
	ResourceSurface
	ResourceDevice
	ResourceSwapchain
	ResourceCommandPool
	ResourceRenderPass
	ResourceImageView
	ResourceFramebuffer
	ResourceSemaphore
	ResourceFence
	ResourcePipelineLayout
	ResourcePipeline
	ResourceAllocator
	ResourceAllocatedBuffer
	ResourceAllocatedImage
)

func (k ResourceKind) String() string {
	switch k {
	case ResourcePlatform:
		return "platform"
	case ResourceWindow:
		return "window"
	case ResourceInstance:
		return "instance"
	case ResourceDebugMessenger:
		return "debug-messenger"
	case ResourceSurface:
		return "surface"
	case ResourceDevice:
		return "device"
	case ResourceSwapchain:
		return "swapchain"
	case ResourceCommandPool:
		return "command-pool"
	case ResourceRenderPass:
		return "render-pass"
	case ResourceImageView:
		return "image-view"
	case ResourceFramebuffer:
		return "framebuffer"
	case ResourceSemaphore:
		return "semaphore"
	case ResourceFence:
		return "fence"
	case ResourcePipelineLayout:
		return "pipeline-layout"
	case ResourcePipeline:
		return "pipeline"
	case ResourceAllocator:
		return "allocator"
	case ResourceAllocatedBuffer:
		return "allocated-buffer"
	case ResourceAllocatedImage:
		return "allocated-image"
	default:
		return "unknown"
	}
}

// Resource is a tagged union over every destructible handle kind. Each
// variant carries exactly the data its destroy call needs; the unused
// fields stay zero.
type Resource struct {
	Kind ResourceKind

	Platform       *platform.Platform
	Window         *glfw.Window
	Instance       vk.Instance
	DebugMessenger vk.DebugReportCallback
	Surface        vk.Surface
	Device         vk.Device
	Swapchain      vk.Swapchain
	CommandPool    vk.CommandPool
	RenderPass     vk.RenderPass
	ImageView      vk.ImageView
	Framebuffer    vk.Framebuffer
	Semaphore      vk.Semaphore
	Fence          vk.Fence
	PipelineLayout vk.PipelineLayout
	Pipeline       vk.Pipeline
	Allocator      Allocator
	Buffer         AllocatedBuffer
	Image          AllocatedImage
}

func PlatformResource(p *platform.Platform) Resource {
	return Resource{Kind: ResourcePlatform, Platform: p}
}

func WindowResource(w *glfw.Window) Resource {
	return Resource{Kind: ResourceWindow, Window: w}
}

func InstanceResource(i vk.Instance) Resource {
	return Resource{Kind: ResourceInstance, Instance: i}
}

func DebugMessengerResource(m vk.DebugReportCallback) Resource {
	return Resource{Kind: ResourceDebugMessenger, DebugMessenger: m}
}

func SurfaceResource(s vk.Surface) Resource {
	return Resource{Kind: ResourceSurface, Surface: s}
}

func DeviceResource(d vk.Device) Resource {
	return Resource{Kind: ResourceDevice, Device: d}
}

func SwapchainResource(s vk.Swapchain) Resource {
	return Resource{Kind: ResourceSwapchain, Swapchain: s}
}

func CommandPoolResource(p vk.CommandPool) Resource {
	return Resource{Kind: ResourceCommandPool, CommandPool: p}
}

func RenderPassResource(rp vk.RenderPass) Resource {
	return Resource{Kind: ResourceRenderPass, RenderPass: rp}
}

func ImageViewResource(v vk.ImageView) Resource {
	return Resource{Kind: ResourceImageView, ImageView: v}
}

func FramebufferResource(f vk.Framebuffer) Resource {
	return Resource{Kind: ResourceFramebuffer, Framebuffer: f}
}

func SemaphoreResource(s vk.Semaphore) Resource {
	return Resource{Kind: ResourceSemaphore, Semaphore: s}
}

func FenceResource(f vk.Fence) Resource {
	return Resource{Kind: ResourceFence, Fence: f}
}

func PipelineLayoutResource(l vk.PipelineLayout) Resource {
	return Resource{Kind: ResourcePipelineLayout, PipelineLayout: l}
}

func PipelineResource(p vk.Pipeline) Resource {
	return Resource{Kind: ResourcePipeline, Pipeline: p}
}

func AllocatorResource(a Allocator) Resource {
	return Resource{Kind: ResourceAllocator, Allocator: a}
}

func BufferResource(b AllocatedBuffer) Resource {
	return Resource{Kind: ResourceAllocatedBuffer, Buffer: b}
}

func ImageResource(i AllocatedImage) Resource {
	return Resource{Kind: ResourceAllocatedImage, Image: i}
}

// Destructor issues the native destroy call for one resource. The single
// production implementation is vulkanDestructor; tests substitute a
// recorder.
type Destructor interface {
	Destroy(res Resource)
}

// Registry records every allocated handle in acquisition order and releases
// them in strict reverse order on Flush. Later resources may reference
// earlier ones, so the LIFO unwind is a correctness requirement of the
// underlying API, not a style choice.
type Registry struct {
	resources []Resource
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Push appends a resource. O(1); setup-phase only.
func (r *Registry) Push(res Resource) {
	r.resources = append(r.resources, res)
}

// Len reports how many resources are currently queued for destruction.
func (r *Registry) Len() int {
	return len(r.resources)
}

// Flush pops and destroys every queued resource, last-in-first-out. One
// destroy call per handle. Flushing an empty registry is a no-op, and the
// registry stays empty afterwards, so a second Flush does nothing.
func (r *Registry) Flush(dtor Destructor) {
	for i := len(r.resources) - 1; i >= 0; i-- {
		dtor.Destroy(r.resources[i])
	}
	r.resources = r.resources[:0]
}

// NewDestructor builds the production destructor from the three destructor
// contexts every handle kind needs.
func NewDestructor(instance vk.Instance, device vk.Device, allocator Allocator) Destructor {
	return &vulkanDestructor{instance: instance, device: device, allocator: allocator}
}

type vulkanDestructor struct {
	instance  vk.Instance
	device    vk.Device
	allocator Allocator
}

// Destroy maps a resource variant to its native destroy call. The native
// destroys return void, so failures are not observable here; that boundary
// is accepted, not papered over.
func (d *vulkanDestructor) Destroy(res Resource) {
	core.LogDebug("destroying %s", res.Kind)
	switch res.Kind {
	case ResourcePlatform:
		res.Platform.Shutdown()
	case ResourceWindow:
		res.Window.Destroy()
	case ResourceInstance:
		vk.DestroyInstance(res.Instance, nil)
	case ResourceDebugMessenger:
		vk.DestroyDebugReportCallback(d.instance, res.DebugMessenger, nil)
	case ResourceSurface:
		vk.DestroySurface(d.instance, res.Surface, nil)
	case ResourceDevice:
		vk.DestroyDevice(res.Device, nil)
	case ResourceSwapchain:
		vk.DestroySwapchain(d.device, res.Swapchain, nil)
	case ResourceCommandPool:
		vk.DestroyCommandPool(d.device, res.CommandPool, nil)
	case ResourceRenderPass:
		vk.DestroyRenderPass(d.device, res.RenderPass, nil)
	case ResourceImageView:
		vk.DestroyImageView(d.device, res.ImageView, nil)
	case ResourceFramebuffer:
		vk.DestroyFramebuffer(d.device, res.Framebuffer, nil)
	case ResourceSemaphore:
		vk.DestroySemaphore(d.device, res.Semaphore, nil)
	case ResourceFence:
		vk.DestroyFence(d.device, res.Fence, nil)
	case ResourcePipelineLayout:
		vk.DestroyPipelineLayout(d.device, res.PipelineLayout, nil)
	case ResourcePipeline:
		vk.DestroyPipeline(d.device, res.Pipeline, nil)
	case ResourceAllocator:
		res.Allocator.Destroy()
	case ResourceAllocatedBuffer:
		d.allocator.DestroyBuffer(res.Buffer)
	case ResourceAllocatedImage:
		d.allocator.DestroyImage(res.Image)
	default:
		core.LogWarn("registry asked to destroy unknown resource kind %d", res.Kind)
	}
}
