package vulkan

import (
	"math"
	"time"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
)

// FrameTimeout bounds the fence wait and the image acquire. Exceeding it
// means the GPU or the presentation engine has stalled; the frame loop
// surfaces that as an error rather than hanging forever.
const FrameTimeout = uint64(time.Second)

// MeshPushConstants is the vertex-stage push constant block. Layout must
// match the shader: 16 bytes of spare data followed by the column-major
// transform.
type MeshPushConstants struct {
	Data         mgl32.Vec4
	RenderMatrix mgl32.Mat4
}

// DrawMesh is one vertex buffer draw. The frame loop binds the buffer at
// offset zero and draws VertexCount vertices in a single instance.
type DrawMesh struct {
	Buffer      vk.Buffer
	VertexCount uint32
}

// FramePacket is everything Draw needs for one frame: the pipeline to
// bind and, for mesh pipelines, the geometry and push constant layout.
// Mesh and Layout are nil/null for the hardcoded-triangle pipelines.
type FramePacket struct {
	Pipeline vk.Pipeline
	Layout   vk.PipelineLayout
	Mesh     *DrawMesh
}

// FrameLoop owns the per-frame state machine: wait for the previous frame's
// fence, acquire an image, re-record the command buffer, submit, present.
// A single frame is in flight at a time.
type FrameLoop struct {
	ops          DeviceOps
	graphicsQ    vk.Queue
	presentQ     vk.Queue
	swapchain    *Swapchain
	renderPass   vk.RenderPass
	framebuffers []vk.Framebuffer
	cmd          *CommandState
	sync         *FrameSync

	// record re-records the command buffer for one frame. Tests replace it
	// to keep the loop free of native calls.
	record func(imageIndex uint32, packet FramePacket) error

	frameNumber uint64
}

func NewFrameLoop(ops DeviceOps, dev *Device, sc *Swapchain, renderPass vk.RenderPass,
	framebuffers []vk.Framebuffer, cmd *CommandState, sync *FrameSync) *FrameLoop {
	fl := &FrameLoop{
		ops:          ops,
		graphicsQ:    dev.GraphicsQueue,
		presentQ:     dev.PresentQueue,
		swapchain:    sc,
		renderPass:   renderPass,
		framebuffers: framebuffers,
		cmd:          cmd,
		sync:         sync,
	}
	fl.record = fl.recordCommands
	return fl
}

// FrameNumber returns the count of frames fully submitted so far.
func (f *FrameLoop) FrameNumber() uint64 {
	return f.frameNumber
}

// Draw runs one frame. The fence wait at the top guarantees the command
// buffer from the previous frame is no longer executing before it is
// reset and re-recorded. The frame counter only advances after present is
// enqueued, so a failed frame is never counted.
func (f *FrameLoop) Draw(packet FramePacket) error {
	// Timeout is a non-error result code, but a fence that takes longer
	// than FrameTimeout means the GPU stalled; only a clean signal passes.
	if res := f.ops.WaitForFence(f.sync.RenderFence, FrameTimeout); res != vk.Success {
		return newNativeCallError("vkWaitForFences", res)
	}
	if res := f.ops.ResetFence(f.sync.RenderFence); !VulkanResultIsSuccess(res) {
		return newNativeCallError("vkResetFences", res)
	}

	imageIndex, res := f.ops.AcquireNextImage(f.swapchain.Handle, FrameTimeout, f.sync.PresentSemaphore)
	if res != vk.Success && res != vk.Suboptimal {
		return newNativeCallError("vkAcquireNextImageKHR", res)
	}

	if res := f.ops.ResetCommandBuffer(f.cmd.Buffer); !VulkanResultIsSuccess(res) {
		return newNativeCallError("vkResetCommandBuffer", res)
	}
	if err := f.record(imageIndex, packet); err != nil {
		return err
	}

	submit := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{f.sync.PresentSemaphore},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{f.cmd.Buffer},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{f.sync.RenderSemaphore},
	}
	if res := f.ops.QueueSubmit(f.graphicsQ, submit, f.sync.RenderFence); !VulkanResultIsSuccess(res) {
		return newNativeCallError("vkQueueSubmit", res)
	}

	present := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{f.sync.RenderSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{f.swapchain.Handle},
		PImageIndices:      []uint32{imageIndex},
	}
	if res := f.ops.QueuePresent(f.presentQ, &present); !VulkanResultIsSuccess(res) {
		return newNativeCallError("vkQueuePresentKHR", res)
	}

	f.frameNumber++
	return nil
}

// WaitIdle blocks until the device drains. Called before teardown so no
// queued work references handles the registry is about to destroy.
func (f *FrameLoop) WaitIdle() error {
	if res := f.ops.WaitIdle(); !VulkanResultIsSuccess(res) {
		return newNativeCallError("vkDeviceWaitIdle", res)
	}
	return nil
}

func (f *FrameLoop) recordCommands(imageIndex uint32, packet FramePacket) error {
	cmd := f.cmd.Buffer

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if res := vk.BeginCommandBuffer(cmd, &beginInfo); !VulkanResultIsSuccess(res) {
		return newNativeCallError("vkBeginCommandBuffer", res)
	}

	clearValue := clearColorForFrame(f.frameNumber)
	rpInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  f.renderPass,
		Framebuffer: f.framebuffers[imageIndex],
		RenderArea: vk.Rect2D{
			Extent: f.swapchain.Extent,
		},
		ClearValueCount: 1,
		PClearValues:    []vk.ClearValue{clearValue},
	}
	vk.CmdBeginRenderPass(cmd, &rpInfo, vk.SubpassContentsInline)

	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, packet.Pipeline)

	if packet.Mesh != nil {
		vk.CmdBindVertexBuffers(cmd, 0, 1, []vk.Buffer{packet.Mesh.Buffer}, []vk.DeviceSize{0})

		constants := MeshPushConstants{
			RenderMatrix: renderMatrixForFrame(f.frameNumber, f.swapchain.Extent),
		}
		vk.CmdPushConstants(cmd, packet.Layout,
			vk.ShaderStageFlags(vk.ShaderStageVertexBit),
			0, uint32(unsafe.Sizeof(constants)), unsafe.Pointer(&constants))

		vk.CmdDraw(cmd, packet.Mesh.VertexCount, 1, 0, 0)
	} else {
		vk.CmdDraw(cmd, 3, 1, 0, 0)
	}

	vk.CmdEndRenderPass(cmd)
	if res := vk.EndCommandBuffer(cmd); !VulkanResultIsSuccess(res) {
		return newNativeCallError("vkEndCommandBuffer", res)
	}
	return nil
}

// clearColorForFrame pulses the blue channel with a 120-frame period.
func clearColorForFrame(frame uint64) vk.ClearValue {
	flash := float32(math.Abs(math.Sin(float64(frame) / 120.0)))
	var clear vk.ClearValue
	clear.SetColor([]float32{0.0, 0.0, flash, 1.0})
	return clear
}

// renderMatrixForFrame composes projection * view * model: a fixed camera
// two units back, a perspective projection with flipped Y for the
// downward-pointing clip space, and a model spun one degree per frame
// around the vertical axis.
func renderMatrixForFrame(frame uint64, extent vk.Extent2D) mgl32.Mat4 {
	view := mgl32.Translate3D(0.0, 0.0, -2.0)
	aspect := float32(extent.Width) / float32(extent.Height)
	projection := mgl32.Perspective(mgl32.DegToRad(70.0), aspect, 0.1, 200.0)
	projection[5] *= -1
	model := mgl32.HomogRotate3D(mgl32.DegToRad(float32(frame)), mgl32.Vec3{0, 1, 0})
	return projection.Mul4(view).Mul4(model)
}
