package vulkan

import (
	vk "github.com/goki/vulkan"
)

// DeviceOps is the slice of device calls the frame loop makes every frame.
// The production implementation forwards to the loader; tests drive the
// loop with a scripted double instead of a GPU.
type DeviceOps interface {
	WaitForFence(fence vk.Fence, timeoutNS uint64) vk.Result
	ResetFence(fence vk.Fence) vk.Result
	AcquireNextImage(swapchain vk.Swapchain, timeoutNS uint64, signal vk.Semaphore) (uint32, vk.Result)
	ResetCommandBuffer(cmd vk.CommandBuffer) vk.Result
	QueueSubmit(queue vk.Queue, submit vk.SubmitInfo, fence vk.Fence) vk.Result
	QueuePresent(queue vk.Queue, present *vk.PresentInfo) vk.Result
	WaitIdle() vk.Result
}

type deviceOps struct {
	device vk.Device
}

// NewDeviceOps wraps a logical device in the frame-loop call surface.
func NewDeviceOps(device vk.Device) DeviceOps {
	return &deviceOps{device: device}
}

func (d *deviceOps) WaitForFence(fence vk.Fence, timeoutNS uint64) vk.Result {
	return vk.WaitForFences(d.device, 1, []vk.Fence{fence}, vk.True, timeoutNS)
}

func (d *deviceOps) ResetFence(fence vk.Fence) vk.Result {
	return vk.ResetFences(d.device, 1, []vk.Fence{fence})
}

func (d *deviceOps) AcquireNextImage(swapchain vk.Swapchain, timeoutNS uint64, signal vk.Semaphore) (uint32, vk.Result) {
	var index uint32
	res := vk.AcquireNextImage(d.device, swapchain, timeoutNS, signal, vk.NullFence, &index)
	return index, res
}

func (d *deviceOps) ResetCommandBuffer(cmd vk.CommandBuffer) vk.Result {
	return vk.ResetCommandBuffer(cmd, 0)
}

func (d *deviceOps) QueueSubmit(queue vk.Queue, submit vk.SubmitInfo, fence vk.Fence) vk.Result {
	return vk.QueueSubmit(queue, 1, []vk.SubmitInfo{submit}, fence)
}

func (d *deviceOps) QueuePresent(queue vk.Queue, present *vk.PresentInfo) vk.Result {
	return vk.QueuePresent(queue, present)
}

func (d *deviceOps) WaitIdle() vk.Result {
	return vk.DeviceWaitIdle(d.device)
}
