package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/lumina3d/lumina/engine/core"
)

// FrameSync holds the synchronization primitives for the single in-flight
// frame. The render fence starts signaled so the very first frame does not
// deadlock waiting on work that was never submitted.
type FrameSync struct {
	// RenderFence is signaled when the GPU finishes the frame's submission.
	RenderFence vk.Fence
	// PresentSemaphore is signaled by the swapchain when an image is
	// acquired, waited on by the graphics submit.
	PresentSemaphore vk.Semaphore
	// RenderSemaphore is signaled by the graphics submit, waited on by
	// present.
	RenderSemaphore vk.Semaphore
}

// CreateFrameSync builds the fence (pre-signaled) and the two semaphores
// and pushes all three onto the registry.
func CreateFrameSync(dev *Device, registry *Registry) (*FrameSync, error) {
	fenceInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}

	fs := &FrameSync{}
	if res := vk.CreateFence(dev.Logical, &fenceInfo, nil, &fs.RenderFence); !VulkanResultIsSuccess(res) {
		return nil, newBootstrapError("sync", newNativeCallError("vkCreateFence", res))
	}
	registry.Push(FenceResource(fs.RenderFence))

	semaphoreInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	if res := vk.CreateSemaphore(dev.Logical, &semaphoreInfo, nil, &fs.PresentSemaphore); !VulkanResultIsSuccess(res) {
		return nil, newBootstrapError("sync", newNativeCallError("vkCreateSemaphore", res))
	}
	registry.Push(SemaphoreResource(fs.PresentSemaphore))

	if res := vk.CreateSemaphore(dev.Logical, &semaphoreInfo, nil, &fs.RenderSemaphore); !VulkanResultIsSuccess(res) {
		return nil, newBootstrapError("sync", newNativeCallError("vkCreateSemaphore", res))
	}
	registry.Push(SemaphoreResource(fs.RenderSemaphore))

	core.LogDebug("frame sync primitives created")
	return fs, nil
}
