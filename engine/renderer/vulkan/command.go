package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/lumina3d/lumina/engine/core"
)

// CommandState is the pool and the single primary command buffer the frame
// loop re-records every frame. The pool allows per-buffer reset so the
// buffer can be begun with one-time-submit each time.
type CommandState struct {
	Pool   vk.CommandPool
	Buffer vk.CommandBuffer
}

// CreateCommandState builds a resettable pool on the graphics family and
// allocates one primary buffer from it. The pool goes onto the registry;
// the buffer is freed implicitly with its pool.
func CreateCommandState(dev *Device, registry *Registry) (*CommandState, error) {
	poolInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: dev.GraphicsQueueIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}

	cs := &CommandState{}
	if res := vk.CreateCommandPool(dev.Logical, &poolInfo, nil, &cs.Pool); !VulkanResultIsSuccess(res) {
		return nil, newBootstrapError("command-pool", newNativeCallError("vkCreateCommandPool", res))
	}
	registry.Push(CommandPoolResource(cs.Pool))

	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        cs.Pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	buffers := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(dev.Logical, &allocInfo, buffers); !VulkanResultIsSuccess(res) {
		return nil, newBootstrapError("command-buffer", newNativeCallError("vkAllocateCommandBuffers", res))
	}
	cs.Buffer = buffers[0]

	core.LogDebug("command pool and primary buffer ready")
	return cs, nil
}
