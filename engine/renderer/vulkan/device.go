package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/lumina3d/lumina/engine/core"
)

// Device bundles the selected physical device, the logical device built on
// it, and the queues the renderer submits to. GraphicsQueue and
// PresentQueue may alias the same underlying queue.
type Device struct {
	Physical vk.PhysicalDevice
	Logical  vk.Device

	GraphicsQueueIndex uint32
	PresentQueueIndex  uint32
	GraphicsQueue      vk.Queue
	PresentQueue       vk.Queue

	Properties vk.PhysicalDeviceProperties
	MemProps   vk.PhysicalDeviceMemoryProperties
}

// QueuesShareFamily reports whether graphics and present come from the same
// queue family. The swapchain switches to concurrent sharing when they do
// not.
func (d *Device) QueuesShareFamily() bool {
	return d.GraphicsQueueIndex == d.PresentQueueIndex
}

// CreateDevice picks a physical device that can render to the surface,
// builds a logical device with one graphics and one present queue (merged
// into a single queue create info when the families coincide), and fetches
// the queue handles. The logical device is pushed onto the registry.
func CreateDevice(ctx *Context, registry *Registry) (*Device, error) {
	dev, err := selectPhysicalDevice(ctx)
	if err != nil {
		return nil, err
	}

	core.LogInfo("creating logical device on %s", vk.ToString(dev.Properties.DeviceName[:]))

	indices := []uint32{dev.GraphicsQueueIndex}
	if !dev.QueuesShareFamily() {
		indices = append(indices, dev.PresentQueueIndex)
	}

	queueInfos := make([]vk.DeviceQueueCreateInfo, len(indices))
	for i, family := range indices {
		queueInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	extensions := []string{vk.KhrSwapchainExtensionName}
	if devicePortabilityRequired(dev.Physical) {
		extensions = append(extensions, "VK_KHR_portability_subset")
	}

	createInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensions),
	}

	if res := vk.CreateDevice(dev.Physical, &createInfo, nil, &dev.Logical); !VulkanResultIsSuccess(res) {
		return nil, newBootstrapError("device", newNativeCallError("vkCreateDevice", res))
	}
	registry.Push(DeviceResource(dev.Logical))

	vk.GetDeviceQueue(dev.Logical, dev.GraphicsQueueIndex, 0, &dev.GraphicsQueue)
	vk.GetDeviceQueue(dev.Logical, dev.PresentQueueIndex, 0, &dev.PresentQueue)
	core.LogInfo("logical device and queues ready (graphics family %d, present family %d)",
		dev.GraphicsQueueIndex, dev.PresentQueueIndex)

	return dev, nil
}

// selectPhysicalDevice walks the enumerated devices and returns the first
// one offering a graphics queue family and a present-capable family for
// the surface. Discrete GPUs win over integrated when both qualify.
func selectPhysicalDevice(ctx *Context) (*Device, error) {
	var count uint32
	if res := vk.EnumeratePhysicalDevices(ctx.Instance, &count, nil); !VulkanResultIsSuccess(res) {
		return nil, newBootstrapError("physical-device", newNativeCallError("vkEnumeratePhysicalDevices", res))
	}
	if count == 0 {
		return nil, newBootstrapError("physical-device", ErrNoSuitableGPU)
	}
	devices := make([]vk.PhysicalDevice, count)
	if res := vk.EnumeratePhysicalDevices(ctx.Instance, &count, devices); !VulkanResultIsSuccess(res) {
		return nil, newBootstrapError("physical-device", newNativeCallError("vkEnumeratePhysicalDevices", res))
	}

	var picked *Device
	for _, physical := range devices {
		var props vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(physical, &props)
		props.Deref()

		graphics, present, ok := findQueueFamilies(physical, ctx.Surface)
		if !ok {
			core.LogDebug("skipping %s: missing graphics or present queue", vk.ToString(props.DeviceName[:]))
			continue
		}

		candidate := &Device{
			Physical:           physical,
			GraphicsQueueIndex: graphics,
			PresentQueueIndex:  present,
			Properties:         props,
		}
		vk.GetPhysicalDeviceMemoryProperties(physical, &candidate.MemProps)
		candidate.MemProps.Deref()

		if props.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
			return candidate, nil
		}
		if picked == nil {
			picked = candidate
		}
	}
	if picked == nil {
		return nil, newBootstrapError("physical-device", ErrNoSuitableGPU)
	}
	return picked, nil
}

// findQueueFamilies locates a graphics-capable family and a family that can
// present to the surface. They are searched independently and may differ.
func findQueueFamilies(physical vk.PhysicalDevice, surface vk.Surface) (graphics, present uint32, ok bool) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(physical, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(physical, &count, families)

	foundGraphics, foundPresent := false, false
	for i := range families {
		families[i].Deref()
		if !foundGraphics && families[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			graphics = uint32(i)
			foundGraphics = true
		}
		var supported vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(physical, uint32(i), surface, &supported)
		if !foundPresent && supported == vk.True {
			present = uint32(i)
			foundPresent = true
		}
		if foundGraphics && foundPresent {
			break
		}
	}
	return graphics, present, foundGraphics && foundPresent
}

func devicePortabilityRequired(physical vk.PhysicalDevice) bool {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(physical, "", &count, nil); !VulkanResultIsSuccess(res) || count == 0 {
		return false
	}
	available := make([]vk.ExtensionProperties, count)
	if res := vk.EnumerateDeviceExtensionProperties(physical, "", &count, available); !VulkanResultIsSuccess(res) {
		return false
	}
	for i := range available {
		available[i].Deref()
		if vk.ToString(available[i].ExtensionName[:]) == "VK_KHR_portability_subset" {
			return true
		}
	}
	return false
}
