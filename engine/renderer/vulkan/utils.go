package vulkan

import (
	vk "github.com/goki/vulkan"
	"golang.org/x/exp/constraints"
)

// VulkanResultString names a VkResult; with getExtended the Vulkan
// reference description is appended for the codes the engine can hit.
func VulkanResultString(result vk.Result, getExtended bool) string {
	short, extended := resultStrings(result)
	if getExtended && extended != "" {
		return short + " " + extended
	}
	return short
}

func resultStrings(result vk.Result) (string, string) {
	switch result {
	case vk.Success:
		return "VK_SUCCESS", "Command successfully completed"
	case vk.NotReady:
		return "VK_NOT_READY", "A fence or query has not yet completed"
	case vk.Timeout:
		return "VK_TIMEOUT", "A wait operation has not completed in the specified time"
	case vk.Incomplete:
		return "VK_INCOMPLETE", "A return array was too small for the result"
	case vk.Suboptimal:
		return "VK_SUBOPTIMAL_KHR", "The swapchain no longer matches the surface properties exactly, but can still present"
	case vk.ErrorOutOfHostMemory:
		return "VK_ERROR_OUT_OF_HOST_MEMORY", "A host memory allocation has failed"
	case vk.ErrorOutOfDeviceMemory:
		return "VK_ERROR_OUT_OF_DEVICE_MEMORY", "A device memory allocation has failed"
	case vk.ErrorInitializationFailed:
		return "VK_ERROR_INITIALIZATION_FAILED", "Initialization of an object could not be completed"
	case vk.ErrorDeviceLost:
		return "VK_ERROR_DEVICE_LOST", "The logical or physical device has been lost"
	case vk.ErrorMemoryMapFailed:
		return "VK_ERROR_MEMORY_MAP_FAILED", "Mapping of a memory object has failed"
	case vk.ErrorLayerNotPresent:
		return "VK_ERROR_LAYER_NOT_PRESENT", "A requested layer is not present or could not be loaded"
	case vk.ErrorExtensionNotPresent:
		return "VK_ERROR_EXTENSION_NOT_PRESENT", "A requested extension is not supported"
	case vk.ErrorFeatureNotPresent:
		return "VK_ERROR_FEATURE_NOT_PRESENT", "A requested feature is not supported"
	case vk.ErrorIncompatibleDriver:
		return "VK_ERROR_INCOMPATIBLE_DRIVER", "The requested version of Vulkan is not supported by the driver"
	case vk.ErrorFormatNotSupported:
		return "VK_ERROR_FORMAT_NOT_SUPPORTED", "A requested format is not supported on this device"
	case vk.ErrorSurfaceLost:
		return "VK_ERROR_SURFACE_LOST_KHR", "A surface is no longer available"
	case vk.ErrorNativeWindowInUse:
		return "VK_ERROR_NATIVE_WINDOW_IN_USE_KHR", "The requested window is already in use by Vulkan or another API"
	case vk.ErrorOutOfDate:
		return "VK_ERROR_OUT_OF_DATE_KHR", "The surface has changed and is no longer compatible with the swapchain"
	case vk.ErrorInvalidShaderNv:
		return "VK_ERROR_INVALID_SHADER_NV", "One or more shaders failed to compile or link"
	case vk.ErrorUnknown:
		return "VK_ERROR_UNKNOWN", "An unknown error has occurred"
	default:
		return "VK_RESULT_UNRECOGNIZED", ""
	}
}

// VulkanResultIsSuccess reports whether the result is one of the
// non-error codes.
func VulkanResultIsSuccess(result vk.Result) bool {
	switch result {
	case vk.ErrorOutOfHostMemory, vk.ErrorOutOfDeviceMemory, vk.ErrorInitializationFailed,
		vk.ErrorDeviceLost, vk.ErrorMemoryMapFailed, vk.ErrorLayerNotPresent,
		vk.ErrorExtensionNotPresent, vk.ErrorFeatureNotPresent, vk.ErrorIncompatibleDriver,
		vk.ErrorTooManyObjects, vk.ErrorFormatNotSupported, vk.ErrorFragmentedPool,
		vk.ErrorSurfaceLost, vk.ErrorNativeWindowInUse, vk.ErrorOutOfDate, vk.ErrorIncompatibleDisplay,
		vk.ErrorInvalidShaderNv, vk.ErrorOutOfPoolMemory, vk.ErrorInvalidExternalHandle,
		vk.ErrorFragmentation, vk.ErrorInvalidDeviceAddress, vk.ErrorFullScreenExclusiveModeLost,
		vk.ErrorUnknown:
		return false
	default:
		return true
	}
}

func clamp[T constraints.Ordered](value, min, max T) T {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

var end = "\x00"
var endChar byte = '\x00'

// VulkanSafeString null-terminates s for handoff to the C API.
func VulkanSafeString(s string) string {
	if len(s) == 0 {
		return end
	}
	if s[len(s)-1] != endChar {
		return s + end
	}
	return s
}

func VulkanSafeStrings(list []string) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = VulkanSafeString(list[i])
	}
	return out
}
