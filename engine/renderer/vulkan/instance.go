package vulkan

import (
	"errors"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/lumina3d/lumina/engine/core"
	"github.com/lumina3d/lumina/engine/platform"
)

// Context holds the instance-level handles every later bootstrap stage
// depends on.
type Context struct {
	Instance       vk.Instance
	DebugMessenger vk.DebugReportCallback
	Surface        vk.Surface
}

// CreateContext loads the loader, creates the instance with the platform's
// required extensions, installs the debug callback when validation is on,
// and creates the window surface. Every handle is pushed onto the registry
// the moment its create call succeeds, so a failure partway through still
// leaves everything created so far flushable.
func CreateContext(p *platform.Platform, appName string, validation bool, registry *Registry) (*Context, error) {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return nil, newBootstrapError("loader", errors.New("Vulkan loader not available"))
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return nil, newBootstrapError("loader", err)
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("Lumina Engine"),
	}

	extensions, err := p.RequiredExtensions()
	if err != nil {
		return nil, newBootstrapError("instance", err)
	}
	if runtime.GOOS == "darwin" {
		extensions = append(extensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
	}

	// The debug-report extension is provided by the validation layer, so
	// both it and the callback are gated on the layer actually enabling.
	layers := []string{}
	if validation {
		layers = availableValidationLayers()
	}
	validation = enableValidation(validation, layers)
	if validation {
		extensions = append(extensions, vk.ExtDebugReportExtensionName)
	}
	core.LogDebug("instance extensions: %v", extensions)

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensions),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     VulkanSafeStrings(layers),
	}
	if runtime.GOOS == "darwin" {
		createInfo.Flags |= 1 // portability enumeration
	}

	ctx := &Context{}
	if res := vk.CreateInstance(&createInfo, nil, &ctx.Instance); !VulkanResultIsSuccess(res) {
		return nil, newBootstrapError("instance", newNativeCallError("vkCreateInstance", res))
	}
	registry.Push(InstanceResource(ctx.Instance))
	if err := vk.InitInstance(ctx.Instance); err != nil {
		return nil, newBootstrapError("instance", err)
	}
	core.LogInfo("Vulkan instance created")

	if validation {
		debugInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		if res := vk.CreateDebugReportCallback(ctx.Instance, &debugInfo, nil, &ctx.DebugMessenger); !VulkanResultIsSuccess(res) {
			return nil, newBootstrapError("debug-messenger", newNativeCallError("vkCreateDebugReportCallbackEXT", res))
		}
		registry.Push(DebugMessengerResource(ctx.DebugMessenger))
		core.LogDebug("Vulkan debug messenger installed")
	}

	surface, err := p.CreateSurface(ctx.Instance)
	if err != nil {
		return nil, newBootstrapError("surface", err)
	}
	ctx.Surface = surface
	registry.Push(SurfaceResource(ctx.Surface))
	core.LogDebug("window surface created")

	return ctx, nil
}

// enableValidation downgrades a validation request when no validation
// layer is available, since the debug-report extension comes from the
// layer and enabling it alone fails instance creation.
func enableValidation(requested bool, layers []string) bool {
	return requested && len(layers) > 0
}

// availableValidationLayers returns the Khronos validation layer if it is
// installed. A missing layer downgrades to no validation instead of
// failing bootstrap.
func availableValidationLayers() []string {
	const khronos = "VK_LAYER_KHRONOS_validation"

	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); !VulkanResultIsSuccess(res) {
		return nil
	}
	layers := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, layers); !VulkanResultIsSuccess(res) {
		return nil
	}
	for i := range layers {
		layers[i].Deref()
		if vk.ToString(layers[i].LayerName[:]) == khronos {
			return []string{khronos}
		}
	}
	core.LogWarn("validation requested but %s is not installed", khronos)
	return nil
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint64, messageCode int32,
	pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("performance: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
