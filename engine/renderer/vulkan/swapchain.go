package vulkan

import (
	"math"

	vk "github.com/goki/vulkan"

	"github.com/lumina3d/lumina/engine/core"
)

// Swapchain wraps the presentable image chain and the views the
// framebuffers attach to.
type Swapchain struct {
	Handle vk.Swapchain
	Images []vk.Image
	Views  []vk.ImageView
	Format vk.SurfaceFormat
	Extent vk.Extent2D
}

// SwapchainOptions tune swapchain creation. The zero value requests the
// windowed FIFO default.
type SwapchainOptions struct {
	Width         uint32
	Height        uint32
	PreferMailbox bool
}

// CreateSwapchain builds the swapchain for the surface. Format preference
// is B8G8R8A8 sRGB, falling back to whatever the surface reports first.
// Present mode is FIFO unless mailbox is both preferred and available.
// When graphics and present families differ the images use concurrent
// sharing. The swapchain and every image view are pushed onto the registry.
func CreateSwapchain(ctx *Context, dev *Device, opts SwapchainOptions, registry *Registry) (*Swapchain, error) {
	var caps vk.SurfaceCapabilities
	if res := vk.GetPhysicalDeviceSurfaceCapabilities(dev.Physical, ctx.Surface, &caps); !VulkanResultIsSuccess(res) {
		return nil, newBootstrapError("swapchain", newNativeCallError("vkGetPhysicalDeviceSurfaceCapabilitiesKHR", res))
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	format, err := chooseSurfaceFormat(dev.Physical, ctx.Surface)
	if err != nil {
		return nil, err
	}
	presentMode := choosePresentMode(dev.Physical, ctx.Surface, opts.PreferMailbox)
	extent := chooseExtent(caps, opts.Width, opts.Height)

	imageCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && imageCount > caps.MaxImageCount {
		imageCount = caps.MaxImageCount
	}

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          ctx.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}
	if dev.QueuesShareFamily() {
		createInfo.ImageSharingMode = vk.SharingModeExclusive
	} else {
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{dev.GraphicsQueueIndex, dev.PresentQueueIndex}
	}

	sc := &Swapchain{Format: format, Extent: extent}
	if res := vk.CreateSwapchain(dev.Logical, &createInfo, nil, &sc.Handle); !VulkanResultIsSuccess(res) {
		return nil, newBootstrapError("swapchain", newNativeCallError("vkCreateSwapchainKHR", res))
	}
	registry.Push(SwapchainResource(sc.Handle))

	var count uint32
	if res := vk.GetSwapchainImages(dev.Logical, sc.Handle, &count, nil); !VulkanResultIsSuccess(res) {
		return nil, newBootstrapError("swapchain", newNativeCallError("vkGetSwapchainImagesKHR", res))
	}
	sc.Images = make([]vk.Image, count)
	if res := vk.GetSwapchainImages(dev.Logical, sc.Handle, &count, sc.Images); !VulkanResultIsSuccess(res) {
		return nil, newBootstrapError("swapchain", newNativeCallError("vkGetSwapchainImagesKHR", res))
	}

	sc.Views = make([]vk.ImageView, count)
	for i := range sc.Images {
		viewInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    sc.Images[i],
			ViewType: vk.ImageViewType2d,
			Format:   format.Format,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}
		if res := vk.CreateImageView(dev.Logical, &viewInfo, nil, &sc.Views[i]); !VulkanResultIsSuccess(res) {
			return nil, newBootstrapError("swapchain", newNativeCallError("vkCreateImageView", res))
		}
		registry.Push(ImageViewResource(sc.Views[i]))
	}

	core.LogInfo("swapchain ready: %d images, %dx%d, present mode %d",
		count, extent.Width, extent.Height, presentMode)
	return sc, nil
}

func chooseSurfaceFormat(physical vk.PhysicalDevice, surface vk.Surface) (vk.SurfaceFormat, error) {
	var count uint32
	if res := vk.GetPhysicalDeviceSurfaceFormats(physical, surface, &count, nil); !VulkanResultIsSuccess(res) || count == 0 {
		return vk.SurfaceFormat{}, newBootstrapError("swapchain", newNativeCallError("vkGetPhysicalDeviceSurfaceFormatsKHR", res))
	}
	formats := make([]vk.SurfaceFormat, count)
	if res := vk.GetPhysicalDeviceSurfaceFormats(physical, surface, &count, formats); !VulkanResultIsSuccess(res) {
		return vk.SurfaceFormat{}, newBootstrapError("swapchain", newNativeCallError("vkGetPhysicalDeviceSurfaceFormatsKHR", res))
	}
	for i := range formats {
		formats[i].Deref()
		if formats[i].Format == vk.FormatB8g8r8a8Srgb && formats[i].ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return formats[i], nil
		}
	}
	return formats[0], nil
}

func choosePresentMode(physical vk.PhysicalDevice, surface vk.Surface, preferMailbox bool) vk.PresentMode {
	// FIFO is the only mode the standard guarantees.
	if !preferMailbox {
		return vk.PresentModeFifo
	}
	var count uint32
	if res := vk.GetPhysicalDeviceSurfacePresentModes(physical, surface, &count, nil); !VulkanResultIsSuccess(res) {
		return vk.PresentModeFifo
	}
	modes := make([]vk.PresentMode, count)
	if res := vk.GetPhysicalDeviceSurfacePresentModes(physical, surface, &count, modes); !VulkanResultIsSuccess(res) {
		return vk.PresentModeFifo
	}
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}
	return vk.PresentModeFifo
}

func chooseExtent(caps vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if caps.CurrentExtent.Width != math.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clamp(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}
