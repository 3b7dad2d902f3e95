package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/lumina3d/lumina/engine/core"
)

// CreateRenderPass builds the single-subpass color-only pass used for every
// frame: clear on load, store on write, final layout ready for present.
func CreateRenderPass(dev *Device, colorFormat vk.Format, registry *Registry) (vk.RenderPass, error) {
	colorAttachment := vk.AttachmentDescription{
		Format:         colorFormat,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}

	colorRef := vk.AttachmentReference{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    []vk.AttachmentReference{colorRef},
	}

	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{colorAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
	}

	var renderPass vk.RenderPass
	if res := vk.CreateRenderPass(dev.Logical, &createInfo, nil, &renderPass); !VulkanResultIsSuccess(res) {
		return vk.NullRenderPass, newBootstrapError("render-pass", newNativeCallError("vkCreateRenderPass", res))
	}
	registry.Push(RenderPassResource(renderPass))
	core.LogDebug("render pass created")
	return renderPass, nil
}

// CreateFramebuffers builds one framebuffer per swapchain image view, all
// sized to the swapchain extent and pushed onto the registry.
func CreateFramebuffers(dev *Device, renderPass vk.RenderPass, sc *Swapchain, registry *Registry) ([]vk.Framebuffer, error) {
	framebuffers := make([]vk.Framebuffer, len(sc.Views))
	for i, view := range sc.Views {
		createInfo := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      renderPass,
			AttachmentCount: 1,
			PAttachments:    []vk.ImageView{view},
			Width:           sc.Extent.Width,
			Height:          sc.Extent.Height,
			Layers:          1,
		}
		if res := vk.CreateFramebuffer(dev.Logical, &createInfo, nil, &framebuffers[i]); !VulkanResultIsSuccess(res) {
			return nil, newBootstrapError("framebuffer", newNativeCallError("vkCreateFramebuffer", res))
		}
		registry.Push(FramebufferResource(framebuffers[i]))
	}
	core.LogDebug("%d framebuffers created", len(framebuffers))
	return framebuffers, nil
}
