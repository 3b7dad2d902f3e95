package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/lumina3d/lumina/engine/core"
)

// PipelineBuilder accumulates the fixed-function state for one graphics
// pipeline. Every required piece must be set explicitly before Build;
// there are no hidden defaults, so a forgotten stage fails validation
// instead of compiling a silently wrong pipeline.
type PipelineBuilder struct {
	shaderStages         []vk.PipelineShaderStageCreateInfo
	vertexInput          *vk.PipelineVertexInputStateCreateInfo
	inputAssembly        *vk.PipelineInputAssemblyStateCreateInfo
	viewport             *vk.Viewport
	scissor              *vk.Rect2D
	rasterizer           *vk.PipelineRasterizationStateCreateInfo
	colorBlendAttachment *vk.PipelineColorBlendAttachmentState
	multisampling        *vk.PipelineMultisampleStateCreateInfo
	layout               vk.PipelineLayout
	layoutSet            bool
}

func NewPipelineBuilder() *PipelineBuilder {
	return &PipelineBuilder{}
}

// AddShaderStage appends one stage. Call once per module; a vertex-only
// pipeline is legal, so no stage combination is enforced here.
func (b *PipelineBuilder) AddShaderStage(stage vk.ShaderStageFlagBits, module vk.ShaderModule) *PipelineBuilder {
	b.shaderStages = append(b.shaderStages, vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: module,
		PName:  VulkanSafeString("main"),
	})
	return b
}

// WithVertexInput sets the binding and attribute descriptions. Pass empty
// slices for pipelines that generate vertices in the shader.
func (b *PipelineBuilder) WithVertexInput(bindings []vk.VertexInputBindingDescription, attributes []vk.VertexInputAttributeDescription) *PipelineBuilder {
	b.vertexInput = &vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(bindings)),
		PVertexBindingDescriptions:      bindings,
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}
	return b
}

func (b *PipelineBuilder) WithTopology(topology vk.PrimitiveTopology) *PipelineBuilder {
	b.inputAssembly = &vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               topology,
		PrimitiveRestartEnable: vk.False,
	}
	return b
}

// WithViewport sets a full-extent viewport and scissor.
func (b *PipelineBuilder) WithViewport(extent vk.Extent2D) *PipelineBuilder {
	b.viewport = &vk.Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MaxDepth: 1.0,
	}
	b.scissor = &vk.Rect2D{Extent: extent}
	return b
}

func (b *PipelineBuilder) WithPolygonMode(mode vk.PolygonMode) *PipelineBuilder {
	b.rasterizer = &vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: mode,
		LineWidth:   1.0,
		CullMode:    vk.CullModeFlags(vk.CullModeNone),
		FrontFace:   vk.FrontFaceClockwise,
	}
	return b
}

// WithNoBlending writes all color channels with blending disabled.
func (b *PipelineBuilder) WithNoBlending() *PipelineBuilder {
	b.colorBlendAttachment = &vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(
			vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
		BlendEnable: vk.False,
	}
	return b
}

func (b *PipelineBuilder) WithNoMultisampling() *PipelineBuilder {
	b.multisampling = &vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		MinSampleShading:     1.0,
	}
	return b
}

func (b *PipelineBuilder) WithLayout(layout vk.PipelineLayout) *PipelineBuilder {
	b.layout = layout
	b.layoutSet = true
	return b
}

// Validate reports every required field that has not been set. It makes no
// native calls, so an incomplete description is caught before any device
// work happens.
func (b *PipelineBuilder) Validate() error {
	var missing []string
	if len(b.shaderStages) == 0 {
		missing = append(missing, "shader stages")
	}
	if b.vertexInput == nil {
		missing = append(missing, "vertex input")
	}
	if b.inputAssembly == nil {
		missing = append(missing, "input assembly")
	}
	if b.viewport == nil || b.scissor == nil {
		missing = append(missing, "viewport")
	}
	if b.rasterizer == nil {
		missing = append(missing, "rasterizer")
	}
	if b.colorBlendAttachment == nil {
		missing = append(missing, "color blend attachment")
	}
	if b.multisampling == nil {
		missing = append(missing, "multisampling")
	}
	if !b.layoutSet {
		missing = append(missing, "pipeline layout")
	}
	if len(missing) > 0 {
		return &IncompletePipelineError{Missing: missing}
	}
	return nil
}

// Build validates the description, derives the viewport and color blend
// states from their single members, and compiles the pipeline against the
// render pass. The pipeline is pushed onto the registry; the caller still
// owns the shader modules.
func (b *PipelineBuilder) Build(device vk.Device, renderPass vk.RenderPass, registry *Registry) (vk.Pipeline, error) {
	if err := b.Validate(); err != nil {
		return vk.NullPipeline, err
	}

	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vk.Viewport{*b.viewport},
		ScissorCount:  1,
		PScissors:     []vk.Rect2D{*b.scissor},
	}

	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{*b.colorBlendAttachment},
	}

	createInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(b.shaderStages)),
		PStages:             b.shaderStages,
		PVertexInputState:   b.vertexInput,
		PInputAssemblyState: b.inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: b.rasterizer,
		PMultisampleState:   b.multisampling,
		PColorBlendState:    &colorBlend,
		Layout:              b.layout,
		RenderPass:          renderPass,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	res := vk.CreateGraphicsPipelines(device, vk.NullPipelineCache, 1, []vk.GraphicsPipelineCreateInfo{createInfo}, nil, pipelines)
	if !VulkanResultIsSuccess(res) {
		return vk.NullPipeline, &PipelineCompilationError{Result: res}
	}
	registry.Push(PipelineResource(pipelines[0]))
	core.LogDebug("graphics pipeline compiled (%d stages)", len(b.shaderStages))
	return pipelines[0], nil
}

// CreateEmptyPipelineLayout builds a layout with no descriptors and no push
// constants, for the hardcoded-triangle pipelines.
func CreateEmptyPipelineLayout(device vk.Device, registry *Registry) (vk.PipelineLayout, error) {
	createInfo := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}
	var layout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(device, &createInfo, nil, &layout); !VulkanResultIsSuccess(res) {
		return vk.NullPipelineLayout, newNativeCallError("vkCreatePipelineLayout", res)
	}
	registry.Push(PipelineLayoutResource(layout))
	return layout, nil
}

// CreatePushConstantPipelineLayout builds a layout exposing one vertex-stage
// push constant range of the given size, starting at offset zero.
func CreatePushConstantPipelineLayout(device vk.Device, size uint32, registry *Registry) (vk.PipelineLayout, error) {
	pushRange := vk.PushConstantRange{
		StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		Offset:     0,
		Size:       size,
	}
	createInfo := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		PushConstantRangeCount: 1,
		PPushConstantRanges:    []vk.PushConstantRange{pushRange},
	}
	var layout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(device, &createInfo, nil, &layout); !VulkanResultIsSuccess(res) {
		return vk.NullPipelineLayout, newNativeCallError("vkCreatePipelineLayout", res)
	}
	registry.Push(PipelineLayoutResource(layout))
	return layout, nil
}
