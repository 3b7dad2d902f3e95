package vulkan

import (
	"errors"
	"testing"

	vk "github.com/goki/vulkan"
)

func completeBuilder() *PipelineBuilder {
	return NewPipelineBuilder().
		AddShaderStage(vk.ShaderStageVertexBit, vk.NullShaderModule).
		AddShaderStage(vk.ShaderStageFragmentBit, vk.NullShaderModule).
		WithVertexInput(nil, nil).
		WithTopology(vk.PrimitiveTopologyTriangleList).
		WithViewport(vk.Extent2D{Width: 1700, Height: 900}).
		WithPolygonMode(vk.PolygonModeFill).
		WithNoBlending().
		WithNoMultisampling().
		WithLayout(vk.NullPipelineLayout)
}

func TestPipelineBuilderValidateComplete(t *testing.T) {
	if err := completeBuilder().Validate(); err != nil {
		t.Fatalf("complete builder failed validation: %v", err)
	}
}

func TestPipelineBuilderValidateEmpty(t *testing.T) {
	err := NewPipelineBuilder().Validate()
	if err == nil {
		t.Fatal("empty builder passed validation")
	}
	var incomplete *IncompletePipelineError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompletePipelineError, got %T", err)
	}
	if len(incomplete.Missing) != 8 {
		t.Errorf("expected 8 missing fields, got %d: %v", len(incomplete.Missing), incomplete.Missing)
	}
}

func TestPipelineBuilderValidateNamesMissingField(t *testing.T) {
	b := NewPipelineBuilder().
		AddShaderStage(vk.ShaderStageVertexBit, vk.NullShaderModule).
		WithVertexInput(nil, nil).
		WithTopology(vk.PrimitiveTopologyTriangleList).
		WithViewport(vk.Extent2D{Width: 800, Height: 600}).
		WithPolygonMode(vk.PolygonModeFill).
		WithNoBlending().
		WithNoMultisampling()

	err := b.Validate()
	var incomplete *IncompletePipelineError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompletePipelineError, got %v", err)
	}
	if len(incomplete.Missing) != 1 || incomplete.Missing[0] != "pipeline layout" {
		t.Errorf("expected only pipeline layout missing, got %v", incomplete.Missing)
	}
}

func TestPipelineBuilderViewportMatchesExtent(t *testing.T) {
	b := NewPipelineBuilder().WithViewport(vk.Extent2D{Width: 1700, Height: 900})
	if b.viewport.Width != 1700 || b.viewport.Height != 900 {
		t.Errorf("viewport %vx%v does not match extent", b.viewport.Width, b.viewport.Height)
	}
	if b.viewport.MaxDepth != 1.0 {
		t.Errorf("max depth = %v, expected 1.0", b.viewport.MaxDepth)
	}
	if b.scissor.Extent.Width != 1700 || b.scissor.Extent.Height != 900 {
		t.Errorf("scissor does not cover the full extent")
	}
}

func TestPipelineBuilderBuildRejectsIncomplete(t *testing.T) {
	// An invalid description must be rejected before any native call.
	_, err := NewPipelineBuilder().Build(vk.Device(vk.NullHandle), vk.NullRenderPass, NewRegistry())
	var incomplete *IncompletePipelineError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompletePipelineError, got %v", err)
	}
}
