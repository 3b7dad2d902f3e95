package vulkan

import (
	"errors"
	"fmt"

	vk "github.com/goki/vulkan"
)

// ErrNoSuitableGPU means no enumerated physical device offered both a
// graphics queue and a present-capable queue for the surface.
var ErrNoSuitableGPU = errors.New("no physical device with graphics and present support")

// BootstrapError reports a failure while standing up the graphics context,
// the logical device or the swapchain. Bootstrap failures are unrecoverable
// at startup and abort engine initialization.
type BootstrapError struct {
	Stage string
	Err   error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("bootstrap %s: %v", e.Stage, e.Err)
}

func (e *BootstrapError) Unwrap() error { return e.Err }

func newBootstrapError(stage string, err error) *BootstrapError {
	return &BootstrapError{Stage: stage, Err: err}
}

// NativeCallError reports a Vulkan call returning a non-success result.
// Per-frame failures carry it up to the run loop so shutdown stays orderly
// instead of aborting the process.
type NativeCallError struct {
	Call   string
	Result vk.Result
}

func (e *NativeCallError) Error() string {
	return fmt.Sprintf("%s failed with %s", e.Call, VulkanResultString(e.Result, true))
}

func newNativeCallError(call string, result vk.Result) *NativeCallError {
	return &NativeCallError{Call: call, Result: result}
}

// PipelineCompilationError reports a failed graphics-pipeline compile. The
// native API gives no diagnostic beyond the result code, so the shader file
// names are the most useful context we can attach.
type PipelineCompilationError struct {
	Shaders []string
	Result  vk.Result
}

func (e *PipelineCompilationError) Error() string {
	if len(e.Shaders) == 0 {
		return fmt.Sprintf("pipeline compilation failed with %s", VulkanResultString(e.Result, false))
	}
	return fmt.Sprintf("pipeline compilation failed with %s (shaders: %v)", VulkanResultString(e.Result, false), e.Shaders)
}

// IncompletePipelineError reports a PipelineBuilder.Build call with one or
// more required fields never set.
type IncompletePipelineError struct {
	Missing []string
}

func (e *IncompletePipelineError) Error() string {
	return fmt.Sprintf("pipeline description incomplete, missing: %v", e.Missing)
}

// AllocationError reports that the allocator could not satisfy a device
// memory request.
type AllocationError struct {
	Size vk.DeviceSize
	Err  error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("device allocation of %d bytes failed: %v", e.Size, e.Err)
}

func (e *AllocationError) Unwrap() error { return e.Err }

// MappingError reports a failed host mapping of an allocation.
type MappingError struct {
	Err error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("memory mapping failed: %v", e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }
