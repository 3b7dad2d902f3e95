package vulkan

import (
	"fmt"
	"os"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/lumina3d/lumina/engine/core"
)

// LoadShaderModule reads a compiled SPIR-V file and wraps it in a shader
// module. The module is not pushed onto the registry: pipeline construction
// owns it and destroys it as soon as the pipeline is built.
func LoadShaderModule(device vk.Device, path string) (vk.ShaderModule, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return vk.NullShaderModule, fmt.Errorf("reading shader %s: %w", path, err)
	}
	if len(code) == 0 || len(code)%4 != 0 {
		return vk.NullShaderModule, fmt.Errorf("shader %s is not valid SPIR-V (%d bytes)", path, len(code))
	}

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    sliceUint32(code),
	}

	var module vk.ShaderModule
	if res := vk.CreateShaderModule(device, &createInfo, nil, &module); !VulkanResultIsSuccess(res) {
		return vk.NullShaderModule, newNativeCallError("vkCreateShaderModule", res)
	}
	core.LogDebug("shader module loaded from %s (%d bytes)", path, len(code))
	return module, nil
}

// sliceUint32 reinterprets SPIR-V bytes as the word slice the API expects.
// The input must stay reachable while the create call runs.
func sliceUint32(data []byte) []uint32 {
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}
