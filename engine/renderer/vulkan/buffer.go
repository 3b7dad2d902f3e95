package vulkan

import (
	"errors"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/lumina3d/lumina/engine/core"
)

// ErrNoSuitableMemoryType means no memory type satisfied both the buffer's
// requirements and the requested property flags.
var ErrNoSuitableMemoryType = errors.New("no suitable memory type")

// ErrBufferTooSmall means a write exceeded the buffer's allocation.
var ErrBufferTooSmall = errors.New("data exceeds buffer allocation")

// Allocation is the memory backing one buffer or image. Every buffer gets a
// dedicated vkAllocateMemory; a sub-allocating pool is deliberately out of
// scope while the only allocations are a handful of mesh buffers.
type Allocation struct {
	Memory vk.DeviceMemory
	Size   vk.DeviceSize
}

// AllocatedBuffer pairs a buffer handle with the allocation that backs it.
type AllocatedBuffer struct {
	Buffer     vk.Buffer
	Allocation Allocation
}

func (b AllocatedBuffer) IsNull() bool {
	return b.Buffer == vk.NullBuffer
}

// AllocatedImage pairs an image handle with the allocation that backs it.
type AllocatedImage struct {
	Image      vk.Image
	Allocation Allocation
}

func (i AllocatedImage) IsNull() bool {
	return i.Image == vk.NullImage
}

// MemoryUsage selects which memory properties an allocation asks for.
type MemoryUsage int

const (
	// MemoryUsageCPUToGPU is host visible and coherent, for buffers the CPU
	// writes once and the GPU reads every frame.
	MemoryUsageCPUToGPU MemoryUsage = iota
	// MemoryUsageGPUOnly is device local, never mapped.
	MemoryUsageGPUOnly
)

func (u MemoryUsage) propertyFlags() vk.MemoryPropertyFlags {
	switch u {
	case MemoryUsageGPUOnly:
		return vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	default:
		return vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	}
}

// Allocator creates, maps, and destroys GPU buffers and images. The frame
// loop and mesh upload depend on this interface rather than the device so
// tests can substitute an in-memory fake.
type Allocator interface {
	CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags, memUsage MemoryUsage) (AllocatedBuffer, error)
	DestroyBuffer(buf AllocatedBuffer)
	DestroyImage(img AllocatedImage)
	// WriteBuffer maps the allocation, copies data into it, and unmaps. The
	// mapping never outlives the call.
	WriteBuffer(buf AllocatedBuffer, data []byte) error
	Destroy()
}

type deviceAllocator struct {
	device   vk.Device
	memProps vk.PhysicalDeviceMemoryProperties

	// mapFn and unmapFn default to the vk calls; tests substitute host
	// memory to exercise WriteBuffer's mapping discipline.
	mapFn   func(mem vk.DeviceMemory, size vk.DeviceSize) (unsafe.Pointer, vk.Result)
	unmapFn func(mem vk.DeviceMemory)
}

// NewAllocator builds the production allocator for a device. The memory
// properties are queried once up front; they never change for the lifetime
// of the physical device.
func NewAllocator(physical vk.PhysicalDevice, device vk.Device) Allocator {
	var memProps vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(physical, &memProps)
	memProps.Deref()
	return &deviceAllocator{device: device, memProps: memProps}
}

func (a *deviceAllocator) CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags, memUsage MemoryUsage) (AllocatedBuffer, error) {
	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	var buffer vk.Buffer
	if res := vk.CreateBuffer(a.device, &bufferInfo, nil, &buffer); !VulkanResultIsSuccess(res) {
		return AllocatedBuffer{}, &AllocationError{Size: size, Err: newNativeCallError("vkCreateBuffer", res)}
	}

	var memReq vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(a.device, buffer, &memReq)
	memReq.Deref()

	memIndex, err := a.findMemoryIndex(memReq.MemoryTypeBits, memUsage.propertyFlags())
	if err != nil {
		vk.DestroyBuffer(a.device, buffer, nil)
		return AllocatedBuffer{}, &AllocationError{Size: size, Err: err}
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReq.Size,
		MemoryTypeIndex: memIndex,
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(a.device, &allocInfo, nil, &memory); !VulkanResultIsSuccess(res) {
		vk.DestroyBuffer(a.device, buffer, nil)
		return AllocatedBuffer{}, &AllocationError{Size: size, Err: newNativeCallError("vkAllocateMemory", res)}
	}

	if res := vk.BindBufferMemory(a.device, buffer, memory, 0); !VulkanResultIsSuccess(res) {
		vk.FreeMemory(a.device, memory, nil)
		vk.DestroyBuffer(a.device, buffer, nil)
		return AllocatedBuffer{}, &AllocationError{Size: size, Err: newNativeCallError("vkBindBufferMemory", res)}
	}

	core.LogDebug("allocated buffer of %d bytes (memory type %d)", size, memIndex)
	return AllocatedBuffer{
		Buffer:     buffer,
		Allocation: Allocation{Memory: memory, Size: size},
	}, nil
}

func (a *deviceAllocator) WriteBuffer(buf AllocatedBuffer, data []byte) error {
	if vk.DeviceSize(len(data)) > buf.Allocation.Size {
		return &MappingError{Err: ErrBufferTooSmall}
	}
	ptr, res := a.mapMemory(buf.Allocation.Memory, buf.Allocation.Size)
	if !VulkanResultIsSuccess(res) {
		return &MappingError{Err: newNativeCallError("vkMapMemory", res)}
	}
	// The mapping must not outlive the call on any exit path.
	defer a.unmapMemory(buf.Allocation.Memory)
	vk.Memcopy(ptr, data)
	return nil
}

func (a *deviceAllocator) mapMemory(mem vk.DeviceMemory, size vk.DeviceSize) (unsafe.Pointer, vk.Result) {
	if a.mapFn != nil {
		return a.mapFn(mem, size)
	}
	var ptr unsafe.Pointer
	res := vk.MapMemory(a.device, mem, 0, size, 0, &ptr)
	return ptr, res
}

func (a *deviceAllocator) unmapMemory(mem vk.DeviceMemory) {
	if a.unmapFn != nil {
		a.unmapFn(mem)
		return
	}
	vk.UnmapMemory(a.device, mem)
}

func (a *deviceAllocator) DestroyBuffer(buf AllocatedBuffer) {
	if buf.IsNull() {
		return
	}
	vk.DestroyBuffer(a.device, buf.Buffer, nil)
	vk.FreeMemory(a.device, buf.Allocation.Memory, nil)
}

func (a *deviceAllocator) DestroyImage(img AllocatedImage) {
	if img.IsNull() {
		return
	}
	vk.DestroyImage(a.device, img.Image, nil)
	vk.FreeMemory(a.device, img.Allocation.Memory, nil)
}

func (a *deviceAllocator) Destroy() {
	// Per-buffer memory is freed with its buffer; nothing pooled to release.
}

func (a *deviceAllocator) findMemoryIndex(typeBits uint32, flags vk.MemoryPropertyFlags) (uint32, error) {
	for i := uint32(0); i < a.memProps.MemoryTypeCount; i++ {
		memType := a.memProps.MemoryTypes[i]
		memType.Deref()
		if typeBits&(1<<i) != 0 && memType.PropertyFlags&flags == flags {
			return i, nil
		}
	}
	return 0, ErrNoSuitableMemoryType
}
