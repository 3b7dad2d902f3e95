package vulkan

import (
	"bytes"
	"errors"
	"testing"
	"unsafe"

	vk "github.com/goki/vulkan"
)

func TestAllocatedBufferIsNull(t *testing.T) {
	var buf AllocatedBuffer
	if !buf.IsNull() {
		t.Error("zero-value buffer should be null")
	}
}

func TestMemoryUsagePropertyFlags(t *testing.T) {
	hostFlags := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	if got := MemoryUsageCPUToGPU.propertyFlags(); got != hostFlags {
		t.Errorf("cpu-to-gpu flags = %d, expected host visible and coherent", got)
	}
	if got := MemoryUsageGPUOnly.propertyFlags(); got != vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit) {
		t.Errorf("gpu-only flags = %d, expected device local", got)
	}
}

func TestWriteBufferRejectsOversizedData(t *testing.T) {
	a := &deviceAllocator{}
	buf := AllocatedBuffer{
		Buffer:     vk.NullBuffer,
		Allocation: Allocation{Size: 4},
	}
	err := a.WriteBuffer(buf, make([]byte, 8))
	if err == nil {
		t.Fatal("expected error writing 8 bytes into a 4-byte allocation")
	}
	if !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("expected ErrBufferTooSmall, got %v", err)
	}
}

func TestWriteBufferUnmapsAfterCopy(t *testing.T) {
	backing := make([]byte, 16)
	unmaps := 0
	a := &deviceAllocator{
		mapFn: func(mem vk.DeviceMemory, size vk.DeviceSize) (unsafe.Pointer, vk.Result) {
			return unsafe.Pointer(&backing[0]), vk.Success
		},
		unmapFn: func(mem vk.DeviceMemory) { unmaps++ },
	}
	buf := AllocatedBuffer{Allocation: Allocation{Size: 16}}

	data := []byte{1, 2, 3, 4}
	if err := a.WriteBuffer(buf, data); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}
	if unmaps != 1 {
		t.Fatalf("expected exactly one unmap, got %d", unmaps)
	}
	if !bytes.Equal(backing[:4], data) {
		t.Errorf("mapped memory holds %v, expected %v", backing[:4], data)
	}
}

func TestWriteBufferMapFailureSkipsUnmap(t *testing.T) {
	unmapped := false
	a := &deviceAllocator{
		mapFn: func(mem vk.DeviceMemory, size vk.DeviceSize) (unsafe.Pointer, vk.Result) {
			return nil, vk.ErrorMemoryMapFailed
		},
		unmapFn: func(mem vk.DeviceMemory) { unmapped = true },
	}
	buf := AllocatedBuffer{Allocation: Allocation{Size: 16}}

	err := a.WriteBuffer(buf, []byte{1, 2})
	var mapErr *MappingError
	if !errors.As(err, &mapErr) {
		t.Fatalf("expected MappingError, got %v", err)
	}
	if unmapped {
		t.Error("memory that never mapped must not be unmapped")
	}
}

func TestFindMemoryIndex(t *testing.T) {
	a := &deviceAllocator{}
	a.memProps.MemoryTypeCount = 2
	a.memProps.MemoryTypes[0] = vk.MemoryType{
		PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
	}
	a.memProps.MemoryTypes[1] = vk.MemoryType{
		PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit),
	}

	idx, err := a.findMemoryIndex(0b11, MemoryUsageCPUToGPU.propertyFlags())
	if err != nil {
		t.Fatalf("findMemoryIndex: %v", err)
	}
	if idx != 1 {
		t.Errorf("expected memory type 1, got %d", idx)
	}

	// Type bits exclude the only matching type.
	if _, err := a.findMemoryIndex(0b01, MemoryUsageCPUToGPU.propertyFlags()); !errors.Is(err, ErrNoSuitableMemoryType) {
		t.Errorf("expected ErrNoSuitableMemoryType, got %v", err)
	}
}
