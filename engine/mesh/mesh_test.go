package mesh

import (
	"errors"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/google/uuid"

	"github.com/lumina3d/lumina/engine/renderer/vulkan"
)

// fakeAllocator captures buffer contents in host memory.
type fakeAllocator struct {
	created []vk.DeviceSize
	written map[vk.DeviceSize][]byte
	next    vk.DeviceSize
}

func newFakeAllocator() *fakeAllocator {
	return &fakeAllocator{written: map[vk.DeviceSize][]byte{}}
}

func (f *fakeAllocator) CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags, memUsage vulkan.MemoryUsage) (vulkan.AllocatedBuffer, error) {
	f.created = append(f.created, size)
	f.next++
	return vulkan.AllocatedBuffer{
		Buffer:     vk.NullBuffer,
		Allocation: vulkan.Allocation{Size: size},
	}, nil
}

func (f *fakeAllocator) WriteBuffer(buf vulkan.AllocatedBuffer, data []byte) error {
	if vk.DeviceSize(len(data)) > buf.Allocation.Size {
		return errors.New("write past allocation")
	}
	f.written[buf.Allocation.Size] = append([]byte(nil), data...)
	return nil
}

func (f *fakeAllocator) DestroyBuffer(buf vulkan.AllocatedBuffer) {}
func (f *fakeAllocator) DestroyImage(img vulkan.AllocatedImage)   {}
func (f *fakeAllocator) Destroy()                                 {}

func TestVertexStride(t *testing.T) {
	// Three packed vec3s.
	if VertexStride != 36 {
		t.Fatalf("vertex stride = %d, expected 36", VertexStride)
	}
}

func TestVertexDescriptionOffsets(t *testing.T) {
	desc := GetVertexDescription()
	if len(desc.Bindings) != 1 {
		t.Fatalf("expected a single binding, got %d", len(desc.Bindings))
	}
	if desc.Bindings[0].Stride != VertexStride {
		t.Errorf("binding stride = %d, expected %d", desc.Bindings[0].Stride, VertexStride)
	}
	if len(desc.Attributes) != 3 {
		t.Fatalf("expected 3 attributes, got %d", len(desc.Attributes))
	}
	wantOffsets := []uint32{0, 12, 24}
	for i, attr := range desc.Attributes {
		if attr.Location != uint32(i) {
			t.Errorf("attribute %d at location %d", i, attr.Location)
		}
		if attr.Offset != wantOffsets[i] {
			t.Errorf("attribute %d offset = %d, expected %d", i, attr.Offset, wantOffsets[i])
		}
		if attr.Format != vk.FormatR32g32b32Sfloat {
			t.Errorf("attribute %d format = %d, expected R32G32B32_SFLOAT", i, attr.Format)
		}
	}
}

func TestNewAssignsDistinctIDs(t *testing.T) {
	a, b := NewTriangle(), NewTriangle()
	if a.ID == (uuid.UUID{}) {
		t.Fatal("mesh created without an ID")
	}
	if a.ID == b.ID {
		t.Fatalf("two meshes share ID %s", a.ID)
	}
}

func TestNewTriangleIsGreen(t *testing.T) {
	tri := NewTriangle()
	if tri.VertexCount() != 3 {
		t.Fatalf("triangle has %d vertices", tri.VertexCount())
	}
	for i, v := range tri.Vertices {
		if v.Color.Y() != 1.0 || v.Color.X() != 0.0 || v.Color.Z() != 0.0 {
			t.Errorf("vertex %d color %v is not green", i, v.Color)
		}
	}
}

func TestUploadSizesBufferExactly(t *testing.T) {
	tri := NewTriangle()
	alloc := newFakeAllocator()
	reg := vulkan.NewRegistry()

	if err := tri.Upload(alloc, reg); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if len(alloc.created) != 1 {
		t.Fatalf("expected one buffer, created %d", len(alloc.created))
	}
	want := vk.DeviceSize(3 * VertexStride)
	if alloc.created[0] != want {
		t.Errorf("buffer size = %d, expected exactly %d", alloc.created[0], want)
	}
	if reg.Len() != 1 {
		t.Errorf("registry holds %d resources, expected the vertex buffer", reg.Len())
	}
}

func TestUploadRoundTripsVertexData(t *testing.T) {
	tri := NewTriangle()
	alloc := newFakeAllocator()

	if err := tri.Upload(alloc, vulkan.NewRegistry()); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	size := vk.DeviceSize(3 * VertexStride)
	got := alloc.written[size]
	want := tri.VertexBytes()
	if len(got) != len(want) {
		t.Fatalf("wrote %d bytes, expected %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d differs after upload", i)
		}
	}
}

func TestUploadEmptyMesh(t *testing.T) {
	empty := New("empty", nil)
	err := empty.Upload(newFakeAllocator(), vulkan.NewRegistry())
	if !errors.Is(err, ErrEmptyMesh) {
		t.Fatalf("expected ErrEmptyMesh, got %v", err)
	}
}
