package mesh

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/google/uuid"

	"github.com/lumina3d/lumina/engine/core"
	"github.com/lumina3d/lumina/engine/renderer/vulkan"
)

// Vertex is the interleaved layout the mesh pipeline consumes: three vec3s
// packed back to back, 36 bytes per vertex.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Color    mgl32.Vec3
}

// VertexStride is the byte distance between consecutive vertices.
const VertexStride = uint32(unsafe.Sizeof(Vertex{}))

// VertexInputDescription carries the binding and attribute descriptions a
// pipeline needs to read the Vertex layout.
type VertexInputDescription struct {
	Bindings   []vk.VertexInputBindingDescription
	Attributes []vk.VertexInputAttributeDescription
}

// GetVertexDescription describes one per-vertex binding with position,
// normal and color at locations 0, 1, 2.
func GetVertexDescription() VertexInputDescription {
	return VertexInputDescription{
		Bindings: []vk.VertexInputBindingDescription{
			{
				Binding:   0,
				Stride:    VertexStride,
				InputRate: vk.VertexInputRateVertex,
			},
		},
		Attributes: []vk.VertexInputAttributeDescription{
			{
				Location: 0,
				Binding:  0,
				Format:   vk.FormatR32g32b32Sfloat,
				Offset:   uint32(unsafe.Offsetof(Vertex{}.Position)),
			},
			{
				Location: 1,
				Binding:  0,
				Format:   vk.FormatR32g32b32Sfloat,
				Offset:   uint32(unsafe.Offsetof(Vertex{}.Normal)),
			},
			{
				Location: 2,
				Binding:  0,
				Format:   vk.FormatR32g32b32Sfloat,
				Offset:   uint32(unsafe.Offsetof(Vertex{}.Color)),
			},
		},
	}
}

// Mesh is a flat vertex list and, once uploaded, the GPU buffer holding it.
type Mesh struct {
	ID           uuid.UUID
	Name         string
	Vertices     []Vertex
	VertexBuffer vulkan.AllocatedBuffer
}

func New(name string, vertices []Vertex) *Mesh {
	return &Mesh{
		ID:       uuid.New(),
		Name:     name,
		Vertices: vertices,
	}
}

// NewTriangle is the hardcoded green triangle used before any asset loads.
func NewTriangle() *Mesh {
	green := mgl32.Vec3{0.0, 1.0, 0.0}
	return New("triangle", []Vertex{
		{Position: mgl32.Vec3{1.0, 1.0, 0.0}, Color: green},
		{Position: mgl32.Vec3{-1.0, 1.0, 0.0}, Color: green},
		{Position: mgl32.Vec3{0.0, -1.0, 0.0}, Color: green},
	})
}

// VertexCount returns the number of vertices as the draw call wants it.
func (m *Mesh) VertexCount() uint32 {
	return uint32(len(m.Vertices))
}

// VertexBytes reinterprets the vertex slice as raw bytes for upload. The
// mesh must stay reachable while the bytes are in use.
func (m *Mesh) VertexBytes() []byte {
	if len(m.Vertices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&m.Vertices[0])), len(m.Vertices)*int(VertexStride))
}

// Upload creates a vertex buffer sized exactly to the vertex data, copies
// the vertices in through a transient mapping, and registers the buffer for
// teardown. Uploading an empty mesh is rejected.
func (m *Mesh) Upload(allocator vulkan.Allocator, registry *vulkan.Registry) error {
	if len(m.Vertices) == 0 {
		return ErrEmptyMesh
	}
	data := m.VertexBytes()
	buf, err := allocator.CreateBuffer(
		vk.DeviceSize(len(data)),
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit),
		vulkan.MemoryUsageCPUToGPU,
	)
	if err != nil {
		return err
	}
	registry.Push(vulkan.BufferResource(buf))

	if err := allocator.WriteBuffer(buf, data); err != nil {
		return err
	}
	m.VertexBuffer = buf
	core.LogDebug("mesh %s (%s) uploaded: %d vertices, %d bytes", m.Name, m.ID, m.VertexCount(), len(data))
	return nil
}
