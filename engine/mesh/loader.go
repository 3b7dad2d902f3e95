package mesh

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/lumina3d/lumina/engine/core"
)

// ErrEmptyMesh means a mesh with no vertices was uploaded or loaded.
var ErrEmptyMesh = errors.New("mesh has no vertices")

// ErrNoGeometry means the asset file contains no usable triangle primitive.
var ErrNoGeometry = errors.New("no triangle primitive in asset")

// LoadGLTF reads the first triangle primitive of a glTF or GLB file and
// flattens it into a draw-ready vertex list. Indexed geometry is expanded
// so every index becomes its own vertex; vertex color is taken from the
// normal, which gives untextured models visible shading.
func LoadGLTF(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening asset %s: %w", path, err)
	}

	for _, gm := range doc.Meshes {
		for _, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			vertices, err := flattenPrimitive(doc, prim)
			if err != nil {
				return nil, fmt.Errorf("reading asset %s: %w", path, err)
			}
			if len(vertices) == 0 {
				continue
			}
			m := New(gm.Name, vertices)
			core.LogInfo("loaded %s (%s) from %s: %d vertices", m.Name, m.ID, path, m.VertexCount())
			return m, nil
		}
	}
	return nil, fmt.Errorf("asset %s: %w", path, ErrNoGeometry)
}

func flattenPrimitive(doc *gltf.Document, prim *gltf.Primitive) ([]Vertex, error) {
	posIndex, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, ErrNoGeometry
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIndex], nil)
	if err != nil {
		return nil, err
	}

	var normals [][3]float32
	if normIndex, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, err = modeler.ReadNormal(doc, doc.Accessors[normIndex], nil)
		if err != nil {
			return nil, err
		}
	}

	corner := func(i uint32) Vertex {
		v := Vertex{Position: mgl32.Vec3(positions[i])}
		if int(i) < len(normals) {
			v.Normal = mgl32.Vec3(normals[i])
			v.Color = v.Normal
		}
		return v
	}

	if prim.Indices == nil {
		vertices := make([]Vertex, len(positions))
		for i := range positions {
			vertices[i] = corner(uint32(i))
		}
		return vertices, nil
	}

	indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
	if err != nil {
		return nil, err
	}
	vertices := make([]Vertex, 0, len(indices))
	for _, idx := range indices {
		if int(idx) >= len(positions) {
			return nil, fmt.Errorf("index %d exceeds %d positions: %w", idx, len(positions), ErrNoGeometry)
		}
		vertices = append(vertices, corner(idx))
	}
	return vertices, nil
}
