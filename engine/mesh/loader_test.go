package mesh

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

func quadDocument(t *testing.T) (*gltf.Document, *gltf.Primitive) {
	t.Helper()
	doc := gltf.NewDocument()

	positions := [][3]float32{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
		{1, 1, 0},
	}
	normals := [][3]float32{
		{0, 0, 1},
		{0, 0, 1},
		{0, 0, 1},
		{0, 0, 1},
	}
	indices := []uint32{0, 1, 2, 2, 1, 3}

	prim := &gltf.Primitive{
		Mode: gltf.PrimitiveTriangles,
		Attributes: map[string]uint32{
			gltf.POSITION: modeler.WritePosition(doc, positions),
			gltf.NORMAL:   modeler.WriteNormal(doc, normals),
		},
		Indices: gltf.Index(modeler.WriteIndices(doc, indices)),
	}
	return doc, prim
}

func TestFlattenPrimitiveExpandsIndices(t *testing.T) {
	doc, prim := quadDocument(t)

	vertices, err := flattenPrimitive(doc, prim)
	if err != nil {
		t.Fatalf("flatten failed: %v", err)
	}
	if len(vertices) != 6 {
		t.Fatalf("expected 6 flat vertices from 6 indices, got %d", len(vertices))
	}

	// Index order 0,1,2,2,1,3 must survive the expansion.
	wantX := []float32{0, 1, 0, 0, 1, 1}
	wantY := []float32{0, 0, 1, 1, 0, 1}
	for i, v := range vertices {
		if v.Position.X() != wantX[i] || v.Position.Y() != wantY[i] {
			t.Errorf("vertex %d position %v out of index order", i, v.Position)
		}
	}
}

func TestFlattenPrimitiveColorFromNormal(t *testing.T) {
	doc, prim := quadDocument(t)

	vertices, err := flattenPrimitive(doc, prim)
	if err != nil {
		t.Fatalf("flatten failed: %v", err)
	}
	for i, v := range vertices {
		if v.Color != v.Normal {
			t.Errorf("vertex %d color %v does not mirror normal %v", i, v.Color, v.Normal)
		}
		if v.Normal.Z() != 1 {
			t.Errorf("vertex %d lost its normal: %v", i, v.Normal)
		}
	}
}

func TestFlattenPrimitiveWithoutIndices(t *testing.T) {
	doc, prim := quadDocument(t)
	prim.Indices = nil

	vertices, err := flattenPrimitive(doc, prim)
	if err != nil {
		t.Fatalf("flatten failed: %v", err)
	}
	if len(vertices) != 4 {
		t.Fatalf("expected vertices as stored, got %d", len(vertices))
	}
}

func TestFlattenPrimitiveMissingPositions(t *testing.T) {
	doc := gltf.NewDocument()
	prim := &gltf.Primitive{Mode: gltf.PrimitiveTriangles, Attributes: map[string]uint32{}}
	if _, err := flattenPrimitive(doc, prim); !errors.Is(err, ErrNoGeometry) {
		t.Fatalf("expected ErrNoGeometry, got %v", err)
	}
}

func TestFlattenPrimitiveRejectsOutOfRangeIndex(t *testing.T) {
	doc := gltf.NewDocument()

	positions := [][3]float32{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
	}
	prim := &gltf.Primitive{
		Mode: gltf.PrimitiveTriangles,
		Attributes: map[string]uint32{
			gltf.POSITION: modeler.WritePosition(doc, positions),
		},
		Indices: gltf.Index(modeler.WriteIndices(doc, []uint32{0, 1, 7})),
	}

	if _, err := flattenPrimitive(doc, prim); !errors.Is(err, ErrNoGeometry) {
		t.Fatalf("expected ErrNoGeometry for index past the position count, got %v", err)
	}
}

func TestLoadGLTFMissingFile(t *testing.T) {
	if _, err := LoadGLTF(filepath.Join(t.TempDir(), "missing.glb")); err == nil {
		t.Fatal("expected error for missing asset")
	}
}
