package tessellate_test

import (
	"context"
	"testing"

	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/chazu/ifcextrude/pkg/kernel"
	"github.com/chazu/ifcextrude/pkg/kernel/sdfx"
	"github.com/chazu/ifcextrude/pkg/model"
	"github.com/chazu/ifcextrude/pkg/tessellate"
	"github.com/golang/geo/r1"
	"github.com/golang/geo/r3"
)

// newKernel returns a coarse sdfx kernel so meshing stays quick.
func newKernel() kernel.Kernel {
	return sdfx.New(sdfx.WithMeshCells(32))
}

func v(x, y, z float64) r3.Vector { return r3.Vector{X: x, Y: y, Z: z} }

// makeBlock creates a body element with one rectangular solid.
func makeBlock(name string, x0, y0, x1, y1, depth float64) *model.Element {
	loop := geom.Polygon(v(x0, y0, 0), v(x1, y0, 0), v(x1, y1, 0), v(x0, y1, 0))
	return &model.Element{
		ID:   model.NewElementID(name),
		Name: name,
		Data: model.BodyData{Solids: []model.SolidSpec{{
			Loops:     []geom.CurveLoop{loop},
			Direction: v(0, 0, 1),
			Depth:     depth,
		}}},
	}
}

func run(t *testing.T, m *model.Model) ([]*kernel.Mesh, []tessellate.Skipped) {
	t.Helper()
	meshes, skipped, err := tessellate.Tessellate(context.Background(), m, newKernel(), tessellate.Options{})
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	return meshes, skipped
}

func TestSingleBlock(t *testing.T) {
	m := model.New()
	m.Add(makeBlock("slab", 0, 0, 6, 3, 1))

	meshes, skipped := run(t, m)
	if len(skipped) != 0 {
		t.Fatalf("unexpected skipped elements: %v", skipped)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}

	mesh := meshes[0]
	if mesh.IsEmpty() {
		t.Fatal("mesh should not be empty")
	}
	if mesh.Element != "slab" {
		t.Errorf("expected Element %q, got %q", "slab", mesh.Element)
	}
	if mesh.TriangleCount() == 0 {
		t.Error("mesh should have triangles")
	}

	min, max, ok := mesh.Bounds()
	if !ok {
		t.Fatal("expected bounds")
	}
	// Marching cubes lands within a cell of the true surface.
	const tol = 0.5
	want := [2][3]float32{{0, 0, 0}, {6, 3, 1}}
	for i := 0; i < 3; i++ {
		if d := min[i] - want[0][i]; d < -tol || d > tol {
			t.Errorf("min[%d] = %g, want ~%g", i, min[i], want[0][i])
		}
		if d := max[i] - want[1][i]; d < -tol || d > tol {
			t.Errorf("max[%d] = %g, want ~%g", i, max[i], want[1][i])
		}
	}
}

func TestTwoElements(t *testing.T) {
	m := model.New()
	m.Add(makeBlock("side-panel", 0, 0, 4, 3, 1))
	m.Add(makeBlock("top-panel", 10, 0, 16, 3, 1))

	meshes, _ := run(t, m)
	if len(meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(meshes))
	}

	names := map[string]bool{}
	for _, mesh := range meshes {
		if mesh.IsEmpty() {
			t.Error("mesh should not be empty")
		}
		names[mesh.Element] = true
	}
	for _, want := range []string{"side-panel", "top-panel"} {
		if !names[want] {
			t.Errorf("missing mesh for %s", want)
		}
	}
}

func TestUnnamedElementUsesShortID(t *testing.T) {
	m := model.New()
	e := makeBlock("", 0, 0, 1, 1, 1)
	m.Add(e)

	meshes, _ := run(t, m)
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}
	if meshes[0].Element != e.ID.Short() {
		t.Errorf("expected Element %q, got %q", e.ID.Short(), meshes[0].Element)
	}
}

func TestClippedBodyIsShorter(t *testing.T) {
	m := model.New()
	w := makeBlock("wall", 0, 0, 4, 4, 4)
	m.Add(w)
	m.Add(&model.Element{
		ID:   model.NewElementID("cut"),
		Kind: model.KindOpening,
		Data: model.OpeningData{
			FaceSets: []geom.FaceSet{geom.BoxFaces(v(-10, -10, 2), v(10, 10, 10))},
			Hosts:    []model.ElementID{w.ID},
		},
	})

	meshes, _ := run(t, m)
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}
	_, max, _ := meshes[0].Bounds()
	if max[2] > 2.5 {
		t.Errorf("expected top near z=2 after clipping, got %g", max[2])
	}
}

func TestCompletelyClippedProducesNoMesh(t *testing.T) {
	m := model.New()
	e := makeBlock("gone", 0, 0, 1, 1, 1)
	bd := e.Data.(model.BodyData)
	bd.Range = &r1.Interval{Lo: 5, Hi: 6}
	e.Data = bd
	m.Add(e)

	meshes, skipped := run(t, m)
	if len(meshes) != 0 || len(skipped) != 0 {
		t.Fatalf("expected nothing, got %d meshes and %d skipped", len(meshes), len(skipped))
	}
}

func TestFailedElementIsSkipped(t *testing.T) {
	m := model.New()
	bad := makeBlock("bad", 0, 0, 1, 1, 1)
	bd := bad.Data.(model.BodyData)
	bd.Solids[0].Complex = true
	bad.Data = bd
	m.Add(bad)
	m.Add(makeBlock("good", 5, 0, 6, 1, 1))

	meshes, skipped := run(t, m)
	if len(meshes) != 1 || meshes[0].Element != "good" {
		t.Fatalf("expected only the good mesh, got %d", len(meshes))
	}
	if len(skipped) != 1 || skipped[0].Element != bad.ID {
		t.Fatalf("expected bad element skipped, got %v", skipped)
	}
}

func TestEmptyModel(t *testing.T) {
	meshes, _ := run(t, model.New())
	if len(meshes) != 0 {
		t.Errorf("expected 0 meshes for empty model, got %d", len(meshes))
	}

	meshes, _, err := tessellate.Tessellate(context.Background(), nil, newKernel(), tessellate.Options{})
	if err != nil || meshes != nil {
		t.Errorf("nil model: got %v, %v", meshes, err)
	}
}

func TestOpeningsAreNotMeshed(t *testing.T) {
	m := model.New()
	m.Add(&model.Element{
		ID:   model.NewElementID("lonely"),
		Kind: model.KindOpening,
		Data: model.OpeningData{FaceSets: []geom.FaceSet{geom.BoxFaces(v(0, 0, 0), v(1, 1, 1))}},
	})

	meshes, _ := run(t, m)
	if len(meshes) != 0 {
		t.Errorf("expected no meshes, got %d", len(meshes))
	}
}
