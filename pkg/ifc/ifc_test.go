package ifc_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/chazu/ifcextrude/pkg/extrusion"
	"github.com/chazu/ifcextrude/pkg/geom"
	"github.com/chazu/ifcextrude/pkg/ifc"
	"github.com/chazu/ifcextrude/pkg/profile"
	"github.com/chazu/ifcextrude/pkg/step"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressGUID(t *testing.T) {
	tests := []struct {
		name string
		in   uuid.UUID
		want string
	}{
		{"zero", uuid.UUID{}, "0000000000000000000000"},
		{"max", uuid.UUID{
			0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
			0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		}, "3" + strings.Repeat("$", 21)},
		{"first byte", uuid.UUID{0x41}, "11" + strings.Repeat("0", 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ifc.CompressGUID(tt.in))
		})
	}
}

func TestNewGlobalIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := ifc.NewGlobalID()
		require.Len(t, id, 22)
		require.False(t, seen[id])
		seen[id] = true
	}
}

func TestProfileEntities(t *testing.T) {
	pos := profile.Placement2D{RefDirection: r2.Point{X: 1}}
	fillet := 0.5
	tests := []struct {
		name   string
		p      profile.Profile
		entity string
	}{
		{"rectangle", profile.RectangleProfile{Position: pos, XDim: 2, YDim: 3}, "IFCRECTANGLEPROFILEDEF"},
		{"circle", profile.CircleProfile{Position: pos, Radius: 1}, "IFCCIRCLEPROFILEDEF"},
		{"hollow", profile.CircleProfile{Position: pos, Radius: 1, InnerRadius: 0.8}, "IFCCIRCLEHOLLOWPROFILEDEF"},
		{"ishape", profile.IShapeProfile{
			Position: pos, OverallWidth: 10, OverallDepth: 20,
			WebThickness: 1, FlangeThickness: 2, FilletRadius: &fillet,
		}, "IFCISHAPEPROFILEDEF"},
		{"arbitrary", profile.ArbitraryProfile{
			Outer: profile.Polyline{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}},
		}, "IFCARBITRARYCLOSEDPROFILEDEF"},
		{"voids", profile.ArbitraryProfile{
			Outer: profile.Polyline{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4}},
			Inner: []profile.Polyline{{{X: 1, Y: 1}, {X: 1, Y: 2}, {X: 2, Y: 2}}},
		}, "IFCARBITRARYPROFILEDEFWITHVOIDS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ifc.NewWriter(step.NewFile("IFC2X3"))
			h, err := w.Profile("P", tt.p)
			require.NoError(t, err)
			entity, args, ok := w.File().Entity(h)
			require.True(t, ok)
			assert.Equal(t, tt.entity, entity)
			assert.Equal(t, step.Enum("AREA"), args[0])
			assert.Equal(t, "P", args[1])
		})
	}
}

func TestHollowWallThickness(t *testing.T) {
	w := ifc.NewWriter(step.NewFile("IFC2X3"))
	h, err := w.Profile("", profile.CircleProfile{Radius: 1, InnerRadius: 0.75})
	require.NoError(t, err)
	_, args, _ := w.File().Entity(h)
	assert.Nil(t, args[1])
	assert.InDelta(t, 1.0, args[3], 1e-12)
	assert.InDelta(t, 0.25, args[4], 1e-12)
}

func TestProfileRejectsShortOutline(t *testing.T) {
	w := ifc.NewWriter(step.NewFile("IFC2X3"))
	_, err := w.Profile("", profile.ArbitraryProfile{Outer: profile.Polyline{{}, {X: 1}}})
	assert.Error(t, err)
}

func TestPolylineClosed(t *testing.T) {
	w := ifc.NewWriter(step.NewFile("IFC2X3"))
	h := w.Polyline(profile.Polyline{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}})
	_, args, _ := w.File().Entity(h)
	pts := args[0].([]step.Handle)
	require.Len(t, pts, 4)
	assert.Equal(t, pts[0], pts[3])
}

func TestClippedSolidEntities(t *testing.T) {
	f := step.NewFile("IFC2X3")
	w := ifc.NewWriter(f)

	pl, err := geom.NewPlane(r3.Vector{}, r3.Vector{X: 1}, r3.Vector{Y: 1})
	require.NoError(t, err)
	d := extrusion.Description{
		Profile:        profile.RectangleProfile{Position: profile.Placement2D{RefDirection: r2.Point{X: 1}}, XDim: 1, YDim: 1},
		Plane:          pl,
		Direction:      r3.Vector{Z: 1},
		LocalDirection: r3.Vector{Z: 1},
		Depth:          3,
	}
	prof, err := w.Profile("", d.Profile)
	require.NoError(t, err)
	body := w.ExtrudedAreaSolid(prof, d)

	cut, err := geom.NewPlane(r3.Vector{Z: 2}, r3.Vector{X: 1}, r3.Vector{Y: -1})
	require.NoError(t, err)
	clip := w.BooleanClippingResult(body, w.HalfSpaceSolid(cut))
	brep := w.FacetedBrep(geom.BoxFaces(r3.Vector{X: -1, Y: -1, Z: -1}, r3.Vector{X: 1, Y: 1, Z: 1}))
	res := w.BooleanResult(ifc.Difference, clip, brep)
	rep := w.ShapeRepresentation(ifc.RepCSG, []step.Handle{res})
	w.Product("IFCCOLUMN", ifc.NewGlobalID(), "C1", "", w.ProductDefinitionShape(rep))

	assert.Equal(t, 1, f.Count("IFCEXTRUDEDAREASOLID"))
	assert.Equal(t, 1, f.Count("IFCHALFSPACESOLID"))
	assert.Equal(t, 6, f.Count("IFCFACE"))
	assert.Equal(t, 1, f.Count("IFCGEOMETRICREPRESENTATIONCONTEXT"))

	_, args, _ := f.Entity(clip)
	assert.Equal(t, step.Enum("DIFFERENCE"), args[0])

	var buf bytes.Buffer
	_, err = f.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "IFCSHAPEREPRESENTATION(")
	assert.Contains(t, buf.String(), "'CSG'")
}

func TestContextShared(t *testing.T) {
	f := step.NewFile("IFC2X3")
	w := ifc.NewWriter(f)
	a := w.ShapeRepresentation(ifc.RepSweptSolid, nil)
	b := w.ShapeRepresentation(ifc.RepClipping, nil)
	_, aa, _ := f.Entity(a)
	_, ba, _ := f.Entity(b)
	assert.Equal(t, aa[0], ba[0])
	assert.Equal(t, 1, f.Count("IFCGEOMETRICREPRESENTATIONCONTEXT"))
}

func TestContextRecreatedAfterRollback(t *testing.T) {
	f := step.NewFile("IFC2X3")
	w := ifc.NewWriter(f)
	tx := w.Begin()
	w.ShapeRepresentation(ifc.RepSweptSolid, nil)
	tx.Rollback()
	require.Equal(t, 0, f.Len())

	rep := w.ShapeRepresentation(ifc.RepSweptSolid, nil)
	_, args, _ := f.Entity(rep)
	entity, _, ok := f.Entity(args[0].(step.Handle))
	require.True(t, ok)
	assert.Equal(t, "IFCGEOMETRICREPRESENTATIONCONTEXT", entity)
}

func TestProjectStructure(t *testing.T) {
	f := step.NewFile("IFC2X3")
	w := ifc.NewWriter(f)

	project, site := w.Project("p")
	require.False(t, project.IsNull())
	require.False(t, site.IsNull())
	assert.Equal(t, 4, f.Count("IFCSIUNIT"))
	assert.Equal(t, 1, f.Count("IFCRELAGGREGATES"))

	entity, args, ok := f.Entity(project)
	require.True(t, ok)
	assert.Equal(t, "IFCPROJECT", entity)
	assert.Equal(t, "p", args[2])

	rel := w.ContainInSite(site, []step.Handle{10, 11})
	_, args, ok = f.Entity(rel)
	require.True(t, ok)
	assert.Equal(t, site, args[5])

	layer := w.PresentationLayer("A-WALL", []step.Handle{12})
	entity, args, _ = f.Entity(layer)
	assert.Equal(t, "IFCPRESENTATIONLAYERASSIGNMENT", entity)
	assert.Equal(t, []step.Handle{12}, args[2])

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), ".MILLI.")
}

func TestElementQuantity(t *testing.T) {
	f := step.NewFile("IFC2X3")
	w := ifc.NewWriter(f)

	w.ElementQuantity(1, extrusion.Quantities{Length: 3, Area: 8, OuterPerimeter: 12, Height: 2, Width: 4})
	assert.Equal(t, 1, f.Count("IFCELEMENTQUANTITY"))
	assert.Equal(t, 1, f.Count("IFCRELDEFINESBYPROPERTIES"))
	assert.Equal(t, 1, f.Count("IFCQUANTITYAREA"))
	// Length, OuterPerimeter, Height and Width.
	assert.Equal(t, 4, f.Count("IFCQUANTITYLENGTH"))
}
