package mesh

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/lucasb-eyer/go-colorful"
	"go.viam.com/test"
)

func TestBoxGeometry(t *testing.T) {
	g := NewBoxGeometry(2, 4, 6)
	test.That(t, g.VertexCount(), test.ShouldEqual, BoxVertexCount)
	test.That(t, g.Indices, test.ShouldHaveLength, BoxIndexCount)
	test.That(t, g.TriangleCount(), test.ShouldEqual, BoxTriangleCount)
	test.That(t, g.HasNormals(), test.ShouldBeTrue)
	test.That(t, g.HasColors(), test.ShouldBeFalse)
	test.That(t, g.Validate(), test.ShouldBeNil)

	min, max := g.Bounds()
	test.That(t, min, test.ShouldResemble, r3.Vector{X: -1, Y: -2, Z: -3})
	test.That(t, max, test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})

	t.Run("faces wind outward", func(t *testing.T) {
		for i, n := range g.FaceNormals() {
			p0, p1, p2 := g.Triangle(i)
			centroid := p0.Add(p1).Add(p2).Mul(1. / 3)
			test.That(t, n.Norm(), test.ShouldAlmostEqual, 1.)
			test.That(t, n.Dot(centroid), test.ShouldBeGreaterThan, 0.)
			// every corner of the triangle carries the face normal
			for _, idx := range g.Indices[3*i : 3*i+3] {
				testVectorAlmostEqual(t, g.Normals[idx], n)
			}
		}
	})

	t.Run("each face lies on one side", func(t *testing.T) {
		for face := 0; face < 6; face++ {
			n := g.Normals[4*face]
			for corner := 0; corner < 4; corner++ {
				p := g.Positions[4*face+corner]
				test.That(t, g.Normals[4*face+corner], test.ShouldResemble, n)
				test.That(t, p.Dot(n), test.ShouldAlmostEqual, scale(n, r3.Vector{X: 1, Y: 2, Z: 3}).Norm())
			}
		}
	})

	t.Run("vertex normals of a box match its face normals", func(t *testing.T) {
		clone := g.Clone()
		clone.ComputeVertexNormals()
		test.That(t, clone.Normals, test.ShouldHaveLength, BoxVertexCount)
		for i, n := range clone.Normals {
			testVectorAlmostEqual(t, n, g.Normals[i])
		}
	})
}

func TestGeometryTranslateAndClone(t *testing.T) {
	g := NewBoxGeometry(1, 1, 1)
	clone := g.Clone()
	g.Translate(r3.Vector{X: 10, Y: -5, Z: 0.5})

	min, max := g.Bounds()
	test.That(t, min, test.ShouldResemble, r3.Vector{X: 9.5, Y: -5.5, Z: 0})
	test.That(t, max, test.ShouldResemble, r3.Vector{X: 10.5, Y: -4.5, Z: 1})

	min, max = clone.Bounds()
	test.That(t, min, test.ShouldResemble, r3.Vector{X: -.5, Y: -.5, Z: -.5})
	test.That(t, max, test.ShouldResemble, r3.Vector{X: .5, Y: .5, Z: .5})

	empty := &Geometry{}
	min, max = empty.Bounds()
	test.That(t, min, test.ShouldResemble, r3.Vector{})
	test.That(t, max, test.ShouldResemble, r3.Vector{})
	test.That(t, empty.Clone().HasColors(), test.ShouldBeFalse)
}

func TestGeometryMerge(t *testing.T) {
	red := colorful.Color{R: 1}

	t.Run("offsets indices", func(t *testing.T) {
		merged := &Geometry{}
		merged.Merge(NewBoxGeometry(1, 1, 1))
		merged.Merge(NewBoxGeometry(1, 1, 1).Translate(r3.Vector{X: 3}))
		test.That(t, merged.VertexCount(), test.ShouldEqual, 2*BoxVertexCount)
		test.That(t, merged.TriangleCount(), test.ShouldEqual, 2*BoxTriangleCount)
		test.That(t, merged.HasNormals(), test.ShouldBeTrue)
		test.That(t, merged.HasColors(), test.ShouldBeFalse)
		test.That(t, merged.Validate(), test.ShouldBeNil)
		for _, idx := range merged.Indices[BoxIndexCount:] {
			test.That(t, idx, test.ShouldBeGreaterThanOrEqualTo, BoxVertexCount)
		}
		min, max := merged.Bounds()
		test.That(t, min, test.ShouldResemble, r3.Vector{X: -.5, Y: -.5, Z: -.5})
		test.That(t, max, test.ShouldResemble, r3.Vector{X: 3.5, Y: .5, Z: .5})
	})

	t.Run("colored then uncolored", func(t *testing.T) {
		merged := NewBoxGeometry(1, 1, 1)
		merged.SetColor(red)
		merged.Merge(NewBoxGeometry(1, 1, 1))
		test.That(t, merged.Validate(), test.ShouldBeNil)
		test.That(t, merged.Colors, test.ShouldHaveLength, 2*BoxVertexCount)
		for i, c := range merged.Colors {
			if i < BoxVertexCount {
				test.That(t, c, test.ShouldResemble, red)
			} else {
				test.That(t, c, test.ShouldResemble, White)
			}
		}
	})

	t.Run("uncolored then colored", func(t *testing.T) {
		merged := NewBoxGeometry(1, 1, 1)
		colored := NewBoxGeometry(1, 1, 1)
		colored.SetColor(red)
		merged.Merge(colored)
		test.That(t, merged.Validate(), test.ShouldBeNil)
		test.That(t, merged.Colors, test.ShouldHaveLength, 2*BoxVertexCount)
		test.That(t, merged.Colors[0], test.ShouldResemble, White)
		test.That(t, merged.Colors[BoxVertexCount], test.ShouldResemble, red)
	})

	t.Run("dropping normals", func(t *testing.T) {
		merged := NewBoxGeometry(1, 1, 1)
		bare := NewBoxGeometry(1, 1, 1)
		bare.Normals = nil
		merged.Merge(bare)
		test.That(t, merged.Normals, test.ShouldBeNil)
		test.That(t, merged.Validate(), test.ShouldBeNil)
	})
}

func TestGeometryValidate(t *testing.T) {
	g := NewBoxGeometry(1, 1, 1)
	g.Indices = g.Indices[:5]
	test.That(t, g.Validate(), test.ShouldBeError, "index count 5 is not a multiple of 3")

	g = NewBoxGeometry(1, 1, 1)
	g.Indices[2] = 24
	test.That(t, g.Validate(), test.ShouldBeError, "index 24 at 2 is out of range for 24 vertices")

	g = NewBoxGeometry(1, 1, 1)
	g.Normals = g.Normals[:3]
	test.That(t, g.Validate().Error(), test.ShouldContainSubstring, "normals")

	g = NewBoxGeometry(1, 1, 1)
	g.Colors = []colorful.Color{White}
	test.That(t, g.Validate().Error(), test.ShouldContainSubstring, "colors")
}

func TestComputeVertexNormalsSharedVertices(t *testing.T) {
	// two triangles folded along the x axis; the shared edge averages both faces
	g := &Geometry{
		Positions: []r3.Vector{{X: 0}, {X: 1}, {Y: 1}, {Z: 1}},
		Indices:   []int{0, 1, 2, 0, 3, 1},
	}
	faces := g.FaceNormals()
	test.That(t, faces[0], test.ShouldResemble, r3.Vector{Z: 1})
	test.That(t, faces[1], test.ShouldResemble, r3.Vector{Y: 1})

	g.ComputeVertexNormals()
	test.That(t, g.Normals[2], test.ShouldResemble, r3.Vector{Z: 1})
	test.That(t, g.Normals[3], test.ShouldResemble, r3.Vector{Y: 1})
	test.That(t, g.Normals[0].Y, test.ShouldAlmostEqual, g.Normals[0].Z)
	test.That(t, g.Normals[0].Norm(), test.ShouldAlmostEqual, 1.)

	degenerate := &Geometry{
		Positions: []r3.Vector{{}, {X: 1}, {X: 2}},
		Indices:   []int{0, 1, 2},
	}
	test.That(t, degenerate.FaceNormals()[0], test.ShouldResemble, r3.Vector{})
}

func testVectorAlmostEqual(t *testing.T, actual, expected r3.Vector) {
	t.Helper()
	test.That(t, actual.X, test.ShouldAlmostEqual, expected.X)
	test.That(t, actual.Y, test.ShouldAlmostEqual, expected.Y)
	test.That(t, actual.Z, test.ShouldAlmostEqual, expected.Z)
}
