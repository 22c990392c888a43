package mesh

import (
	"github.com/golang/geo/r3"
)

const (
	// BoxVertexCount is the number of vertices of a box geometry. Faces do not share vertices.
	BoxVertexCount = 24
	// BoxIndexCount is the number of indices of a box geometry.
	BoxIndexCount = 36
	// BoxTriangleCount is the number of triangles of a box geometry, two per face.
	BoxTriangleCount = 12
)

var (
	axisX = r3.Vector{X: 1}
	axisY = r3.Vector{Y: 1}
	axisZ = r3.Vector{Z: 1}
)

// boxFaces lists each face's outward normal followed by the in-plane axes u and v, with u x v equal to
// the normal so the corner order below winds counter clockwise when seen from outside.
var boxFaces = [6][3]r3.Vector{
	{axisX, axisY, axisZ},
	{axisX.Mul(-1), axisZ, axisY},
	{axisY, axisZ, axisX},
	{axisY.Mul(-1), axisX, axisZ},
	{axisZ, axisX, axisY},
	{axisZ.Mul(-1), axisY, axisX},
}

// corner signs along u and v, in winding order.
var boxCorners = [4][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

// NewBoxGeometry returns an axis aligned box centered at the origin with extents width (x),
// height (y) and depth (z). Each face has its own four vertices carrying the face normal, and
// two triangles.
func NewBoxGeometry(width, height, depth float64) *Geometry {
	half := r3.Vector{X: width / 2, Y: height / 2, Z: depth / 2}
	g := &Geometry{
		Positions: make([]r3.Vector, 0, BoxVertexCount),
		Normals:   make([]r3.Vector, 0, BoxVertexCount),
		Indices:   make([]int, 0, BoxIndexCount),
	}
	for _, face := range boxFaces {
		n, u, v := face[0], face[1], face[2]
		base := len(g.Positions)
		center := scale(n, half)
		for _, c := range boxCorners {
			p := center.Add(scale(u, half).Mul(c[0])).Add(scale(v, half).Mul(c[1]))
			g.Positions = append(g.Positions, p)
			g.Normals = append(g.Normals, n)
		}
		g.Indices = append(g.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return g
}

// scale multiplies each component of axis by the matching component of half.
func scale(axis, half r3.Vector) r3.Vector {
	return r3.Vector{X: axis.X * half.X, Y: axis.Y * half.Y, Z: axis.Z * half.Z}
}
