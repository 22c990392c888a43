// Package mesh contains an indexed triangle buffer with optional per vertex colors, the material it
// is drawn with, and an ASCII PLY writer for handing meshes to other tools.
package mesh

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// White is the fill color given to uncolored vertices when they share a buffer with colored ones.
var White = colorful.Color{R: 1, G: 1, B: 1}

// Geometry is an indexed triangle buffer. Every three entries of Indices form a counter clockwise
// triangle. Normals and Colors are either empty or hold exactly one entry per position.
type Geometry struct {
	Positions []r3.Vector
	Normals   []r3.Vector
	// Colors is nil for an uncolored geometry.
	Colors  []colorful.Color
	Indices []int
}

// VertexCount returns the number of vertices in the buffer.
func (g *Geometry) VertexCount() int {
	return len(g.Positions)
}

// TriangleCount returns the number of triangles in the buffer.
func (g *Geometry) TriangleCount() int {
	return len(g.Indices) / 3
}

// HasColors reports whether the geometry carries a color attribute.
func (g *Geometry) HasColors() bool {
	return g.Colors != nil
}

// HasNormals reports whether every vertex has a normal.
func (g *Geometry) HasNormals() bool {
	return len(g.Positions) > 0 && len(g.Normals) == len(g.Positions)
}

// SetColor attaches a color attribute giving every vertex c.
func (g *Geometry) SetColor(c colorful.Color) {
	g.Colors = make([]colorful.Color, len(g.Positions))
	for i := range g.Colors {
		g.Colors[i] = c
	}
}

// Translate moves every position by v in place and returns g.
func (g *Geometry) Translate(v r3.Vector) *Geometry {
	for i := range g.Positions {
		g.Positions[i] = g.Positions[i].Add(v)
	}
	return g
}

// Clone returns a deep copy of the geometry.
func (g *Geometry) Clone() *Geometry {
	clone := &Geometry{
		Positions: append([]r3.Vector(nil), g.Positions...),
		Indices:   append([]int(nil), g.Indices...),
	}
	if g.Normals != nil {
		clone.Normals = append([]r3.Vector{}, g.Normals...)
	}
	if g.Colors != nil {
		clone.Colors = append([]colorful.Color{}, g.Colors...)
	}
	return clone
}

// Bounds returns the component wise minimum and maximum of the positions. An empty geometry
// has zero bounds.
func (g *Geometry) Bounds() (r3.Vector, r3.Vector) {
	if len(g.Positions) == 0 {
		return r3.Vector{}, r3.Vector{}
	}
	min := r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max := r3.Vector{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, p := range g.Positions {
		min = r3.Vector{X: math.Min(min.X, p.X), Y: math.Min(min.Y, p.Y), Z: math.Min(min.Z, p.Z)}
		max = r3.Vector{X: math.Max(max.X, p.X), Y: math.Max(max.Y, p.Y), Z: math.Max(max.Z, p.Z)}
	}
	return min, max
}

// Merge appends other to g, offsetting its indices past g's vertices. When exactly one side is
// colored the other side's vertices are filled with White so the color attribute stays aligned
// with the positions.
func (g *Geometry) Merge(other *Geometry) {
	offset := len(g.Positions)

	switch {
	case g.HasColors() && other.HasColors():
		g.Colors = append(g.Colors, other.Colors...)
	case g.HasColors():
		for range other.Positions {
			g.Colors = append(g.Colors, White)
		}
	case other.HasColors():
		colors := make([]colorful.Color, offset, offset+len(other.Colors))
		for i := range colors {
			colors[i] = White
		}
		g.Colors = append(colors, other.Colors...)
	}

	if (offset == 0 || g.HasNormals()) && other.HasNormals() {
		g.Normals = append(g.Normals, other.Normals...)
	} else {
		g.Normals = nil
	}

	g.Positions = append(g.Positions, other.Positions...)
	for _, idx := range other.Indices {
		g.Indices = append(g.Indices, idx+offset)
	}
}

// Triangle returns the corners of the i-th triangle.
func (g *Geometry) Triangle(i int) (r3.Vector, r3.Vector, r3.Vector) {
	return g.Positions[g.Indices[3*i]], g.Positions[g.Indices[3*i+1]], g.Positions[g.Indices[3*i+2]]
}

// FaceNormals returns the unit normal of every triangle, following the right hand rule over the
// triangle's winding. Degenerate triangles get a zero normal.
func (g *Geometry) FaceNormals() []r3.Vector {
	normals := make([]r3.Vector, g.TriangleCount())
	for i := range normals {
		p0, p1, p2 := g.Triangle(i)
		normals[i] = planeNormal(p0, p1, p2)
	}
	return normals
}

// ComputeVertexNormals replaces Normals with the area weighted average of the normals of the
// triangles each vertex belongs to.
func (g *Geometry) ComputeVertexNormals() {
	normals := make([]r3.Vector, len(g.Positions))
	for i := 0; i < g.TriangleCount(); i++ {
		p0, p1, p2 := g.Triangle(i)
		// unnormalized, so its length is twice the triangle's area
		weighted := p1.Sub(p0).Cross(p2.Sub(p0))
		for _, idx := range g.Indices[3*i : 3*i+3] {
			normals[idx] = normals[idx].Add(weighted)
		}
	}
	for i := range normals {
		normals[i] = normals[i].Normalize()
	}
	g.Normals = normals
}

// Validate checks that indices form whole triangles within the vertex range and that attributes
// are aligned with positions.
func (g *Geometry) Validate() error {
	if len(g.Indices)%3 != 0 {
		return errors.Errorf("index count %d is not a multiple of 3", len(g.Indices))
	}
	for i, idx := range g.Indices {
		if idx < 0 || idx >= len(g.Positions) {
			return errors.Errorf("index %d at %d is out of range for %d vertices", idx, i, len(g.Positions))
		}
	}
	if len(g.Normals) != 0 && len(g.Normals) != len(g.Positions) {
		return errors.Errorf("have %d normals for %d vertices", len(g.Normals), len(g.Positions))
	}
	if g.Colors != nil && len(g.Colors) != len(g.Positions) {
		return errors.Errorf("have %d colors for %d vertices", len(g.Colors), len(g.Positions))
	}
	return nil
}

func planeNormal(p0, p1, p2 r3.Vector) r3.Vector {
	return p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
}
