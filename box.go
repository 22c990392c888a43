// Package voxelmesh turns the leaves of a point octree into a single renderable mesh of
// axis aligned boxes, one box per occupied leaf.
package voxelmesh

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/voxelmesh/mesh"
	"go.viam.com/voxelmesh/utils"
)

// Box describes the voxel drawn for one leaf: extents along x, y and z, and the point the box is
// centered on.
type Box struct {
	Width  float64
	Height float64
	Depth  float64
	Center r3.Vector
}

// BoxFromPoints returns the box for a non-empty set of points. Each extent is the spread of the
// points along that axis plus voxelSize, rounded to two decimals but never below voxelSize. An
// axis without spread is exactly voxelSize, so a single point gives a cube of side voxelSize. The
// box is centered on the mean of the points, not the middle of their extent.
func BoxFromPoints(points []r3.Vector, voxelSize float64) Box {
	min := r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max := r3.Vector{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	var sum r3.Vector
	for _, p := range points {
		min = r3.Vector{X: math.Min(min.X, p.X), Y: math.Min(min.Y, p.Y), Z: math.Min(min.Z, p.Z)}
		max = r3.Vector{X: math.Max(max.X, p.X), Y: math.Max(max.Y, p.Y), Z: math.Max(max.Z, p.Z)}
		sum = sum.Add(p)
	}
	n := float64(len(points))
	return Box{
		Width:  boxExtent(max.X-min.X, voxelSize),
		Height: boxExtent(max.Y-min.Y, voxelSize),
		Depth:  boxExtent(max.Z-min.Z, voxelSize),
		Center: r3.Vector{X: sum.X / n, Y: sum.Y / n, Z: sum.Z / n},
	}
}

func boxExtent(spread, voxelSize float64) float64 {
	if spread == 0 {
		return voxelSize
	}
	return math.Max(voxelSize, utils.Round2(voxelSize+spread))
}

// Geometry returns the box as a mesh geometry positioned at its center.
func (b Box) Geometry() *mesh.Geometry {
	return mesh.NewBoxGeometry(b.Width, b.Height, b.Depth).Translate(b.Center)
}
