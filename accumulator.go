package voxelmesh

import (
	"github.com/lucasb-eyer/go-colorful"

	"go.viam.com/voxelmesh/mesh"
)

// Accumulator folds voxels into one geometry buffer. It is not safe for concurrent use.
type Accumulator struct {
	geometry *mesh.Geometry
	voxels   int
}

// Add appends a box, colored with c when colored is true. Boxes and colored boxes may be mixed;
// see mesh.Geometry.Merge for how missing colors are filled.
func (a *Accumulator) Add(box Box, c colorful.Color, colored bool) {
	g := box.Geometry()
	if colored {
		g.SetColor(c)
	}

	a.voxels++
	if a.geometry == nil {
		a.geometry = g
		return
	}
	a.geometry.Merge(g)
}

// Voxels returns the number of boxes added so far.
func (a *Accumulator) Voxels() int {
	return a.voxels
}

// Geometry returns the accumulated buffer, or nil if nothing was added.
func (a *Accumulator) Geometry() *mesh.Geometry {
	return a.geometry
}
