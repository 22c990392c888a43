package octree

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	pc "go.viam.com/voxelmesh/pointcloud"
)

// Creates a new LeafNodeEmpty.
func newLeafNodeEmpty() basicOctreeNode {
	octNode := basicOctreeNode{
		children: nil,
		nodeType: LeafNodeEmpty,
		points:   nil,
	}
	return octNode
}

// Creates a new InternalNode with specified children nodes.
func newInternalNode(tree []*basicOctree) basicOctreeNode {
	octNode := basicOctreeNode{
		children: tree,
		nodeType: InternalNode,
		points:   nil,
	}
	return octNode
}

// Creates a new LeafNodeFilled and stores specified position and data.
func newLeafNodeFilled(p r3.Vector, d pc.Data) basicOctreeNode {
	octNode := basicOctreeNode{
		children: nil,
		nodeType: LeafNodeFilled,
		points:   []pc.PointAndData{{P: p, D: d}},
	}
	return octNode
}

// Splits a filled basic octree node into eight octants and redistributes its points into them.
// The node's size and metadata are unchanged since it still contains the same points.
func (octree *basicOctree) splitIntoOctants() error {
	switch octree.node.nodeType {
	case InternalNode:
		return errors.New("error attempted to split internal node")
	case LeafNodeEmpty:
		return errors.New("error attempted to split empty leaf node")
	case LeafNodeFilled:
	}

	children := make([]*basicOctree, 0, 8)
	newSideLength := octree.sideLength / 2
	for _, i := range []float64{-1.0, 1.0} {
		for _, j := range []float64{-1.0, 1.0} {
			for _, k := range []float64{-1.0, 1.0} {
				centerOffset := r3.Vector{
					X: i * newSideLength / 2.,
					Y: j * newSideLength / 2.,
					Z: k * newSideLength / 2.,
				}
				newCenter := octree.center.Add(centerOffset)

				// Create a new basic octree child
				child := &basicOctree{
					center:     newCenter,
					sideLength: newSideLength,
					depth:      octree.depth + 1,
					lod:        octree.lod,
					logger:     octree.logger,
					node:       newLeafNodeEmpty(),
					meta:       pc.NewMetaData(),
				}
				children = append(children, child)
			}
		}
	}

	points := octree.node.points
	for _, point := range points {
		if !octree.checkPointPlacement(point.P) {
			return errors.New("error point is outside the bounds of this octree")
		}
	}

	octree.node = newInternalNode(children)
	for _, point := range points {
		placed := false
		for _, child := range children {
			if child.checkPointPlacement(point.P) {
				if _, err := child.set(point.P, point.D); err != nil {
					return err
				}
				placed = true
				break
			}
		}
		if !placed {
			return errors.New("error invalid internal node detected, please check your tree")
		}
	}
	return nil
}

// Checks that a point should be inside a basic octree based on its center and defined side length.
func (octree *basicOctree) checkPointPlacement(p r3.Vector) bool {
	return ((math.Abs(octree.center.X-p.X) <= octree.sideLength/2.) &&
		(math.Abs(octree.center.Y-p.Y) <= octree.sideLength/2.) &&
		(math.Abs(octree.center.Z-p.Z) <= octree.sideLength/2.))
}
