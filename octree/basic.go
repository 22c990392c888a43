package octree

import (
	"context"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/voxelmesh/logging"
	pc "go.viam.com/voxelmesh/pointcloud"
)

// basicOctree is a data structure that represents a basic octree structure with information regarding center
// point, side length, depth and node data.
type basicOctree struct {
	logger     logging.Logger
	node       basicOctreeNode
	center     r3.Vector
	sideLength float64
	depth      int
	lod        LOD
	size       int32
	meta       pc.MetaData
}

// basicOctreeNode is a struct comprised of the type of node, children nodes (should they exist) and the
// bucket of points held by a filled leaf.
type basicOctreeNode struct {
	nodeType NodeType
	children []*basicOctree
	points   []pc.PointAndData
}

// New creates a new basic octree with specified center, side and level of detail.
func New(center r3.Vector, sideLength float64, lod LOD, logger logging.Logger) (Octree, error) {
	return newBasicOctree(center, sideLength, lod, logger)
}

func newBasicOctree(center r3.Vector, sideLength float64, lod LOD, logger logging.Logger) (*basicOctree, error) {
	if sideLength <= 0 {
		return nil, errors.Errorf("invalid side length (%.2f) for octree", sideLength)
	}
	if err := lod.Validate(); err != nil {
		return nil, err
	}

	octree := &basicOctree{
		logger:     logger,
		node:       newLeafNodeEmpty(),
		center:     center,
		sideLength: sideLength,
		lod:        lod,
		meta:       pc.NewMetaData(),
	}

	return octree, nil
}

// NewFromPointCloud builds an octree whose root cube tightly encloses every point of the cloud and
// inserts the points in the cloud's iteration order.
func NewFromPointCloud(ctx context.Context, cloud pc.PointCloud, lod LOD, logger logging.Logger) (Octree, error) {
	meta := cloud.MetaData()
	center := meta.Center()
	side := meta.MaxSideLength()
	if side == 0 {
		side = 1
	}
	// pad so points on the extrema are not lost to rounding of the center
	side *= 1 + 1e-6

	octree, err := newBasicOctree(center, side, lod, logger)
	if err != nil {
		return nil, err
	}

	var setErr error
	count := 0
	cloud.Iterate(0, 0, func(p r3.Vector, d pc.Data) bool {
		if count%1024 == 0 {
			if setErr = ctx.Err(); setErr != nil {
				return false
			}
		}
		count++
		setErr = octree.Set(p, d)
		return setErr == nil
	})
	if setErr != nil {
		return nil, setErr
	}
	logger.Debugw("built octree", "points", octree.Size(), "side", side,
		"max_points", lod.MaxPoints, "max_depth", lod.MaxDepth)
	return octree, nil
}

// Size returns the number of points stored in the octree.
func (octree *basicOctree) Size() int {
	return int(octree.size)
}

// LOD returns the level of detail the octree enforces.
func (octree *basicOctree) LOD() LOD {
	return octree.lod
}

// Center returns the center of the octree's cube.
func (octree *basicOctree) Center() r3.Vector {
	return octree.center
}

// SideLength returns the side length of the octree's cube.
func (octree *basicOctree) SideLength() float64 {
	return octree.sideLength
}

// Set checks if the point to be added is a valid point for a basic octree to contain based on its center and side
// length. It then recursively iterates through the tree until it finds the appropriate node to add it to. If the
// found leaf is already full and may still be subdivided, it is split into octants and its points, along with the
// new one, are redistributed into the newly created children trees.
func (octree *basicOctree) Set(p r3.Vector, d pc.Data) error {
	_, err := octree.set(p, d)
	return err
}

// set reports whether the point was newly inserted rather than updated in place.
func (octree *basicOctree) set(p r3.Vector, d pc.Data) (bool, error) {
	if !octree.checkPointPlacement(p) {
		return false, errors.New("error point is outside the bounds of this octree")
	}

	switch octree.node.nodeType {
	case InternalNode:
		for _, childNode := range octree.node.children {
			if childNode.checkPointPlacement(p) {
				inserted, err := childNode.set(p, d)
				if err == nil && inserted {
					octree.meta.Merge(p, d)
					octree.size++
				}
				return inserted, err
			}
		}
		return false, errors.New("error invalid internal node detected, please check your tree")

	case LeafNodeFilled:
		for i := range octree.node.points {
			if octree.node.points[i].P == p {
				octree.node.points[i].D = d
				return false, nil
			}
		}
		if len(octree.node.points) < octree.lod.MaxPoints || octree.depth >= octree.lod.MaxDepth {
			octree.node.points = append(octree.node.points, pc.PointAndData{P: p, D: d})
			octree.meta.Merge(p, d)
			octree.size++
			return true, nil
		}
		if err := octree.splitIntoOctants(); err != nil {
			return false, errors.Errorf("error in splitting octree into new octants: %v", err)
		}
		// The split turned this node internal so the point is routed to a child.
		return octree.set(p, d)

	case LeafNodeEmpty:
		octree.meta.Merge(p, d)
		octree.size++
		octree.node = newLeafNodeFilled(p, d)
	}

	return true, nil
}

// At traverses a basic octree to see if a point exists at the specified location. If a point does exist, its data
// is returned along with true. If a point does not exist, no data is returned and the boolean is returned false.
func (octree *basicOctree) At(x, y, z float64) (pc.Data, bool) {
	p := r3.Vector{X: x, Y: y, Z: z}
	// Check if point could exist in octree given bounds
	if !octree.checkPointPlacement(p) {
		return nil, false
	}

	switch octree.node.nodeType {
	case InternalNode:
		for _, child := range octree.node.children {
			d, exists := child.At(x, y, z)
			if exists {
				return d, true
			}
		}

	case LeafNodeFilled:
		for _, point := range octree.node.points {
			if point.P == p {
				return point.D, true
			}
		}

	case LeafNodeEmpty:
	}

	return nil, false
}

// Iterate is a batchable depth first walk over the points of the octree. With numBatches > 0 only
// the myBatch-th contiguous slice of the walk is visited.
func (octree *basicOctree) Iterate(numBatches, myBatch int, fn func(p r3.Vector, d pc.Data) bool) {
	lowerBound := 0
	upperBound := octree.Size()
	if numBatches > 0 {
		batchSize := (octree.Size() + numBatches - 1) / numBatches
		lowerBound = myBatch * batchSize
		upperBound = lowerBound + batchSize
		if upperBound > octree.Size() {
			upperBound = octree.Size()
		}
	}
	idx := 0
	octree.helperIterate(lowerBound, upperBound, &idx, fn)
}

func (octree *basicOctree) helperIterate(lowerBound, upperBound int, idx *int, fn func(p r3.Vector, d pc.Data) bool) bool {
	if *idx >= upperBound {
		return false
	}
	switch octree.node.nodeType {
	case InternalNode:
		for _, child := range octree.node.children {
			// whole subtrees before the window are skipped without visiting them
			if *idx+child.Size() <= lowerBound {
				*idx += child.Size()
				continue
			}
			if !child.helperIterate(lowerBound, upperBound, idx, fn) {
				return false
			}
		}
	case LeafNodeFilled:
		for _, point := range octree.node.points {
			if *idx >= upperBound {
				return false
			}
			if *idx >= lowerBound && !fn(point.P, point.D) {
				return false
			}
			*idx++
		}
	case LeafNodeEmpty:
	}
	return true
}

// IterateLeaves walks the leaves of the octree depth first, visiting children in octant order.
// Empty leaves are yielded too.
func (octree *basicOctree) IterateLeaves(fn func(leaf Leaf) bool) {
	octree.helperIterateLeaves(fn)
}

func (octree *basicOctree) helperIterateLeaves(fn func(leaf Leaf) bool) bool {
	switch octree.node.nodeType {
	case InternalNode:
		for _, child := range octree.node.children {
			if !child.helperIterateLeaves(fn) {
				return false
			}
		}
		return true
	default:
		return fn(newLeafFromNode(octree.node.points))
	}
}

// MetaData returns the metadata of the pointcloud stored in the octree.
func (octree *basicOctree) MetaData() pc.MetaData {
	return octree.meta
}
