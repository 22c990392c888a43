// Package octree implements a bucketed octree representation of pointclouds. Leaves hold up to a
// level of detail's worth of points and can be walked depth first for mesh generation.
package octree

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	pc "go.viam.com/voxelmesh/pointcloud"
)

// Each node in the octree is either an internal node which links to other nodes, is an empty node with
// no points or further links, or is an occupied node which contains a bucket of points and their data.
const (
	InternalNode = NodeType(iota)
	LeafNodeEmpty
	LeafNodeFilled
)

// NodeType represents the possible types of nodes in an octree.
type NodeType uint8

// String returns the name of the node type.
func (n NodeType) String() string {
	switch n {
	case InternalNode:
		return "InternalNode"
	case LeafNodeEmpty:
		return "LeafNodeEmpty"
	case LeafNodeFilled:
		return "LeafNodeFilled"
	}
	return "Unknown"
}

const (
	// DefaultMaxPoints is the default number of points a leaf holds before it is split.
	DefaultMaxPoints = 1
	// DefaultMaxDepth is the default depth past which leaves are no longer split.
	DefaultMaxDepth = 10
)

// LOD is the level of detail budget of an octree. A leaf holding MaxPoints points is split into
// octants on the next insertion unless it already sits at MaxDepth, in which case it keeps growing.
type LOD struct {
	MaxPoints int `json:"max_points"`
	MaxDepth  int `json:"max_depth"`
}

// DefaultLOD returns the level of detail used when none is configured.
func DefaultLOD() LOD {
	return LOD{MaxPoints: DefaultMaxPoints, MaxDepth: DefaultMaxDepth}
}

// Validate ensures the budget can be honoured.
func (lod LOD) Validate() error {
	if lod.MaxPoints < 1 {
		return errors.Errorf("max points must be at least 1, got %d", lod.MaxPoints)
	}
	if lod.MaxDepth < 0 {
		return errors.Errorf("max depth must not be negative, got %d", lod.MaxDepth)
	}
	return nil
}

// Leaf is a terminal cell of an octree and the points that fall inside it. Data()[i] is the
// attribute record of Points()[i].
type Leaf interface {
	Points() []r3.Vector
	Data() []pc.Data
}

// LeafIterator walks leaves in a stable order. Iteration stops early when fn returns false.
type LeafIterator interface {
	IterateLeaves(fn func(leaf Leaf) bool)
}

// Octree is a data structure that recursively partitions 3D space into octants to represent occupancy. It
// is a storage format for a pointcloud that allows for better searchability and leaf traversal. Each node
// is either an internal node, empty node or filled leaf node.
type Octree interface {
	pc.PointCloud
	LeafIterator

	// LOD returns the level of detail the octree was built with.
	LOD() LOD
	// Center returns the center of the octree's root cube.
	Center() r3.Vector
	// SideLength returns the side length of the octree's root cube.
	SideLength() float64
}
