package octree

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	pc "go.viam.com/voxelmesh/pointcloud"
)

type basicLeaf struct {
	points []r3.Vector
	data   []pc.Data
}

// NewLeaf returns a standalone leaf. points and data must be the same length.
func NewLeaf(points []r3.Vector, data []pc.Data) (Leaf, error) {
	if len(points) != len(data) {
		return nil, errors.Errorf("leaf has %d points but %d data records", len(points), len(data))
	}
	return &basicLeaf{points: points, data: data}, nil
}

func newLeafFromNode(bucket []pc.PointAndData) Leaf {
	l := &basicLeaf{
		points: make([]r3.Vector, len(bucket)),
		data:   make([]pc.Data, len(bucket)),
	}
	for i, pd := range bucket {
		l.points[i] = pd.P
		l.data[i] = pd.D
	}
	return l
}

func (l *basicLeaf) Points() []r3.Vector {
	return l.points
}

func (l *basicLeaf) Data() []pc.Data {
	return l.data
}

// Leaves is a fixed, ordered list of leaves.
type Leaves []Leaf

// IterateLeaves visits the leaves in slice order.
func (ls Leaves) IterateLeaves(fn func(leaf Leaf) bool) {
	for _, l := range ls {
		if !fn(l) {
			return
		}
	}
}
