package voxelmesh

import (
	"context"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"go.viam.com/voxelmesh/loader"
	"go.viam.com/voxelmesh/logging"
	"go.viam.com/voxelmesh/mesh"
	"go.viam.com/voxelmesh/octree"
	"go.viam.com/voxelmesh/utils"
)

// DefaultVoxelSize is the voxel size of a new Generator.
const DefaultVoxelSize = 1.0

// Generator builds voxel meshes from octrees. Its settings may be changed between calls; each call
// uses the settings in effect when it starts.
type Generator struct {
	mu        sync.Mutex
	voxelSize float64
	material  *mesh.Material
	lod       octree.LOD
	observer  loader.ProgressObserver

	logger logging.Logger
}

// NewGenerator returns a Generator with a voxel size of DefaultVoxelSize, the default material and
// the default level of detail.
func NewGenerator(logger logging.Logger) *Generator {
	return &Generator{
		voxelSize: DefaultVoxelSize,
		material:  mesh.DefaultMaterial(),
		lod:       octree.DefaultLOD(),
		logger:    logger,
	}
}

// SetVoxelSize sets the extent added to every box. It must be finite and positive.
func (g *Generator) SetVoxelSize(size float64) error {
	if !utils.IsFinitePositive(size) {
		return newInvalidConfigurationError("", "voxel_size", size, "must be a finite positive number")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.voxelSize = size
	return nil
}

// VoxelSize returns the current voxel size.
func (g *Generator) VoxelSize() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.voxelSize
}

// SetVoxelMaterial sets the material shared by every voxel of generated meshes. A nil material
// restores the default.
func (g *Generator) SetVoxelMaterial(material *mesh.Material) {
	if material == nil {
		material = mesh.DefaultMaterial()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.material = material
}

// Material returns the current material.
func (g *Generator) Material() *mesh.Material {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.material
}

// SetLOD sets the level of detail loaders build octrees with.
func (g *Generator) SetLOD(lod octree.LOD) error {
	if err := lod.Validate(); err != nil {
		return newInvalidConfigurationError("", "lod", lod, err.Error())
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lod = lod
	return nil
}

// LOD returns the current level of detail.
func (g *Generator) LOD() octree.LOD {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lod
}

// SetProgressObserver sets the observer told about bytes read while loading. It may be nil.
func (g *Generator) SetProgressObserver(observer loader.ProgressObserver) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.observer = observer
}

// voxel is what a single leaf contributes to a mesh.
type voxel struct {
	box     Box
	color   colorful.Color
	colored bool
}

// GenerateMesh draws one box for every leaf of tree that holds points, in the tree's traversal
// order, and returns them as a single mesh with smoothed vertex normals and the configured
// material. The tree is only read. If no leaf holds points an *EmptyResultError is returned.
func (g *Generator) GenerateMesh(ctx context.Context, tree octree.LeafIterator) (*mesh.Mesh, error) {
	g.mu.Lock()
	voxelSize, material := g.voxelSize, g.material
	g.mu.Unlock()

	var leaves []octree.Leaf
	visited := 0
	tree.IterateLeaves(func(leaf octree.Leaf) bool {
		visited++
		if len(leaf.Points()) > 0 {
			leaves = append(leaves, leaf)
		}
		return ctx.Err() == nil
	})
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "mesh generation stopped")
	}
	if len(leaves) == 0 {
		return nil, &EmptyResultError{LeavesVisited: visited}
	}

	voxels := make([]voxel, len(leaves))
	errs, groupCtx := errgroup.WithContext(ctx)
	errs.SetLimit(utils.ParallelFactor)
	for i, leaf := range leaves {
		i, leaf := i, leaf // per-iteration copies; go.mod targets go 1.21
		errs.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			c, colored := ColorAttribute(leaf.Data())
			voxels[i] = voxel{box: BoxFromPoints(leaf.Points(), voxelSize), color: c, colored: colored}
			return nil
		})
	}
	if err := errs.Wait(); err != nil {
		return nil, errors.Wrap(err, "mesh generation stopped")
	}

	var acc Accumulator
	for _, v := range voxels {
		acc.Add(v.box, v.color, v.colored)
	}
	geometry := acc.Geometry()

	degenerate := 0
	for _, n := range geometry.FaceNormals() {
		if n.Norm2() == 0 {
			degenerate++
		}
	}
	if degenerate > 0 {
		g.logger.Warnw("voxel mesh has degenerate triangles", "count", degenerate)
	}
	geometry.ComputeVertexNormals()

	g.logger.Debugw("generated voxel mesh",
		"leaves_visited", visited,
		"empty_leaves_skipped", visited-len(leaves),
		"voxels_emitted", acc.Voxels(),
		"triangles", geometry.TriangleCount(),
		"colored", geometry.HasColors(),
	)
	return mesh.New(geometry, material), nil
}

// LoadOctree loads the file at url with the loader registered for its extension, using the
// generator's level of detail. Failures are *loader.TransportError or *loader.DecodeError.
func (g *Generator) LoadOctree(ctx context.Context, url string) (octree.Octree, error) {
	g.mu.Lock()
	lod, observer := g.lod, g.observer
	g.mu.Unlock()

	l, err := loader.SelectLoader(loader.Extension(url), g.logger)
	if err != nil {
		var decodeErr *loader.DecodeError
		if errors.As(err, &decodeErr) {
			decodeErr.URL = url
		}
		return nil, err
	}
	l.Configure(lod)

	defer utils.SlowLogger(ctx, "waiting for point cloud to load", "url", url, g.logger)()
	tree, err := l.Load(ctx, url, observer)
	if err != nil {
		return nil, err
	}
	g.logger.Debugw("loaded octree", "url", url, "points", tree.Size(), "side_length", tree.SideLength())
	return tree, nil
}

// LoadFile loads the file at url and generates its mesh.
func (g *Generator) LoadFile(ctx context.Context, url string) (*mesh.Mesh, error) {
	tree, err := g.LoadOctree(ctx, url)
	if err != nil {
		return nil, err
	}
	return g.GenerateMesh(ctx, tree)
}
