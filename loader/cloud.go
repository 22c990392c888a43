package loader

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/voxelmesh/logging"
	"go.viam.com/voxelmesh/octree"
	pc "go.viam.com/voxelmesh/pointcloud"
	"go.viam.com/voxelmesh/utils"
)

func init() {
	Register(".pcd", newCloudLoaderFactory("pcd", readPCD))
	Register(".ply", newCloudLoaderFactory("ply", readPLY))
	Register(".las", newCloudLoaderFactory("las", readLAS))
}

// decodeFunc reads a whole point cloud from r.
type decodeFunc func(r io.Reader, logger logging.Logger) (pc.PointCloud, error)

// cloudLoader decodes a point cloud format and buckets the points into an octree.
type cloudLoader struct {
	format string
	decode decodeFunc
	lod    octree.LOD
	logger logging.Logger
}

func newCloudLoaderFactory(format string, decode decodeFunc) Factory {
	return func(logger logging.Logger) Loader {
		return &cloudLoader{format: format, decode: decode, lod: octree.DefaultLOD(), logger: logger}
	}
}

func (l *cloudLoader) Configure(lod octree.LOD) {
	l.lod = lod
}

func (l *cloudLoader) Load(ctx context.Context, url string, observer ProgressObserver) (octree.Octree, error) {
	if err := l.lod.Validate(); err != nil {
		return nil, &DecodeError{URL: url, Format: l.format, Err: err}
	}
	src, size, err := Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer goutils.UncheckedErrorFunc(src.Close)

	r := newProgressReader(ctx, src, size, observer)
	cloud, err := l.decode(r, l.logger)
	if err != nil {
		if r.err != nil {
			return nil, &TransportError{URL: url, Err: r.err}
		}
		return nil, &DecodeError{URL: url, Format: l.format, Err: err}
	}
	l.logger.Debugw("decoded point cloud", "url", url, "points", cloud.Size(), "bytes", r.loaded)

	tree, err := octree.NewFromPointCloud(ctx, cloud, l.lod, l.logger)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &TransportError{URL: url, Err: ctxErr}
		}
		return nil, &DecodeError{URL: url, Format: l.format, Err: err}
	}
	return tree, nil
}

func readPCD(r io.Reader, _ logging.Logger) (pc.PointCloud, error) {
	return pc.ReadPCD(r)
}

func readPLY(r io.Reader, _ logging.Logger) (pc.PointCloud, error) {
	return pc.ReadPLY(r)
}

// readLAS spools r to a temporary file since LAS files are read with random access.
func readLAS(r io.Reader, logger logging.Logger) (pc.PointCloud, error) {
	f, err := os.CreateTemp("", "voxelmesh-*.las")
	if err != nil {
		return nil, errors.Wrap(err, "cannot create temporary LAS file")
	}
	defer utils.RemoveFileNoError(f.Name())

	if _, err := io.Copy(f, r); err != nil {
		return nil, multierr.Combine(err, f.Close())
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return pc.NewFromLASFile(f.Name(), logger)
}
