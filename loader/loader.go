// Package loader turns point files into octrees. A Loader is chosen by file extension from a
// registry that format implementations add themselves to, reads the file from a local path or a
// URL, and reports progress while reading.
package loader

import (
	"context"

	"go.viam.com/voxelmesh/logging"
	"go.viam.com/voxelmesh/octree"
)

// A Loader decodes one file format into an octree.
type Loader interface {
	// Configure sets the level of detail of the octrees produced by subsequent loads.
	Configure(lod octree.LOD)
	// Load fetches and decodes the file at url. Fetch failures and cancellation are reported as
	// *TransportError, malformed content as *DecodeError.
	Load(ctx context.Context, url string, observer ProgressObserver) (octree.Octree, error)
}

// A Factory constructs a Loader.
type Factory func(logger logging.Logger) Loader

// ProgressObserver is told how many bytes of a source have been read. total is -1 when the
// length of the source is unknown.
type ProgressObserver interface {
	Progress(loaded, total int64)
}

// ProgressFunc adapts a function to a ProgressObserver.
type ProgressFunc func(loaded, total int64)

// Progress calls f.
func (f ProgressFunc) Progress(loaded, total int64) {
	f(loaded, total)
}
