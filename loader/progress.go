package loader

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

// progressReader reports every read to an observer and stops reading once ctx is done. The first
// error from the underlying reader other than io.EOF is kept so it can be told apart from a
// decoding failure.
type progressReader struct {
	ctx      context.Context
	r        io.Reader
	observer ProgressObserver
	loaded   int64
	total    int64
	err      error
}

func newProgressReader(ctx context.Context, r io.Reader, total int64, observer ProgressObserver) *progressReader {
	return &progressReader{ctx: ctx, r: r, observer: observer, total: total}
}

func (pr *progressReader) Read(p []byte) (int, error) {
	if err := pr.ctx.Err(); err != nil {
		if pr.err == nil {
			pr.err = err
		}
		return 0, err
	}
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.loaded += int64(n)
		if pr.observer != nil {
			pr.observer.Progress(pr.loaded, pr.total)
		}
	}
	if err != nil && !errors.Is(err, io.EOF) && pr.err == nil {
		pr.err = err
	}
	return n, err
}
