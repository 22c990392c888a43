package loader

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/voxelmesh/utils"
)

// Open returns a reader over the source named by rawURL along with its length, or -1 when the
// length is not known. rawURL is a local path, a file:// URL or an http(s):// URL. Every error
// is a *TransportError.
func Open(ctx context.Context, rawURL string) (io.ReadCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, &TransportError{URL: rawURL, Err: err}
	}
	scheme, _, isURL := strings.Cut(rawURL, "://")
	if !isURL {
		return openFile(rawURL, rawURL)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, 0, &TransportError{URL: rawURL, Err: err}
	}
	switch strings.ToLower(scheme) {
	case "file":
		return openFile(rawURL, u.Path)
	case "http", "https":
		return openHTTP(ctx, rawURL)
	default:
		return nil, 0, &TransportError{URL: rawURL, Err: errors.Errorf("unsupported scheme %q", scheme)}
	}
}

// Extension returns the lowercased extension of the file named by rawURL, ignoring any query.
func Extension(rawURL string) string {
	path := rawURL
	if strings.Contains(rawURL, "://") {
		if u, err := url.Parse(rawURL); err == nil {
			path = u.Path
		}
	}
	return strings.ToLower(filepath.Ext(path))
}

func openFile(rawURL, path string) (io.ReadCloser, int64, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, &TransportError{URL: rawURL, Err: err}
	}
	guard := utils.NewGuard(func() { goutils.UncheckedError(f.Close()) })
	defer guard.OnFail()

	info, err := f.Stat()
	if err != nil {
		return nil, 0, &TransportError{URL: rawURL, Err: err}
	}
	if info.IsDir() {
		return nil, 0, &TransportError{URL: rawURL, Err: errors.Errorf("%s is a directory", path)}
	}
	guard.Success()
	return f, info.Size(), nil
}

func openHTTP(ctx context.Context, rawURL string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, &TransportError{URL: rawURL, Err: err}
	}
	//nolint:bodyclose
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, &TransportError{URL: rawURL, Err: err}
	}
	guard := utils.NewGuard(func() { goutils.UncheckedError(resp.Body.Close()) })
	defer guard.OnFail()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, 0, &TransportError{URL: rawURL, Err: errors.Errorf("unexpected status %s", resp.Status)}
	}
	guard.Success()
	return resp.Body, resp.ContentLength, nil
}
