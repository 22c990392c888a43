package loader

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/voxelmesh/logging"
)

// ErrUnsupportedFormat is wrapped by the DecodeError returned for extensions nothing is registered for.
var ErrUnsupportedFormat = errors.New("unsupported format")

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register adds a factory for files with the given extension, compared case insensitively with or
// without the leading dot. It panics if the extension is already registered or the factory is nil.
func Register(ext string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	ext = normalizeExtension(ext)
	if ext == "." {
		panic(errors.New("cannot register a loader for an empty extension"))
	}
	if factory == nil {
		panic(errors.Errorf("cannot register a nil factory for extension %q", ext))
	}
	if _, old := registry[ext]; old {
		panic(errors.Errorf("trying to register two loaders for extension %q", ext))
	}
	registry[ext] = factory
}

// Deregister removes a previously registered extension.
func Deregister(ext string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, normalizeExtension(ext))
}

// SelectLoader returns a new Loader for files with the given extension.
func SelectLoader(ext string, logger logging.Logger) (Loader, error) {
	ext = normalizeExtension(ext)

	registryMu.RLock()
	factory, ok := registry[ext]
	registryMu.RUnlock()
	if !ok {
		return nil, &DecodeError{
			Format: strings.TrimPrefix(ext, "."),
			Err:    errors.Wrapf(ErrUnsupportedFormat, "no loader registered for extension %q", ext),
		}
	}
	return factory(logger.Sublogger(strings.TrimPrefix(ext, "."))), nil
}

// Extensions returns the registered extensions in sorted order.
func Extensions() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	exts := make([]string, 0, len(registry))
	for ext := range registry {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
