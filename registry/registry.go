// Package registry is the boundary the transport layer consumes: datasets
// are registered under opaque handles, and completed sketch results are
// memoized so identical requests against an unchanged dataset are served
// from cache.
package registry

import (
	"log/slog"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"
)

// ErrNoSuchHandle is returned for handles that were never registered or
// were dropped.
var ErrNoSuchHandle = errors.New("no such dataset handle")

// Handle identifies a registered dataset tree.
type Handle = uuid.UUID

// Registry maps handles to dataset trees. The stored values are the trees
// themselves, which are read-only shared state, so lookups can run
// concurrently with sketches.
type Registry struct {
	mu      sync.RWMutex
	targets map[Handle]interface{}
	cache   *ristretto.Cache
	logger  *slog.Logger
}

func New(logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1 << 14,
		MaxCost:     1 << 10,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Registry{
		targets: make(map[Handle]interface{}),
		cache:   cache,
		logger:  logger,
	}, nil
}

// Register stores a dataset tree and returns its fresh handle.
func (r *Registry) Register(dataset interface{}) Handle {
	h := uuid.New()
	r.mu.Lock()
	r.targets[h] = dataset
	r.mu.Unlock()
	r.logger.Debug("registered dataset", "handle", h)
	return h
}

// Get returns the dataset registered under the handle.
func (r *Registry) Get(h Handle) (interface{}, error) {
	r.mu.RLock()
	ds, ok := r.targets[h]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Mark(errors.Newf("handle %s", h), ErrNoSuchHandle)
	}
	return ds, nil
}

// Drop forgets a handle. Cached results under that handle become
// unreachable and age out of the cache.
func (r *Registry) Drop(h Handle) {
	r.mu.Lock()
	delete(r.targets, h)
	r.mu.Unlock()
	r.logger.Debug("dropped dataset", "handle", h)
}

// Memoize returns the cached result for (handle, fingerprint) if present,
// otherwise computes, caches, and returns it. The fingerprint must encode
// every argument of the sketch request, including seeds; randomized
// requests that should differ per run must carry differing seeds.
func (r *Registry) Memoize(h Handle, fingerprint string, compute func() (interface{}, error)) (interface{}, error) {
	key := h.String() + "|" + fingerprint
	if cached, ok := r.cache.Get(key); ok {
		r.logger.Debug("sketch result served from cache", "handle", h)
		return cached, nil
	}
	result, err := compute()
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, result, 1)
	// Make the write visible before the next identical request.
	r.cache.Wait()
	return result, nil
}

// Close releases the result cache.
func (r *Registry) Close() {
	r.cache.Close()
}
