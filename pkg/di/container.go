// Package di wires the cache service, key serializer, store backends and
// domain services together. It manages the singletons and exposes factory
// helpers for building cached collections.
package di

import (
	"github.com/hanlinkhaing/accountd/account"
	"github.com/hanlinkhaing/accountd/cache"
	"github.com/hanlinkhaing/accountd/sequence"
	"github.com/hanlinkhaing/accountd/store"
	"github.com/hanlinkhaing/accountd/storecache"
)

// Container provides dependency injection for the caching and account
// components. It holds singleton instances of the cache backend and key
// serializer so every cached collection shares them.
type Container struct {
	queryCache    cache.QueryCache
	keySerializer cache.KeySerializer
	logger        cache.Logger
	config        cache.Config
}

// Options configures a Container.
type Options struct {
	// QueryCache overrides the cache backend. When nil the in-process
	// backend is built from Config.
	QueryCache cache.QueryCache

	// Config is used when QueryCache is nil. Zero value means defaults.
	Config cache.Config

	// Logger receives degraded-mode cache events. Nil disables logging.
	Logger cache.Logger
}

// NewContainer creates a container with the provided options.
func NewContainer(opts Options) (*Container, error) {
	cfg := opts.Config
	if cfg == (cache.Config{}) {
		cfg = cache.DefaultConfig()
	}

	qc := opts.QueryCache
	if qc == nil {
		var err error
		qc, err = cache.NewMemoryQueryCache(cfg)
		if err != nil {
			return nil, err
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = cache.NopLogger{}
	}

	return &Container{
		queryCache:    qc,
		keySerializer: cache.NewDefaultKeySerializer(),
		logger:        logger,
		config:        cfg,
	}, nil
}

// NewContainerWithDefaults creates a container with the in-process cache
// backend and default configuration.
func NewContainerWithDefaults() (*Container, error) {
	return NewContainer(Options{})
}

// QueryCache returns the singleton cache backend.
func (c *Container) QueryCache() cache.QueryCache {
	return c.queryCache
}

// KeySerializer returns the singleton key serializer.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Config returns a copy of the cache configuration used by this container.
func (c *Container) Config() cache.Config {
	return c.config
}

// NewCachedCollection wraps a base collection with the container's caching
// policy. Since Go methods cannot have type parameters, this is a
// package-level function: NewCachedCollection[Customer](container, base).
func NewCachedCollection[T any](c *Container, base store.Collection[T]) *storecache.CachedCollection[T] {
	return storecache.New(base, c.queryCache, c.keySerializer, storecache.WithLogger[T](c.logger))
}

// NewAccountService assembles the account service from cached collections
// and a sequence store.
func NewAccountService(
	c *Container,
	customers store.Collection[account.Customer],
	configs store.Collection[account.Config],
	sequences sequence.Store,
	tokens *account.TokenIssuer,
) *account.Service {
	cachedCustomers := NewCachedCollection(c, customers)
	cachedConfigs := NewCachedCollection(c, configs)
	return account.NewService(cachedCustomers, cachedConfigs, sequence.NewAllocator(sequences), tokens)
}
