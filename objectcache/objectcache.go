// Package objectcache caches constructed objects of one type
// in a magazine [depot.Depot], constructing on a miss and
// destructing whatever the depot declines to keep.
package objectcache

import (
	"fmt"
	"sync/atomic"

	"github.com/djdv/go-depot"
)

type (
	// Config holds the depot parameters of a [Cache].
	Config struct {
		// MagazineCapacity is the number of objects per magazine.
		MagazineCapacity int
		// MaxMagazines bounds the magazines retained by the depot lists.
		MaxMagazines int
		// Flags configure the depot, see [depot.New].
		Flags depot.Flags
	}
	// Cache is a fixed-type object cache.
	// All methods are safe for concurrent use.
	Cache[T comparable] struct {
		construct func() (T, error)
		destruct  func(T)
		depot     *depot.Depot[T]
		constructed,
		destructed atomic.Uint64
	}
	// Stats is a snapshot of cache activity.
	Stats struct {
		Constructed, Destructed uint64
		Depot                   depot.Stats
	}
	constError string
)

// ErrNilConstructor is returned from [New] without a constructor.
const ErrNilConstructor = constError("objectcache: constructor is nil")

func (errStr constError) Error() string { return string(errStr) }

// DefaultConfig returns the configuration used by most callers.
func DefaultConfig() Config {
	return Config{
		MagazineCapacity: 16,
		MaxMagazines:     64,
	}
}

// New creates a [Cache]. destruct may be nil.
// options are passed through to [depot.New].
func New[T comparable](
	construct func() (T, error), destruct func(T),
	config Config, options ...depot.Option,
) (*Cache[T], error) {
	if construct == nil {
		return nil, ErrNilConstructor
	}
	if destruct == nil {
		destruct = func(T) {}
	}
	cache := &Cache[T]{
		construct: construct,
		destruct:  destruct,
	}
	store, err := depot.New[T](
		config.MagazineCapacity, config.MaxMagazines,
		config.Flags, cache, options...,
	)
	if err != nil {
		return nil, fmt.Errorf("objectcache: %w", err)
	}
	cache.depot = store
	return cache, nil
}

// Get returns a cached object, or a newly constructed one.
func (c *Cache[T]) Get() (T, error) {
	if object, ok := c.depot.Obtain(); ok {
		return object, nil
	}
	object, err := c.construct()
	if err != nil {
		var zero T
		return zero, fmt.Errorf("objectcache: construct: %w", err)
	}
	c.constructed.Add(1)
	return object, nil
}

// Put returns object to the cache.
// The caller must not use object afterwards.
func (c *Cache[T]) Put(object T) { c.depot.Store(object, 0) }

// PutFlags is like [Cache.Put], with flags for the depot.
func (c *Cache[T]) PutFlags(object T, flags depot.Flags) {
	c.depot.Store(object, flags)
}

// Reclaim destructs an object the depot did not keep.
// It implements [depot.Reclaimer] and is not meant to be
// called directly.
func (c *Cache[T]) Reclaim(object T, _ depot.Flags) {
	c.destruct(object)
	c.destructed.Add(1)
}

// Shrink destructs every cached object.
func (c *Cache[T]) Shrink() { c.depot.MakeEmpty(0) }

// Close destructs every cached object. Afterwards, Get always
// constructs and Put destructs immediately.
func (c *Cache[T]) Close() { c.depot.Destroy(0) }

// Depot returns the underlying depot.
func (c *Cache[T]) Depot() *depot.Depot[T] { return c.depot }

// Stats returns a snapshot of the cache's counters.
func (c *Cache[T]) Stats() Stats {
	return Stats{
		Constructed: c.constructed.Load(),
		Destructed:  c.destructed.Load(),
		Depot:       c.depot.Stats(),
	}
}

// Live returns the number of constructed objects
// not yet destructed, whether cached or in use.
func (s Stats) Live() uint64 { return s.Constructed - s.Destructed }
