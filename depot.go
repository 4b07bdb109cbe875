package depot

import (
	"log/slog"
	"sync"
	"sync/atomic"

	mag "github.com/djdv/go-depot/internal/magazine"
)

type (
	magazine[T any]     = mag.Magazine[T]
	magazineList[T any] = mag.List[T]

	// Reclaimer takes back objects the depot will not cache.
	// Reclaim may be called from any goroutine,
	// but never while the depot holds one of its locks.
	Reclaimer[T any] interface {
		Reclaim(object T, flags Flags)
	}
	// ReclaimFunc adapts a function to the [Reclaimer] interface.
	ReclaimFunc[T any] func(object T, flags Flags)

	// Depot caches object handles in per-CPU magazines,
	// backed by shared lists of full and empty magazines.
	// All methods are safe for concurrent use.
	// Constructed by [New].
	Depot[T comparable] struct {
		reclaimer Reclaimer[T]
		cpuIndex  func() int
		logger    *slog.Logger
		stores    []cpuStore[T]
		capacity  int
		destroyed atomic.Bool
		counters
		lock        sync.Mutex // Guards the fields below.
		full, empty magazineList[T]
		maxCount    int
	}
)

// MinimumCapacity defines the lowest magazine capacity supported by [New].
const MinimumCapacity = 1

func (fn ReclaimFunc[T]) Reclaim(object T, flags Flags) { fn(object, flags) }

// New creates a [Depot] whose magazines hold capacity objects each.
// maxMagazines is the number of magazines the depot lists may retain
// before stores begin to bypass the cache; magazines loaded into
// CPU stores are not counted against it.
// Objects the depot does not keep are handed to reclaim.
func New[T comparable](
	capacity, maxMagazines int, flags Flags,
	reclaim Reclaimer[T], options ...Option,
) (*Depot[T], error) {
	if capacity < MinimumCapacity {
		return nil, minCapacityError(capacity)
	}
	if maxMagazines < 0 {
		return nil, maxMagazinesError(maxMagazines)
	}
	if reclaim == nil {
		return nil, ErrNilReclaimer
	}
	config := settings{
		logger:   slog.New(slog.DiscardHandler),
		cpuIndex: ProcIndex,
		cpus:     defaultCPUCount(),
	}
	for _, apply := range options {
		if err := apply(&config); err != nil {
			return nil, err
		}
	}
	stores := make([]cpuStore[T], config.cpus)
	for i := range stores {
		stores[i].lock = newStoreLock(flags)
	}
	depot := &Depot[T]{
		reclaimer: reclaim,
		cpuIndex:  config.cpuIndex,
		logger:    config.logger,
		stores:    stores,
		capacity:  capacity,
		maxCount:  maxMagazines,
	}
	depot.logger.Debug("depot initialized",
		"capacity", capacity,
		"max_magazines", maxMagazines,
		"cpus", len(stores),
		"flags", flags,
	)
	return depot, nil
}

// Capacity returns the number of objects per magazine.
func (d *Depot[_]) Capacity() int { return d.capacity }

// CPUs returns the number of CPU stores.
func (d *Depot[_]) CPUs() int { return len(d.stores) }

// MaxMagazines returns the current retention ceiling.
func (d *Depot[_]) MaxMagazines() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.maxCount
}

// SetMaxMagazines changes the retention ceiling.
// Lowering it does not discard cached objects; surplus empty
// magazines are released during later exchanges, and surplus
// full magazines drain through ordinary obtains.
func (d *Depot[_]) SetMaxMagazines(count int) error {
	if count < 0 {
		return maxMagazinesError(count)
	}
	d.lockLists()
	previous := d.maxCount
	d.maxCount = count
	d.lock.Unlock()
	d.logger.Debug("magazine limit changed",
		"from", previous, "to", count)
	return nil
}

// Obtain returns a cached object.
// If none is available, it returns the zero value and false;
// the caller is expected to construct a fresh object itself.
func (d *Depot[T]) Obtain() (T, bool) {
	var zero T
	store := d.currentStore()
	store.lock.Lock()
	defer store.lock.Unlock()
	// Checked under the store lock; once Destroy has passed this
	// store, an exchange must not refill it.
	if d.destroyed.Load() {
		d.misses.Add(1)
		return zero, false
	}
	for {
		if object, ok := store.pop(); ok {
			d.hits.Add(1)
			return object, true
		}
		full := d.exchangeForFull(store.loaded)
		if full == nil {
			d.misses.Add(1)
			return zero, false
		}
		if debugging {
			assert(!full.Linked() && full.IsFull(),
				"exchange returned a linked or partial magazine")
		}
		store.loaded = full
	}
}

// Store caches object for a later [Depot.Obtain].
// If the depot cannot hold it, object is passed to
// the [Reclaimer] before Store returns.
func (d *Depot[T]) Store(object T, flags Flags) {
	if debugging {
		assert(!d.Contains(object), "object stored twice")
	}
	store := d.currentStore()
	store.lock.Lock()
	if !d.destroyed.Load() {
		for {
			if store.push(object) {
				store.lock.Unlock()
				d.stored.Add(1)
				return
			}
			empty := d.exchangeForEmpty(store.loaded, flags)
			if empty == nil {
				break
			}
			if debugging {
				assert(!empty.Linked() && empty.IsEmpty(),
					"exchange returned a linked or non-empty magazine")
			}
			store.loaded = empty
		}
	}
	store.lock.Unlock()
	d.overflows.Add(1)
	d.reclaimer.Reclaim(object, flags)
}

// MakeEmpty reclaims every cached object and
// releases every magazine held by the depot.
func (d *Depot[T]) MakeEmpty(flags Flags) {
	var detached magazineList[T]
	for i := range d.stores {
		store := &d.stores[i]
		store.lock.Lock()
		loaded, previous := store.detach()
		store.lock.Unlock()
		for _, m := range [...]*magazine[T]{loaded, previous} {
			if m != nil {
				detached.Push(m)
			}
		}
	}
	d.lockLists()
	full, empty := d.full.Take(), d.empty.Take()
	d.lock.Unlock()
	var objects, magazines int
	for _, list := range [...]*magazineList[T]{&detached, &full, &empty} {
		reclaimed, freed := d.drain(list, flags)
		objects += reclaimed
		magazines += freed
	}
	if magazines == 0 {
		return
	}
	d.logger.Debug("depot drained",
		"objects", objects,
		"magazines", magazines,
	)
}

// Destroy drains the depot as [Depot.MakeEmpty] does.
// Afterwards, Obtain always misses and Store
// reclaims objects immediately.
func (d *Depot[_]) Destroy(flags Flags) {
	if !d.destroyed.CompareAndSwap(false, true) {
		return
	}
	d.MakeEmpty(flags)
	d.logger.Debug("depot destroyed")
}

// Contains reports whether object is cached anywhere in the depot.
// It scans every magazine and is intended for consistency checks.
func (d *Depot[T]) Contains(object T) bool {
	for i := range d.stores {
		store := &d.stores[i]
		store.lock.Lock()
		found := store.contains(object)
		store.lock.Unlock()
		if found {
			return true
		}
	}
	d.lock.Lock() // Diagnostic; not counted.
	defer d.lock.Unlock()
	for _, list := range [...]*magazineList[T]{&d.full, &d.empty} {
		for m := range list.All() {
			if magazineContains(m, object) {
				return true
			}
		}
	}
	return false
}

func (d *Depot[T]) currentStore() *cpuStore[T] {
	count := len(d.stores)
	index := d.cpuIndex() % count
	if index < 0 {
		index += count
	}
	return &d.stores[index]
}

// drain reclaims the contents of every magazine
// on list and drops the magazines.
func (d *Depot[T]) drain(list *magazineList[T], flags Flags) (objects, magazines int) {
	for m := list.Pop(); m != nil; m = list.Pop() {
		for object, ok := m.Pop(); ok; object, ok = m.Pop() {
			d.reclaimer.Reclaim(object, flags)
			objects++
		}
		magazines++
	}
	d.drained.Add(uint64(objects))
	d.freed.Add(uint64(magazines))
	return objects, magazines
}
