package depot

import (
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
)

type (
	counters struct {
		hits, misses,
		stored, overflows, drained,
		allocated, freed, refusals,
		lockAcquisitions atomic.Uint64
	}
	// Stats is a snapshot of depot activity.
	Stats struct {
		// Full and Empty are the lengths of the depot lists.
		Full  int `json:"full"`
		Empty int `json:"empty"`
		// MaxMagazines is the retention ceiling.
		MaxMagazines int `json:"max_magazines"`
		// Hits and Misses count obtains that did, or did not,
		// return a cached object.
		Hits   uint64 `json:"hits"`
		Misses uint64 `json:"misses"`
		// Stored counts objects cached by Store.
		Stored uint64 `json:"stored"`
		// Overflows counts objects Store handed straight to the reclaimer.
		Overflows uint64 `json:"overflows"`
		// Drained counts objects reclaimed by MakeEmpty and Destroy.
		Drained uint64 `json:"drained"`
		// Allocated and Freed count magazines.
		Allocated uint64 `json:"allocated"`
		Freed     uint64 `json:"freed"`
		// Refusals counts exchanges that could neither find
		// nor allocate an empty magazine.
		Refusals uint64 `json:"refusals"`
		// LockAcquisitions counts acquisitions of the shared list lock
		// by exchanges, drains, and limit changes.
		// Diagnostic reads (Contains, Stats, Dump) are not counted.
		LockAcquisitions uint64 `json:"lock_acquisitions"`
	}
)

// Stats returns a snapshot of the depot's counters.
func (d *Depot[_]) Stats() Stats {
	d.lock.Lock()
	stats := Stats{
		Full:         d.full.Len(),
		Empty:        d.empty.Len(),
		MaxMagazines: d.maxCount,
	}
	d.lock.Unlock()
	stats.Hits = d.hits.Load()
	stats.Misses = d.misses.Load()
	stats.Stored = d.stored.Load()
	stats.Overflows = d.overflows.Load()
	stats.Drained = d.drained.Load()
	stats.Allocated = d.allocated.Load()
	stats.Freed = d.freed.Load()
	stats.Refusals = d.refusals.Load()
	stats.LockAcquisitions = d.lockAcquisitions.Load()
	return stats
}

// HitRate returns the percentage of obtains served from the cache.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100.0
}

func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("full", s.Full),
		slog.Int("empty", s.Empty),
		slog.Int("max_magazines", s.MaxMagazines),
		slog.Uint64("hits", s.Hits),
		slog.Uint64("misses", s.Misses),
		slog.Uint64("stored", s.Stored),
		slog.Uint64("overflows", s.Overflows),
		slog.Uint64("drained", s.Drained),
		slog.Uint64("allocated", s.Allocated),
		slog.Uint64("freed", s.Freed),
		slog.Uint64("refusals", s.Refusals),
		slog.Uint64("lock_acquisitions", s.LockAcquisitions),
	)
}

// Dump writes a human readable description of the depot to w:
// the list lengths and every CPU store's magazine fill.
func (d *Depot[T]) Dump(w io.Writer) error {
	d.lock.Lock()
	var (
		full, empty = d.full.Len(), d.empty.Len()
		maxCount    = d.maxCount
		fullRounds  int
	)
	for m := range d.full.All() {
		fullRounds += m.Count()
	}
	d.lock.Unlock()
	if _, err := fmt.Fprintf(w,
		"depot: capacity %d, max magazines %d, destroyed %t\n"+
			"  full: %d magazines, %d objects\n"+
			"  empty: %d magazines\n",
		d.capacity, maxCount, d.destroyed.Load(),
		full, fullRounds, empty,
	); err != nil {
		return err
	}
	for i := range d.stores {
		store := &d.stores[i]
		store.lock.Lock()
		loaded, previous := roundCount(store.loaded), roundCount(store.previous)
		store.lock.Unlock()
		if _, err := fmt.Fprintf(w,
			"  cpu %d: loaded %s, previous %s\n",
			i, loaded, previous,
		); err != nil {
			return err
		}
	}
	return nil
}

func roundCount[T any](m *magazine[T]) string {
	if m == nil {
		return "-"
	}
	return fmt.Sprintf("%d/%d", m.Count(), m.Capacity())
}
