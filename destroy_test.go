package depot

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// signalLock reports every release of a store lock,
// so a test can tell when a drain has passed that store.
type signalLock struct {
	sync.Mutex
	released chan struct{}
}

func (l *signalLock) Unlock() {
	l.Mutex.Unlock()
	select {
	case l.released <- struct{}{}:
	default:
	}
}

func TestDestroyRace(t *testing.T) {
	t.Run("obtain after store drained", obtainAfterDrain)
	t.Run("obtain before store drained", obtainBeforeDrain)
}

// destroyFixture holds a two CPU depot whose CPU index
// can be parked, with every object cached on CPU 1.
type destroyFixture struct {
	depot    *Depot[string]
	objects  []string
	entered  chan struct{}
	release  chan struct{}
	parked   atomic.Bool
	selected atomic.Int32

	mu        sync.Mutex
	reclaimed []string
}

func newDestroyFixture(t *testing.T) *destroyFixture {
	t.Helper()
	fixture := &destroyFixture{
		objects: []string{"A", "B", "C", "D", "E"},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	index := func() int {
		if fixture.parked.CompareAndSwap(true, false) {
			fixture.entered <- struct{}{}
			<-fixture.release
		}
		return int(fixture.selected.Load())
	}
	reclaim := ReclaimFunc[string](func(object string, _ Flags) {
		fixture.mu.Lock()
		defer fixture.mu.Unlock()
		fixture.reclaimed = append(fixture.reclaimed, object)
	})
	d, err := New[string](4, 4, 0, reclaim, WithCPUs(2, index))
	require.NoError(t, err)
	fixture.depot = d
	fixture.selected.Store(1)
	for _, object := range fixture.objects {
		d.Store(object, 0)
	}
	require.Equal(t, 1, d.full.Len(), "objects should span the full list")
	require.Equal(t, 1, d.stores[1].loaded.Count())
	fixture.selected.Store(0)
	return fixture
}

// obtainParked starts an Obtain on CPU 0 that stops
// inside the CPU index until release is closed.
func (f *destroyFixture) obtainParked() <-chan obtainResult {
	f.parked.Store(true)
	results := make(chan obtainResult, 1)
	go func() {
		object, ok := f.depot.Obtain()
		results <- obtainResult{object: object, ok: ok}
	}()
	<-f.entered
	return results
}

type obtainResult struct {
	object string
	ok     bool
}

// checkAccounted requires every object to have been
// handed out exactly once, and none to remain cached.
func (f *destroyFixture) checkAccounted(t *testing.T, result obtainResult) {
	t.Helper()
	f.mu.Lock()
	accounted := append([]string(nil), f.reclaimed...)
	f.mu.Unlock()
	if result.ok {
		accounted = append(accounted, result.object)
	}
	require.ElementsMatch(t, f.objects, accounted,
		"objects must be obtained or reclaimed exactly once")
	for _, object := range f.objects {
		require.Falsef(t, f.depot.Contains(object),
			"object %s still cached after destroy", object)
	}
	_, ok := f.depot.Obtain()
	require.False(t, ok)
}

func obtainAfterDrain(t *testing.T) {
	t.Parallel()
	f := newDestroyFixture(t)
	d := f.depot
	store0 := &signalLock{released: make(chan struct{}, 1)}
	d.stores[0].lock = store0
	// Stall the drain between the two stores.
	d.stores[1].lock.Lock()

	results := f.obtainParked()
	destroyed := make(chan struct{})
	go func() {
		d.Destroy(0)
		close(destroyed)
	}()
	<-store0.released // Store 0 detached; drain now waits on store 1.

	close(f.release)
	result := <-results
	require.False(t, result.ok,
		"a drained store must not be refilled from the full list")

	d.stores[1].lock.Unlock()
	<-destroyed
	f.checkAccounted(t, result)
}

func obtainBeforeDrain(t *testing.T) {
	t.Parallel()
	f := newDestroyFixture(t)
	d := f.depot

	results := f.obtainParked()
	close(f.release)
	result := <-results
	require.True(t, result.ok)
	require.Equal(t, "D", result.object,
		"the exchanged magazine should serve its top object")

	d.Destroy(0)
	f.checkAccounted(t, result)
}
