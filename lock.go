package depot

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// spinLock is a mutual exclusion lock that
// yields the processor instead of parking.
type spinLock struct{ held atomic.Bool }

func newStoreLock(flags Flags) sync.Locker {
	if flags&FlagSpinLock != 0 {
		return new(spinLock)
	}
	return new(sync.Mutex)
}

func (l *spinLock) Lock() {
	const spins = 64
	for attempt := 0; !l.held.CompareAndSwap(false, true); attempt++ {
		if attempt >= spins {
			runtime.Gosched()
		}
	}
}

func (l *spinLock) Unlock() {
	if !l.held.Swap(false) {
		panic("depot: unlock of unlocked spin lock")
	}
}
