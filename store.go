package depot

import (
	"sync"

	"golang.org/x/sys/cpu"
)

// cpuStore is the per-CPU pair of magazines.
// Magazines referenced here are owned by the store
// and are never linked to a depot list at the same time.
type cpuStore[T comparable] struct {
	lock     sync.Locker
	loaded   *magazine[T]
	previous *magazine[T]
	_        cpu.CacheLinePad
}

// pop serves an obtain from the store's own magazines.
// Caller must hold the store lock.
func (s *cpuStore[T]) pop() (T, bool) {
	if s.loaded == nil || s.loaded.IsEmpty() {
		if s.previous == nil || s.previous.IsEmpty() {
			var zero T
			return zero, false
		}
		s.swap()
	}
	object, ok := s.loaded.Pop()
	if debugging {
		assert(ok, "pop from an empty magazine")
	}
	return object, ok
}

// push caches object in the store's own magazines.
// Caller must hold the store lock.
func (s *cpuStore[T]) push(object T) bool {
	if s.loaded == nil || s.loaded.IsFull() {
		if s.previous == nil || s.previous.IsFull() {
			return false
		}
		s.swap()
	}
	ok := s.loaded.Push(object)
	if debugging {
		assert(ok, "push to a full magazine")
	}
	return ok
}

func (s *cpuStore[T]) swap() {
	s.loaded, s.previous = s.previous, s.loaded
}

// detach removes and returns the store's magazines.
// Caller must hold the store lock.
func (s *cpuStore[T]) detach() (loaded, previous *magazine[T]) {
	loaded, previous = s.loaded, s.previous
	s.loaded, s.previous = nil, nil
	return loaded, previous
}

func (s *cpuStore[T]) contains(object T) bool {
	for _, m := range [...]*magazine[T]{s.loaded, s.previous} {
		if m != nil && magazineContains(m, object) {
			return true
		}
	}
	return false
}

func magazineContains[T comparable](m *magazine[T], object T) bool {
	for round := range m.Rounds() {
		if round == object {
			return true
		}
	}
	return false
}
