// Package magazine implements the bounded handle stacks (magazines)
// that a depot trades between CPU stores, along with the intrusive
// list the depot keeps idle magazines on.
package magazine

import "iter"

type (
	// A Magazine is a fixed capacity stack of object handles.
	// Magazines carry no lock of their own; whoever currently owns
	// the magazine (a CPU store or a depot list) serializes access.
	// The zero value is a magazine with no capacity.
	Magazine[T any] struct {
		next   *Magazine[T]
		rounds []T
		count  int
		// linked is true while the magazine sits on a [List].
		linked bool
	}
	// List is a LIFO of magazines threaded through
	// their link field. The zero value is an empty list.
	List[T any] struct {
		head  *Magazine[T]
		count int
	}
)

// New allocates an empty magazine that holds up to capacity handles.
func New[T any](capacity int) *Magazine[T] {
	return &Magazine[T]{
		rounds: make([]T, capacity),
	}
}

// Capacity returns the number of handle slots.
func (m *Magazine[T]) Capacity() int { return len(m.rounds) }

// Count returns the number of handles currently held.
func (m *Magazine[T]) Count() int { return m.count }

// IsFull reports whether Count == Capacity.
func (m *Magazine[T]) IsFull() bool { return m.count == len(m.rounds) }

// IsEmpty reports whether Count == 0.
func (m *Magazine[T]) IsEmpty() bool { return m.count == 0 }

// Linked reports whether the magazine is currently on a [List].
func (m *Magazine[T]) Linked() bool { return m.linked }

// Push adds handle to the top of the stack.
// It returns false, leaving the magazine unchanged, if m is full.
func (m *Magazine[T]) Push(handle T) bool {
	if m.count == len(m.rounds) {
		return false
	}
	m.rounds[m.count] = handle
	m.count++
	return true
}

// Pop removes and returns the most recently pushed handle.
// It returns false if m is empty.
func (m *Magazine[T]) Pop() (T, bool) {
	var zero T
	if m.count == 0 {
		return zero, false
	}
	m.count--
	handle := m.rounds[m.count]
	m.rounds[m.count] = zero // Don't pin the object.
	return handle, true
}

// Rounds returns an iterator over the held handles,
// from most to least recently pushed.
// The magazine must not be modified during iteration.
func (m *Magazine[T]) Rounds() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := m.count - 1; i >= 0; i-- {
			if !yield(m.rounds[i]) {
				return
			}
		}
	}
}

// Len returns the number of linked magazines.
func (l *List[T]) Len() int { return l.count }

// Push links m at the head of the list.
// m must not already be linked to any list.
func (l *List[T]) Push(m *Magazine[T]) {
	m.next = l.head
	m.linked = true
	l.head = m
	l.count++
}

// Pop unlinks and returns the head magazine,
// or nil if the list is empty.
func (l *List[T]) Pop() *Magazine[T] {
	m := l.head
	if m == nil {
		return nil
	}
	l.head = m.next
	m.next = nil
	m.linked = false
	l.count--
	return m
}

// Take moves every magazine of l into the returned list,
// leaving l empty.
func (l *List[T]) Take() List[T] {
	taken := *l
	*l = List[T]{}
	return taken
}

// All returns an iterator over the linked magazines, head first.
// The list must not be modified during iteration.
func (l *List[T]) All() iter.Seq[*Magazine[T]] {
	return func(yield func(*Magazine[T]) bool) {
		for m := l.head; m != nil; m = m.next {
			if !yield(m) {
				return
			}
		}
	}
}
