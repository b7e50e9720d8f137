// Package table provides a generational slot map: a dense arena with
// free-list recycling and a per-slot generation counter that detects
// stale handles. All cross-references in the collision world are plain
// indices into tables, never pointers, so entries can be recycled
// without invalidating other structures.
package table

import "golang.org/x/exp/constraints"

// Table stores values of type T addressed by indices of type I.
// Index -1 is the universal null sentinel and never refers to a slot.
type Table[I constraints.Signed, T any] struct {
	slots []slot[T]
	free  []I
	count int
}

type slot[T any] struct {
	value T
	gen   uint32
	live  bool
}

// Add stores v in a recycled or fresh slot and returns its index.
func (t *Table[I, T]) Add(v T) I {
	if n := len(t.free); n > 0 {
		i := t.free[n-1]
		t.free = t.free[:n-1]
		s := &t.slots[i]
		s.value = v
		s.live = true
		t.count++
		return i
	}
	t.slots = append(t.slots, slot[T]{value: v, live: true})
	t.count++
	return I(len(t.slots) - 1)
}

// Get returns a pointer to the value at i, or nil if i is the null
// sentinel or refers to a freed slot. The pointer stays valid until the
// next Add, which may grow the backing array.
func (t *Table[I, T]) Get(i I) *T {
	if i < 0 || int(i) >= len(t.slots) || !t.slots[i].live {
		return nil
	}
	return &t.slots[i].value
}

// Generation returns the recycle count of slot i. A handle captured
// together with the generation can later be checked for staleness.
func (t *Table[I, T]) Generation(i I) uint32 {
	if i < 0 || int(i) >= len(t.slots) {
		return 0
	}
	return t.slots[i].gen
}

// Alive reports whether i refers to a live slot.
func (t *Table[I, T]) Alive(i I) bool {
	return i >= 0 && int(i) < len(t.slots) && t.slots[i].live
}

// Remove frees slot i for reuse and bumps its generation. Removing a
// dead or null index is a no-op.
func (t *Table[I, T]) Remove(i I) {
	if !t.Alive(i) {
		return
	}
	s := &t.slots[i]
	var zero T
	s.value = zero
	s.live = false
	s.gen++
	t.free = append(t.free, i)
	t.count--
}

// Len returns the number of live entries.
func (t *Table[I, T]) Len() int {
	return t.count
}

// Cap returns the number of allocated slots, live or not.
func (t *Table[I, T]) Cap() int {
	return len(t.slots)
}

// Each calls fn for every live entry. fn must not Add or Remove.
func (t *Table[I, T]) Each(fn func(I, *T)) {
	for i := range t.slots {
		if t.slots[i].live {
			fn(I(i), &t.slots[i].value)
		}
	}
}
