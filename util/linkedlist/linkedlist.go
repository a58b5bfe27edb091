package linkedlist

import (
	"fmt"
	"iter"
)

// LinkedList is a singly linked chain of values joined with a key lookup
// table. Index 0 is the low end (Back), index Len()-1 the high end (Front).
// A LinkedList is not safe for concurrent use.
type LinkedList[T any] struct {
	table map[string]*node[T]
	low   *node[T]
	high  *node[T]
}

func New[T any]() *LinkedList[T] {
	return &LinkedList[T]{
		table: make(map[string]*node[T]),
	}
}

func (l *LinkedList[T]) Len() int { return len(l.table) }

func (l *LinkedList[T]) Has(key string) bool {
	_, ok := l.table[key]
	return ok
}

func (l *LinkedList[T]) Get(key string) (T, bool) {
	n, ok := l.table[key]
	if !ok {
		return *new(T), false
	}
	return n.value, true
}

func (l *LinkedList[T]) Index(key string) (int, bool) {
	n, ok := l.table[key]
	if !ok {
		return -1, false
	}
	return n.index, true
}

// Add appends value at the high end.
func (l *LinkedList[T]) Add(key string, value T) error {
	if l.Has(key) {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
	}
	n := newNode(key, value)
	l.table[key] = n
	if l.high == nil {
		n.index = 0
		l.low, l.high = n, n
		return nil
	}
	n.index = len(l.table) - 1
	l.high.next = n
	l.high = n
	return nil
}

// Insert places value at index. Out of range indexes are clamped to the
// nearest end.
func (l *LinkedList[T]) Insert(key string, value T, index int) error {
	if l.Has(key) {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
	}
	size := len(l.table)
	n := newNode(key, value)
	switch {
	case size == 0:
		n.index = 0
		l.table[key] = n
		l.low, l.high = n, n
		return nil
	case index <= 0:
		n.next = l.low
		l.low = n
	case index >= size:
		l.high.next = n
		l.high = n
	default:
		// 0 <= index-1 <= size-2
		prev, _ := l.nodeAt(index - 1)
		n.next = prev.next
		prev.next = n
	}
	l.table[key] = n
	l.reindex()
	return nil
}

// Delete removes key and reports whether it was present.
func (l *LinkedList[T]) Delete(key string) bool {
	n, ok := l.table[key]
	if !ok {
		return false
	}
	if len(l.table) == 1 {
		l.Clear()
		return true
	}
	switch n {
	case l.high:
		// nothing below the high end shifts
		prev, _ := l.nodeAt(n.index - 1)
		prev.next = nil
		l.high = prev
		delete(l.table, key)
		n.detach()
		return true
	case l.low:
		l.low = n.next
	default:
		prev, _ := l.nodeAt(n.index - 1)
		prev.next = n.next
	}
	delete(l.table, key)
	n.detach()
	l.reindex()
	return true
}

func (l *LinkedList[T]) Clear() {
	for n := l.low; n != nil; {
		next := n.next
		n.detach()
		n = next
	}
	clear(l.table)
	l.low, l.high = nil, nil
}

func (l *LinkedList[T]) Values() []T {
	vals := make([]T, 0, len(l.table))
	for n := l.low; n != nil; n = n.next {
		vals = append(vals, n.value)
	}
	return vals
}

func (l *LinkedList[T]) Keys() []string {
	keys := make([]string, 0, len(l.table))
	for n := l.low; n != nil; n = n.next {
		keys = append(keys, n.key)
	}
	return keys
}

// All walks the chain from the low end. Mutating the list while iterating
// is not supported.
func (l *LinkedList[T]) All() iter.Seq2[string, T] {
	return func(yield func(string, T) bool) {
		for n := l.low; n != nil; n = n.next {
			if !yield(n.key, n.value) {
				return
			}
		}
	}
}

func (l *LinkedList[T]) ForEach(f func(value T, index int)) {
	for n := l.low; n != nil; n = n.next {
		f(n.value, n.index)
	}
}

// MoveForward swaps key with its successor.
func (l *LinkedList[T]) MoveForward(key string) bool {
	n, ok := l.table[key]
	if !ok || n == l.high {
		return false
	}
	succ := n.next
	if n == l.low {
		l.low = succ
	} else {
		prev, _ := l.nodeAt(n.index - 1)
		prev.next = succ
	}
	n.next = succ.next
	succ.next = n
	if succ == l.high {
		l.high = n
	}
	l.reindex()
	return true
}

// MoveBackward swaps key with its predecessor.
func (l *LinkedList[T]) MoveBackward(key string) bool {
	n, ok := l.table[key]
	if !ok || n == l.low {
		return false
	}
	switch {
	case n.index == 1:
		// ['jeff', 'el', 'sam'] -> ['el', 'jeff', 'sam']
		prev := l.low
		prev.next = n.next
		n.next = prev
		l.low = n
		if n == l.high {
			l.high = prev
		}
	case n == l.high:
		// ['jeff', 'sam', 'jack', 'el'] -> ['jeff', 'sam', 'el', 'jack']
		pp, _ := l.nodeAt(n.index - 2)
		prev := pp.next
		pp.next = n
		n.next = prev
		prev.next = nil
		l.high = prev
	default:
		// ['jeff', 'sam', 'el', 'jack'] -> ['jeff', 'el', 'sam', 'jack']
		pp, _ := l.nodeAt(n.index - 2)
		prev := pp.next
		prev.next = n.next
		n.next = prev
		pp.next = n
	}
	l.reindex()
	return true
}

// MoveToBack makes key the low end.
func (l *LinkedList[T]) MoveToBack(key string) bool {
	n, ok := l.table[key]
	if !ok || n == l.low {
		return false
	}
	prev, _ := l.nodeAt(n.index - 1)
	prev.next = n.next
	if n == l.high {
		l.high = prev
	}
	n.next = l.low
	l.low = n
	l.reindex()
	return true
}

// MoveToFront makes key the high end.
func (l *LinkedList[T]) MoveToFront(key string) bool {
	n, ok := l.table[key]
	if !ok || n == l.high {
		return false
	}
	if n == l.low {
		l.low = n.next
	} else {
		prev, _ := l.nodeAt(n.index - 1)
		prev.next = n.next
	}
	l.high.next = n
	n.next = nil
	l.high = n
	l.reindex()
	return true
}

// Check verifies the chain against the lookup table and the cached indexes.
func (l *LinkedList[T]) Check() error {
	size := len(l.table)
	if size == 0 {
		if l.low != nil || l.high != nil {
			return fmt.Errorf("%w: empty table with linked ends", ErrCorrupt)
		}
		return nil
	}
	if l.low == nil || l.high == nil {
		return fmt.Errorf("%w: %d entries without both ends", ErrCorrupt, size)
	}
	seen := make(map[*node[T]]struct{}, size)
	var (
		i    int
		last *node[T]
	)
	for n := l.low; n != nil; n = n.next {
		if _, ok := seen[n]; ok {
			return fmt.Errorf("%w: cycle at %q", ErrCorrupt, n.key)
		}
		if i >= size {
			return fmt.Errorf("%w: chain longer than table (%d)", ErrCorrupt, size)
		}
		if l.table[n.key] != n {
			return fmt.Errorf("%w: %q reachable but not in table", ErrCorrupt, n.key)
		}
		if n.index != i {
			return fmt.Errorf("%w: %q cached index %d, position %d", ErrCorrupt, n.key, n.index, i)
		}
		seen[n] = struct{}{}
		last = n
		i++
	}
	if i != size {
		return fmt.Errorf("%w: chain holds %d of %d entries", ErrCorrupt, i, size)
	}
	if last != l.high {
		return fmt.Errorf("%w: high end is not the last link", ErrCorrupt)
	}
	return nil
}

// nodeAt relies on the cached indexes, so it is only valid between
// mutations. Callers pass indexes in [0, Len()).
func (l *LinkedList[T]) nodeAt(index int) (*node[T], bool) {
	if index < 0 || index >= len(l.table) {
		return nil, false
	}
	if index == len(l.table)-1 {
		return l.high, true
	}
	n := l.low
	for n.index < index {
		n = n.next
	}
	return n, true
}

func (l *LinkedList[T]) reindex() {
	i := 0
	for n := l.low; n != nil; n = n.next {
		n.index = i
		i++
	}
}
