package linkedlist

// node is one link of the chain. Identity is the pointer itself, so the
// low/high comparisons in LinkedList never need a generated id.
type node[T any] struct {
	next  *node[T]
	key   string
	value T
	index int // -1 once removed
}

func newNode[T any](key string, value T) *node[T] {
	return &node[T]{key: key, value: value, index: -1}
}

func (n *node[T]) detach() {
	n.next = nil
	n.index = -1
}
