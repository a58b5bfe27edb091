package layers

import (
	gl "github.com/bahlo/generic-list-go"
)

type Subscription[T any] struct {
	list *List[T]
	elem *gl.Element[*Subscription[T]]
	fn   func(Change[T])
}

// Subscribe registers fn for every later commit. fn runs outside the list
// lock; a panic inside fn is logged and does not stop delivery to the other
// subscribers.
func (l *List[T]) Subscribe(fn func(Change[T])) *Subscription[T] {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	s := &Subscription[T]{list: l, fn: fn}
	s.elem = l.subs.PushBack(s)
	return s
}

// Unsubscribe is idempotent. A change already being delivered may still
// reach the subscriber.
func (s *Subscription[T]) Unsubscribe() {
	s.list.mtx.Lock()
	defer s.list.mtx.Unlock()
	if s.elem == nil {
		return
	}
	s.list.subs.Remove(s.elem)
	s.elem = nil
}

func (s *Subscription[T]) deliver(ch Change[T]) {
	defer func() {
		if r := recover(); r != nil {
			s.list.logger.WithField("revision", ch.Revision).Errorf("Subscriber panicked: %v", r)
		}
	}()
	s.fn(ch)
}
