/*
 Copyright (C) 2022-2026, The layerlist Go Library Authors

 This file is part of layerlist: A Go Library for Keyed Ordered Layers.

 layerlist is free software; you can redistribute it and/or
 modify it under the terms of the GNU Lesser General Public
 License as published by the Free Software Foundation; either
 version 2.1 of the License, or any later version.

 layerlist is distributed in the hope that it will be useful,
 but WITHOUT ANY WARRANTY; without even the implied warranty of
 MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
 See the GNU Lesser General Public License for more details.

 A copy of the GNU Lesser General Public License is provided by this
 library under LICENSE.md. If absent, it can be found within the
 GitHub repository:
          https://github.com/justincpresley/layerlist
*/

package layers

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	log "github.com/apex/log"
	gl "github.com/bahlo/generic-list-go"
	uuid "github.com/google/uuid"
	"github.com/justincpresley/layerlist/util/linkedlist"
)

var (
	ErrKeyNotFound  = errors.New("layers: key not found")
	ErrDuplicateKey = linkedlist.ErrDuplicateKey
)

type Entry[T any] struct {
	Key   string `yaml:"key"`
	Value T      `yaml:"value"`
}

// List is an observable keyed ordering. Every mutation is a transaction
// that ends in a single commit: the memoized views are dropped, the revision
// is bumped and one Change is handed to each subscriber.
//
// Subscribers run after the list lock is released, in commit order. A
// subscriber may read or mutate the list; its own mutation commits
// separately and is delivered once the current delivery round finishes.
type List[T any] struct {
	mtx      sync.Mutex
	chain    *linkedlist.LinkedList[T]
	subs     *gl.List[*Subscription[T]]
	queue    []Change[T]
	flushing bool
	revision uint64
	values   []T
	keys     []string
	logger   *log.Entry
}

func NewList[T any]() *List[T] {
	return &List[T]{
		chain:  linkedlist.New[T](),
		subs:   gl.New[*Subscription[T]](),
		logger: log.WithField("module", "layers"),
	}
}

// NewListFrom builds a list holding entries in order, low end first.
func NewListFrom[T any](entries []Entry[T]) (*List[T], error) {
	chain, err := chainOf(entries)
	if err != nil {
		return nil, err
	}
	l := NewList[T]()
	l.chain = chain
	return l, nil
}

func (l *List[T]) Len() int {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.chain.Len()
}

func (l *List[T]) Has(key string) bool {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.chain.Has(key)
}

func (l *List[T]) Get(key string) (T, bool) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.chain.Get(key)
}

func (l *List[T]) Index(key string) (int, bool) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.chain.Index(key)
}

func (l *List[T]) Revision() uint64 {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.revision
}

func (l *List[T]) Values() []T {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if l.values == nil {
		l.values = l.chain.Values()
	}
	return slices.Clone(l.values)
}

func (l *List[T]) Keys() []string {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if l.keys == nil {
		l.keys = l.chain.Keys()
	}
	return slices.Clone(l.keys)
}

func (l *List[T]) Entries() []Entry[T] {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return entriesOf(l.chain)
}

// ForEach visits values in ascending index order on a snapshot, so f may
// call back into the list.
func (l *List[T]) ForEach(f func(value T, index int)) {
	for i, v := range l.Values() {
		f(v, i)
	}
}

func (l *List[T]) Check() error {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.chain.Check()
}

func (l *List[T]) Add(key string, value T) error {
	return l.update(func(tx *Tx[T]) error { return tx.Add(key, value) }, false)
}

func (l *List[T]) Insert(key string, value T, index int) error {
	return l.update(func(tx *Tx[T]) error { return tx.Insert(key, value, index) }, false)
}

func (l *List[T]) Delete(key string) (ok bool) {
	l.update(func(tx *Tx[T]) error {
		ok = tx.Delete(key)
		return nil
	}, false)
	return ok
}

func (l *List[T]) Clear() {
	l.update(func(tx *Tx[T]) error {
		tx.Clear()
		return nil
	}, false)
}

func (l *List[T]) MoveForward(key string) (ok bool) {
	l.update(func(tx *Tx[T]) error {
		ok = tx.MoveForward(key)
		return nil
	}, false)
	return ok
}

func (l *List[T]) MoveBackward(key string) (ok bool) {
	l.update(func(tx *Tx[T]) error {
		ok = tx.MoveBackward(key)
		return nil
	}, false)
	return ok
}

func (l *List[T]) MoveToFront(key string) (ok bool) {
	l.update(func(tx *Tx[T]) error {
		ok = tx.MoveToFront(key)
		return nil
	}, false)
	return ok
}

func (l *List[T]) MoveToBack(key string) (ok bool) {
	l.update(func(tx *Tx[T]) error {
		ok = tx.MoveToBack(key)
		return nil
	}, false)
	return ok
}

// Restore replaces the whole list in one commit.
func (l *List[T]) Restore(entries []Entry[T]) error {
	chain, err := chainOf(entries)
	if err != nil {
		return err
	}
	return l.update(func(tx *Tx[T]) error {
		tx.chain = chain
		tx.ops = append(tx.ops, Op{Kind: OpRestore, Index: -1})
		return nil
	}, false)
}

// Batch runs f as one transaction. The list is locked while f runs, so f
// must only use tx. If f returns an error or panics every change made
// through tx is rolled back and nothing is emitted; the panic is re-raised.
func (l *List[T]) Batch(f func(tx *Tx[T]) error) error {
	return l.update(f, true)
}

func (l *List[T]) update(f func(tx *Tx[T]) error, rollback bool) error {
	err := l.apply(f, rollback)
	l.flush()
	return err
}

func (l *List[T]) apply(f func(tx *Tx[T]) error, rollback bool) error {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	var saved []Entry[T]
	if rollback {
		saved = entriesOf(l.chain)
	}
	tx := &Tx[T]{chain: l.chain}
	if rollback {
		defer func() {
			if r := recover(); r != nil {
				l.chain, _ = chainOf(saved)
				l.values, l.keys = nil, nil
				l.logger.WithField("ops", len(tx.ops)).Errorf("Batch panicked, rolled back: %v", r)
				panic(r)
			}
		}()
	}
	if err := f(tx); err != nil {
		if rollback && len(tx.ops) > 0 {
			// saved came from a valid chain, so it holds no duplicate keys
			l.chain, _ = chainOf(saved)
			l.logger.WithError(err).WithField("ops", len(tx.ops)).Warn("Batch rolled back.")
		}
		return err
	}
	if len(tx.ops) > 0 {
		l.chain = tx.chain
		l.commit(tx.ops)
	}
	return nil
}

func (l *List[T]) commit(ops []Op) {
	l.revision++
	l.values, l.keys = nil, nil
	l.queue = append(l.queue, Change[T]{
		ID:       uuid.Must(uuid.NewV7()).String(),
		Revision: l.revision,
		Ops:      ops,
		Values:   l.chain.Values(),
	})
	l.logger.WithFields(log.Fields{
		"revision": l.revision,
		"ops":      len(ops),
		"size":     l.chain.Len(),
	}).Debug("Committed.")
}

func (l *List[T]) flush() {
	l.mtx.Lock()
	if l.flushing {
		l.mtx.Unlock()
		return
	}
	l.flushing = true
	for len(l.queue) > 0 {
		ch := l.queue[0]
		l.queue = l.queue[1:]
		subs := make([]*Subscription[T], 0, l.subs.Len())
		for e := l.subs.Front(); e != nil; e = e.Next() {
			subs = append(subs, e.Value)
		}
		l.mtx.Unlock()
		for _, s := range subs {
			s.deliver(ch)
		}
		l.mtx.Lock()
	}
	l.flushing = false
	l.mtx.Unlock()
}

func entriesOf[T any](chain *linkedlist.LinkedList[T]) []Entry[T] {
	entries := make([]Entry[T], 0, chain.Len())
	for k, v := range chain.All() {
		entries = append(entries, Entry[T]{Key: k, Value: v})
	}
	return entries
}

func chainOf[T any](entries []Entry[T]) (*linkedlist.LinkedList[T], error) {
	chain := linkedlist.New[T]()
	for _, e := range entries {
		if err := chain.Add(e.Key, e.Value); err != nil {
			return nil, fmt.Errorf("layers: restore: %w", err)
		}
	}
	return chain, nil
}
