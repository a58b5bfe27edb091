package layers

import (
	"fmt"

	"github.com/justincpresley/layerlist/util/linkedlist"
)

// Tx is the handle passed to Batch. It is only valid inside the batch
// function and must not be retained.
type Tx[T any] struct {
	chain *linkedlist.LinkedList[T]
	ops   []Op
}

func (tx *Tx[T]) Len() int                 { return tx.chain.Len() }
func (tx *Tx[T]) Has(key string) bool      { return tx.chain.Has(key) }
func (tx *Tx[T]) Get(key string) (T, bool) { return tx.chain.Get(key) }
func (tx *Tx[T]) Keys() []string           { return tx.chain.Keys() }

// Index fails with ErrKeyNotFound instead of reporting a position.
func (tx *Tx[T]) Index(key string) (int, error) {
	i, ok := tx.chain.Index(key)
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	return i, nil
}

func (tx *Tx[T]) Add(key string, value T) error {
	if err := tx.chain.Add(key, value); err != nil {
		return err
	}
	tx.record(OpAdd, key)
	return nil
}

func (tx *Tx[T]) Insert(key string, value T, index int) error {
	if err := tx.chain.Insert(key, value, index); err != nil {
		return err
	}
	tx.record(OpInsert, key)
	return nil
}

func (tx *Tx[T]) Delete(key string) bool {
	if !tx.chain.Delete(key) {
		return false
	}
	tx.record(OpDelete, key)
	return true
}

func (tx *Tx[T]) Clear() {
	if tx.chain.Len() == 0 {
		return
	}
	tx.chain.Clear()
	tx.record(OpClear, "")
}

func (tx *Tx[T]) MoveForward(key string) bool {
	return tx.move(OpMoveForward, key, tx.chain.MoveForward)
}

func (tx *Tx[T]) MoveBackward(key string) bool {
	return tx.move(OpMoveBackward, key, tx.chain.MoveBackward)
}

func (tx *Tx[T]) MoveToFront(key string) bool {
	return tx.move(OpMoveToFront, key, tx.chain.MoveToFront)
}

func (tx *Tx[T]) MoveToBack(key string) bool {
	return tx.move(OpMoveToBack, key, tx.chain.MoveToBack)
}

func (tx *Tx[T]) move(kind OpKind, key string, f func(string) bool) bool {
	if !f(key) {
		return false
	}
	tx.record(kind, key)
	return true
}

func (tx *Tx[T]) record(kind OpKind, key string) {
	i, ok := tx.chain.Index(key)
	if !ok {
		i = -1
	}
	tx.ops = append(tx.ops, Op{Kind: kind, Key: key, Index: i})
}
