package layers_test

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	log "github.com/apex/log"
	memory "github.com/apex/log/handlers/memory"
	cmp "github.com/google/go-cmp/cmp"
	uuid "github.com/google/uuid"
	layers "github.com/justincpresley/layerlist/pkg/layers"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

func joined(vals []string) string {
	return "[" + strings.Join(vals, ", ") + "]"
}

func TestObservableList(t *testing.T) {
	l := layers.NewList[string]()
	v := joined(l.Values())
	var changes []layers.Change[string]
	l.Subscribe(func(ch layers.Change[string]) {
		v = joined(ch.Values)
		changes = append(changes, ch)
	})
	assert.Equal(t, "[]", v)

	require.NoError(t, l.Add("sam", "sam"))
	assert.Equal(t, "[sam]", v)

	require.NoError(t, l.Add("bill", "bill"))
	assert.Equal(t, "[sam, bill]", v)

	require.NoError(t, l.Insert("jeff", "jeff", 1))
	assert.Equal(t, "[sam, jeff, bill]", v)

	require.NoError(t, l.Insert("tom", "tom", 10))
	assert.Equal(t, "[sam, jeff, bill, tom]", v)

	assert.True(t, l.Delete("jeff"))
	assert.Equal(t, "[sam, bill, tom]", v)
	assert.Len(t, changes, 5)

	valIndex := map[string]int{}
	l.ForEach(func(val string, i int) { valIndex[val] = i })
	assert.Equal(t, map[string]int{"sam": 0, "bill": 1, "tom": 2}, valIndex)

	assert.True(t, l.Has("bill"))
	assert.False(t, l.Has("jeff"))
	i, ok := l.Index("sam")
	assert.True(t, ok)
	assert.Equal(t, 0, i)

	l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, "[]", v)
	assert.Len(t, changes, 6)
}

func TestChangeContents(t *testing.T) {
	l := layers.NewList[int]()
	var got []layers.Change[int]
	l.Subscribe(func(ch layers.Change[int]) { got = append(got, ch) })

	require.NoError(t, l.Add("a", 1))
	require.NoError(t, l.Add("b", 2))
	assert.True(t, l.MoveToBack("b"))

	require.Len(t, got, 3)
	for i, ch := range got {
		assert.Equal(t, uint64(i+1), ch.Revision)
		parsed, err := uuid.Parse(ch.ID)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), parsed.Version())
	}
	assert.Equal(t, []layers.Op{{Kind: layers.OpMoveToBack, Key: "b", Index: 0}}, got[2].Ops)
	assert.Equal(t, []int{2, 1}, got[2].Values)
	assert.Equal(t, uint64(3), l.Revision())
	assert.NotEqual(t, got[0].ID, got[1].ID)
}

func TestNoOpsDoNotNotify(t *testing.T) {
	l := layers.NewList[string]()
	n := 0
	l.Subscribe(func(layers.Change[string]) { n++ })

	l.Clear()
	assert.False(t, l.Delete("missing"))
	require.NoError(t, l.Add("sam", "sam"))
	require.NoError(t, l.Add("bill", "bill"))
	assert.Equal(t, 2, n)

	assert.False(t, l.MoveForward("bill"))
	assert.False(t, l.MoveToFront("bill"))
	assert.False(t, l.MoveBackward("sam"))
	assert.False(t, l.MoveToBack("sam"))
	assert.False(t, l.MoveForward("missing"))
	assert.ErrorIs(t, l.Add("sam", "again"), layers.ErrDuplicateKey)
	assert.Equal(t, 2, n)
	assert.Equal(t, uint64(2), l.Revision())
}

func TestBatchEmitsOnce(t *testing.T) {
	l := layers.NewList[string]()
	var got []layers.Change[string]
	l.Subscribe(func(ch layers.Change[string]) { got = append(got, ch) })

	err := l.Batch(func(tx *layers.Tx[string]) error {
		for _, k := range []string{"sam", "bill", "jeff"} {
			if err := tx.Add(k, k); err != nil {
				return err
			}
		}
		tx.MoveToFront("sam")
		i, err := tx.Index("sam")
		assert.NoError(t, err)
		assert.Equal(t, 2, i)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Ops, 4)
	assert.Equal(t, []string{"bill", "jeff", "sam"}, got[0].Values)
}

func TestBatchRollback(t *testing.T) {
	handler := memory.New()
	log.SetHandler(handler)
	log.SetLevel(log.DebugLevel)
	defer log.SetLevel(log.InfoLevel)

	l := layers.NewList[string]()
	require.NoError(t, l.Add("sam", "sam"))
	require.NoError(t, l.Add("bill", "bill"))
	n := 0
	l.Subscribe(func(layers.Change[string]) { n++ })

	boom := errors.New("boom")
	err := l.Batch(func(tx *layers.Tx[string]) error {
		tx.Delete("sam")
		require.NoError(t, tx.Insert("jeff", "jeff", 0))
		tx.MoveToFront("jeff")
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, n)
	assert.Equal(t, []string{"sam", "bill"}, l.Keys())
	assert.False(t, l.Has("jeff"))
	require.NoError(t, l.Check())
	assert.Equal(t, uint64(2), l.Revision())

	var messages []string
	for _, e := range handler.Entries {
		messages = append(messages, e.Message)
	}
	assert.Contains(t, messages, "Batch rolled back.")
	assert.Contains(t, messages, "Committed.")
}

func TestBatchPanicRollsBack(t *testing.T) {
	l := layers.NewList[string]()
	require.NoError(t, l.Add("sam", "sam"))
	assert.Equal(t, []string{"sam"}, l.Values())
	n := 0
	l.Subscribe(func(layers.Change[string]) { n++ })

	assert.PanicsWithValue(t, "boom", func() {
		_ = l.Batch(func(tx *layers.Tx[string]) error {
			require.NoError(t, tx.Add("bill", "bill"))
			tx.MoveToBack("bill")
			panic("boom")
		})
	})
	assert.Equal(t, []string{"sam"}, l.Keys())
	assert.Equal(t, []string{"sam"}, l.Values())
	assert.Equal(t, 1, l.Len())
	assert.False(t, l.Has("bill"))
	assert.Equal(t, uint64(1), l.Revision())
	assert.Equal(t, 0, n)
	require.NoError(t, l.Check())

	require.NoError(t, l.Add("bill", "bill"))
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"sam", "bill"}, l.Keys())
}

func TestBatchMissingKey(t *testing.T) {
	l := layers.NewList[string]()
	require.NoError(t, l.Add("sam", "sam"))
	err := l.Batch(func(tx *layers.Tx[string]) error {
		_, err := tx.Index("bill")
		return err
	})
	assert.ErrorIs(t, err, layers.ErrKeyNotFound)
	assert.Equal(t, []string{"sam"}, l.Keys())
}

func TestSubscriberSeesConsistentState(t *testing.T) {
	l := layers.NewList[string]()
	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, l.Add(k, k))
	}
	l.Subscribe(func(ch layers.Change[string]) {
		assert.NoError(t, l.Check())
		if diff := cmp.Diff(ch.Values, l.Values()); diff != "" {
			t.Errorf("values mismatch (-change +list):\n%s", diff)
		}
		for i, k := range l.Keys() {
			idx, ok := l.Index(k)
			assert.True(t, ok)
			assert.Equal(t, i, idx)
		}
	})
	l.MoveForward("a")
	l.MoveBackward("d")
	l.MoveToFront("b")
	l.MoveToBack("c")
	l.Delete("a")
	require.NoError(t, l.Insert("e", "e", 2))
}

func TestNestedMutationFromSubscriber(t *testing.T) {
	l := layers.NewList[string]()
	var seen []string
	l.Subscribe(func(ch layers.Change[string]) {
		seen = append(seen, joined(ch.Values))
		if ch.Ops[0].Key == "sam" {
			assert.NoError(t, l.Add("echo", "echo"))
		}
	})
	require.NoError(t, l.Add("sam", "sam"))
	assert.Equal(t, []string{"[sam]", "[sam, echo]"}, seen)
	assert.Equal(t, uint64(2), l.Revision())
}

func TestUnsubscribe(t *testing.T) {
	l := layers.NewList[string]()
	a, b := 0, 0
	sa := l.Subscribe(func(layers.Change[string]) { a++ })
	l.Subscribe(func(layers.Change[string]) { b++ })

	require.NoError(t, l.Add("sam", "sam"))
	sa.Unsubscribe()
	sa.Unsubscribe()
	require.NoError(t, l.Add("bill", "bill"))
	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestPanickingSubscriber(t *testing.T) {
	log.SetHandler(memory.New())
	l := layers.NewList[string]()
	n := 0
	l.Subscribe(func(layers.Change[string]) { panic("bad subscriber") })
	l.Subscribe(func(layers.Change[string]) { n++ })

	require.NoError(t, l.Add("sam", "sam"))
	require.NoError(t, l.Add("bill", "bill"))
	assert.Equal(t, 2, n)
}

func TestValuesAreCopies(t *testing.T) {
	l := layers.NewList[string]()
	require.NoError(t, l.Add("sam", "sam"))
	vals := l.Values()
	vals[0] = "changed"
	keys := l.Keys()
	keys[0] = "changed"
	assert.Equal(t, []string{"sam"}, l.Values())
	assert.Equal(t, []string{"sam"}, l.Keys())
}

func TestRestore(t *testing.T) {
	l := layers.NewList[int]()
	require.NoError(t, l.Add("old", 0))
	var got []layers.Change[int]
	l.Subscribe(func(ch layers.Change[int]) { got = append(got, ch) })

	entries := []layers.Entry[int]{{Key: "a", Value: 1}, {Key: "b", Value: 2}}
	require.NoError(t, l.Restore(entries))
	assert.Equal(t, entries, l.Entries())
	require.Len(t, got, 1)
	assert.Equal(t, layers.OpRestore, got[0].Ops[0].Kind)

	err := l.Restore([]layers.Entry[int]{{Key: "x", Value: 1}, {Key: "x", Value: 2}})
	assert.ErrorIs(t, err, layers.ErrDuplicateKey)
	assert.Equal(t, entries, l.Entries())
	assert.Len(t, got, 1)
}

func TestConcurrentMutations(t *testing.T) {
	l := layers.NewList[int]()
	var (
		wg  sync.WaitGroup
		mtx sync.Mutex
		n   int
	)
	l.Subscribe(func(layers.Change[int]) {
		mtx.Lock()
		n++
		mtx.Unlock()
	})
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				key := fmt.Sprintf("%d-%d", w, i)
				assert.NoError(t, l.Insert(key, i, i%5))
				l.MoveForward(key)
				if i%3 == 0 {
					l.Delete(key)
				}
			}
		}(w)
	}
	wg.Wait()
	require.NoError(t, l.Check())
	assert.Equal(t, 8*(50-17), l.Len())
	mtx.Lock()
	defer mtx.Unlock()
	assert.GreaterOrEqual(t, n, 8*(50+17))
}

func TestOpKindString(t *testing.T) {
	assert.Equal(t, "move-to-front", layers.OpMoveToFront.String())
	assert.Equal(t, "restore", layers.OpRestore.String())
	assert.Equal(t, "unknown", layers.OpKind(99).String())
}
