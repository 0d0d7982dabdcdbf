package superq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushTailPopHeadOrder(t *testing.T) {
	c := New("orders", "", 0, false)
	require.NoError(t, c.PushTail(NewScalarElement(StrValue("a"), IntValue(1))))
	require.NoError(t, c.PushTail(NewScalarElement(StrValue("b"), IntValue(2))))

	e, err := c.PopHead()
	require.NoError(t, err)
	assert.Equal(t, "a", e.Name().Str)
	assert.Equal(t, 1, c.Len())
}

func TestMaxlenEvictsOppositeEnd(t *testing.T) {
	c := New("ring", "", 2, false)
	require.NoError(t, c.PushTail(NewScalarElement(StrValue("a"), IntValue(1))))
	require.NoError(t, c.PushTail(NewScalarElement(StrValue("b"), IntValue(2))))
	require.NoError(t, c.PushTail(NewScalarElement(StrValue("c"), IntValue(3))))

	assert.Equal(t, 2, c.Len())
	_, err := c.Get(StrValue("a"))
	assert.ErrorIs(t, err, ErrNotFound)

	e, err := c.Get(StrValue("c"))
	require.NoError(t, err)
	assert.Equal(t, "c", e.Name().Str)
}

func TestMaxlenHeadPushEvictsTail(t *testing.T) {
	c := New("ring", "", 1, false)
	require.NoError(t, c.PushTail(NewScalarElement(StrValue("a"), IntValue(1))))
	err := c.Push(0, NewScalarElement(StrValue("b"), IntValue(2)))
	// pushing at idx 0 on a full 1-element collection is a head push, which
	// is a legal eviction end, so this should succeed and evict "a".
	require.NoError(t, err)
	_, err = c.Get(StrValue("a"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateKeyRejected(t *testing.T) {
	c := New("keyed", "", 0, false)
	require.NoError(t, c.PushTail(NewScalarElement(StrValue("a"), IntValue(1))))
	err := c.PushTail(NewScalarElement(StrValue("a"), IntValue(2)))
	var keyErr *KeyError
	assert.ErrorAs(t, err, &keyErr)
}

func TestDeleteByKey(t *testing.T) {
	c := New("keyed", "", 0, false)
	require.NoError(t, c.PushTail(NewScalarElement(StrValue("a"), IntValue(1))))
	require.NoError(t, c.Delete(StrValue("a")))
	assert.Equal(t, 0, c.Len())
	assert.ErrorIs(t, c.Delete(StrValue("a")), ErrNotFound)
}

func TestRotate(t *testing.T) {
	c := New("deque", "", 0, false)
	for _, n := range []string{"a", "b", "c", "d"} {
		require.NoError(t, c.PushTail(NewScalarElement(StrValue(n), Value{})))
	}
	require.NoError(t, c.Rotate(1))
	all := c.All()
	names := make([]string, len(all))
	for i, e := range all {
		names[i] = e.Name().Str
	}
	assert.Equal(t, []string{"d", "a", "b", "c"}, names)
}

func TestBlockingPopHeadWaitsForPush(t *testing.T) {
	c := New("q", "", 0, false)

	done := make(chan *Element, 1)
	go func() {
		e, err := c.BlockingPopHead(nil)
		require.NoError(t, err)
		done <- e
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, c.PushTail(NewScalarElement(StrValue("a"), IntValue(1))))

	select {
	case e := <-done:
		assert.Equal(t, "a", e.Name().Str)
	case <-time.After(time.Second):
		t.Fatal("blocking pop never returned")
	}
}

func TestKeyedByAtomColumn(t *testing.T) {
	c := New("widgets", "SKU", 0, true)
	e, err := NewElement(StrValue("widget"), widgetSample{Label: "gear", Price: 1, Count: 1})
	require.NoError(t, err)
	require.NoError(t, c.PushTail(e))

	got, err := c.Get(IntValue(1))
	require.NoError(t, err)
	assert.Equal(t, "gear", mustAtom(t, got, "Label").Str)
}

func mustAtom(t *testing.T, e *Element, name string) Value {
	t.Helper()
	a, ok := e.Atom(name)
	require.True(t, ok)
	return a.Value
}

func TestStrictCollectionRejectsFullPush(t *testing.T) {
	c := NewStrict("ring", "", 1, false)
	require.NoError(t, c.PushTail(NewScalarElement(StrValue("a"), IntValue(1))))
	err := c.PushTail(NewScalarElement(StrValue("b"), IntValue(2)))
	assert.ErrorIs(t, err, ErrCollectionFull)
}

func TestStrictCollectionBlockingPushWaitsForRoom(t *testing.T) {
	c := NewStrict("ring", "", 1, false)
	require.NoError(t, c.PushTail(NewScalarElement(StrValue("a"), IntValue(1))))

	done := make(chan error, 1)
	go func() {
		done <- c.BlockingPushTail(NewScalarElement(StrValue("b"), IntValue(2)), nil)
	}()

	time.Sleep(20 * time.Millisecond)
	_, err := c.PopHead()
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
		assert.Equal(t, 1, c.Len())
	case <-time.After(time.Second):
		t.Fatal("blocking push never returned")
	}
}

func TestBlockingPopHeadTimesOutOnEmpty(t *testing.T) {
	c := New("q", "", 0, false)
	timeout := 20 * time.Millisecond
	_, err := c.BlockingPopHead(&timeout)
	assert.ErrorIs(t, err, ErrCollectionEmpty)
}

func TestBlockingPopTailTimesOutOnEmpty(t *testing.T) {
	c := New("q", "", 0, false)
	timeout := 20 * time.Millisecond
	_, err := c.BlockingPopTail(&timeout)
	assert.ErrorIs(t, err, ErrCollectionEmpty)
}

func TestBlockingPushTailTimesOutWhenFull(t *testing.T) {
	c := NewStrict("ring", "", 1, false)
	require.NoError(t, c.PushTail(NewScalarElement(StrValue("a"), IntValue(1))))

	timeout := 20 * time.Millisecond
	err := c.BlockingPushTail(NewScalarElement(StrValue("b"), IntValue(2)), &timeout)
	assert.ErrorIs(t, err, ErrCollectionFull)
}

func TestNewFromItemsPreservesOrder(t *testing.T) {
	items := []*Element{
		NewScalarElement(StrValue("a"), IntValue(1)),
		NewScalarElement(StrValue("b"), IntValue(2)),
	}
	c, err := NewFromItems("seq", "", 0, false, items)
	require.NoError(t, err)
	all := c.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Name().Str)
	assert.Equal(t, "b", all[1].Name().Str)
}

func TestNewFromMapBuildsScalarCollection(t *testing.T) {
	c, err := NewFromMap("counts", 0, false, []MapEntry{
		{Key: StrValue("x"), Value: IntValue(1)},
		{Key: StrValue("y"), Value: IntValue(2)},
	})
	require.NoError(t, err)
	e, err := c.Get(StrValue("y"))
	require.NoError(t, err)
	v, err := e.ScalarValue()
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.Int)
}

func TestNewFromCollectionClonesIndependently(t *testing.T) {
	src := New("widgets", "", 0, false)
	require.NoError(t, src.PushTail(NewScalarElement(StrValue("a"), IntValue(1))))

	clone, err := NewFromCollection(src)
	require.NoError(t, err)
	require.NoError(t, clone.PushTail(NewScalarElement(StrValue("b"), IntValue(2))))

	assert.Equal(t, 1, src.Len())
	assert.Equal(t, 2, clone.Len())
}

func TestDeleteByIndexAndByElement(t *testing.T) {
	c := New("keyed", "", 0, false)
	a := NewScalarElement(StrValue("a"), IntValue(1))
	require.NoError(t, c.PushTail(a))
	require.NoError(t, c.PushTail(NewScalarElement(StrValue("b"), IntValue(2))))

	require.NoError(t, c.Delete(0))
	assert.Equal(t, 1, c.Len())

	b, err := c.Get(StrValue("b"))
	require.NoError(t, err)
	require.NoError(t, c.Delete(b))
	assert.Equal(t, 0, c.Len())
}

func TestDeleteByKeyColObject(t *testing.T) {
	c := New("widgets", "SKU", 0, true)
	e, err := NewElement(StrValue("widget"), widgetSample{Label: "gear", Price: 1, Count: 1})
	require.NoError(t, err)
	require.NoError(t, c.PushTail(e))

	require.NoError(t, c.Delete(struct{ SKU int }{SKU: 1}))
	assert.Equal(t, 0, c.Len())
}

func TestElemUpdateByKeyedObject(t *testing.T) {
	c := New("widgets", "", 0, false)
	e, err := NewElement(StrValue("w-1"), keyedWidget{Label: "bolt"})
	require.NoError(t, err)
	require.NoError(t, c.PushTail(e))

	updated := &keyedWidget{Label: "nut"}
	updated.SetSuperqElemKey("w-1")
	require.NoError(t, c.applyUpdate(updated))

	got, err := c.Get(StrValue("w-1"))
	require.NoError(t, err)
	assert.Equal(t, "nut", mustAtom(t, got, "Label").Str)
}

func TestCollectionMarshalUnmarshalRoundTrip(t *testing.T) {
	c := New("widgets", "", 0, false)
	require.NoError(t, c.PushTail(NewScalarElement(StrValue("a"), IntValue(1))))
	require.NoError(t, c.PushTail(NewScalarElement(StrValue("b"), IntValue(2))))

	enc := c.Marshal()
	got, err := UnmarshalCollection(enc)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())

	e, err := got.Get(StrValue("a"))
	require.NoError(t, err)
	v, err := e.ScalarValue()
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Int)
}
