package llist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPopEnds(t *testing.T) {
	l := New[int]()
	l.PushTail(NewNode(1))
	l.PushTail(NewNode(2))
	l.PushHead(NewNode(0))

	require.Equal(t, 3, l.Len())

	n, err := l.PopHead()
	require.NoError(t, err)
	assert.Equal(t, 0, n.Value)

	n, err = l.PopTail()
	require.NoError(t, err)
	assert.Equal(t, 2, n.Value)

	assert.Equal(t, 1, l.Len())
}

func TestPopEmptyReturnsErrEmptyList(t *testing.T) {
	l := New[string]()
	_, err := l.PopHead()
	assert.ErrorIs(t, err, ErrEmptyList)
}

func TestAtIndexWalksFromCloserEnd(t *testing.T) {
	l := New[int]()
	for i := 0; i < 10; i++ {
		l.PushTail(NewNode(i))
	}
	n, err := l.At(7)
	require.NoError(t, err)
	assert.Equal(t, 7, n.Value)

	_, err = l.At(100)
	var idxErr *IndexError
	assert.ErrorAs(t, err, &idxErr)
}

func TestPopNodeO1ByHandle(t *testing.T) {
	l := New[string]()
	mid := NewNode("mid")
	l.PushTail(NewNode("a"))
	l.PushTail(mid)
	l.PushTail(NewNode("b"))

	removed := l.PopNode(mid)
	assert.Equal(t, mid, removed)
	assert.Equal(t, 2, l.Len())

	n, _ := l.At(0)
	assert.Equal(t, "a", n.Value)
	n, _ = l.At(1)
	assert.Equal(t, "b", n.Value)
}

func TestMoveUpAndMoveDownAreInverses(t *testing.T) {
	l := New[int]()
	a, b, c := NewNode(1), NewNode(2), NewNode(3)
	l.PushTail(a)
	l.PushTail(b)
	l.PushTail(c)

	l.MoveUp(b) // b swaps with a: 1 2 3 -> 2 1 3
	n0, _ := l.At(0)
	n1, _ := l.At(1)
	assert.Equal(t, 2, n0.Value)
	assert.Equal(t, 1, n1.Value)

	l.MoveDown(b) // swap back: 2 1 3 -> 1 2 3
	n0, _ = l.At(0)
	n1, _ = l.At(1)
	assert.Equal(t, 1, n0.Value)
	assert.Equal(t, 2, n1.Value)
}

func TestMoveUpHeadIsNoop(t *testing.T) {
	l := New[int]()
	a := NewNode(1)
	l.PushTail(a)
	l.PushTail(NewNode(2))
	l.MoveUp(a)
	n0, _ := l.At(0)
	assert.Equal(t, 1, n0.Value)
}

func TestSliceForwardAndBackward(t *testing.T) {
	l := New[int]()
	for i := 0; i < 5; i++ {
		l.PushTail(NewNode(i))
	}

	out, err := l.Slice(nil, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, out.Len())

	two := 2
	out, err = l.Slice(nil, &two, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Len())

	out, err = l.Slice(nil, nil, -1)
	require.NoError(t, err)
	first, _ := out.At(0)
	assert.Equal(t, 4, first.Value)
}

func TestCircularIteratorWraps(t *testing.T) {
	l := New[int]()
	l.Circular = true
	l.PushTail(NewNode(1))
	l.PushTail(NewNode(2))

	it := l.Iter()
	seen := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		n, ok := it.Next()
		require.True(t, ok)
		seen = append(seen, n.Value)
	}
	assert.Equal(t, []int{1, 2, 1, 2, 1}, seen)
}
