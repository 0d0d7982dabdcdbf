package superq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatastoreCreateReadDelete(t *testing.T) {
	ds := NewDatastore(nil)

	col, err := ds.Create("widgets", "", 0, false)
	require.NoError(t, err)
	require.NoError(t, col.PushTail(NewScalarElement(StrValue("a"), IntValue(1))))

	got, err := ds.Read("widgets")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())

	assert.True(t, ds.Exists("widgets"))

	require.NoError(t, ds.Delete("widgets"))
	assert.False(t, ds.Exists("widgets"))
}

func TestDatastoreDuplicateAttachRejected(t *testing.T) {
	ds := NewDatastore(nil)
	_, err := ds.Create("widgets", "", 0, false)
	require.NoError(t, err)

	_, err = ds.Create("widgets", "", 0, false)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestDatastoreElemLifecycle(t *testing.T) {
	ds := NewDatastore(nil)
	_, err := ds.Create("widgets", "", 0, false)
	require.NoError(t, err)

	e := NewScalarElement(StrValue("a"), IntValue(1))
	require.NoError(t, ds.ElemCreate("widgets", e))
	assert.True(t, ds.ElemExists("widgets", StrValue("a")))

	got, err := ds.ElemRead("widgets", StrValue("a"))
	require.NoError(t, err)
	v, err := got.ScalarValue()
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Int)

	update := NewScalarElement(StrValue("a"), IntValue(2))
	require.NoError(t, ds.ElemUpdate("widgets", update))
	got, err = ds.ElemRead("widgets", StrValue("a"))
	require.NoError(t, err)
	v, err = got.ScalarValue()
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.Int)

	require.NoError(t, ds.ElemDelete("widgets", StrValue("a")))
	assert.False(t, ds.ElemExists("widgets", StrValue("a")))
}

func TestDatastoreReadMissingReturnsNotFound(t *testing.T) {
	ds := NewDatastore(nil)
	_, err := ds.Read("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
