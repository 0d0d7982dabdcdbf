package superq

import (
	"testing"

	"github.com/manesajian/superq/internal/sqlengine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionQueryAgainstLiveEngine(t *testing.T) {
	engine, err := sqlengine.Open()
	require.NoError(t, err)
	defer engine.Close()

	ds := NewDatastore(engine)
	col, err := ds.Create("widgets", "", 0, false)
	require.NoError(t, err)

	require.NoError(t, col.PushTail(NewScalarElement(StrValue("gear"), IntValue(7))))
	require.NoError(t, col.PushTail(NewScalarElement(StrValue("bolt"), IntValue(3))))

	result, err := col.Query("__name, __value", "<self>", "__value > 5", nil)
	require.NoError(t, err)
	all := result.All()
	require.Len(t, all, 1)
	v, err := all[0].ScalarValue()
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.Int)
}

func TestCollectionQueryWithObjSample(t *testing.T) {
	engine, err := sqlengine.Open()
	require.NoError(t, err)
	defer engine.Close()

	ds := NewDatastore(engine)
	col, err := ds.Create("widgets", "", 0, false)
	require.NoError(t, err)

	e, err := NewElement(StrValue("w-1"), widgetSample{Label: "gear", Price: 4.5, Count: 3})
	require.NoError(t, err)
	require.NoError(t, col.PushTail(e))

	result, err := col.Query("*", "<self>", "", widgetSample{})
	require.NoError(t, err)
	all := result.All()
	require.Len(t, all, 1)

	out, err := all[0].Demarshal()
	require.NoError(t, err)
	got, ok := out.(widgetSample)
	require.True(t, ok)
	assert.Equal(t, "gear", got.Label)
	assert.Equal(t, 3, got.Count)
}

func TestDatastoreResolveLinkAcrossCollections(t *testing.T) {
	engine, err := sqlengine.Open()
	require.NoError(t, err)
	defer engine.Close()

	ds := NewDatastore(engine)
	suppliers, err := ds.Create("suppliers", "", 0, false)
	require.NoError(t, err)
	orders, err := ds.Create("orders", "", 0, false)
	require.NoError(t, err)

	require.NoError(t, suppliers.PushTail(NewScalarElement(StrValue("acme"), StrValue("Acme Corp"))))

	order := NewScalarElement(StrValue("order-1"), IntValue(42))
	require.NoError(t, order.Link("supplier", suppliers.PublicName()))
	require.NoError(t, orders.PushTail(order))

	got, err := orders.Get(StrValue("order-1"))
	require.NoError(t, err)

	resolved, err := got.ResolveLink(ds, "supplier", StrValue("acme"))
	require.NoError(t, err)
	v, err := resolved.ScalarValue()
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", v.Str)
}
