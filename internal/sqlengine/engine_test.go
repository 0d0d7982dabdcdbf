package sqlengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureTableInsertQueryDelete(t *testing.T) {
	e, err := Open()
	require.NoError(t, err)
	defer e.Close()

	cols := []ColumnDef{{Name: "__name", SQLType: "TEXT"}, {Name: "price", SQLType: "REAL"}}
	require.NoError(t, e.EnsureTable("t_widgets", cols))
	require.NoError(t, e.EnsureTable("t_widgets", cols)) // idempotent

	require.NoError(t, e.InsertRow("t_widgets", []string{"__name", "price"}, []any{"gear", 4.5}))

	rows, err := e.Query(`SELECT * FROM t_widgets`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "gear", rows[0]["__name"])

	require.NoError(t, e.UpdateRow("t_widgets", "__name", "gear", []string{"price"}, []any{5.0}))
	rows, err = e.Query(`SELECT * FROM t_widgets WHERE "__name" = 'gear'`)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, e.DeleteRow("t_widgets", "__name", "gear"))
	rows, err = e.Query(`SELECT * FROM t_widgets`)
	require.NoError(t, err)
	assert.Len(t, rows, 0)
}
