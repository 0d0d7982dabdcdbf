// Package sqlengine binds the collection-mirroring concern to a real SQL
// engine. It knows nothing about collections or elements — callers pass
// plain table/column/value data — keeping this package free of any
// dependency on the superq package itself.
package sqlengine

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ColumnDef names one mirror-table column and its SQL type.
type ColumnDef struct {
	Name    string
	SQLType string
}

// Engine wraps a single embedded database shared by every mirrored
// collection in a datastore. modernc.org/sqlite is pure Go, so a single
// *sql.DB already gives safe concurrent access without a bespoke
// connection-pool type; database/sql's own pool is the idiomatic fit here
// and is left to do its job (see DESIGN.md for why this differs from the
// network layer's hand-rolled socket pool).
type Engine struct {
	db *sql.DB
}

// Open starts an embedded, shared-cache, in-memory database.
func Open() (*Engine, error) {
	db, err := sql.Open("sqlite", "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("sqlengine: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	return &Engine{db: db}, nil
}

// Close releases the underlying database handle.
func (e *Engine) Close() error { return e.db.Close() }

// busyRetry retries fn while the engine reports SQLITE_BUSY, the only
// transient failure an in-process embedded engine can produce under
// concurrent mirror writes. There is no attempt limit: a busy error is
// never returned to the caller.
func busyRetry(fn func() error) error {
	for {
		err := fn()
		if err == nil || !strings.Contains(err.Error(), "SQLITE_BUSY") {
			return err
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// EnsureTable creates the mirror table for a collection if it doesn't
// already exist. Re-attaching the same collection name reuses the table.
func (e *Engine) EnsureTable(table string, cols []ColumnDef) error {
	if len(cols) == 0 {
		return nil
	}
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = fmt.Sprintf("%q %s", c.Name, c.SQLType)
	}
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (%s)`, table, strings.Join(defs, ", "))
	return busyRetry(func() error {
		_, err := e.db.Exec(stmt)
		return err
	})
}

// InsertRow mirrors one new element as a row.
func (e *Engine) InsertRow(table string, cols []string, vals []any) error {
	if len(cols) == 0 {
		return nil
	}
	placeholders := make([]string, len(cols))
	quoted := make([]string, len(cols))
	for i, c := range cols {
		placeholders[i] = "?"
		quoted[i] = fmt.Sprintf("%q", c)
	}
	stmt := fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`, table, strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
	return busyRetry(func() error {
		_, err := e.db.Exec(stmt, vals...)
		return err
	})
}

// UpdateRow mirrors a value/atom change, matching the row by keyCol.
func (e *Engine) UpdateRow(table, keyCol string, keyVal any, cols []string, vals []any) error {
	if len(cols) == 0 {
		return nil
	}
	sets := make([]string, len(cols))
	args := make([]any, 0, len(vals)+1)
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%q = ?", c)
		args = append(args, vals[i])
	}
	args = append(args, keyVal)
	stmt := fmt.Sprintf(`UPDATE %q SET %s WHERE %q = ?`, table, strings.Join(sets, ", "), keyCol)
	return busyRetry(func() error {
		_, err := e.db.Exec(stmt, args...)
		return err
	})
}

// DeleteRow mirrors an element removal, matching the row by keyCol.
func (e *Engine) DeleteRow(table, keyCol string, keyVal any) error {
	stmt := fmt.Sprintf(`DELETE FROM %q WHERE %q = ?`, table, keyCol)
	return busyRetry(func() error {
		_, err := e.db.Exec(stmt, keyVal)
		return err
	})
}

// DropTable removes a collection's mirror table entirely, used when a
// collection is deleted from its datastore rather than merely detached.
func (e *Engine) DropTable(table string) error {
	stmt := fmt.Sprintf(`DROP TABLE IF EXISTS %q`, table)
	return busyRetry(func() error {
		_, err := e.db.Exec(stmt)
		return err
	})
}

// Query runs sqlText and returns each row as a column-name-keyed map, in
// row order.
func (e *Engine) Query(sqlText string) ([]map[string]any, error) {
	var rows *sql.Rows
	err := busyRetry(func() error {
		var qerr error
		rows, qerr = e.db.Query(sqlText)
		return qerr
	})
	if err != nil {
		return nil, fmt.Errorf("sqlengine: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlengine: columns: %w", err)
	}

	var out []map[string]any
	for rows.Next() {
		scanTargets := make([]any, len(cols))
		scanPtrs := make([]any, len(cols))
		for i := range scanTargets {
			scanPtrs[i] = &scanTargets[i]
		}
		if err := rows.Scan(scanPtrs...); err != nil {
			return nil, fmt.Errorf("sqlengine: scan: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = scanTargets[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
