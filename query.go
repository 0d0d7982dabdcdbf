package superq

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/manesajian/superq/internal/llist"
	"github.com/prometheus/client_golang/prometheus"
)

// selfToken is the placeholder a caller writes in a query to mean "this
// collection's mirror table", so queries can be authored without knowing
// the sanitized table name a collection happens to be mirrored under.
const selfToken = "<self>"

func substituteSelf(sqlText, tableName string) string {
	return strings.ReplaceAll(sqlText, selfToken, tableName)
}

// Query runs a SQL query built from columns, tables, and conditional —
// each independently scanned for the literal token "<self>" and resolved
// to this collection's real mirror table name, then assembled as
// "SELECT columns FROM tables WHERE conditional" — and returns the result
// as a new, detached Collection of reconstructed elements rather than raw
// rows, so the result can be pushed, popped, and queried exactly like any
// other collection. tables must reference "<self>" at least once.
//
// When objSample is non-nil, each row is demarshalled into a fresh copy of
// objSample's type (a scalar type reads the lone result column; a struct
// type has its exported fields populated by matching column name,
// coercing the driver's value into that field's static type — unmatched
// or unsupported fields are left at their zero value). When objSample is
// nil, each row is rebuilt by elementFromRow: a row of only the mirror
// table's "__value" (plus "__name"/"__links") becomes a scalar element,
// any other row a structured element with one atom per non-structural
// column.
//
// Returns ErrNotAttached if the collection has no mirror table.
func (c *Collection) Query(columns, tables, conditional string, objSample any) (*Collection, error) {
	c.mu.Lock()
	engine := c.engine
	table := c.tableName
	c.mu.Unlock()

	if engine == nil {
		return nil, ErrNotAttached
	}
	if !strings.Contains(tables, selfToken) {
		return nil, fmt.Errorf("superq: query tables %q must reference %s: %w", tables, selfToken, ErrObjectNotRecognized)
	}

	cond := conditional
	if cond == "" {
		cond = "1=1"
	}
	sqlText := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		substituteSelf(columns, table), substituteSelf(tables, table), substituteSelf(cond, table))

	timer := prometheus.NewTimer(queryDurations.WithLabelValues(c.name))
	defer timer.ObserveDuration()

	rows, err := engine.Query(sqlText)
	if err != nil {
		return nil, fmt.Errorf("superq: query %s: %w: %w", c.name, ErrDBExec, err)
	}

	result := New(c.name+"#query", "", 0, false)
	for i, row := range rows {
		name := StrValue(fmt.Sprintf("row%d", i))
		elem, err := reconstructElement(name, row, objSample)
		if err != nil {
			return nil, err
		}
		if err := result.PushTail(elem); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// normalizeRowColumns strips any "table." qualifier SQLite may have left on
// a joined query's column names, so a caller's field/atom names match
// regardless of whether the driver qualified them.
func normalizeRowColumns(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		if i := strings.LastIndexByte(k, '.'); i >= 0 {
			k = k[i+1:]
		}
		out[k] = v
	}
	return out
}

// toValue coerces a value as returned by the embedded engine's driver into
// this package's tagged Value union.
func toValue(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return StrValue("")
	case string:
		return StrValue(v)
	case []byte:
		return StrValue(string(v))
	case int64:
		return IntValue(v)
	case float64:
		return FloatValue(v)
	default:
		return StrValue(fmt.Sprint(v))
	}
}

func reconstructElement(name Value, row map[string]any, objSample any) (*Element, error) {
	normalized := normalizeRowColumns(row)

	if objSample == nil {
		return elementFromRow(name, normalized)
	}

	rv := reflect.ValueOf(objSample)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.String, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		raw, ok := normalized["__value"]
		if !ok && len(normalized) == 1 {
			for _, only := range normalized {
				raw, ok = only, true
			}
		}
		if !ok {
			return nil, fmt.Errorf("superq: query result has no scalar column for sample %T: %w", objSample, ErrObjectNotRecognized)
		}
		return NewScalarElement(name, toValue(raw)), nil

	case reflect.Struct:
		newObj := reflect.New(rv.Type()).Elem()
		for i := 0; i < rv.Type().NumField(); i++ {
			f := rv.Type().Field(i)
			if !f.IsExported() {
				continue
			}
			raw, ok := normalized[f.Name]
			if !ok {
				continue
			}
			assignField(newObj.Field(i), raw)
		}
		return NewElement(name, newObj.Interface())

	default:
		return nil, &TypeError{Msg: fmt.Sprintf("unsupported query sample kind %s", rv.Kind())}
	}
}

// assignField coerces raw into fv's static type. A field kind this system
// doesn't model (the same closed set NewElement supports) is left at its
// zero value, matching the construction-time silently-skipped policy.
func assignField(fv reflect.Value, raw any) {
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(toValue(raw).String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		fv.SetInt(toIntAny(raw))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		fv.SetUint(uint64(toIntAny(raw)))
	case reflect.Float32, reflect.Float64:
		fv.SetFloat(toFloatAny(raw))
	}
}

func toIntAny(raw any) int64 {
	switch v := raw.(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case string:
		var n int64
		fmt.Sscanf(v, "%d", &n)
		return n
	default:
		return 0
	}
}

func toFloatAny(raw any) float64 {
	switch v := raw.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case string:
		var f float64
		fmt.Sscanf(v, "%g", &f)
		return f
	default:
		return 0
	}
}

// elementFromRow builds a structured element directly from a query row,
// when no objSample was supplied to shape it. A row carrying only the
// mirror table's own "__value" column (plus "__name"/"__links") is treated
// as scalar; otherwise every non-structural column becomes an atom, in
// sorted column-name order since a SQL row carries no declared ordering.
func elementFromRow(name Value, row map[string]any) (*Element, error) {
	if v, ok := row["__value"]; ok && len(row) <= 3 {
		return NewScalarElement(name, toValue(v)), nil
	}

	e := &Element{
		name:      name,
		atoms:     llist.New[*Atom](),
		atomIndex: make(map[string]*llist.Node[*Atom]),
		links:     make(map[string]string),
	}

	cols := make([]string, 0, len(row))
	for k := range row {
		if k == "__name" || k == "__links" || k == "__value" {
			continue
		}
		cols = append(cols, k)
	}
	sort.Strings(cols)
	for _, k := range cols {
		if err := e.addAtomLocked(k, toValue(row[k])); err != nil {
			return nil, err
		}
	}

	if linksRaw, ok := row["__links"]; ok {
		if s, ok := linksRaw.(string); ok && s != "" {
			links, order := parseLinksString(s)
			e.links, e.linkOrder = links, order
		}
	}
	return e, nil
}
