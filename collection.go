package superq

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/manesajian/superq/internal/llist"
	"github.com/manesajian/superq/internal/sqlengine"
)

// Collection is the hybrid ordered+keyed, optionally SQL-mirrored sequence
// that is the heart of this package: elements live in insertion/rotation
// order in an intrusive linked list (for push/pop/rotate), are addressable
// by key in a side index (for get/update/delete by name), and — once
// attached to a Datastore — are mirrored row-for-row into a table in the
// embedded engine so they can be queried with SQL.
//
// A Collection is safe for concurrent use. Blocking push/pop use a mutex
// paired with two condition variables rather than a buffered channel,
// because maxlen eviction needs to inspect and mutate the queue under the
// same lock a blocked waiter is parked on.
type Collection struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	name    string
	host    string // "" for local/detached
	keyCol  string // "" keys elements by their own Name(); else by a named atom
	maxLen  int    // 0 means unbounded
	autoKey bool
	nextKey int64

	// strict disables maxlen auto-eviction; a full collection instead
	// refuses end pushes (the Blocking* variants wait until room frees up),
	// for callers that want hard backpressure rather than a rolling window.
	strict bool

	order *llist.List[*Element]
	index map[string]*llist.Node[*Element]

	datastore  *Datastore // nil when detached
	publicName string

	engine    *sqlengine.Engine
	tableName string
}

// New builds a detached collection from scratch. maxLen of 0 means
// unbounded; keyCol of "" keys elements by their own Name(). A full
// collection evicts from the opposite end on an end push; use NewStrict for
// hard backpressure instead.
func New(name string, keyCol string, maxLen int, autoKey bool) *Collection {
	return newCollection(name, keyCol, maxLen, autoKey, false)
}

// NewStrict builds a detached, maxlen-bounded collection that never
// auto-evicts: an end push against a full collection blocks (via
// BlockingPushTail/BlockingPushHead) or fails with ErrCollectionFull (via
// Push/PushTail/PushHead) instead.
func NewStrict(name string, keyCol string, maxLen int, autoKey bool) *Collection {
	return newCollection(name, keyCol, maxLen, autoKey, true)
}

// NewFromItems builds a detached collection by pushing items in order, the
// Go equivalent of constructing a superq from a plain sequence.
func NewFromItems(name, keyCol string, maxLen int, autoKey bool, items []*Element) (*Collection, error) {
	c := newCollection(name, keyCol, maxLen, autoKey, false)
	for _, e := range items {
		if err := c.PushTail(e); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MapEntry is one key/value pair fed to NewFromMap.
type MapEntry struct {
	Key   Value
	Value Value
}

// NewFromMap builds a detached scalar collection from an ordered sequence
// of key/value pairs, the Go equivalent of constructing a superq from a
// dict. Go maps have no stable iteration order, so a caller wanting
// deterministic element order must supply the pairs pre-ordered; this is a
// deliberate, documented deviation from Python's (also effectively
// insertion-ordered, since Python 3.7) dict construction.
func NewFromMap(name string, maxLen int, autoKey bool, entries []MapEntry) (*Collection, error) {
	c := newCollection(name, "", maxLen, autoKey, false)
	for _, kv := range entries {
		if err := c.PushTail(NewScalarElement(kv.Key, kv.Value)); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// NewFromCollection builds a detached clone of src: same construction
// parameters, with every element deep-copied so neither collection's
// mutations are visible through the other.
func NewFromCollection(src *Collection) (*Collection, error) {
	src.mu.Lock()
	name, keyCol, maxLen, autoKey, strict := src.name, src.keyCol, src.maxLen, src.autoKey, src.strict
	elems := make([]*Element, 0, src.order.Len())
	for it := src.order.Iter(); ; {
		n, ok := it.Next()
		if !ok {
			break
		}
		elems = append(elems, n.Value.clone())
	}
	src.mu.Unlock()

	c := newCollection(name, keyCol, maxLen, autoKey, strict)
	for _, e := range elems {
		if err := c.PushTail(e); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func newCollection(name, keyCol string, maxLen int, autoKey, strict bool) *Collection {
	c := &Collection{
		name:    name,
		keyCol:  keyCol,
		maxLen:  maxLen,
		autoKey: autoKey,
		strict:  strict,
		order:   llist.New[*Element](),
		index:   make(map[string]*llist.Node[*Element]),
	}
	c.notEmpty = sync.NewCond(&c.mu)
	c.notFull = sync.NewCond(&c.mu)
	return c
}

// Name returns the collection's local name.
func (c *Collection) Name() string { return c.name }

// PublicName returns the name the collection was attached under.
// Datastore.Attach always uses the bare local name; no host-qualified name
// is assigned, even when the collection carries a host tag. Returns ""
// while detached.
func (c *Collection) PublicName() string { return c.publicName }

// Len returns the number of elements currently in the collection.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Collection) keyFor(e *Element) (Value, error) {
	if c.keyCol == "" {
		return e.Name(), nil
	}
	a, ok := e.Atom(c.keyCol)
	if !ok {
		return Value{}, fmt.Errorf("superq: element missing key atom %q: %w", c.keyCol, ErrObjectNotRecognized)
	}
	return a.Value, nil
}

// Push inserts e at position idx (clamped into range); it never waits for
// room. A maxlen collection evicts from the opposite end
// automatically when idx targets the end being pushed to, matching a
// bounded deque; pushing into the middle of a full collection fails with
// ErrCollectionFull instead of guessing which end to evict, as does any end
// push into a full strict collection.
func (c *Collection) Push(idx int, e *Element) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pushLocked(idx, e)
}

func (c *Collection) pushLocked(idx int, e *Element) error {
	if e.parent != nil {
		// e already belongs to another collection (or this one, under a
		// different key); insert a detached copy rather than splicing the
		// same node into two collections' indexes at once.
		e = e.clone()
	}

	if c.autoKey && !e.scalar {
		if _, has := e.Atom(c.keyCol); !has {
			c.nextKey++
			if err := e.addAtomLocked(c.keyCol, IntValue(c.nextKey)); err != nil {
				return err
			}
		}
	}

	key, err := c.keyFor(e)
	if err != nil {
		return err
	}
	keyStr := key.String()
	if _, exists := c.index[keyStr]; exists {
		return &KeyError{Key: keyStr}
	}

	if c.maxLen > 0 && c.order.Len() >= c.maxLen {
		atHead := idx <= 0
		atTail := idx >= c.order.Len()
		if !atHead && !atTail {
			return fmt.Errorf("superq: push at %d into full collection (maxlen=%d): %w", idx, c.maxLen, ErrCollectionFull)
		}
		if c.strict {
			return fmt.Errorf("superq: push into full strict collection (maxlen=%d): %w", c.maxLen, ErrCollectionFull)
		}

		var evicted *llist.Node[*Element]
		if atHead {
			evicted = c.order.Tail()
		} else {
			evicted = c.order.Head()
		}
		if evicted != nil {
			// Mirror the eviction before touching in-memory state: the
			// table row has to go regardless of whether we're able to undo
			// an in-memory removal cheaply, and deleting never depends on
			// the order's current shape the way schema derivation does.
			if err := c.mirrorDeleteLocked(evicted.Value); err != nil {
				return err
			}
			c.order.PopNode(evicted)
			delete(c.index, c.keyFor0(evicted.Value))
			evicted.Value.parent = nil
			evictCount.WithLabelValues(c.name).Inc()
		}
	}

	node := llist.NewNode(e)
	c.order.Push(idx, node)
	c.index[keyStr] = node
	e.parent = c

	// Unlike eviction, the insert must happen in memory first: schema
	// derivation for the very first row looks at the current order's head,
	// which is only this element once it's actually linked in.
	if err := c.mirrorInsertLocked(e); err != nil {
		c.order.PopNode(node)
		delete(c.index, keyStr)
		e.parent = nil
		return err
	}

	pushCount.WithLabelValues(c.name).Inc()
	c.notEmpty.Signal()
	return nil
}

// keyFor0 is keyFor without the error return, for paths where the key was
// already validated once (eviction of an existing member).
func (c *Collection) keyFor0(e *Element) string {
	k, _ := c.keyFor(e)
	return k.String()
}

// PushHead pushes e to the front.
func (c *Collection) PushHead(e *Element) error { return c.Push(0, e) }

// PushTail pushes e to the back.
func (c *Collection) PushTail(e *Element) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pushLocked(c.order.Len(), e)
}

// Pop removes and returns the element at idx (clamped to the nearer end
// when out of range). Returns ErrCollectionEmpty if the collection has no
// elements.
func (c *Collection) Pop(idx int) (*Element, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.popLocked(idx)
}

func (c *Collection) popLocked(idx int) (*Element, error) {
	if c.order.IsEmpty() {
		return nil, ErrCollectionEmpty
	}

	var n *llist.Node[*Element]
	switch {
	case idx <= 0:
		n = c.order.Head()
	case idx >= c.order.Len()-1:
		n = c.order.Tail()
	default:
		var err error
		n, err = c.order.At(idx)
		if err != nil {
			return nil, err
		}
	}

	// Mirror first: DeleteRow doesn't depend on the order's shape, and
	// leaving the in-memory node linked until the mirror write succeeds
	// means a failure here leaves the collection exactly as it was.
	if err := c.mirrorDeleteLocked(n.Value); err != nil {
		return nil, err
	}

	c.order.PopNode(n)
	delete(c.index, c.keyFor0(n.Value))
	n.Value.parent = nil
	popCount.WithLabelValues(c.name).Inc()
	c.notFull.Signal()
	return n.Value, nil
}

// PopHead pops the front element.
func (c *Collection) PopHead() (*Element, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.popLocked(0)
}

// PopTail pops the back element.
func (c *Collection) PopTail() (*Element, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.popLocked(c.order.Len() - 1)
}

// deadlineFor converts an optional timeout into an absolute wakeup time. A
// nil timeout means block forever (the zero Time).
func deadlineFor(timeout *time.Duration) time.Time {
	if timeout == nil {
		return time.Time{}
	}
	return time.Now().Add(*timeout)
}

// waitOnDeadline blocks on cond until predicate is satisfied or deadline
// elapses (a zero deadline never elapses). sync.Cond has no native timeout
// support, so a deadline is enforced by racing an AfterFunc broadcast
// against the wait; each wakeup re-checks the *remaining* time against the
// absolute deadline rather than restarting a fixed timeout, matching
// superq.py's push/pop loops (`endtime = time() + timeout`, looping on
// `endtime - time()`). The caller must already hold cond's lock.
func waitOnDeadline(cond *sync.Cond, deadline time.Time, predicate func() bool) bool {
	if deadline.IsZero() {
		for !predicate() {
			cond.Wait()
		}
		return true
	}

	timer := time.AfterFunc(time.Until(deadline), cond.Broadcast)
	defer timer.Stop()

	for !predicate() {
		if time.Until(deadline) <= 0 {
			return false
		}
		cond.Wait()
	}
	return true
}

// BlockingPopHead pops the front element, waiting while the collection is
// empty. A nil timeout waits forever; otherwise returns ErrCollectionEmpty
// once timeout elapses with no element to pop (a non-positive residual on
// wakeup is treated as expiry).
func (c *Collection) BlockingPopHead(timeout *time.Duration) (*Element, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !waitOnDeadline(c.notEmpty, deadlineFor(timeout), func() bool { return !c.order.IsEmpty() }) {
		return nil, ErrCollectionEmpty
	}
	return c.popLocked(0)
}

// BlockingPopTail pops the back element, waiting while the collection is
// empty, with the same timeout semantics as BlockingPopHead.
func (c *Collection) BlockingPopTail(timeout *time.Duration) (*Element, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !waitOnDeadline(c.notEmpty, deadlineFor(timeout), func() bool { return !c.order.IsEmpty() }) {
		return nil, ErrCollectionEmpty
	}
	return c.popLocked(c.order.Len() - 1)
}

func (c *Collection) notFullLocked() bool {
	return !(c.strict && c.maxLen > 0 && c.order.Len() >= c.maxLen)
}

// BlockingPushTail pushes e to the back, waiting while a strict collection
// is full. On a non-strict (auto-evicting) collection this behaves exactly
// like PushTail, since such a collection is never actually full. A nil
// timeout waits forever; otherwise returns ErrCollectionFull once timeout
// elapses with no room (a non-positive residual on wakeup is treated as
// expiry).
func (c *Collection) BlockingPushTail(e *Element, timeout *time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !waitOnDeadline(c.notFull, deadlineFor(timeout), c.notFullLocked) {
		return ErrCollectionFull
	}
	return c.pushLocked(c.order.Len(), e)
}

// BlockingPushHead pushes e to the front, with the same waiting and
// timeout semantics as BlockingPushTail.
func (c *Collection) BlockingPushHead(e *Element, timeout *time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !waitOnDeadline(c.notFull, deadlineFor(timeout), c.notFullLocked) {
		return ErrCollectionFull
	}
	return c.pushLocked(0, e)
}

// Get looks an element up by key.
func (c *Collection) Get(key Value) (*Element, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.index[key.String()]
	if !ok {
		return nil, fmt.Errorf("superq: %v: %w", key, ErrNotFound)
	}
	return n.Value, nil
}

// All returns every element, in order. The slice is a snapshot.
func (c *Collection) All() []*Element {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Element, 0, c.order.Len())
	for it := c.order.Iter(); ; {
		n, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, n.Value)
	}
	return out
}

// Rotate moves n elements from tail to head (n negative moves them from
// head to tail), the way a deque rotate does.
func (c *Collection) Rotate(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.order.IsEmpty() {
		return nil
	}
	length := c.order.Len()
	n %= length
	if n < 0 {
		n += length
	}
	for i := 0; i < n; i++ {
		node, err := c.order.PopTail()
		if err != nil {
			return err
		}
		c.order.PushHead(node)
	}
	return nil
}

// updateScalar overwrites a scalar element's value under the collection's
// lock, mirroring the change to the embedded engine.
func (c *Collection) updateScalar(e *Element, v Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := e.value
	e.value = v
	if err := c.mirrorUpdateLocked(e); err != nil {
		e.value = prev
		return err
	}
	return nil
}

// updateAtom overwrites a named atom's value under the collection's lock,
// mirroring the change to the embedded engine.
func (c *Collection) updateAtom(e *Element, name string, v Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := e.atomIndex[name]
	if !ok {
		return &KeyError{Key: name}
	}
	prev := n.Value.Value
	n.Value.Value = v
	if err := c.mirrorUpdateLocked(e); err != nil {
		n.Value.Value = prev
		return err
	}
	return nil
}

// updateLinks mirrors a link change to the embedded engine's links column.
func (c *Collection) updateLinks(e *Element) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mirrorUpdateLocked(e)
}

// resolveKeyLocked resolves target to the scalar key of the element it
// identifies, per the delete/update protocol: a Value names it directly, an
// *Element by its own (possibly keyCol-derived) key, an int by position
// unless an element is itself keyed by that same integer (keyed lookup
// always wins), a KeyedObject by its routing tag, or — when keyCol is set —
// any struct exposing that field. The caller must already hold c.mu.
func (c *Collection) resolveKeyLocked(target any) (Value, error) {
	switch v := target.(type) {
	case Value:
		return v, nil
	case *Element:
		return c.keyFor(v)
	case int:
		probe := IntValue(int64(v))
		if _, ok := c.index[probe.String()]; ok {
			return probe, nil
		}
		n, err := c.order.At(v)
		if err != nil {
			return Value{}, fmt.Errorf("superq: index %d: %w", v, ErrObjectNotRecognized)
		}
		return c.keyFor(n.Value)
	default:
		if c.keyCol != "" {
			if val, ok := structFieldValue(target, c.keyCol); ok {
				return val, nil
			}
		}
		if ko, ok := target.(KeyedObject); ok {
			return StrValue(ko.SuperqElemKey()), nil
		}
		return Value{}, fmt.Errorf("superq: %T: %w", target, ErrObjectNotRecognized)
	}
}

// structFieldValue reads the named exported field off obj (a struct or
// pointer to one) as a Value, reporting false if obj isn't a struct, the
// field doesn't exist, or its type isn't one valueFromReflect supports.
func structFieldValue(obj any, name string) (Value, bool) {
	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Value{}, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return Value{}, false
	}
	f := rv.FieldByName(name)
	if !f.IsValid() {
		return Value{}, false
	}
	v, err := valueFromReflect(f)
	if err != nil {
		return Value{}, false
	}
	return v, true
}

// Delete removes the element identified by target, resolved per the
// delete/update protocol (see resolveKeyLocked): a Value key, an *Element,
// an integer index, or a user object keyed by keyCol or KeyedObject.
func (c *Collection) Delete(target any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key, err := c.resolveKeyLocked(target)
	if err != nil {
		return err
	}
	n, ok := c.index[key.String()]
	if !ok {
		return fmt.Errorf("superq: %v: %w", key, ErrNotFound)
	}

	if err := c.mirrorDeleteLocked(n.Value); err != nil {
		return err
	}
	c.order.PopNode(n)
	delete(c.index, key.String())
	n.Value.parent = nil
	c.notFull.Signal()
	return nil
}

// applyUpdate resolves target per the update protocol and writes its
// values onto the matching attached element:
//   - target is already attached to c: re-mirrors it as-is, for a caller
//     that wants to force a re-sync after mutating it some other way.
//   - target is a detached *Element with a matching key: its scalar value,
//     atoms, and links are copied onto the attached element.
//   - any other target: resolved via keyCol or KeyedObject, then every
//     atom on the attached element is overwritten from the matching field
//     on target.
func (c *Collection) applyUpdate(target any) error {
	if e, ok := target.(*Element); ok {
		if e.parent == c {
			c.mu.Lock()
			defer c.mu.Unlock()
			return c.mirrorUpdateLocked(e)
		}
		c.mu.Lock()
		key, err := c.keyFor(e)
		c.mu.Unlock()
		if err != nil {
			return err
		}
		existing, err := c.Get(key)
		if err != nil {
			return err
		}
		return c.copyOnto(existing, e)
	}

	c.mu.Lock()
	key, err := c.resolveKeyLocked(target)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	existing, err := c.Get(key)
	if err != nil {
		return err
	}
	return c.copyFromObject(existing, target)
}

// copyOnto overwrites existing's scalar value (or atoms and links) from
// src, routing each write through the collection's own mirrored setters.
func (c *Collection) copyOnto(existing, src *Element) error {
	if src.IsScalar() {
		v, err := src.ScalarValue()
		if err != nil {
			return err
		}
		return existing.SetScalarValue(v)
	}
	for _, a := range src.Atoms() {
		if err := existing.SetAtom(a.Name, a.Value.Value); err != nil {
			return err
		}
	}
	existing.links = nil
	existing.linkOrder = nil
	for _, attr := range src.Links() {
		name, _ := src.LinkedName(attr)
		if err := existing.Link(attr, name); err != nil {
			return err
		}
	}
	return nil
}

// copyFromObject pulls each of existing's atom values from the matching
// field on obj. A field missing or of an unsupported type is silently
// skipped, matching the construction-time policy for unsupported types.
func (c *Collection) copyFromObject(existing *Element, obj any) error {
	for _, a := range existing.Atoms() {
		v, ok := structFieldValue(obj, a.Name)
		if !ok {
			continue
		}
		if err := existing.SetAtom(a.Name, v); err != nil {
			return err
		}
	}
	return nil
}

// attach binds c to ds under publicName, ensures its mirror table exists,
// and backfills any elements already present (used when re-attaching a
// collection restored from a serialized snapshot).
func (c *Collection) attach(ds *Datastore, publicName string, engine *sqlengine.Engine) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.datastore = ds
	c.publicName = publicName
	c.engine = engine
	c.tableName = sanitizeTableName(publicName)

	if engine != nil {
		cols := c.schemaColumnsLocked()
		if err := engine.EnsureTable(c.tableName, cols); err != nil {
			return fmt.Errorf("superq: attach %s: %w", publicName, err)
		}
	}

	for it := c.order.Iter(); ; {
		n, ok := it.Next()
		if !ok {
			break
		}
		if err := c.mirrorInsertLocked(n.Value); err != nil {
			return fmt.Errorf("superq: attach %s: backfill %v: %w", publicName, n.Value.Name(), err)
		}
	}
	return nil
}

// detach severs c from its datastore. The mirror table is left in place;
// only in-memory linkage is dropped.
func (c *Collection) detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.datastore = nil
	c.engine = nil
	c.publicName = ""
}

func (c *Collection) schemaColumnsLocked() []sqlengine.ColumnDef {
	if c.order.IsEmpty() {
		return nil
	}
	first := c.order.Head().Value
	cols := []sqlengine.ColumnDef{{Name: "__name", SQLType: "TEXT"}}
	if first.IsScalar() {
		cols = append(cols, sqlengine.ColumnDef{Name: "__value", SQLType: first.value.Kind.sqlType()})
	} else {
		for _, a := range first.Atoms() {
			cols = append(cols, sqlengine.ColumnDef{Name: a.Name, SQLType: a.Kind().sqlType()})
		}
	}
	cols = append(cols, sqlengine.ColumnDef{Name: "__links", SQLType: "TEXT"})
	return cols
}

func (c *Collection) rowValuesLocked(e *Element) []any {
	vals := []any{e.Name().Any()}
	if e.IsScalar() {
		vals = append(vals, e.value.Any())
	} else {
		for _, a := range e.Atoms() {
			vals = append(vals, a.Value.Any())
		}
	}
	vals = append(vals, e.linksString())
	return vals
}

// mirrorInsertLocked writes e's row to the mirror table, wrapping any
// engine rejection in ErrDBExec so callers (and their callers) can
// distinguish a schema/constraint failure from other errors.
func (c *Collection) mirrorInsertLocked(e *Element) error {
	if c.engine == nil {
		return nil
	}
	cols := c.schemaColumnsLocked()
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name
	}
	if c.order.Len() == 1 {
		// First row: the table's schema comes from this element, so the
		// table is created here if attach found nothing to derive it from.
		if err := c.engine.EnsureTable(c.tableName, cols); err != nil {
			return fmt.Errorf("superq: create table %s: %w: %w", c.tableName, ErrDBExec, err)
		}
	}
	if err := c.engine.InsertRow(c.tableName, names, c.rowValuesLocked(e)); err != nil {
		return fmt.Errorf("superq: insert %s into %s: %w: %w", e.Name(), c.tableName, ErrDBExec, err)
	}
	return nil
}

func (c *Collection) mirrorUpdateLocked(e *Element) error {
	if c.engine == nil {
		return nil
	}
	cols := c.schemaColumnsLocked()
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name
	}
	if err := c.engine.UpdateRow(c.tableName, "__name", e.Name().Any(), names, c.rowValuesLocked(e)); err != nil {
		return fmt.Errorf("superq: update %s in %s: %w: %w", e.Name(), c.tableName, ErrDBExec, err)
	}
	return nil
}

func (c *Collection) mirrorDeleteLocked(e *Element) error {
	if c.engine == nil {
		return nil
	}
	if err := c.engine.DeleteRow(c.tableName, "__name", e.Name().Any()); err != nil {
		return fmt.Errorf("superq: delete %s from %s: %w: %w", e.Name(), c.tableName, ErrDBExec, err)
	}
	return nil
}

func sanitizeTableName(publicName string) string {
	out := make([]rune, 0, len(publicName))
	for _, r := range publicName {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return "t_" + string(out)
}
