package superq

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/manesajian/superq/internal/llist"
)

// Element is one entry of a Collection: either a scalar (a bare name/value
// pair) or structured (a name plus an ordered set of atoms introspected
// from a Go struct). A structured element also carries zero or more links —
// named references to elements living in other collections, resolved by
// public collection name at read time rather than held as live pointers.
type Element struct {
	name  Value
	value Value // meaningful only when scalar is true

	scalar bool

	atoms     *llist.List[*Atom]
	atomIndex map[string]*llist.Node[*Atom]

	links     map[string]string
	linkOrder []string

	// parent is a weak back-reference: it lets an attached element route
	// mutations through its collection's lock and mirror table, but an
	// element never keeps its collection alive on its own — detaching
	// simply nils this out.
	parent *Collection

	objType reflect.Type // remembered for Demarshal; nil for a scalar element
}

// NewScalarElement builds a detached scalar element.
func NewScalarElement(name, value Value) *Element {
	return &Element{name: name, value: value, scalar: true}
}

// NewElement builds a detached structured element by introspecting obj,
// which must be a struct or a pointer to one. Each exported field becomes
// an atom, in field declaration order, if its type reduces to str, int, or
// float (any sized int/uint/float works, widened to int64/float64); fields
// of any other type are skipped.
func NewElement(name Value, obj any) (*Element, error) {
	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, &TypeError{Msg: "nil pointer passed to NewElement"}
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, &TypeError{Msg: fmt.Sprintf("NewElement requires a struct, got %s", rv.Kind())}
	}

	e := &Element{
		name:      name,
		atoms:     llist.New[*Atom](),
		atomIndex: make(map[string]*llist.Node[*Atom]),
		links:     make(map[string]string),
		objType:   rv.Type(),
	}

	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		v, err := valueFromReflect(rv.Field(i))
		if err != nil {
			// Unsupported field types are silently skipped, not rejected:
			// the rest of the struct still becomes a usable element.
			continue
		}
		if err := e.addAtomLocked(f.Name, v); err != nil {
			return nil, err
		}
	}

	return e, nil
}

func valueFromReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.String:
		return StrValue(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return IntValue(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return IntValue(int64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return FloatValue(rv.Float()), nil
	default:
		return Value{}, &TypeError{Msg: fmt.Sprintf("unsupported field kind %s", rv.Kind())}
	}
}

// IsScalar reports whether e is a scalar (name/value) element rather than a
// structured (name/atoms) one.
func (e *Element) IsScalar() bool { return e.scalar }

// Name returns the element's name.
func (e *Element) Name() Value { return e.name }

// ScalarValue returns the element's value. Returns a TypeError if e is
// structured.
func (e *Element) ScalarValue() (Value, error) {
	if !e.scalar {
		return Value{}, &TypeError{Msg: "element is structured, has no scalar value"}
	}
	return e.value, nil
}

// SetScalarValue overwrites a scalar element's value, mirroring the change
// to the embedded engine if the element is attached. Returns a TypeError if
// e is structured.
func (e *Element) SetScalarValue(v Value) error {
	if !e.scalar {
		return &TypeError{Msg: "element is structured, has no scalar value"}
	}
	if e.parent != nil {
		return e.parent.updateScalar(e, v)
	}
	e.value = v
	return nil
}

// Atoms returns the element's atoms in order. The slice is a snapshot; it
// does not alias internal storage.
func (e *Element) Atoms() []*Atom {
	if e.atoms == nil {
		return nil
	}
	out := make([]*Atom, 0, e.atoms.Len())
	for it := e.atoms.Iter(); ; {
		n, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, n.Value)
	}
	return out
}

// Atom returns the atom with the given name.
func (e *Element) Atom(name string) (*Atom, bool) {
	n, ok := e.atomIndex[name]
	if !ok {
		return nil, false
	}
	return n.Value, true
}

// AtomAt returns the atom at position idx in declaration order.
func (e *Element) AtomAt(idx int) (*Atom, error) {
	n, err := e.atoms.At(idx)
	if err != nil {
		return nil, err
	}
	return n.Value, nil
}

func (e *Element) addAtomLocked(name string, v Value) error {
	if _, exists := e.atomIndex[name]; exists {
		return &KeyError{Key: name}
	}
	node := llist.NewNode(NewAtom(name, v))
	e.atoms.PushTail(node)
	e.atomIndex[name] = node
	return nil
}

// SetAtom overwrites the named atom's value, mirroring the change to the
// embedded engine if the element is attached.
func (e *Element) SetAtom(name string, v Value) error {
	n, ok := e.atomIndex[name]
	if !ok {
		return &KeyError{Key: name}
	}
	if e.parent != nil {
		return e.parent.updateAtom(e, name, v)
	}
	n.Value.Value = v
	return nil
}

// Links returns the element's link attribute names, in the order they were
// established.
func (e *Element) Links() []string {
	out := make([]string, len(e.linkOrder))
	copy(out, e.linkOrder)
	return out
}

// LinkedName returns the public collection name attr is linked to.
func (e *Element) LinkedName(attr string) (string, bool) {
	if e.links == nil {
		return "", false
	}
	name, ok := e.links[attr]
	return name, ok
}

// Link records that attr refers to the collection publicName. Links are
// resolved by name at read time through a Datastore, never held as a live
// pointer, so a linked collection can be attached, detached, or replaced
// without invalidating the reference.
func (e *Element) Link(attr, publicName string) error {
	if e.links == nil {
		e.links = make(map[string]string)
	}
	if _, exists := e.links[attr]; !exists {
		e.linkOrder = append(e.linkOrder, attr)
	}
	e.links[attr] = publicName
	if e.parent != nil {
		return e.parent.updateLinks(e)
	}
	return nil
}

// Unlink removes attr's link, if any.
func (e *Element) Unlink(attr string) {
	if e.links == nil {
		return
	}
	if _, exists := e.links[attr]; !exists {
		return
	}
	delete(e.links, attr)
	for i, a := range e.linkOrder {
		if a == attr {
			e.linkOrder = append(e.linkOrder[:i], e.linkOrder[i+1:]...)
			break
		}
	}
}

// ResolveLink looks up attr's linked element through ds: it resolves the
// public collection name, reads that collection (a detached snapshot, if
// remote), then looks the element up by keyed name.
func (e *Element) ResolveLink(ds *Datastore, attr string, key Value) (*Element, error) {
	publicName, ok := e.LinkedName(attr)
	if !ok {
		return nil, fmt.Errorf("superq: no link %q: %w", attr, ErrNotFound)
	}
	col, err := ds.Read(publicName)
	if err != nil {
		return nil, err
	}
	return col.Get(key)
}

// linksString renders the element's links the way the wire format expects:
// "attr^publicName/attr^publicName/...", sorted by attribute for a
// deterministic encoding.
func (e *Element) linksString() string {
	if len(e.links) == 0 {
		return ""
	}
	attrs := make([]string, len(e.linkOrder))
	copy(attrs, e.linkOrder)
	sort.Strings(attrs)

	parts := make([]string, 0, len(attrs))
	for _, a := range attrs {
		parts = append(parts, a+"^"+e.links[a])
	}
	return strings.Join(parts, "/")
}

func parseLinksString(s string) (map[string]string, []string) {
	links := make(map[string]string)
	var order []string
	if s == "" {
		return links, order
	}
	for _, pair := range strings.Split(s, "/") {
		attr, name, ok := strings.Cut(pair, "^")
		if !ok {
			continue
		}
		links[attr] = name
		order = append(order, attr)
	}
	return links, order
}

// Demarshal reconstructs a fresh instance of the struct type e was built
// from (via NewElement), with each field set from the matching atom. If
// the type implements KeyedObject, the returned value is a pointer with
// SetSuperqElemKey already called with e's name, so it can be routed
// straight back into Delete or Datastore.ElemUpdate later; otherwise it is
// returned by value. Returns ErrNotImplemented if e was never built from a
// struct sample.
func (e *Element) Demarshal() (any, error) {
	if e.objType == nil {
		return nil, fmt.Errorf("superq: element has no remembered struct type: %w", ErrNotImplemented)
	}

	ptr := reflect.New(e.objType)
	out := ptr.Elem()
	for i := 0; i < e.objType.NumField(); i++ {
		f := e.objType.Field(i)
		if !f.IsExported() {
			continue
		}
		a, ok := e.Atom(f.Name)
		if !ok {
			continue
		}
		fv := out.Field(i)
		switch fv.Kind() {
		case reflect.String:
			fv.SetString(a.Value.Str)
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			fv.SetInt(a.Value.Int)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			fv.SetUint(uint64(a.Value.Int))
		case reflect.Float32, reflect.Float64:
			fv.SetFloat(a.Value.Float)
		}
	}

	if ko, ok := ptr.Interface().(KeyedObject); ok {
		ko.SetSuperqElemKey(e.name.String())
		return ptr.Interface(), nil
	}
	return out.Interface(), nil
}

// clone returns a detached deep copy of e, used when an element is pushed
// into a collection by value rather than by reference.
func (e *Element) clone() *Element {
	out := &Element{
		name:    e.name,
		value:   e.value,
		scalar:  e.scalar,
		objType: e.objType,
	}
	if e.atoms != nil {
		out.atoms = llist.New[*Atom]()
		out.atomIndex = make(map[string]*llist.Node[*Atom])
		for it := e.atoms.Iter(); ; {
			n, ok := it.Next()
			if !ok {
				break
			}
			_ = out.addAtomLocked(n.Value.Name, n.Value.Value)
		}
	}
	if len(e.links) > 0 {
		out.links = make(map[string]string, len(e.links))
		for k, v := range e.links {
			out.links[k] = v
		}
		out.linkOrder = append([]string(nil), e.linkOrder...)
	}
	return out
}
