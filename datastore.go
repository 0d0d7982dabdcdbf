package superq

import (
	"fmt"
	"sync"

	"github.com/manesajian/superq/internal/netclient"
	"github.com/manesajian/superq/internal/sqlengine"
	"github.com/manesajian/superq/internal/wire"
)

// Datastore is a node's registry of attached collections: the public
// surface other nodes (and this process's own callers) address collections
// through by name. A name that carries a "host/" or "ssl:host:port/"
// prefix is forwarded to the remote node named; a bare name resolves
// locally.
type Datastore struct {
	mu          sync.RWMutex
	self        string
	collections map[string]*Collection

	engine *sqlengine.Engine
	client *netclient.Client
}

// NewDatastore builds an empty, local-only datastore backed by engine.
func NewDatastore(engine *sqlengine.Engine) *Datastore {
	return &Datastore{
		self:        "local",
		collections: make(map[string]*Collection),
		engine:      engine,
	}
}

// SetRemoteClient installs the client used to forward operations on
// collections hosted on other nodes. A datastore with no client installed
// can only serve local collections.
func (ds *Datastore) SetRemoteClient(c *netclient.Client) { ds.client = c }

// Create makes a new collection, attaches it under name, and returns it.
func (ds *Datastore) Create(name, keyCol string, maxLen int, autoKey bool) (*Collection, error) {
	col := New(name, keyCol, maxLen, autoKey)
	if err := ds.Attach(col); err != nil {
		return nil, err
	}
	return col, nil
}

// Attach registers a detached collection under its own name.
func (ds *Datastore) Attach(c *Collection) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if _, exists := ds.collections[c.name]; exists {
		return fmt.Errorf("superq: collection %q: %w", c.name, ErrAlreadyExists)
	}
	if err := c.attach(ds, c.name, ds.engine); err != nil {
		return err
	}
	ds.collections[c.name] = c
	return nil
}

// Names returns the local names of every attached collection.
func (ds *Datastore) Names() []string {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	out := make([]string, 0, len(ds.collections))
	for name := range ds.collections {
		out = append(out, name)
	}
	return out
}

// Exists reports whether publicName resolves to a collection, local or
// remote.
func (ds *Datastore) Exists(publicName string) bool {
	if addr, bare, remote := ds.splitRemote(publicName); remote {
		resp, err := ds.client.Dispatch(addr.Addr, addr.TLS, wire.CmdSuperqExists, bare, "")
		return err == nil && resp.Result && resp.Body == "true"
	}
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	_, ok := ds.collections[publicName]
	return ok
}

// Read resolves publicName to its collection. Reading a remote collection
// returns a detached hydrated snapshot, not a live-synced handle: further
// mutations must go through Datastore methods so each one is forwarded.
func (ds *Datastore) Read(publicName string) (*Collection, error) {
	if addr, bare, remote := ds.splitRemote(publicName); remote {
		resp, err := ds.client.Dispatch(addr.Addr, addr.TLS, wire.CmdSuperqRead, bare, "")
		if err != nil {
			return nil, err
		}
		if !resp.Result {
			return nil, fmt.Errorf("superq: remote read %s: %w", publicName, ErrNotFound)
		}
		return UnmarshalCollection(resp.Body)
	}

	ds.mu.RLock()
	defer ds.mu.RUnlock()
	col, ok := ds.collections[publicName]
	if !ok {
		return nil, fmt.Errorf("superq: %s: %w", publicName, ErrNotFound)
	}
	return col, nil
}

// Delete detaches and removes publicName's collection, dropping its mirror
// table.
func (ds *Datastore) Delete(publicName string) error {
	if addr, bare, remote := ds.splitRemote(publicName); remote {
		resp, err := ds.client.Dispatch(addr.Addr, addr.TLS, wire.CmdSuperqDelete, bare, "")
		if err != nil {
			return err
		}
		if !resp.Result {
			return fmt.Errorf("superq: remote delete %s: %w", publicName, ErrNotFound)
		}
		return nil
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()
	col, ok := ds.collections[publicName]
	if !ok {
		return fmt.Errorf("superq: %s: %w", publicName, ErrNotFound)
	}
	delete(ds.collections, publicName)
	col.detach()
	if ds.engine != nil {
		_ = ds.engine.DropTable(col.tableName)
	}
	return nil
}

// Query runs a query (see Collection.Query) against publicName's mirror
// table, local or remote. For a remote collection, the three query strings
// are forwarded unresolved (the remote node substitutes "<self>" against
// its own table name) and objSample is applied locally afterward, since a
// Go type can't cross the wire.
func (ds *Datastore) Query(publicName, columns, tables, conditional string, objSample any) (*Collection, error) {
	if addr, bare, remote := ds.splitRemote(publicName); remote {
		body := wire.EncodeQueryRequest(columns, tables, conditional)
		resp, err := ds.client.Dispatch(addr.Addr, addr.TLS, wire.CmdSuperqQuery, bare, body)
		if err != nil {
			return nil, err
		}
		if !resp.Result {
			return nil, fmt.Errorf("superq: remote query %s: %w", publicName, ErrDBExec)
		}
		result, err := UnmarshalCollection(resp.Body)
		if err != nil {
			return nil, err
		}
		if objSample == nil {
			return result, nil
		}
		return reshapeCollection(result, objSample)
	}

	col, err := ds.Read(publicName)
	if err != nil {
		return nil, err
	}
	return col.Query(columns, tables, conditional, objSample)
}

// reshapeCollection demarshals every element of src into objSample's type,
// building a new detached collection of the results. Used to apply a local
// objSample to a query result that was fetched from a remote node as bare
// elements.
func reshapeCollection(src *Collection, objSample any) (*Collection, error) {
	out := New(src.name, "", 0, false)
	for _, e := range src.All() {
		row := make(map[string]any)
		if e.IsScalar() {
			v, err := e.ScalarValue()
			if err != nil {
				return nil, err
			}
			row["__value"] = v.Any()
		} else {
			for _, a := range e.Atoms() {
				row[a.Name] = a.Value.Any()
			}
		}
		reshaped, err := reconstructElement(e.Name(), row, objSample)
		if err != nil {
			return nil, err
		}
		if err := out.PushTail(reshaped); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ElemCreate pushes e onto publicName's collection, local or remote.
func (ds *Datastore) ElemCreate(publicName string, e *Element) error {
	if addr, bare, remote := ds.splitRemote(publicName); remote {
		resp, err := ds.client.Dispatch(addr.Addr, addr.TLS, wire.CmdSuperqElemCreate, bare, e.Marshal())
		if err != nil {
			return err
		}
		if !resp.Result {
			return fmt.Errorf("superq: remote elem create on %s: %w", publicName, ErrAlreadyExists)
		}
		return nil
	}

	col, err := ds.Read(publicName)
	if err != nil {
		return err
	}
	return col.PushTail(e)
}

// ElemRead reads one element by key from publicName's collection.
func (ds *Datastore) ElemRead(publicName string, key Value) (*Element, error) {
	if addr, bare, remote := ds.splitRemote(publicName); remote {
		resp, err := ds.client.Dispatch(addr.Addr, addr.TLS, wire.CmdSuperqElemRead, bare, key.String())
		if err != nil {
			return nil, err
		}
		if !resp.Result {
			return nil, fmt.Errorf("superq: remote elem read on %s: %w", publicName, ErrNotFound)
		}
		return UnmarshalElement(resp.Body)
	}

	col, err := ds.Read(publicName)
	if err != nil {
		return nil, err
	}
	return col.Get(key)
}

// ElemExists reports whether key names an element of publicName's
// collection.
func (ds *Datastore) ElemExists(publicName string, key Value) bool {
	if addr, bare, remote := ds.splitRemote(publicName); remote {
		resp, err := ds.client.Dispatch(addr.Addr, addr.TLS, wire.CmdSuperqElemExists, bare, key.String())
		return err == nil && resp.Result && resp.Body == "true"
	}
	col, err := ds.Read(publicName)
	if err != nil {
		return false
	}
	_, err = col.Get(key)
	return err == nil
}

// ElemUpdate writes target's values onto the matching element of
// publicName's collection, resolved per Collection.applyUpdate's protocol
// (an attached or detached *Element matched by key, or any other object
// keyed by the collection's keyCol field or the KeyedObject interface). A
// remote *Element is shipped as is; any other remote target is resolved
// against a freshly read snapshot of the remote collection (see
// resolveRemoteElement), and the resulting element is marshalled and
// shipped as a full-element overwrite.
func (ds *Datastore) ElemUpdate(publicName string, target any) error {
	if addr, bare, remote := ds.splitRemote(publicName); remote {
		e, err := ds.resolveRemoteElement(addr, bare, target)
		if err != nil {
			return err
		}
		resp, err := ds.client.Dispatch(addr.Addr, addr.TLS, wire.CmdSuperqElemUpdate, bare, e.Marshal())
		if err != nil {
			return err
		}
		if !resp.Result {
			return fmt.Errorf("superq: remote elem update on %s: %w", publicName, ErrNotFound)
		}
		return nil
	}

	col, err := ds.Read(publicName)
	if err != nil {
		return err
	}
	return col.applyUpdate(target)
}

// ElemDelete removes the element identified by target from publicName's
// collection, resolved per Collection.Delete's protocol. A remote target
// is resolved to its scalar key locally before being sent over the wire.
func (ds *Datastore) ElemDelete(publicName string, target any) error {
	if addr, bare, remote := ds.splitRemote(publicName); remote {
		key, err := ds.resolveRemoteKey(addr, bare, target)
		if err != nil {
			return err
		}
		resp, err := ds.client.Dispatch(addr.Addr, addr.TLS, wire.CmdSuperqElemDelete, bare, key.String())
		if err != nil {
			return err
		}
		if !resp.Result {
			return fmt.Errorf("superq: remote elem delete on %s: %w", publicName, ErrNotFound)
		}
		return nil
	}

	col, err := ds.Read(publicName)
	if err != nil {
		return err
	}
	return col.Delete(target)
}

// resolveRemoteKey resolves target to a scalar key without needing to hold
// the remote collection's live index: it reads a hydrated local snapshot
// of the remote collection (same keyCol, same elements as of the last
// read) and delegates to that snapshot's own key resolution.
func (ds *Datastore) resolveRemoteKey(addr HostTag, bare string, target any) (Value, error) {
	snapshot, err := ds.client.Dispatch(addr.Addr, addr.TLS, wire.CmdSuperqRead, bare, "")
	if err != nil {
		return Value{}, err
	}
	if !snapshot.Result {
		return Value{}, fmt.Errorf("superq: remote snapshot %s: %w", bare, ErrNotFound)
	}
	col, err := UnmarshalCollection(snapshot.Body)
	if err != nil {
		return Value{}, err
	}
	col.mu.Lock()
	defer col.mu.Unlock()
	return col.resolveKeyLocked(target)
}

// resolveRemoteElement resolves target to a fully-populated *Element ready
// to ship as an update, using the same local-snapshot strategy as
// resolveRemoteKey.
func (ds *Datastore) resolveRemoteElement(addr HostTag, bare string, target any) (*Element, error) {
	if e, ok := target.(*Element); ok {
		return e, nil
	}

	snapshot, err := ds.client.Dispatch(addr.Addr, addr.TLS, wire.CmdSuperqRead, bare, "")
	if err != nil {
		return nil, err
	}
	if !snapshot.Result {
		return nil, fmt.Errorf("superq: remote snapshot %s: %w", bare, ErrNotFound)
	}
	col, err := UnmarshalCollection(snapshot.Body)
	if err != nil {
		return nil, err
	}

	col.mu.Lock()
	key, err := col.resolveKeyLocked(target)
	col.mu.Unlock()
	if err != nil {
		return nil, err
	}
	existing, err := col.Get(key)
	if err != nil {
		return nil, err
	}
	if err := col.copyFromObject(existing, target); err != nil {
		return nil, err
	}
	return existing, nil
}

func (ds *Datastore) splitRemote(publicName string) (HostTag, string, bool) {
	addr, bare, ok := SplitPublicName(publicName)
	if !ok {
		return HostTag{}, publicName, false
	}
	tag, err := ParseHostTag(addr)
	if err != nil || tag.Local {
		return HostTag{}, bare, false
	}
	if ds.client == nil {
		return HostTag{}, bare, false
	}
	return tag, bare, true
}
