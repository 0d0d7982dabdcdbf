package superq

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manesajian/superq/internal/llist"
	"github.com/manesajian/superq/internal/wire"
)

func (e *Element) toWireData() wire.ElementData {
	d := wire.ElementData{
		NameKind: e.name.Kind.String(),
		Name:     e.name.String(),
		Links:    e.linksString(),
	}
	if e.scalar {
		d.ValueKind = e.value.Kind.String()
		d.Value = e.value.String()
	}
	for _, a := range e.Atoms() {
		d.Atoms = append(d.Atoms, wire.AtomData{
			Name:  a.Name,
			Kind:  a.Value.Kind.String(),
			Value: a.Value.String(),
		})
	}
	return d
}

func elementFromWireData(d wire.ElementData) (*Element, error) {
	nameKind, err := kindFromString(d.NameKind)
	if err != nil {
		return nil, err
	}
	name, err := valueFromString(nameKind, d.Name)
	if err != nil {
		return nil, err
	}

	if d.ValueKind != "" {
		valueKind, err := kindFromString(d.ValueKind)
		if err != nil {
			return nil, err
		}
		value, err := valueFromString(valueKind, d.Value)
		if err != nil {
			return nil, err
		}
		e := NewScalarElement(name, value)
		links, order := parseLinksString(d.Links)
		e.links, e.linkOrder = links, order
		return e, nil
	}

	e := &Element{name: name}
	e.atoms = llist.New[*Atom]()
	e.atomIndex = make(map[string]*llist.Node[*Atom])
	for _, a := range d.Atoms {
		kind, err := kindFromString(a.Kind)
		if err != nil {
			return nil, err
		}
		v, err := valueFromString(kind, a.Value)
		if err != nil {
			return nil, err
		}
		if err := e.addAtomLocked(a.Name, v); err != nil {
			return nil, err
		}
	}
	links, order := parseLinksString(d.Links)
	e.links, e.linkOrder = links, order
	return e, nil
}

func (c *Collection) toWireData() wire.CollectionData {
	c.mu.Lock()
	defer c.mu.Unlock()

	maxLen := ""
	if c.maxLen > 0 {
		maxLen = strconv.Itoa(c.maxLen)
	}

	d := wire.CollectionData{
		Name: c.name,
		Attrs: wire.CollectionAttrs{
			Host:     c.host,
			KeyCol:   c.keyCol,
			MaxLen:   maxLen,
			AutoKey:  c.autoKey,
			IsPublic: c.publicName != "",
		},
	}
	for it := c.order.Iter(); ; {
		n, ok := it.Next()
		if !ok {
			break
		}
		d.Elements = append(d.Elements, n.Value.toWireData())
	}
	return d
}

func collectionFromWireData(d wire.CollectionData) (*Collection, error) {
	maxLen := 0
	if d.Attrs.MaxLen != "" {
		n, err := strconv.Atoi(d.Attrs.MaxLen)
		if err != nil {
			return nil, err
		}
		maxLen = n
	}

	c := New(d.Name, d.Attrs.KeyCol, maxLen, d.Attrs.AutoKey)
	c.host = d.Attrs.Host

	for _, ed := range d.Elements {
		e, err := elementFromWireData(ed)
		if err != nil {
			return nil, err
		}
		if err := c.pushLocked(c.order.Len(), e); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Marshal renders the collection to its wire textual form, suitable for
// sending across the network or saving to a file.
func (c *Collection) Marshal() string {
	return wire.EncodeCollection(c.toWireData())
}

// UnmarshalCollection parses a collection previously produced by Marshal.
// The result is detached; attach it to a Datastore to resume mirroring.
func UnmarshalCollection(s string) (*Collection, error) {
	d, err := wire.DecodeCollection(s)
	if err != nil {
		return nil, err
	}
	return collectionFromWireData(d)
}

// Marshal renders the element to its wire textual form.
func (e *Element) Marshal() string {
	return wire.EncodeElement(e.toWireData())
}

// UnmarshalElement parses an element previously produced by Marshal.
func UnmarshalElement(s string) (*Element, error) {
	d, err := wire.DecodeElement(s)
	if err != nil {
		return nil, err
	}
	return elementFromWireData(d)
}

// encodeAttrsLine renders a collection's construction attributes as
// superq.py's save() does: comma-separated name|value pairs.
func encodeAttrsLine(d wire.CollectionData) string {
	return fmt.Sprintf("host|%s,keyCol|%s,maxlen|%s,autoKey|%t",
		d.Attrs.Host, d.Attrs.KeyCol, d.Attrs.MaxLen, d.Attrs.AutoKey)
}

// parseAttrsLine reverses encodeAttrsLine.
func parseAttrsLine(line string) (wire.CollectionAttrs, error) {
	var attrs wire.CollectionAttrs
	for _, field := range strings.Split(line, ",") {
		name, value, ok := strings.Cut(field, "|")
		if !ok {
			return attrs, fmt.Errorf("superq: malformed attrs field %q: %w", field, wire.ErrMalformed)
		}
		switch name {
		case "host":
			attrs.Host = value
		case "keyCol":
			attrs.KeyCol = value
		case "maxlen":
			attrs.MaxLen = value
		case "autoKey":
			attrs.AutoKey = value == "true"
		}
	}
	return attrs, nil
}

// SaveToFile writes the collection to path in the line-oriented form
// superq.py's save() uses: the collection name, a comma-separated
// name|value line of construction attrs, then one Marshal-rendered
// element per remaining line. Unlike Marshal, this format is meant to be
// hand-editable and diffable rather than a single packed blob.
func (c *Collection) SaveToFile(path string) error {
	d := c.toWireData()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("superq: save %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "%s\n", d.Name)
	fmt.Fprintf(w, "%s\n", encodeAttrsLine(d))
	for _, ed := range d.Elements {
		fmt.Fprintf(w, "%s\n", wire.EncodeElement(ed))
	}
	return w.Flush()
}

// LoadFromFile reads a collection previously written by SaveToFile. The
// result is detached; attach it to a Datastore to resume mirroring.
func LoadFromFile(path string) (*Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("superq: load %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return nil, fmt.Errorf("superq: load %s: missing name line: %w", path, wire.ErrMalformed)
	}
	name := scanner.Text()

	if !scanner.Scan() {
		return nil, fmt.Errorf("superq: load %s: missing attrs line: %w", path, wire.ErrMalformed)
	}
	attrs, err := parseAttrsLine(scanner.Text())
	if err != nil {
		return nil, err
	}

	maxLen := 0
	if attrs.MaxLen != "" {
		maxLen, err = strconv.Atoi(attrs.MaxLen)
		if err != nil {
			return nil, fmt.Errorf("superq: load %s: %w", path, err)
		}
	}

	c := New(name, attrs.KeyCol, maxLen, attrs.AutoKey)
	c.host = attrs.Host

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		ed, err := wire.DecodeElement(line)
		if err != nil {
			return nil, fmt.Errorf("superq: load %s: %w", path, err)
		}
		e, err := elementFromWireData(ed)
		if err != nil {
			return nil, err
		}
		if err := c.PushTail(e); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("superq: load %s: %w", path, err)
	}
	return c, nil
}
