package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed marks a textual payload that doesn't match the wire grammar.
var ErrMalformed = errors.New("wire: malformed payload")

// AtomData is the neutral, codec-level shape of one atom: a name paired
// with a typed textual value.
type AtomData struct {
	Name  string
	Kind  string // "str" | "int" | "float"
	Value string
}

func encodeAtom(a AtomData) string {
	return strings.Join([]string{a.Name, a.Kind, a.Value}, "|")
}

func decodeAtom(s string) (AtomData, error) {
	parts := strings.SplitN(s, "|", 3)
	if len(parts) != 3 {
		return AtomData{}, fmt.Errorf("%w: atom %q", ErrMalformed, s)
	}
	return AtomData{Name: parts[0], Kind: parts[1], Value: parts[2]}, nil
}

// ElementData is the neutral, codec-level shape of one element.
type ElementData struct {
	NameKind  string // "str" | "int" | "float"
	Name      string
	ValueKind string // "" for a structured (non-scalar) element
	Value     string
	Links     string // "attr^publicName/attr^publicName/..." or ""
	Atoms     []AtomData
}

// EncodeElement renders e as "nameKind,name,valueKind,value,links,atomCount;
// len|atom;len|atom;...". Each atom is length-prefixed so that a value
// containing ';', '|' or ',' never desynchronizes the reader.
func EncodeElement(e ElementData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s,%s,%s,%s,%s,%d", e.NameKind, e.Name, e.ValueKind, e.Value, e.Links, len(e.Atoms))
	for _, a := range e.Atoms {
		enc := encodeAtom(a)
		fmt.Fprintf(&b, ";%d|%s", len(enc), enc)
	}
	return b.String()
}

// DecodeElement parses the form written by EncodeElement.
func DecodeElement(s string) (ElementData, error) {
	head, rest, _ := strings.Cut(s, ";")
	cols := strings.SplitN(head, ",", 6)
	if len(cols) != 6 {
		return ElementData{}, fmt.Errorf("%w: element header %q", ErrMalformed, head)
	}

	count, err := strconv.Atoi(cols[5])
	if err != nil {
		return ElementData{}, fmt.Errorf("%w: element atom count %q: %v", ErrMalformed, cols[5], err)
	}

	e := ElementData{
		NameKind:  cols[0],
		Name:      cols[1],
		ValueKind: cols[2],
		Value:     cols[3],
		Links:     cols[4],
	}
	if count > 0 {
		e.Atoms = make([]AtomData, 0, count)
	}

	for i := 0; i < count; i++ {
		if rest == "" {
			return ElementData{}, fmt.Errorf("%w: expected %d atoms, ran out at %d", ErrMalformed, count, i)
		}
		lenStr, tail, ok := strings.Cut(rest, "|")
		if !ok {
			return ElementData{}, fmt.Errorf("%w: atom length prefix", ErrMalformed)
		}
		n, err := strconv.Atoi(lenStr)
		if err != nil {
			return ElementData{}, fmt.Errorf("%w: atom length %q: %v", ErrMalformed, lenStr, err)
		}
		if len(tail) < n {
			return ElementData{}, fmt.Errorf("%w: atom body shorter than declared length", ErrMalformed)
		}
		atomStr := tail[:n]
		rest = tail[n:]
		rest = strings.TrimPrefix(rest, ";")

		a, err := decodeAtom(atomStr)
		if err != nil {
			return ElementData{}, err
		}
		e.Atoms = append(e.Atoms, a)
	}

	return e, nil
}

// CollectionAttrs is the neutral shape of a collection's attach-time
// attributes.
type CollectionAttrs struct {
	Host     string // "" means local/detached
	KeyCol   string // "" means no keyed index
	MaxLen   string // decimal string, or "" for unbounded
	AutoKey  bool
	IsPublic bool
}

func encodeAttrs(a CollectionAttrs) string {
	return strings.Join([]string{a.Host, a.KeyCol, a.MaxLen, strconv.FormatBool(a.AutoKey), strconv.FormatBool(a.IsPublic)}, "|")
}

func decodeAttrs(s string) (CollectionAttrs, error) {
	parts := strings.SplitN(s, "|", 5)
	if len(parts) != 5 {
		return CollectionAttrs{}, fmt.Errorf("%w: collection attrs %q", ErrMalformed, s)
	}
	autoKey, err := strconv.ParseBool(parts[3])
	if err != nil {
		return CollectionAttrs{}, fmt.Errorf("%w: autoKey %q: %v", ErrMalformed, parts[3], err)
	}
	isPublic, err := strconv.ParseBool(parts[4])
	if err != nil {
		return CollectionAttrs{}, fmt.Errorf("%w: isPublic %q: %v", ErrMalformed, parts[4], err)
	}
	return CollectionAttrs{Host: parts[0], KeyCol: parts[1], MaxLen: parts[2], AutoKey: autoKey, IsPublic: isPublic}, nil
}

// CollectionData is the neutral, codec-level shape of an entire collection.
type CollectionData struct {
	Name     string
	Attrs    CollectionAttrs
	Elements []ElementData
}

// EncodeCollection renders c as "name,attrs,elemCount;len|elem;len|elem;...".
func EncodeCollection(c CollectionData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s,%s,%d", c.Name, encodeAttrs(c.Attrs), len(c.Elements))
	for _, e := range c.Elements {
		enc := EncodeElement(e)
		fmt.Fprintf(&b, ";%d|%s", len(enc), enc)
	}
	return b.String()
}

// DecodeCollection parses the form written by EncodeCollection.
func DecodeCollection(s string) (CollectionData, error) {
	head, rest, _ := strings.Cut(s, ";")
	cols := strings.SplitN(head, ",", 3)
	if len(cols) != 3 {
		return CollectionData{}, fmt.Errorf("%w: collection header %q", ErrMalformed, head)
	}

	attrs, err := decodeAttrs(cols[1])
	if err != nil {
		return CollectionData{}, err
	}

	count, err := strconv.Atoi(cols[2])
	if err != nil {
		return CollectionData{}, fmt.Errorf("%w: collection elem count %q: %v", ErrMalformed, cols[2], err)
	}

	c := CollectionData{Name: cols[0], Attrs: attrs, Elements: make([]ElementData, 0, count)}

	for i := 0; i < count; i++ {
		if rest == "" {
			return CollectionData{}, fmt.Errorf("%w: expected %d elements, ran out at %d", ErrMalformed, count, i)
		}
		lenStr, tail, ok := strings.Cut(rest, "|")
		if !ok {
			return CollectionData{}, fmt.Errorf("%w: element length prefix", ErrMalformed)
		}
		n, err := strconv.Atoi(lenStr)
		if err != nil {
			return CollectionData{}, fmt.Errorf("%w: element length %q: %v", ErrMalformed, lenStr, err)
		}
		if len(tail) < n {
			return CollectionData{}, fmt.Errorf("%w: element body shorter than declared length", ErrMalformed)
		}
		elemStr := tail[:n]
		rest = tail[n:]
		rest = strings.TrimPrefix(rest, ";")

		e, err := DecodeElement(elemStr)
		if err != nil {
			return CollectionData{}, err
		}
		c.Elements = append(c.Elements, e)
	}

	return c, nil
}

// EncodeQueryResult renders a query result set as
// "rowCount;col1,col2,...;len|v1\x1fv2\x1f...;...", one length-prefixed,
// unit-separator-joined chunk per row. Values are carried as their bare
// textual form; the embedded engine's column types already told the
// caller what to expect.
func EncodeQueryResult(cols []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d;%s", len(rows), strings.Join(cols, ","))
	for _, row := range rows {
		joined := strings.Join(row, "\x1f")
		fmt.Fprintf(&b, ";%d|%s", len(joined), joined)
	}
	return b.String()
}

// DecodeQueryResult parses the form written by EncodeQueryResult.
func DecodeQueryResult(s string) (cols []string, rows [][]string, err error) {
	countStr, rest, ok := strings.Cut(s, ";")
	if !ok {
		return nil, nil, fmt.Errorf("%w: query result %q missing row count", ErrMalformed, s)
	}
	colStr, remaining, _ := strings.Cut(rest, ";")

	count, err := strconv.Atoi(countStr)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: query row count %q: %v", ErrMalformed, countStr, err)
	}
	if colStr != "" {
		cols = strings.Split(colStr, ",")
	}

	for i := 0; i < count; i++ {
		if remaining == "" {
			return nil, nil, fmt.Errorf("%w: expected %d rows, ran out at %d", ErrMalformed, count, i)
		}
		lenStr, chunkTail, ok := strings.Cut(remaining, "|")
		if !ok {
			return nil, nil, fmt.Errorf("%w: query row length prefix", ErrMalformed)
		}
		n, err := strconv.Atoi(lenStr)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: query row length %q: %v", ErrMalformed, lenStr, err)
		}
		if len(chunkTail) < n {
			return nil, nil, fmt.Errorf("%w: query row body shorter than declared length", ErrMalformed)
		}
		rowStr := chunkTail[:n]
		remaining = strings.TrimPrefix(chunkTail[n:], ";")
		rows = append(rows, strings.Split(rowStr, "\x1f"))
	}
	return cols, rows, nil
}

// EncodeQueryRequest packs a query's three string inputs (columns, tables,
// conditional) into one wire body, unresolved — the receiving node does
// the "<self>" substitution on each — using the unit separator so any of
// the three may themselves contain commas, pipes, or semicolons.
func EncodeQueryRequest(columns, tables, conditional string) string {
	return strings.Join([]string{columns, tables, conditional}, "\x1f")
}

// DecodeQueryRequest reverses EncodeQueryRequest.
func DecodeQueryRequest(body string) (columns, tables, conditional string, err error) {
	parts := strings.Split(body, "\x1f")
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("%w: query request %q must have 3 parts", ErrMalformed, body)
	}
	return parts[0], parts[1], parts[2], nil
}

// Request is one node-protocol request: "msgID|cmd|args%body".
type Request struct {
	MsgID string
	Cmd   Command
	Args  string
	Body  string
}

// Encode renders r as "msgID|cmd|args%body", with cmd written as its
// decimal command code.
func (r Request) Encode() string {
	return fmt.Sprintf("%s|%d|%s%%%s", r.MsgID, int(r.Cmd), r.Args, r.Body)
}

// DecodeRequest parses the form written by Request.Encode.
func DecodeRequest(s string) (Request, error) {
	head, body, ok := strings.Cut(s, "%")
	if !ok {
		return Request{}, fmt.Errorf("%w: request %q missing '%%'", ErrMalformed, s)
	}
	parts := strings.SplitN(head, "|", 3)
	if len(parts) != 3 {
		return Request{}, fmt.Errorf("%w: request head %q", ErrMalformed, head)
	}
	cmd, err := ParseCommand(parts[1])
	if err != nil {
		return Request{}, err
	}
	return Request{MsgID: parts[0], Cmd: cmd, Args: parts[2], Body: body}, nil
}

// Response is one node-protocol response: "msgID|result%body".
type Response struct {
	MsgID  string
	Result bool
	Body   string
}

// Encode renders r as "msgID|result%body". result is the literal "True" or
// "False" (capitalized, per the wire grammar), not Go's lowercase
// strconv.FormatBool spelling; DecodeResponse accepts either case.
func (r Response) Encode() string {
	result := "False"
	if r.Result {
		result = "True"
	}
	return fmt.Sprintf("%s|%s%%%s", r.MsgID, result, r.Body)
}

// DecodeResponse parses the form written by Response.Encode.
func DecodeResponse(s string) (Response, error) {
	head, body, ok := strings.Cut(s, "%")
	if !ok {
		return Response{}, fmt.Errorf("%w: response %q missing '%%'", ErrMalformed, s)
	}
	parts := strings.SplitN(head, "|", 2)
	if len(parts) != 2 {
		return Response{}, fmt.Errorf("%w: response head %q", ErrMalformed, head)
	}
	result, err := strconv.ParseBool(parts[1])
	if err != nil {
		return Response{}, fmt.Errorf("%w: response result %q: %v", ErrMalformed, parts[1], err)
	}
	return Response{MsgID: parts[0], Result: result, Body: body}, nil
}
