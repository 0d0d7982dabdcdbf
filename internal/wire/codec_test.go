package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementRoundTrip(t *testing.T) {
	e := ElementData{
		NameKind: "str",
		Name:     "widget-1",
		Links:    "owner^users/owner",
		Atoms: []AtomData{
			{Name: "price", Kind: "float", Value: "9.99"},
			{Name: "label", Kind: "str", Value: "semicolons; and | pipes, survive"},
		},
	}
	enc := EncodeElement(e)
	got, err := DecodeElement(enc)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestCollectionRoundTrip(t *testing.T) {
	c := CollectionData{
		Name: "widgets",
		Attrs: CollectionAttrs{
			Host:     "",
			KeyCol:   "",
			MaxLen:   "10",
			AutoKey:  false,
			IsPublic: true,
		},
		Elements: []ElementData{
			{NameKind: "str", Name: "a", ValueKind: "int", Value: "1"},
			{NameKind: "str", Name: "b", ValueKind: "int", Value: "2"},
		},
	}
	enc := EncodeCollection(c)
	got, err := DecodeCollection(enc)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestRequestResponseRoundTrip(t *testing.T) {
	req := Request{MsgID: "7", Cmd: CmdSuperqElemCreate, Args: "widgets", Body: "payload%with%percents"}
	enc := req.Encode()
	got, err := DecodeRequest(enc)
	require.NoError(t, err)
	assert.Equal(t, req, got)

	resp := Response{MsgID: "7", Result: true, Body: "ok"}
	gotResp, err := DecodeResponse(resp.Encode())
	require.NoError(t, err)
	assert.Equal(t, resp, gotResp)
}

func TestQueryResultRoundTrip(t *testing.T) {
	cols := []string{"id", "name"}
	rows := [][]string{{"1", "alice"}, {"2", "bob"}}
	enc := EncodeQueryResult(cols, rows)
	gotCols, gotRows, err := DecodeQueryResult(enc)
	require.NoError(t, err)
	assert.Equal(t, cols, gotCols)
	assert.Equal(t, rows, gotRows)
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, "hello world"))

	body, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, "hello world", body)
}

func TestReadFrameBadMarker(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x00, 0, 0, 0, 0})
	_, err := ReadFrame(buf)
	assert.ErrorIs(t, err, ErrBadMarker)
}

func TestParseCommandRoundTrip(t *testing.T) {
	for c := CmdSuperqExists; c <= CmdSuperqElemDelete; c++ {
		got, err := ParseCommand(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
}
