package superq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHostTagForms(t *testing.T) {
	tag, err := ParseHostTag("local")
	require.NoError(t, err)
	assert.True(t, tag.Local)
	assert.Equal(t, "widgets", tag.PublicName("widgets"))

	tag, err = ParseHostTag("10.0.0.1:9700")
	require.NoError(t, err)
	assert.False(t, tag.Local)
	assert.False(t, tag.TLS)
	assert.Equal(t, "10.0.0.1:9700/widgets", tag.PublicName("widgets"))

	tag, err = ParseHostTag("ssl:10.0.0.1:9701")
	require.NoError(t, err)
	assert.True(t, tag.TLS)
	assert.Equal(t, "10.0.0.1:9701", tag.Addr)
}

func TestSplitPublicName(t *testing.T) {
	addr, name, ok := SplitPublicName("10.0.0.1:9700/widgets")
	require.True(t, ok)
	assert.Equal(t, "10.0.0.1:9700", addr)
	assert.Equal(t, "widgets", name)

	_, name, ok = SplitPublicName("widgets")
	assert.False(t, ok)
	assert.Equal(t, "widgets", name)
}
