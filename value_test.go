package superq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueStringForms(t *testing.T) {
	assert.Equal(t, "hello", StrValue("hello").String())
	assert.Equal(t, "42", IntValue(42).String())
	assert.Equal(t, "3.5", FloatValue(3.5).String())
	assert.Equal(t, "", Value{}.String())
}

func TestValueFromStringRoundTrip(t *testing.T) {
	v, err := valueFromString(KindInt, "123")
	require.NoError(t, err)
	assert.Equal(t, IntValue(123), v)

	_, err = valueFromString(KindInt, "not-a-number")
	assert.Error(t, err)
}

func TestKindFromStringRejectsUnknown(t *testing.T) {
	_, err := kindFromString("bytes")
	var typeErr *TypeError
	assert.ErrorAs(t, err, &typeErr)
}
