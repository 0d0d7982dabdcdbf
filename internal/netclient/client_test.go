package netclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPingUnreachableFails(t *testing.T) {
	err := Ping("127.0.0.1:1", nil)
	assert.Error(t, err)
}

func TestNextMsgIDIncrements(t *testing.T) {
	c := New(nil)
	a := c.nextMsgID()
	b := c.nextMsgID()
	assert.NotEqual(t, a, b)
}
