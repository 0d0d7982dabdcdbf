package node

import (
	"testing"
	"time"

	"github.com/manesajian/superq"
	"github.com/manesajian/superq/internal/netclient"
	"github.com/manesajian/superq/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestServerServesOverTCP(t *testing.T) {
	const addr = "127.0.0.1:19237"

	ds := superq.NewDatastore(nil)
	h := NewHandler(ds, zap.NewNop())
	srv := NewServer(Config{ListenAddr: addr, ShutdownGrace: time.Second}, h, zap.NewNop())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	defer func() {
		require.NoError(t, srv.Shutdown())
		require.NoError(t, <-errCh)
	}()

	client := netclient.New(nil)
	require.Eventually(t, func() bool {
		return netclient.Ping(addr, nil) == nil
	}, time.Second, 5*time.Millisecond)

	resp, err := client.Dispatch(addr, false, wire.CmdSuperqCreate, "widgets", "|0|false")
	require.NoError(t, err)
	assert.True(t, resp.Result)

	resp, err = client.Dispatch(addr, false, wire.CmdSuperqExists, "widgets", "")
	require.NoError(t, err)
	assert.True(t, resp.Result)
	assert.Equal(t, "true", resp.Body)
}
