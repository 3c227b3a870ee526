package cluster

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/protobase/pkg/atom"
	"github.com/cuemby/protobase/pkg/storage"
)

// mustListenAddr reserves an ephemeral loopback port and returns its
// address, closing the listener immediately so raft's own TCP
// transport can bind it right after.
func mustListenAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func waitForLeader(t *testing.T, p *Provider) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if p.IsLeader() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("cluster: no leader elected within deadline")
}

func newTestProvider(t *testing.T) (*Provider, storage.BlockProvider) {
	t.Helper()
	dir := t.TempDir()
	local, err := storage.NewFileBlockProvider(filepath.Join(dir, "space"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	cfg := Config{
		NodeID:             "node1",
		BindAddr:           mustListenAddr(t),
		DataDir:            filepath.Join(dir, "raft"),
		HeartbeatTimeout:   50 * time.Millisecond,
		ElectionTimeout:    50 * time.Millisecond,
		LeaderLeaseTimeout: 25 * time.Millisecond,
	}

	provider, err := Bootstrap(cfg, local)
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Close() })

	waitForLeader(t, provider)
	return provider, local
}

func TestBootstrapSingleNodeBecomesLeader(t *testing.T) {
	provider, _ := newTestProvider(t)
	assert.True(t, provider.IsLeader())
}

func TestUpdateRootReplicatesThroughRaft(t *testing.T) {
	provider, local := newTestProvider(t)

	ptr := atom.Pointer{TransactionID: uuid.New(), Offset: 42}
	require.NoError(t, provider.UpdateRoot(context.Background(), ptr))

	got, ok, err := provider.GetCurrentRoot(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ptr, got)

	// The actual write landed on the wrapped local provider too, since
	// rootStateMachine.Apply calls through to it once raft commits.
	localGot, ok, err := local.GetCurrentRoot(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ptr, localGot)
}

func TestUpdateRootRejectedOnNonLeader(t *testing.T) {
	dir := t.TempDir()
	local, err := storage.NewFileBlockProvider(filepath.Join(dir, "space"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	cfg := Config{NodeID: "node1", BindAddr: mustListenAddr(t), DataDir: filepath.Join(dir, "raft")}
	provider, err := Join(cfg, local) // never bootstrapped: no leader exists
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Close() })

	err = provider.UpdateRoot(context.Background(), atom.Pointer{Offset: 1})
	assert.Error(t, err)
}
