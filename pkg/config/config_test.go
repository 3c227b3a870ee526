package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseINIDefaultsWhenEmpty(t *testing.T) {
	cfg, err := ParseINI(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultSpaceConfig(), cfg)
}

func TestParseINIStorageAndClusterSections(t *testing.T) {
	input := `; sample space.config
[storage]
page_size = 4096
cache_bytes = 1048576

[cluster]
node_id = node-a
bind_addr = 127.0.0.1:7000
data_dir = /var/lib/protobase/raft
`
	cfg, err := ParseINI(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 4096, cfg.PageSize)
	assert.Equal(t, int64(1048576), cfg.CacheBytes)
	assert.Equal(t, "node-a", cfg.ClusterNodeID)
	assert.Equal(t, "127.0.0.1:7000", cfg.ClusterBindAddr)
	assert.Equal(t, "/var/lib/protobase/raft", cfg.ClusterDataDir)
}

func TestParseINIUnknownKeysIgnored(t *testing.T) {
	cfg, err := ParseINI(strings.NewReader("[storage]\nfuture_knob = 1\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSpaceConfig(), cfg)
}

func TestParseINIRejectsMalformedLine(t *testing.T) {
	_, err := ParseINI(strings.NewReader("[storage]\nnot-a-key-value-line\n"))
	assert.Error(t, err)
}

func TestParseINIRejectsBadNumber(t *testing.T) {
	_, err := ParseINI(strings.NewReader("[storage]\npage_size = not-a-number\n"))
	assert.Error(t, err)
}

func TestParseYAMLBuildsClusterConfig(t *testing.T) {
	input := `
node_id: node-a
bind_addr: 127.0.0.1:7000
data_dir: /tmp/raft
heartbeat_timeout: 150ms
election_timeout: 300ms
leader_lease_timeout: 100ms
`
	cfg, err := ParseYAML([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, "node-a", cfg.NodeID)
	assert.Equal(t, "127.0.0.1:7000", cfg.BindAddr)
	assert.Equal(t, "/tmp/raft", cfg.DataDir)
	assert.Equal(t, 150*time.Millisecond, cfg.HeartbeatTimeout)
	assert.Equal(t, 300*time.Millisecond, cfg.ElectionTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.LeaderLeaseTimeout)
}

func TestParseYAMLRequiresNodeIDAndBindAddr(t *testing.T) {
	_, err := ParseYAML([]byte("data_dir: /tmp/raft\n"))
	assert.Error(t, err)

	_, err = ParseYAML([]byte("node_id: node-a\n"))
	assert.Error(t, err)
}

func TestParseYAMLRejectsBadDuration(t *testing.T) {
	_, err := ParseYAML([]byte("node_id: node-a\nbind_addr: 127.0.0.1:7000\nheartbeat_timeout: not-a-duration\n"))
	assert.Error(t, err)
}
