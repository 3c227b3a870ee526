package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/protobase/pkg/cluster"
	"github.com/cuemby/protobase/pkg/pberr"
)

// ClusterFile is the YAML shape for a pkg/cluster node's own settings —
// an ergonomic alternative to space.config's "[cluster]" INI section for
// deployments that already template their config as YAML, matching the
// teacher's own preference for gopkg.in/yaml.v3 over INI
// (cmd/warren/apply.go). Durations are plain strings ("150ms", "1s") so
// the file stays human-editable; ParseDuration reports bad values with
// the offending field name.
type ClusterFile struct {
	NodeID             string `yaml:"node_id"`
	BindAddr           string `yaml:"bind_addr"`
	DataDir            string `yaml:"data_dir"`
	HeartbeatTimeout   string `yaml:"heartbeat_timeout,omitempty"`
	ElectionTimeout    string `yaml:"election_timeout,omitempty"`
	LeaderLeaseTimeout string `yaml:"leader_lease_timeout,omitempty"`
}

// LoadYAML reads path and converts it into a cluster.Config ready for
// cluster.Bootstrap/cluster.Join.
func LoadYAML(path string) (cluster.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cluster.Config{}, pberr.Validationf("config: read %s: %v", path, err)
	}
	return ParseYAML(data)
}

// ParseYAML converts raw YAML bytes into a cluster.Config.
func ParseYAML(data []byte) (cluster.Config, error) {
	var file ClusterFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cluster.Config{}, pberr.Validationf("config: parse yaml: %v", err)
	}
	if file.NodeID == "" {
		return cluster.Config{}, pberr.Validationf("config: node_id is required")
	}
	if file.BindAddr == "" {
		return cluster.Config{}, pberr.Validationf("config: bind_addr is required")
	}

	cfg := cluster.Config{
		NodeID:   file.NodeID,
		BindAddr: file.BindAddr,
		DataDir:  file.DataDir,
	}
	var err error
	if cfg.HeartbeatTimeout, err = parseDurationField("heartbeat_timeout", file.HeartbeatTimeout); err != nil {
		return cluster.Config{}, err
	}
	if cfg.ElectionTimeout, err = parseDurationField("election_timeout", file.ElectionTimeout); err != nil {
		return cluster.Config{}, err
	}
	if cfg.LeaderLeaseTimeout, err = parseDurationField("leader_lease_timeout", file.LeaderLeaseTimeout); err != nil {
		return cluster.Config{}, err
	}
	return cfg, nil
}

func parseDurationField(name, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, pberr.Validationf("config: invalid %s %q: %v", name, value, err)
	}
	return d, nil
}
