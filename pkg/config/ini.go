package config

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cuemby/protobase/pkg/pberr"
	"github.com/cuemby/protobase/pkg/storage"
)

// SpaceConfig holds the optional knobs space.config may carry, per
// spec.md §6.1: cluster/page-size parameters. Every field has a
// DefaultSpaceConfig fallback, since the file itself is optional.
type SpaceConfig struct {
	PageSize   int
	CacheBytes int64

	// Cluster fields, present only in a replicated space's space.config.
	ClusterNodeID   string
	ClusterBindAddr string
	ClusterDataDir  string
}

// DefaultSpaceConfig mirrors storage.DefaultPageSize and pkg/cache's own
// default cache budget, so a space with no space.config at all still
// gets the same values NewFileBlockProvider/NewAtomCache fall back to.
func DefaultSpaceConfig() SpaceConfig {
	return SpaceConfig{
		PageSize:   storage.DefaultPageSize,
		CacheBytes: 64 * 1024 * 1024,
	}
}

// LoadINI parses a minimal INI dialect — "[section]" headers and
// "key = value" lines, "#"/";" full-line comments, blank lines ignored —
// into a SpaceConfig. Hand-rolled against the stdlib's bufio.Scanner: no
// INI parsing library appears anywhere in the example pack or its
// transitive dependency graph, so there is no ecosystem library to adopt
// here (see DESIGN.md). Unknown keys are ignored rather than rejected,
// so a space.config written by a newer version of this tool still loads.
func LoadINI(path string) (SpaceConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return SpaceConfig{}, pberr.Validationf("config: open %s: %v", path, err)
	}
	defer f.Close()
	return ParseINI(f)
}

// ParseINI parses r in the same dialect LoadINI reads from disk.
func ParseINI(r io.Reader) (SpaceConfig, error) {
	cfg := DefaultSpaceConfig()
	section := ""
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return SpaceConfig{}, pberr.Validationf("config: line %d: expected key = value, got %q", lineNo, line)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		if err := applyINIField(&cfg, section, key, value); err != nil {
			return SpaceConfig{}, pberr.Validationf("config: line %d: %v", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return SpaceConfig{}, pberr.Unexpectedf("config: read: %v", err)
	}
	return cfg, nil
}

func applyINIField(cfg *SpaceConfig, section, key, value string) error {
	switch section {
	case "", "storage":
		switch key {
		case "page_size":
			n, err := strconv.Atoi(value)
			if err != nil {
				return pberr.Validationf("invalid page_size %q: %v", value, err)
			}
			cfg.PageSize = n
		case "cache_bytes":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return pberr.Validationf("invalid cache_bytes %q: %v", value, err)
			}
			cfg.CacheBytes = n
		}
	case "cluster":
		switch key {
		case "node_id":
			cfg.ClusterNodeID = value
		case "bind_addr":
			cfg.ClusterBindAddr = value
		case "data_dir":
			cfg.ClusterDataDir = value
		}
	}
	return nil
}
