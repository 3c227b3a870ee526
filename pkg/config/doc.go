// Package config loads an Object Space's optional space.config file and,
// separately, a pkg/cluster node's own settings. spec.md §6.1 names
// space.config as an optional INI file holding cluster/page-size
// parameters; this package parses that INI dialect and also offers a YAML
// form for the cluster adapter's own config, matching the teacher's own
// use of gopkg.in/yaml.v3 for its config files (cmd/warren/apply.go).
package config
