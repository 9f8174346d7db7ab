package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the optional YAML configuration for the codas CLI driver:
// which output directory to write under and which target generators to
// run. Every field here can also be set from the command line; flags take
// precedence over the config file, matching bureau-foundation-bureau's
// and artpar-apigate's own flags-override-config convention.
type Config struct {
	// Out is the root output directory each target writes under.
	Out string `yaml:"out"`

	// Targets restricts generation to the named targets (rust, python,
	// typescript, openapi, sql). Empty means "all targets".
	Targets []string `yaml:"targets"`
}

// LoadConfig reads and parses a YAML config file. A missing path is not
// an error: it simply yields the zero Config, matching the CLI's
// "config is optional" contract.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
