package config

import (
	"os"
	"path/filepath"

	"github.com/borsokman/localhost/internal/herr"
)

// Load reads, parses, and validates the configuration file at path,
// returning a ready-to-use immutable snapshot.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, herr.New(herr.CodeConfigParse, "failed to read config file", err)
	}

	cfg, err := Parse(string(raw), filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
