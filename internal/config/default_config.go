package config

import (
	_ "embed"

	"github.com/goccy/go-json"
)

// DefaultConfigJSON contains the embedded default configuration file
//
//go:embed default_config.json
var DefaultConfigJSON string

// LoadDefaultConfig parses the embedded default config and returns the full Config struct
func LoadDefaultConfig() (*Config, error) {
	var cfg Config
	if err := json.Unmarshal([]byte(DefaultConfigJSON), &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
