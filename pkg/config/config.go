// Copyright 2024-2026 Aiku AI

// Package config loads the service-level configuration file. Chat-level
// state (keywords, admins, enablement) lives in the store package; this
// file only covers where to listen, where to persist, and how to log.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.mau.fi/util/exerrors"
	"go.mau.fi/zeroconfig"
	"gopkg.in/yaml.v3"
)

//go:embed example-config.yaml
var ExampleConfig string

// Config holds the service settings.
type Config struct {
	// ListenAddr is the liveness responder's listen address.
	ListenAddr string `yaml:"listen_addr"`
	// StatePath is where chat configuration is persisted.
	StatePath string `yaml:"state_path"`
	// PollTimeout is the long-poll timeout in seconds.
	PollTimeout int `yaml:"poll_timeout"`
	// Logging configures zerolog via the zeroconfig schema.
	Logging zeroconfig.Config `yaml:"logging"`
}

// Load reads the YAML config at path on top of the embedded example
// defaults. A missing file is not an error: the defaults apply as-is.
// Environment variables override the file for container deployments.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	// The defaults are compiled into the binary; a parse failure here is
	// a build defect, not a runtime condition.
	exerrors.PanicIfNotNil(yaml.Unmarshal([]byte(ExampleConfig), cfg))

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if v := os.Getenv("SPOILERGUARD_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("SPOILERGUARD_STATE_PATH"); v != "" {
		cfg.StatePath = v
	}
	return cfg, nil
}
