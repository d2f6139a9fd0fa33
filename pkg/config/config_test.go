// Copyright 2024-2026 Aiku AI

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("got listen_addr %q, want the embedded default", cfg.ListenAddr)
	}
	if cfg.StatePath != "spoiler_config.json" {
		t.Errorf("got state_path %q, want the embedded default", cfg.StatePath)
	}
	if cfg.PollTimeout != 10 {
		t.Errorf("got poll_timeout %d, want 10", cfg.PollTimeout)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "listen_addr: \":9999\"\npoll_timeout: 30\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenAddr != ":9999" {
		t.Errorf("got listen_addr %q, want file override", cfg.ListenAddr)
	}
	if cfg.PollTimeout != 30 {
		t.Errorf("got poll_timeout %d, want file override", cfg.PollTimeout)
	}
	// Values absent from the file keep their defaults.
	if cfg.StatePath != "spoiler_config.json" {
		t.Errorf("got state_path %q, want the embedded default", cfg.StatePath)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("SPOILERGUARD_STATE_PATH", "/data/state.json")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StatePath != "/data/state.json" {
		t.Errorf("got state_path %q, want the env override", cfg.StatePath)
	}
}

func TestLoad_MalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen_addr: [oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed config should fail loudly")
	}
}
