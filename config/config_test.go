package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "npustat.toml")
	content := `
rpc_url = "http://10.0.0.1/ubus"
username = "root"
poll_interval = 30
locale = "zh_CN"
mode = "WEB"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := LoadConfig(path, &cfg); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.RPCURL != "http://10.0.0.1/ubus" || cfg.Username != "root" {
		t.Errorf("rpc settings = %q %q", cfg.RPCURL, cfg.Username)
	}
	if cfg.PollPeriod() != 30*time.Second {
		t.Errorf("poll period = %v", cfg.PollPeriod())
	}
	if cfg.Mode != ModeWeb {
		t.Errorf("mode = %q, want web", cfg.Mode)
	}
	// Untouched keys keep their defaults.
	if cfg.Object != "luci.airoha_npu" || cfg.HTTPAddr != ":9093" {
		t.Errorf("defaults lost: object=%q addr=%q", cfg.Object, cfg.HTTPAddr)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	cfg := DefaultConfig()
	if err := LoadConfig("", &cfg); err != nil {
		t.Errorf("empty path: %v", err)
	}
	if err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"), &cfg); err == nil {
		t.Error("missing file: expected error")
	}

	path := filepath.Join(t.TempDir(), "bad.toml")
	os.WriteFile(path, []byte("poll_interval = \"ten\""), 0o644)
	if err := LoadConfig(path, &cfg); err == nil {
		t.Error("bad type: expected error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero interval falls back", func(c *Config) { c.PollInterval = 0 }, false},
		{"unknown mode", func(c *Config) { c.Mode = "gui" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"half of the files", func(c *Config) { c.StatusFile = "status.json" }, true},
		{"files without url", func(c *Config) {
			c.RPCURL = ""
			c.StatusFile = "status.json"
			c.EntriesFile = "entries.json"
		}, false},
		{"no source", func(c *Config) { c.RPCURL = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && cfg.PollInterval <= 0 {
				t.Errorf("poll interval not defaulted: %d", cfg.PollInterval)
			}
		})
	}
}
