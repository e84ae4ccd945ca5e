package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

// Display modes
const (
	ModeAuto = "auto"
	ModeWeb  = "web"
	ModeTUI  = "tui"
	ModeOnce = "once"
)

// Config represents the application configuration
type Config struct {
	RPCURL       string `toml:"rpc_url"`
	Username     string `toml:"username"`
	Password     string `toml:"password"`
	Object       string `toml:"object"`
	Timeout      int    `toml:"timeout"`       // Seconds per backend call
	PollInterval int    `toml:"poll_interval"` // Seconds
	HTTPAddr     string `toml:"http_addr"`
	Locale       string `toml:"locale"`
	LocaleFile   string `toml:"locale_file"`
	StatusFile   string `toml:"status_file"`  // Read getStatus from a file instead of ubus
	EntriesFile  string `toml:"entries_file"` // Read getPpeEntries from a file instead of ubus
	LogLevel     string `toml:"log_level"`
	LogFile      string `toml:"log_file"` // Log destination; stderr when empty, discarded in tui mode
	Mode         string `toml:"mode"`
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		RPCURL:       "http://192.168.1.1/ubus",
		Object:       "luci.airoha_npu",
		Timeout:      5,
		PollInterval: 10,
		HTTPAddr:     ":9093",
		Locale:       "en",
		LogLevel:     "info",
		Mode:         ModeAuto,
	}
}

func LoadConfig(path string, cfg *Config) error {
	if path != "" {
		_, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return fmt.Errorf("error decoding config file: %w", err)
		}
	}
	return nil
}

// Validate replaces out of range values with defaults and rejects values
// that have no sensible fallback.
func (c *Config) Validate() error {
	def := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.Timeout < 0 {
		c.Timeout = def.Timeout
	}
	if c.Object == "" {
		c.Object = def.Object
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Mode == "" {
		c.Mode = def.Mode
	}
	c.Mode = strings.ToLower(c.Mode)

	switch c.Mode {
	case ModeAuto, ModeWeb, ModeTUI, ModeOnce:
	default:
		return fmt.Errorf("unknown mode %q (want auto, web, tui or once)", c.Mode)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if (c.StatusFile == "") != (c.EntriesFile == "") {
		return fmt.Errorf("status_file and entries_file must be set together")
	}
	if c.StatusFile == "" && c.RPCURL == "" {
		return fmt.Errorf("rpc_url is required unless payload files are given")
	}
	return nil
}

// UseFiles reports whether payloads are read from disk.
func (c Config) UseFiles() bool {
	return c.StatusFile != "" && c.EntriesFile != ""
}

func (c Config) PollPeriod() time.Duration {
	return time.Duration(c.PollInterval) * time.Second
}

func (c Config) CallTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}
