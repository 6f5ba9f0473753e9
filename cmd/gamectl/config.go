package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// cliConfig is the resolved runtime configuration: defaults, overlaid by
// the optional config file, overlaid by flags.
type cliConfig struct {
	Addr          string
	UseWebSocket  bool
	InvokeTimeout time.Duration
	MaxFrameBytes uint32
}

// gamectl.toml key mapping.
type fileConfig struct {
	Addr            string `toml:"addr"`
	Transport       string `toml:"transport"`
	InvokeTimeoutMS int64  `toml:"invoke_timeout_ms"`
	MaxFrameBytes   int64  `toml:"max_frame_bytes"`
}

func defaultCLIConfig() cliConfig {
	return cliConfig{
		Addr:          "127.0.0.1:9845",
		InvokeTimeout: 30 * time.Second,
	}
}

// loadCLIConfig overlays the config file onto the defaults. Only keys
// actually present in the file override anything.
func loadCLIConfig(path string) (cliConfig, error) {
	cfg := defaultCLIConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return cliConfig{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("transport") {
		switch t := strings.TrimSpace(raw.Transport); t {
		case "tcp":
			cfg.UseWebSocket = false
		case "ws":
			cfg.UseWebSocket = true
		default:
			return cliConfig{}, fmt.Errorf("load config: unsupported transport %q (expected tcp or ws)", t)
		}
	}
	if meta.IsDefined("invoke_timeout_ms") {
		if raw.InvokeTimeoutMS <= 0 {
			return cliConfig{}, fmt.Errorf("load config: invoke_timeout_ms must be positive")
		}
		cfg.InvokeTimeout = time.Duration(raw.InvokeTimeoutMS) * time.Millisecond
	}
	if meta.IsDefined("max_frame_bytes") {
		if raw.MaxFrameBytes <= 0 || raw.MaxFrameBytes > 1<<31 {
			return cliConfig{}, fmt.Errorf("load config: max_frame_bytes out of range")
		}
		cfg.MaxFrameBytes = uint32(raw.MaxFrameBytes)
	}
	return cfg, nil
}
