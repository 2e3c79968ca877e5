// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Relay.Listen != ":8080" {
		t.Errorf("relay.listen = %q, want :8080", cfg.Relay.Listen)
	}
	if cfg.Client.TickInterval != 50*time.Millisecond {
		t.Errorf("client.tick_interval = %v, want 50ms", cfg.Client.TickInterval)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("config differs from defaults (-want +got):\n%s", diff)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "huddle.yaml", `
relay:
  listen: 127.0.0.1:9000
  write_timeout: 2s
client:
  camera:
    enabled: true
    compression: zstd
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := Default()
	want.Relay.Listen = "127.0.0.1:9000"
	want.Relay.WriteTimeout = 2 * time.Second
	want.Client.Camera.Enabled = true
	want.Client.Camera.Compression = "zstd"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("loaded config (-want +got):\n%s", diff)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	path := writeConfig(t, "huddle.yaml", "client:\n  server: relay.example:8080\n")
	t.Setenv(EnvironmentVariable, path)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Client.Server != "relay.example:8080" {
		t.Fatalf("client.server = %q", cfg.Client.Server)
	}
}

func TestLoadJSONC(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "huddle.jsonc", `{
  // Relay on a high port.
  "relay": {"listen": ":9999", "fanout_capacity": 64,},
  "client": {"tick_interval": "20ms"},
}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Relay.Listen != ":9999" || cfg.Relay.FanoutCapacity != 64 || cfg.Client.TickInterval != 20*time.Millisecond {
		t.Fatalf("relay=%+v tick=%v", cfg.Relay, cfg.Client.TickInterval)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"unknown field", "huddle.yaml", "relay:\n  lisen: :1\n", "lisen"},
		{"bad duration", "huddle.yaml", "client:\n  tick_interval: soon\n", "parsing config"},
		{"bad json", "huddle.json", `{"relay": {`, "parsing config"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeConfig(t, test.file, test.content))
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Fatalf("Load = %v, want error containing %q", err, test.want)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load of a missing file succeeded")
	}
}

func TestEmptyFileKeepsDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeConfig(t, "huddle.yaml", ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestExpandVariables(t *testing.T) {
	t.Setenv("HUDDLE_TEST_HOST", "relay.internal")
	t.Setenv("HUDDLE_TEST_UNSET", "")
	path := writeConfig(t, "huddle.yaml", `
relay:
  listen: ":${HUDDLE_TEST_UNSET:-7000}"
client:
  server: "${HUDDLE_TEST_HOST}:7000"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Relay.Listen != ":7000" || cfg.Client.Server != "relay.internal:7000" {
		t.Fatalf("listen=%q server=%q", cfg.Relay.Listen, cfg.Client.Server)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no listen", func(c *Config) { c.Relay.Listen = "" }, "relay.listen"},
		{"tiny frames", func(c *Config) { c.Relay.MaxFrameSize = 1024 }, "relay.max_frame_size"},
		{"zero fanout", func(c *Config) { c.Relay.FanoutCapacity = 0 }, "relay.fanout_capacity"},
		{"log level", func(c *Config) { c.Relay.LogLevel = "loud" }, "relay.log_level"},
		{"zero tick", func(c *Config) { c.Client.TickInterval = 0 }, "client.tick_interval"},
		{"color", func(c *Config) { c.Client.Color = "sepia" }, "client.color"},
		{"compression", func(c *Config) { c.Client.Camera.Compression = "gzip" }, "client.camera.compression"},
		{"huge camera", func(c *Config) { c.Client.Camera.Width = 5000 }, "client.camera size"},
		{"camera over frame limit", func(c *Config) {
			c.Client.Camera.Enabled = true
			c.Client.Camera.Width, c.Client.Camera.Height = 4096, 4096
		}, "exceeds client.max_frame_size"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			test.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Fatalf("Validate = %v, want error mentioning %q", err, test.want)
			}
		})
	}
}
