// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file when --config is absent.
const EnvironmentVariable = "HUDDLE_CONFIG"

// minFrameSize is the smallest accepted max_frame_size. Anything
// smaller cannot carry the default camera frame.
const minFrameSize = 64 * 1024

// Config is the complete huddle configuration. Each binary reads the
// section it needs.
type Config struct {
	// Relay configures huddle-relay.
	Relay RelayConfig `yaml:"relay"`

	// Client configures the huddle terminal client.
	Client ClientConfig `yaml:"client"`
}

// RelayConfig configures the relay server.
type RelayConfig struct {
	// Listen is the TCP address to accept clients on.
	// Default: :8080
	Listen string `yaml:"listen"`

	// MaxFrameSize bounds a single frame payload, in bytes.
	// Default: 16 MiB
	MaxFrameSize int `yaml:"max_frame_size"`

	// FanoutCapacity is how many items a slow client may lag before
	// losing the oldest.
	// Default: 16
	FanoutCapacity int `yaml:"fanout_capacity"`

	// WriteTimeout bounds one envelope write to a client.
	// Default: 10s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// LogLevel is debug, info, warn or error.
	// Default: info
	LogLevel string `yaml:"log_level"`
}

// ClientConfig configures the terminal client.
type ClientConfig struct {
	// Server is the relay address.
	// Default: localhost:8080
	Server string `yaml:"server"`

	// TickInterval is the redraw cadence.
	// Default: 50ms
	TickInterval time.Duration `yaml:"tick_interval"`

	// QueueSize is the outgoing envelope queue capacity.
	// Default: 8
	QueueSize int `yaml:"queue_size"`

	// MaxFrameSize bounds a single frame payload, in bytes.
	// Default: 16 MiB
	MaxFrameSize int `yaml:"max_frame_size"`

	// Color forces a color profile: auto, truecolor, ansi256, ansi or
	// none.
	// Default: auto
	Color string `yaml:"color"`

	// LogFile receives JSON log records. Empty discards everything
	// below warn, which goes to the status bar instead.
	LogFile string `yaml:"log_file"`

	// Camera configures outgoing video.
	Camera CameraConfig `yaml:"camera"`
}

// CameraConfig configures the synthetic camera.
type CameraConfig struct {
	// Enabled turns on outgoing video.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Width and Height are the frame size in pixels.
	// Default: 64x48
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// FPS caps frames per second.
	// Default: 10
	FPS float64 `yaml:"fps"`

	// Compression is none, lz4 or zstd.
	// Default: lz4
	Compression string `yaml:"compression"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Relay: RelayConfig{
			Listen:         ":8080",
			MaxFrameSize:   16 * 1024 * 1024,
			FanoutCapacity: 16,
			WriteTimeout:   10 * time.Second,
			LogLevel:       "info",
		},
		Client: ClientConfig{
			Server:       "localhost:8080",
			TickInterval: 50 * time.Millisecond,
			QueueSize:    8,
			MaxFrameSize: 16 * 1024 * 1024,
			Color:        "auto",
			Camera: CameraConfig{
				Width:       64,
				Height:      48,
				FPS:         10,
				Compression: "lz4",
			},
		},
	}
}

// Load loads the file named by path, or by HUDDLE_CONFIG when path is
// empty. With neither set it returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvironmentVariable)
	}
	if path == "" {
		cfg := Default()
		cfg.expandVariables()
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path over the
// defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.expandVariables()
	return cfg, nil
}

// loadFile merges a single configuration file into c.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// JSON is a subset of YAML once comments and trailing commas
		// are stripped, so one decoder serves both formats.
		data = jsonc.ToJSON(data)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} in address and
// path fields.
func (c *Config) expandVariables() {
	c.Relay.Listen = expandVars(c.Relay.Listen)
	c.Client.Server = expandVars(c.Client.Server)
	c.Client.LogFile = expandVars(c.Client.LogFile)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration for values neither binary can
// run with. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Relay.Listen == "" {
		errs = append(errs, errors.New("relay.listen is required"))
	}
	if c.Relay.MaxFrameSize < minFrameSize {
		errs = append(errs, fmt.Errorf("relay.max_frame_size must be at least %d", minFrameSize))
	}
	if c.Relay.FanoutCapacity < 1 {
		errs = append(errs, errors.New("relay.fanout_capacity must be at least 1"))
	}
	if c.Relay.WriteTimeout <= 0 {
		errs = append(errs, errors.New("relay.write_timeout must be positive"))
	}
	logLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(logLevels, c.Relay.LogLevel) {
		errs = append(errs, fmt.Errorf("relay.log_level must be one of: %v", logLevels))
	}

	if c.Client.Server == "" {
		errs = append(errs, errors.New("client.server is required"))
	}
	if c.Client.TickInterval <= 0 {
		errs = append(errs, errors.New("client.tick_interval must be positive"))
	}
	if c.Client.QueueSize < 1 {
		errs = append(errs, errors.New("client.queue_size must be at least 1"))
	}
	if c.Client.MaxFrameSize < minFrameSize {
		errs = append(errs, fmt.Errorf("client.max_frame_size must be at least %d", minFrameSize))
	}
	colors := []string{"auto", "truecolor", "ansi256", "ansi", "none"}
	if !slices.Contains(colors, c.Client.Color) {
		errs = append(errs, fmt.Errorf("client.color must be one of: %v", colors))
	}

	camera := c.Client.Camera
	if camera.Width < 1 || camera.Width > 4096 || camera.Height < 1 || camera.Height > 4096 {
		errs = append(errs, fmt.Errorf("client.camera size %dx%d must be within 1..4096", camera.Width, camera.Height))
	}
	if camera.FPS <= 0 {
		errs = append(errs, errors.New("client.camera.fps must be positive"))
	}
	compressions := []string{"none", "lz4", "zstd"}
	if !slices.Contains(compressions, camera.Compression) {
		errs = append(errs, fmt.Errorf("client.camera.compression must be one of: %v", compressions))
	}
	if camera.Enabled && camera.Width*camera.Height*3 > c.Client.MaxFrameSize {
		errs = append(errs, fmt.Errorf("client.camera frame of %d bytes exceeds client.max_frame_size", camera.Width*camera.Height*3))
	}

	return errors.Join(errs...)
}
