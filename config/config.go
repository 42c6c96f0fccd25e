// Package config loads the runtime configuration from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/framehost/resource"
)

// MaxFramesInFlight bounds the frame data ring size.
const MaxFramesInFlight = 16

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid")

// Config is the runtime configuration.
type Config struct {
	// FramesInFlight is the number of frame slots kept per viewport.
	FramesInFlight int `yaml:"frames_in_flight"`
	// StrictFrameData rejects conflicting frame data for one frame and
	// logs fallbacks as errors.
	StrictFrameData bool `yaml:"strict_frame_data"`
	// Validation enables runtime checks of caller discipline.
	Validation bool `yaml:"validation"`
	// API is the native graphics API: d3d11, d3d12 or vulkan.
	API string `yaml:"api"`
	// Backend names the barrier backend; empty selects the best available.
	Backend string `yaml:"backend"`
	// Plugins are loaded, in order, when the runtime starts.
	Plugins []string `yaml:"plugins"`
	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		FramesInFlight: 3,
		API:            resource.APIVulkan.String(),
		LogLevel:       "warn",
	}
}

// Load reads and validates the configuration at path. Keys missing from
// the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML configuration. Unknown keys are
// rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges and names.
func (c *Config) Validate() error {
	var errs []error
	if c.FramesInFlight < 1 || c.FramesInFlight > MaxFramesInFlight {
		errs = append(errs, fmt.Errorf("%w: frames_in_flight %d outside [1, %d]",
			ErrInvalid, c.FramesInFlight, MaxFramesInFlight))
	}
	if _, err := c.ResourceAPI(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	for i, p := range c.Plugins {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Errorf("%w: plugins[%d] is empty", ErrInvalid, i))
		}
	}
	return errors.Join(errs...)
}

// ResourceAPI returns the configured API.
func (c *Config) ResourceAPI() (resource.API, error) {
	for _, api := range []resource.API{resource.APID3D11, resource.APID3D12, resource.APIVulkan} {
		if strings.EqualFold(c.API, api.String()) {
			return api, nil
		}
	}
	return 0, fmt.Errorf("%w: api %q", ErrInvalid, c.API)
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	return l, nil
}
