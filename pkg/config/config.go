// Package config provides configuration for the mock engine and its host.
package config

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Config controls the mock engine. The zero value is not usable directly;
// call Default or Normalize to fill in defaults.
type Config struct {
	// Enabled turns the engine on. When false, Handle always declines.
	// Default: true
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Dir is the directory holding route definition files.
	// Default: "./mocks"
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
	// Prefix restricts interception to paths under this prefix. Use "/"
	// to consider every path. Default: "/api"
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	// DefaultDelay is applied to matched routes without their own delay,
	// in milliseconds. Default: 0
	DefaultDelay int `json:"defaultDelay,omitempty" yaml:"defaultDelay,omitempty"`
	// Watch reloads route files when they change on disk. Default: true
	Watch *bool `json:"watch,omitempty" yaml:"watch,omitempty"`
	// Include limits loading to files matching these glob patterns
	// (doublestar syntax, relative to Dir). Empty means all .json, .yaml,
	// and .yml files.
	Include []string `json:"include,omitempty" yaml:"include,omitempty"`
	// Exclude skips files matching these glob patterns. Files whose name
	// starts with "_" are always skipped.
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	// MaxBodyBytes caps how much of a request body is read for matching
	// and recording. Default: 10MB
	MaxBodyBytes int64 `json:"maxBodyBytes,omitempty" yaml:"maxBodyBytes,omitempty"`
	// RequestLogSize is the number of handled requests kept in the
	// in-memory log. Default: 500
	RequestLogSize int `json:"requestLogSize,omitempty" yaml:"requestLogSize,omitempty"`
	// LogLevel is the minimum log level: debug, info, warn, error.
	// Default: "info"
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
	// LogFormat is the log output format: text or json. Default: "text"
	LogFormat string `json:"logFormat,omitempty" yaml:"logFormat,omitempty"`
	// Port is the listen port used by the standalone server host. The
	// embedded engine ignores it. Default: 4280
	Port int `json:"port,omitempty" yaml:"port,omitempty"`
}

// Defaults.
const (
	DefaultDir            = "./mocks"
	DefaultPrefix         = "/api"
	DefaultMaxBodyBytes   = 10 * 1024 * 1024
	DefaultRequestLogSize = 500
	DefaultPort           = 4280
)

// Default returns a Config with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.Normalize()
	return cfg
}

// Normalize fills unset fields with their defaults. It is idempotent and
// safe to call on a freshly unmarshaled Config.
func (c *Config) Normalize() {
	if c.Enabled == nil {
		c.Enabled = boolPtr(true)
	}
	if c.Watch == nil {
		c.Watch = boolPtr(true)
	}
	if c.Dir == "" {
		c.Dir = DefaultDir
	}
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.RequestLogSize == 0 {
		c.RequestLogSize = DefaultRequestLogSize
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
}

// IsEnabled reports whether the engine should intercept requests.
func (c *Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// WatchEnabled reports whether the file watcher should run.
func (c *Config) WatchEnabled() bool {
	return c.Watch == nil || *c.Watch
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "warning": true, "error": true,
}

var validLogFormats = map[string]bool{
	"text": true, "json": true,
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Prefix != "" && !strings.HasPrefix(c.Prefix, "/") {
		return fmt.Errorf("prefix %q must start with /", c.Prefix)
	}
	if c.DefaultDelay < 0 {
		return fmt.Errorf("defaultDelay must be non-negative, got %d", c.DefaultDelay)
	}
	if c.MaxBodyBytes < 0 {
		return fmt.Errorf("maxBodyBytes must be non-negative, got %d", c.MaxBodyBytes)
	}
	if c.RequestLogSize < 0 {
		return fmt.Errorf("requestLogSize must be non-negative, got %d", c.RequestLogSize)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.LogFormat != "" && !validLogFormats[strings.ToLower(c.LogFormat)] {
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	for _, pattern := range c.Include {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid include pattern %q", pattern)
		}
	}
	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }
