// Package config provides configuration loading and management for memberorder.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/memberorder/order"
)

// Config represents the complete memberorder configuration
type Config struct {
	// Enabled turns analysis on or off (default: true)
	Enabled bool `yaml:"enabled" toml:"enabled" json:"enabled"`

	// MemberOrder is the canonical category sequence
	MemberOrder []string `yaml:"memberOrder" toml:"memberOrder" json:"memberOrder"`

	Performance PerformanceConfig `yaml:"performance" toml:"performance" json:"performance"`

	// Locator names the body locator strategy ("brace" or "syntax")
	Locator string `yaml:"locator" toml:"locator" json:"locator"`

	// Include and Exclude are doublestar patterns relative to the project root
	Include []string `yaml:"include" toml:"include" json:"include"`
	Exclude []string `yaml:"exclude" toml:"exclude" json:"exclude"`

	Report  ReportConfig  `yaml:"report" toml:"report" json:"report"`
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics" json:"metrics"`
}

// PerformanceConfig tunes re-analysis scheduling
type PerformanceConfig struct {
	// DebounceTimeout is the quiet period in milliseconds before a changed
	// document is re-analyzed (default: 300)
	DebounceTimeout int `yaml:"debounceTimeout" toml:"debounceTimeout" json:"debounceTimeout"`
}

// Debounce returns DebounceTimeout as a duration.
func (p PerformanceConfig) Debounce() time.Duration {
	return time.Duration(p.DebounceTimeout) * time.Millisecond
}

// ReportConfig configures result output
type ReportConfig struct {
	// Format is "text" or "json"
	Format string `yaml:"format" toml:"format" json:"format"`

	// NATSURL enables publishing reports to NATS when set
	NATSURL string `yaml:"natsUrl" toml:"natsUrl" json:"natsUrl"`

	// NATSSubject is the report subject (default: memberorder.violations)
	NATSSubject string `yaml:"natsSubject" toml:"natsSubject" json:"natsSubject"`

	// NATSBucket keeps the latest report per file in this JetStream KV
	// bucket when set; requires NATSURL
	NATSBucket string `yaml:"natsBucket" toml:"natsBucket" json:"natsBucket"`
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	// Addr serves /metrics when set (e.g. ":9464")
	Addr string `yaml:"addr" toml:"addr" json:"addr"`
}

// Report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Enabled:     true,
		MemberOrder: order.DefaultOrderNames(),
		Performance: PerformanceConfig{
			DebounceTimeout: 300,
		},
		Locator: order.DefaultLocatorName,
		Include: []string{"**/*.cs"},
		Exclude: []string{"**/.git/**", "**/bin/**", "**/obj/**", "**/Library/**", "**/Temp/**"},
		Report: ReportConfig{
			Format:      FormatText,
			NATSSubject: "memberorder.violations",
		},
	}
}

// Validate checks that the configuration is valid. Problems with the member
// order are not errors; see Order.
func (c *Config) Validate() error {
	if c.Performance.DebounceTimeout < 0 {
		return fmt.Errorf("performance.debounceTimeout must not be negative")
	}
	if c.Locator != "" && !order.DefaultRegistry.Has(c.Locator) {
		return fmt.Errorf("locator %q is not registered (available: %s)",
			c.Locator, strings.Join(order.DefaultRegistry.Names(), ", "))
	}
	switch c.Report.Format {
	case "", FormatText, FormatJSON:
	default:
		return fmt.Errorf("report.format must be %q or %q", FormatText, FormatJSON)
	}
	if c.Report.NATSBucket != "" {
		if c.Report.NATSURL == "" {
			return fmt.Errorf("report.natsBucket requires report.natsUrl")
		}
		if !validBucketName(c.Report.NATSBucket) {
			return fmt.Errorf("report.natsBucket %q may only contain letters, digits, '-' and '_'", c.Report.NATSBucket)
		}
	}
	for _, p := range append(append([]string(nil), c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid path pattern %q", p)
		}
	}
	return nil
}

func validBucketName(name string) bool {
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// Order builds the canonical order, returning warnings for duplicate and
// unknown category names.
func (c *Config) Order() (*order.CanonicalOrder, []string) {
	return order.NewCanonicalOrder(c.MemberOrder)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.MemberOrder = append([]string(nil), c.MemberOrder...)
	out.Include = append([]string(nil), c.Include...)
	out.Exclude = append([]string(nil), c.Exclude...)
	return &out
}

// LoadFromFile loads configuration from a YAML or TOML file over the defaults
func LoadFromFile(path string) (*Config, error) {
	config := DefaultConfig()
	if err := config.OverlayFile(path); err != nil {
		return nil, err
	}
	return config, nil
}

// OverlayFile applies the keys set in a YAML or TOML file (chosen by
// extension) to c. Keys absent from the file keep their current values.
func (c *Config) OverlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		return nil
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// OverlayJSON applies editor settings, e.g. the "memberorder" section of an
// LSP workspace/didChangeConfiguration notification.
func (c *Config) OverlayJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse settings: %w", err)
	}
	return nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// NewAnalyzer builds an analyzer for the configured order and locator.
// Order warnings are not reported here; see Order.
func (c *Config) NewAnalyzer(logger *slog.Logger, observer order.Observer) (*order.Analyzer, error) {
	o, _ := c.Order()
	locator, err := order.DefaultRegistry.Create(c.Locator)
	if err != nil {
		return nil, fmt.Errorf("create locator: %w", err)
	}
	return order.NewAnalyzer(order.AnalyzerConfig{
		Order:    o,
		Locator:  locator,
		Logger:   logger,
		Observer: observer,
	}), nil
}
