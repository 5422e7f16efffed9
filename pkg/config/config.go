// Package config handles configuration loading for specview.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ChrisMcGann/SpecView/pkg/match"
	"github.com/ChrisMcGann/SpecView/pkg/panel"
	"github.com/ChrisMcGann/SpecView/pkg/proxi"
	"github.com/ChrisMcGann/SpecView/pkg/ticks"
)

// Config represents the specview configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Render   RenderConfig   `yaml:"render"`
	Annotate AnnotateConfig `yaml:"annotate"`
	Cache    CacheConfig    `yaml:"cache"`
	Store    StoreConfig    `yaml:"store"`
	Proxi    ProxiConfig    `yaml:"proxi"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// RenderConfig contains panel sizes and presentation parameters.
type RenderConfig struct {
	panel.Options `yaml:",inline"`

	Width         int    `yaml:"width"`
	Height        int    `yaml:"height"`
	ErrorHeight   int    `yaml:"error_height"`
	ErrorType     string `yaml:"error_type"`
	Format        string `yaml:"format"`
	Normalize     bool   `yaml:"normalize"`
	HideUnmatched bool   `yaml:"hide_unmatched"`
}

// AnnotateConfig contains fragment matching settings.
type AnnotateConfig struct {
	Tolerance     match.Tolerance `yaml:"tolerance"`
	PairTolerance match.Tolerance `yaml:"pair_tolerance"`
}

// CacheConfig contains caching settings.
type CacheConfig struct {
	SpectraEntries   int `yaml:"spectra_entries"`
	RenderSizeMB     int `yaml:"render_size_mb"`
	RenderTTLMinutes int `yaml:"render_ttl_minutes"`
}

// StoreConfig contains the persistent spectrum store settings.
type StoreConfig struct {
	Path string `yaml:"path"` // empty disables the store
}

// ProxiConfig contains spectrum retrieval settings.
type ProxiConfig struct {
	Sources        []string `yaml:"sources"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	MaxBodyMB      int      `yaml:"max_body_mb"` // per-response size cap
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from a YAML file. A missing file yields the
// default configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// Apply defaults for values set to zero explicitly
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Render: RenderConfig{
			Options:     panel.DefaultOptions(),
			Width:       900,
			Height:      360,
			ErrorHeight: 200,
			ErrorType:   string(match.PPM),
			Format:      "svg",
		},
		Annotate: AnnotateConfig{
			Tolerance:     match.Tolerance{Lo: 20, Hi: 20, Type: match.PPM},
			PairTolerance: match.Tolerance{Lo: 20, Hi: 20, Type: match.PPM},
		},
		Cache: CacheConfig{
			SpectraEntries:   256,
			RenderSizeMB:     64,
			RenderTTLMinutes: 10,
		},
		Proxi: ProxiConfig{
			Sources:        proxi.DefaultSourceNames(),
			TimeoutSeconds: 30,
			MaxBodyMB:      32,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = defaults.Server.CORSOrigins
	}

	r, d := &cfg.Render, defaults.Render
	if r.Width == 0 {
		r.Width = d.Width
	}
	if r.Height == 0 {
		r.Height = d.Height
	}
	if r.ErrorHeight == 0 {
		r.ErrorHeight = d.ErrorHeight
	}
	if r.ErrorType == "" {
		r.ErrorType = d.ErrorType
	}
	if r.Format == "" {
		r.Format = d.Format
	}
	if r.XTicks == 0 {
		r.XTicks = d.XTicks
	}
	if r.YTicks == 0 {
		r.YTicks = d.YTicks
	}
	if r.XPrecision == 0 {
		r.XPrecision = d.XPrecision
	}
	if r.YPrecision == 0 {
		r.YPrecision = d.YPrecision
	}
	if r.ZoomSensitivity == 0 {
		r.ZoomSensitivity = d.ZoomSensitivity
	}
	if r.ScrollSensitivity == 0 {
		r.ScrollSensitivity = d.ScrollSensitivity
	}
	if r.MZLabel == "" {
		r.MZLabel = d.MZLabel
	}
	if r.IntensityLabel == "" {
		r.IntensityLabel = d.IntensityLabel
	}

	if cfg.Annotate.Tolerance.Type == "" {
		cfg.Annotate.Tolerance = defaults.Annotate.Tolerance
	}
	if cfg.Annotate.PairTolerance.Type == "" {
		cfg.Annotate.PairTolerance = defaults.Annotate.PairTolerance
	}

	if cfg.Cache.SpectraEntries == 0 {
		cfg.Cache.SpectraEntries = defaults.Cache.SpectraEntries
	}
	if cfg.Cache.RenderSizeMB == 0 {
		cfg.Cache.RenderSizeMB = defaults.Cache.RenderSizeMB
	}
	if cfg.Cache.RenderTTLMinutes == 0 {
		cfg.Cache.RenderTTLMinutes = defaults.Cache.RenderTTLMinutes
	}
	if len(cfg.Proxi.Sources) == 0 {
		cfg.Proxi.Sources = defaults.Proxi.Sources
	}
	if cfg.Proxi.TimeoutSeconds == 0 {
		cfg.Proxi.TimeoutSeconds = defaults.Proxi.TimeoutSeconds
	}
	if cfg.Proxi.MaxBodyMB == 0 {
		cfg.Proxi.MaxBodyMB = defaults.Proxi.MaxBodyMB
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
}

// Validate rejects values that cannot produce a usable chart.
func (c *Config) Validate() error {
	r := c.Render
	switch {
	case r.XTicks < 2 || r.YTicks < 2:
		return fmt.Errorf("render: tick counts must be at least 2 (got %d, %d)", r.XTicks, r.YTicks)
	case r.XPrecision < ticks.MinPrecision || r.XPrecision > ticks.MaxPrecision,
		r.YPrecision < ticks.MinPrecision || r.YPrecision > ticks.MaxPrecision:
		return fmt.Errorf("render: precision must be within %d..%d", ticks.MinPrecision, ticks.MaxPrecision)
	case r.ZoomSensitivity <= 0 || r.ScrollSensitivity <= 0:
		return fmt.Errorf("render: sensitivities must be positive")
	case r.Width <= 0 || r.Height <= 0 || r.ErrorHeight <= 0:
		return fmt.Errorf("render: panel sizes must be positive")
	case r.YPaddingFrac < 0:
		return fmt.Errorf("render: y_axis_padding_frac must not be negative")
	}
	if _, err := match.ParseErrorType(r.ErrorType); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if r.Format != "svg" && r.Format != "png" {
		return fmt.Errorf("render: unsupported format %q", r.Format)
	}
	for _, tol := range []match.Tolerance{c.Annotate.Tolerance, c.Annotate.PairTolerance} {
		if _, err := match.ParseErrorType(string(tol.Type)); err != nil {
			return fmt.Errorf("annotate: %w", err)
		}
		if tol.Lo < 0 || tol.Hi < 0 {
			return fmt.Errorf("annotate: tolerance widths must not be negative")
		}
	}
	if c.Proxi.MaxBodyMB < 0 {
		return fmt.Errorf("proxi: max_body_mb must not be negative")
	}
	for _, name := range c.Proxi.Sources {
		if _, ok := proxi.SourceByName(name); !ok {
			return fmt.Errorf("proxi: unknown source %q", name)
		}
	}
	return nil
}

// ErrorUnit returns the configured error unit.
func (c *Config) ErrorUnit() match.ErrorType {
	unit, err := match.ParseErrorType(c.Render.ErrorType)
	if err != nil {
		return match.PPM
	}
	return unit
}

// ProxiTimeout returns the retrieval timeout.
func (c *Config) ProxiTimeout() time.Duration {
	return time.Duration(c.Proxi.TimeoutSeconds) * time.Second
}

// ProxiMaxBody returns the per-response size cap in bytes.
func (c *Config) ProxiMaxBody() int64 {
	return int64(c.Proxi.MaxBodyMB) << 20
}

// RenderTTL returns the lifetime of cached renders.
func (c *Config) RenderTTL() time.Duration {
	return time.Duration(c.Cache.RenderTTLMinutes) * time.Minute
}
