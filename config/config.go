// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/openxosc/xosc-core/catalog"
	"github.com/openxosc/xosc-core/env"
	"github.com/openxosc/xosc-core/logging"
	"github.com/openxosc/xosc-core/param"
	"github.com/openxosc/xosc-core/xosc"
)

// Environment variables that override the configuration file.
const (
	EnvCacheCapacity    = "XOSC_CACHE_CAPACITY"
	EnvCatalogExtension = "XOSC_CATALOG_EXTENSION"
	EnvDuplicatePolicy  = "XOSC_DUPLICATE_POLICY"
	EnvLogLevel         = "XOSC_LOG_LEVEL"
	EnvLogFormat        = "XOSC_LOG_FORMAT"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the catalog tooling configuration.
type Config struct {
	Cache      CacheConfig   `yaml:"cache" json:"cache"`
	Catalog    CatalogConfig `yaml:"catalog" json:"catalog"`
	Log        LogConfig     `yaml:"log" json:"log"`
	Parameters Parameters    `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// CacheConfig configures the shared catalog cache.
type CacheConfig struct {
	Capacity int `yaml:"capacity" json:"capacity"`
}

// CatalogConfig configures catalog discovery and lookup.
type CatalogConfig struct {
	Extension       string `yaml:"extension" json:"extension"`
	DuplicatePolicy string `yaml:"duplicatePolicy" json:"duplicatePolicy"`

	// MatchCatalogName restricts lookups to entries of the catalog named by
	// the reference.
	MatchCatalogName bool `yaml:"matchCatalogName,omitempty" json:"matchCatalogName,omitempty"`
	// Locations maps an entry kind to its catalog directory. Relative paths
	// loaded from a file are relative to the file's directory.
	Locations map[string]string `yaml:"locations,omitempty" json:"locations,omitempty"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Parameters holds ambient parameter values. Scalars keep their YAML text,
// so 50.0 stays "50.0".
type Parameters map[string]string

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Parameters) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("parameters must be a mapping, got %s", value.Tag)
	}
	out := make(Parameters, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		k, v := value.Content[i], value.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("parameter %q must be a scalar", k.Value)
		}
		out[k.Value] = v.Value
	}
	*p = out
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{Capacity: catalog.DefaultCacheCapacity},
		Catalog: CatalogConfig{
			Extension:       catalog.DefaultExtension,
			DuplicatePolicy: catalog.DuplicateError.String(),
		},
		Log: LogConfig{Level: "info", Format: logging.FormatJSON.String()},
	}
}

// PathIn returns the configuration file path within configHome.
func PathIn(configHome string) string {
	return filepath.Join(configHome, "xosc", "config.yaml")
}

// DefaultPath returns the configuration file path under the XDG config home.
func DefaultPath() string {
	return PathIn(xdg.ConfigHome)
}

// Parse decodes a YAML configuration document. Unset fields keep their
// defaults.
func Parse(data []byte) (*Config, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	if err := validateSchema(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Load reads the configuration file at path, applies the environment
// overrides from reader and validates the result.
func Load(path string, reader env.Reader) (*Config, error) {
	// #nosec G304 -- path is the configuration file chosen by the caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	base := filepath.Dir(path)
	for kind, dir := range cfg.Catalog.Locations {
		if !filepath.IsAbs(dir) {
			cfg.Catalog.Locations[kind] = filepath.Join(base, dir)
		}
	}

	if err := cfg.ApplyEnv(reader); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads DefaultPath when it exists and the built-in defaults
// otherwise. Environment overrides apply in both cases.
func LoadDefault(reader env.Reader) (*Config, error) {
	cfg, err := Load(DefaultPath(), reader)
	if !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}
	cfg = Default()
	if err := cfg.ApplyEnv(reader); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the XOSC_* environment variables that are
// set.
func (c *Config) ApplyEnv(reader env.Reader) error {
	if v, ok := reader.LookupEnv(EnvCacheCapacity); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, EnvCacheCapacity, err)
		}
		c.Cache.Capacity = n
	}
	if v, ok := reader.LookupEnv(EnvCatalogExtension); ok {
		c.Catalog.Extension = v
	}
	if v, ok := reader.LookupEnv(EnvDuplicatePolicy); ok {
		c.Catalog.DuplicatePolicy = v
	}
	if v, ok := reader.LookupEnv(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := reader.LookupEnv(EnvLogFormat); ok {
		c.Log.Format = v
	}
	return nil
}

// Validate checks the values the schema cannot, including values set from
// the environment.
func (c *Config) Validate() error {
	var errs []error
	if c.Cache.Capacity < 0 {
		errs = append(errs, fmt.Errorf("cache capacity %d is negative", c.Cache.Capacity))
	}
	if !strings.HasPrefix(c.Catalog.Extension, ".") || len(c.Catalog.Extension) < 2 {
		errs = append(errs, fmt.Errorf("catalog extension %q must start with a dot", c.Catalog.Extension))
	}
	if _, err := catalog.ParseDuplicatePolicy(c.Catalog.DuplicatePolicy); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Locations(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// Locations returns the configured catalog directories.
func (c *Config) Locations() (xosc.CatalogLocations, error) {
	locs := make(xosc.CatalogLocations, len(c.Catalog.Locations))
	for _, k := range slices.Sorted(maps.Keys(c.Catalog.Locations)) {
		kind, err := xosc.ParseKind(k)
		if err != nil {
			return nil, err
		}
		locs[kind] = xosc.NewDirectory(c.Catalog.Locations[k])
	}
	return locs, nil
}

// Logger builds the configured logger. Extra options are applied last.
func (c *Config) Logger(extra ...logging.Option) (*slog.Logger, error) {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	format, err := logging.ParseFormat(c.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	opts := append([]logging.Option{logging.WithLevel(level), logging.WithFormat(format)}, extra...)
	return logging.New(opts...), nil
}

// ParameterEngine returns a parameter engine holding the ambient parameters.
func (c *Config) ParameterEngine() (*param.Engine, error) {
	engine := param.NewEngine()
	for _, k := range slices.Sorted(maps.Keys(c.Parameters)) {
		if err := engine.SetParameter(k, c.Parameters[k]); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return engine, nil
}

// ManagerOptions translates the configuration into catalog manager options.
// logger may be nil.
func (c *Config) ManagerOptions(logger *slog.Logger) ([]catalog.Option, error) {
	policy, err := catalog.ParseDuplicatePolicy(c.Catalog.DuplicatePolicy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	locs, err := c.Locations()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	params, err := c.ParameterEngine()
	if err != nil {
		return nil, err
	}

	opts := []catalog.Option{
		catalog.WithCacheCapacity(c.Cache.Capacity),
		catalog.WithExtension(c.Catalog.Extension),
		catalog.WithDuplicatePolicy(policy),
		catalog.WithCatalogNameMatch(c.Catalog.MatchCatalogName),
		catalog.WithLocations(locs),
		catalog.WithParameters(params),
	}
	if logger != nil {
		opts = append(opts, catalog.WithLogger(logger))
	}
	return opts, nil
}

// NewManager builds a catalog manager from the configuration.
func (c *Config) NewManager(logger *slog.Logger) (*catalog.Manager, error) {
	opts, err := c.ManagerOptions(logger)
	if err != nil {
		return nil, err
	}
	return catalog.NewManager(opts...), nil
}
