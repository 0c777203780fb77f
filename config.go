package catalogsearch

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/chozen2see/catalogsearch/resource"
	"gopkg.in/yaml.v3"
)

// Config is the file form of a Searcher's settings plus the backends a host
// wires around it.
type Config struct {
	MaxDepth              int     `yaml:"max_depth,omitempty"` // 0: default (10); negative: depth 0 only
	ExpandGroups          bool    `yaml:"expand_groups,omitempty"`
	MaxConcurrentResolves int     `yaml:"max_concurrent_resolves,omitempty"`
	ResolveRatePerSec     float64 `yaml:"resolve_rate_per_sec,omitempty"`
	ResolveBurst          int     `yaml:"resolve_burst,omitempty"`

	LogLevel  string `yaml:"log_level,omitempty"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format,omitempty"` // text or json

	Catalog  CatalogConfig  `yaml:"catalog"`
	Resolver ResolverConfig `yaml:"resolver,omitempty"`
	Index    IndexConfig    `yaml:"index,omitempty"`
}

// CatalogConfig locates the catalog snapshot.
type CatalogConfig struct {
	Backend   string `yaml:"backend"` // local, memory, s3 or minio
	Path      string `yaml:"path,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	UseSSL    bool   `yaml:"use_ssl,omitempty"`
	Snapshot  string `yaml:"snapshot"`
}

// ResolverConfig selects where reference documents are fetched from.
type ResolverConfig struct {
	Source     string   `yaml:"source,omitempty"` // blob (default), etcd, dynamodb or none
	Prefix     string   `yaml:"prefix,omitempty"`
	Endpoints  []string `yaml:"endpoints,omitempty"`
	Table      string   `yaml:"table,omitempty"`
	CacheBytes int64    `yaml:"cache_bytes,omitempty"`
}

// IndexConfig selects the fast-path index.
type IndexConfig struct {
	Backend string `yaml:"backend,omitempty"` // none (default), memory or redis
	URL     string `yaml:"url,omitempty"`
	Key     string `yaml:"key,omitempty"`
}

// DefaultConfig returns the configuration used for omitted fields.
func DefaultConfig() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		Catalog: CatalogConfig{
			Backend:  "local",
			Path:     ".",
			Snapshot: "catalog.json",
		},
		Resolver: ResolverConfig{Source: "blob"},
		Index:    IndexConfig{Backend: "none"},
	}
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML on top of DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if c.MaxConcurrentResolves < 0 {
		return &ConfigError{Field: "max_concurrent_resolves", Value: c.MaxConcurrentResolves}
	}
	if c.ResolveRatePerSec < 0 {
		return &ConfigError{Field: "resolve_rate_per_sec", Value: c.ResolveRatePerSec}
	}
	if c.ResolveBurst < 0 {
		return &ConfigError{Field: "resolve_burst", Value: c.ResolveBurst}
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return &ConfigError{Field: "log_level", Value: c.LogLevel, cause: err}
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return &ConfigError{Field: "log_format", Value: c.LogFormat}
	}

	switch c.Catalog.Backend {
	case "local", "memory":
	case "s3", "minio":
		if c.Catalog.Bucket == "" {
			return &ConfigError{Field: "catalog.bucket", Value: c.Catalog.Bucket}
		}
	default:
		return &ConfigError{Field: "catalog.backend", Value: c.Catalog.Backend}
	}
	if c.Catalog.Backend == "minio" && c.Catalog.Endpoint == "" {
		return &ConfigError{Field: "catalog.endpoint", Value: c.Catalog.Endpoint}
	}
	if c.Catalog.Snapshot == "" {
		return &ConfigError{Field: "catalog.snapshot", Value: c.Catalog.Snapshot}
	}

	switch c.Resolver.Source {
	case "", "blob", "none":
	case "etcd":
		if len(c.Resolver.Endpoints) == 0 {
			return &ConfigError{Field: "resolver.endpoints", Value: c.Resolver.Endpoints}
		}
	case "dynamodb":
		if c.Resolver.Table == "" {
			return &ConfigError{Field: "resolver.table", Value: c.Resolver.Table}
		}
	default:
		return &ConfigError{Field: "resolver.source", Value: c.Resolver.Source}
	}

	switch c.Index.Backend {
	case "", "none", "memory", "redis":
	default:
		return &ConfigError{Field: "index.backend", Value: c.Index.Backend}
	}
	return nil
}

// Logger builds the configured logger.
func (c Config) Logger() *Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	if strings.EqualFold(c.LogFormat, "json") {
		return NewJSONLogger(level)
	}
	return NewTextLogger(level)
}

// Options translates the search settings into Searcher options.
func (c Config) Options() []Option {
	return []Option{
		WithMaxDepth(c.MaxDepth),
		WithGroupExpansion(c.ExpandGroups),
		WithMaxConcurrentResolves(c.MaxConcurrentResolves),
		WithLogger(c.Logger()),
	}
}

// ResourceConfig returns the limits applied to reference fetches across all
// searches.
func (c Config) ResourceConfig() resource.Config {
	return resource.Config{
		MaxConcurrent: int64(c.MaxConcurrentResolves),
		RatePerSec:    c.ResolveRatePerSec,
		Burst:         c.ResolveBurst,
	}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	err := level.UnmarshalText([]byte(s))
	return level, err
}
