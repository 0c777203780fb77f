package catalogsearch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
max_depth: 5
expand_groups: true
max_concurrent_resolves: 8
resolve_rate_per_sec: 50
resolve_burst: 10
log_level: debug
log_format: json
catalog:
  backend: s3
  bucket: catalogs
  prefix: prod/
  snapshot: catalog.json.zst
resolver:
  source: etcd
  endpoints: ["127.0.0.1:2379"]
index:
  backend: redis
  url: redis://localhost:6379
`))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxDepth)
	assert.True(t, cfg.ExpandGroups)
	assert.Equal(t, "s3", cfg.Catalog.Backend)
	assert.Equal(t, "catalog.json.zst", cfg.Catalog.Snapshot)
	assert.Equal(t, []string{"127.0.0.1:2379"}, cfg.Resolver.Endpoints)
	assert.Equal(t, "redis", cfg.Index.Backend)

	rc := cfg.ResourceConfig()
	assert.Equal(t, int64(8), rc.MaxConcurrent)
	assert.Equal(t, 50.0, rc.RatePerSec)
	assert.Equal(t, 10, rc.Burst)

	o := applyOptions(cfg.Options())
	assert.Equal(t, 5, o.maxDepth)
	assert.True(t, o.expandGroups)
	assert.Equal(t, 8, o.maxConcurrentResolves)
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"LogLevel", "log_level: loud", "log_level"},
		{"LogFormat", "log_format: xml", "log_format"},
		{"Backend", "catalog: {backend: ftp, snapshot: x}", "catalog.backend"},
		{"Bucket", "catalog: {backend: s3, snapshot: x}", "catalog.bucket"},
		{"MinioEndpoint", "catalog: {backend: minio, bucket: b, snapshot: x}", "catalog.endpoint"},
		{"Snapshot", "catalog: {backend: local, snapshot: ''}", "catalog.snapshot"},
		{"ResolverSource", "resolver: {source: http}", "resolver.source"},
		{"EtcdEndpoints", "resolver: {source: etcd}", "resolver.endpoints"},
		{"DynamoTable", "resolver: {source: dynamodb}", "resolver.table"},
		{"IndexBackend", "index: {backend: elastic}", "index.backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			var ce *ConfigError
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.Equal(t, tt.field, ce.Field)
		})
	}

	_, err := ParseConfig([]byte("max_depth: [1"))
	assert.Error(t, err)
}

func TestParseConfig_DepthZeroOnly(t *testing.T) {
	cfg, err := ParseConfig([]byte("max_depth: -1"))
	require.NoError(t, err)
	assert.Equal(t, -1, cfg.MaxDepth)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalogsearch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_depth: 3\ncatalog:\n  backend: memory\n  snapshot: c.json\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxDepth)
	assert.Equal(t, "memory", cfg.Catalog.Backend)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
