package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  port: 8080
  mode: release
database:
  host: db.internal
  port: 5432
  database: cfdetect
  username: scanner
  password: secret
redis:
  enabled: true
  addr: redis.internal:6379
dispatch:
  mode: kafka
kafka:
  brokers: ["kafka-1:9092", "kafka-2:9092"]
  group_id: scan-workers
quota:
  usage_store: redis
minio:
  enabled: true
  endpoint: minio.internal:9000
  access_key_id: key
  secret_access_key: secret
vision:
  local_enabled: true
  local:
    endpoint: http://vision.internal:8500
  router:
    auto_escalate: true
    timeout: 20s
worker:
  pool:
    workers: 4
detection:
  default_baseline: 20
  baselines:
    Sneakers: 30
log:
  level: debug
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FromFile_ValidConfig(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "scanner", cfg.Database.Username)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, DispatchKafka, cfg.Dispatch.Mode)
	assert.Equal(t, UsageStoreRedis, cfg.Quota.UsageStore)
	assert.Equal(t, "key", cfg.MinIO.AccessKeyID)
	assert.Equal(t, "http://vision.internal:8500", cfg.Vision.Local.Endpoint)
	assert.True(t, cfg.Vision.Router.AutoEscalate)
	assert.Equal(t, 20*time.Second, cfg.Vision.Router.Timeout)
	assert.Equal(t, 4, cfg.Worker.Pool.Workers)
	assert.Equal(t, 20, cfg.Detection.DefaultBaseline)
	assert.Equal(t, 30, cfg.Detection.Baselines["sneakers"])
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_FromFile_FileNotFound(t *testing.T) {
	_, err := Load(WithConfigPath("non_existent_config.yaml"))
	assert.ErrorIs(t, err, ErrConfigFileNotFound)
}

func TestLoad_FromFile_InvalidYAML(t *testing.T) {
	path := createTempConfigFile(t, "invalid_yaml: [")
	_, err := Load(WithConfigPath(path))
	assert.ErrorIs(t, err, ErrConfigParseError)
}

func TestLoad_FromFile_ValidationFailure(t *testing.T) {
	path := createTempConfigFile(t, "dispatch:\n  mode: smoke-signals\n")
	_, err := Load(WithConfigPath(path))
	assert.ErrorIs(t, err, ErrConfigValidation)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	t.Setenv("CFD_SERVER_PORT", "9999")

	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoad_EnvOverride_NestedKey(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	t.Setenv("CFD_VISION_LOCAL_ENDPOINT", "http://other:8500")
	t.Setenv("CFD_WORKER_POOL_WORKERS", "12")

	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)
	assert.Equal(t, "http://other:8500", cfg.Vision.Local.Endpoint)
	assert.Equal(t, 12, cfg.Worker.Pool.Workers)
}

func TestLoad_DefaultValues(t *testing.T) {
	path := createTempConfigFile(t, "database:\n  password: secret\n")
	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, DispatchInline, cfg.Dispatch.Mode)
	assert.Equal(t, DefaultDBHost, cfg.Database.Host)
	assert.Equal(t, 15, cfg.Detection.DefaultBaseline)
}

func TestLoad_WithSearchPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(validConfigYAML), 0o644))

	cfg, err := Load(WithSearchPaths(t.TempDir(), dir))
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
}

func TestLoad_WithSearchPaths_NotFound(t *testing.T) {
	_, err := Load(WithSearchPaths(t.TempDir()))
	assert.ErrorIs(t, err, ErrConfigFileNotFound)
}

func TestLoad_WithOverrides(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(WithConfigPath(path), WithOverrides(map[string]any{
		"server.port":   7777,
		"dispatch.mode": "inline",
	}))
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, DispatchInline, cfg.Dispatch.Mode)
}

func TestLoadFromFile_Convenience(t *testing.T) {
	cfg, err := LoadFromFile(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestLoadFromEnv_NoFile(t *testing.T) {
	t.Setenv("CFD_DATABASE_HOST", "env-db")
	t.Setenv("CFD_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CFD_DISPATCH_MODE", "kafka")
	t.Setenv("CFD_WORKER_STALE_AFTER", "30m")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "env-db", cfg.Database.Host)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, DispatchKafka, cfg.Dispatch.Mode)
	assert.Equal(t, 30*time.Minute, cfg.Worker.StaleAfter)
}

func TestMustLoad_Success(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	assert.NotPanics(t, func() { MustLoad(WithConfigPath(path)) })
}

func TestMustLoad_Panic(t *testing.T) {
	assert.Panics(t, func() { MustLoad(WithConfigPath("non_existent.yaml")) })
}

func TestLoad_SetsGlobalConfig(t *testing.T) {
	cfg, err := Load(WithConfigPath(createTempConfigFile(t, validConfigYAML)))
	require.NoError(t, err)
	assert.Same(t, cfg, Get())
}

func TestWatch_ReloadsDetection(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)

	var baseline atomic.Int64
	var failures atomic.Int64
	require.NoError(t, Watch(path, func(c *Config) {
		baseline.Store(int64(c.Detection.DefaultBaseline))
	}, func(error) { failures.Add(1) }))

	updated := strings.Replace(validConfigYAML, "default_baseline: 20", "default_baseline: 45", 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	assert.Eventually(t, func() bool { return baseline.Load() == 45 }, 5*time.Second, 20*time.Millisecond)

	broken := strings.Replace(updated, "default_baseline: 45", "default_baseline: 450", 1)
	require.NoError(t, os.WriteFile(path, []byte(broken), 0o644))

	assert.Eventually(t, func() bool { return failures.Load() > 0 }, 5*time.Second, 20*time.Millisecond)
	assert.NotEqual(t, int64(450), baseline.Load())
}

func TestWatch_MissingFile(t *testing.T) {
	err := Watch(filepath.Join(t.TempDir(), "absent.yaml"), func(*Config) {}, nil)
	assert.ErrorIs(t, err, ErrConfigParseError)
}

//Personal.AI order the ending
