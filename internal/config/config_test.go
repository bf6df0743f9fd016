package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "http://localhost:2050", cfg.Backend.URL)
	assert.Equal(t, time.Second, cfg.Status.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.Status.RequestTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yml := `
backend:
  url: http://backend:9000
status:
  pollInterval: 2s
redis:
  addr: redis:6379
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(yml), 0o600))

	t.Setenv("PAYFORM_BACKEND_URL", "http://override:2050")
	t.Setenv("PAYFORM_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := LoadConfig("", dir)
	require.NoError(t, err)

	assert.Equal(t, "http://override:2050", cfg.Backend.URL, "env wins over file")
	assert.Equal(t, 2*time.Second, cfg.Status.PollInterval)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "DEBUG", cfg.Log.Level)
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("PAYFORM_KAFKA_TOPICPREFIX=dev.\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("PAYFORM_KAFKA_TOPICPREFIX") })

	cfg, err := LoadConfig(envPath, dir)
	require.NoError(t, err)
	assert.Equal(t, "dev.", cfg.Kafka.TopicPrefix)
}

func TestLoadConfigMissingDotEnvIsIgnored(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadConfig(filepath.Join(dir, "missing.env"), dir)
	assert.NoError(t, err)
}

func TestLoadConfigRejectsBadInterval(t *testing.T) {
	t.Setenv("PAYFORM_STATUS_POLLINTERVAL", "0s")
	_, err := LoadConfig("", t.TempDir())
	assert.ErrorContains(t, err, "pollInterval")
}
