package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"LINKPULSE_ADDR":            ":9090",
		"LINKPULSE_STORE":           "postgres",
		"LINKPULSE_DATABASE_URL":    "postgres://u:p@localhost:5432/linkpulse?sslmode=disable",
		"LINKPULSE_STORE_TIMEOUT":   "750ms",
		"LINKPULSE_KAFKA_BROKERS":   "broker-1:9092, broker-2:9092,",
		"LINKPULSE_FINGERPRINT_KEY": "s3cret",
		"LINKPULSE_AUTO_MIGRATE":    "false",
	}
	cfg := Default()
	require.NoError(t, cfg.applyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, 750*time.Millisecond, cfg.Store.Timeout)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "s3cret", cfg.FingerprintKey)
	assert.False(t, cfg.Store.AutoMigrate)
	require.NoError(t, cfg.Validate())
}

func TestApplyEnvRejectsMalformedValues(t *testing.T) {
	env := map[string]string{
		"LINKPULSE_STORE_TIMEOUT":   "soon",
		"LINKPULSE_REDIS_POOL_SIZE": "many",
	}
	cfg := Default()
	err := cfg.applyEnv(func(k string) string { return env[k] })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LINKPULSE_STORE_TIMEOUT")
	assert.Contains(t, err.Error(), "LINKPULSE_REDIS_POOL_SIZE")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "postgres without url", mutate: func(c *Config) { c.Store.Backend = BackendPostgres }, want: "database url"},
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "mongo" }, want: "unknown store backend"},
		{name: "zero record timeout", mutate: func(c *Config) { c.RecordTimeout = 0 }, want: "record timeout"},
		{name: "redis without ttl", mutate: func(c *Config) { c.Redis.URL = "redis://localhost:6379"; c.Redis.TTL = 0 }, want: "cache ttl"},
		{name: "brokers without topic", mutate: func(c *Config) { c.Kafka.Brokers = []string{"b:9092"}; c.Kafka.Topic = "" }, want: "kafka topic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linkpulse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":7070"
store:
  backend: memory
  timeout: 1s
redis:
  url: redis://cache:6379/0
  ttl: 30s
kafka:
  brokers: [redpanda:9092]
  topic: visits
record_timeout: 5s
`), 0o600))

	cfg := Default()
	require.NoError(t, cfg.loadFile(path))
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, time.Second, cfg.Store.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, []string{"redpanda:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5*time.Second, cfg.RecordTimeout)
	// untouched sections keep their defaults
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
}
