package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "database:\n  dsn: \"host=localhost\"\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, float64(10), cfg.Server.RateLimitPerSec)
	assert.Equal(t, 30, cfg.Server.CacheTTLSeconds)
	assert.Equal(t, "equipment-tracker", cfg.Bus.Exchange)
	assert.Equal(t, 3600, cfg.Push.TTL)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.Equal(t, 2*time.Hour, cfg.Scheduling.Slot)
	assert.Equal(t, 500*time.Millisecond, cfg.Broadcast.Timeout)
}

func TestLoad_ExplicitValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  port: 9090
  rate_limit_per_sec: 25
  cache_ttl_seconds: 5
scheduling:
  slot_minutes: 60
broadcast:
  timeout_millis: 100
`))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, float64(25), cfg.Server.RateLimitPerSec)
	assert.Equal(t, 5, cfg.Server.CacheTTLSeconds)
	assert.Equal(t, time.Hour, cfg.Scheduling.Slot)
	assert.Equal(t, 100*time.Millisecond, cfg.Broadcast.Timeout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
