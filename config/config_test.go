package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
user_id: user-1
server:
  port: 9090
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "user-1", cfg.UserID)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "vigil.db", cfg.Database.DSN)
	assert.Equal(t, 60*time.Second, cfg.Sync.Interval)
	assert.Equal(t, 2*time.Second, cfg.Sync.SettleDelay)
	assert.Equal(t, "dose_logs", cfg.Sync.Remote.Table)
	assert.Equal(t, 10*time.Second, cfg.Connectivity.ProbeInterval)
	assert.Equal(t, 3*time.Second, cfg.Scanner.Debounce)
	assert.Equal(t, 10, cfg.Scanner.FrameRate)
	assert.Equal(t, 280, cfg.Scanner.ScanBoxPx)
	assert.Equal(t, 5, cfg.Scanner.LowEndFrameRate)
	assert.Equal(t, 200, cfg.Scanner.LowEndScanBoxPx)
	assert.Equal(t, 3600, cfg.DrugDB.CacheTTLSeconds)
	assert.Equal(t, 60, cfg.Reminder.CheckIntervalSeconds)
	assert.Equal(t, "UTC", cfg.Reminder.Timezone)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: postgres
  dsn: "host=localhost user=vigil dbname=vigil"
scanner:
  debounce_millis: 1500
sync:
  interval_seconds: 30
  settle_delay_seconds: 5
reminder:
  timezone: America/New_York
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 1500*time.Millisecond, cfg.Scanner.Debounce)
	assert.Equal(t, 30*time.Second, cfg.Sync.Interval)
	assert.Equal(t, 5*time.Second, cfg.Sync.SettleDelay)
	assert.Equal(t, "America/New_York", cfg.Reminder.Timezone)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
