package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
storage:
  data_path: /var/lib/chatstore
logging:
  level: debug
auth:
  signing_secrets: ["s1", "s2"]
blobs:
  max_size: 10MB
reconcile:
  enabled: true
  cron: "30 3 * * *"
  grace: 45m
  rate_rps: 5
  rate_burst: 2
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/chatstore", cfg.Storage.DataPath)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, []string{"s1", "s2"}, cfg.Auth.SigningSecrets)
	require.EqualValues(t, 10*1000*1000, cfg.Blobs.MaxSize)
	require.True(t, cfg.Reconcile.Enabled)
	require.Equal(t, "30 3 * * *", cfg.Reconcile.Cron)
	require.Equal(t, 45*time.Minute, cfg.Reconcile.Grace.Duration())
	require.Equal(t, 5.0, cfg.Reconcile.RateRPS)
	require.Equal(t, 2, cfg.Reconcile.RateBurst)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, DefaultDataPath, cfg.Storage.DataPath)
	require.Equal(t, DefaultReconcileCron, cfg.Reconcile.Cron)
	require.False(t, cfg.Reconcile.Enabled)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
storage:
  data_path: /from/file
`)
	t.Setenv("CHATSTORE_DATA_PATH", "/from/env")
	t.Setenv("CHATSTORE_RECONCILE_ENABLED", "true")
	t.Setenv("CHATSTORE_SIGNING_SECRETS", "k1, k2,")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/from/env", cfg.Storage.DataPath)
	require.True(t, cfg.Reconcile.Enabled)
	require.Equal(t, []string{"k1", "k2"}, cfg.Auth.SigningSecrets)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestSizeBytesPlainInteger(t *testing.T) {
	path := writeConfig(t, `
blobs:
  max_size: 4096
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.EqualValues(t, 4096, cfg.Blobs.MaxSize)
}

func TestDurationPlainSeconds(t *testing.T) {
	path := writeConfig(t, `
reconcile:
  grace: 90
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 90*time.Second, cfg.Reconcile.Grace.Duration())
}

func TestResolveConfigPath(t *testing.T) {
	require.Equal(t, "/explicit.yaml", ResolveConfigPath("/explicit.yaml", true))

	t.Setenv("CHATSTORE_CONFIG", "/env.yaml")
	require.Equal(t, "/env.yaml", ResolveConfigPath("", false))
}
