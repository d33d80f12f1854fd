package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 0\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "localhost", cfg.Server.Host)
	require.Equal(t, 3, cfg.Notifier.GraceDays)
	require.NotEmpty(t, cfg.Notifier.Message)
	require.Equal(t, 30*time.Second, cfg.SES.Timeout())
	require.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime())
}

func TestLoadValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  host: 0.0.0.0
database:
  url: postgres://library:pw@db:5432/library?sslmode=disable
  max_open_conns: 25
notifier:
  enabled: true
  hour: 6
  grace_days: 7
  message: bring the book back
ses:
  enabled: true
  region: sa-east-1
  from_address: library@example.com
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 25, cfg.Database.MaxOpenConns)
	require.Equal(t, 6, cfg.Notifier.Hour)
	require.Equal(t, 7, cfg.Notifier.GraceDays)
	require.Equal(t, "bring the book back", cfg.Notifier.Message)
	require.True(t, cfg.SES.Enabled)
	require.Equal(t, "sa-east-1", cfg.SES.Region)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	path := writeConfig(t, "database:\n  url: postgres://local\n")

	t.Setenv("DATABASE_URL", "postgres://override")
	t.Setenv("REDIS_URL", "redis://cache:6379")
	t.Setenv("AWS_SES_REGION", "us-west-2")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)

	require.Equal(t, "postgres://override", cfg.Database.URL)
	require.True(t, cfg.Redis.Enabled)
	require.Equal(t, "redis://cache:6379", cfg.Redis.URL)
	require.Equal(t, "us-west-2", cfg.SES.Region)
}

func TestLoadFromEnvMissingFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://envonly")

	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	require.Equal(t, "postgres://envonly", cfg.Database.URL)
	require.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
