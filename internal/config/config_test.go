package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_DefaultsApplied(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "server:\n  port: 9090\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, StorageBackendPostgres, cfg.Storage.Backend)
	require.Equal(t, 15*time.Minute, cfg.Upload.URLTTL)
	require.Equal(t, 5, cfg.Ranking.MaxAttempts)
	require.Equal(t, 100, cfg.Leaderboard.DefaultTopN)
	require.Equal(t, 1000, cfg.Leaderboard.MaxTopN)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
storage:
  backend: postgres
upload:
  password: from-file
`)
	t.Setenv("LIFTLOG_STORAGE_BACKEND", "memory")
	t.Setenv("LIFTLOG_UPLOAD_PASSWORD", "from-env")
	t.Setenv("LIFTLOG_SERVER_PORT", "7000")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, StorageBackendMemory, cfg.Storage.Backend)
	require.Equal(t, "from-env", cfg.Upload.Password)
	require.Equal(t, 7000, cfg.Server.Port)
}

func TestLoad_DotEnvNextToConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "logging:\n  format: text\n")
	writeFile(t, dir, ".env", "LIFTLOG_JWT_SECRET=dotenv-secret\n")
	t.Setenv("LIFTLOG_JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("LIFTLOG_JWT_SECRET"))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "dotenv-secret", cfg.Auth.JWTSecret)
	require.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "storage:\n  backend: firestore\n")

	_, err := Load(path)
	require.ErrorContains(t, err, "unknown storage backend")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorContains(t, err, "read config file")
}
