package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "8001", cfg.HTTPPort)
	assert.Equal(t, "file", cfg.StoreBackend)
	assert.Equal(t, "student_credentials.txt", cfg.StudentCredentialsFile)
	assert.Equal(t, "hod_credentials.txt", cfg.HODCredentialsFile)
	assert.Equal(t, "leave_applications.txt", cfg.LeaveApplicationsFile)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("UPLOAD_DIR", "/tmp/up")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("RATE_LIMIT_PER_MIN", "5")
	t.Setenv("LOG_JSON", "true")

	cfg := Load()
	assert.Equal(t, "9000", cfg.HTTPPort)
	assert.Equal(t, "sqlite", cfg.StoreBackend)
	assert.Equal(t, "/tmp/up", cfg.UploadDir)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 5, cfg.RateLimitPerMin)
	assert.True(t, cfg.LogJSON)
}

func TestLoadInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("SESSION_TTL", "forever")
	t.Setenv("MAX_UPLOAD_MB", "lots")
	t.Setenv("LOG_JSON", "maybe")

	cfg := Load()
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 16, cfg.MaxUploadMB)
	assert.False(t, cfg.LogJSON)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaveportal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_port: "8100"
store_backend: postgres
upload_dir: /srv/uploads
session_ttl: 2h
`), 0o644))
	t.Setenv("HTTP_PORT", "8200")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "8200", cfg.HTTPPort)
	assert.Equal(t, "postgres", cfg.StoreBackend)
	assert.Equal(t, "/srv/uploads", cfg.UploadDir)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "leave_applications.txt", cfg.LeaveApplicationsFile)
}

func TestLoadFileRejectsBadBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store_backend: mongo\n"), 0o644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
