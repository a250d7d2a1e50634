package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaveportal/internal/config"
	"leaveportal/internal/leave"
)

func TestOpenFileBackend(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.StudentCredentialsFile = filepath.Join(dir, "s.txt")
	cfg.HODCredentialsFile = filepath.Join(dir, "h.txt")
	cfg.LeaveApplicationsFile = filepath.Join(dir, "a.txt")

	b, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer b.Close()
	assert.IsType(t, &leave.FileStore{}, b)

	require.NoError(t, b.Init(context.Background()))
	for _, p := range []string{cfg.StudentCredentialsFile, cfg.HODCredentialsFile, cfg.LeaveApplicationsFile} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}
}

func TestOpenSQLiteBackend(t *testing.T) {
	cfg := config.Defaults()
	cfg.StoreBackend = "sqlite"
	cfg.SQLitePath = filepath.Join(t.TempDir(), "nested", "leave.db")

	ctx := context.Background()
	b, err := Open(ctx, cfg, nil)
	require.NoError(t, err)
	defer b.Close()
	require.NoError(t, b.Init(ctx))

	require.NoError(t, b.Write(ctx, "bob", "pw2", leave.RoleHOD))
	ok, err := b.Verify(ctx, "bob", "pw2", leave.RoleHOD)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpenUnknownBackend(t *testing.T) {
	cfg := config.Defaults()
	cfg.StoreBackend = "mongo"
	_, err := Open(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestNewRedisEmptyAddr(t *testing.T) {
	r := NewRedis(config.Defaults())
	assert.Nil(t, r)
	assert.False(t, r.Healthy(context.Background()))
	assert.NoError(t, r.Close())
}

func TestRedisKeys(t *testing.T) {
	cfg := config.Defaults()
	cfg.RedisAddr = "127.0.0.1:0"
	cfg.RedisPrefix = "portal-a"
	r := NewRedis(cfg)
	require.NotNil(t, r)
	defer r.Close()

	assert.Equal(t, "portal-a:healthz", r.Key("healthz"))
	assert.Equal(t, "portal-a:ratelimit:10.0.0.1", r.Key("ratelimit", "10.0.0.1"))
	assert.NotNil(t, r.Limiter(5))
}

func TestRedisHealthyWritesUnderPrefix(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	cfg := config.Defaults()
	cfg.RedisAddr = addr
	cfg.RedisPrefix = "leaveportal-test-" + uuid.NewString()
	r := NewRedis(cfg)
	defer r.Close()

	ctx := context.Background()
	require.True(t, r.Healthy(ctx))
	ttl, err := r.Client.TTL(ctx, r.Key("healthz")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	ok, err := r.Limiter(1).Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, ok)
	keys, err := r.Client.Keys(ctx, r.Key("ratelimit", "ip", "*")).Result()
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}
