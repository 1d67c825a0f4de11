package claimcheck_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndrewDonelson/claimcheck"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := claimcheck.FromEnv()
	require.NoError(t, err)

	assert.False(t, cfg.Enabled)
	assert.Equal(t, claimcheck.BackendPostgres, cfg.Backend)
	assert.Equal(t, 24, cfg.TTLHours)
	assert.True(t, cfg.Compression)
	assert.Equal(t, 250, cfg.CompressionThreshold)
	assert.Equal(t, 24*time.Hour, cfg.TTL())
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
	assert.Equal(t, "127.0.0.1:8081", cfg.ServerAddr)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("USE_CLAIM_CHECK", "true")
	t.Setenv("CLAIM_CHECK_BACKEND", "redis")
	t.Setenv("CLAIM_CHECK_TTL_HOURS", "48")
	t.Setenv("CLAIM_CHECK_COMPRESSION", "false")
	t.Setenv("CLAIM_CHECK_COMPRESSION_THRESHOLD", "1024")
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := claimcheck.FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, claimcheck.BackendRedis, cfg.Backend)
	assert.Equal(t, 48*time.Hour, cfg.TTL())
	assert.False(t, cfg.Compression)
	assert.Equal(t, 1024, cfg.CompressionThreshold)
	assert.Equal(t, "cache.internal:6380", cfg.RedisAddr())
}

func TestConfig_Validate(t *testing.T) {
	cfg, err := claimcheck.FromEnv()
	require.NoError(t, err)

	cfg.Backend = "mongodb"
	assert.ErrorIs(t, cfg.Validate(), claimcheck.ErrInvalidConfig)

	cfg.Backend = claimcheck.BackendRedis
	cfg.TTLHours = 0
	assert.ErrorIs(t, cfg.Validate(), claimcheck.ErrInvalidConfig)

	cfg.TTLHours = 1
	cfg.CompressionThreshold = -1
	assert.ErrorIs(t, cfg.Validate(), claimcheck.ErrInvalidConfig)
}
