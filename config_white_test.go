package claimcheck

// White-box coverage of the Config→Options mapping, in particular the
// per-backend decode failure-policy defaults.

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCodecOptions_BackendPolicyDefaults(t *testing.T) {
	cfg := &Config{Backend: BackendPostgres, TTLHours: 24}
	assert.Equal(t, FailurePolicyPassThrough, cfg.codecOptions().FailurePolicy)

	cfg.Backend = BackendRedis
	assert.Equal(t, FailurePolicyPropagate, cfg.codecOptions().FailurePolicy)

	// Explicit policy wins over the backend convention.
	cfg.FailurePolicy = FailurePolicyPassThrough
	assert.Equal(t, FailurePolicyPassThrough, cfg.codecOptions().FailurePolicy)
}

func TestCodecOptions_CarriesTuning(t *testing.T) {
	cfg := &Config{
		Backend:              BackendPostgres,
		TTLHours:             6,
		Compression:          true,
		CompressionThreshold: 512,
		OpTimeout:            2 * time.Second,
	}
	opts := cfg.codecOptions()
	assert.Equal(t, 6*time.Hour, opts.TTL)
	assert.True(t, *opts.Compression)
	assert.Equal(t, 512, opts.CompressionThreshold)
	assert.Equal(t, 2*time.Second, opts.OpTimeout)
}

func TestOptions_Defaults(t *testing.T) {
	var opts Options
	opts.defaults()
	assert.Equal(t, 24*time.Hour, opts.TTL)
	assert.True(t, *opts.Compression)
	assert.Equal(t, 250, opts.CompressionThreshold)
	assert.Equal(t, FailurePolicyPassThrough, opts.FailurePolicy)
	assert.Equal(t, 5*time.Second, opts.OpTimeout)
	assert.NotNil(t, opts.Wire)
	assert.NotNil(t, opts.Clock)
	assert.NotNil(t, opts.Metrics)
	assert.NotNil(t, opts.Logger)
}
