package claimcheck_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndrewDonelson/claimcheck"
)

func TestPlugin_DisabledIsInert(t *testing.T) {
	cfg, err := claimcheck.FromEnv()
	require.NoError(t, err)
	// Point at a store that does not exist; a disabled plugin must never
	// try to reach it.
	cfg.PostgresDSN = "postgres://nobody@127.0.0.1:1/none"

	p := claimcheck.NewPlugin(cfg)
	assert.False(t, p.Enabled())

	pc, err := p.DataCodec(context.Background())
	require.NoError(t, err)
	assert.Equal(t, claimcheck.Identity, pc)
}

func TestIdentity_PassesBatchesUnchanged(t *testing.T) {
	batch := []claimcheck.Payload{
		{Data: []byte("one")},
		{Metadata: map[string][]byte{"encoding": []byte("json/plain")}, Data: []byte("two")},
	}

	out, err := claimcheck.Identity.Encode(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, batch, out)

	out, err = claimcheck.Identity.Decode(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, batch, out)
}

func TestNewFromConfig_RejectsBadBackend(t *testing.T) {
	cfg, err := claimcheck.FromEnv()
	require.NoError(t, err)
	cfg.Backend = "dynamo"

	_, err = claimcheck.NewFromConfig(context.Background(), cfg)
	assert.ErrorIs(t, err, claimcheck.ErrInvalidConfig)
}
