// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// plugin.go — the transport-facing adapter: installs the claim-check codec
// into a pluggable payload-conversion path when enabled, and stays a zero-
// dependency identity converter when disabled.

package claimcheck

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/AndrewDonelson/claimcheck/internal/pgstore"
	"github.com/AndrewDonelson/claimcheck/internal/redisstore"
)

// PayloadCodec is the pluggable data-converter seam consumed by the
// orchestration runtime: batch-oriented encode and decode applied to every
// payload crossing the transport boundary.
type PayloadCodec interface {
	Encode(ctx context.Context, payloads []Payload) ([]Payload, error)
	Decode(ctx context.Context, payloads []Payload) ([]Payload, error)
}

// Identity is the inert converter used when claim-check is disabled: both
// directions return the batch unchanged.
var Identity PayloadCodec = identityCodec{}

type identityCodec struct{}

func (identityCodec) Encode(_ context.Context, payloads []Payload) ([]Payload, error) {
	return payloads, nil
}

func (identityCodec) Decode(_ context.Context, payloads []Payload) ([]Payload, error) {
	return payloads, nil
}

// Plugin toggles the codec on the transport's converter path from
// configuration. Construction is side-effect-free; no store is dialed until
// DataCodec is called with the feature enabled.
type Plugin struct {
	cfg    *Config
	logger Logger
}

// NewPlugin wraps cfg. Never dials anything.
func NewPlugin(cfg *Config) *Plugin {
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Plugin{cfg: cfg, logger: logger}
}

// Enabled reports whether claim-check substitution is switched on.
func (p *Plugin) Enabled() bool { return p.cfg.Enabled }

// DataCodec returns the converter to install on the transport: Identity
// when the feature is disabled, otherwise a live Codec wired to the
// configured backend. The caller owns the returned codec and must Close it
// (closing Identity is not required).
func (p *Plugin) DataCodec(ctx context.Context) (PayloadCodec, error) {
	if !p.cfg.Enabled {
		return Identity, nil
	}
	p.logger.Info("installing claim check codec",
		"backend", p.cfg.Backend,
		"compression", p.cfg.Compression,
		"threshold_bytes", p.cfg.CompressionThreshold,
		"ttl_hours", p.cfg.TTLHours)
	return NewFromConfig(ctx, p.cfg)
}

// NewFromConfig dials the configured backend and builds a Codec over it.
func NewFromConfig(ctx context.Context, cfg *Config) (*Codec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := cfg.codecOptions()

	switch cfg.Backend {
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("%w: redis %s: %v", ErrConnection, cfg.RedisAddr(), err)
		}
		return NewCodec(redisstore.New(redisstore.Options{Client: client}), opts), nil

	case BackendPostgres:
		store, err := pgstore.Connect(ctx, cfg.PostgresDSN, pgstore.Options{})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConnection, err)
		}
		return NewCodec(store, opts), nil

	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, cfg.Backend)
	}
}
