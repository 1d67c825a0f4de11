// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// codec.go — the claim-check substitution protocol: batch Encode replaces
// each payload with a stored-blob reference token, batch Decode resolves
// tokens back to the original payloads, with owner-scoped cleanup and
// expiry sweeps forwarded to the backing store.

package claimcheck

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/AndrewDonelson/claimcheck/internal/blobstore"
	"github.com/AndrewDonelson/claimcheck/internal/clock"
	"github.com/AndrewDonelson/claimcheck/internal/codec"
	"github.com/AndrewDonelson/claimcheck/internal/compress"
	"github.com/AndrewDonelson/claimcheck/internal/metrics"
)

// Re-export types so callers only import this package.
type WireCodec = codec.Codec
type Clock = clock.Clock
type Recorder = metrics.Recorder

// FailurePolicy controls what Decode does when a token cannot be resolved
// (record missing, store error, corrupt bytes).
type FailurePolicy int

const (
	// FailurePolicyDefault lets the constructor pick the backend's
	// conventional policy: pass-through for Postgres, propagate for Redis.
	FailurePolicyDefault FailurePolicy = iota

	// FailurePolicyPassThrough logs the failure and returns the original
	// token payload unchanged, so one lost record does not abort a batch.
	// Consumers must treat an unresolved token payload as a possible
	// signal of backend data loss.
	FailurePolicyPassThrough

	// FailurePolicyPropagate fails the whole Decode call.
	FailurePolicyPropagate
)

// OwnerContext identifies the logical unit of work (workflow and run) that
// created a stored blob, for scoped cleanup when it completes.
type OwnerContext struct {
	PrimaryID   string
	SecondaryID string
}

type ownerCtxKey struct{}

// WithOwner returns a context carrying the owner identity attached to every
// blob stored by Encode calls under it.
func WithOwner(ctx context.Context, owner OwnerContext) context.Context {
	return context.WithValue(ctx, ownerCtxKey{}, owner)
}

// OwnerFromContext extracts the owner identity, if any. Encode outside an
// owner context stores blobs reclaimed only by the TTL sweep.
func OwnerFromContext(ctx context.Context) (OwnerContext, bool) {
	owner, ok := ctx.Value(ownerCtxKey{}).(OwnerContext)
	return owner, ok
}

// Options configures a Codec. Zero values take the defaults below.
type Options struct {
	// TTL is the stored-blob lifetime. Default 24h.
	TTL time.Duration

	// Compression enables the size-threshold gzip strategy. Note this is a
	// *bool so the zero value means "default on".
	Compression *bool

	// CompressionThreshold is the minimum serialized size, in bytes, at
	// which a payload is compressed before storage. Default 250.
	CompressionThreshold int

	// FailurePolicy selects the Decode degradation behaviour. Default is
	// the backend's conventional policy (see FailurePolicyDefault).
	FailurePolicy FailurePolicy

	// OpTimeout bounds each store operation. Default 5s; <0 disables.
	OpTimeout time.Duration

	// Optional overrideable components.
	Wire    WireCodec
	Clock   Clock
	Metrics Recorder
	Logger  Logger
}

func (o *Options) defaults() {
	if o.TTL == 0 {
		o.TTL = 24 * time.Hour
	}
	if o.Compression == nil {
		on := true
		o.Compression = &on
	}
	if o.CompressionThreshold == 0 {
		o.CompressionThreshold = 250
	}
	if o.FailurePolicy == FailurePolicyDefault {
		o.FailurePolicy = FailurePolicyPassThrough
	}
	if o.OpTimeout == 0 {
		o.OpTimeout = 5 * time.Second
	}
	if o.Wire == nil {
		o.Wire = codec.Default
	}
	if o.Clock == nil {
		o.Clock = clock.Real{}
	}
	if o.Metrics == nil {
		o.Metrics = metrics.Noop{}
	}
	if o.Logger == nil {
		o.Logger = noopLogger{}
	}
}

type codecStats struct {
	Encodes      atomic.Int64
	Decodes      atomic.Int64
	PassThroughs atomic.Int64
	Compressed   atomic.Int64
	Errors       atomic.Int64
	BytesIn      atomic.Int64
	BytesStored  atomic.Int64
}

// Stats is the snapshot returned by Codec.Stats().
type Stats struct {
	Encodes      int64
	Decodes      int64
	PassThroughs int64
	Compressed   int64
	Errors       int64
	BytesIn      int64
	BytesStored  int64
}

// Codec substitutes large payloads for reference tokens backed by a blob
// store. Encode and Decode are safe for concurrent use.
//
// Encode is deliberately not idempotent: two encodes of identical bytes
// produce two distinct tokens and two stored records. There is no content
// addressing.
type Codec struct {
	store     blobstore.Store
	wire      WireCodec
	clock     Clock
	metrics   Recorder
	logger    Logger
	ttl       time.Duration
	compress  bool
	threshold int
	policy    FailurePolicy
	opTimeout time.Duration
	stats     codecStats
	closed    atomic.Bool
}

// NewCodec creates a Codec over the given store. The store is owned by the
// codec from here on and released by Close.
func NewCodec(store blobstore.Store, opts Options) *Codec {
	opts.defaults()
	return &Codec{
		store:     store,
		wire:      opts.Wire,
		clock:     opts.Clock,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		ttl:       opts.TTL,
		compress:  *opts.Compression,
		threshold: opts.CompressionThreshold,
		policy:    opts.FailurePolicy,
		opTimeout: opts.OpTimeout,
	}
}

// opCtx bounds a store operation by the configured timeout.
func (c *Codec) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.opTimeout)
}

// Encode substitutes every payload in the batch for a reference token.
// A store-write failure fails the whole call and returns no tokens; a
// silently dropped blob would corrupt the message stream.
func (c *Codec) Encode(ctx context.Context, payloads []Payload) ([]Payload, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	out := make([]Payload, 0, len(payloads))
	for _, p := range payloads {
		token, err := c.encodePayload(ctx, p)
		if err != nil {
			c.stats.Errors.Add(1)
			c.metrics.RecordError("encode")
			return nil, err
		}
		out = append(out, token)
	}
	return out, nil
}

func (c *Codec) encodePayload(ctx context.Context, p Payload) (Payload, error) {
	start := c.clock.Now()
	id := uuid.NewString()

	raw, err := c.wire.Marshal(&p)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	originalSize := len(raw)

	version := VersionUncompressed
	if c.compress && compress.Should(originalSize, c.threshold) {
		compressed, err := compress.Compress(raw)
		if err != nil {
			return Payload{}, fmt.Errorf("claimcheck: compress %s: %w", id, err)
		}
		raw = compressed
		version = VersionCompressed
		c.stats.Compressed.Add(1)
		c.logger.Debug("claim check encode compressed",
			"id", id, "original_bytes", originalSize, "stored_bytes", len(raw))
	} else {
		c.logger.Debug("claim check encode",
			"id", id, "bytes", originalSize,
			"compression_enabled", c.compress, "threshold", c.threshold)
	}

	now := c.clock.Now()
	rec := blobstore.Record{
		ID:        id,
		Data:      raw,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
	if owner, ok := OwnerFromContext(ctx); ok {
		rec.OwnerPrimary = owner.PrimaryID
		rec.OwnerSecondary = owner.SecondaryID
	}

	wctx, cancel := c.opCtx(ctx)
	defer cancel()
	if err := c.store.Write(wctx, rec); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}

	c.stats.Encodes.Add(1)
	c.stats.BytesIn.Add(int64(originalSize))
	c.stats.BytesStored.Add(int64(len(raw)))
	c.metrics.RecordLatency("encode", time.Since(start))
	c.metrics.RecordPayloadBytes("encode", originalSize, len(raw))
	return NewTokenPayload(id, version), nil
}

// Decode resolves every claim-checked payload in the batch back to its
// original form, preserving positional order. Payloads without the
// claim-check marker pass through unchanged, so Decode is safe to apply to
// a mixed stream. Each element resolves independently; under the
// pass-through policy one failed lookup does not abort the rest.
func (c *Codec) Decode(ctx context.Context, payloads []Payload) ([]Payload, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	out := make([]Payload, 0, len(payloads))
	for _, p := range payloads {
		version := p.CodecVersion()
		if version == "" {
			c.stats.PassThroughs.Add(1)
			out = append(out, p)
			continue
		}
		original, err := c.decodePayload(ctx, p, version)
		if err != nil {
			c.stats.Errors.Add(1)
			c.metrics.RecordError("decode")
			if c.policy == FailurePolicyPropagate {
				return nil, err
			}
			// Graceful policy: deliver the unresolved token payload so a
			// single lost record does not abort the batch.
			c.logger.Error("claim check decode failed, returning token unchanged",
				"id", p.TokenID(), "error", err)
			out = append(out, p)
			continue
		}
		out = append(out, original)
	}
	return out, nil
}

func (c *Codec) decodePayload(ctx context.Context, p Payload, version string) (Payload, error) {
	start := c.clock.Now()
	id := p.TokenID()

	rctx, cancel := c.opCtx(ctx)
	defer cancel()
	raw, err := c.store.Read(rctx, id)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return Payload{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Payload{}, fmt.Errorf("claimcheck: read %s: %w", id, err)
	}

	storedSize := len(raw)
	if version == VersionCompressed {
		raw, err = compress.Decompress(raw)
		if err != nil {
			return Payload{}, fmt.Errorf("%w: %s: %v", ErrDecompress, id, err)
		}
		c.logger.Debug("claim check decode decompressed",
			"id", id, "stored_bytes", storedSize, "original_bytes", len(raw))
	} else {
		c.logger.Debug("claim check decode", "id", id, "bytes", storedSize)
	}

	var original Payload
	if err := c.wire.Unmarshal(raw, &original); err != nil {
		return Payload{}, fmt.Errorf("%w: %s: %v", ErrSerialization, id, err)
	}

	c.stats.Decodes.Add(1)
	c.metrics.RecordLatency("decode", time.Since(start))
	c.metrics.RecordPayloadBytes("decode", len(raw), storedSize)
	return original, nil
}

// CleanupOwner removes every stored blob created under the given owner.
// An empty secondary id matches all blobs for the primary id. This is an
// optimization over waiting for TTL expiry; the sweep remains the safety
// net. On backends without owner context this is a logged no-op.
func (c *Codec) CleanupOwner(ctx context.Context, primary, secondary string) (int64, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	dctx, cancel := c.opCtx(ctx)
	defer cancel()
	n, err := c.store.DeleteOwner(dctx, primary, secondary)
	if err != nil {
		if errors.Is(err, blobstore.ErrOwnerCleanupUnsupported) {
			c.logger.Debug("owner cleanup not supported by backend", "owner", primary)
			return 0, nil
		}
		c.metrics.RecordError("cleanup")
		return 0, fmt.Errorf("claimcheck: cleanup owner %s: %w", primary, err)
	}
	c.logger.Info("cleaned up claim check payloads", "owner", primary, "deleted", n)
	return n, nil
}

// SweepExpired removes every stored blob past its expiry. No-op on backends
// with native key expiry.
func (c *Codec) SweepExpired(ctx context.Context) (int64, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	dctx, cancel := c.opCtx(ctx)
	defer cancel()
	n, err := c.store.DeleteExpired(dctx, c.clock.Now())
	if err != nil {
		c.metrics.RecordError("sweep")
		return 0, fmt.Errorf("claimcheck: sweep expired: %w", err)
	}
	if n > 0 {
		c.logger.Info("swept expired claim check payloads", "deleted", n)
	}
	return n, nil
}

// Ping verifies the backing store is reachable.
func (c *Codec) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Stats returns a snapshot of operational counters.
func (c *Codec) Stats() Stats {
	return Stats{
		Encodes:      c.stats.Encodes.Load(),
		Decodes:      c.stats.Decodes.Load(),
		PassThroughs: c.stats.PassThroughs.Load(),
		Compressed:   c.stats.Compressed.Load(),
		Errors:       c.stats.Errors.Load(),
		BytesIn:      c.stats.BytesIn.Load(),
		BytesStored:  c.stats.BytesStored.Load(),
	}
}

// Close releases the backing store. Safe to call more than once.
func (c *Codec) Close(ctx context.Context) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.store.Close(ctx)
}
