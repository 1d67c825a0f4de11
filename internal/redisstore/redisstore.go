// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// redisstore.go — Redis backing store: SET-with-TTL writes and point reads
// keyed by token. No schema bootstrap, no owner-context cleanup; blob
// reclamation relies entirely on Redis's native per-key expiry.

// Package redisstore provides the cache backing-store implementation.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AndrewDonelson/claimcheck/internal/blobstore"
)

// Store is the Redis blob-store adapter. The go-redis client is safe for
// concurrent use, so no execution lane is needed here.
type Store struct {
	client    redis.UniversalClient
	keyPrefix string
}

// Options configures a new Store.
type Options struct {
	Client redis.UniversalClient

	// KeyPrefix, when set, namespaces every blob key as "<prefix>:<id>".
	// Default is the bare token id, matching what the token payload carries.
	KeyPrefix string
}

// New creates a Store around an existing client.
func New(opts Options) *Store {
	return &Store{client: opts.Client, keyPrefix: opts.KeyPrefix}
}

func (s *Store) key(id string) string {
	if s.keyPrefix != "" {
		return s.keyPrefix + ":" + id
	}
	return id
}

// Write stores rec with a native TTL of ExpiresAt minus CreatedAt.
func (s *Store) Write(ctx context.Context, rec blobstore.Record) error {
	ttl := rec.ExpiresAt.Sub(rec.CreatedAt)
	if ttl < 0 {
		ttl = 0
	}
	k := s.key(rec.ID)
	if err := s.client.Set(ctx, k, rec.Data, ttl).Err(); err != nil {
		return fmt.Errorf("redisstore set %s: %w", k, err)
	}
	return nil
}

// Read returns the stored bytes for id, or blobstore.ErrNotFound once the
// key has expired or never existed.
func (s *Store) Read(ctx context.Context, id string) ([]byte, error) {
	k := s.key(id)
	b, err := s.client.Get(ctx, k).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, blobstore.ErrNotFound
		}
		return nil, fmt.Errorf("redisstore get %s: %w", k, err)
	}
	return b, nil
}

// DeleteOwner is unsupported: entries carry no owner context.
func (s *Store) DeleteOwner(ctx context.Context, primary, secondary string) (int64, error) {
	return 0, blobstore.ErrOwnerCleanupUnsupported
}

// DeleteExpired is a no-op; Redis expires keys natively.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

// Ping checks that Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Close()
}
