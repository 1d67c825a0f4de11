// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// pgstore.go — PostgreSQL backing store: idempotent schema bootstrap,
// transactional single-row inserts with owner context and absolute expiry,
// point lookups by token, owner-scoped cleanup, and bulk expiry sweeps.
// Rows hold base64 text so the payload column stays inspectable with plain
// SQL tooling.

// Package pgstore provides the relational backing-store implementation.
package pgstore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/AndrewDonelson/claimcheck/internal/blobstore"
	"github.com/AndrewDonelson/claimcheck/internal/lane"
)

const table = "claim_check_payloads"

// A *pgx.Conn is not safe for concurrent use, so every statement runs on the
// store's single-concurrency lane. The connection is owned exclusively by
// this store for its lifetime and released by Close.
type Store struct {
	conn        *pgx.Conn
	lane        *lane.Lane
	initialized bool // guarded by the lane: bootstrap runs at most once
}

// Options configures a new Store.
type Options struct {
	// QueueDepth bounds the lane's pending-statement queue. Default 64.
	QueueDepth int
}

// Connect dials PostgreSQL and returns a ready Store. The schema is
// bootstrapped lazily on first use, not here.
func Connect(ctx context.Context, dsn string, opts Options) (*Store, error) {
	if opts.QueueDepth == 0 {
		opts.QueueDepth = 64
	}
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore connect: %w", err)
	}
	return &Store{conn: conn, lane: lane.New(opts.QueueDepth)}, nil
}

// ensureSchema creates the payload table and its two supporting indexes.
// Runs on the lane, so the initialized flag needs no extra locking. The DDL
// uses IF NOT EXISTS and additionally tolerates the duplicate-object errors
// Postgres can raise when two connections race the same CREATE.
func (s *Store) ensureSchema(ctx context.Context) error {
	if s.initialized {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + table + ` (
			id              VARCHAR(36) NOT NULL PRIMARY KEY,
			payload_data    TEXT NOT NULL,
			workflow_id     VARCHAR(255) NOT NULL,
			workflow_run_id VARCHAR(255),
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
			expires_at      TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_claim_check_owner
			ON ` + table + ` (workflow_id, workflow_run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_claim_check_expires
			ON ` + table + ` (expires_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.conn.Exec(ctx, stmt); err != nil && !isDuplicateObject(err) {
			return fmt.Errorf("pgstore bootstrap: %w", err)
		}
	}
	s.initialized = true
	return nil
}

// isDuplicateObject reports whether err is a concurrent-DDL duplicate:
// 42P07 duplicate_table, 42710 duplicate_object, or the 23505 unique
// violation raised on the pg_type catalog when two CREATEs collide.
func isDuplicateObject(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "42P07", "42710", "23505":
		return true
	}
	return false
}

// Write inserts rec inside a transaction; a failed insert rolls back and
// surfaces the error.
func (s *Store) Write(ctx context.Context, rec blobstore.Record) error {
	return s.lane.Do(ctx, func(ctx context.Context) error {
		if err := s.ensureSchema(ctx); err != nil {
			return err
		}
		tx, err := s.conn.Begin(ctx)
		if err != nil {
			return fmt.Errorf("pgstore begin: %w", err)
		}
		encoded := base64.StdEncoding.EncodeToString(rec.Data)
		_, err = tx.Exec(ctx,
			`INSERT INTO `+table+`
				(id, payload_data, workflow_id, workflow_run_id, created_at, expires_at)
				VALUES ($1, $2, $3, $4, $5, $6)`,
			rec.ID, encoded, ownerOrUnknown(rec.OwnerPrimary), rec.OwnerSecondary,
			rec.CreatedAt, rec.ExpiresAt)
		if err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("pgstore insert %s: %w", rec.ID, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("pgstore commit %s: %w", rec.ID, err)
		}
		return nil
	})
}

// ownerOrUnknown keeps the NOT NULL workflow_id column satisfied for
// payloads encoded outside any workflow context.
func ownerOrUnknown(primary string) string {
	if primary == "" {
		return "unknown"
	}
	return primary
}

// Read returns the stored bytes for id, or blobstore.ErrNotFound.
func (s *Store) Read(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.lane.Do(ctx, func(ctx context.Context) error {
		if err := s.ensureSchema(ctx); err != nil {
			return err
		}
		var encoded string
		err := s.conn.QueryRow(ctx,
			`SELECT payload_data FROM `+table+` WHERE id = $1`, id).Scan(&encoded)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return blobstore.ErrNotFound
			}
			return fmt.Errorf("pgstore read %s: %w", id, err)
		}
		data, err = base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("pgstore read %s: corrupt base64: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// DeleteOwner removes the rows created under the given owner context. An
// empty secondary deletes all rows for the primary id regardless of run.
func (s *Store) DeleteOwner(ctx context.Context, primary, secondary string) (int64, error) {
	var deleted int64
	err := s.lane.Do(ctx, func(ctx context.Context) error {
		if err := s.ensureSchema(ctx); err != nil {
			return err
		}
		var ct pgconn.CommandTag
		var err error
		if secondary != "" {
			ct, err = s.conn.Exec(ctx,
				`DELETE FROM `+table+` WHERE workflow_id = $1 AND workflow_run_id = $2`,
				primary, secondary)
		} else {
			ct, err = s.conn.Exec(ctx,
				`DELETE FROM `+table+` WHERE workflow_id = $1`, primary)
		}
		if err != nil {
			return fmt.Errorf("pgstore delete-owner %s: %w", primary, err)
		}
		deleted = ct.RowsAffected()
		return nil
	})
	return deleted, err
}

// DeleteExpired removes every row whose expiry is before now.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var deleted int64
	err := s.lane.Do(ctx, func(ctx context.Context) error {
		if err := s.ensureSchema(ctx); err != nil {
			return err
		}
		ct, err := s.conn.Exec(ctx,
			`DELETE FROM `+table+` WHERE expires_at < $1`, now)
		if err != nil {
			return fmt.Errorf("pgstore delete-expired: %w", err)
		}
		deleted = ct.RowsAffected()
		return nil
	})
	return deleted, err
}

// Ping verifies the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.lane.Do(ctx, func(ctx context.Context) error {
		return s.conn.Ping(ctx)
	})
}

// Close drains the lane and releases the connection.
func (s *Store) Close(ctx context.Context) error {
	s.lane.Close()
	return s.conn.Close(ctx)
}
