// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// errors.go — sentinel error variables returned by the public claimcheck
// API, covering store connectivity, encode-side write failures, decode-side
// lookup failures, and malformed stored payloads.

// Package claimcheck implements the claim-check messaging pattern as a
// payload codec: payloads above a size threshold are persisted in a backing
// store (PostgreSQL or Redis) and replaced on the wire by a small reference
// token, then transparently resolved back on decode.
package claimcheck

import "errors"

// Store errors
var (
	ErrConnection   = errors.New("claimcheck: store connection failed")
	ErrStorageWrite = errors.New("claimcheck: failed to persist payload")
	ErrNotFound     = errors.New("claimcheck: stored payload not found")
)

// Payload errors
var (
	ErrSerialization = errors.New("claimcheck: malformed stored payload")
	ErrDecompress    = errors.New("claimcheck: failed to decompress stored payload")
)

// Lifecycle errors
var (
	ErrClosed        = errors.New("claimcheck: codec closed")
	ErrInvalidConfig = errors.New("claimcheck: invalid configuration")
)
