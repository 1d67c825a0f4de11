// Package codec provides the wire-codec interface used to produce the
// canonical byte form of a payload before it is handed to a backing store.
package codec

// Codec serializes values into the canonical byte form stored by a blob
// store, and back.
type Codec interface {
	// Marshal serializes v into bytes.
	Marshal(v any) ([]byte, error)
	// Unmarshal deserializes data into v (must be a pointer).
	Unmarshal(data []byte, v any) error
	// Name returns the codec identifier used for diagnostics.
	Name() string
}
