// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// payload.go — the Payload value (opaque body + binary metadata) that is the
// unit of substitution, the reference-token wire format constants, and the
// helpers for building and recognising token payloads.

package claimcheck

// Metadata keys and values making up the reference-token wire format.
// The version tag is the only signal decode uses to decide whether the
// stored bytes must be decompressed; it travels with the token and is never
// inferred from content.
const (
	// MetadataEncodingKey is the standard payload-encoding metadata key.
	MetadataEncodingKey = "encoding"

	// EncodingClaimChecked marks a payload whose body is a store token
	// rather than real data.
	EncodingClaimChecked = "claim-checked"

	// MetadataCodecKey carries the codec version tag on token payloads.
	MetadataCodecKey = "claim-check-codec"

	// VersionUncompressed tags blobs stored as raw serialized bytes.
	VersionUncompressed = "v1"

	// VersionCompressed tags blobs that were gzip-compressed before storage.
	VersionCompressed = "v1c"
)

// Payload is an opaque message body plus string-keyed binary metadata.
// It mirrors the transport's payload unit and is immutable once built.
type Payload struct {
	Metadata map[string][]byte `json:"metadata,omitempty" msgpack:"metadata"`
	Data     []byte            `json:"data,omitempty" msgpack:"data"`
}

// Clone returns a deep copy of p.
func (p Payload) Clone() Payload {
	out := Payload{Data: append([]byte(nil), p.Data...)}
	if p.Metadata != nil {
		out.Metadata = make(map[string][]byte, len(p.Metadata))
		for k, v := range p.Metadata {
			out.Metadata[k] = append([]byte(nil), v...)
		}
	}
	return out
}

// CodecVersion returns the claim-check version tag carried by p, or "" when
// p is not a claim-checked payload.
func (p Payload) CodecVersion() string {
	switch v := string(p.Metadata[MetadataCodecKey]); v {
	case VersionUncompressed, VersionCompressed:
		return v
	default:
		return ""
	}
}

// IsClaimChecked reports whether p carries a reference token instead of
// real data.
func (p Payload) IsClaimChecked() bool {
	return p.CodecVersion() != ""
}

// TokenID returns the store key carried in the body of a token payload.
func (p Payload) TokenID() string {
	return string(p.Data)
}

// NewTokenPayload builds the reference-token payload for a stored blob.
func NewTokenPayload(id, version string) Payload {
	return Payload{
		Metadata: map[string][]byte{
			MetadataEncodingKey: []byte(EncodingClaimChecked),
			MetadataCodecKey:    []byte(version),
		},
		Data: []byte(id),
	}
}
