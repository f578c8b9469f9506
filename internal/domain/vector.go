package domain

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// payloadKind tags the source shape of an embedding payload.
type payloadKind int

const (
	payloadFloats payloadKind = iota
	payloadBytes
	payloadString
)

// VectorPayload is an embedding of unknown provenance: a float slice, a
// float32 little-endian buffer, or a string encoding of a float array.
// The shape is resolved exactly once, at Normalize; no untyped payloads
// travel past this boundary.
type VectorPayload struct {
	kind   payloadKind
	floats []float32
	bytes  []byte
	str    string
}

// VectorFromFloats wraps an already-decoded vector.
func VectorFromFloats(v []float32) VectorPayload {
	return VectorPayload{kind: payloadFloats, floats: v}
}

// VectorFromBytes wraps a float32 little-endian binary buffer.
func VectorFromBytes(b []byte) VectorPayload {
	return VectorPayload{kind: payloadBytes, bytes: b}
}

// VectorFromString wraps a string encoding: a JSON array or a
// bracket-wrapped comma-separated list.
func VectorFromString(s string) VectorPayload {
	return VectorPayload{kind: payloadString, str: s}
}

// Normalize coerces the payload into a vector of exactly dims finite
// float32 values. Decoding failures and non-finite elements degrade to
// zeros instead of failing: a malformed cache record costs retrieval
// quality, not the request. Dimensionality validation downstream remains
// the authoritative gate.
func (p VectorPayload) Normalize(dims int) []float32 {
	var vec []float32

	switch p.kind {
	case payloadFloats:
		vec = p.floats
	case payloadBytes:
		vec = decodeFloat32LE(p.bytes)
	case payloadString:
		vec = decodeVectorString(p.str)
	}

	out := make([]float32, dims)
	for i := 0; i < dims && i < len(vec); i++ {
		f := vec[i]
		if isFinite(f) {
			out[i] = f
		}
	}
	return out
}

// ValidateDimensions checks that a vector has exactly dims finite elements.
func ValidateDimensions(vec []float32, dims int) error {
	if len(vec) != dims {
		return ErrVectorDimMismatch
	}
	for _, f := range vec {
		if !isFinite(f) {
			return ErrVectorDimMismatch
		}
	}
	return nil
}

// VectorToBytes serializes a vector as float32 little-endian (the store's
// BLOB format for FT.SEARCH and cache records).
func VectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func isFinite(f float32) bool {
	f64 := float64(f)
	return !math.IsNaN(f64) && !math.IsInf(f64, 0)
}

func decodeFloat32LE(b []byte) []float32 {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

func decodeVectorString(s string) []float32 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var parsed []float64
	if err := json.Unmarshal([]byte(s), &parsed); err == nil {
		v := make([]float32, len(parsed))
		for i, f := range parsed {
			v[i] = float32(f)
		}
		return v
	}

	// Permissive fallback: strip brackets, split on commas.
	cleaned := strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	if cleaned == "" {
		return nil
	}
	parts := strings.Split(cleaned, ",")
	v := make([]float32, 0, len(parts))
	for _, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		v = append(v, float32(f))
	}
	return v
}
