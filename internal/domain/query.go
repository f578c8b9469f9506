package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxQueryLength is the maximum accepted query length in characters.
const MaxQueryLength = 10000

// Query is an immutable inbound question with its normalized form and
// cache fingerprint. Construct via NewQuery; the zero value is invalid.
type Query struct {
	raw         string
	category    string
	normalized  string
	fingerprint string
}

// NewQuery validates the raw text and derives the normalized form and
// fingerprint. The category filter is optional (empty = no filter).
func NewQuery(raw, category string) (Query, error) {
	if strings.TrimSpace(raw) == "" {
		return Query{}, fmt.Errorf("%w: query is required", ErrInvalidQuery)
	}
	if n := utf8.RuneCountInString(raw); n > MaxQueryLength {
		return Query{}, fmt.Errorf("%w: query is too long (max %d characters): %d",
			ErrInvalidQuery, MaxQueryLength, n)
	}

	normalized := strings.ToLower(strings.TrimSpace(raw))
	return Query{
		raw:         raw,
		category:    strings.TrimSpace(category),
		normalized:  normalized,
		fingerprint: Fingerprint(normalized),
	}, nil
}

// Raw returns the query text as received.
func (q Query) Raw() string { return q.raw }

// Category returns the optional category filter ("" = no filter).
func (q Query) Category() string { return q.category }

// Normalized returns the trimmed, lower-cased query text.
func (q Query) Normalized() string { return q.normalized }

// Fingerprint returns the cache key derived from the normalized text.
func (q Query) Fingerprint() string { return q.fingerprint }

// Fingerprint computes the stable sha256 hex digest of a normalized query.
// Case and surrounding whitespace never change the fingerprint; any other
// difference (including punctuation) does.
func Fingerprint(normalized string) string {
	h := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(h[:])
}
