package core

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Fingerprint builds a stable hash over a set of key=value parts.
// Parts are sorted so callers do not need to worry about ordering.
func Fingerprint(parts ...string) Hash {
	sorted := make([]string, len(parts))
	copy(sorted, parts)
	sort.Strings(sorted)
	return NewHash([]byte(strings.Join(sorted, "|")))
}
