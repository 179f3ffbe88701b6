package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/fusionswap/settlement-engine/types"
)

// HashlockLength is the hex length of a SHA-256 digest.
const HashlockLength = 64

// SecretScope selects whether one revealed secret settles every fill of an
// order, or each fill commits to its own hashlock.
type SecretScope string

const (
	// SecretScopeOrder shares a single hashlock across all fills, so one
	// reveal is the order's entire information-disclosure event.
	SecretScopeOrder SecretScope = "order"
	// SecretScopeFill lets each fill carry its own hashlock.
	SecretScopeFill SecretScope = "fill"
)

// ComputeHashlock returns the canonical hashlock for a secret: the
// hex-encoded SHA-256 digest of the raw secret bytes.
func ComputeHashlock(secret []byte) string {
	sum := sha256.Sum256(secret)
	return hex.EncodeToString(sum[:])
}

// VerifySecret checks a revealed preimage against a stored hashlock,
// comparing the full digest. It is deterministic and has no side effects.
func VerifySecret(secret []byte, hashlock string) bool {
	want, err := hex.DecodeString(strings.ToLower(hashlock))
	if err != nil || len(want) != sha256.Size {
		return false
	}
	sum := sha256.Sum256(secret)
	for i := range sum {
		if sum[i] != want[i] {
			return false
		}
	}
	return true
}

// ValidateHashlock rejects digests that are not exactly 64 hex characters.
func ValidateHashlock(hashlock string) error {
	if len(hashlock) != HashlockLength {
		return types.ErrInvalidHashlock
	}
	if _, err := hex.DecodeString(hashlock); err != nil {
		return types.ErrInvalidHashlock
	}
	return nil
}
