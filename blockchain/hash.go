// Package blockchain computes transaction attestation hashes and talks to the
// EVM node the hashes are anchored against.
package blockchain

import (
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"saveai-api/model"

	"golang.org/x/crypto/sha3"
)

// HashLength is the length of an attestation hash including the 0x prefix.
const HashLength = 66

var hashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// CanonicalPayload is the byte sequence an attestation hash commits to. Only
// fields that never change after creation take part, and each is rendered in
// a form that survives a round trip through Postgres.
func CanonicalPayload(t *model.Transaction) []byte {
	parts := []string{
		t.ID.String(),
		string(t.Type),
		t.Amount.StringFixed(2),
		strings.ToUpper(t.Currency),
		t.Timestamp.UTC().Truncate(time.Microsecond).Format(time.RFC3339Nano),
		t.UserID.String(),
	}
	return []byte(strings.Join(parts, "|"))
}

// AttestationHash returns the Keccak-256 of the canonical payload as 0x-prefixed lower-case hex.
func AttestationHash(t *model.Transaction) string {
	h := sha3.NewLegacyKeccak256()
	h.Write(CanonicalPayload(t))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// IsValidHash reports whether s has the shape of an attestation hash.
func IsValidHash(s string) bool {
	return hashPattern.MatchString(s)
}

// NormalizeHash lower-cases a hash so lookups are case-insensitive.
func NormalizeHash(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
