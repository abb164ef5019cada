// Package security issues flow session tokens and derives log-safe identifiers.
package security

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a stable, non-reversible identifier for an email address so that telemetry,
// limiter keys and logs never carry the address itself. Case and surrounding space are ignored.
func Fingerprint(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:12])
}
