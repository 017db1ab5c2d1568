package mail

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Redact replaces every email-address-shaped token with a deterministic
// pseudonym derived from a one-way hash of the lowercased address, keeping
// the domain. The same address always maps to the same pseudonym, so
// grounding checks stay consistent between the full text and the chunks.
// The mapping is not reversible from this package.
func Redact(text string) string {
	return emailPattern.ReplaceAllStringFunc(text, func(match string) string {
		email := strings.ToLower(match)
		sum := sha256.Sum256([]byte(email))
		domain := email[strings.LastIndex(email, "@")+1:]
		return "user_" + hex.EncodeToString(sum[:])[:8] + "@" + domain
	})
}
