package cryptox

import (
	"crypto/sha256"
	"encoding/base64"
)

// Fingerprint returns a deterministic SHA-256 fingerprint of a token as a
// base64url string. Refresh tokens are stored as fingerprints so a database
// leak never exposes a usable credential, while exact-match lookup still works.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
