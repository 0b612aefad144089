package wallet

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign computes the lowercase hex HMAC-SHA256 digest of payload under secret.
// The payload must be the exact byte sequence sent on the wire: the provider
// recomputes the digest over the body it receives, so any difference in key
// order or whitespace invalidates the signature.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
