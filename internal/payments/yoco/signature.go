package yoco

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifySignature checks an HMAC-SHA256 hex signature over the raw webhook
// body. It never panics or errors; a missing secret simply fails
// verification. Comparison is constant time.
func VerifySignature(rawBody []byte, signatureHeader, secret string) bool {
	if secret == "" || signatureHeader == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	provided := strings.TrimSpace(signatureHeader)
	provided = strings.TrimPrefix(provided, "sha256=")

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(provided)))
}

// Sign produces the hex signature for a body.
func Sign(rawBody []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	return hex.EncodeToString(mac.Sum(nil))
}
