package yoco

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"id":"evt_1","type":"payment.succeeded"}`)
	secret := "whsec_test"

	assert.True(t, VerifySignature(body, Sign(body, secret), secret))
	assert.True(t, VerifySignature(body, "sha256="+Sign(body, secret), secret))

	assert.False(t, VerifySignature(body, Sign(body, "other"), secret), "wrong secret")
	assert.False(t, VerifySignature([]byte(`{"tampered":true}`), Sign(body, secret), secret), "tampered body")
	assert.False(t, VerifySignature(body, "", secret), "missing header")
	assert.False(t, VerifySignature(body, Sign(body, secret), ""), "no secret configured")
}
