// Package token derives and verifies the capability tokens embedded in
// order action links. Tokens are a pure function of (orderID, secret); no
// server-side state or expiry exists, so a link stays valid until the order
// reaches a terminal status.
package token

import (
	"crypto/subtle"
	"strconv"
)

// Codec signs order identifiers with a shared secret.
type Codec struct {
	Secret string
}

// Generate computes the action token for an order. The scheme is a signed
// 32-bit rolling hash (h = h*31 + byte, wrapping) over the UTF-8 bytes of
// "orderID-secret", absolute value, base-36. The wire format is frozen:
// links already delivered by email must keep verifying across deploys.
func (c Codec) Generate(orderID string) string {
	var h int32
	payload := orderID + "-" + c.Secret
	for i := 0; i < len(payload); i++ {
		h = h*31 + int32(payload[i])
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36)
}

// Verify regenerates the token and compares in constant time.
func (c Codec) Verify(orderID, candidate string) bool {
	if candidate == "" {
		return false
	}
	expected := c.Generate(orderID)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(candidate)) == 1
}
