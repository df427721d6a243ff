package investment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// VerifySignature recomputes the HMAC-SHA256 hex digest over
// "orderId|paymentId" with the shared gateway secret and compares it in
// constant time. Never skippable; a mismatch is security-relevant.
func VerifySignature(orderID string, paymentID string, signature string, secret []byte) error {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("%w: order %s", ErrSignatureMismatch, orderID)
	}
	return nil
}
