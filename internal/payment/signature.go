package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// signatureSeparator never appears in gateway order or payment ids.
const signatureSeparator = "|"

// ExpectedSignature is the lowercase hex HMAC-SHA256 of "orderID|paymentID" keyed by secret.
func ExpectedSignature(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + signatureSeparator + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature was produced by the gateway for
// this order and payment. Missing ids are a validation error, not a mismatch.
// The comparison runs in constant time.
func VerifySignature(orderID, paymentID, signature, secret string) (bool, error) {
	if orderID == "" {
		return false, fmt.Errorf("%w: order id is required", ErrValidation)
	}
	if paymentID == "" {
		return false, fmt.Errorf("%w: payment id is required", ErrValidation)
	}

	expected := ExpectedSignature(orderID, paymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature)), nil
}
