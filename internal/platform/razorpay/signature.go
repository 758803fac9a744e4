package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifySignature authenticates a checkout confirmation. The canonical
// message is "<identifier>|<paymentID>" where identifier is the order id for
// the one-time flow or the subscription id for the recurring flow. Any
// mismatch or missing input yields false; there is no path that trusts an
// unverifiable signature.
func VerifySignature(identifier, paymentID, signature, secret string) bool {
	if identifier == "" || paymentID == "" || signature == "" || secret == "" {
		return false
	}
	return verifyHMAC([]byte(identifier+"|"+paymentID), signature, secret)
}

// VerifyWebhookSignature authenticates a webhook delivery against the
// x-razorpay-signature header, computed over the raw request body.
func VerifyWebhookSignature(body []byte, signature, secret string) bool {
	if len(body) == 0 || signature == "" || secret == "" {
		return false
	}
	return verifyHMAC(body, signature, secret)
}

func verifyHMAC(message []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
