package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func sign(message, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature_RoundTrip(t *testing.T) {
	sig := sign("order_abc|pay_def", "s3cret")
	require.True(t, VerifySignature("order_abc", "pay_def", sig, "s3cret"))
}

func TestVerifySignature_SingleBitMutation(t *testing.T) {
	sig := sign("order_abc|pay_def", "s3cret")

	// flip the low bit of the first hex digit
	mutated := []byte(sig)
	if mutated[0] == '0' {
		mutated[0] = '1'
	} else {
		mutated[0] = '0'
	}
	require.False(t, VerifySignature("order_abc", "pay_def", string(mutated), "s3cret"))
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	sig := sign("order_abc|pay_def", "s3cret")
	require.False(t, VerifySignature("order_abc", "pay_def", sig, "other"))
}

func TestVerifySignature_SwappedIdentifiers(t *testing.T) {
	sig := sign("order_abc|pay_def", "s3cret")
	require.False(t, VerifySignature("pay_def", "order_abc", sig, "s3cret"))
}

func TestVerifySignature_MissingInputs(t *testing.T) {
	sig := sign("order_abc|pay_def", "s3cret")
	require.False(t, VerifySignature("", "pay_def", sig, "s3cret"))
	require.False(t, VerifySignature("order_abc", "", sig, "s3cret"))
	require.False(t, VerifySignature("order_abc", "pay_def", "", "s3cret"))
	require.False(t, VerifySignature("order_abc", "pay_def", sig, ""))
}

func TestVerifyWebhookSignature_RoundTrip(t *testing.T) {
	body := []byte(`{"event":"subscription.charged"}`)
	sig := sign(string(body), "whsec")
	require.True(t, VerifyWebhookSignature(body, sig, "whsec"))
	require.False(t, VerifyWebhookSignature([]byte(`{"event":"tampered"}`), sig, "whsec"))
	require.False(t, VerifyWebhookSignature(nil, sig, "whsec"))
}
