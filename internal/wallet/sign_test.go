package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignReferenceVectors(t *testing.T) {
	// Precomputed HMAC-SHA256 digests; the provider verifies against the
	// same algorithm, so these must never drift.
	cases := []struct {
		name    string
		secret  string
		payload string
		want    string
	}{
		{
			name:    "usdt wallet request",
			secret:  "test-secret",
			payload: `{"currency":"USDT","network":"tron","order_id":"42-50","url_callback":"https://example.com/callback"}`,
			want:    "2160efefe4dc5fdd8b42074305c0b2ad5c9289d9250e601907f0d175ef58b667",
		},
		{
			name:    "bitcoin wallet request",
			secret:  "test-secret",
			payload: `{"currency":"Bitcoin","network":"mainnet","order_id":"42-50","url_callback":"https://example.com/callback"}`,
			want:    "a4f56ecc40e47c012ae1dbb9b70328816d26b46292c5a54d249522f31b903569",
		},
		{
			name:    "empty payload",
			secret:  "k",
			payload: "",
			want:    "8bb990c40a7d61cb97597a942125025be50ac8beb74436e3735b98893a7f6620",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Sign(tc.secret, []byte(tc.payload)))
		})
	}
}

func TestSignDeterministic(t *testing.T) {
	payload := []byte(`{"currency":"USDT","network":"tron","order_id":"1-1","url_callback":""}`)
	first := Sign("secret", payload)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Sign("secret", payload))
	}
}

func TestSignSensitivity(t *testing.T) {
	base := Sign("secret", []byte(`{"currency":"USDT","network":"tron"}`))

	// Any change to the payload bytes changes the digest, including a pure
	// reordering of keys: order is part of the contract.
	assert.NotEqual(t, base, Sign("secret", []byte(`{"currency":"USDT","network":"eth"}`)))
	assert.NotEqual(t, base, Sign("secret", []byte(`{"network":"tron","currency":"USDT"}`)))
	assert.NotEqual(t, base, Sign("other", []byte(`{"currency":"USDT","network":"tron"}`)))
}
