package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/starbot/core/config"
)

func testConfig(baseURL string) config.WalletConfig {
	return config.WalletConfig{
		BaseURL:        baseURL,
		MerchantID:     "merchant-1",
		APIKey:         "test-secret",
		CallbackURL:    "https://example.com/callback",
		DefaultNetwork: "mainnet",
		TimeoutSeconds: 5,
	}
}

func TestCreateWalletSuccess(t *testing.T) {
	var gotBody []byte
	var gotSign, gotMerchant string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/wallet", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotMerchant = r.Header.Get("merchant")
		gotSign = r.Header.Get("sign")
		gotBody, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"state":0,"result":{"address":"TDepositAddr1","url":"https://pay.example.com/abc"}}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	dep, err := c.CreateWallet(context.Background(), "USDT", "42-50")
	require.NoError(t, err)
	assert.Equal(t, "TDepositAddr1", dep.Address)
	assert.Equal(t, "https://pay.example.com/abc", dep.PayURL)

	assert.Equal(t, "merchant-1", gotMerchant)
	// The signature must verify against the exact bytes that arrived.
	assert.Equal(t, Sign("test-secret", gotBody), gotSign)

	// Key order on the wire is fixed by the request struct.
	assert.Equal(t,
		`{"currency":"USDT","network":"tron","order_id":"42-50","url_callback":"https://example.com/callback"}`,
		string(gotBody))
}

func TestCreateWalletProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{"state": 1, "message": "currency not supported"})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.CreateWallet(context.Background(), "Bitcoin", "7-3")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.HTTPStatus)
	assert.Equal(t, "currency not supported", apiErr.Message)
}

func TestCreateWalletNonZeroState(t *testing.T) {
	// HTTP 200 with a non-zero state discriminator is still a failure.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"state":2,"message":"merchant disabled"}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.CreateWallet(context.Background(), "USDT", "7-3")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "merchant disabled", apiErr.Message)
}

func TestCreateWalletTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient(testConfig(srv.URL))
	_, err := c.CreateWallet(context.Background(), "USDT", "1-1")
	require.Error(t, err)

	// Network errors are not provider errors; they carry no message to relay.
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestNetworkFor(t *testing.T) {
	c := NewClient(testConfig("http://localhost"))
	assert.Equal(t, "tron", c.NetworkFor("USDT"))
	assert.Equal(t, "mainnet", c.NetworkFor("Bitcoin"))
	assert.Equal(t, "mainnet", c.NetworkFor("Ethereum"))
}
