package fulfillment

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/starbot/core/config"
)

func testConfig(baseURL string) config.FulfillmentConfig {
	return config.FulfillmentConfig{
		BaseURL:        baseURL,
		APIKey:         "fulfill-key",
		Network:        "testnet",
		TimeoutSeconds: 5,
	}
}

func TestSendStarsSuccess(t *testing.T) {
	var gotBody []byte
	var gotKey, gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("api-key")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	err := c.SendStars(context.Background(), "abc", 50)
	require.NoError(t, err)

	assert.Equal(t, "/v1/stars/testnet/payment", gotPath)
	assert.Equal(t, "fulfill-key", gotKey)
	assert.Equal(t, `{"query":"abc","quantity":50}`, string(gotBody))
}

func TestSendStarsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	err := c.SendStars(context.Background(), "abc", 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestSendStarsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(testConfig(srv.URL))
	err := c.SendStars(context.Background(), "abc", 1)
	require.Error(t, err)
}
