package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/m3rciful/starbot/core/config"
	"github.com/m3rciful/starbot/core/logger"
)

// stateOK is the provider's success discriminator in the response envelope.
const stateOK = 0

const networkTron = "tron"

// Deposit is a provisioned payment destination for one order.
type Deposit struct {
	Address string
	PayURL  string
}

// APIError carries the provider-reported failure message so callers can show
// it to the user verbatim.
type APIError struct {
	HTTPStatus int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("wallet provider error (http %d)", e.HTTPStatus)
	}
	return fmt.Sprintf("wallet provider error (http %d): %s", e.HTTPStatus, e.Message)
}

// createRequest is the wire payload for wallet provisioning. Field order is
// part of the signing contract: the marshaled bytes are signed as-is.
type createRequest struct {
	Currency    string `json:"currency"`
	Network     string `json:"network"`
	OrderID     string `json:"order_id"`
	URLCallback string `json:"url_callback"`
}

type createResponse struct {
	State  int `json:"state"`
	Result struct {
		Address string `json:"address"`
		URL     string `json:"url"`
	} `json:"result"`
	Message string `json:"message"`
}

// Client provisions per-order deposit addresses at the wallet provider.
type Client struct {
	baseURL        string
	merchantID     string
	apiKey         string
	callbackURL    string
	defaultNetwork string
	http           *http.Client
}

// NewClient builds a wallet client from configuration. The HTTP client carries
// an explicit timeout; a hung provider must not block a conversation forever.
func NewClient(cfg config.WalletConfig) *Client {
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		merchantID:     cfg.MerchantID,
		apiKey:         cfg.APIKey,
		callbackURL:    cfg.CallbackURL,
		defaultNetwork: cfg.DefaultNetwork,
		http: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// NetworkFor maps a payment currency to the provider network label.
func (c *Client) NetworkFor(currency string) string {
	if currency == "USDT" {
		return networkTron
	}
	return c.defaultNetwork
}

// CreateWallet provisions a deposit address for the given order.
// Transport failures and provider-reported failures are both returned as
// errors; callers treat them the same way and terminate the purchase.
func (c *Client) CreateWallet(ctx context.Context, currency, orderID string) (Deposit, error) {
	network := c.NetworkFor(currency)
	payload := createRequest{
		Currency:    currency,
		Network:     network,
		OrderID:     orderID,
		URLCallback: c.callbackURL,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Deposit{}, fmt.Errorf("wallet: marshal request: %w", err)
	}
	sign := Sign(c.apiKey, body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/wallet", bytes.NewReader(body))
	if err != nil {
		return Deposit{}, fmt.Errorf("wallet: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("merchant", c.merchantID)
	req.Header.Set("sign", sign)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Error(ctx, "wallet", "create.fail",
			slog.String("status", "fail"),
			slog.String("order_id", orderID),
			slog.String("currency", currency),
			slog.String("network", network),
			slog.String("err", err.Error()),
		)
		return Deposit{}, fmt.Errorf("wallet: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Deposit{}, fmt.Errorf("wallet: read response: %w", err)
	}

	var parsed createResponse
	// The error path may not return JSON at all; fall through to APIError then.
	_ = json.Unmarshal(raw, &parsed)

	if resp.StatusCode != http.StatusOK || parsed.State != stateOK {
		apiErr := &APIError{HTTPStatus: resp.StatusCode, Message: parsed.Message}
		logger.Error(ctx, "wallet", "create.fail",
			slog.String("status", "fail"),
			slog.String("order_id", orderID),
			slog.String("currency", currency),
			slog.String("network", network),
			slog.Int("http_code", resp.StatusCode),
			slog.String("err", apiErr.Error()),
		)
		return Deposit{}, apiErr
	}

	logger.Info(ctx, "wallet", "create.ok",
		slog.String("status", "ok"),
		slog.String("order_id", orderID),
		slog.String("currency", currency),
		slog.String("network", network),
		slog.String("address", parsed.Result.Address),
		slog.Duration("duration", logger.Took(start)),
	)
	return Deposit{Address: parsed.Result.Address, PayURL: parsed.Result.URL}, nil
}
