package fulfillment

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

// deliveryRequest names the recipient and the amount of stars to credit.
type deliveryRequest struct {
	Query    string `json:"query"`
	Quantity int64  `json:"quantity"`
}

// Client credits purchased stars to a recipient via the delivery provider.
type Client struct {
	baseURL string
	apiKey  string
	network string
	http    *http.Client
}

// NewClient builds a fulfillment client from configuration.
func NewClient(cfg config.FulfillmentConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		network: cfg.Network,
		http: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// SendStars asks the provider to credit quantity stars to recipientID.
// A bare HTTP 200 is the only success signal the provider gives.
func (c *Client) SendStars(ctx context.Context, recipientID string, quantity int64) error {
	body, err := json.Marshal(deliveryRequest{Query: recipientID, Quantity: quantity})
	if err != nil {
		return fmt.Errorf("fulfillment: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/stars/%s/payment", c.baseURL, c.network)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("fulfillment: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Error(ctx, "fulfillment", "send.fail",
			slog.String("status", "fail"),
			slog.String("recipient", recipientID),
			slog.Int64("quantity", quantity),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("fulfillment: request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		logger.Error(ctx, "fulfillment", "send.fail",
			slog.String("status", "fail"),
			slog.String("recipient", recipientID),
			slog.Int64("quantity", quantity),
			slog.Int("http_code", resp.StatusCode),
		)
		return fmt.Errorf("fulfillment: unexpected status %s", resp.Status)
	}

	logger.Info(ctx, "fulfillment", "send.ok",
		slog.String("status", "ok"),
		slog.String("recipient", recipientID),
		slog.Int64("quantity", quantity),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}
