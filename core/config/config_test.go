package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.Telegram.Token = "token"
	cfg.Wallet.MerchantID = "merchant"
	cfg.Wallet.APIKey = "wallet-key"
	cfg.Fulfillment.APIKey = "fulfill-key"
	return cfg
}

func TestNormalizeAppliesDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Errorf("run mode: got %q, want %q", cfg.Telegram.RunMode, RunModeLongpoll)
	}
	if cfg.Wallet.BaseURL == "" || cfg.Fulfillment.BaseURL == "" {
		t.Error("provider base URLs not defaulted")
	}
	if cfg.Wallet.DefaultNetwork != "mainnet" {
		t.Errorf("default network: got %q", cfg.Wallet.DefaultNetwork)
	}
	if cfg.Fulfillment.Network != "testnet" {
		t.Errorf("fulfillment network: got %q", cfg.Fulfillment.Network)
	}
	if cfg.Pricing.UnitPriceUSD != 0.2 {
		t.Errorf("unit price: got %v", cfg.Pricing.UnitPriceUSD)
	}
	if cfg.Wallet.TimeoutSeconds <= 0 || cfg.Fulfillment.TimeoutSeconds <= 0 {
		t.Error("provider timeouts not defaulted")
	}
}

func TestNormalizeRequiredFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing token", func(c *Config) { c.Telegram.Token = "" }, "telegram token"},
		{"missing merchant", func(c *Config) { c.Wallet.MerchantID = " " }, "wallet.merchant_id"},
		{"missing wallet key", func(c *Config) { c.Wallet.APIKey = "" }, "wallet.api_key"},
		{"missing fulfillment key", func(c *Config) { c.Fulfillment.APIKey = "" }, "fulfillment.api_key"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := Normalize(cfg)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestNormalizeRunModeAlias(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "polling"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Errorf("alias not normalized: got %q", cfg.Telegram.RunMode)
	}
}

func TestNormalizeWebhookValidation(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = RunModeWebhook
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for webhook mode without url")
	}

	cfg = validConfig()
	cfg.Telegram.RunMode = RunModeWebhook
	cfg.Webhook.URL = "https://bot.example.com/hook"
	cfg.Webhook.Listen = "0.0.0.0"
	cfg.Webhook.Port = 8443
	if err := Normalize(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNormalizeDatabaseDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Host = "localhost"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Port != "5432" || cfg.Database.SSLMode != "disable" || cfg.Database.MaxConnections != 5 {
		t.Errorf("database defaults not applied: %+v", cfg.Database)
	}

	if !cfg.Database.Enabled() {
		t.Error("database with host should be enabled")
	}
	if (DatabaseConfig{}).Enabled() {
		t.Error("empty database config should be disabled")
	}
}

func TestNormalizeRejectsBadRateLimitExclusion(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit.ExcludeUpdates = []string{"inline_query"}
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for unknown exclusion")
	}
}
