package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

// WalletConfig holds credentials and endpoints for the payment wallet provider.
type WalletConfig struct {
	BaseURL        string `yaml:"base_url" envconfig:"WALLET_BASE_URL"`
	MerchantID     string `yaml:"merchant_id" envconfig:"WALLET_MERCHANT_ID"`
	APIKey         string `yaml:"api_key" envconfig:"WALLET_API_KEY"`
	CallbackURL    string `yaml:"callback_url" envconfig:"WALLET_CALLBACK_URL"`
	DefaultNetwork string `yaml:"default_network" envconfig:"WALLET_DEFAULT_NETWORK"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"WALLET_TIMEOUT_SECONDS"`
}

// FulfillmentConfig holds credentials and endpoints for the stars delivery provider.
type FulfillmentConfig struct {
	BaseURL        string `yaml:"base_url" envconfig:"FULFILLMENT_BASE_URL"`
	APIKey         string `yaml:"api_key" envconfig:"FULFILLMENT_API_KEY"`
	Network        string `yaml:"network" envconfig:"FULFILLMENT_NETWORK"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"FULFILLMENT_TIMEOUT_SECONDS"`
}

// PricingConfig defines how star quantities are converted to USD amounts.
type PricingConfig struct {
	UnitPriceUSD float64 `yaml:"unit_price_usd" envconfig:"PRICING_UNIT_PRICE_USD"`
}

// DatabaseConfig holds connection settings for the optional order audit store.
// An empty host disables the store entirely.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// Enabled reports whether an audit database is configured.
func (c DatabaseConfig) Enabled() bool {
	return strings.TrimSpace(c.Host) != ""
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

const (
	defaultWalletBaseURL      = "https://api.cryptomus.com"
	defaultFulfillmentBaseURL = "https://tg.parssms.info"
	defaultFulfillmentNetwork = "testnet"
	defaultNetworkLabel       = "mainnet"
	defaultUnitPriceUSD       = 0.2
	defaultProviderTimeoutSec = 10
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the whole bot configuration.
type Config struct {
	Telegram    TelegramConfig    `yaml:"telegram"`
	Webhook     WebhookConfig     `yaml:"webhook"`
	Logging     LoggingConfig     `yaml:"logging"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Wallet      WalletConfig      `yaml:"wallet"`
	Fulfillment FulfillmentConfig `yaml:"fulfillment"`
	Pricing     PricingConfig     `yaml:"pricing"`
	Database    DatabaseConfig    `yaml:"database"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required configuration fields and adjusts defaults.
// Missing provider credentials are a startup error: the bot must never run
// with empty merchant or API keys.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	if strings.TrimSpace(cfg.Wallet.MerchantID) == "" {
		return fmt.Errorf("wallet.merchant_id is required")
	}
	if strings.TrimSpace(cfg.Wallet.APIKey) == "" {
		return fmt.Errorf("wallet.api_key is required")
	}
	if strings.TrimSpace(cfg.Fulfillment.APIKey) == "" {
		return fmt.Errorf("fulfillment.api_key is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if strings.TrimSpace(cfg.Wallet.BaseURL) == "" {
		cfg.Wallet.BaseURL = defaultWalletBaseURL
	}
	if strings.TrimSpace(cfg.Wallet.DefaultNetwork) == "" {
		cfg.Wallet.DefaultNetwork = defaultNetworkLabel
	}
	if cfg.Wallet.TimeoutSeconds <= 0 {
		cfg.Wallet.TimeoutSeconds = defaultProviderTimeoutSec
	}
	if strings.TrimSpace(cfg.Fulfillment.BaseURL) == "" {
		cfg.Fulfillment.BaseURL = defaultFulfillmentBaseURL
	}
	if strings.TrimSpace(cfg.Fulfillment.Network) == "" {
		cfg.Fulfillment.Network = defaultFulfillmentNetwork
	}
	if cfg.Fulfillment.TimeoutSeconds <= 0 {
		cfg.Fulfillment.TimeoutSeconds = defaultProviderTimeoutSec
	}
	if cfg.Pricing.UnitPriceUSD <= 0 {
		cfg.Pricing.UnitPriceUSD = defaultUnitPriceUSD
	}
	if cfg.Database.Enabled() {
		if strings.TrimSpace(cfg.Database.Port) == "" {
			cfg.Database.Port = "5432"
		}
		if strings.TrimSpace(cfg.Database.SSLMode) == "" {
			cfg.Database.SSLMode = "disable"
		}
		if cfg.Database.MaxConnections <= 0 {
			cfg.Database.MaxConnections = 5
		}
	}

	allowed := map[string]struct{}{
		UpdateCallback: {},
		UpdateMessage:  {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}
	return nil
}
