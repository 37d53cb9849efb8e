// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	// HMAC secret for owner session JWTs minted by the marketplace frontend.
	HMACSecret string `yaml:"hmac_secret"`
}

// VippsConfig holds the recurring-payment provider credentials. All opaque;
// injected at construction, never read from env inside business logic.
type VippsConfig struct {
	ClientID        string `yaml:"client_id"`
	ClientSecret    string `yaml:"client_secret"`
	SubscriptionKey string `yaml:"subscription_key"`
	MerchantSerial  string `yaml:"merchant_serial"`
	BaseURL         string `yaml:"base_url"`
	RedirectURL     string `yaml:"redirect_url"` // where the payer lands after approving
	WebhookSecret   string `yaml:"webhook_secret"`
	UseNoop         bool   `yaml:"use_noop"` // dev/test provider without network calls
}

type BillingConfig struct {
	// Monthly plan prices in minor units (øre).
	BasicPrice   int64 `yaml:"basic_price"`
	PremiumPrice int64 `yaml:"premium_price"`
	// Per-owner creation attempts per minute.
	CreateRateLimit int `yaml:"create_rate_limit"`
}

type SweepConfig struct {
	Interval time.Duration `yaml:"interval"`
	Batch    int           `yaml:"batch"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Vipps    VippsConfig    `yaml:"vipps"`
	Billing  BillingConfig  `yaml:"billing"`
	Sweep    SweepConfig    `yaml:"sweep"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.ReadTimeout <= 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Vipps.BaseURL == "" {
		cfg.Vipps.BaseURL = "https://apitest.vipps.no"
	}
	if cfg.Billing.BasicPrice <= 0 {
		cfg.Billing.BasicPrice = 19900
	}
	if cfg.Billing.PremiumPrice <= 0 {
		cfg.Billing.PremiumPrice = 34900
	}
	if cfg.Billing.CreateRateLimit <= 0 {
		cfg.Billing.CreateRateLimit = 10
	}
	if cfg.Sweep.Interval <= 0 {
		cfg.Sweep.Interval = time.Hour
	}
	if cfg.Sweep.Batch <= 0 {
		cfg.Sweep.Batch = 200
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Auth.HMACSecret == "" {
		return nil, errors.New("auth.hmac_secret is required")
	}
	if !cfg.Vipps.UseNoop {
		if cfg.Vipps.ClientID == "" || cfg.Vipps.ClientSecret == "" || cfg.Vipps.SubscriptionKey == "" {
			return nil, errors.New("vipps credentials are required unless vipps.use_noop is set")
		}
		if cfg.Vipps.WebhookSecret == "" {
			return nil, errors.New("vipps.webhook_secret is required unless vipps.use_noop is set")
		}
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
