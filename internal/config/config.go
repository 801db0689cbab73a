package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	CORSAllowedOrigins []string

	// payment provider
	PayPalEnv       string
	PayPalClientID  string
	PayPalSecret    string
	PayPalWebhookID string
	// retry|suppress: how signature rejections answer the provider
	OnVerifyFailure string

	// email
	ResendAPIKey string
	MailFrom     string
	MailReplyTo  string
	MailBcc      string

	// storefront identity used in outbound emails
	BrandName       string
	BrandSiteURL    string
	BrandSupportURL string
	BrandLogoURL    string

	// catalog and the fallback when product resolution misses
	CatalogPath        string
	DefaultProductName string
	DefaultProductURL  string
	DefaultProductImg  string

	EventDedupTTL time.Duration

	// tracing
	OTLPEndpoint     string
	TraceSampleRatio float64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		PayPalEnv:       valueOrDefault(k.String("PAYPAL_ENV"), "sandbox"),
		PayPalClientID:  k.String("PAYPAL_CLIENT_ID"),
		PayPalSecret:    k.String("PAYPAL_CLIENT_SECRET"),
		PayPalWebhookID: k.String("PAYPAL_WEBHOOK_ID"),
		OnVerifyFailure: valueOrDefault(k.String("WEBHOOK_ON_VERIFY_FAILURE"), "retry"),

		ResendAPIKey: k.String("RESEND_API_KEY"),
		MailFrom:     valueOrDefault(k.String("MAIL_FROM"), "Scoot Shop <orders@scootshop.co>"),
		MailReplyTo:  k.String("MAIL_REPLY_TO"),
		MailBcc:      k.String("MAIL_BCC"),

		BrandName:       valueOrDefault(k.String("BRAND_NAME"), "Scoot Shop"),
		BrandSiteURL:    valueOrDefault(k.String("BRAND_SITE_URL"), "https://scootshop.co"),
		BrandSupportURL: k.String("BRAND_SUPPORT_URL"),
		BrandLogoURL:    k.String("BRAND_LOGO_URL"),

		CatalogPath:        k.String("CATALOG_PATH"),
		DefaultProductName: valueOrDefault(k.String("DEFAULT_PRODUCT_NAME"), "Your Scoot Shop order"),
		DefaultProductURL:  valueOrDefault(k.String("DEFAULT_PRODUCT_URL"), "https://scootshop.co"),
		DefaultProductImg:  k.String("DEFAULT_PRODUCT_IMAGE"),

		EventDedupTTL: parseDuration(k.String("EVENT_DEDUP_TTL"), "72h"),

		OTLPEndpoint:     k.String("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TraceSampleRatio: parseRatio(k.String("TRACE_SAMPLE_RATIO"), 0.1),
	}

	switch cfg.OnVerifyFailure {
	case "retry", "suppress":
	default:
		return nil, fmt.Errorf("WEBHOOK_ON_VERIFY_FAILURE must be retry or suppress, got %q", cfg.OnVerifyFailure)
	}

	if cfg.PayPalClientID == "" {
		return nil, errors.New("PAYPAL_CLIENT_ID is required")
	}
	if cfg.PayPalSecret == "" {
		return nil, errors.New("PAYPAL_CLIENT_SECRET is required")
	}
	if cfg.PayPalWebhookID == "" {
		return nil, errors.New("PAYPAL_WEBHOOK_ID is required")
	}
	if cfg.ResendAPIKey == "" {
		return nil, errors.New("RESEND_API_KEY is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseRatio(value string, fallback float64) float64 {
	var f float64
	if _, err := fmt.Sscanf(strings.TrimSpace(value), "%f", &f); err != nil || f < 0 || f > 1 {
		return fallback
	}
	return f
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
