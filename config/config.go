package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	OAuth      OAuthConfig
	PayPal     PayPalConfig
	Stripe     StripeConfig
	Trial      TrialConfig
	Membership MembershipConfig
	Pages      PagesConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type PayPalConfig struct {
	Enabled       bool
	BusinessEmail string
	Sandbox       bool
	// NotifyBaseURL is the public base URL of this server; the IPN callback
	// is NotifyBaseURL + /api/v1/webhooks/paypal/ipn.
	NotifyBaseURL string
}

type StripeConfig struct {
	Enabled        bool
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
}

type TrialConfig struct {
	Enabled       bool
	DurationHours int
}

type MembershipConfig struct {
	// SweepInterval is how often the expiration sweep runs.
	SweepInterval time.Duration
}

// PagesConfig holds the frontend URLs gateways redirect back to.
type PagesConfig struct {
	AccountURL string
	LoginURL   string
}

func Load() *Config {
	// Missing .env is fine; defaults and real env vars still apply.
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "8080"),
			Env:          getenv("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getenv("DATABASE_DSN", "coursepass:coursepass@tcp(localhost:3306)/coursepass?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  getenv("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: getenv("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "coursepass",
		},
		OAuth: OAuthConfig{
			GoogleClientID:     getenv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getenv("GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectURL:  getenv("GOOGLE_REDIRECT_URL", ""),
		},
		PayPal: PayPalConfig{
			Enabled:       getenvBool("PAYPAL_ENABLED", true),
			BusinessEmail: getenv("PAYPAL_BUSINESS_EMAIL", ""),
			Sandbox:       getenvBool("PAYPAL_SANDBOX", false),
			NotifyBaseURL: getenv("PAYPAL_NOTIFY_BASE_URL", ""),
		},
		Stripe: StripeConfig{
			Enabled:        getenvBool("STRIPE_ENABLED", true),
			SecretKey:      getenv("STRIPE_SECRET_KEY", ""),
			PublishableKey: getenv("STRIPE_PUBLISHABLE_KEY", ""),
			WebhookSecret:  getenv("STRIPE_WEBHOOK_SECRET", ""),
		},
		Trial: TrialConfig{
			Enabled:       getenvBool("TRIAL_ENABLED", true),
			DurationHours: getenvInt("TRIAL_DURATION_HOURS", 72),
		},
		Membership: MembershipConfig{
			SweepInterval: 24 * time.Hour,
		},
		Pages: PagesConfig{
			AccountURL: getenv("ACCOUNT_PAGE_URL", "https://localhost/account"),
			LoginURL:   getenv("LOGIN_PAGE_URL", "https://localhost/login"),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
