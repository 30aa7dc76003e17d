package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	defaultAppPort         = "8080"
	defaultCurrency        = "INR"
	defaultRazorpayBaseURL = "https://api.razorpay.com"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	// RazorpaySecret authenticates order creation and keys callback signatures.
	RazorpayKeyID   string
	RazorpaySecret  string
	RazorpayBaseURL string
	Currency        string

	// MaxOrderAmount caps one order in major units; zero leaves it uncapped.
	MaxOrderAmount decimal.Decimal

	ConfirmationPolicy string
	CORSOrigins        []string
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:             os.Getenv("DB_HOST"),
		DBUser:             os.Getenv("DB_USER"),
		DBPassword:         os.Getenv("DB_PASSWORD"),
		DBName:             os.Getenv("DB_NAME"),
		DBPort:             os.Getenv("DB_PORT"),
		AppPort:            getEnv("APP_PORT", defaultAppPort),
		AppEnv:             os.Getenv("APP_ENV"),
		RazorpayKeyID:      os.Getenv("RAZORPAY_KEY_ID"),
		RazorpaySecret:     os.Getenv("RAZORPAY_SECRET"),
		RazorpayBaseURL:    getEnv("RAZORPAY_BASE_URL", defaultRazorpayBaseURL),
		Currency:           strings.ToUpper(getEnv("PAYMENT_CURRENCY", defaultCurrency)),
		ConfirmationPolicy: strings.ToLower(getEnv("CONFIRMATION_POLICY", "append")),
		CORSOrigins:        splitList(getEnv("CORS_ORIGINS", "*")),
	}

	if v := os.Getenv("PAYMENT_MAX_AMOUNT"); v != "" {
		limit, err := decimal.NewFromString(v)
		if err != nil || !limit.IsPositive() {
			return nil, errors.New("PAYMENT_MAX_AMOUNT must be a positive amount")
		}
		cfg.MaxOrderAmount = limit
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first missing setting the server cannot start without.
func (c *Config) Validate() error {
	if c.DBHost == "" {
		return errors.New("environment variables not loaded properly: DB_HOST is empty")
	}
	if c.RazorpayKeyID == "" || c.RazorpaySecret == "" {
		return errors.New("RAZORPAY_KEY_ID and RAZORPAY_SECRET must be set")
	}
	switch c.ConfirmationPolicy {
	case "append", "dedupe", "reject":
	default:
		return errors.New("CONFIRMATION_POLICY must be one of append, dedupe, reject")
	}
	return nil
}

// Mask keeps the first four characters of a credential so it can be logged.
func Mask(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
