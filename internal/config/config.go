package config

import (
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config carries every environment-driven setting of the simulator.
type Config struct {
	Port   string
	DBPath string

	// BaseURL is the public address of this service, used to build the
	// STK push callback URL handed to the collection rail.
	BaseURL string

	MpesaBaseURL           string
	MpesaConsumerKey       string
	MpesaConsumerSecret    string
	MpesaShortCode         string
	MpesaPassKey           string
	MpesaSimulateOnFailure bool

	AirtelBaseURL      string
	AirtelClientID     string
	AirtelClientSecret string
	AirtelPIN          string

	FeeRate    decimal.Decimal
	SessionTTL time.Duration
}

// Load reads the configuration from the environment, falling back to the
// simulator defaults for anything unset.
func Load() Config {
	return Config{
		Port:   getenv("PORT", "8080"),
		DBPath: getenv("DB_PATH", ":memory:"),

		BaseURL: getenv("BASE_URL", "https://intermediary.com"),

		MpesaBaseURL:           getenv("MPESA_BASE_URL", "https://sandbox.safaricom.co.ke"),
		MpesaConsumerKey:       os.Getenv("MPESA_CONSUMER_KEY"),
		MpesaConsumerSecret:    os.Getenv("MPESA_CONSUMER_SECRET"),
		MpesaShortCode:         getenv("MPESA_SHORT_CODE", "174379"),
		MpesaPassKey:           getenv("MPESA_PASS_KEY", "test_pass_key"),
		MpesaSimulateOnFailure: getbool("MPESA_SIMULATE_ON_FAILURE", true),

		AirtelBaseURL:      getenv("AIRTEL_MONEY_BASE_URL", "https://openapiuat.airtel.africa"),
		AirtelClientID:     os.Getenv("AIRTEL_MONEY_CLIENT_ID"),
		AirtelClientSecret: os.Getenv("AIRTEL_MONEY_CLIENT_SECRET"),
		AirtelPIN:          os.Getenv("AIRTEL_MONEY_PIN"),

		FeeRate:    getrate("FEE_RATE", decimal.NewFromFloat(0.01)),
		SessionTTL: getduration("SESSION_TTL", 0),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getbool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getrate(key string, def decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if r, err := decimal.NewFromString(v); err == nil && r.IsPositive() {
			return r
		}
	}
	return def
}

func getduration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
