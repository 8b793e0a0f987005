package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName        string
	HTTPPort           string
	PostgresDSN        string
	KafkaBrokers       []string
	MarketplaceAddress string

	AuditorInterval time.Duration
	AuditorPageSize int

	EnableOutboxRelay       bool
	EnableListingAuditor    bool
	EnableDevChainEndpoints bool
}

func Load() (Config, error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "nftmarket"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	marketplace := strings.ToLower(strings.TrimSpace(os.Getenv("MARKETPLACE_ADDRESS")))
	if marketplace == "" {
		marketplace = "0x000000000000000000000000000000000000m4rk"
	}

	return Config{
		ServiceName:        service,
		HTTPPort:           port,
		PostgresDSN:        os.Getenv("POSTGRES_DSN"),
		KafkaBrokers:       brokers,
		MarketplaceAddress: marketplace,

		AuditorInterval: envDuration("AUDITOR_INTERVAL", time.Minute),
		AuditorPageSize: envInt("AUDITOR_PAGE_SIZE", 50),

		EnableOutboxRelay:       envBool("ENABLE_OUTBOX_RELAY", true),
		EnableListingAuditor:    envBool("ENABLE_LISTING_AUDITOR", true),
		EnableDevChainEndpoints: envBool("ENABLE_DEV_CHAIN_ENDPOINTS", false),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
