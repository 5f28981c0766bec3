package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string

	AssetCollection string
	AssetSchema     string
	MintBatchLimit  uint64

	OutboxBatchSize  int
	OutboxMaxRetries int

	EnableSideEffectRelay bool
	EnableTemplateSync    bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "openprofiles"
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

	collection := os.Getenv("ASSET_COLLECTION")
	if collection == "" {
		collection = "openprofiles"
	}
	schema := os.Getenv("ASSET_SCHEMA")
	if schema == "" {
		schema = "openschema"
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,

		AssetCollection: collection,
		AssetSchema:     schema,
		MintBatchLimit:  uint64(envInt("MINT_BATCH_LIMIT", 100)),

		OutboxBatchSize:  envInt("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries: envInt("OUTBOX_MAX_RETRIES", 5),

		EnableSideEffectRelay: envBool("ENABLE_SIDE_EFFECT_RELAY", true),
		EnableTemplateSync:    envBool("ENABLE_TEMPLATE_SYNC", true),
	}, nil
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
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
