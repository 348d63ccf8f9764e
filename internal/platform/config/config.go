package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// StoreBackend selects the persistence layer for permission and delegate state.
type StoreBackend string

const (
	StoreMemory   StoreBackend = "memory"
	StoreBadger   StoreBackend = "badger"
	StorePostgres StoreBackend = "postgres"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	AdminToken    string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	StoreBackend StoreBackend
	BadgerDir    string
	PostgresDSN  string
	RedisURL     string

	// UserRegistryURL and RecordRegistryURL point at the external registry
	// services. When empty the server falls back to in-process registries,
	// which only makes sense for development.
	UserRegistryURL   string
	RecordRegistryURL string

	// PolicyServices maps policy names accepted in grant requests to the
	// base URLs of their evaluator services.
	PolicyServices map[string]string

	KafkaBrokers    []string
	AuditTopic      string
	RelayInterval   time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	// RateLimit caps mutating requests per caller per RateLimitWindow.
	RateLimit       int
	RateLimitWindow time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:            envOr("STOW_ADDR", ":8080"),
		AdminToken:      os.Getenv("STOW_ADMIN_TOKEN"),
		JWTSigningKey:   envOr("STOW_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:       envOr("STOW_JWT_ISSUER", "stow"),
		JWTAudience:     envOr("STOW_JWT_AUDIENCE", "stow-ledger"),
		StoreBackend:    StoreBackend(envOr("STOW_STORE", string(StoreMemory))),
		BadgerDir:       envOr("STOW_BADGER_DIR", "/var/lib/stow/badger"),
		PostgresDSN:     os.Getenv("STOW_POSTGRES_DSN"),
		RedisURL:        os.Getenv("STOW_REDIS_URL"),
		AuditTopic:      envOr("STOW_AUDIT_TOPIC", "stow.audit.events"),
		RelayInterval:   time.Second,
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		RateLimit:       intEnvOr("STOW_RATE_LIMIT", 120),
		RateLimitWindow: time.Minute,
	}
	cfg.UserRegistryURL = os.Getenv("STOW_USER_REGISTRY_URL")
	cfg.RecordRegistryURL = os.Getenv("STOW_RECORD_REGISTRY_URL")
	if brokers := os.Getenv("STOW_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	cfg.PolicyServices = parsePolicyServices(os.Getenv("STOW_POLICY_SERVICES"))
	return cfg
}

// parsePolicyServices reads "name=url" pairs separated by commas, for example
// "consent=http://consent:8080/check,jurisdiction=http://geo:8080/check".
func parsePolicyServices(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	services := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		name, url, ok := strings.Cut(pair, "=")
		if !ok || name == "" || url == "" {
			continue
		}
		services[name] = url
	}
	return services
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnvOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed < 1 {
		return fallback
	}
	return parsed
}
