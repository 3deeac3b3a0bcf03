package server

import (
	"fmt"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
)

const (
	defaultPort            = ":8080"
	defaultOrigins         = "http://localhost:8080"
	defaultMaxMessageSize  = 64 * 1024
	defaultBurst           = 20
	defaultRefillInterval  = time.Second
	defaultSendBufferSize  = 256
	defaultRouteQueueSize  = 64
	defaultStoreTimeout    = 5 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultLogLevel        = "INFO"
	defaultStoreBackend    = "badger"
	defaultBadgerPath      = "./data/badger"
	defaultMongoDatabase   = "chat"
	defaultNATSPrefix      = "relay"
)

// Config holds the server configuration settings including security controls
// and the choice of persistence and cluster backends. Unset values take the
// defaults applied by sanitizeConfig.
type Config struct {
	Port           string `env:"SERVER_PORT"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS"`
	MaxMessageSize int    `env:"MAX_MESSAGE_SIZE"`

	RateLimitBurst          int           `env:"RATE_LIMIT_BURST"`
	RateLimitRefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL"`

	SendBufferSize  int           `env:"SEND_BUFFER_SIZE"`
	RouteQueueSize  int           `env:"ROUTE_QUEUE_SIZE"`
	StoreTimeout    time.Duration `env:"STORE_TIMEOUT"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`

	LogLevel      string `env:"LOG_LEVEL"`
	AuthJWTSecret string `env:"AUTH_JWT_SECRET"`

	StoreBackend  string `env:"STORE_BACKEND" validate:"oneof=badger postgres mongo memory"`
	BadgerPath    string `env:"BADGER_PATH" validate:"required_if=StoreBackend badger"`
	DatabaseDSN   string `env:"DATABASE_DSN" validate:"required_if=StoreBackend postgres"`
	MongoURI      string `env:"MONGO_URI" validate:"required_if=StoreBackend mongo"`
	MongoDatabase string `env:"MONGO_DATABASE"`

	NATSURL           string `env:"NATS_URL"`
	NATSSubjectPrefix string `env:"NATS_SUBJECT_PREFIX" validate:"required_with=NATSURL"`
	NodeID            string `env:"NODE_ID"`
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := sanitizeConfig(Config{StoreBackend: "memory"})
	return &cfg
}

// LoadConfig reads the configuration from the environment, replaces invalid
// values with defaults and checks backend requirements.
func LoadConfig() (*Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	cfg = sanitizeConfig(cfg)
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	return &cfg, nil
}

func sanitizeConfig(cfg Config) Config {
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.AllowedOrigins == "" {
		cfg.AllowedOrigins = defaultOrigins
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultMaxMessageSize
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = defaultBurst
	}
	if cfg.RateLimitRefillInterval <= 0 {
		cfg.RateLimitRefillInterval = defaultRefillInterval
	}
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = defaultSendBufferSize
	}
	if cfg.RouteQueueSize <= 0 {
		cfg.RouteQueueSize = defaultRouteQueueSize
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = defaultStoreTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = defaultStoreBackend
	}
	if cfg.BadgerPath == "" {
		cfg.BadgerPath = defaultBadgerPath
	}
	if cfg.MongoDatabase == "" {
		cfg.MongoDatabase = defaultMongoDatabase
	}
	if cfg.NATSSubjectPrefix == "" {
		cfg.NATSSubjectPrefix = defaultNATSPrefix
	}
	return cfg
}

// Origins returns the configured origin allow-list split on commas.
func (c *Config) Origins() []string {
	return parseOrigins(c.AllowedOrigins)
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
