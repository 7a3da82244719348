package config

import (
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/orders"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "STOREFRONT"

type Config struct {
	HTTPPort string `envconfig:"HTTP_PORT" default:"8080"`
	GRPCPort string `envconfig:"GRPC_PORT" default:"50060"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	MongoURI    string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDBName string `envconfig:"MONGO_DB_NAME" default:"storefront"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	Postgres Postgres `envconfig:"POSTGRES"`

	CatalogPath string `envconfig:"CATALOG_PATH" default:"catalog.db"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaGroupID string   `envconfig:"KAFKA_GROUP_ID" default:"storefront-catalog"`

	RequestTimeout    time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	DirectoryTimeout  time.Duration `envconfig:"DIRECTORY_TIMEOUT" default:"3s"`
	SubmissionTimeout time.Duration `envconfig:"SUBMISSION_TIMEOUT" default:"10s"`
	ShutdownTimeout   time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	FlushInterval     time.Duration `envconfig:"FLUSH_INTERVAL" default:"5s"`

	Breaker Breaker `envconfig:"BREAKER"`
}

type Postgres struct {
	Host     string `split_words:"true" default:"localhost"`
	Port     int    `split_words:"true" default:"5432"`
	User     string `split_words:"true" default:"postgres"`
	Password string `split_words:"true" default:"postgres"`
	DBName   string `split_words:"true" default:"storefront"`
	SSLMode  string `split_words:"true" default:"disable"`
}

type Breaker struct {
	MaxRequests      uint32        `split_words:"true" default:"1"`
	Interval         time.Duration `split_words:"true" default:"1m"`
	Timeout          time.Duration `split_words:"true" default:"30s"`
	FailureThreshold uint32        `split_words:"true" default:"5"`
}

// Load reads the configuration from STOREFRONT_* environment variables.
// Top-level settings also accept their unprefixed name (MONGO_URI, REDIS_ADDR, ...).
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("invalid config: %s_KAFKA_BROKERS is empty", envPrefix)
	}
	if c.RequestTimeout <= 0 || c.SubmissionTimeout <= 0 || c.DirectoryTimeout <= 0 {
		return fmt.Errorf("invalid config: timeouts must be positive")
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("invalid config: %s_FLUSH_INTERVAL must be positive", envPrefix)
	}
	return nil
}

func (c *Config) PostgresCredentials() *repository.Credentials {
	return &repository.Credentials{
		Host:     c.Postgres.Host,
		Port:     c.Postgres.Port,
		User:     c.Postgres.User,
		Password: c.Postgres.Password,
		DBName:   c.Postgres.DBName,
		SSLMode:  c.Postgres.SSLMode,
	}
}

func (c *Config) BreakerConfig() orders.BreakerConfig {
	return orders.BreakerConfig{
		MaxRequests:      c.Breaker.MaxRequests,
		Interval:         c.Breaker.Interval,
		Timeout:          c.Breaker.Timeout,
		FailureThreshold: c.Breaker.FailureThreshold,
	}
}
