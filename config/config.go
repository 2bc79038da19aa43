package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Lock      LockConfig      `mapstructure:"lock"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Events    EventsConfig    `mapstructure:"events"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Exchange  ExchangeConfig  `mapstructure:"exchange"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// StorageConfig selects the ledger store. "memory" is for local runs only; it
// does not survive restarts and is not shared between processes.
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // postgres, memory
}

// LockConfig holds the per-wallet lock budget. TTL must comfortably exceed the
// longest ledger mutation.
type LockConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	RetryCount int           `mapstructure:"retry_count"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

type QueueConfig struct {
	SettlementConcurrency  int           `mapstructure:"settlement_concurrency"`
	ExchangeConcurrency    int           `mapstructure:"exchange_concurrency"`
	MaintenanceConcurrency int           `mapstructure:"maintenance_concurrency"`
	Attempts               int           `mapstructure:"attempts"`
	Backoff                time.Duration `mapstructure:"backoff"`
	DequeueTimeout         time.Duration `mapstructure:"dequeue_timeout"`
	EnqueueTimeout         time.Duration `mapstructure:"enqueue_timeout"`
	PollInterval           time.Duration `mapstructure:"poll_interval"`
	VisibilityTimeout      time.Duration `mapstructure:"visibility_timeout"`
}

type EventsConfig struct {
	RedisChannel string   `mapstructure:"redis_channel"`
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	KafkaTopic   string   `mapstructure:"kafka_topic"`
}

type WebhookConfig struct {
	CustodySecret string        `mapstructure:"custody_secret"`
	MaxDrift      time.Duration `mapstructure:"max_drift"`
	ReplayTTL     time.Duration `mapstructure:"replay_ttl"`
}

// FiatRailConfig binds a settlement currency to a fiat-rail provider.
type FiatRailConfig struct {
	Provider string `mapstructure:"provider"`
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
}

type ProvidersConfig struct {
	ExchangeBaseURL string                    `mapstructure:"exchange_base_url"`
	ExchangeAPIKey  string                    `mapstructure:"exchange_api_key"`
	RatesBaseURL    string                    `mapstructure:"rates_base_url"`
	FiatRails       map[string]FiatRailConfig `mapstructure:"fiat_rails"` // keyed by currency
	AllowedBanks    []string                  `mapstructure:"allowed_banks"`
	Timeout         time.Duration             `mapstructure:"timeout"`
}

type ExchangeConfig struct {
	RateSide          string        `mapstructure:"rate_side"`
	CleanupGrace      time.Duration `mapstructure:"cleanup_grace"`
	ReconcileInterval time.Duration `mapstructure:"reconcile_interval"`
	ReconcileAttempts int           `mapstructure:"reconcile_attempts"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: LEDGER_.
// Nested keys use underscore: LEDGER_DATABASE_HOST, LEDGER_LOCK_TTL, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "asset_ledger")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "asset-ledger")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("storage.driver", "postgres")
	v.SetDefault("lock.ttl", "10s")
	v.SetDefault("lock.retry_count", 10)
	v.SetDefault("lock.retry_delay", "200ms")
	v.SetDefault("queue.settlement_concurrency", 5)
	v.SetDefault("queue.exchange_concurrency", 2)
	v.SetDefault("queue.maintenance_concurrency", 1)
	v.SetDefault("queue.attempts", 3)
	v.SetDefault("queue.backoff", "5s")
	v.SetDefault("queue.dequeue_timeout", "5s")
	v.SetDefault("queue.enqueue_timeout", "3s")
	v.SetDefault("queue.poll_interval", "1s")
	v.SetDefault("queue.visibility_timeout", "5m")
	v.SetDefault("events.redis_channel", "wallet:balance-changed")
	v.SetDefault("events.kafka_brokers", []string{})
	v.SetDefault("events.kafka_topic", "wallet.balance_changed")
	v.SetDefault("webhook.custody_secret", "")
	v.SetDefault("webhook.max_drift", "5m")
	v.SetDefault("webhook.replay_ttl", "24h")
	v.SetDefault("providers.exchange_base_url", "http://localhost:9101")
	v.SetDefault("providers.rates_base_url", "http://localhost:9102")
	v.SetDefault("providers.allowed_banks", []string{})
	v.SetDefault("providers.timeout", "15s")
	v.SetDefault("exchange.rate_side", "sell")
	v.SetDefault("exchange.cleanup_grace", "168h")
	v.SetDefault("exchange.reconcile_interval", "1m")
	v.SetDefault("exchange.reconcile_attempts", 12)
	v.SetDefault("ratelimit.requests", 120)
	v.SetDefault("ratelimit.window", "1m")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// LEDGER_DATABASE_HOST -> database.host
	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the ledger cannot run with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}
	if c.Lock.TTL <= 0 {
		return fmt.Errorf("lock.ttl must be positive")
	}
	if c.Lock.RetryCount < 1 {
		return fmt.Errorf("lock.retry_count must be at least 1")
	}
	if c.Queue.Attempts < 1 {
		return fmt.Errorf("queue.attempts must be at least 1")
	}
	return nil
}
