package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config is the full server configuration. Values are layered: defaults, then the
// optional YAML file named by LINKPULSE_CONFIG, then environment variables.
type Config struct {
	Server         Server        `yaml:"server"`
	Store          StoreConfig   `yaml:"store"`
	Redis          RedisConfig   `yaml:"redis"`
	Kafka          KafkaConfig   `yaml:"kafka"`
	FingerprintKey string        `yaml:"fingerprint_key"`
	RecordTimeout  time.Duration `yaml:"record_timeout"`
	SeedFile       string        `yaml:"seed_file"`
	LogLevel       string        `yaml:"log_level"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig selects and tunes the alias registry and visit ledger backend.
type StoreConfig struct {
	Backend      string        `yaml:"backend"`
	DatabaseURL  string        `yaml:"database_url"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	AutoMigrate  bool          `yaml:"auto_migrate"`
}

// RedisConfig configures the alias lookup cache. An empty URL disables it.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	TTL          time.Duration `yaml:"ttl"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// KafkaConfig configures the visit event publisher. No brokers disables it.
type KafkaConfig struct {
	Brokers     []string `yaml:"brokers"`
	Topic       string   `yaml:"topic"`
	Partitions  int32    `yaml:"partitions"`
	EnsureTopic bool     `yaml:"ensure_topic"`
}

// Default returns the development configuration.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Store: StoreConfig{
			Backend:      BackendMemory,
			Timeout:      2 * time.Second,
			MaxOpenConns: 25,
			MaxIdleConns: 5,
			AutoMigrate:  true,
		},
		Redis: RedisConfig{
			TTL:          5 * time.Minute,
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
		},
		Kafka: KafkaConfig{
			Topic:      "linkpulse.visits",
			Partitions: 3,
		},
		RecordTimeout: 3 * time.Second,
		LogLevel:      "info",
	}
}

// Load reads .env (if present), the YAML file named by LINKPULSE_CONFIG (if set), then
// environment overrides, and validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("LINKPULSE_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	var errs []error
	dur := func(key string, dst *time.Duration) {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	integer := func(key string, dst *int) {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	str("LINKPULSE_ADDR", &c.Server.Addr)
	dur("LINKPULSE_REQUEST_TIMEOUT", &c.Server.RequestTimeout)
	dur("LINKPULSE_SHUTDOWN_TIMEOUT", &c.Server.ShutdownTimeout)

	str("LINKPULSE_STORE", &c.Store.Backend)
	str("LINKPULSE_DATABASE_URL", &c.Store.DatabaseURL)
	dur("LINKPULSE_STORE_TIMEOUT", &c.Store.Timeout)
	integer("LINKPULSE_DB_MAX_OPEN_CONNS", &c.Store.MaxOpenConns)
	integer("LINKPULSE_DB_MAX_IDLE_CONNS", &c.Store.MaxIdleConns)
	if v := getenv("LINKPULSE_AUTO_MIGRATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("LINKPULSE_AUTO_MIGRATE: %w", err))
		} else {
			c.Store.AutoMigrate = b
		}
	}

	str("LINKPULSE_REDIS_URL", &c.Redis.URL)
	dur("LINKPULSE_CACHE_TTL", &c.Redis.TTL)
	integer("LINKPULSE_REDIS_POOL_SIZE", &c.Redis.PoolSize)

	if v := getenv("LINKPULSE_KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	str("LINKPULSE_KAFKA_TOPIC", &c.Kafka.Topic)

	str("LINKPULSE_FINGERPRINT_KEY", &c.FingerprintKey)
	dur("LINKPULSE_RECORD_TIMEOUT", &c.RecordTimeout)
	str("LINKPULSE_SEED_FILE", &c.SeedFile)
	str("LINKPULSE_LOG_LEVEL", &c.LogLevel)

	return errors.Join(errs...)
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server addr is required"))
	}
	switch c.Store.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("database url is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}
	if c.Store.Timeout <= 0 {
		errs = append(errs, errors.New("store timeout must be positive"))
	}
	if c.RecordTimeout <= 0 {
		errs = append(errs, errors.New("record timeout must be positive"))
	}
	if c.Redis.URL != "" && c.Redis.TTL <= 0 {
		errs = append(errs, errors.New("cache ttl must be positive when redis is enabled"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka topic is required when brokers are set"))
	}
	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
