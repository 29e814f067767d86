// Package config loads the solver configuration from a YAML file with
// environment-variable overrides. It provides typed structs for the solver,
// the simulation workers, the optional result sinks (Redis, PostgreSQL,
// Kafka), logging and metrics.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Solver   SolverConfig   `yaml:"solver"`
	Workers  WorkersConfig  `yaml:"workers"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// SolverConfig controls the guess-selection engine.
type SolverConfig struct {
	DictionaryPath string  `yaml:"dictionaryPath"`
	MaxRounds      int     `yaml:"maxRounds"`
	PriorMidpoint  float64 `yaml:"priorMidpoint"`
	PriorSteepness float64 `yaml:"priorSteepness"`
	BucketWidth    float64 `yaml:"bucketWidth"`
	TrainingGlob   string  `yaml:"trainingGlob"`
}

// WorkersConfig controls the simulation harness.
type WorkersConfig struct {
	Count      int    `yaml:"count"`
	MaxSecrets int    `yaml:"maxSecrets"`
	TrainDir   string `yaml:"trainDir"`
	TestDir    string `yaml:"testDir"`
	Executable string `yaml:"executable"`
}

// RedisConfig holds the proposal-cache connection. The cache is skipped when
// Enabled is false.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// PostgresConfig holds the session-result store connection parameters.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds the session-result topic settings.
type KafkaConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Brokers       []string      `yaml:"brokers"`
	ResultsTopic  string        `yaml:"resultsTopic"`
	BatchSize     int           `yaml:"batchSize"`
	FlushInterval time.Duration `yaml:"flushInterval"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus scrape server used by long-running
// commands and the Pushgateway used by short-lived workers.
type MetricsConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Port           int    `yaml:"port"`
	PushgatewayURL string `yaml:"pushgatewayUrl"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. A missing file at the default path is not an error.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err) && path == DefaultPath:
		case err != nil:
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPath is the config file the CLI looks for when --config is not set.
const DefaultPath = "configs/solver.yaml"

// Validate rejects values the solver cannot run with.
func (c *Config) Validate() error {
	if c.Solver.DictionaryPath == "" {
		return fmt.Errorf("solver.dictionaryPath is required")
	}
	if c.Solver.BucketWidth <= 0 {
		return fmt.Errorf("solver.bucketWidth must be positive, got %v", c.Solver.BucketWidth)
	}
	if c.Solver.MaxRounds < 0 {
		return fmt.Errorf("solver.maxRounds must not be negative, got %d", c.Solver.MaxRounds)
	}
	if c.Workers.Count < 0 {
		return fmt.Errorf("workers.count must not be negative, got %d", c.Workers.Count)
	}
	if c.Workers.MaxSecrets < 0 {
		return fmt.Errorf("workers.maxSecrets must not be negative, got %d", c.Workers.MaxSecrets)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Solver: SolverConfig{
			DictionaryPath: "./words_5_letters.txt",
			MaxRounds:      6,
			PriorMidpoint:  1500,
			PriorSteepness: 0.05,
			BucketWidth:    0.20,
			TrainingGlob:   "./train/training_data*.csv",
		},
		Workers: WorkersConfig{
			Count:      0,
			MaxSecrets: 1500,
			TrainDir:   "./train",
			TestDir:    "./test",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 24 * time.Hour,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "wordle",
			User:            "wordle",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    4,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ResultsTopic:  "wordle-session-results",
			BatchSize:     100,
			FlushInterval: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Port: 9090,
		},
	}
}

// applyEnvOverrides reads WS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WS_DICTIONARY_PATH"); v != "" {
		cfg.Solver.DictionaryPath = v
	}
	if v := os.Getenv("WS_MAX_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Solver.MaxRounds = n
		}
	}
	if v := os.Getenv("WS_BUCKET_WIDTH"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Solver.BucketWidth = f
		}
	}
	if v := os.Getenv("WS_TRAINING_GLOB"); v != "" {
		cfg.Solver.TrainingGlob = v
	}
	if v := os.Getenv("WS_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers.Count = n
		}
	}
	if v := os.Getenv("WS_MAX_SECRETS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers.MaxSecrets = n
		}
	}
	if v := os.Getenv("WS_REDIS_ENABLED"); v != "" {
		cfg.Redis.Enabled = parseBool(v, cfg.Redis.Enabled)
	}
	if v := os.Getenv("WS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("WS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("WS_POSTGRES_ENABLED"); v != "" {
		cfg.Postgres.Enabled = parseBool(v, cfg.Postgres.Enabled)
	}
	if v := os.Getenv("WS_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("WS_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("WS_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("WS_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("WS_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("WS_KAFKA_ENABLED"); v != "" {
		cfg.Kafka.Enabled = parseBool(v, cfg.Kafka.Enabled)
	}
	if v := os.Getenv("WS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("WS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("WS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("WS_PUSHGATEWAY_URL"); v != "" {
		cfg.Metrics.PushgatewayURL = v
	}
}

func parseBool(v string, fallback bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
