package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Prizeman-Enterprise/crypto-super-hub/pkg/util"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development" validate:"oneof=development staging production test"`
	Server      ServerConfig     `yaml:"server"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Logging     LoggingConfig    `yaml:"logging"`
	Schedule    ScheduleConfig   `yaml:"schedule"`
	Engine      EngineConfig     `yaml:"engine"`
	Output      OutputConfig     `yaml:"output"`
	Binance     BinanceConfig    `yaml:"binance"`
	Store       StoreConfig      `yaml:"store"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
	Kafka       KafkaConfig      `yaml:"kafka"`
	Redis       RedisConfig      `yaml:"redis"`
	Assets      []AssetConfig    `yaml:"assets" validate:"dive"`
}

type ServerConfig struct {
	Enabled         bool          `yaml:"enabled" default:"true"`
	Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	SlowRequest     time.Duration `yaml:"slow_request" default:"1s"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics" validate:"startswith=/"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"json" validate:"oneof=json console"`
	Output string `yaml:"output" default:"stdout"`
}

type ScheduleConfig struct {
	Enabled    bool   `yaml:"enabled" default:"true"`
	Cron       string `yaml:"cron" default:"0 30 0 * * *" validate:"required"`
	RunOnStart bool   `yaml:"run_on_start" default:"true"`
}

type EngineConfig struct {
	Workers       int           `yaml:"workers" default:"4" validate:"gte=1,lte=64"`
	PrimaryAsset  string        `yaml:"primary_asset" default:"BTC" validate:"required"`
	EngineVersion string        `yaml:"engine_version" default:"2.0"`
	RunTimeout    time.Duration `yaml:"run_timeout" default:"30m"`
	LockTTL       time.Duration `yaml:"lock_ttl" default:"1h"`
}

type OutputConfig struct {
	Dir          string `yaml:"dir" default:"output" validate:"required"`
	LegacyLatest bool   `yaml:"legacy_latest" default:"true"`
	WriteCSV     bool   `yaml:"write_csv" default:"true"`
}

type BinanceConfig struct {
	BaseURL           string        `yaml:"base_url" default:"https://api.binance.com" validate:"url"`
	Timeout           time.Duration `yaml:"timeout" default:"30s"`
	PageLimit         int           `yaml:"page_limit" default:"1000" validate:"gte=1,lte=1000"`
	MaxRetries        int           `yaml:"max_retries" default:"5" validate:"gte=0"`
	RetryDelay        time.Duration `yaml:"retry_delay" default:"5s"`
	RequestsPerSecond float64       `yaml:"requests_per_second" default:"5" validate:"gt=0"`
	Burst             float64       `yaml:"burst" default:"1" validate:"gte=1"`
}

type StoreConfig struct {
	Backend    string `yaml:"backend" default:"sqlite" validate:"oneof=none sqlite clickhouse"`
	SQLitePath string `yaml:"sqlite_path" default:"output/risk_scores.db"`
}

type ClickHouseConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"default"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	Table            string        `yaml:"table" default:"risk_scores" validate:"required"`
	UseHTTP          bool          `yaml:"use_http"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
}

type KafkaConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Brokers         []string      `yaml:"brokers"`
	Topic           string        `yaml:"topic" default:"risk.scores"`
	RequiredAcks    int           `yaml:"required_acks" default:"-1" validate:"oneof=-1 0 1"`
	Compression     string        `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
	MaxAttempts     int           `yaml:"max_attempts" default:"3"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	AutoCreateTopic bool          `yaml:"auto_create_topic"`
}

type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr" default:"localhost:6379"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl" default:"48h"`
}

// Load reads a YAML file over the struct defaults and validates the result.
// An empty path yields the defaults alone.
func Load(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv is Load with environment overrides applied before validation.
func LoadWithEnv(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func read(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	if path == "" {
		return &c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("RISK_OUTPUT_DIR"); ok && v != "" {
		c.Output.Dir = v
	}
	if v, ok := lookup("BINANCE_BASE_URL"); ok && v != "" {
		c.Binance.BaseURL = v
	}
	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		c.Kafka.Brokers = util.SplitCSV(v)
		c.Kafka.Enabled = true
	}
	if v, ok := lookup("KAFKA_TOPIC"); ok && v != "" {
		c.Kafka.Topic = v
	}
	if v, ok := lookup("CLICKHOUSE_HOST"); ok && v != "" {
		c.ClickHouse.Host = v
		c.Store.Backend = "clickhouse"
	}
	if v, ok := lookup("REDIS_ADDR"); ok && v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v, ok := lookup("RUN_ON_START"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RUN_ON_START: %w", err)
		}
		c.Schedule.RunOnStart = b
	}
	return nil
}

var validate = validator.New()

// Validate checks tags, cross-field rules and every asset profile.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	var errs []error
	if c.Store.Backend == "clickhouse" && c.ClickHouse.Host == "" {
		errs = append(errs, errors.New("clickhouse.host is required when store.backend is clickhouse"))
	}
	if c.Store.Backend == "sqlite" && c.Store.SQLitePath == "" {
		errs = append(errs, errors.New("store.sqlite_path is required when store.backend is sqlite"))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers is required when kafka is enabled"))
	}
	if c.Kafka.Enabled && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka.topic is required when kafka is enabled"))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when redis is enabled"))
	}

	profiles, err := c.Profiles()
	if err != nil {
		errs = append(errs, err)
	} else {
		primary := false
		for _, p := range profiles {
			if strings.EqualFold(p.AssetID, c.Engine.PrimaryAsset) {
				primary = true
			}
		}
		if !primary {
			errs = append(errs, fmt.Errorf("engine.primary_asset %q is not a configured asset", c.Engine.PrimaryAsset))
		}
	}
	return errors.Join(errs...)
}
