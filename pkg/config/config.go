package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"PriceGate/pkg/logger"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string        `yaml:"environment" default:"development" validate:"required"`
	Logger      logger.Config `yaml:"logger"`

	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"15s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORS            bool          `yaml:"cors" default:"true"`
		SlowRequest     time.Duration `yaml:"slow_request" default:"2s"`
	} `yaml:"server"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`

	Vendor struct {
		APIKey             string        `yaml:"api_key"`
		BaseURL            string        `yaml:"base_url" default:"https://api.twelvedata.com" validate:"required,url"`
		Timeout            time.Duration `yaml:"timeout" default:"10s"`
		RateLimitPerMinute int           `yaml:"rate_limit_per_minute" validate:"min=0"`
	} `yaml:"vendor"`

	Cache struct {
		QuoteTTL         time.Duration `yaml:"quote_ttl" default:"5s"`
		AssetListTTL     time.Duration `yaml:"asset_list_ttl" default:"5m"`
		BatchParallelism int           `yaml:"batch_parallelism" default:"5" validate:"min=1"`
		MemoryMaxSize    int           `yaml:"memory_max_size" default:"1000" validate:"min=1"`
	} `yaml:"cache"`

	// Pricing.SpreadBps maps an asset class to its quoted spread in basis points.
	Pricing struct {
		SpreadBps map[string]float64 `yaml:"spread_bps"`
	} `yaml:"pricing"`

	Store struct {
		Driver          string        `yaml:"driver" default:"sqlite" validate:"oneof=pgx sqlite"`
		DSN             string        `yaml:"dsn" default:"file:pricegate.db?_pragma=busy_timeout(5000)" validate:"required"`
		MaxOpenConns    int           `yaml:"max_open_conns" default:"10"`
		MaxIdleConns    int           `yaml:"max_idle_conns" default:"5"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" default:"30m"`
		AutoMigrate     bool          `yaml:"auto_migrate" default:"true"`
	} `yaml:"store"`

	Cron struct {
		UpdatePrices string        `yaml:"update_prices" default:"0 */5 * * * *"`
		RunOnStart   bool          `yaml:"run_on_start"`
		Secret       string        `yaml:"secret"`
		Timeout      time.Duration `yaml:"timeout" default:"2m"`
	} `yaml:"cron"`

	Stream struct {
		Interval   time.Duration `yaml:"interval" default:"5s"`
		MaxSymbols int           `yaml:"max_symbols" default:"32" validate:"min=1"`
	} `yaml:"stream"`

	Redis struct {
		Enabled     bool   `yaml:"enabled"`
		Addr        string `yaml:"addr" default:"localhost:6379"`
		Password    string `yaml:"password"`
		DB          int    `yaml:"db"`
		Prefix      string `yaml:"prefix" default:"pricegate"`
		SnapshotKey string `yaml:"snapshot_key" default:"prices:latest"`
	} `yaml:"redis"`

	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"price-updates"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"snappy"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"50ms"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"kafka"`

	ClickHouse struct {
		Enabled     bool          `yaml:"enabled"`
		Host        string        `yaml:"host" default:"localhost"`
		Port        int           `yaml:"port" default:"9000"`
		Database    string        `yaml:"database" default:"pricegate"`
		User        string        `yaml:"user" default:"default"`
		Password    string        `yaml:"password"`
		Table       string        `yaml:"table" default:"price_history"`
		DialTimeout time.Duration `yaml:"dial_timeout" default:"5s"`
	} `yaml:"clickhouse"`

	SeedAssets []SeedAsset `yaml:"seed_assets" validate:"dive"`
}

// SeedAsset is an asset row inserted into the store at start-up.
type SeedAsset struct {
	Symbol        string  `yaml:"symbol" validate:"required"`
	Name          string  `yaml:"name"`
	Class         string  `yaml:"class" validate:"required,oneof=stock crypto forex commodity"`
	BaseCurrency  string  `yaml:"base_currency"`
	QuoteCurrency string  `yaml:"quote_currency"`
	Precision     int     `yaml:"precision" default:"2"`
	LotSize       float64 `yaml:"lot_size" default:"1"`
	Active        *bool   `yaml:"active"`
}

// IsActive defaults to true when unset.
func (s SeedAsset) IsActive() bool {
	return s.Active == nil || *s.Active
}

var validate = validator.New()

// Load reads a YAML file over the defaults and validates the result.
// A missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	c, err := load(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads .env, then the YAML file, then applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	c, err := load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func load(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &c, nil
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	for i := range c.SeedAssets {
		if err := defaults.Set(&c.SeedAssets[i]); err != nil {
			return nil, fmt.Errorf("seed asset defaults: %w", err)
		}
	}
	return &c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("TWELVE_DATA_API_KEY"); v != "" {
		c.Vendor.APIKey = v
	}
	if v := getenv("TWELVE_DATA_BASE_URL"); v != "" {
		c.Vendor.BaseURL = v
	}
	if v := getenv("DATABASE_URL"); v != "" {
		c.Store.DSN = v
		if strings.HasPrefix(v, "postgres://") || strings.HasPrefix(v, "postgresql://") {
			c.Store.Driver = "pgx"
		}
	}
	if v := getenv("STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := getenv("CRON_SECRET"); v != "" {
		c.Cron.Secret = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := getenv("HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
}

// Validate checks if the configuration is valid. A missing vendor API key is
// allowed here and reported per request instead.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	for class, bps := range c.Pricing.SpreadBps {
		if bps < 0 {
			return fmt.Errorf("pricing.spread_bps.%s must not be negative", class)
		}
	}
	return nil
}
