package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Log         struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
		Digest struct {
			Enabled   bool          `yaml:"enabled"`
			Interval  time.Duration `yaml:"interval"`
			Threshold int           `yaml:"threshold"`
			Topic     string        `yaml:"topic"`
		} `yaml:"digest"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORS            bool          `yaml:"cors"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Exchange struct {
		BaseURL         string        `yaml:"base_url"`
		QuoteAsset      string        `yaml:"quote_asset"`
		UserAgent       string        `yaml:"user_agent"`
		Timeout         time.Duration `yaml:"timeout"`
		RequestsPerSec  float64       `yaml:"requests_per_sec"`
		Burst           int           `yaml:"burst"`
		MaxRetryElapsed time.Duration `yaml:"max_retry_elapsed"`
	} `yaml:"exchange"`
	Dashboard struct {
		Symbols  []string `yaml:"symbols"`
		Interval string   `yaml:"interval"`
		Limit    int      `yaml:"limit"`
	} `yaml:"dashboard"`
	Market struct {
		MinVolume         float64 `yaml:"min_volume"`
		Movers            int     `yaml:"movers"`
		SparklineInterval string  `yaml:"sparkline_interval"`
		SparklineLimit    int     `yaml:"sparkline_limit"`
	} `yaml:"market"`
	Favorites struct {
		Backend         string `yaml:"backend"`
		SQLitePath      string `yaml:"sqlite_path"`
		HistoryInterval string `yaml:"history_interval"`
		HistoryLimit    int    `yaml:"history_limit"`
		CandidatesLimit int    `yaml:"candidates_limit"`
	} `yaml:"favorites"`
	Analysis struct {
		DefaultInterval string        `yaml:"default_interval"`
		Limit           int           `yaml:"limit"`
		Refresh         time.Duration `yaml:"refresh"`
		ListInterval    string        `yaml:"list_interval"`
		ListLimit       int           `yaml:"list_limit"`
		Concurrency     int           `yaml:"concurrency"`
	} `yaml:"analysis"`
	Cache struct {
		Backend       string        `yaml:"backend"`
		TickerTTL     time.Duration `yaml:"ticker_ttl"`
		KlineTTL      time.Duration `yaml:"kline_ttl"`
		SymbolTTL     time.Duration `yaml:"symbol_ttl"`
		MemoryMaxSize int           `yaml:"memory_max_size"`
		Cleanup       time.Duration `yaml:"cleanup_interval"`
	} `yaml:"cache"`
	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Auth struct {
		NonceTTL    time.Duration `yaml:"nonce_ttl"`
		MaxSessions int           `yaml:"max_sessions"`
	} `yaml:"auth"`
	Sink struct {
		Type string `yaml:"type"`
	} `yaml:"sink"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, fills defaults and validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A .env file next to the working directory is honoured when present.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("EXCHANGE_BASE_URL"); v != "" {
		c.Exchange.BaseURL = v
	}
	if v := os.Getenv("DASHBOARD_SYMBOLS"); v != "" {
		c.Dashboard.Symbols = splitList(v)
	}
	if v := os.Getenv("FAVORITES_BACKEND"); v != "" {
		c.Favorites.Backend = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("SINK_TYPE"); v != "" {
		c.Sink.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Redis.Host = host
		if ok {
			if p, err := strconv.Atoi(port); err == nil {
				c.Redis.Port = p
			}
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Log.Digest.Topic == "" {
		c.Log.Digest.Topic = "kryptomarket.logs"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Exchange.BaseURL == "" {
		c.Exchange.BaseURL = "https://api.binance.com/api/v3"
	}
	if c.Exchange.QuoteAsset == "" {
		c.Exchange.QuoteAsset = "USDT"
	}
	if c.Exchange.Timeout == 0 {
		c.Exchange.Timeout = 30 * time.Second
	}
	if c.Exchange.RequestsPerSec == 0 {
		c.Exchange.RequestsPerSec = 10
	}
	if c.Exchange.Burst == 0 {
		c.Exchange.Burst = 20
	}
	if c.Exchange.MaxRetryElapsed == 0 {
		c.Exchange.MaxRetryElapsed = 10 * time.Second
	}
	if len(c.Dashboard.Symbols) == 0 {
		c.Dashboard.Symbols = []string{"BTC", "ETH", "BNB", "DOGE", "SHIB", "PEPE", "FLOKI", "BONK", "TRUMP"}
	}
	if c.Dashboard.Interval == "" {
		c.Dashboard.Interval = "15m"
	}
	if c.Dashboard.Limit == 0 {
		c.Dashboard.Limit = 96
	}
	if c.Market.MinVolume == 0 {
		c.Market.MinVolume = 1_000_000
	}
	if c.Market.Movers == 0 {
		c.Market.Movers = 6
	}
	if c.Market.SparklineInterval == "" {
		c.Market.SparklineInterval = "15m"
	}
	if c.Market.SparklineLimit == 0 {
		c.Market.SparklineLimit = 20
	}
	if c.Favorites.Backend == "" {
		c.Favorites.Backend = "memory"
	}
	if c.Favorites.SQLitePath == "" {
		c.Favorites.SQLitePath = "data/favorites.db"
	}
	if c.Favorites.HistoryInterval == "" {
		c.Favorites.HistoryInterval = "1m"
	}
	if c.Favorites.HistoryLimit == 0 {
		c.Favorites.HistoryLimit = 15
	}
	if c.Favorites.CandidatesLimit == 0 {
		c.Favorites.CandidatesLimit = 20
	}
	if c.Analysis.DefaultInterval == "" {
		c.Analysis.DefaultInterval = "15"
	}
	if c.Analysis.Limit == 0 {
		c.Analysis.Limit = 100
	}
	if c.Analysis.Refresh == 0 {
		c.Analysis.Refresh = time.Minute
	}
	if c.Analysis.ListInterval == "" {
		c.Analysis.ListInterval = "1d"
	}
	if c.Analysis.ListLimit == 0 {
		c.Analysis.ListLimit = 200
	}
	if c.Analysis.Concurrency == 0 {
		c.Analysis.Concurrency = 8
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TickerTTL == 0 {
		c.Cache.TickerTTL = 10 * time.Second
	}
	if c.Cache.KlineTTL == 0 {
		c.Cache.KlineTTL = 15 * time.Second
	}
	if c.Cache.SymbolTTL == 0 {
		c.Cache.SymbolTTL = time.Hour
	}
	if c.Cache.MemoryMaxSize == 0 {
		c.Cache.MemoryMaxSize = 5000
	}
	if c.Cache.Cleanup == 0 {
		c.Cache.Cleanup = time.Minute
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "kryptomarket"
	}
	if c.Auth.NonceTTL == 0 {
		c.Auth.NonceTTL = 5 * time.Minute
	}
	if c.Auth.MaxSessions == 0 {
		c.Auth.MaxSessions = 10000
	}
	if c.Sink.Type == "" {
		c.Sink.Type = "none"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "kryptomarket.analysis"
	}
	if c.ClickHouse.Database == "" {
		c.ClickHouse.Database = "kryptomarket"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Exchange.BaseURL == "" {
		return fmt.Errorf("exchange.base_url is required")
	}
	if len(c.Dashboard.Symbols) == 0 {
		return fmt.Errorf("dashboard.symbols cannot be empty")
	}
	switch c.Favorites.Backend {
	case "memory", "redis", "sqlite":
	default:
		return fmt.Errorf("favorites.backend must be 'memory', 'redis' or 'sqlite', got '%s'", c.Favorites.Backend)
	}
	switch c.Cache.Backend {
	case "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.backend must be 'memory', 'redis' or 'layered', got '%s'", c.Cache.Backend)
	}
	switch c.Sink.Type {
	case "none", "kafka", "clickhouse":
	default:
		return fmt.Errorf("sink.type must be 'none', 'kafka' or 'clickhouse', got '%s'", c.Sink.Type)
	}
	if c.Sink.Type == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when sink.type is 'kafka'")
	}
	if c.Log.Digest.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when log.digest is enabled")
	}
	if c.Sink.Type == "clickhouse" && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when sink.type is 'clickhouse'")
	}
	if c.Analysis.Refresh < time.Second {
		return fmt.Errorf("analysis.refresh must be at least 1s")
	}
	if c.Analysis.Concurrency < 1 {
		return fmt.Errorf("analysis.concurrency must be positive")
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
