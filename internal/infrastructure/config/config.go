package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// DefaultBaseURL is used when neither the config file nor BOOKS_API_BASE_URL
// sets a backend address.
const DefaultBaseURL = "http://localhost:8000/api/v1"

// Config is the merged result of the config file, BOOKS_ environment and defaults
type Config struct {
	App       AppConfig
	API       APIConfig
	Session   SessionConfig
	Log       LogConfig
	Telemetry TelemetryConfig
	Metrics   MetricsConfig
	Storage   StorageConfig
	Printing  PrintingConfig
	Tax       TaxConfig
}

// AppConfig selects the environment and the company commands act on
type AppConfig struct {
	Name      string
	Env       string
	CompanyID string // Company used when --company is not given
}

// APIConfig holds backend connection settings
type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // Requests per second, 0 disables limiting
	RateBurst int
	UserAgent string
}

// SessionConfig selects where credentials are persisted
type SessionConfig struct {
	Store         string // sqlite, postgres, redis, memory
	DSN           string // SQLite file path or Postgres DSN
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
	RefreshSkew   time.Duration // Refresh this long before the access token expires
}

// LogConfig is passed to logger.New
type LogConfig struct {
	Level  string // debug, info, warn, error, off
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// TelemetryConfig controls span export for API calls
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string  // host:port of an OTLP gRPC receiver
	SamplingRatio     float64 // fraction of root spans kept, 0..1
	ServiceName       string
	Insecure          bool // plaintext gRPC, for a local collector
}

// MetricsConfig holds Prometheus metrics settings
type MetricsConfig struct {
	Enabled      bool
	TextfilePath string // Written on exit for node_exporter's textfile collector
}

// StorageConfig selects where backup archives are kept
type StorageConfig struct {
	Backend         string // local or s3
	LocalDir        string
	S3Bucket        string
	S3Region        string
	S3Endpoint      string // Custom endpoint for S3-compatible stores
	S3Prefix        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// PrintingConfig holds template rendering settings
type PrintingConfig struct {
	ChromePath string // Empty uses the browser found on PATH
	Timeout    time.Duration
}

// TaxConfig holds the tax rate per document type, as decimal fractions
type TaxConfig struct {
	Rates map[string]decimal.Decimal
}

// Load loads configuration from a TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with BOOKS_ prefix (e.g., BOOKS_API_BASE_URL)
// 2. the file at path, or config.toml found in the search paths when path is empty
// 3. Built-in defaults
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "books"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No file: env and defaults only
	}

	v.SetEnvPrefix("BOOKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	rates, err := parseRates(v.GetStringMapString("tax.rates"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:      v.GetString("app.name"),
			Env:       v.GetString("app.env"),
			CompanyID: v.GetString("app.company_id"),
		},
		API: APIConfig{
			BaseURL:   v.GetString("api.base_url"),
			Timeout:   v.GetDuration("api.timeout"),
			RateLimit: v.GetFloat64("api.rate_limit"),
			RateBurst: v.GetInt("api.rate_burst"),
			UserAgent: v.GetString("api.user_agent"),
		},
		Session: SessionConfig{
			Store:         v.GetString("session.store"),
			DSN:           v.GetString("session.dsn"),
			RedisAddr:     v.GetString("session.redis_addr"),
			RedisPassword: v.GetString("session.redis_password"),
			RedisDB:       v.GetInt("session.redis_db"),
			KeyPrefix:     v.GetString("session.key_prefix"),
			RefreshSkew:   v.GetDuration("session.refresh_skew"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
		Metrics: MetricsConfig{
			Enabled:      v.GetBool("metrics.enabled"),
			TextfilePath: v.GetString("metrics.textfile_path"),
		},
		Storage: StorageConfig{
			Backend:         v.GetString("storage.backend"),
			LocalDir:        v.GetString("storage.local_dir"),
			S3Bucket:        v.GetString("storage.s3_bucket"),
			S3Region:        v.GetString("storage.s3_region"),
			S3Endpoint:      v.GetString("storage.s3_endpoint"),
			S3Prefix:        v.GetString("storage.s3_prefix"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
		},
		Printing: PrintingConfig{
			ChromePath: v.GetString("printing.chrome_path"),
			Timeout:    v.GetDuration("printing.timeout"),
		},
		Tax: TaxConfig{Rates: rates},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseRates(raw map[string]string) (map[string]decimal.Decimal, error) {
	rates := make(map[string]decimal.Decimal, len(raw))
	for docType, s := range raw {
		r, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("tax.rates.%s: %w", docType, err)
		}
		rates[docType] = r
	}
	return rates, nil
}

// applyDefaults fills every field the file and env left empty
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "books"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30 * time.Second
	}
	if cfg.API.RateBurst == 0 {
		cfg.API.RateBurst = 10
	}
	if cfg.API.UserAgent == "" {
		cfg.API.UserAgent = "books-cli"
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = "sqlite"
	}
	if cfg.Session.DSN == "" && cfg.Session.Store == "sqlite" {
		cfg.Session.DSN = defaultDataPath("session.db")
	}
	if cfg.Session.RedisAddr == "" {
		cfg.Session.RedisAddr = "localhost:6379"
	}
	if cfg.Session.KeyPrefix == "" {
		cfg.Session.KeyPrefix = "books:session:"
	}
	if cfg.Session.RefreshSkew == 0 {
		cfg.Session.RefreshSkew = 30 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "local"
	}
	if cfg.Storage.LocalDir == "" {
		cfg.Storage.LocalDir = defaultDataPath("backups")
	}
	if cfg.Storage.S3Prefix == "" {
		cfg.Storage.S3Prefix = "backups/"
	}
	if cfg.Printing.Timeout == 0 {
		cfg.Printing.Timeout = 30 * time.Second
	}
	if cfg.Tax.Rates == nil {
		cfg.Tax.Rates = map[string]decimal.Decimal{}
	}
}

func defaultDataPath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, "books", name)
}

// validate reports the first setting that cannot work
func (c *Config) validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("api.base_url %q is not a valid absolute URL", c.API.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url must use http or https, got %q", u.Scheme)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout cannot be negative")
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit cannot be negative")
	}

	switch c.Session.Store {
	case "sqlite", "memory", "redis":
	case "postgres":
		if c.Session.DSN == "" {
			return fmt.Errorf("session.dsn is required for the postgres session store")
		}
	default:
		return fmt.Errorf("session.store must be one of sqlite, postgres, redis, memory, got %q", c.Session.Store)
	}

	switch c.Storage.Backend {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("storage.s3_bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("storage.backend must be local or s3, got %q", c.Storage.Backend)
	}

	for docType, rate := range c.Tax.Rates {
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("tax.rates.%s must be between 0 and 1, got %s", docType, rate)
		}
	}

	if c.App.Env == "production" {
		if u.Scheme != "https" {
			return fmt.Errorf("api.base_url must use https in production, got %q", c.API.BaseURL)
		}
		if c.Telemetry.Enabled && c.Telemetry.Insecure {
			return fmt.Errorf("telemetry.insecure must be false in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// IsProduction reports whether the app runs in the production environment
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
