// Package config loads service settings from config.toml, .env and KOPERASI_* variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Report cache backends
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// EnvPrefix prefixes every environment override, KOPERASI_DATABASE_PASSWORD sets database.password
const EnvPrefix = "KOPERASI"

// Config holds all application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Report    ReportConfig    `mapstructure:"report"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type AppConfig struct {
	Name string `mapstructure:"name" validate:"required"`
	Env  string `mapstructure:"env" validate:"required"`
	Port string `mapstructure:"port" validate:"required,numeric"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" validate:"oneof=postgres sqlite"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"gt=0"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	Path            string        `mapstructure:"path"` // sqlite file, ":memory:" allowed
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gt=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0,ltefield=MaxOpenConns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"gte=0"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"` // create tables and load the default chart on startup
	SeedSample      bool          `mapstructure:"seed_sample"`  // also post the sample January journal
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"gt=0"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"` // debug, info, warn, error
	Format string `mapstructure:"format" validate:"oneof=json console"`
	Output string `mapstructure:"output"` // stdout, stderr, or file path
}

type HTTPConfig struct {
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes" validate:"gt=0"`
	TrustedProxies  []string      `mapstructure:"trusted_proxies"`
	RateLimit       int           `mapstructure:"rate_limit_per_minute" validate:"gte=0"` // 0 disables
}

type ReportConfig struct {
	CashAccountCode string        `mapstructure:"cash_account_code" validate:"required"`
	CacheEnabled    bool          `mapstructure:"cache_enabled"`
	CacheBackend    string        `mapstructure:"cache_backend" validate:"oneof=memory redis"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
}

type TelemetryConfig struct {
	Enabled               bool          `mapstructure:"enabled"` // traces
	CollectorEndpoint     string        `mapstructure:"collector_endpoint"`
	SamplingRatio         float64       `mapstructure:"sampling_ratio" validate:"gte=0,lte=1"`
	ServiceName           string        `mapstructure:"service_name" validate:"required"`
	Insecure              bool          `mapstructure:"insecure"`
	MetricsEnabled        bool          `mapstructure:"metrics_enabled"`
	MetricsExportInterval time.Duration `mapstructure:"metrics_export_interval" validate:"gt=0"`
	LogsEnabled           bool          `mapstructure:"logs_enabled"`
	DBTraceEnabled        bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL          bool          `mapstructure:"db_log_full_sql"`
	DBSlowQueryThresh     time.Duration `mapstructure:"db_slow_query_threshold" validate:"gte=0"`
}

// defaults lists every key. Viper only maps environment variables onto keys it
// already knows, so keys without a meaningful default are listed with a zero value.
var defaults = map[string]any{
	"app.name": "koperasi-reports",
	"app.env":  "development",
	"app.port": "8080",

	"database.driver":             DriverPostgres,
	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "koperasi",
	"database.sslmode":            "disable",
	"database.path":               "koperasi.db",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  time.Hour,
	"database.conn_max_idle_time": 30 * time.Minute,
	"database.auto_migrate":       false,
	"database.seed_sample":        false,

	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout":          15 * time.Second,
	"http.write_timeout":         30 * time.Second,
	"http.idle_timeout":          60 * time.Second,
	"http.shutdown_timeout":      30 * time.Second,
	"http.max_header_bytes":      1 << 20,
	"http.trusted_proxies":       []string{},
	"http.rate_limit_per_minute": 0,

	"report.cash_account_code": "1001",
	"report.cache_enabled":     false,
	"report.cache_backend":     CacheBackendMemory,
	"report.cache_ttl":         5 * time.Minute,

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "koperasi-reports",
	"telemetry.insecure":                false,
	"telemetry.metrics_enabled":         false,
	"telemetry.metrics_export_interval": time.Minute,
	"telemetry.logs_enabled":            false,
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,
}

// Load reads configuration. Later sources win:
// built-in defaults, then config.toml in . or /app, then KOPERASI_* variables
// (a .env file in the working directory is loaded into the environment first).
func Load() (*Config, error) {
	// no .env outside local development
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether app.env is production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}

// DSN returns the postgres URL with user and password escaped
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// Addr returns host:port of the Redis server
func (r *RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}
