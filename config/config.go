package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Application
	App AppConfig `mapstructure:"app"`

	// HTTP
	HTTP HTTPConfig `mapstructure:"http"`

	// PostgreSQL
	Postgres PostgresConfig `mapstructure:"postgres"`

	// Redis
	Redis RedisConfig `mapstructure:"redis"`

	// NATS
	NATS NATSConfig `mapstructure:"nats"`

	// Prometheus
	Prometheus PrometheusConfig `mapstructure:"prometheus"`

	// Auth
	Auth AuthConfig `mapstructure:"auth"`

	// Rate limiting
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// IsDevelopment reports whether the app runs outside production.
func (c AppConfig) IsDevelopment() bool {
	return c.Environment != "production"
}

type HTTPConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	PublicBaseURL  string   `mapstructure:"public_base_url"`
}

type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	Database          string `mapstructure:"database"`
	Port              int    `mapstructure:"port"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   string `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   string `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod string `mapstructure:"health_check_period"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	MonitorPort int    `mapstructure:"monitor_port"`
}

type PrometheusConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// AuthConfig controls token signing and password hashing.
type AuthConfig struct {
	SecretKey                string        `mapstructure:"secret_key"`
	Algorithm                string        `mapstructure:"algorithm"`
	Issuer                   string        `mapstructure:"issuer"`
	AccessTokenExpireMinutes int           `mapstructure:"access_token_expire_minutes"`
	RefreshTokenExpireDays   int           `mapstructure:"refresh_token_expire_days"`
	BcryptCost               int           `mapstructure:"bcrypt_cost"`
	ReapInterval             time.Duration `mapstructure:"reap_interval"`
	ReapGrace                time.Duration `mapstructure:"reap_grace"`
	UsernameIndexRefresh     time.Duration `mapstructure:"username_index_refresh"`
}

// AccessTTL returns the configured access token lifetime.
func (c AuthConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// RefreshTTL returns the configured refresh token lifetime.
func (c AuthConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTokenExpireDays) * 24 * time.Hour
}

type RateLimitConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

var ErrInvalidConfig = errors.New("invalid config")

func Load() (*Config, error) {
	// Load local .env for development (ignored when missing).
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Search for config/config.yaml (plus root for overrides).
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Allow environment variables to override YAML entries.
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Preserve legacy env variable names.
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the auth layer cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.SecretKey) == "" {
		return fmt.Errorf("%w: auth.secret_key is required", ErrInvalidConfig)
	}
	switch c.Auth.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("%w: unsupported auth.algorithm %q", ErrInvalidConfig, c.Auth.Algorithm)
	}
	if c.Auth.AccessTokenExpireMinutes <= 0 {
		return fmt.Errorf("%w: auth.access_token_expire_minutes must be positive", ErrInvalidConfig)
	}
	if c.Auth.RefreshTokenExpireDays <= 0 {
		return fmt.Errorf("%w: auth.refresh_token_expire_days must be positive", ErrInvalidConfig)
	}
	if c.RateLimit.Enabled && (c.RateLimit.MaxRequests <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("%w: rate_limit needs max_requests and window", ErrInvalidConfig)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "linkyoself")
	v.SetDefault("app.environment", "development")

	v.SetDefault("http.addr", ":8080")

	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")

	v.SetDefault("redis.port", 6379)

	v.SetDefault("nats.port", 4222)

	v.SetDefault("prometheus.port", 9090)

	v.SetDefault("auth.algorithm", "HS256")
	v.SetDefault("auth.issuer", "linkyoself")
	v.SetDefault("auth.access_token_expire_minutes", 30)
	v.SetDefault("auth.refresh_token_expire_days", 7)
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.reap_interval", time.Hour)
	v.SetDefault("auth.reap_grace", 24*time.Hour)
	v.SetDefault("auth.username_index_refresh", 10*time.Minute)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.max_requests", 100)
	v.SetDefault("rate_limit.window", time.Minute)
}

func bindEnvVars(v *viper.Viper) {
	// Application
	v.BindEnv("app.environment", "APP_ENV", "ENVIRONMENT")
	v.BindEnv("app.log_level", "LOG_LEVEL")

	// HTTP
	v.BindEnv("http.addr", "HTTP_ADDR")
	v.BindEnv("http.allowed_origins", "ALLOWED_ORIGINS")
	v.BindEnv("http.public_base_url", "PUBLIC_BASE_URL")

	// PostgreSQL
	v.BindEnv("postgres.host", "PG_HOST")
	v.BindEnv("postgres.user", "PG_USER")
	v.BindEnv("postgres.password", "PG_PASSWORD")
	v.BindEnv("postgres.database", "PG_DB")
	v.BindEnv("postgres.port", "PG_PORT")
	v.BindEnv("postgres.sslmode", "PG_SSLMODE")
	v.BindEnv("postgres.max_conns", "PG_MAX_CONNS")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// NATS
	v.BindEnv("nats.enabled", "NATS_ENABLED")
	v.BindEnv("nats.host", "NATS_HOST")
	v.BindEnv("nats.port", "NATS_PORT")
	v.BindEnv("nats.user", "NATS_USER")
	v.BindEnv("nats.password", "NATS_PASSWORD")
	v.BindEnv("nats.monitor_port", "NATS_MONITOR_PORT")

	// Prometheus
	v.BindEnv("prometheus.enabled", "PROM_ENABLED")
	v.BindEnv("prometheus.port", "PROM_PORT")

	// Auth
	v.BindEnv("auth.secret_key", "SECRET_KEY", "JWT_SECRET")
	v.BindEnv("auth.algorithm", "ALGORITHM")
	v.BindEnv("auth.access_token_expire_minutes", "ACCESS_TOKEN_EXPIRE_MINUTES")
	v.BindEnv("auth.refresh_token_expire_days", "REFRESH_TOKEN_EXPIRE_DAYS")
	v.BindEnv("auth.bcrypt_cost", "BCRYPT_COST")

	// Rate limiting
	v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	v.BindEnv("rate_limit.max_requests", "RATE_LIMIT_MAX_REQUESTS")
	v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
}
