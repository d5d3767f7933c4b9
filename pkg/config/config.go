package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Snapshot  SnapshotConfig
	Catalog   CatalogConfig
	Admin     AdminConfig
	Checkout  CheckoutConfig
	RateLimit RateLimitConfig
	Security  SecurityConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Snapshot.Backend {
	case SnapshotBackendMemory:
	case SnapshotBackendRedis:
		if !c.Redis.Enabled() {
			return fmt.Errorf("%s=redis requires %s or %s", EnvSnapshotBackend, EnvRedisURL, EnvRedisAddr)
		}
	case SnapshotBackendDatabase:
		if c.DB.DSN == "" {
			return fmt.Errorf("%s=database requires %s", EnvSnapshotBackend, EnvDBDSN)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvSnapshotBackend, c.Snapshot.Backend)
	}
	switch c.DB.Driver {
	case DBDriverPostgres, DBDriverSQLite:
	default:
		return fmt.Errorf("unsupported %s %q", EnvDBDriver, c.DB.Driver)
	}
	if c.RateLimit.Limit <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("%s and %s must be positive", EnvRateLimitLimit, EnvRateLimitWindow)
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" default:"dev"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN         string `envconfig:"STOREFRONT_DB_DSN"`
	Driver      string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`
	AutoMigrate bool   `envconfig:"STOREFRONT_DB_AUTO_MIGRATE" default:"false"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d DBConfig) Enabled() bool {
	return d.DSN != ""
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret     string        `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer     string        `envconfig:"STOREFRONT_JWT_ISSUER" default:"storefront"`
	AccessTTL  time.Duration `envconfig:"STOREFRONT_JWT_ACCESS_TTL" default:"15m"`
	RefreshTTL time.Duration `envconfig:"STOREFRONT_JWT_REFRESH_TTL" default:"168h"`
}

type SnapshotConfig struct {
	Backend string `envconfig:"STOREFRONT_SNAPSHOT_BACKEND" default:"memory"`
	// SessionCacheSize bounds how many live sessions stay in memory; evicted
	// sessions rehydrate from the snapshot store on next use.
	SessionCacheSize int `envconfig:"STOREFRONT_SESSION_CACHE_SIZE" default:"10000"`
}

type CatalogConfig struct {
	BaseURL       string        `envconfig:"STOREFRONT_CATALOG_BASE_URL" default:"https://api.escuelajs.co/api/v1"`
	Timeout       time.Duration `envconfig:"STOREFRONT_CATALOG_TIMEOUT" default:"10s"`
	ProductsTTL   time.Duration `envconfig:"STOREFRONT_CATALOG_PRODUCTS_TTL" default:"1h"`
	CategoriesTTL time.Duration `envconfig:"STOREFRONT_CATALOG_CATEGORIES_TTL" default:"24h"`
}

type AdminConfig struct {
	Enabled  bool   `envconfig:"STOREFRONT_ADMIN_ENABLED" default:"true"`
	Email    string `envconfig:"STOREFRONT_ADMIN_EMAIL" default:"admin@gmail.com"`
	Password string `envconfig:"STOREFRONT_ADMIN_PASSWORD" default:"admin1234"`
}

type CheckoutConfig struct {
	Delay time.Duration `envconfig:"STOREFRONT_CHECKOUT_DELAY" default:"1s"`
}

type RateLimitConfig struct {
	Window time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_WINDOW" default:"1m"`
	Limit  int           `envconfig:"STOREFRONT_RATE_LIMIT_LIMIT" default:"100"`
}

type SecurityConfig struct {
	CSRFEnabled bool     `envconfig:"STOREFRONT_CSRF_ENABLED" default:"true"`
	CORSOrigins []string `envconfig:"STOREFRONT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}
