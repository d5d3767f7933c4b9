package config

// EnvPrefix is handed to envconfig; every field also carries its full name
// through the envconfig tag so lookups fall back to the literal key.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	SnapshotBackendMemory   = "memory"
	SnapshotBackendRedis    = "redis"
	SnapshotBackendDatabase = "database"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv       = "STOREFRONT_APP_ENV"
	EnvPort         = "STOREFRONT_APP_PORT"
	EnvLogLevel     = "STOREFRONT_LOG_LEVEL"
	EnvLogFormat    = "STOREFRONT_LOG_FORMAT"
	EnvLogWarnStack = "STOREFRONT_LOG_WARN_STACK"

	EnvDBDSN         = "STOREFRONT_DB_DSN"
	EnvDBDriver      = "STOREFRONT_DB_DRIVER"
	EnvDBAutoMigrate = "STOREFRONT_DB_AUTO_MIGRATE"

	EnvRedisURL  = "STOREFRONT_REDIS_URL"
	EnvRedisAddr = "STOREFRONT_REDIS_ADDR"

	EnvJWTSecret     = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer     = "STOREFRONT_JWT_ISSUER"
	EnvJWTAccessTTL  = "STOREFRONT_JWT_ACCESS_TTL"
	EnvJWTRefreshTTL = "STOREFRONT_JWT_REFRESH_TTL"

	EnvSnapshotBackend  = "STOREFRONT_SNAPSHOT_BACKEND"
	EnvSessionCacheSize = "STOREFRONT_SESSION_CACHE_SIZE"

	EnvCatalogBaseURL       = "STOREFRONT_CATALOG_BASE_URL"
	EnvCatalogTimeout       = "STOREFRONT_CATALOG_TIMEOUT"
	EnvCatalogProductsTTL   = "STOREFRONT_CATALOG_PRODUCTS_TTL"
	EnvCatalogCategoriesTTL = "STOREFRONT_CATALOG_CATEGORIES_TTL"

	EnvAdminEnabled  = "STOREFRONT_ADMIN_ENABLED"
	EnvAdminEmail    = "STOREFRONT_ADMIN_EMAIL"
	EnvAdminPassword = "STOREFRONT_ADMIN_PASSWORD"

	EnvCheckoutDelay = "STOREFRONT_CHECKOUT_DELAY"

	EnvRateLimitWindow = "STOREFRONT_RATE_LIMIT_WINDOW"
	EnvRateLimitLimit  = "STOREFRONT_RATE_LIMIT_LIMIT"

	EnvCSRFEnabled = "STOREFRONT_CSRF_ENABLED"
	EnvCORSOrigins = "STOREFRONT_CORS_ALLOWED_ORIGINS"
)
