package config

// EnvPrefix is handed to envconfig; every field carries its full variable name.
const EnvPrefix = "RETAILPOS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	OrderCodeCharsetLetters      = "letters"
	OrderCodeCharsetAlphanumeric = "alphanumeric"

	DefaultTaxRate = "0.0825"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:retailpos.db?_busy_timeout=5000"
)

const (
	EnvAppEnv                 = "RETAILPOS_APP_ENV"
	EnvPort                   = "RETAILPOS_APP_PORT"
	EnvDBDSN                  = "RETAILPOS_DB_DSN"
	EnvDBHost                 = "RETAILPOS_DB_HOST"
	EnvDBUser                 = "RETAILPOS_DB_USER"
	EnvDBName                 = "RETAILPOS_DB_NAME"
	EnvRedisURL               = "RETAILPOS_REDIS_URL"
	EnvJWTSecret              = "RETAILPOS_JWT_SECRET"
	EnvJWTIssuer              = "RETAILPOS_JWT_ISSUER"
	EnvUseSQLite              = "RETAILPOS_USE_SQLITE"
	EnvSalesTaxRate           = "RETAILPOS_SALES_TAX_RATE"
	EnvSalesOrderCodeCharset  = "RETAILPOS_SALES_ORDER_CODE_CHARSET"
	EnvSalesStockCASAttempts  = "RETAILPOS_SALES_STOCK_CAS_ATTEMPTS"
	EnvCORSAllowedOrigins     = "RETAILPOS_CORS_ALLOWED_ORIGINS"
	EnvPubSubOrdersTopic      = "RETAILPOS_PUBSUB_ORDERS_TOPIC"
	EnvOutboxPublishBatchSize = "RETAILPOS_OUTBOX_PUBLISH_BATCH_SIZE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
