package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Sales        SalesConfig
	FeatureFlags FeatureFlagsConfig
	CORS         CORSConfig
	Eventing     EventingConfig
	Stripe       StripeConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Maintenance  MaintenanceConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Sales.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"RETAILPOS_APP_ENV" required:"true"`
	Port         string `envconfig:"RETAILPOS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RETAILPOS_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"RETAILPOS_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"RETAILPOS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"RETAILPOS_DB_DSN"`
	Driver string `envconfig:"RETAILPOS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RETAILPOS_DB_HOST"`
	LegacyPort     int    `envconfig:"RETAILPOS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RETAILPOS_DB_USER"`
	LegacyPassword string `envconfig:"RETAILPOS_DB_PASSWORD"`
	LegacyName     string `envconfig:"RETAILPOS_DB_NAME"`
	LegacySSLMode  string `envconfig:"RETAILPOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RETAILPOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RETAILPOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RETAILPOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RETAILPOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"RETAILPOS_DB_SLOW_QUERY" default:"250ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RETAILPOS_REDIS_URL"`
	Address      string        `envconfig:"RETAILPOS_REDIS_ADDR"`
	Password     string        `envconfig:"RETAILPOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"RETAILPOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RETAILPOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RETAILPOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RETAILPOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RETAILPOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RETAILPOS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"RETAILPOS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"RETAILPOS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"RETAILPOS_JWT_EXPIRATION_MINUTES" default:"720"`
}

// SalesConfig tunes the point-of-sale pipeline.
type SalesConfig struct {
	TaxRate          string        `envconfig:"RETAILPOS_SALES_TAX_RATE" default:"0.0825"`
	OrderCodeCharset string        `envconfig:"RETAILPOS_SALES_ORDER_CODE_CHARSET" default:"letters"`
	StockCASAttempts int           `envconfig:"RETAILPOS_SALES_STOCK_CAS_ATTEMPTS" default:"3"`
	CartTTL          time.Duration `envconfig:"RETAILPOS_SALES_CART_TTL" default:"12h"`
}

// TaxRateDecimal returns the configured tax rate. Load has already validated it.
func (s SalesConfig) TaxRateDecimal() decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(s.TaxRate))
	if err != nil {
		return decimal.RequireFromString(DefaultTaxRate)
	}
	return rate
}

func (s SalesConfig) validate() error {
	rate, err := decimal.NewFromString(strings.TrimSpace(s.TaxRate))
	if err != nil {
		return fmt.Errorf("%s must be a decimal: %w", EnvSalesTaxRate, err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be within [0, 1)", EnvSalesTaxRate)
	}
	switch strings.ToLower(strings.TrimSpace(s.OrderCodeCharset)) {
	case OrderCodeCharsetLetters, OrderCodeCharsetAlphanumeric:
	default:
		return fmt.Errorf("%s must be %q or %q", EnvSalesOrderCodeCharset, OrderCodeCharsetLetters, OrderCodeCharsetAlphanumeric)
	}
	if s.StockCASAttempts <= 0 {
		return fmt.Errorf("%s must be positive", EnvSalesStockCASAttempts)
	}
	return nil
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"RETAILPOS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"RETAILPOS_AUTO_MIGRATE" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"RETAILPOS_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type EventingConfig struct {
	WebhookIdempotencyTTL time.Duration `envconfig:"RETAILPOS_EVENTING_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

type StripeConfig struct {
	Secret string `envconfig:"RETAILPOS_STRIPE_SECRET"`
	Env    string `envconfig:"RETAILPOS_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// Enabled reports whether a webhook signing secret is configured.
func (s StripeConfig) Enabled() bool {
	return strings.TrimSpace(s.Secret) != ""
}

type GCPConfig struct {
	ProjectID       string `envconfig:"RETAILPOS_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"RETAILPOS_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	OrdersTopic    string `envconfig:"RETAILPOS_PUBSUB_ORDERS_TOPIC" default:"retailpos-order-events"`
	InventoryTopic string `envconfig:"RETAILPOS_PUBSUB_INVENTORY_TOPIC" default:"retailpos-inventory-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"RETAILPOS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"RETAILPOS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"RETAILPOS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// MaintenanceConfig schedules the maintenance worker.
type MaintenanceConfig struct {
	Interval            time.Duration `envconfig:"RETAILPOS_MAINTENANCE_INTERVAL" default:"24h"`
	OutboxRetentionDays int           `envconfig:"RETAILPOS_MAINTENANCE_OUTBOX_RETENTION_DAYS" default:"30"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DBDriverSQLite
		if db.DSN == "" {
			db.DSN = defaultSQLiteDSN
		}
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
