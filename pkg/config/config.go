package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Cart         CartConfig
	Catalog      CatalogConfig
	Checkout     CheckoutConfig
	Paystack     PaystackConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PRIMESTORE_APP_ENV" required:"true"`
	Port         string `envconfig:"PRIMESTORE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PRIMESTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PRIMESTORE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PRIMESTORE_DB_DSN"`
	Driver string `envconfig:"PRIMESTORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PRIMESTORE_DB_HOST"`
	LegacyPort     int    `envconfig:"PRIMESTORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PRIMESTORE_DB_USER"`
	LegacyPassword string `envconfig:"PRIMESTORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"PRIMESTORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"PRIMESTORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PRIMESTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PRIMESTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PRIMESTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PRIMESTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PRIMESTORE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PRIMESTORE_REDIS_ADDR"`
	Password     string        `envconfig:"PRIMESTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"PRIMESTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PRIMESTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PRIMESTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PRIMESTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PRIMESTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PRIMESTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PRIMESTORE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PRIMESTORE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PRIMESTORE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type CartConfig struct {
	// SessionTTL bounds how long an anonymous cart survives without activity.
	SessionTTL time.Duration `envconfig:"PRIMESTORE_CART_SESSION_TTL" default:"336h"`
}

type CatalogConfig struct {
	PageSize         int           `envconfig:"PRIMESTORE_CATALOG_PAGE_SIZE" default:"12"`
	CategoryCacheTTL time.Duration `envconfig:"PRIMESTORE_CATALOG_CATEGORY_CACHE_TTL" default:"5m"`
}

type CheckoutConfig struct {
	ReferencePrefix      string `envconfig:"PRIMESTORE_ORDER_REFERENCE_PREFIX" default:"PS"`
	ReferenceMaxAttempts int    `envconfig:"PRIMESTORE_ORDER_REFERENCE_MAX_ATTEMPTS" default:"5"`
}

type PaystackConfig struct {
	SecretKey      string        `envconfig:"PRIMESTORE_PAYSTACK_SECRET_KEY" required:"true"`
	BaseURL        string        `envconfig:"PRIMESTORE_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	Timeout        time.Duration `envconfig:"PRIMESTORE_PAYSTACK_TIMEOUT" default:"10s"`
	EventDedupeTTL time.Duration `envconfig:"PRIMESTORE_PAYSTACK_EVENT_DEDUPE_TTL" default:"72h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PRIMESTORE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
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
