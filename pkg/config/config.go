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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
	Forecast     ForecastConfig
	Cron         CronConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Forecast.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LOGISTICS_APP_ENV" required:"true"`
	Port         string `envconfig:"LOGISTICS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LOGISTICS_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"LOGISTICS_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"LOGISTICS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"LOGISTICS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"LOGISTICS_DB_DSN"`
	Driver string `envconfig:"LOGISTICS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LOGISTICS_DB_HOST"`
	LegacyPort     int    `envconfig:"LOGISTICS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LOGISTICS_DB_USER"`
	LegacyPassword string `envconfig:"LOGISTICS_DB_PASSWORD"`
	LegacyName     string `envconfig:"LOGISTICS_DB_NAME"`
	LegacySSLMode  string `envconfig:"LOGISTICS_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"LOGISTICS_SQLITE_PATH" default:"logistics.db"`

	MaxOpenConns    int           `envconfig:"LOGISTICS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LOGISTICS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LOGISTICS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LOGISTICS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	// SlowQuery logs statements slower than this at warn. Zero disables it.
	SlowQuery time.Duration `envconfig:"LOGISTICS_DB_SLOW_QUERY" default:"500ms"`
}

// IsSQLite reports whether the sqlite dialector should be used.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"LOGISTICS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LOGISTICS_REDIS_ADDR"`
	Password     string        `envconfig:"LOGISTICS_REDIS_PASSWORD"`
	DB           int           `envconfig:"LOGISTICS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LOGISTICS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LOGISTICS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LOGISTICS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LOGISTICS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LOGISTICS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig holds the verification settings for tokens minted by the auth service.
type JWTConfig struct {
	Secret            string `envconfig:"LOGISTICS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LOGISTICS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"LOGISTICS_JWT_EXPIRATION_MINUTES" default:"60"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"LOGISTICS_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LOGISTICS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LOGISTICS_AUTO_MIGRATE" default:"false"`
}

// ForecastConfig carries the tunable heuristics of the capacity forecast.
// DecayFactor and BinsPerPallet are decimal strings so they survive env
// parsing without float drift.
type ForecastConfig struct {
	DecayFactor        string `envconfig:"LOGISTICS_FORECAST_DECAY_FACTOR" default:"0.3"`
	BinsPerPallet      string `envconfig:"LOGISTICS_FORECAST_BINS_PER_PALLET" default:"1"`
	HorizonWeeks       int    `envconfig:"LOGISTICS_FORECAST_HORIZON_WEEKS" default:"8"`
	PretoriaBuffer     int    `envconfig:"LOGISTICS_FORECAST_PRETORIA_BUFFER" default:"50"`
	KlapmutsBuffer     int    `envconfig:"LOGISTICS_FORECAST_KLAPMUTS_BUFFER" default:"30"`
	WarningPercent     int    `envconfig:"LOGISTICS_FORECAST_WARNING_PERCENT" default:"80"`
	CriticalPercent    int    `envconfig:"LOGISTICS_FORECAST_CRITICAL_PERCENT" default:"95"`
	RedistributeBelow  int    `envconfig:"LOGISTICS_FORECAST_REDISTRIBUTE_BELOW_PERCENT" default:"80"`
	PretoriaCapacity   int    `envconfig:"LOGISTICS_FORECAST_PRETORIA_CAPACITY" default:"650"`
	KlapmutsCapacity   int    `envconfig:"LOGISTICS_FORECAST_KLAPMUTS_CAPACITY" default:"384"`
	OffsiteCapacity    int    `envconfig:"LOGISTICS_FORECAST_OFFSITE_CAPACITY" default:"384"`
}

// Decay returns DecayFactor as a decimal.
func (f ForecastConfig) Decay() decimal.Decimal {
	d, err := decimal.NewFromString(f.DecayFactor)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// PalletBins returns BinsPerPallet as a decimal.
func (f ForecastConfig) PalletBins() decimal.Decimal {
	d, err := decimal.NewFromString(f.BinsPerPallet)
	if err != nil {
		return decimal.NewFromInt(1)
	}
	return d
}

func (f ForecastConfig) validate() error {
	decay, err := decimal.NewFromString(f.DecayFactor)
	if err != nil || decay.IsNegative() {
		return fmt.Errorf("%s must be a non-negative decimal", EnvForecastDecayFactor)
	}
	bins, err := decimal.NewFromString(f.BinsPerPallet)
	if err != nil || !bins.IsPositive() {
		return fmt.Errorf("%s must be a positive decimal", EnvForecastBinsPerPallet)
	}
	if f.HorizonWeeks < 0 {
		return fmt.Errorf("%s must be >= 0", EnvForecastHorizonWeeks)
	}
	if f.PretoriaCapacity <= 0 || f.KlapmutsCapacity <= 0 || f.OffsiteCapacity <= 0 {
		return fmt.Errorf("nominal warehouse capacities must be positive")
	}
	if f.WarningPercent > f.CriticalPercent {
		return fmt.Errorf("%s must not exceed %s", EnvForecastWarningPercent, EnvForecastCriticalPercent)
	}
	return nil
}

type CronConfig struct {
	Interval               time.Duration `envconfig:"LOGISTICS_CRON_INTERVAL" default:"1h"`
	LockTTL                time.Duration `envconfig:"LOGISTICS_CRON_LOCK_TTL" default:"10m"`
	StoredArchiveAfterDays int           `envconfig:"LOGISTICS_CRON_STORED_ARCHIVE_AFTER_DAYS" default:"30"`
	StoredArchiveBatch     int           `envconfig:"LOGISTICS_CRON_STORED_ARCHIVE_BATCH" default:"200"`
	OutboxRetentionDays    int           `envconfig:"LOGISTICS_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"LOGISTICS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"LOGISTICS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"LOGISTICS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	ShipmentsTopic        string `envconfig:"LOGISTICS_PUBSUB_SHIPMENTS_TOPIC" default:"logistics-shipment-events"`
	ShipmentsSubscription string `envconfig:"LOGISTICS_PUBSUB_SHIPMENTS_SUBSCRIPTION"`
	CapacityTopic         string `envconfig:"LOGISTICS_PUBSUB_CAPACITY_TOPIC" default:"logistics-capacity-events"`
	CapacitySubscription  string `envconfig:"LOGISTICS_PUBSUB_CAPACITY_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"LOGISTICS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"LOGISTICS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"LOGISTICS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DBDriverSQLite
	}
	if db.IsSQLite() {
		if db.DSN == "" {
			db.DSN = db.SQLitePath
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
