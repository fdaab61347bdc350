package config

// EnvPrefix is empty because every field carries its full variable name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "LOGISTICS_APP_ENV"
	EnvPort     = "LOGISTICS_APP_PORT"
	EnvLogLevel = "LOGISTICS_LOG_LEVEL"

	EnvDBDSN      = "LOGISTICS_DB_DSN"
	EnvDBDriver   = "LOGISTICS_DB_DRIVER"
	EnvDBHost     = "LOGISTICS_DB_HOST"
	EnvDBUser     = "LOGISTICS_DB_USER"
	EnvDBName     = "LOGISTICS_DB_NAME"
	EnvUseSQLite  = "LOGISTICS_USE_SQLITE"
	EnvSQLitePath = "LOGISTICS_SQLITE_PATH"

	EnvRedisURL = "LOGISTICS_REDIS_URL"

	EnvJWTSecret = "LOGISTICS_JWT_SECRET"
	EnvJWTIssuer = "LOGISTICS_JWT_ISSUER"

	EnvForecastDecayFactor     = "LOGISTICS_FORECAST_DECAY_FACTOR"
	EnvForecastBinsPerPallet   = "LOGISTICS_FORECAST_BINS_PER_PALLET"
	EnvForecastHorizonWeeks    = "LOGISTICS_FORECAST_HORIZON_WEEKS"
	EnvForecastPretoriaBuffer  = "LOGISTICS_FORECAST_PRETORIA_BUFFER"
	EnvForecastWarningPercent  = "LOGISTICS_FORECAST_WARNING_PERCENT"
	EnvForecastCriticalPercent = "LOGISTICS_FORECAST_CRITICAL_PERCENT"

	EnvCronStoredArchiveAfterDays = "LOGISTICS_CRON_STORED_ARCHIVE_AFTER_DAYS"

	EnvPubSubShipmentsTopic = "LOGISTICS_PUBSUB_SHIPMENTS_TOPIC"
	EnvPubSubCapacityTopic  = "LOGISTICS_PUBSUB_CAPACITY_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
