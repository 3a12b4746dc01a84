package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names.
const EnvPrefix = "BACKOFFICE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv    = "BACKOFFICE_APP_ENV"
	EnvPort      = "BACKOFFICE_APP_PORT"
	EnvDBDSN     = "BACKOFFICE_DB_DSN"
	EnvDBHost    = "BACKOFFICE_DB_HOST"
	EnvDBUser    = "BACKOFFICE_DB_USER"
	EnvDBName    = "BACKOFFICE_DB_NAME"
	EnvRedisURL  = "BACKOFFICE_REDIS_URL"
	EnvJWTSecret = "BACKOFFICE_JWT_SECRET"
	EnvJWTIssuer = "BACKOFFICE_JWT_ISSUER"
	EnvJWTDays   = "BACKOFFICE_JWT_EXPIRATION_DAYS"
	EnvGCSBucket = "BACKOFFICE_GCS_BUCKET_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
