package config

// EnvPrefix is handed to envconfig; every field carries its full name in the tag.
const EnvPrefix = "AUTOPARTS"

const (
	AppEnvDev         = "dev"
	AppEnvDevelopment = "development"
	AppEnvProd        = "prod"
	AppEnvProduction  = "production"
)

const DefaultSessionSecret = "dev-secret-change-me"

const (
	EnvAppEnv        = "AUTOPARTS_APP_ENV"
	EnvPort          = "AUTOPARTS_APP_PORT"
	EnvDBDSN         = "AUTOPARTS_DB_DSN"
	EnvDBHost        = "AUTOPARTS_DB_HOST"
	EnvDBUser        = "AUTOPARTS_DB_USER"
	EnvDBName        = "AUTOPARTS_DB_NAME"
	EnvDBPassword    = "AUTOPARTS_DB_PASSWORD"
	EnvRedisURL      = "AUTOPARTS_REDIS_URL"
	EnvSessionSecret = "AUTOPARTS_SESSION_SECRET"
	EnvSessionTTL    = "AUTOPARTS_SESSION_TTL"
	EnvMailProvider  = "AUTOPARTS_MAIL_PROVIDER"
	EnvCodeTTL       = "AUTOPARTS_REGISTRATION_CODE_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
