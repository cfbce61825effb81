package config

// EnvPrefix is the envconfig prefix shared by every DALLIGO_* variable.
const EnvPrefix = "dalligo"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "DALLIGO_APP_ENV"
	EnvPort     = "DALLIGO_APP_PORT"
	EnvDBDSN    = "DALLIGO_DB_DSN"
	EnvDBHost   = "DALLIGO_DB_HOST"
	EnvDBUser   = "DALLIGO_DB_USER"
	EnvDBName   = "DALLIGO_DB_NAME"
	EnvRedisURL = "DALLIGO_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
