package config

// EnvPrefix scopes every environment variable consumed by the service.
const EnvPrefix = "primestore"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "PRIMESTORE_DB_DSN"
	EnvDBHost = "PRIMESTORE_DB_HOST"
	EnvDBUser = "PRIMESTORE_DB_USER"
	EnvDBName = "PRIMESTORE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
