package config

// EnvPrefix is passed to envconfig so unprefixed struct fields still resolve.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "SWEETSHOP_DB_DSN"
	EnvDBHost = "SWEETSHOP_DB_HOST"
	EnvDBUser = "SWEETSHOP_DB_USER"
	EnvDBName = "SWEETSHOP_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
