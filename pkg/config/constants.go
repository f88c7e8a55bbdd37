package config

// EnvPrefix is the envconfig prefix shared by every setting.
const EnvPrefix = "coop"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "COOP_DB_DSN"
	EnvDBHost = "COOP_DB_HOST"
	EnvDBUser = "COOP_DB_USER"
	EnvDBName = "COOP_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
