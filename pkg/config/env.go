package config

// EnvPrefix is passed to envconfig.Process; individual fields carry the
// fully qualified variable name so the prefix mainly guards against
// accidental pickup of unrelated variables.
const EnvPrefix = "LOYALTYHUB"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                 = "LOYALTYHUB_APP_ENV"
	EnvPort                   = "LOYALTYHUB_APP_PORT"
	EnvDBDSN                  = "LOYALTYHUB_DB_DSN"
	EnvDBHost                 = "LOYALTYHUB_DB_HOST"
	EnvDBUser                 = "LOYALTYHUB_DB_USER"
	EnvDBName                 = "LOYALTYHUB_DB_NAME"
	EnvRedisURL               = "LOYALTYHUB_REDIS_URL"
	EnvJWTSecret              = "LOYALTYHUB_JWT_SECRET"
	EnvJWTIssuer              = "LOYALTYHUB_JWT_ISSUER"
	EnvJWTExpMins             = "LOYALTYHUB_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "LOYALTYHUB_REFRESH_TOKEN_TTL_MINUTES"
	EnvSquareAccessToken      = "LOYALTYHUB_SQUARE_ACCESS_TOKEN"
	EnvSquareEnv              = "LOYALTYHUB_SQUARE_ENV"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
