package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Square        SquareConfig
	Loyalty       LoyaltyConfig
	Cron          CronConfig
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
	Env          string `envconfig:"LOYALTYHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"LOYALTYHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LOYALTYHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOYALTYHUB_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"LOYALTYHUB_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"LOYALTYHUB_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"LOYALTYHUB_DB_DSN"`
	Driver string `envconfig:"LOYALTYHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LOYALTYHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"LOYALTYHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LOYALTYHUB_DB_USER"`
	LegacyPassword string `envconfig:"LOYALTYHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"LOYALTYHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"LOYALTYHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LOYALTYHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LOYALTYHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LOYALTYHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LOYALTYHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LOYALTYHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LOYALTYHUB_REDIS_ADDR"`
	Password     string        `envconfig:"LOYALTYHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"LOYALTYHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LOYALTYHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LOYALTYHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LOYALTYHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LOYALTYHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LOYALTYHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"LOYALTYHUB_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"LOYALTYHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"LOYALTYHUB_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"LOYALTYHUB_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"LOYALTYHUB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"LOYALTYHUB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"LOYALTYHUB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"LOYALTYHUB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"LOYALTYHUB_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"LOYALTYHUB_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"LOYALTYHUB_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"LOYALTYHUB_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"LOYALTYHUB_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"LOYALTYHUB_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"LOYALTYHUB_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LOYALTYHUB_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LOYALTYHUB_AUTO_MIGRATE" default:"false"`
}

type SquareConfig struct {
	AccessToken string `envconfig:"LOYALTYHUB_SQUARE_ACCESS_TOKEN"`
	LocationID  string `envconfig:"LOYALTYHUB_SQUARE_LOCATION_ID"`
	Env         string `envconfig:"LOYALTYHUB_SQUARE_ENV" default:"sandbox"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type LoyaltyConfig struct {
	// MaxEntriesPerRequest caps entryCount on a single sweepstakes entry call.
	MaxEntriesPerRequest int `envconfig:"LOYALTYHUB_MAX_ENTRIES_PER_REQUEST" default:"100"`
}

type CronConfig struct {
	TickInterval time.Duration `envconfig:"LOYALTYHUB_CRON_TICK_INTERVAL" default:"1m"`
	LockTTL      time.Duration `envconfig:"LOYALTYHUB_CRON_LOCK_TTL" default:"5m"`
	MetricsPort  string        `envconfig:"LOYALTYHUB_CRON_METRICS_PORT" default:"9100"`
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
