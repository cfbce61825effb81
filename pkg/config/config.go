package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Matching     MatchingConfig
	Expiry       ExpiryConfig
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
	Env          string `envconfig:"DALLIGO_APP_ENV" required:"true"`
	Port         string `envconfig:"DALLIGO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DALLIGO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DALLIGO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DALLIGO_DB_DSN"`
	Driver string `envconfig:"DALLIGO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DALLIGO_DB_HOST"`
	LegacyPort     int    `envconfig:"DALLIGO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DALLIGO_DB_USER"`
	LegacyPassword string `envconfig:"DALLIGO_DB_PASSWORD"`
	LegacyName     string `envconfig:"DALLIGO_DB_NAME"`
	LegacySSLMode  string `envconfig:"DALLIGO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DALLIGO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DALLIGO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DALLIGO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DALLIGO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DALLIGO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DALLIGO_REDIS_ADDR"`
	Password     string        `envconfig:"DALLIGO_REDIS_PASSWORD"`
	DB           int           `envconfig:"DALLIGO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DALLIGO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DALLIGO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DALLIGO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DALLIGO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DALLIGO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"DALLIGO_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"DALLIGO_AUTO_MIGRATE" default:"false"`
}

type MatchingConfig struct {
	// ViewCountDedupeTTL controls how long a viewer id suppresses repeat
	// view-count increments for the same posting.
	ViewCountDedupeTTL time.Duration `envconfig:"DALLIGO_MATCHING_VIEW_DEDUPE_TTL" default:"30m"`
}

type ExpiryConfig struct {
	Interval time.Duration `envconfig:"DALLIGO_EXPIRY_INTERVAL" default:"5m"`
	LockTTL  time.Duration `envconfig:"DALLIGO_EXPIRY_LOCK_TTL" default:"4m"`
	// GracePeriod is how long after the receive window closes a posting may
	// still be matched before the worker fails it out.
	GracePeriod time.Duration `envconfig:"DALLIGO_EXPIRY_GRACE_PERIOD" default:"1h"`
	BatchSize   int           `envconfig:"DALLIGO_EXPIRY_BATCH_SIZE" default:"100"`
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
		Path:   "/" + db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
