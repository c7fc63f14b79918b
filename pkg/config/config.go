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
	DB            DBConfig
	Redis         RedisConfig
	Session       SessionConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Registration  RegistrationConfig
	Mail          MailConfig
	Cron          CronConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Session.validate(cfg.App); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AUTOPARTS_APP_ENV" required:"true"`
	Port         string `envconfig:"AUTOPARTS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"AUTOPARTS_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"AUTOPARTS_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"AUTOPARTS_LOG_WARN_STACK" default:"false"`
	// CORSOrigins is a comma separated list of browser origins allowed to
	// send credentialed requests.
	CORSOrigins    []string      `envconfig:"AUTOPARTS_CORS_ORIGINS" default:"http://localhost:3000"`
	IdempotencyTTL time.Duration `envconfig:"AUTOPARTS_IDEMPOTENCY_TTL" default:"24h"`
}

func (a AppConfig) IsDev() bool {
	env := strings.ToLower(strings.TrimSpace(a.Env))
	return env == AppEnvDev || env == AppEnvDevelopment
}

func (a AppConfig) IsProd() bool {
	env := strings.ToLower(strings.TrimSpace(a.Env))
	return env == AppEnvProd || env == AppEnvProduction
}

type DBConfig struct {
	DSN string `envconfig:"AUTOPARTS_DB_DSN"`

	LegacyHost     string `envconfig:"AUTOPARTS_DB_HOST"`
	LegacyPort     int    `envconfig:"AUTOPARTS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AUTOPARTS_DB_USER"`
	LegacyPassword string `envconfig:"AUTOPARTS_DB_PASSWORD"`
	LegacyName     string `envconfig:"AUTOPARTS_DB_NAME"`
	LegacySSLMode  string `envconfig:"AUTOPARTS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AUTOPARTS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AUTOPARTS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AUTOPARTS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AUTOPARTS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AUTOPARTS_REDIS_URL"`
	Address      string        `envconfig:"AUTOPARTS_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"AUTOPARTS_REDIS_PASSWORD"`
	DB           int           `envconfig:"AUTOPARTS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AUTOPARTS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AUTOPARTS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AUTOPARTS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AUTOPARTS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AUTOPARTS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type SessionConfig struct {
	Secret     string        `envconfig:"AUTOPARTS_SESSION_SECRET" default:"dev-secret-change-me"`
	Issuer     string        `envconfig:"AUTOPARTS_SESSION_ISSUER" default:"autoparts"`
	TTL        time.Duration `envconfig:"AUTOPARTS_SESSION_TTL" default:"168h"`
	CookieName string        `envconfig:"AUTOPARTS_SESSION_COOKIE_NAME" default:"apsession"`
}

func (s SessionConfig) validate(app AppConfig) error {
	if strings.TrimSpace(s.Secret) == "" {
		return fmt.Errorf("%s is required", EnvSessionSecret)
	}
	if app.IsProd() && s.Secret == DefaultSessionSecret {
		return fmt.Errorf("%s must be set to a non-default value in production", EnvSessionSecret)
	}
	if s.TTL <= 0 {
		return fmt.Errorf("%s must be positive", EnvSessionTTL)
	}
	return nil
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"AUTOPARTS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"AUTOPARTS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"AUTOPARTS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"AUTOPARTS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"AUTOPARTS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"AUTOPARTS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"AUTOPARTS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"AUTOPARTS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"AUTOPARTS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"AUTOPARTS_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"AUTOPARTS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	ResendWindow       time.Duration `envconfig:"AUTOPARTS_AUTH_RATE_LIMIT_RESEND_WINDOW" default:"10m"`
	ResendEmailLimit   int           `envconfig:"AUTOPARTS_AUTH_RATE_LIMIT_RESEND_EMAIL_LIMIT" default:"5"`
	ResendIPLimit      int           `envconfig:"AUTOPARTS_AUTH_RATE_LIMIT_RESEND_IP_LIMIT" default:"20"`
	VerifyWindow       time.Duration `envconfig:"AUTOPARTS_AUTH_RATE_LIMIT_VERIFY_WINDOW" default:"10m"`
	VerifyEmailLimit   int           `envconfig:"AUTOPARTS_AUTH_RATE_LIMIT_VERIFY_EMAIL_LIMIT" default:"5"`
	VerifyIPLimit      int           `envconfig:"AUTOPARTS_AUTH_RATE_LIMIT_VERIFY_IP_LIMIT" default:"30"`

	// TrustedProxyHops is how many reverse proxies append to X-Forwarded-For
	// in front of the API. Zero ignores the header and keys on the peer address.
	TrustedProxyHops int `envconfig:"AUTOPARTS_TRUSTED_PROXY_HOPS" default:"0"`
}

type RegistrationConfig struct {
	CodeTTL        time.Duration `envconfig:"AUTOPARTS_REGISTRATION_CODE_TTL" default:"10m"`
	ResendCooldown time.Duration `envconfig:"AUTOPARTS_REGISTRATION_RESEND_COOLDOWN" default:"60s"`
}

type MailConfig struct {
	Provider      string        `envconfig:"AUTOPARTS_MAIL_PROVIDER" default:"log"`
	From          string        `envconfig:"AUTOPARTS_MAIL_FROM" default:"AutoParts <no-reply@autoparts.local>"`
	Stream        string        `envconfig:"AUTOPARTS_MAIL_STREAM" default:"ap:mail:verification"`
	ConsumerGroup string        `envconfig:"AUTOPARTS_MAIL_CONSUMER_GROUP" default:"mail-worker"`
	ClaimIdle     time.Duration `envconfig:"AUTOPARTS_MAIL_CLAIM_IDLE" default:"1m"`
	Sendgrid      SendgridConfig
	SMTP          SMTPConfig
}

type SendgridConfig struct {
	APIKey  string `envconfig:"AUTOPARTS_SENDGRID_API_KEY"`
	BaseURL string `envconfig:"AUTOPARTS_SENDGRID_BASE_URL" default:"https://api.sendgrid.com"`
}

type SMTPConfig struct {
	Host     string `envconfig:"AUTOPARTS_SMTP_HOST"`
	Port     int    `envconfig:"AUTOPARTS_SMTP_PORT" default:"587"`
	User     string `envconfig:"AUTOPARTS_SMTP_USER"`
	Password string `envconfig:"AUTOPARTS_SMTP_PASSWORD"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"AUTOPARTS_CRON_INTERVAL" default:"1m"`
	LockTTL  time.Duration `envconfig:"AUTOPARTS_CRON_LOCK_TTL" default:"5m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"AUTOPARTS_AUTO_MIGRATE" default:"false"`
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
