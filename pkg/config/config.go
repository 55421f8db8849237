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
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Checkout      CheckoutConfig
	Razorpay      RazorpayConfig
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
	Env          string `envconfig:"SWEETSHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"SWEETSHOP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SWEETSHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SWEETSHOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SWEETSHOP_DB_DSN"`
	Driver string `envconfig:"SWEETSHOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SWEETSHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"SWEETSHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SWEETSHOP_DB_USER"`
	LegacyPassword string `envconfig:"SWEETSHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"SWEETSHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"SWEETSHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SWEETSHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SWEETSHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SWEETSHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SWEETSHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SWEETSHOP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SWEETSHOP_REDIS_ADDR"`
	Password     string        `envconfig:"SWEETSHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"SWEETSHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SWEETSHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SWEETSHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SWEETSHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SWEETSHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SWEETSHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SWEETSHOP_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SWEETSHOP_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SWEETSHOP_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"SWEETSHOP_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SWEETSHOP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SWEETSHOP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SWEETSHOP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SWEETSHOP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SWEETSHOP_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SWEETSHOP_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SWEETSHOP_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SWEETSHOP_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SWEETSHOP_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SWEETSHOP_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SWEETSHOP_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SWEETSHOP_AUTO_MIGRATE" default:"false"`
}

// CheckoutConfig carries the order pricing policy. Delivery is free once the
// subtotal reaches the threshold; below it the flat fee applies.
type CheckoutConfig struct {
	FreeDeliveryThreshold int `envconfig:"SWEETSHOP_FREE_DELIVERY_THRESHOLD" default:"500"`
	DeliveryFee           int `envconfig:"SWEETSHOP_DELIVERY_FEE" default:"50"`
}

type RazorpayConfig struct {
	KeyID     string        `envconfig:"SWEETSHOP_RAZORPAY_KEY_ID"`
	KeySecret string        `envconfig:"SWEETSHOP_RAZORPAY_KEY_SECRET"`
	BaseURL   string        `envconfig:"SWEETSHOP_RAZORPAY_BASE_URL" default:"https://api.razorpay.com"`
	Currency  string        `envconfig:"SWEETSHOP_RAZORPAY_CURRENCY" default:"INR"`
	Timeout   time.Duration `envconfig:"SWEETSHOP_RAZORPAY_TIMEOUT" default:"10s"`
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
