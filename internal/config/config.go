package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ruralpay/myaccount/internal/models"
)

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LockConfig struct {
	KeyPrefix   string
	WaitTimeout time.Duration
	HoldTimeout time.Duration
	RetryDelay  time.Duration
}

type TransactionConfig struct {
	CancelWindow time.Duration
	MinAmount    int64
	MaxAmount    int64
}

type AccountConfig struct {
	MaxPerUser  int
	FirstNumber string
}

type Config struct {
	Server         ServerConfig
	Lock           LockConfig
	Transaction    TransactionConfig
	Account        AccountConfig
	TransactionTTL time.Duration
	EventsEnabled  bool
	EventsMaxLen   int64
	RunMigrations  bool
	JWTSecret      string
	LogLevel       string
	LogFormat      string
	AllowedOrigins []string
}

var envBindings = map[string]string{
	"server.port":               "PORT",
	"server.read_timeout":       "SERVER_READ_TIMEOUT",
	"server.write_timeout":      "SERVER_WRITE_TIMEOUT",
	"database.host":             "DATABASE_HOST",
	"database.port":             "DATABASE_PORT",
	"database.user":             "DATABASE_USER",
	"database.password":         "DATABASE_PASSWORD",
	"database.name":             "DATABASE_NAME",
	"database.ssl_mode":         "DATABASE_SSL_MODE",
	"database.migrate":          "DATABASE_MIGRATE",
	"redis.host":                "REDIS_HOST",
	"redis.port":                "REDIS_PORT",
	"redis.password":            "REDIS_PASSWORD",
	"redis.db":                  "REDIS_DB",
	"lock.key_prefix":           "LOCK_KEY_PREFIX",
	"lock.wait_timeout":         "LOCK_WAIT_TIMEOUT",
	"lock.hold_timeout":         "LOCK_HOLD_TIMEOUT",
	"lock.retry_delay":          "LOCK_RETRY_DELAY",
	"transaction.cancel_window": "TRANSACTION_CANCEL_WINDOW",
	"transaction.min_amount":    "TRANSACTION_MIN_AMOUNT",
	"transaction.max_amount":    "TRANSACTION_MAX_AMOUNT",
	"account.max_per_user":      "ACCOUNT_MAX_PER_USER",
	"account.first_number":      "ACCOUNT_FIRST_NUMBER",
	"cache.transaction_ttl":     "CACHE_TRANSACTION_TTL",
	"events.enabled":            "EVENTS_ENABLED",
	"events.max_len":            "EVENTS_MAX_LEN",
	"jwt.secret_key":            "JWT_SECRET_KEY",
	"log.level":                 "LOG_LEVEL",
	"log.format":                "LOG_FORMAT",
	"cors.allowed_origins":      "CORS_ALLOWED_ORIGINS",
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_timeout", 15*time.Second)
	viper.SetDefault("server.write_timeout", 15*time.Second)
	viper.SetDefault("database.migrate", true)
	viper.SetDefault("lock.key_prefix", "ACLK:")
	viper.SetDefault("lock.wait_timeout", 3*time.Second)
	viper.SetDefault("lock.hold_timeout", 5*time.Second)
	viper.SetDefault("lock.retry_delay", 100*time.Millisecond)
	viper.SetDefault("transaction.cancel_window", 365*24*time.Hour)
	viper.SetDefault("transaction.min_amount", 10)
	viper.SetDefault("transaction.max_amount", 1_000_000_000)
	viper.SetDefault("account.max_per_user", 10)
	viper.SetDefault("account.first_number", "1000000000")
	viper.SetDefault("cache.transaction_ttl", 10*time.Minute)
	viper.SetDefault("events.enabled", true)
	viper.SetDefault("events.max_len", 100_000)
	viper.SetDefault("jwt.secret_key", "")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("cors.allowed_origins", []string{"https://*", "http://*"})
}

// Load reads the optional .env file and the environment into viper and
// returns the application settings. Database and redis settings stay in
// viper for database.GetConfig and database.InitRedis.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		viper.SetConfigFile(envFile)
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", envFile, err)
			}
		}
	}
	viper.AutomaticEnv()
	setDefaults()

	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
		// .env entries land under their lower-cased variable name; the
		// process environment still wins over them.
		if fileKey := strings.ToLower(env); viper.InConfig(fileKey) {
			viper.SetDefault(key, viper.Get(fileKey))
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("server.port"),
			ReadTimeout:  viper.GetDuration("server.read_timeout"),
			WriteTimeout: viper.GetDuration("server.write_timeout"),
		},
		Lock: LockConfig{
			KeyPrefix:   viper.GetString("lock.key_prefix"),
			WaitTimeout: viper.GetDuration("lock.wait_timeout"),
			HoldTimeout: viper.GetDuration("lock.hold_timeout"),
			RetryDelay:  viper.GetDuration("lock.retry_delay"),
		},
		Transaction: TransactionConfig{
			CancelWindow: viper.GetDuration("transaction.cancel_window"),
			MinAmount:    viper.GetInt64("transaction.min_amount"),
			MaxAmount:    viper.GetInt64("transaction.max_amount"),
		},
		Account: AccountConfig{
			MaxPerUser:  viper.GetInt("account.max_per_user"),
			FirstNumber: viper.GetString("account.first_number"),
		},
		TransactionTTL: viper.GetDuration("cache.transaction_ttl"),
		EventsEnabled:  viper.GetBool("events.enabled"),
		EventsMaxLen:   viper.GetInt64("events.max_len"),
		RunMigrations:  viper.GetBool("database.migrate"),
		JWTSecret:      viper.GetString("jwt.secret_key"),
		LogLevel:       viper.GetString("log.level"),
		LogFormat:      viper.GetString("log.format"),
		AllowedOrigins: viper.GetStringSlice("cors.allowed_origins"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Lock.WaitTimeout <= 0 || c.Lock.HoldTimeout <= 0 {
		return errors.New("lock timeouts must be positive")
	}
	if c.Lock.HoldTimeout < c.Lock.WaitTimeout {
		return fmt.Errorf("lock hold timeout %s is shorter than wait timeout %s", c.Lock.HoldTimeout, c.Lock.WaitTimeout)
	}
	if c.Transaction.MinAmount <= 0 || c.Transaction.MaxAmount < c.Transaction.MinAmount {
		return fmt.Errorf("invalid amount range [%d, %d]", c.Transaction.MinAmount, c.Transaction.MaxAmount)
	}
	if c.Account.MaxPerUser <= 0 {
		return errors.New("account.max_per_user must be positive")
	}
	if !models.ValidAccountNumber(c.Account.FirstNumber) {
		return fmt.Errorf("account.first_number %q must be %d digits", c.Account.FirstNumber, models.AccountNumberWidth)
	}
	return nil
}
