package config

import (
	"errors"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	AppPort               int    `mapstructure:"APP_PORT"`
	BcryptCost            int    `mapstructure:"BCRYPT_COST"`
	HashConcurrency       int    `mapstructure:"HASH_CONCURRENCY"`
	SignInRatePerMin      int    `mapstructure:"SIGNIN_RATE_PER_MIN"`
	LogLevel              string `mapstructure:"LOG_LEVEL"`
	LogFormat             string `mapstructure:"LOG_FORMAT"`
	MongoURI              string `mapstructure:"MONGO_URI"`
	MongoDBName           string `mapstructure:"MONGO_DB_NAME"`
	JWTSecret             string `mapstructure:"JWT_SECRET"`
	JWTAlgorithm          string `mapstructure:"JWT_ALGORITHM"`
	InstitutionDomain     string `mapstructure:"INSTITUTION_EMAIL_DOMAIN"`
	OTPTTLMinutes         int    `mapstructure:"OTP_TTL_MINUTES"`
	ResetTokenTTLMinutes  int    `mapstructure:"RESET_TOKEN_TTL_MINUTES"`
	FrontendURL           string `mapstructure:"FRONTEND_URL"`
	MailDriver            string `mapstructure:"MAIL_DRIVER"`
	SMTPHost              string `mapstructure:"SMTP_HOST"`
	SMTPPort              int    `mapstructure:"SMTP_PORT"`
	SMTPUsername          string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword          string `mapstructure:"SMTP_PASSWORD"`
	MailFrom              string `mapstructure:"MAIL_FROM"`
	WSMaxSessionSec       int    `mapstructure:"WS_MAX_SESSION_SEC"`
	WSOutboxBuffer        int    `mapstructure:"WS_OUTBOX_BUFFER"`
	RouteMetricsEnabled   bool   `mapstructure:"ROUTE_METRICS_ENABLED"`
	RequestLoggingEnabled bool   `mapstructure:"REQUEST_LOGGING_ENABLED"`
	PyroscopeAddress      string `mapstructure:"PYROSCOPE_SERVER_ADDRESS"`
}

// Mail drivers
const (
	MailDriverSMTP = "smtp"
	MailDriverLog  = "log"
)

var (
	cachedConfig *Config
	configMutex  sync.RWMutex
)

// Load loads configuration from environment variables and .env file
// It caches the result for subsequent calls
func Load() (Config, error) {
	configMutex.RLock()
	if cachedConfig != nil {
		defer configMutex.RUnlock()
		return *cachedConfig, nil
	}
	configMutex.RUnlock()

	configMutex.Lock()
	defer configMutex.Unlock()

	if cachedConfig != nil {
		return *cachedConfig, nil
	}

	v := viper.New()

	v.SetDefault("APP_PORT", 8080)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("HASH_CONCURRENCY", 0) // 0 = GOMAXPROCS
	v.SetDefault("SIGNIN_RATE_PER_MIN", 5)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("MONGO_URI", "mongodb://mongo:27017")
	v.SetDefault("MONGO_DB_NAME", "placement")
	v.SetDefault("JWT_SECRET", "this-is-a-default-jwt-secret-key-with-32-plus-characters")
	v.SetDefault("JWT_ALGORITHM", "HS256")
	v.SetDefault("INSTITUTION_EMAIL_DOMAIN", "nsec.ac.in")
	v.SetDefault("OTP_TTL_MINUTES", 10)
	v.SetDefault("RESET_TOKEN_TTL_MINUTES", 60)
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("MAIL_DRIVER", MailDriverLog)
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("MAIL_FROM", "")
	v.SetDefault("WS_MAX_SESSION_SEC", 900)
	v.SetDefault("WS_OUTBOX_BUFFER", 256)
	v.SetDefault("ROUTE_METRICS_ENABLED", true)
	v.SetDefault("REQUEST_LOGGING_ENABLED", true)
	v.SetDefault("PYROSCOPE_SERVER_ADDRESS", "")

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	// a missing .env is fine
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	cfg.InstitutionDomain = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(cfg.InstitutionDomain), "@"))
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	cachedConfig = &cfg

	return cfg, nil
}

// ResetCache clears the cached configuration (for testing purposes)
func ResetCache() {
	configMutex.Lock()
	defer configMutex.Unlock()
	cachedConfig = nil
}

// Validation errors
var (
	ErrAppPortRange            = errors.New("APP_PORT must be between 1 and 65535")
	ErrBcryptCostRange         = errors.New("BCRYPT_COST must be between 10 and 16")
	ErrHashConcurrency         = errors.New("HASH_CONCURRENCY cannot be negative")
	ErrSignInRatePerMin        = errors.New("SIGNIN_RATE_PER_MIN must be greater than or equal to 1")
	ErrLogLevelEmpty           = errors.New("LOG_LEVEL cannot be empty")
	ErrLogFormatEmpty          = errors.New("LOG_FORMAT cannot be empty")
	ErrMongoURIEmpty           = errors.New("MONGO_URI cannot be empty")
	ErrMongoDBNameEmpty        = errors.New("MONGO_DB_NAME cannot be empty")
	ErrJWTSecretRequired       = errors.New("JWT_SECRET cannot be empty")
	ErrJWTSecretTooShort       = errors.New("JWT_SECRET must be at least 32 characters for HS256")
	ErrJWTAlgorithmUnsupported = errors.New("JWT_ALGORITHM must be HS256")
	ErrInstitutionDomainEmpty  = errors.New("INSTITUTION_EMAIL_DOMAIN cannot be empty")
	ErrOTPTTL                  = errors.New("OTP_TTL_MINUTES must be greater than 0")
	ErrResetTokenTTL           = errors.New("RESET_TOKEN_TTL_MINUTES must be greater than 0")
	ErrFrontendURLEmpty        = errors.New("FRONTEND_URL cannot be empty")
	ErrMailDriverUnsupported   = errors.New("MAIL_DRIVER must be either smtp or log")
	ErrSMTPIncomplete          = errors.New("MAIL_DRIVER=smtp requires SMTP_HOST, SMTP_PORT, SMTP_USERNAME, SMTP_PASSWORD and MAIL_FROM")
	ErrWSMaxSessionSec         = errors.New("WS_MAX_SESSION_SEC must be greater than 0")
	ErrWSOutboxBuffer          = errors.New("WS_OUTBOX_BUFFER must be greater than 0")
)

// Validate checks if required configuration fields are properly set
func (c Config) Validate() error {
	if c.AppPort <= 0 || c.AppPort > 65535 {
		return ErrAppPortRange
	}
	if c.BcryptCost < 10 || c.BcryptCost > 16 {
		return ErrBcryptCostRange
	}
	if c.HashConcurrency < 0 {
		return ErrHashConcurrency
	}
	if c.SignInRatePerMin < 1 {
		return ErrSignInRatePerMin
	}
	if c.LogLevel == "" {
		return ErrLogLevelEmpty
	}
	if c.LogFormat == "" {
		return ErrLogFormatEmpty
	}
	if c.MongoURI == "" {
		return ErrMongoURIEmpty
	}
	if c.MongoDBName == "" {
		return ErrMongoDBNameEmpty
	}
	if c.JWTSecret == "" {
		return ErrJWTSecretRequired
	}
	if c.JWTAlgorithm != "HS256" {
		return ErrJWTAlgorithmUnsupported
	}
	if len(c.JWTSecret) < 32 {
		return ErrJWTSecretTooShort
	}
	if c.InstitutionDomain == "" {
		return ErrInstitutionDomainEmpty
	}
	if c.OTPTTLMinutes <= 0 {
		return ErrOTPTTL
	}
	if c.ResetTokenTTLMinutes <= 0 {
		return ErrResetTokenTTL
	}
	if c.FrontendURL == "" {
		return ErrFrontendURLEmpty
	}
	switch c.MailDriver {
	case MailDriverLog:
	case MailDriverSMTP:
		if c.SMTPHost == "" || c.SMTPPort <= 0 || c.SMTPUsername == "" || c.SMTPPassword == "" || c.MailFrom == "" {
			return ErrSMTPIncomplete
		}
	default:
		return ErrMailDriverUnsupported
	}
	if c.WSMaxSessionSec <= 0 {
		return ErrWSMaxSessionSec
	}
	if c.WSOutboxBuffer <= 0 {
		return ErrWSOutboxBuffer
	}
	return nil
}
